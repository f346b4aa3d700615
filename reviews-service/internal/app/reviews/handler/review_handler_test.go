package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"coffeecompanion/reviews-service/internal/app/reviews/entity"
	"coffeecompanion/reviews-service/internal/app/reviews/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockReviewService мок для ReviewServiceInterface
type MockReviewService struct {
	mock.Mock
}

func (m *MockReviewService) CheckEligibility(ctx context.Context, orderID, userID string) (*entity.EligibilityResponse, error) {
	args := m.Called(ctx, orderID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.EligibilityResponse), args.Error(1)
}

func (m *MockReviewService) SubmitReview(ctx context.Context, userID, userName string, req *entity.SubmitReviewRequest) (*entity.SubmitReviewResponse, error) {
	args := m.Called(ctx, userID, userName, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.SubmitReviewResponse), args.Error(1)
}

func (m *MockReviewService) GetProductReviews(ctx context.Context, productID string) (*entity.ProductReviewsResponse, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.ProductReviewsResponse), args.Error(1)
}

// MockAggregateService мок для AggregateServiceInterface
type MockAggregateService struct {
	mock.Mock
}

func (m *MockAggregateService) GetSummary(ctx context.Context, productID string) (*entity.RatingSummaryResponse, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.RatingSummaryResponse), args.Error(1)
}

func setUser(userID, userName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", userID)
		c.Set("user_name", userName)
		c.Next()
	}
}

func setupReviewRouter(reviewSvc *MockReviewService, aggregateSvc *MockAggregateService, userID string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	h := NewReviewHandler(reviewSvc, aggregateSvc)

	reviews := router.Group("/reviews")
	if userID != "" {
		reviews.Use(setUser(userID, "Anna"))
	}
	reviews.POST("", h.SubmitReview)
	reviews.GET("/eligibility/:order_id", h.CheckEligibility)

	products := router.Group("/products")
	products.GET("/:product_id/reviews", h.GetProductReviews)
	products.GET("/:product_id/rating", h.GetRatingSummary)

	return router
}

func TestCheckEligibilityEndpoint_Success(t *testing.T) {
	reviewSvc := new(MockReviewService)
	router := setupReviewRouter(reviewSvc, new(MockAggregateService), "user-1")

	resp := &entity.EligibilityResponse{OrderID: "order-1", Receipt: "R-2024-042", Eligible: true}
	reviewSvc.On("CheckEligibility", mock.Anything, "order-1", "user-1").Return(resp, nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/reviews/eligibility/order-1", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var body entity.EligibilityResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Eligible)
	assert.Equal(t, "R-2024-042", body.Receipt)
}

func TestCheckEligibilityEndpoint_NotFound(t *testing.T) {
	reviewSvc := new(MockReviewService)
	router := setupReviewRouter(reviewSvc, new(MockAggregateService), "user-1")

	reviewSvc.On("CheckEligibility", mock.Anything, "missing", "user-1").Return(nil, service.ErrOrderNotFound)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/reviews/eligibility/missing", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCheckEligibilityEndpoint_Forbidden(t *testing.T) {
	reviewSvc := new(MockReviewService)
	router := setupReviewRouter(reviewSvc, new(MockAggregateService), "user-1")

	reviewSvc.On("CheckEligibility", mock.Anything, "order-1", "user-1").Return(nil, service.ErrUnauthorized)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/reviews/eligibility/order-1", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCheckEligibilityEndpoint_NoUser(t *testing.T) {
	router := setupReviewRouter(new(MockReviewService), new(MockAggregateService), "")

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/reviews/eligibility/order-1", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func submitBody(t *testing.T, req entity.SubmitReviewRequest) *bytes.Buffer {
	t.Helper()
	data, err := json.Marshal(req)
	assert.NoError(t, err)
	return bytes.NewBuffer(data)
}

func TestSubmitReviewEndpoint_Success(t *testing.T) {
	reviewSvc := new(MockReviewService)
	router := setupReviewRouter(reviewSvc, new(MockAggregateService), "user-1")

	request := entity.SubmitReviewRequest{
		OrderID: "order-1",
		Rating:  5,
		Comment: "Great coffee",
		Items:   []entity.ItemRating{{ProductID: "latte", Rating: 5}},
	}
	response := &entity.SubmitReviewResponse{
		OrderID:       "order-1",
		RatedProducts: []string{"latte"},
		SubmittedAt:   time.Now(),
	}
	reviewSvc.On("SubmitReview", mock.Anything, "user-1", "Anna", mock.AnythingOfType("*entity.SubmitReviewRequest")).Return(response, nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/reviews", submitBody(t, request))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)

	var body entity.SubmitReviewResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, []string{"latte"}, body.RatedProducts)
}

func TestSubmitReviewEndpoint_ValidationRejectsMissingComment(t *testing.T) {
	reviewSvc := new(MockReviewService)
	router := setupReviewRouter(reviewSvc, new(MockAggregateService), "user-1")

	request := entity.SubmitReviewRequest{
		OrderID: "order-1",
		Rating:  5,
		Items:   []entity.ItemRating{{ProductID: "latte", Rating: 5}},
	}

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/reviews", submitBody(t, request))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	reviewSvc.AssertNotCalled(t, "SubmitReview", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSubmitReviewEndpoint_ValidationRejectsItemRatingAboveFive(t *testing.T) {
	reviewSvc := new(MockReviewService)
	router := setupReviewRouter(reviewSvc, new(MockAggregateService), "user-1")

	request := entity.SubmitReviewRequest{
		OrderID: "order-1",
		Rating:  5,
		Comment: "Great coffee",
		Items:   []entity.ItemRating{{ProductID: "latte", Rating: 7}},
	}

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/reviews", submitBody(t, request))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	reviewSvc.AssertNotCalled(t, "SubmitReview", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSubmitReviewEndpoint_AlreadyRatedConflict(t *testing.T) {
	reviewSvc := new(MockReviewService)
	router := setupReviewRouter(reviewSvc, new(MockAggregateService), "user-1")

	reviewSvc.On("SubmitReview", mock.Anything, "user-1", "Anna", mock.Anything).Return(nil, service.ErrAlreadyRated)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/reviews", submitBody(t, entity.SubmitReviewRequest{
		OrderID: "order-1",
		Rating:  5,
		Comment: "Great coffee",
	}))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestSubmitReviewEndpoint_NotCompletedConflict(t *testing.T) {
	reviewSvc := new(MockReviewService)
	router := setupReviewRouter(reviewSvc, new(MockAggregateService), "user-1")

	reviewSvc.On("SubmitReview", mock.Anything, "user-1", "Anna", mock.Anything).Return(nil, service.ErrNotCompleted)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/reviews", submitBody(t, entity.SubmitReviewRequest{
		OrderID: "order-1",
		Rating:  5,
		Comment: "Great coffee",
	}))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestSubmitReviewEndpoint_NoRatedItemsBadRequest(t *testing.T) {
	reviewSvc := new(MockReviewService)
	router := setupReviewRouter(reviewSvc, new(MockAggregateService), "user-1")

	reviewSvc.On("SubmitReview", mock.Anything, "user-1", "Anna", mock.Anything).Return(nil, service.ErrNoRatedItems)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/reviews", submitBody(t, entity.SubmitReviewRequest{
		OrderID: "order-1",
		Rating:  5,
		Comment: "Great coffee",
	}))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubmitReviewEndpoint_AbortedTransactionRetryable(t *testing.T) {
	reviewSvc := new(MockReviewService)
	router := setupReviewRouter(reviewSvc, new(MockAggregateService), "user-1")

	reviewSvc.On("SubmitReview", mock.Anything, "user-1", "Anna", mock.Anything).Return(nil, service.ErrSubmitAborted)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/reviews", submitBody(t, entity.SubmitReviewRequest{
		OrderID: "order-1",
		Rating:  5,
		Comment: "Great coffee",
	}))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "retry")
}

func TestGetProductReviewsEndpoint_Success(t *testing.T) {
	reviewSvc := new(MockReviewService)
	router := setupReviewRouter(reviewSvc, new(MockAggregateService), "")

	resp := &entity.ProductReviewsResponse{
		ProductID: "latte",
		Reviews: []entity.ProductRating{
			{ID: "r1", ProductID: "latte", Rating: 5, Comment: "Great product!"},
		},
		Total: 1,
	}
	reviewSvc.On("GetProductReviews", mock.Anything, "latte").Return(resp, nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/products/latte/reviews", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var body entity.ProductReviewsResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Total)
}

func TestGetProductReviewsEndpoint_InternalError(t *testing.T) {
	reviewSvc := new(MockReviewService)
	router := setupReviewRouter(reviewSvc, new(MockAggregateService), "")

	reviewSvc.On("GetProductReviews", mock.Anything, "latte").Return(nil, assert.AnError)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/products/latte/reviews", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestGetRatingSummaryEndpoint_Success(t *testing.T) {
	aggregateSvc := new(MockAggregateService)
	router := setupReviewRouter(new(MockReviewService), aggregateSvc, "")

	resp := &entity.RatingSummaryResponse{ProductID: "latte", AverageRating: 4.2, RatingCount: 17}
	aggregateSvc.On("GetSummary", mock.Anything, "latte").Return(resp, nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/products/latte/rating", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var body entity.RatingSummaryResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 4.2, body.AverageRating)
	assert.Equal(t, int64(17), body.RatingCount)
}

func TestGetRatingSummaryEndpoint_InternalError(t *testing.T) {
	aggregateSvc := new(MockAggregateService)
	router := setupReviewRouter(new(MockReviewService), aggregateSvc, "")

	aggregateSvc.On("GetSummary", mock.Anything, "latte").Return(nil, assert.AnError)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/products/latte/rating", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
