package handler

import (
	"context"
	"errors"
	"net/http"

	"coffeecompanion/reviews-service/internal/app/reviews/entity"
	"coffeecompanion/reviews-service/internal/app/reviews/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type ReviewServiceInterface interface {
	CheckEligibility(ctx context.Context, orderID, userID string) (*entity.EligibilityResponse, error)
	SubmitReview(ctx context.Context, userID, userName string, req *entity.SubmitReviewRequest) (*entity.SubmitReviewResponse, error)
	GetProductReviews(ctx context.Context, productID string) (*entity.ProductReviewsResponse, error)
}

type AggregateServiceInterface interface {
	GetSummary(ctx context.Context, productID string) (*entity.RatingSummaryResponse, error)
}

type ReviewHandler struct {
	reviewService    ReviewServiceInterface
	aggregateService AggregateServiceInterface
	validator        *validator.Validate
}

func NewReviewHandler(reviewService ReviewServiceInterface, aggregateService AggregateServiceInterface) *ReviewHandler {
	return &ReviewHandler{
		reviewService:    reviewService,
		aggregateService: aggregateService,
		validator:        validator.New(),
	}
}

// CheckEligibility сообщает, может ли пользователь оставить отзыв на заказ
func (h *ReviewHandler) CheckEligibility(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	orderID := c.Param("order_id")
	if orderID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Order ID is required"})
		return
	}

	resp, err := h.reviewService.CheckEligibility(c.Request.Context(), orderID, userID)
	if err != nil {
		h.respondReviewError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// SubmitReview принимает отзыв на заказ
func (h *ReviewHandler) SubmitReview(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	userName, _ := c.Get("user_name")
	userNameStr, _ := userName.(string)

	var req entity.SubmitReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if err := h.validator.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": formatValidationError(err)})
		return
	}

	resp, err := h.reviewService.SubmitReview(c.Request.Context(), userID, userNameStr, &req)
	if err != nil {
		h.respondReviewError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// GetProductReviews возвращает оценки товара, новые первыми
func (h *ReviewHandler) GetProductReviews(c *gin.Context) {
	productID := c.Param("product_id")
	if productID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Product ID is required"})
		return
	}

	resp, err := h.reviewService.GetProductReviews(c.Request.Context(), productID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load product reviews"})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetRatingSummary возвращает сводку рейтинга товара
func (h *ReviewHandler) GetRatingSummary(c *gin.Context) {
	productID := c.Param("product_id")
	if productID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Product ID is required"})
		return
	}

	resp, err := h.aggregateService.GetSummary(c.Request.Context(), productID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load rating summary"})
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *ReviewHandler) respondReviewError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrOrderNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
	case errors.Is(err, service.ErrUnauthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
	case errors.Is(err, service.ErrNotCompleted):
		c.JSON(http.StatusConflict, gin.H{"error": "Order is not completed yet"})
	case errors.Is(err, service.ErrAlreadyRated):
		c.JSON(http.StatusConflict, gin.H{"error": "Order has already been rated"})
	case errors.Is(err, service.ErrInvalidRating):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Overall rating must be greater than zero"})
	case errors.Is(err, service.ErrEmptyComment):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Overall comment must not be empty"})
	case errors.Is(err, service.ErrNoRatedItems):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Rate at least one product"})
	case errors.Is(err, service.ErrSubmitAborted):
		// Транзакция откатилась, клиент может безопасно повторить
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Review was not saved, please retry"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process review"})
	}
}

func currentUserID(c *gin.Context) (string, bool) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return "", false
	}

	userIDStr, ok := userID.(string)
	if !ok || userIDStr == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid user ID"})
		return "", false
	}

	return userIDStr, true
}

func formatValidationError(err error) string {
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		for _, fieldError := range validationErrors {
			return fieldError.Field() + " is " + fieldError.Tag()
		}
	}
	return "Validation failed"
}
