package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"coffeecompanion/reviews-service/internal/app/reviews/entity"
	"coffeecompanion/reviews-service/internal/app/reviews/infrastructure"
	"coffeecompanion/reviews-service/internal/app/reviews/repository"
	"coffeecompanion/pkg/logger"
	"coffeecompanion/pkg/metrics"

	"github.com/google/uuid"
)

var (
	ErrOrderNotFound = errors.New("order not found")
	ErrUnauthorized  = errors.New("unauthorized access to order")
	ErrNotCompleted  = errors.New("order is not completed yet")
	ErrAlreadyRated  = errors.New("order has already been rated")
	ErrInvalidRating = errors.New("overall rating must be greater than zero")
	ErrEmptyComment  = errors.New("overall comment must not be empty")
	ErrNoRatedItems  = errors.New("rate at least one product")
	ErrSubmitAborted = errors.New("review submission aborted, nothing was saved")
)

// Комментарий по умолчанию для оцененной позиции без текста
const defaultItemComment = "Great product!"

// AggregateRecomputer пересчитывает агрегат одного товара
type AggregateRecomputer interface {
	Recompute(ctx context.Context, productID, trigger string) (*entity.ProductAggregate, error)
}

// ReviewService обрабатывает интейк отзывов: право на отзыв, валидацию,
// атомарную фиксацию батча и запуск пересчета агрегатов
type ReviewService struct {
	orderRepo     repository.OrderRepository
	ratingRepo    repository.RatingRepository
	aggregates    AggregateRecomputer
	kafkaProducer infrastructure.MessagePublisher
}

// NewReviewService создает сервис отзывов с внедрением зависимостей
func NewReviewService(
	orderRepo repository.OrderRepository,
	ratingRepo repository.RatingRepository,
	aggregates AggregateRecomputer,
	kafkaProducer infrastructure.MessagePublisher,
) *ReviewService {
	return &ReviewService{
		orderRepo:     orderRepo,
		ratingRepo:    ratingRepo,
		aggregates:    aggregates,
		kafkaProducer: kafkaProducer,
	}
}

// CheckEligibility сообщает, можно ли оставить отзыв на заказ.
// Заказ должен принадлежать пользователю, быть завершенным или
// доставленным и еще не оцененным.
func (s *ReviewService) CheckEligibility(ctx context.Context, orderID, userID string) (*entity.EligibilityResponse, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	if order.UserID != userID {
		return nil, ErrUnauthorized
	}

	resp := &entity.EligibilityResponse{
		OrderID: orderID,
		Receipt: entity.DisplayReceipt(*order),
	}

	switch {
	case !entity.RatableStatus(order.Status):
		resp.Reason = "not completed"
	case order.IsRated:
		resp.Reason = "already rated"
	default:
		resp.Eligible = true
	}

	return resp, nil
}

// SubmitReview принимает отзыв на заказ и фиксирует его одной транзакцией.
// Позиции с нулевой оценкой молча пропускаются; пустой комментарий позиции
// заменяется текстом по умолчанию; отзыв без единой оцененной позиции
// отклоняется. После коммита для каждого затронутого товара асинхронно
// запускается пересчет агрегата - успех отправки от него не зависит.
func (s *ReviewService) SubmitReview(ctx context.Context, userID, userName string, req *entity.SubmitReviewRequest) (*entity.SubmitReviewResponse, error) {
	order, err := s.orderRepo.GetByID(ctx, req.OrderID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	if order.UserID != userID {
		return nil, ErrUnauthorized
	}

	if !entity.RatableStatus(order.Status) {
		metrics.ReviewsRejected.WithLabelValues("not_completed").Inc()
		return nil, ErrNotCompleted
	}

	if order.IsRated {
		metrics.ReviewsRejected.WithLabelValues("already_rated").Inc()
		return nil, ErrAlreadyRated
	}

	if req.Rating <= 0 {
		metrics.ReviewsRejected.WithLabelValues("invalid_rating").Inc()
		return nil, ErrInvalidRating
	}

	if strings.TrimSpace(req.Comment) == "" {
		metrics.ReviewsRejected.WithLabelValues("empty_comment").Inc()
		return nil, ErrEmptyComment
	}

	now := time.Now()
	productRatings := s.collectItemRatings(ctx, req, userID, userName, now)
	if len(productRatings) == 0 {
		metrics.ReviewsRejected.WithLabelValues("no_rated_items").Inc()
		return nil, ErrNoRatedItems
	}

	orderRating := &entity.OrderRating{
		ID:        uuid.NewString(),
		OrderID:   req.OrderID,
		UserID:    userID,
		UserName:  userName,
		ShopID:    productRatings[0].ShopID,
		Rating:    req.Rating,
		Comment:   strings.TrimSpace(req.Comment),
		Timestamp: now,
	}

	if err := s.ratingRepo.SubmitBatch(ctx, orderRating, productRatings); err != nil {
		// Транзакция откатилась целиком, повтор безопасен
		logger.Error().Err(err).Str("order_id", req.OrderID).Msg("Review batch transaction aborted")
		return nil, fmt.Errorf("%w: %v", ErrSubmitAborted, err)
	}

	metrics.ReviewsSubmitted.Inc()
	metrics.ProductRatingsCreated.Add(float64(len(productRatings)))
	for _, rating := range productRatings {
		metrics.RatingValues.Observe(rating.Rating)
	}

	productIDs := distinctProducts(productRatings)
	s.fanOutRecompute(ctx, req.OrderID, productRatings, productIDs)

	return &entity.SubmitReviewResponse{
		OrderID:       req.OrderID,
		RatedProducts: productIDs,
		SubmittedAt:   now,
	}, nil
}

// GetProductReviews возвращает нормализованные оценки товара, новые первыми
func (s *ReviewService) GetProductReviews(ctx context.Context, productID string) (*entity.ProductReviewsResponse, error) {
	reviews, err := s.ratingRepo.GetByProductID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to load product reviews: %w", err)
	}

	return &entity.ProductReviewsResponse{
		ProductID: productID,
		Reviews:   reviews,
		Total:     len(reviews),
	}, nil
}

// collectItemRatings отбирает позиции с ненулевой оценкой и превращает их
// в документы productRatings с детерминированными ключами. Пары, уже
// оцененные ранее, пропускаются - это попутная проверка, основную защиту
// дает детерминированный _id.
func (s *ReviewService) collectItemRatings(ctx context.Context, req *entity.SubmitReviewRequest, userID, userName string, now time.Time) []entity.ProductRating {
	collected := make([]entity.ProductRating, 0, len(req.Items))

	for _, item := range req.Items {
		if item.Rating <= 0 {
			continue
		}

		exists, err := s.ratingRepo.ExistsFor(ctx, req.OrderID, item.ProductID, userID)
		if err != nil {
			logger.Warn().Err(err).Str("product_id", item.ProductID).Msg("Duplicate check failed, relying on deterministic key")
		} else if exists {
			logger.Debug().
				Str("order_id", req.OrderID).
				Str("product_id", item.ProductID).
				Msg("Skipping already rated product")
			continue
		}

		comment := strings.TrimSpace(item.Comment)
		if comment == "" {
			comment = defaultItemComment
		}

		collected = append(collected, entity.ProductRating{
			ID:        repository.RatingDocumentID(req.OrderID, item.ProductID, userID),
			ProductID: item.ProductID,
			OrderID:   req.OrderID,
			UserID:    userID,
			UserName:  userName,
			ShopID:    item.ShopID,
			Rating:    item.Rating,
			Comment:   comment,
			Timestamp: now,
		})
	}

	return collected
}

// fanOutRecompute запускает пересчет агрегатов затронутых товаров и
// публикует события RATING_CREATED. WaitGroup считает завершения в рамках
// этой отправки, без разделяемых счетчиков; ожидание происходит в фоне и
// не задерживает ответ.
func (s *ReviewService) fanOutRecompute(ctx context.Context, orderID string, ratings []entity.ProductRating, productIDs []string) {
	// Пересчет переживает HTTP запрос
	bgCtx := context.WithoutCancel(ctx)

	byProduct := make(map[string]float64, len(ratings))
	for _, rating := range ratings {
		byProduct[rating.ProductID] = rating.Rating
	}

	var wg sync.WaitGroup
	for _, productID := range productIDs {
		wg.Add(1)
		go func(productID string) {
			defer wg.Done()

			s.publishRatingEvent(bgCtx, entity.RatingEvent{
				EventType: "RATING_CREATED",
				ProductID: productID,
				OrderID:   orderID,
				Rating:    byProduct[productID],
				Timestamp: time.Now(),
			})

			if _, err := s.aggregates.Recompute(bgCtx, productID, TriggerSubmission); err != nil {
				logger.Error().Err(err).Str("product_id", productID).Msg("Post-submit recompute failed")
			}
		}(productID)
	}

	go func() {
		wg.Wait()
		logger.Debug().Str("order_id", orderID).Int("products", len(productIDs)).Msg("Post-submit recompute finished")
	}()
}

// publishRatingEvent отправляет событие оценки в Kafka.
// Ошибки не прерывают основной поток: отзыв уже зафиксирован.
func (s *ReviewService) publishRatingEvent(ctx context.Context, event entity.RatingEvent) {
	eventData, err := json.Marshal(event)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to marshal rating event")
		return
	}

	if err := s.kafkaProducer.PublishMessage(ctx, event.ProductID, eventData); err != nil {
		logger.Warn().Err(err).Str("product_id", event.ProductID).Msg("Failed to publish rating event")
	}
}

func distinctProducts(ratings []entity.ProductRating) []string {
	seen := make(map[string]struct{}, len(ratings))
	ids := make([]string, 0, len(ratings))
	for _, rating := range ratings {
		if _, ok := seen[rating.ProductID]; ok {
			continue
		}
		seen[rating.ProductID] = struct{}{}
		ids = append(ids, rating.ProductID)
	}
	return ids
}
