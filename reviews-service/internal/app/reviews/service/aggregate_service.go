package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"coffeecompanion/reviews-service/internal/app/reviews/entity"
	"coffeecompanion/reviews-service/internal/app/reviews/repository"
	"coffeecompanion/pkg/logger"
	"coffeecompanion/pkg/metrics"
)

// Триггеры пересчета агрегата для метрик
const (
	TriggerSubmission = "submission"
	TriggerKafka      = "kafka"
	TriggerCron       = "cron"
	TriggerFallback   = "fallback"
)

// AggregateService пересчитывает и отдает материализованные агрегаты
// рейтинга. Пересчет всегда полный: скан всех строк оценок товара без
// инкрементальных дельт, поэтому операция идемпотентна и ее можно
// дергать из любого триггера сколько угодно раз.
type AggregateService struct {
	ratingRepo    repository.RatingRepository
	aggregateRepo repository.AggregateRepository
	cacheRepo     repository.RatingCacheRepository
}

// NewAggregateService создает сервис агрегатов рейтинга
func NewAggregateService(
	ratingRepo repository.RatingRepository,
	aggregateRepo repository.AggregateRepository,
	cacheRepo repository.RatingCacheRepository,
) *AggregateService {
	return &AggregateService{
		ratingRepo:    ratingRepo,
		aggregateRepo: aggregateRepo,
		cacheRepo:     cacheRepo,
	}
}

// Recompute полностью пересчитывает агрегат товара по строкам оценок.
// Скан не ограничен: O(n) по числу оценок товара, это осознанная цена
// за отсутствие инкрементального состояния. Ноль строк - записи нет
// вообще, существующий документ не обнуляется.
func (s *AggregateService) Recompute(ctx context.Context, productID, trigger string) (*entity.ProductAggregate, error) {
	if productID == "" {
		return nil, errors.New("product id is required")
	}

	start := time.Now()

	ratings, err := s.ratingRepo.GetByProductID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to load ratings for recompute: %w", err)
	}

	if len(ratings) == 0 {
		logger.Debug().Str("product_id", productID).Msg("No ratings found, skipping aggregate write")
		return nil, nil
	}

	var sum float64
	for _, rating := range ratings {
		sum += rating.Rating
	}

	aggregate := &entity.ProductAggregate{
		ProductID:     productID,
		AverageRating: sum / float64(len(ratings)),
		RatingCount:   int64(len(ratings)),
		LastUpdated:   time.Now(),
	}

	if err := s.aggregateRepo.Upsert(ctx, aggregate); err != nil {
		return nil, fmt.Errorf("failed to store aggregate: %w", err)
	}

	// Кэш обновляется лучшим усилием: при ошибке Redis следующий читатель
	// сходит в products
	if err := s.cacheRepo.Set(ctx, aggregate); err != nil {
		logger.Warn().Err(err).Str("product_id", productID).Msg("Failed to refresh aggregate cache")
	}

	metrics.AggregatesRecomputed.WithLabelValues(trigger).Inc()
	metrics.AggregateRecomputeDuration.Observe(time.Since(start).Seconds())

	logger.Info().
		Str("product_id", productID).
		Str("trigger", trigger).
		Float64("average", aggregate.AverageRating).
		Int64("count", aggregate.RatingCount).
		Msg("Recomputed product rating aggregate")

	return aggregate, nil
}

// GetSummary возвращает сводку рейтинга товара: Redis, затем products,
// затем пересчет по сырым строкам. Недоступность хранилища деградирует
// до нулевой сводки - карточка товара не должна падать из-за рейтинга.
func (s *AggregateService) GetSummary(ctx context.Context, productID string) (*entity.RatingSummaryResponse, error) {
	if productID == "" {
		return nil, errors.New("product id is required")
	}

	if cached, err := s.cacheRepo.Get(ctx, productID); err == nil {
		return summaryResponse(cached), nil
	} else if !errors.Is(err, repository.ErrCacheMiss) {
		logger.Warn().Err(err).Str("product_id", productID).Msg("Aggregate cache read failed")
	}

	aggregate, err := s.aggregateRepo.Get(ctx, productID)
	if err == nil {
		if cacheErr := s.cacheRepo.Set(ctx, aggregate); cacheErr != nil {
			logger.Warn().Err(cacheErr).Str("product_id", productID).Msg("Failed to backfill aggregate cache")
		}
		return summaryResponse(aggregate), nil
	}

	if !errors.Is(err, repository.ErrAggregateNotFound) {
		logger.Warn().Err(err).Str("product_id", productID).Msg("Aggregate read failed, degrading to zero summary")
		return zeroSummary(productID), nil
	}

	// Агрегата еще нет: пересчитываем на месте той же формулой
	aggregate, err = s.Recompute(ctx, productID, TriggerFallback)
	if err != nil {
		logger.Warn().Err(err).Str("product_id", productID).Msg("Fallback recompute failed, degrading to zero summary")
		return zeroSummary(productID), nil
	}
	if aggregate == nil {
		// Оценок нет вовсе
		return zeroSummary(productID), nil
	}

	return summaryResponse(aggregate), nil
}

// ReconcileAll пересчитывает агрегаты всех товаров, по которым есть
// оценки. Путь починки для агрегатов, отставших от строк или записанных
// старыми клиентами.
func (s *AggregateService) ReconcileAll(ctx context.Context) error {
	productIDs, err := s.ratingRepo.DistinctProductIDs(ctx)
	if err != nil {
		return fmt.Errorf("failed to list products for reconciliation: %w", err)
	}

	var failed int
	for _, productID := range productIDs {
		if _, err := s.Recompute(ctx, productID, TriggerCron); err != nil {
			failed++
			logger.Error().Err(err).Str("product_id", productID).Msg("Failed to reconcile aggregate")
		}
	}

	logger.Info().
		Int("total", len(productIDs)).
		Int("failed", failed).
		Msg("Aggregate reconciliation finished")

	if failed > 0 {
		return fmt.Errorf("reconciliation finished with %d failures", failed)
	}
	return nil
}

func summaryResponse(aggregate *entity.ProductAggregate) *entity.RatingSummaryResponse {
	return &entity.RatingSummaryResponse{
		ProductID:     aggregate.ProductID,
		AverageRating: aggregate.AverageRating,
		RatingCount:   aggregate.RatingCount,
		LastUpdated:   aggregate.LastUpdated,
	}
}

func zeroSummary(productID string) *entity.RatingSummaryResponse {
	return &entity.RatingSummaryResponse{ProductID: productID}
}
