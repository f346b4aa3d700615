package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"coffeecompanion/reviews-service/internal/app/reviews/entity"
	"coffeecompanion/pkg/metrics"

	"github.com/redis/go-redis/v9"
)

var ErrCacheMiss = errors.New("rating cache miss")

type ratingCacheRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRatingCacheRepository создает Redis кэш агрегатов рейтинга.
// Кэш перед кэшем: products и так материализация, Redis снимает с Mongo
// горячие чтения страницы товара.
func NewRatingCacheRepository(client *redis.Client, ttl time.Duration) RatingCacheRepository {
	return &ratingCacheRepository{
		client: client,
		ttl:    ttl,
	}
}

func cacheKey(productID string) string {
	return "rating:summary:" + productID
}

// Get читает агрегат из Redis
func (r *ratingCacheRepository) Get(ctx context.Context, productID string) (*entity.ProductAggregate, error) {
	data, err := r.client.Get(ctx, cacheKey(productID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			metrics.RecordCacheMiss(serviceName, "rating:summary")
			return nil, ErrCacheMiss
		}
		metrics.RecordRedisError(serviceName, "get")
		return nil, fmt.Errorf("failed to get aggregate from redis: %w", err)
	}

	var aggregate entity.ProductAggregate
	if err := json.Unmarshal([]byte(data), &aggregate); err != nil {
		return nil, fmt.Errorf("failed to unmarshal aggregate: %w", err)
	}

	metrics.RecordCacheHit(serviceName, "rating:summary")
	return &aggregate, nil
}

// Set сохраняет агрегат в Redis с TTL
func (r *ratingCacheRepository) Set(ctx context.Context, aggregate *entity.ProductAggregate) error {
	data, err := json.Marshal(aggregate)
	if err != nil {
		return fmt.Errorf("failed to marshal aggregate: %w", err)
	}

	if err := r.client.Set(ctx, cacheKey(aggregate.ProductID), data, r.ttl).Err(); err != nil {
		metrics.RecordRedisError(serviceName, "set")
		return fmt.Errorf("failed to set aggregate in redis: %w", err)
	}

	return nil
}
