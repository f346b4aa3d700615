package repository

import (
	"context"

	"coffeecompanion/reviews-service/internal/app/reviews/entity"
)

// OrderRepository читает заказы для проверки права на отзыв
type OrderRepository interface {
	GetByID(ctx context.Context, orderID string) (*entity.Order, error)
}

// RatingRepository работает с оценками товаров и заказов.
// Чтение объединяет текущую коллекцию productRatings и устаревшую reviews,
// запись идет одной транзакцией.
type RatingRepository interface {
	GetByProductID(ctx context.Context, productID string) ([]entity.ProductRating, error)
	ExistsFor(ctx context.Context, orderID, productID, userID string) (bool, error)
	DistinctProductIDs(ctx context.Context) ([]string, error)
	SubmitBatch(ctx context.Context, orderRating *entity.OrderRating, productRatings []entity.ProductRating) error
}

// AggregateRepository хранит материализованные агрегаты рейтинга в products
type AggregateRepository interface {
	Get(ctx context.Context, productID string) (*entity.ProductAggregate, error)
	Upsert(ctx context.Context, aggregate *entity.ProductAggregate) error
}

// RatingCacheRepository - Redis кэш перед коллекцией products
type RatingCacheRepository interface {
	Get(ctx context.Context, productID string) (*entity.ProductAggregate, error)
	Set(ctx context.Context, aggregate *entity.ProductAggregate) error
}
