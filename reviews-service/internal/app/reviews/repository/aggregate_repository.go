package repository

import (
	"context"
	"errors"
	"fmt"

	"coffeecompanion/reviews-service/internal/app/reviews/entity"
	"coffeecompanion/pkg/metrics"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrAggregateNotFound = errors.New("product aggregate not found")

type aggregateRepository struct {
	collection *mongo.Collection
}

// NewAggregateRepository создает репозиторий агрегатов рейтинга
func NewAggregateRepository(db *mongo.Database) AggregateRepository {
	return &aggregateRepository{
		collection: db.Collection("products"),
	}
}

// Get читает материализованный агрегат товара
func (r *aggregateRepository) Get(ctx context.Context, productID string) (*entity.ProductAggregate, error) {
	timer := metrics.NewMongoTimer(serviceName, metrics.MongoOpGet, "products")
	defer timer.ObserveDuration()

	var aggregate entity.ProductAggregate
	err := r.collection.FindOne(ctx, bson.M{"_id": productID}).Decode(&aggregate)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrAggregateNotFound
		}
		metrics.RecordMongoError(serviceName, metrics.MongoOpGet)
		return nil, fmt.Errorf("failed to get product aggregate: %w", err)
	}

	return &aggregate, nil
}

// Upsert сливает поля агрегата в документ товара, не трогая остальные
// поля карточки. Параллельные пересчеты перезаписывают одну и ту же пару
// значений, побеждает последняя запись.
func (r *aggregateRepository) Upsert(ctx context.Context, aggregate *entity.ProductAggregate) error {
	timer := metrics.NewMongoTimer(serviceName, metrics.MongoOpUpsert, "products")
	defer timer.ObserveDuration()

	update := bson.M{"$set": bson.M{
		"averageRating": aggregate.AverageRating,
		"ratingCount":   aggregate.RatingCount,
		"lastUpdated":   aggregate.LastUpdated,
	}}

	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": aggregate.ProductID},
		update,
		options.Update().SetUpsert(true),
	)
	if err != nil {
		metrics.RecordMongoError(serviceName, metrics.MongoOpUpsert)
		return fmt.Errorf("failed to upsert product aggregate: %w", err)
	}

	return nil
}
