package repository

import (
	"context"
	"errors"
	"fmt"

	"coffeecompanion/reviews-service/internal/app/reviews/entity"
	"coffeecompanion/pkg/metrics"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

var ErrOrderNotFound = errors.New("order not found")

type orderRepository struct {
	collection *mongo.Collection
}

// NewOrderRepository создает репозиторий заказов для проверки права на отзыв
func NewOrderRepository(db *mongo.Database) OrderRepository {
	return &orderRepository{
		collection: db.Collection("orders"),
	}
}

// GetByID читает проекцию заказа, достаточную для интейка отзывов
func (r *orderRepository) GetByID(ctx context.Context, orderID string) (*entity.Order, error) {
	timer := metrics.NewMongoTimer(serviceName, metrics.MongoOpGet, "orders")
	defer timer.ObserveDuration()

	var doc bson.M
	err := r.collection.FindOne(ctx, bson.M{"_id": orderID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrOrderNotFound
		}
		metrics.RecordMongoError(serviceName, metrics.MongoOpGet)
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	order := &entity.Order{
		ID:            orderID,
		UserID:        stringField(doc, "userId"),
		Status:        stringField(doc, "status"),
		ReceiptNumber: stringField(doc, "receiptNumber"),
	}

	if v, ok := doc["isRated"].(bool); ok {
		order.IsRated = v
	}

	if ts, ok := timeField(doc, "orderTimestamp", "timestamp"); ok {
		order.OrderTimestamp = ts
	}

	return order, nil
}
