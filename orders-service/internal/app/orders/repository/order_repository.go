package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"coffeecompanion/orders-service/internal/app/orders/entity"
	"coffeecompanion/pkg/logger"
	"coffeecompanion/pkg/metrics"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const serviceName = "orders-service"

var (
	// Стандартные ошибки репозитория для обработки в service layer
	ErrOrderNotFound = errors.New("order not found")
)

type orderRepository struct {
	collection *mongo.Collection
}

// NewOrderRepository создает новый репозиторий заказов
func NewOrderRepository(db *mongo.Database) OrderRepository {
	return &orderRepository{
		collection: db.Collection("orders"),
	}
}

// GetByID получает заказ по ID
func (r *orderRepository) GetByID(ctx context.Context, orderID string) (*entity.Order, error) {
	timer := metrics.NewMongoTimer(serviceName, metrics.MongoOpGet, "orders")
	defer timer.ObserveDuration()

	var raw bson.M
	err := r.collection.FindOne(ctx, bson.M{"_id": orderID}).Decode(&raw)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrOrderNotFound
		}
		metrics.RecordMongoError(serviceName, metrics.MongoOpGet)
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	order := DecodeOrder(documentID(raw), raw)
	return &order, nil
}

// GetByUserID получает все заказы пользователя.
// Запрос фильтрует только по userId: составного индекса с orderTimestamp
// в хранилище нет, поэтому сортировка по времени выполняется на клиенте.
func (r *orderRepository) GetByUserID(ctx context.Context, userID string) ([]entity.Order, error) {
	timer := metrics.NewMongoTimer(serviceName, metrics.MongoOpFind, "orders")
	defer timer.ObserveDuration()

	cursor, err := r.collection.Find(ctx, bson.M{"userId": userID})
	if err != nil {
		metrics.RecordMongoError(serviceName, metrics.MongoOpFind)
		return nil, fmt.Errorf("failed to find orders: %w", err)
	}
	defer cursor.Close(ctx)

	var rawDocs []bson.M
	if err := cursor.All(ctx, &rawDocs); err != nil {
		return nil, fmt.Errorf("failed to decode orders: %w", err)
	}

	orders := make([]entity.Order, 0, len(rawDocs))
	for _, raw := range rawDocs {
		orders = append(orders, DecodeOrder(documentID(raw), raw))
	}

	// Новые заказы первыми
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].OrderTimestamp.After(orders[j].OrderTimestamp)
	})

	return orders, nil
}

// UpdateStatus обновляет единственное поле status.
// Отмена заказа - это ровно одно такое обновление, без каскадных записей.
func (r *orderRepository) UpdateStatus(ctx context.Context, orderID string, status entity.OrderStatus) error {
	timer := metrics.NewMongoTimer(serviceName, metrics.MongoOpUpdate, "orders")
	defer timer.ObserveDuration()

	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": orderID},
		bson.M{"$set": bson.M{"status": status.Normalize()}},
	)
	if err != nil {
		metrics.RecordMongoError(serviceName, metrics.MongoOpUpdate)
		return fmt.Errorf("failed to update order status: %w", err)
	}

	if result.MatchedCount == 0 {
		return ErrOrderNotFound
	}

	return nil
}

// Watch подписывается на change stream одного заказа.
// Уведомления внутри одного документа приходят монотонно; обработчики
// должны переносить повторную доставку одного и того же изменения.
func (r *orderRepository) Watch(ctx context.Context, orderID string) (<-chan entity.Order, error) {
	timer := metrics.NewMongoTimer(serviceName, metrics.MongoOpWatch, "orders")
	defer timer.ObserveDuration()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"documentKey._id": orderID}}},
	}

	opts := options.ChangeStream().SetFullDocument(options.UpdateLookup)
	stream, err := r.collection.Watch(ctx, pipeline, opts)
	if err != nil {
		metrics.RecordMongoError(serviceName, metrics.MongoOpWatch)
		return nil, fmt.Errorf("failed to watch order: %w", err)
	}

	updates := make(chan entity.Order)

	go func() {
		defer close(updates)
		defer stream.Close(context.Background())

		for stream.Next(ctx) {
			var event struct {
				FullDocument bson.M `bson:"fullDocument"`
			}
			if err := stream.Decode(&event); err != nil {
				logger.Error().Err(err).Str("order_id", orderID).Msg("Failed to decode change stream event")
				continue
			}
			if event.FullDocument == nil {
				continue
			}

			order := DecodeOrder(documentID(event.FullDocument), event.FullDocument)

			select {
			case updates <- order:
			case <-ctx.Done():
				return
			}
		}

		if err := stream.Err(); err != nil && ctx.Err() == nil {
			logger.Error().Err(err).Str("order_id", orderID).Msg("Order change stream terminated")
		}
	}()

	return updates, nil
}

// documentID возвращает _id документа независимо от его типа
func documentID(doc bson.M) string {
	switch v := doc["_id"].(type) {
	case string:
		return v
	case primitive.ObjectID:
		return v.Hex()
	default:
		return ""
	}
}
