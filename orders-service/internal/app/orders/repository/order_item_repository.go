package repository

import (
	"context"
	"fmt"

	"coffeecompanion/orders-service/internal/app/orders/entity"
	"coffeecompanion/pkg/metrics"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type orderItemRepository struct {
	collection *mongo.Collection
}

// NewOrderItemRepository создает новый репозиторий позиций заказов.
// Позиции хранятся в отдельной коллекции order_items с привязкой по orderId.
func NewOrderItemRepository(db *mongo.Database) OrderItemRepository {
	return &orderItemRepository{
		collection: db.Collection("order_items"),
	}
}

// GetByOrderID получает все позиции заказа
func (r *orderItemRepository) GetByOrderID(ctx context.Context, orderID string) ([]entity.OrderItem, error) {
	timer := metrics.NewMongoTimer(serviceName, metrics.MongoOpFind, "order_items")
	defer timer.ObserveDuration()

	cursor, err := r.collection.Find(ctx, bson.M{"orderId": orderID})
	if err != nil {
		metrics.RecordMongoError(serviceName, metrics.MongoOpFind)
		return nil, fmt.Errorf("failed to find order items: %w", err)
	}
	defer cursor.Close(ctx)

	var rawDocs []bson.M
	if err := cursor.All(ctx, &rawDocs); err != nil {
		return nil, fmt.Errorf("failed to decode order items: %w", err)
	}

	items := make([]entity.OrderItem, 0, len(rawDocs))
	for _, raw := range rawDocs {
		items = append(items, decodeOrderItem(documentID(raw), raw))
	}

	return items, nil
}

// decodeOrderItem нормализует документ позиции заказа.
// Старые клиенты писали идентификатор товара в docId, новые - в productId.
func decodeOrderItem(id string, doc bson.M) entity.OrderItem {
	item := entity.OrderItem{
		ID:        id,
		OrderID:   stringField(doc, "orderId"),
		ProductID: stringField(doc, "productId", "docId"),
		ShopID:    stringField(doc, "shopId"),
		Name:      stringField(doc, "name"),
		ImageURL:  stringField(doc, "imageUrl"),
	}

	if qty, ok := floatField(doc, "quantity"); ok {
		item.Quantity = int(qty)
	} else {
		item.Quantity = 1
	}

	return item
}
