package repository

import (
	"context"
	"errors"
	"fmt"

	"coffeecompanion/orders-service/internal/app/orders/entity"
	"coffeecompanion/pkg/metrics"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	ErrInventoryItemNotFound = errors.New("inventory item not found")
)

type inventoryRepository struct {
	collection *mongo.Collection
}

// NewInventoryRepository создает новый репозиторий склада
func NewInventoryRepository(db *mongo.Database) InventoryRepository {
	return &inventoryRepository{
		collection: db.Collection("inventory"),
	}
}

// Create добавляет позицию склада
func (r *inventoryRepository) Create(ctx context.Context, item *entity.InventoryItem) error {
	timer := metrics.NewMongoTimer(serviceName, metrics.MongoOpInsert, "inventory")
	defer timer.ObserveDuration()

	if item.ID == "" {
		item.ID = uuid.NewString()
	}

	if _, err := r.collection.InsertOne(ctx, item); err != nil {
		metrics.RecordMongoError(serviceName, metrics.MongoOpInsert)
		return fmt.Errorf("failed to create inventory item: %w", err)
	}

	return nil
}

// GetByID получает позицию склада по ID
func (r *inventoryRepository) GetByID(ctx context.Context, id string) (*entity.InventoryItem, error) {
	timer := metrics.NewMongoTimer(serviceName, metrics.MongoOpGet, "inventory")
	defer timer.ObserveDuration()

	var item entity.InventoryItem
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&item)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrInventoryItemNotFound
		}
		metrics.RecordMongoError(serviceName, metrics.MongoOpGet)
		return nil, fmt.Errorf("failed to get inventory item: %w", err)
	}

	return &item, nil
}

// ListActive возвращает неархивированные позиции склада
func (r *inventoryRepository) ListActive(ctx context.Context) ([]entity.InventoryItem, error) {
	timer := metrics.NewMongoTimer(serviceName, metrics.MongoOpFind, "inventory")
	defer timer.ObserveDuration()

	// isArchived может отсутствовать в старых документах
	filter := bson.M{"isArchived": bson.M{"$ne": true}}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		metrics.RecordMongoError(serviceName, metrics.MongoOpFind)
		return nil, fmt.Errorf("failed to find inventory items: %w", err)
	}
	defer cursor.Close(ctx)

	var items []entity.InventoryItem
	if err := cursor.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("failed to decode inventory items: %w", err)
	}

	return items, nil
}

// UpdateQuantity устанавливает количество позиции
func (r *inventoryRepository) UpdateQuantity(ctx context.Context, id string, quantity int) error {
	timer := metrics.NewMongoTimer(serviceName, metrics.MongoOpUpdate, "inventory")
	defer timer.ObserveDuration()

	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"quantity": quantity}},
	)
	if err != nil {
		metrics.RecordMongoError(serviceName, metrics.MongoOpUpdate)
		return fmt.Errorf("failed to update inventory quantity: %w", err)
	}

	if result.MatchedCount == 0 {
		return ErrInventoryItemNotFound
	}

	return nil
}

// SetArchived помечает позицию как архивную или возвращает из архива.
// Документ при этом не удаляется.
func (r *inventoryRepository) SetArchived(ctx context.Context, id string, archived bool) error {
	timer := metrics.NewMongoTimer(serviceName, metrics.MongoOpUpdate, "inventory")
	defer timer.ObserveDuration()

	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"isArchived": archived}},
	)
	if err != nil {
		metrics.RecordMongoError(serviceName, metrics.MongoOpUpdate)
		return fmt.Errorf("failed to archive inventory item: %w", err)
	}

	if result.MatchedCount == 0 {
		return ErrInventoryItemNotFound
	}

	return nil
}
