package repository

import (
	"context"

	"coffeecompanion/orders-service/internal/app/orders/entity"
)

// OrderRepository определяет методы для работы с заказами в MongoDB.
// Это единственная граница, через которую ядро обращается к хранилищу:
// точечное чтение, запрос по владельцу, обновление статуса и живая
// подписка на изменения одного документа.
type OrderRepository interface {
	GetByID(ctx context.Context, orderID string) (*entity.Order, error)
	// GetByUserID возвращает заказы пользователя, отсортированные по
	// orderTimestamp по убыванию. Сортировка выполняется на клиенте:
	// составного индекса (userId, orderTimestamp) в хранилище нет.
	GetByUserID(ctx context.Context, userID string) ([]entity.Order, error)
	UpdateStatus(ctx context.Context, orderID string, status entity.OrderStatus) error
	// Watch подписывается на изменения одного заказа. Канал закрывается
	// при отмене контекста или ошибке потока. Порядок событий гарантирован
	// только внутри этого документа.
	Watch(ctx context.Context, orderID string) (<-chan entity.Order, error)
}

// OrderItemRepository определяет методы для работы с позициями заказов
type OrderItemRepository interface {
	GetByOrderID(ctx context.Context, orderID string) ([]entity.OrderItem, error)
}

// InventoryRepository определяет методы для работы со складом
type InventoryRepository interface {
	Create(ctx context.Context, item *entity.InventoryItem) error
	GetByID(ctx context.Context, id string) (*entity.InventoryItem, error)
	// ListActive возвращает неархивированные позиции
	ListActive(ctx context.Context) ([]entity.InventoryItem, error)
	UpdateQuantity(ctx context.Context, id string, quantity int) error
	SetArchived(ctx context.Context, id string, archived bool) error
}
