package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"coffeecompanion/orders-service/internal/app/orders/entity"
	"coffeecompanion/orders-service/internal/app/orders/repository"
	"coffeecompanion/orders-service/internal/app/orders/repository/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newOrderService(orderRepo *mocks.MockOrderRepository, itemRepo *mocks.MockOrderItemRepository, producer *mocks.MockMessagePublisher) *OrderService {
	return NewOrderService(orderRepo, itemRepo, producer)
}

func TestGetOrder_Success(t *testing.T) {
	orderRepo := new(mocks.MockOrderRepository)
	itemRepo := new(mocks.MockOrderItemRepository)
	producer := &mocks.MockMessagePublisher{Messages: make([][]byte, 0)}
	service := newOrderService(orderRepo, itemRepo, producer)

	ctx := context.Background()
	order := &entity.Order{ID: "order-1", UserID: "user-1", Status: entity.OrderStatusPending}
	items := []entity.OrderItem{{ID: "item-1", OrderID: "order-1", ProductID: "product-1", Quantity: 2}}

	orderRepo.On("GetByID", ctx, "order-1").Return(order, nil)
	itemRepo.On("GetByOrderID", ctx, "order-1").Return(items, nil)

	result, err := service.GetOrder(ctx, "order-1", "user-1")

	assert.NoError(t, err)
	assert.Equal(t, "order-1", result.ID)
	assert.Len(t, result.Items, 1)
}

func TestGetOrder_NotFound(t *testing.T) {
	orderRepo := new(mocks.MockOrderRepository)
	itemRepo := new(mocks.MockOrderItemRepository)
	producer := &mocks.MockMessagePublisher{Messages: make([][]byte, 0)}
	service := newOrderService(orderRepo, itemRepo, producer)

	ctx := context.Background()
	orderRepo.On("GetByID", ctx, "missing").Return(nil, repository.ErrOrderNotFound)

	result, err := service.GetOrder(ctx, "missing", "user-1")

	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestGetOrder_Unauthorized(t *testing.T) {
	orderRepo := new(mocks.MockOrderRepository)
	itemRepo := new(mocks.MockOrderItemRepository)
	producer := &mocks.MockMessagePublisher{Messages: make([][]byte, 0)}
	service := newOrderService(orderRepo, itemRepo, producer)

	ctx := context.Background()
	order := &entity.Order{ID: "order-1", UserID: "owner-user"}
	orderRepo.On("GetByID", ctx, "order-1").Return(order, nil)

	result, err := service.GetOrder(ctx, "order-1", "another-user")

	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestGetOrder_ItemsErrorDegrades(t *testing.T) {
	orderRepo := new(mocks.MockOrderRepository)
	itemRepo := new(mocks.MockOrderItemRepository)
	producer := &mocks.MockMessagePublisher{Messages: make([][]byte, 0)}
	service := newOrderService(orderRepo, itemRepo, producer)

	ctx := context.Background()
	order := &entity.Order{ID: "order-1", UserID: "user-1"}
	orderRepo.On("GetByID", ctx, "order-1").Return(order, nil)
	itemRepo.On("GetByOrderID", ctx, "order-1").Return(nil, errors.New("store unavailable"))

	result, err := service.GetOrder(ctx, "order-1", "user-1")

	assert.NoError(t, err)
	assert.Equal(t, "order-1", result.ID)
	assert.Nil(t, result.Items)
}

func TestListOrders_Success(t *testing.T) {
	orderRepo := new(mocks.MockOrderRepository)
	itemRepo := new(mocks.MockOrderItemRepository)
	producer := &mocks.MockMessagePublisher{Messages: make([][]byte, 0)}
	service := newOrderService(orderRepo, itemRepo, producer)

	ctx := context.Background()
	orders := []entity.Order{
		{ID: "order-2", UserID: "user-1", OrderTimestamp: time.Now()},
		{ID: "order-1", UserID: "user-1", OrderTimestamp: time.Now().Add(-time.Hour)},
	}
	orderRepo.On("GetByUserID", ctx, "user-1").Return(orders, nil)

	result, err := service.ListOrders(ctx, "user-1")

	assert.NoError(t, err)
	assert.Len(t, result, 2)
}

func TestUpdateStatus_Success(t *testing.T) {
	orderRepo := new(mocks.MockOrderRepository)
	itemRepo := new(mocks.MockOrderItemRepository)
	producer := &mocks.MockMessagePublisher{Messages: make([][]byte, 0)}
	service := newOrderService(orderRepo, itemRepo, producer)

	ctx := context.Background()
	order := &entity.Order{ID: "order-1", UserID: "user-1", Status: entity.OrderStatusPending}

	orderRepo.On("GetByID", ctx, "order-1").Return(order, nil)
	orderRepo.On("UpdateStatus", ctx, "order-1", entity.OrderStatusPreparing).Return(nil)
	producer.On("PublishMessage", ctx, "order-1", mock.Anything).Return(nil)

	result, err := service.UpdateStatus(ctx, "order-1", entity.OrderStatusPreparing)

	assert.NoError(t, err)
	assert.Equal(t, entity.OrderStatusPreparing, result.Status)

	assert.Len(t, producer.Messages, 1)
	var event entity.OrderEvent
	assert.NoError(t, json.Unmarshal(producer.Messages[0], &event))
	assert.Equal(t, "ORDER_STATUS_UPDATED", event.EventType)
	assert.Equal(t, entity.OrderStatusPending, event.From)
	assert.Equal(t, entity.OrderStatusPreparing, event.To)
}

func TestUpdateStatus_InvalidTransition(t *testing.T) {
	orderRepo := new(mocks.MockOrderRepository)
	itemRepo := new(mocks.MockOrderItemRepository)
	producer := &mocks.MockMessagePublisher{Messages: make([][]byte, 0)}
	service := newOrderService(orderRepo, itemRepo, producer)

	ctx := context.Background()
	order := &entity.Order{ID: "order-1", Status: entity.OrderStatusDelivered}
	orderRepo.On("GetByID", ctx, "order-1").Return(order, nil)

	result, err := service.UpdateStatus(ctx, "order-1", entity.OrderStatusPending)

	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)
	orderRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateStatus_NormalizesCase(t *testing.T) {
	orderRepo := new(mocks.MockOrderRepository)
	itemRepo := new(mocks.MockOrderItemRepository)
	producer := &mocks.MockMessagePublisher{Messages: make([][]byte, 0)}
	service := newOrderService(orderRepo, itemRepo, producer)

	ctx := context.Background()
	order := &entity.Order{ID: "order-1", Status: entity.OrderStatus("Pending")}

	orderRepo.On("GetByID", ctx, "order-1").Return(order, nil)
	orderRepo.On("UpdateStatus", ctx, "order-1", entity.OrderStatusConfirmed).Return(nil)
	producer.On("PublishMessage", ctx, "order-1", mock.Anything).Return(nil)

	result, err := service.UpdateStatus(ctx, "order-1", entity.OrderStatus("CONFIRMED"))

	assert.NoError(t, err)
	assert.Equal(t, entity.OrderStatusConfirmed, result.Status)
}

func TestCancelOrder_Success(t *testing.T) {
	orderRepo := new(mocks.MockOrderRepository)
	itemRepo := new(mocks.MockOrderItemRepository)
	producer := &mocks.MockMessagePublisher{Messages: make([][]byte, 0)}
	service := newOrderService(orderRepo, itemRepo, producer)

	ctx := context.Background()
	order := &entity.Order{
		ID:             "order-1",
		UserID:         "user-1",
		Status:         entity.OrderStatusPending,
		OrderTimestamp: time.Now().Add(-time.Minute),
	}

	orderRepo.On("GetByID", ctx, "order-1").Return(order, nil)
	orderRepo.On("UpdateStatus", ctx, "order-1", entity.OrderStatusCancelled).Return(nil)
	producer.On("PublishMessage", ctx, "order-1", mock.Anything).Return(nil)

	result, err := service.CancelOrder(ctx, "order-1", "user-1")

	assert.NoError(t, err)
	assert.Equal(t, entity.OrderStatusCancelled, result.Status)

	var event entity.OrderEvent
	assert.NoError(t, json.Unmarshal(producer.Messages[0], &event))
	assert.Equal(t, "ORDER_CANCELLED", event.EventType)
}

func TestCancelOrder_NotPending(t *testing.T) {
	orderRepo := new(mocks.MockOrderRepository)
	itemRepo := new(mocks.MockOrderItemRepository)
	producer := &mocks.MockMessagePublisher{Messages: make([][]byte, 0)}
	service := newOrderService(orderRepo, itemRepo, producer)

	ctx := context.Background()
	order := &entity.Order{
		ID:             "order-1",
		UserID:         "user-1",
		Status:         entity.OrderStatusPreparing,
		OrderTimestamp: time.Now().Add(-time.Minute),
	}
	orderRepo.On("GetByID", ctx, "order-1").Return(order, nil)

	result, err := service.CancelOrder(ctx, "order-1", "user-1")

	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrOrderNotCancellable)
	orderRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestCancelOrder_WindowExpired(t *testing.T) {
	orderRepo := new(mocks.MockOrderRepository)
	itemRepo := new(mocks.MockOrderItemRepository)
	producer := &mocks.MockMessagePublisher{Messages: make([][]byte, 0)}
	service := newOrderService(orderRepo, itemRepo, producer)

	ctx := context.Background()
	order := &entity.Order{
		ID:             "order-1",
		UserID:         "user-1",
		Status:         entity.OrderStatusPending,
		OrderTimestamp: time.Now().Add(-5 * time.Minute),
	}
	orderRepo.On("GetByID", ctx, "order-1").Return(order, nil)

	result, err := service.CancelOrder(ctx, "order-1", "user-1")

	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrCancelWindowExpired)
	orderRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
	assert.Empty(t, producer.Messages)
}

func TestCancelOrder_Unauthorized(t *testing.T) {
	orderRepo := new(mocks.MockOrderRepository)
	itemRepo := new(mocks.MockOrderItemRepository)
	producer := &mocks.MockMessagePublisher{Messages: make([][]byte, 0)}
	service := newOrderService(orderRepo, itemRepo, producer)

	ctx := context.Background()
	order := &entity.Order{
		ID:             "order-1",
		UserID:         "owner-user",
		Status:         entity.OrderStatusPending,
		OrderTimestamp: time.Now(),
	}
	orderRepo.On("GetByID", ctx, "order-1").Return(order, nil)

	result, err := service.CancelOrder(ctx, "order-1", "another-user")

	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestCancelOrder_KafkaErrorIgnored(t *testing.T) {
	orderRepo := new(mocks.MockOrderRepository)
	itemRepo := new(mocks.MockOrderItemRepository)
	producer := &mocks.MockMessagePublisher{Messages: make([][]byte, 0)}
	service := newOrderService(orderRepo, itemRepo, producer)

	ctx := context.Background()
	order := &entity.Order{
		ID:             "order-1",
		UserID:         "user-1",
		Status:         entity.OrderStatusPending,
		OrderTimestamp: time.Now(),
	}

	orderRepo.On("GetByID", ctx, "order-1").Return(order, nil)
	orderRepo.On("UpdateStatus", ctx, "order-1", entity.OrderStatusCancelled).Return(nil)
	producer.On("PublishMessage", ctx, "order-1", mock.Anything).Return(errors.New("kafka error"))

	result, err := service.CancelOrder(ctx, "order-1", "user-1")

	assert.NoError(t, err)
	assert.Equal(t, entity.OrderStatusCancelled, result.Status)
}

func TestIsValidStatusTransition(t *testing.T) {
	assert.True(t, IsValidStatusTransition(entity.OrderStatusPending, entity.OrderStatusPreparing))
	assert.True(t, IsValidStatusTransition(entity.OrderStatusPending, entity.OrderStatusConfirmed))
	assert.True(t, IsValidStatusTransition(entity.OrderStatusPending, entity.OrderStatusCancelled))
	assert.True(t, IsValidStatusTransition(entity.OrderStatusPreparing, entity.OrderStatusOutForDelivery))
	assert.True(t, IsValidStatusTransition(entity.OrderStatusConfirmed, entity.OrderStatusOutForDelivery))
	assert.True(t, IsValidStatusTransition(entity.OrderStatusOutForDelivery, entity.OrderStatusDelivered))
	assert.True(t, IsValidStatusTransition(entity.OrderStatusOutForDelivery, entity.OrderStatusCompleted))

	assert.False(t, IsValidStatusTransition(entity.OrderStatusPending, entity.OrderStatusDelivered))
	assert.False(t, IsValidStatusTransition(entity.OrderStatusPreparing, entity.OrderStatusCancelled))
	assert.False(t, IsValidStatusTransition(entity.OrderStatusDelivered, entity.OrderStatusPending))
	assert.False(t, IsValidStatusTransition(entity.OrderStatusCompleted, entity.OrderStatusDelivered))
	assert.False(t, IsValidStatusTransition(entity.OrderStatusCancelled, entity.OrderStatusPending))
	assert.False(t, IsValidStatusTransition(entity.OrderStatus("unknown"), entity.OrderStatusPending))
}

func TestIsValidStatusTransition_CaseInsensitive(t *testing.T) {
	assert.True(t, IsValidStatusTransition(entity.OrderStatus("PENDING"), entity.OrderStatus("Preparing")))
}
