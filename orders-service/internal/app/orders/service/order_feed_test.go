package service

import (
	"context"
	"testing"
	"time"

	"coffeecompanion/orders-service/internal/app/orders/entity"
	"coffeecompanion/orders-service/internal/app/orders/repository"
	"coffeecompanion/orders-service/internal/app/orders/repository/mocks"

	"github.com/stretchr/testify/assert"
)

func receiveSnapshot(t *testing.T, snapshots <-chan entity.OrderSnapshot) entity.OrderSnapshot {
	t.Helper()
	select {
	case snapshot, ok := <-snapshots:
		if !ok {
			t.Fatal("snapshot channel closed unexpectedly")
		}
		return snapshot
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for snapshot")
	}
	return entity.OrderSnapshot{}
}

func TestWatchOrder_InitialSnapshot(t *testing.T) {
	orderRepo := new(mocks.MockOrderRepository)
	itemRepo := new(mocks.MockOrderItemRepository)
	producer := &mocks.MockMessagePublisher{Messages: make([][]byte, 0)}
	service := newOrderService(orderRepo, itemRepo, producer)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	order := &entity.Order{
		ID:             "order-1",
		UserID:         "user-1",
		Status:         entity.OrderStatusPending,
		OrderTimestamp: time.Now(),
	}
	updates := make(chan entity.Order)

	orderRepo.On("GetByID", ctx, "order-1").Return(order, nil)
	orderRepo.On("Watch", ctx, "order-1").Return((<-chan entity.Order)(updates), nil)

	snapshots, err := service.WatchOrder(ctx, "order-1", "user-1")
	assert.NoError(t, err)

	snapshot := receiveSnapshot(t, snapshots)
	assert.Equal(t, "order-1", snapshot.Order.ID)
	assert.Equal(t, "PENDING", snapshot.Display.Label)
	assert.True(t, snapshot.CancelState.Eligible)
}

func TestWatchOrder_EmitsOnDocumentUpdate(t *testing.T) {
	orderRepo := new(mocks.MockOrderRepository)
	itemRepo := new(mocks.MockOrderItemRepository)
	producer := &mocks.MockMessagePublisher{Messages: make([][]byte, 0)}
	service := newOrderService(orderRepo, itemRepo, producer)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	placed := time.Now()
	order := &entity.Order{
		ID:             "order-1",
		UserID:         "user-1",
		Status:         entity.OrderStatusPreparing,
		OrderTimestamp: placed,
	}
	updates := make(chan entity.Order, 1)

	orderRepo.On("GetByID", ctx, "order-1").Return(order, nil)
	orderRepo.On("Watch", ctx, "order-1").Return((<-chan entity.Order)(updates), nil)

	snapshots, err := service.WatchOrder(ctx, "order-1", "user-1")
	assert.NoError(t, err)

	first := receiveSnapshot(t, snapshots)
	assert.Equal(t, "PREPARING", first.Display.Label)
	assert.False(t, first.CancelState.Eligible)

	updated := *order
	updated.Status = entity.OrderStatusOutForDelivery
	updates <- updated

	second := receiveSnapshot(t, snapshots)
	assert.Equal(t, "OUT FOR DELIVERY", second.Display.Label)
	assert.Equal(t, "#FF9800", second.Display.Color)
}

func TestWatchOrder_ClosesWhenUpdatesEnd(t *testing.T) {
	orderRepo := new(mocks.MockOrderRepository)
	itemRepo := new(mocks.MockOrderItemRepository)
	producer := &mocks.MockMessagePublisher{Messages: make([][]byte, 0)}
	service := newOrderService(orderRepo, itemRepo, producer)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	order := &entity.Order{
		ID:             "order-1",
		UserID:         "user-1",
		Status:         entity.OrderStatusDelivered,
		OrderTimestamp: time.Now().Add(-time.Hour),
	}
	updates := make(chan entity.Order)

	orderRepo.On("GetByID", ctx, "order-1").Return(order, nil)
	orderRepo.On("Watch", ctx, "order-1").Return((<-chan entity.Order)(updates), nil)

	snapshots, err := service.WatchOrder(ctx, "order-1", "user-1")
	assert.NoError(t, err)

	receiveSnapshot(t, snapshots)
	close(updates)

	select {
	case _, ok := <-snapshots:
		assert.False(t, ok, "snapshot channel must close when subscription ends")
	case <-time.After(2 * time.Second):
		t.Fatal("snapshot channel not closed")
	}
}

func TestWatchOrder_NotFound(t *testing.T) {
	orderRepo := new(mocks.MockOrderRepository)
	itemRepo := new(mocks.MockOrderItemRepository)
	producer := &mocks.MockMessagePublisher{Messages: make([][]byte, 0)}
	service := newOrderService(orderRepo, itemRepo, producer)

	ctx := context.Background()
	orderRepo.On("GetByID", ctx, "missing").Return(nil, repository.ErrOrderNotFound)

	snapshots, err := service.WatchOrder(ctx, "missing", "user-1")

	assert.Nil(t, snapshots)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestWatchOrder_Unauthorized(t *testing.T) {
	orderRepo := new(mocks.MockOrderRepository)
	itemRepo := new(mocks.MockOrderItemRepository)
	producer := &mocks.MockMessagePublisher{Messages: make([][]byte, 0)}
	service := newOrderService(orderRepo, itemRepo, producer)

	ctx := context.Background()
	order := &entity.Order{ID: "order-1", UserID: "owner-user"}
	orderRepo.On("GetByID", ctx, "order-1").Return(order, nil)

	snapshots, err := service.WatchOrder(ctx, "order-1", "another-user")

	assert.Nil(t, snapshots)
	assert.ErrorIs(t, err, ErrUnauthorized)
}
