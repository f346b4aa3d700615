package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCanCancel_WithinWindow(t *testing.T) {
	now := time.Now()
	placed := now.Add(-179 * time.Second)

	assert.True(t, CanCancel(OrderStatusPending, placed, now))
}

func TestCanCancel_WindowBoundaryIsExclusive(t *testing.T) {
	now := time.Now()

	// Ровно 180 секунд - окно уже закрыто
	assert.False(t, CanCancel(OrderStatusPending, now.Add(-CancelWindow), now))
	assert.False(t, CanCancel(OrderStatusPending, now.Add(-181*time.Second), now))
}

func TestCanCancel_OnlyPending(t *testing.T) {
	now := time.Now()
	placed := now.Add(-10 * time.Second)

	assert.False(t, CanCancel(OrderStatusPreparing, placed, now))
	assert.False(t, CanCancel(OrderStatusConfirmed, placed, now))
	assert.False(t, CanCancel(OrderStatusDelivered, placed, now))
	assert.False(t, CanCancel(OrderStatusCancelled, placed, now))
}

func TestCanCancel_PendingCaseInsensitive(t *testing.T) {
	now := time.Now()
	placed := now.Add(-10 * time.Second)

	assert.True(t, CanCancel(OrderStatus("Pending"), placed, now))
	assert.True(t, CanCancel(OrderStatus("PENDING"), placed, now))
}

func TestComputeCancelState_Countdown(t *testing.T) {
	now := time.Now()
	order := Order{Status: OrderStatusPending, OrderTimestamp: now.Add(-55 * time.Second)}

	state := ComputeCancelState(order, now)

	assert.True(t, state.Eligible)
	assert.Equal(t, "2:05", state.Countdown)
	assert.Equal(t, 125*time.Second, state.Remaining)
}

func TestComputeCancelState_FullWindow(t *testing.T) {
	now := time.Now()
	order := Order{Status: OrderStatusPending, OrderTimestamp: now}

	state := ComputeCancelState(order, now)

	assert.True(t, state.Eligible)
	assert.Equal(t, "3:00", state.Countdown)
}

func TestComputeCancelState_TruncatesSeconds(t *testing.T) {
	now := time.Now()
	// Осталось 10.7 секунд, показываем 0:10
	order := Order{Status: OrderStatusPending, OrderTimestamp: now.Add(-(CancelWindow - 10700*time.Millisecond))}

	state := ComputeCancelState(order, now)

	assert.True(t, state.Eligible)
	assert.Equal(t, "0:10", state.Countdown)
}

func TestComputeCancelState_Expired(t *testing.T) {
	now := time.Now()
	order := Order{Status: OrderStatusPending, OrderTimestamp: now.Add(-4 * time.Minute)}

	state := ComputeCancelState(order, now)

	assert.False(t, state.Eligible)
	assert.Equal(t, time.Duration(0), state.Remaining)
	assert.Equal(t, "0:00", state.Countdown)
}

func TestComputeCancelState_NotPending(t *testing.T) {
	now := time.Now()
	order := Order{Status: OrderStatusPreparing, OrderTimestamp: now.Add(-10 * time.Second)}

	state := ComputeCancelState(order, now)

	assert.False(t, state.Eligible)
	assert.Equal(t, "0:00", state.Countdown)
}
