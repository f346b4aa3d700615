package entity

import (
	"fmt"
	"time"
)

// CancelWindow - фиксированное окно самостоятельной отмены заказа,
// отсчитывается от orderTimestamp (wall clock), а не от открытия экрана
const CancelWindow = 3 * time.Minute

// CancelState - проекция права на отмену в момент now.
// Это вычисляемое значение, оно нигде не хранится и пересчитывается
// на каждом тике, пока окно открыто.
type CancelState struct {
	Eligible  bool          `json:"eligible"`
	Remaining time.Duration `json:"remaining_ns"`
	Countdown string        `json:"countdown"` // формат M:SS, целые секунды
}

// CanCancel сообщает, разрешена ли отмена заказа в момент now.
// Отмена допустима только из статуса pending (без учета регистра)
// и строго внутри окна CancelWindow.
func CanCancel(status OrderStatus, orderTimestamp time.Time, now time.Time) bool {
	if !status.Is(OrderStatusPending) {
		return false
	}
	return now.Sub(orderTimestamp) < CancelWindow
}

// ComputeCancelState возвращает состояние отмены заказа в момент now
func ComputeCancelState(order Order, now time.Time) CancelState {
	remaining := CancelWindow - now.Sub(order.OrderTimestamp)
	if remaining < 0 {
		remaining = 0
	}

	eligible := CanCancel(order.Status, order.OrderTimestamp, now)
	if !eligible {
		return CancelState{Eligible: false, Remaining: 0, Countdown: "0:00"}
	}

	secs := int64(remaining / time.Second)
	return CancelState{
		Eligible:  true,
		Remaining: remaining,
		Countdown: fmt.Sprintf("%d:%02d", secs/60, secs%60),
	}
}
