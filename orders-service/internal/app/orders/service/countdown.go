package service

import (
	"context"
	"time"

	"coffeecompanion/orders-service/internal/app/orders/entity"
)

// CancelCountdown периодически пересчитывает состояние окна отмены заказа.
// Первое значение отправляется сразу, дальше раз в period. Канал закрывается
// после первой неподходящей проекции (окно истекло или статус не pending)
// либо при отмене контекста - таймер не переживает логическое время жизни
// карточки заказа.
func CancelCountdown(ctx context.Context, order entity.Order, period time.Duration) <-chan entity.CancelState {
	out := make(chan entity.CancelState, 1)

	go func() {
		defer close(out)

		ticker := time.NewTicker(period)
		defer ticker.Stop()

		for {
			state := entity.ComputeCancelState(order, time.Now())

			select {
			case out <- state:
			case <-ctx.Done():
				return
			}

			if !state.Eligible {
				return
			}

			select {
			case <-ticker.C:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}
