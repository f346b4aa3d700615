package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"coffeecompanion/orders-service/internal/app/orders/entity"
	"coffeecompanion/orders-service/internal/app/orders/repository"
)

// WatchOrder открывает живую ленту деталей заказа: канал неизменяемых
// снимков, в которых производные поля (отображаемый статус и состояние
// окна отмены) пересчитаны от текущего момента. Снимок публикуется на
// каждом изменении документа и на каждом тике обратного отсчета, пока
// окно отмены открыто. Канал закрывается при отмене контекста или
// завершении подписки хранилища.
func (s *OrderService) WatchOrder(ctx context.Context, orderID, userID string) (<-chan entity.OrderSnapshot, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	if order.UserID != userID {
		return nil, ErrUnauthorized
	}

	updates, err := s.orderRepo.Watch(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to order updates: %w", err)
	}

	snapshots := make(chan entity.OrderSnapshot, 1)

	go func() {
		defer close(snapshots)

		current := *order

		countdownCtx, cancelCountdown := context.WithCancel(ctx)
		defer cancelCountdown()

		var ticks <-chan entity.CancelState
		if entity.CanCancel(current.Status, current.OrderTimestamp, time.Now()) {
			ticks = CancelCountdown(countdownCtx, current, time.Second)
		}

		emit := func(now time.Time) bool {
			snapshot := entity.OrderSnapshot{
				Order:       current,
				Display:     current.Status.Display(),
				CancelState: entity.ComputeCancelState(current, now),
				ObservedAt:  now,
			}
			select {
			case snapshots <- snapshot:
				return true
			case <-ctx.Done():
				return false
			}
		}

		if !emit(time.Now()) {
			return
		}

		for {
			select {
			case <-ctx.Done():
				return

			case updated, ok := <-updates:
				if !ok {
					return
				}
				current = updated
				// Статус ушел из pending - обратный отсчет больше не нужен
				if ticks != nil && !current.Status.Is(entity.OrderStatusPending) {
					cancelCountdown()
					ticks = nil
				}
				if !emit(time.Now()) {
					return
				}

			case _, ok := <-ticks:
				if !ok {
					// Окно истекло: последний снимок с Eligible=false уже
					// отправлен на предыдущей итерации, дальше ждем только
					// изменений документа
					ticks = nil
					continue
				}
				if !emit(time.Now()) {
					return
				}
			}
		}
	}()

	return snapshots, nil
}
