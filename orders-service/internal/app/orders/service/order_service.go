package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"coffeecompanion/orders-service/internal/app/orders/entity"
	"coffeecompanion/orders-service/internal/app/orders/infrastructure"
	"coffeecompanion/orders-service/internal/app/orders/repository"
	"coffeecompanion/pkg/logger"
	"coffeecompanion/pkg/metrics"
)

var (
	// Ошибки бизнес-логики для обработки в handlers
	ErrOrderNotFound           = errors.New("order not found")
	ErrUnauthorized            = errors.New("unauthorized access to order")
	ErrInvalidStatusTransition = errors.New("invalid order status transition")
	ErrOrderNotCancellable     = errors.New("order can only be cancelled while pending")
	ErrCancelWindowExpired     = errors.New("cancellation window has expired")
)

// OrderService обрабатывает жизненный цикл заказа: валидацию переходов
// статусов, право на отмену и живую ленту деталей заказа
type OrderService struct {
	orderRepo     repository.OrderRepository
	orderItemRepo repository.OrderItemRepository
	kafkaProducer infrastructure.MessagePublisher
}

// NewOrderService создает новый сервис заказов с внедрением зависимостей
func NewOrderService(
	orderRepo repository.OrderRepository,
	orderItemRepo repository.OrderItemRepository,
	kafkaProducer infrastructure.MessagePublisher,
) *OrderService {
	return &OrderService{
		orderRepo:     orderRepo,
		orderItemRepo: orderItemRepo,
		kafkaProducer: kafkaProducer,
	}
}

// GetOrder получает заказ с позициями, проверяя владельца
func (s *OrderService) GetOrder(ctx context.Context, orderID, userID string) (*entity.OrderWithItems, error) {
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

	items, err := s.orderItemRepo.GetByOrderID(ctx, orderID)
	if err != nil {
		// Недоступность позиций не блокирует карточку заказа:
		// показываем заказ без списка товаров
		logger.Warn().Err(err).Str("order_id", orderID).Msg("Failed to load order items, continuing without them")
		items = nil
	}

	return &entity.OrderWithItems{Order: *order, Items: items}, nil
}

// ListOrders возвращает заказы пользователя, новые первыми
func (s *OrderService) ListOrders(ctx context.Context, userID string) ([]entity.Order, error) {
	orders, err := s.orderRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// UpdateStatus применяет переход статуса, выполняемый оператором.
// Переход pending -> cancelled через этот метод не авторизуется ядром,
// для отмены владельцем есть CancelOrder.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID string, newStatus entity.OrderStatus) (*entity.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	from := order.Status.Normalize()
	to := newStatus.Normalize()

	if !IsValidStatusTransition(from, to) {
		return nil, ErrInvalidStatusTransition
	}

	if err := s.orderRepo.UpdateStatus(ctx, orderID, to); err != nil {
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}

	order.Status = to
	metrics.OrderStatusTransitions.WithLabelValues(string(from), string(to)).Inc()

	s.publishOrderEvent(ctx, entity.OrderEvent{
		EventType: "ORDER_STATUS_UPDATED",
		OrderID:   order.ID,
		UserID:    order.UserID,
		From:      from,
		To:        to,
		Timestamp: time.Now(),
	})

	return order, nil
}

// CancelOrder отменяет заказ по запросу владельца.
// Разрешено только пока статус pending и не истекло окно отмены,
// отсчитанное от orderTimestamp. Побочный эффект ровно один -
// обновление поля status, без каскадных записей и возврата склада.
func (s *OrderService) CancelOrder(ctx context.Context, orderID, userID string) (*entity.Order, error) {
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

	now := time.Now()

	if !order.Status.Is(entity.OrderStatusPending) {
		metrics.OrderCancelRejected.WithLabelValues("not_pending").Inc()
		return nil, ErrOrderNotCancellable
	}

	if !entity.CanCancel(order.Status, order.OrderTimestamp, now) {
		metrics.OrderCancelRejected.WithLabelValues("window_expired").Inc()
		return nil, ErrCancelWindowExpired
	}

	if err := s.orderRepo.UpdateStatus(ctx, orderID, entity.OrderStatusCancelled); err != nil {
		return nil, fmt.Errorf("failed to cancel order: %w", err)
	}

	from := order.Status.Normalize()
	order.Status = entity.OrderStatusCancelled
	metrics.OrdersCancelled.Inc()

	s.publishOrderEvent(ctx, entity.OrderEvent{
		EventType: "ORDER_CANCELLED",
		OrderID:   order.ID,
		UserID:    order.UserID,
		From:      from,
		To:        entity.OrderStatusCancelled,
		Timestamp: now,
	})

	return order, nil
}

// IsValidStatusTransition проверяет допустимость смены статуса заказа
func IsValidStatusTransition(from, to entity.OrderStatus) bool {
	validTransitions := map[entity.OrderStatus][]entity.OrderStatus{
		entity.OrderStatusPending: {
			entity.OrderStatusPreparing,
			entity.OrderStatusConfirmed,
			entity.OrderStatusCancelled,
		},
		entity.OrderStatusPreparing: {
			entity.OrderStatusOutForDelivery,
		},
		entity.OrderStatusConfirmed: {
			entity.OrderStatusOutForDelivery,
		},
		entity.OrderStatusOutForDelivery: {
			entity.OrderStatusDelivered,
			entity.OrderStatusCompleted,
		},
		entity.OrderStatusDelivered: {}, // Финальный статус
		entity.OrderStatusCompleted: {}, // Финальный статус
		entity.OrderStatusCancelled: {}, // Финальный статус
	}

	allowedStatuses, exists := validTransitions[from.Normalize()]
	if !exists {
		return false
	}

	for _, status := range allowedStatuses {
		if status == to.Normalize() {
			return true
		}
	}

	return false
}

// publishOrderEvent отправляет событие заказа в Kafka.
// Ошибки Kafka не прерывают основной поток: изменение уже сохранено.
func (s *OrderService) publishOrderEvent(ctx context.Context, event entity.OrderEvent) {
	eventData, err := json.Marshal(event)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to marshal order event")
		return
	}

	if err := s.kafkaProducer.PublishMessage(ctx, event.OrderID, eventData); err != nil {
		logger.Warn().Err(err).Str("order_id", event.OrderID).Msg("Failed to publish order event")
	}
}
