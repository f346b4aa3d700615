package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"coffeecompanion/orders-service/internal/app/orders/entity"
	"coffeecompanion/orders-service/internal/app/orders/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type OrderServiceInterface interface {
	GetOrder(ctx context.Context, orderID, userID string) (*entity.OrderWithItems, error)
	ListOrders(ctx context.Context, userID string) ([]entity.Order, error)
	UpdateStatus(ctx context.Context, orderID string, newStatus entity.OrderStatus) (*entity.Order, error)
	CancelOrder(ctx context.Context, orderID, userID string) (*entity.Order, error)
	WatchOrder(ctx context.Context, orderID, userID string) (<-chan entity.OrderSnapshot, error)
}

type OrderHandler struct {
	orderService OrderServiceInterface
	validator    *validator.Validate
}

func NewOrderHandler(orderService OrderServiceInterface) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		validator:    validator.New(),
	}
}

// ListOrders возвращает заказы текущего пользователя, новые первыми
func (h *OrderHandler) ListOrders(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	orders, err := h.orderService.ListOrders(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load orders"})
		return
	}

	now := time.Now()
	responses := make([]entity.OrderResponse, 0, len(orders))
	for _, order := range orders {
		responses = append(responses, orderResponse(order, nil, now))
	}

	c.JSON(http.StatusOK, entity.OrderListResponse{Orders: responses, Total: len(responses)})
}

// GetOrder возвращает заказ с позициями и производными полями
func (h *OrderHandler) GetOrder(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	orderID := c.Param("order_id")
	if orderID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Order ID is required"})
		return
	}

	order, err := h.orderService.GetOrder(c.Request.Context(), orderID, userID)
	if err != nil {
		h.respondOrderError(c, err)
		return
	}

	c.JSON(http.StatusOK, orderResponse(order.Order, order.Items, time.Now()))
}

// CancelOrder отменяет заказ по запросу владельца
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	orderID := c.Param("order_id")
	if orderID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Order ID is required"})
		return
	}

	order, err := h.orderService.CancelOrder(c.Request.Context(), orderID, userID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotCancellable):
			c.JSON(http.StatusConflict, gin.H{"error": "Order can only be cancelled while pending"})
		case errors.Is(err, service.ErrCancelWindowExpired):
			c.JSON(http.StatusConflict, gin.H{"error": "Cancellation window has expired"})
		default:
			h.respondOrderError(c, err)
		}
		return
	}

	c.JSON(http.StatusOK, orderResponse(*order, nil, time.Now()))
}

// UpdateStatus применяет переход статуса (операторский endpoint)
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	orderID := c.Param("order_id")
	if orderID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Order ID is required"})
		return
	}

	var req entity.UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if err := h.validator.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": formatValidationError(err)})
		return
	}

	order, err := h.orderService.UpdateStatus(c.Request.Context(), orderID, req.Status)
	if err != nil {
		if errors.Is(err, service.ErrInvalidStatusTransition) {
			c.JSON(http.StatusConflict, gin.H{"error": "Invalid status transition"})
			return
		}
		h.respondOrderError(c, err)
		return
	}

	c.JSON(http.StatusOK, orderResponse(*order, nil, time.Now()))
}

// WatchOrder стримит снимки заказа как Server-Sent Events.
// Подписка живет, пока открыт запрос; обрыв соединения отменяет
// контекст и сворачивает поток и обратный отсчет.
func (h *OrderHandler) WatchOrder(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	orderID := c.Param("order_id")
	if orderID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Order ID is required"})
		return
	}

	snapshots, err := h.orderService.WatchOrder(c.Request.Context(), orderID, userID)
	if err != nil {
		h.respondOrderError(c, err)
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	c.Stream(func(w io.Writer) bool {
		snapshot, open := <-snapshots
		if !open {
			return false
		}
		c.SSEvent("order", snapshot)
		return true
	})
}

func (h *OrderHandler) respondOrderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrOrderNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
	case errors.Is(err, service.ErrUnauthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process order"})
	}
}

func orderResponse(order entity.Order, items []entity.OrderItem, now time.Time) entity.OrderResponse {
	return entity.OrderResponse{
		Order:       order,
		Display:     order.Status.Display(),
		CancelState: entity.ComputeCancelState(order, now),
		Items:       items,
	}
}

func currentUserID(c *gin.Context) (string, bool) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return "", false
	}

	userIDStr, ok := userID.(string)
	if !ok || userIDStr == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid user ID"})
		return "", false
	}

	return userIDStr, true
}

func formatValidationError(err error) string {
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		for _, fieldError := range validationErrors {
			return fieldError.Field() + " is " + fieldError.Tag()
		}
	}
	return "Validation failed"
}
