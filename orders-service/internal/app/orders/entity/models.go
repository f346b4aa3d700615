package entity

import (
	"strings"
	"time"
)

// Order представляет заказ пользователя в коллекции orders
// Заказы никогда не удаляются: отмена - это значение статуса, а не удаление
type Order struct {
	ID             string      `json:"id" bson:"_id,omitempty"`
	UserID         string      `json:"user_id" bson:"userId"` // UID владельца заказа
	Name           string      `json:"name" bson:"name"`      // Имя получателя
	Address        string      `json:"address" bson:"address"`
	Mobile         string      `json:"mobile" bson:"mobile"`
	Status         OrderStatus `json:"status" bson:"status"`
	PaymentMethod  string      `json:"payment_method" bson:"paymentMethod"`
	ReceiptNumber  string      `json:"receipt_number" bson:"receiptNumber"`
	Subtotal       float64     `json:"subtotal" bson:"subtotal"`
	DeliveryFee    float64     `json:"delivery_fee" bson:"deliveryFee"`
	TotalPrice     float64     `json:"total_price" bson:"totalPrice"`
	IsRated        bool        `json:"is_rated" bson:"isRated"`
	Reviewed       bool        `json:"reviewed" bson:"reviewed"`
	OrderTimestamp time.Time   `json:"order_timestamp" bson:"orderTimestamp"`
}

// OrderItem представляет позицию заказа в коллекции order_items
// Позиции неизменяемы после создания заказа
type OrderItem struct {
	ID        string `json:"id" bson:"_id,omitempty"`
	OrderID   string `json:"order_id" bson:"orderId"`
	ProductID string `json:"product_id" bson:"productId"`
	ShopID    string `json:"shop_id" bson:"shopId"`
	Name      string `json:"name" bson:"name"`
	ImageURL  string `json:"image_url" bson:"imageUrl"`
	Quantity  int    `json:"quantity" bson:"quantity"`
}

// OrderWithItems содержит заказ с полным списком позиций
type OrderWithItems struct {
	Order
	Items []OrderItem `json:"items"`
}

// OrderStatus представляет статусы заказа
type OrderStatus string

const (
	OrderStatusPending        OrderStatus = "pending"          // Ожидает обработки
	OrderStatusPreparing      OrderStatus = "preparing"        // Готовится
	OrderStatusConfirmed      OrderStatus = "confirmed"        // Подтвержден
	OrderStatusOutForDelivery OrderStatus = "out_for_delivery" // Передан курьеру
	OrderStatusDelivered      OrderStatus = "delivered"        // Доставлен
	OrderStatusCompleted      OrderStatus = "completed"        // Завершен
	OrderStatusCancelled      OrderStatus = "cancelled"        // Отменен владельцем или оператором
)

// Normalize приводит статус к каноническому нижнему регистру
func (s OrderStatus) Normalize() OrderStatus {
	return OrderStatus(strings.ToLower(strings.TrimSpace(string(s))))
}

// Is сравнивает статусы без учета регистра
func (s OrderStatus) Is(other OrderStatus) bool {
	return strings.EqualFold(string(s), string(other))
}

// IsTerminal сообщает, является ли статус финальным
func (s OrderStatus) IsTerminal() bool {
	switch s.Normalize() {
	case OrderStatusDelivered, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

// StatusDisplay - отображаемое представление статуса для клиентов.
// Таксономия повторяет исходную: неизвестная строка трактуется как pending,
// хранимое значение при этом не изменяется.
type StatusDisplay struct {
	Status OrderStatus `json:"status"`
	Label  string      `json:"label"`
	Color  string      `json:"color"`
}

// Display возвращает отображаемое представление статуса
func (s OrderStatus) Display() StatusDisplay {
	switch s.Normalize() {
	case OrderStatusPending:
		return StatusDisplay{Status: OrderStatusPending, Label: "PENDING", Color: "#FFC107"}
	case OrderStatusPreparing:
		return StatusDisplay{Status: OrderStatusPreparing, Label: "PREPARING", Color: "#2196F3"}
	case OrderStatusConfirmed:
		return StatusDisplay{Status: OrderStatusConfirmed, Label: "CONFIRMED", Color: "#2196F3"}
	case OrderStatusOutForDelivery:
		return StatusDisplay{Status: OrderStatusOutForDelivery, Label: "OUT FOR DELIVERY", Color: "#FF9800"}
	case OrderStatusDelivered:
		return StatusDisplay{Status: OrderStatusDelivered, Label: "DELIVERED", Color: "#4CAF50"}
	case OrderStatusCompleted:
		return StatusDisplay{Status: OrderStatusCompleted, Label: "COMPLETED", Color: "#4CAF50"}
	case OrderStatusCancelled:
		return StatusDisplay{Status: OrderStatusCancelled, Label: "CANCELLED", Color: "#F44336"}
	default:
		// Неизвестный статус отображается как pending
		return StatusDisplay{Status: OrderStatusPending, Label: "PENDING", Color: "#FFC107"}
	}
}

// OrderEvent представляет событие изменения заказа для Kafka
type OrderEvent struct {
	EventType string      `json:"event_type"` // ORDER_STATUS_UPDATED, ORDER_CANCELLED
	OrderID   string      `json:"order_id"`
	UserID    string      `json:"user_id"`
	From      OrderStatus `json:"from"`
	To        OrderStatus `json:"to"`
	Timestamp time.Time   `json:"timestamp"`
}

// InventoryItem представляет позицию склада в коллекции inventory
// Архивация - это мягкое удаление, документ остается в коллекции
type InventoryItem struct {
	ID          string  `json:"id" bson:"_id,omitempty"`
	ProductName string  `json:"product_name" bson:"productName"`
	Quantity    int     `json:"quantity" bson:"quantity"`
	Price       float64 `json:"price" bson:"price"`
	IsArchived  bool    `json:"is_archived" bson:"isArchived"`
	ImageURL    string  `json:"image_url" bson:"imageUrl"`
}

// StockStatus - уровень запаса позиции склада
type StockStatus string

const (
	StockStatusCritical StockStatus = "critical"
	StockStatusLow      StockStatus = "low"
	StockStatusNormal   StockStatus = "normal"
)

const (
	CriticalStockThreshold = 3
	LowStockThreshold      = 10
)

// ClassifyStock относит количество к уровню запаса.
// Границы включительные: ровно 3 - critical, ровно 10 - low, 11 - normal.
func ClassifyStock(quantity int) StockStatus {
	if quantity <= CriticalStockThreshold {
		return StockStatusCritical
	}
	if quantity <= LowStockThreshold {
		return StockStatusLow
	}
	return StockStatusNormal
}
