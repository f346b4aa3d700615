package entity

import (
	"strings"
	"time"
)

// ProductRating - оценка товара в коллекции productRatings.
// Документы из устаревшей коллекции reviews нормализуются к этой же
// структуре при чтении.
type ProductRating struct {
	ID        string    `json:"id" bson:"_id,omitempty"`
	ProductID string    `json:"product_id" bson:"productId"`
	OrderID   string    `json:"order_id" bson:"orderId"`
	UserID    string    `json:"user_id" bson:"userId"`
	UserName  string    `json:"user_name" bson:"userName"`
	ShopID    string    `json:"shop_id" bson:"shopId"`
	Rating    float64   `json:"rating" bson:"rating"`
	Comment   string    `json:"comment" bson:"comment"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
}

// OrderRating - общая оценка заказа в коллекции orderRatings
type OrderRating struct {
	ID        string    `json:"id" bson:"_id,omitempty"`
	OrderID   string    `json:"order_id" bson:"orderId"`
	UserID    string    `json:"user_id" bson:"userId"`
	UserName  string    `json:"user_name" bson:"userName"`
	ShopID    string    `json:"shop_id" bson:"shopId"`
	Rating    float64   `json:"rating" bson:"rating"`
	Comment   string    `json:"comment" bson:"comment"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
}

// ProductAggregate - материализованный агрегат рейтинга в коллекции products.
// Это кэш: его всегда можно восстановить полным пересчетом по строкам оценок.
type ProductAggregate struct {
	ProductID     string    `json:"product_id" bson:"_id"`
	AverageRating float64   `json:"average_rating" bson:"averageRating"`
	RatingCount   int64     `json:"rating_count" bson:"ratingCount"`
	LastUpdated   time.Time `json:"last_updated" bson:"lastUpdated"`
}

// RatingEvent представляет событие создания оценки для Kafka.
// Ключ сообщения - productId, чтобы события одного товара шли по порядку.
type RatingEvent struct {
	EventType string    `json:"event_type"` // RATING_CREATED
	ProductID string    `json:"product_id"`
	OrderID   string    `json:"order_id"`
	UserID    string    `json:"user_id"`
	Rating    float64   `json:"rating"`
	Timestamp time.Time `json:"timestamp"`
}

// Order - проекция заказа, достаточная для проверки права на отзыв
type Order struct {
	ID             string    `json:"id" bson:"_id,omitempty"`
	UserID         string    `json:"user_id" bson:"userId"`
	Status         string    `json:"status" bson:"status"`
	ReceiptNumber  string    `json:"receipt_number" bson:"receiptNumber"`
	IsRated        bool      `json:"is_rated" bson:"isRated"`
	OrderTimestamp time.Time `json:"order_timestamp" bson:"orderTimestamp"`
}

// RatableStatus сообщает, достиг ли заказ состояния, в котором его можно
// оценивать. Сравнение без учета регистра: исторические документы писали
// статус в разном регистре.
func RatableStatus(status string) bool {
	s := strings.ToLower(strings.TrimSpace(status))
	return s == "completed" || s == "delivered"
}

// DisplayReceipt возвращает номер чека заказа, а при его отсутствии -
// первые восемь символов идентификатора заказа в верхнем регистре
func DisplayReceipt(o Order) string {
	if o.ReceiptNumber != "" {
		return o.ReceiptNumber
	}
	id := o.ID
	if len(id) > 8 {
		id = id[:8]
	}
	return strings.ToUpper(id)
}
