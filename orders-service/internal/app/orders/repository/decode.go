package repository

import (
	"time"

	"coffeecompanion/orders-service/internal/app/orders/entity"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Старые заказы без deliveryFee получают фиксированную стоимость доставки
const defaultDeliveryFee = 30.0

// Документы заказов декодируются из сырого bson.M, а не через struct-теги:
// исторически накопилось несколько вариантов схемы, и каждый логический
// атрибут читается по упорядоченному списку псевдонимов полей.
//
// Псевдонимы:
//   orderTimestamp | timestamp
//   totalPrice     | total

// DecodeOrder нормализует документ заказа произвольного поколения схемы
func DecodeOrder(id string, doc bson.M) entity.Order {
	order := entity.Order{
		ID:            id,
		UserID:        stringField(doc, "userId"),
		Name:          stringField(doc, "name"),
		Address:       stringField(doc, "address"),
		Mobile:        stringField(doc, "mobile"),
		Status:        entity.OrderStatus(stringField(doc, "status")),
		PaymentMethod: stringField(doc, "paymentMethod"),
		ReceiptNumber: stringField(doc, "receiptNumber"),
		IsRated:       boolField(doc, "isRated"),
		Reviewed:      boolField(doc, "reviewed"),
	}

	if ts, ok := timeField(doc, "orderTimestamp", "timestamp"); ok {
		order.OrderTimestamp = ts
	}

	order.Subtotal, order.DeliveryFee, order.TotalPrice = deriveTotals(doc)

	return order
}

// deriveTotals восстанавливает сумму заказа для всех поколений схемы.
// Если totalPrice записан, недостающие subtotal/deliveryFee выводятся из
// него; если totalPrice отсутствует (старый формат), он складывается из
// имеющихся частей.
func deriveTotals(doc bson.M) (subtotal, deliveryFee, total float64) {
	total, hasTotal := floatField(doc, "totalPrice", "total")
	subtotal, hasSubtotal := floatField(doc, "subtotal")
	deliveryFee, hasFee := floatField(doc, "deliveryFee")

	if hasTotal {
		if !hasFee {
			deliveryFee = defaultDeliveryFee
		}
		if !hasSubtotal {
			subtotal = total - deliveryFee
		}
		return subtotal, deliveryFee, total
	}

	if !hasSubtotal {
		subtotal = 0
	}
	if !hasFee {
		deliveryFee = 0
	}
	return subtotal, deliveryFee, subtotal + deliveryFee
}

func stringField(doc bson.M, keys ...string) string {
	for _, key := range keys {
		if v, ok := doc[key].(string); ok {
			return v
		}
	}
	return ""
}

func boolField(doc bson.M, keys ...string) bool {
	for _, key := range keys {
		if v, ok := doc[key].(bool); ok {
			return v
		}
	}
	return false
}

// floatField читает число независимо от того, каким числовым типом
// его записал клиент
func floatField(doc bson.M, keys ...string) (float64, bool) {
	for _, key := range keys {
		switch v := doc[key].(type) {
		case float64:
			return v, true
		case float32:
			return float64(v), true
		case int32:
			return float64(v), true
		case int64:
			return float64(v), true
		case int:
			return float64(v), true
		}
	}
	return 0, false
}

func timeField(doc bson.M, keys ...string) (time.Time, bool) {
	for _, key := range keys {
		switch v := doc[key].(type) {
		case primitive.DateTime:
			return v.Time(), true
		case time.Time:
			return v, true
		case primitive.Timestamp:
			return time.Unix(int64(v.T), 0), true
		}
	}
	return time.Time{}, false
}
