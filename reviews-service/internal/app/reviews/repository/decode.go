package repository

import (
	"time"

	"coffeecompanion/reviews-service/internal/app/reviews/entity"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Оценки живут в двух коллекциях разных поколений, и устаревшая reviews
// использует собственные имена полей. Каждый логический атрибут читается
// по упорядоченному списку псевдонимов:
//
//	productId | menuItemId
//	comment   | feedback
//	timestamp | createdAt

// DecodeProductRating нормализует документ оценки любого поколения схемы
func DecodeProductRating(id string, doc bson.M) entity.ProductRating {
	rating := entity.ProductRating{
		ID:        id,
		ProductID: stringField(doc, "productId", "menuItemId"),
		OrderID:   stringField(doc, "orderId"),
		UserID:    stringField(doc, "userId"),
		UserName:  stringField(doc, "userName"),
		ShopID:    stringField(doc, "shopId"),
		Comment:   stringField(doc, "comment", "feedback"),
	}

	if v, ok := floatField(doc, "rating"); ok {
		rating.Rating = v
	}

	if ts, ok := timeField(doc, "timestamp", "createdAt"); ok {
		rating.Timestamp = ts
	}

	return rating
}

func documentID(doc bson.M) string {
	switch v := doc["_id"].(type) {
	case string:
		return v
	case primitive.ObjectID:
		return v.Hex()
	}
	return ""
}

func stringField(doc bson.M, keys ...string) string {
	for _, key := range keys {
		if v, ok := doc[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

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
