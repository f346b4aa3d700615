package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestDecodeProductRating_CurrentSchema(t *testing.T) {
	created := time.Date(2024, 7, 1, 10, 0, 0, 0, time.UTC)
	doc := bson.M{
		"productId": "product-1",
		"orderId":   "order-1",
		"userId":    "user-1",
		"userName":  "Ivan",
		"shopId":    "shop-1",
		"rating":    4.5,
		"comment":   "Nice",
		"timestamp": primitive.NewDateTimeFromTime(created),
	}

	rating := DecodeProductRating("rating-1", doc)

	assert.Equal(t, "rating-1", rating.ID)
	assert.Equal(t, "product-1", rating.ProductID)
	assert.Equal(t, 4.5, rating.Rating)
	assert.Equal(t, "Nice", rating.Comment)
	assert.True(t, created.Equal(rating.Timestamp))
}

func TestDecodeProductRating_LegacySchema(t *testing.T) {
	created := time.Date(2022, 3, 15, 9, 0, 0, 0, time.UTC)
	doc := bson.M{
		"menuItemId": "product-9",
		"orderId":    "order-9",
		"userId":     "user-9",
		"rating":     int32(5),
		"feedback":   "Tasty",
		"createdAt":  primitive.NewDateTimeFromTime(created),
	}

	rating := DecodeProductRating("rating-9", doc)

	assert.Equal(t, "product-9", rating.ProductID)
	assert.Equal(t, 5.0, rating.Rating)
	assert.Equal(t, "Tasty", rating.Comment)
	assert.True(t, created.Equal(rating.Timestamp))
}

func TestDecodeProductRating_AliasPriority(t *testing.T) {
	doc := bson.M{
		"productId":  "current-id",
		"menuItemId": "legacy-id",
		"comment":    "current comment",
		"feedback":   "legacy comment",
	}

	rating := DecodeProductRating("rating-1", doc)

	// Современное имя поля имеет приоритет над устаревшим
	assert.Equal(t, "current-id", rating.ProductID)
	assert.Equal(t, "current comment", rating.Comment)
}

func TestDecodeProductRating_EmptyDocument(t *testing.T) {
	rating := DecodeProductRating("rating-1", bson.M{})

	assert.Equal(t, "rating-1", rating.ID)
	assert.Equal(t, 0.0, rating.Rating)
	assert.True(t, rating.Timestamp.IsZero())
}

func TestRatingDocumentID_Deterministic(t *testing.T) {
	first := RatingDocumentID("order-1", "product-1", "user-1")
	second := RatingDocumentID("order-1", "product-1", "user-1")

	assert.Equal(t, first, second)
	assert.NotEmpty(t, first)
}

func TestRatingDocumentID_DistinctTriples(t *testing.T) {
	base := RatingDocumentID("order-1", "product-1", "user-1")

	assert.NotEqual(t, base, RatingDocumentID("order-2", "product-1", "user-1"))
	assert.NotEqual(t, base, RatingDocumentID("order-1", "product-2", "user-1"))
	assert.NotEqual(t, base, RatingDocumentID("order-1", "product-1", "user-2"))
}
