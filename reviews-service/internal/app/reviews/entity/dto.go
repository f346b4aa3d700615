package entity

import "time"

// ItemRating - оценка одной позиции заказа в запросе отзыва.
// Позиции с нулевой оценкой не считаются оцененными и молча пропускаются.
type ItemRating struct {
	ProductID string  `json:"product_id" validate:"required"`
	ShopID    string  `json:"shop_id"`
	Rating    float64 `json:"rating" validate:"gte=0,lte=5"`
	Comment   string  `json:"comment"`
}

// SubmitReviewRequest - отзыв на заказ целиком плюс пооценочные позиции
type SubmitReviewRequest struct {
	OrderID string       `json:"order_id" validate:"required"`
	Rating  float64      `json:"rating" validate:"required,gt=0,lte=5"`
	Comment string       `json:"comment" validate:"required,min=1"`
	Items   []ItemRating `json:"items" validate:"dive"`
}

// EligibilityResponse - ответ проверки права на отзыв
type EligibilityResponse struct {
	OrderID  string `json:"order_id"`
	Receipt  string `json:"receipt"`
	Eligible bool   `json:"eligible"`
	Reason   string `json:"reason,omitempty"`
}

// SubmitReviewResponse возвращается после успешной фиксации отзыва
type SubmitReviewResponse struct {
	OrderID       string   `json:"order_id"`
	RatedProducts []string `json:"rated_products"`
	SubmittedAt   time.Time `json:"submitted_at"`
}

// ProductReviewsResponse - нормализованный список оценок товара
type ProductReviewsResponse struct {
	ProductID string          `json:"product_id"`
	Reviews   []ProductRating `json:"reviews"`
	Total     int             `json:"total"`
}

// RatingSummaryResponse - сводка рейтинга товара для чтения
type RatingSummaryResponse struct {
	ProductID     string    `json:"product_id"`
	AverageRating float64   `json:"average_rating"`
	RatingCount   int64     `json:"rating_count"`
	LastUpdated   time.Time `json:"last_updated"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
