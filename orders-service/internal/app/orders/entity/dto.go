package entity

import "time"

type UpdateOrderStatusRequest struct {
	Status OrderStatus `json:"status" validate:"required,oneof=pending preparing confirmed out_for_delivery delivered completed cancelled"`
}

type AddInventoryItemRequest struct {
	ProductName string  `json:"product_name" validate:"required,min=1,max=200"`
	Quantity    int     `json:"quantity" validate:"gte=0"`
	Price       float64 `json:"price" validate:"gt=0"`
	ImageURL    string  `json:"image_url" validate:"omitempty,url"`
}

type AdjustQuantityRequest struct {
	Quantity int `json:"quantity" validate:"gte=0"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

type OrderResponse struct {
	Order
	Display     StatusDisplay `json:"display"`
	CancelState CancelState   `json:"cancel_state"`
	Items       []OrderItem   `json:"items,omitempty"`
}

type OrderListResponse struct {
	Orders []OrderResponse `json:"orders"`
	Total  int             `json:"total"`
}

// OrderSnapshot - один кадр живой ленты деталей заказа.
// Производные поля пересчитываются на каждом уведомлении и каждом тике,
// сам снимок неизменяем.
type OrderSnapshot struct {
	Order       Order         `json:"order"`
	Display     StatusDisplay `json:"display"`
	CancelState CancelState   `json:"cancel_state"`
	ObservedAt  time.Time     `json:"observed_at"`
}

type InventoryItemResponse struct {
	InventoryItem
	StockStatus StockStatus `json:"stock_status"`
}

type InventoryListResponse struct {
	Items []InventoryItemResponse `json:"items"`
	Total int                     `json:"total"`
}
