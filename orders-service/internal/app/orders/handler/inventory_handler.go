package handler

import (
	"context"
	"errors"
	"net/http"

	"coffeecompanion/orders-service/internal/app/orders/entity"
	"coffeecompanion/orders-service/internal/app/orders/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type InventoryServiceInterface interface {
	AddItem(ctx context.Context, req *entity.AddInventoryItemRequest) (*entity.InventoryItemResponse, error)
	ListActive(ctx context.Context) ([]entity.InventoryItemResponse, error)
	ListLowStock(ctx context.Context) ([]entity.InventoryItemResponse, error)
	AdjustQuantity(ctx context.Context, id string, quantity int) (*entity.InventoryItemResponse, error)
	SetArchived(ctx context.Context, id string, archived bool) error
}

type InventoryHandler struct {
	inventoryService InventoryServiceInterface
	validator        *validator.Validate
}

func NewInventoryHandler(inventoryService InventoryServiceInterface) *InventoryHandler {
	return &InventoryHandler{
		inventoryService: inventoryService,
		validator:        validator.New(),
	}
}

// ListInventory возвращает активные позиции склада с уровнем запаса
func (h *InventoryHandler) ListInventory(c *gin.Context) {
	items, err := h.inventoryService.ListActive(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load inventory"})
		return
	}

	c.JSON(http.StatusOK, entity.InventoryListResponse{Items: items, Total: len(items)})
}

// ListLowStock возвращает позиции с уровнем critical или low
func (h *InventoryHandler) ListLowStock(c *gin.Context) {
	items, err := h.inventoryService.ListLowStock(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load inventory"})
		return
	}

	c.JSON(http.StatusOK, entity.InventoryListResponse{Items: items, Total: len(items)})
}

// AddItem добавляет позицию склада
func (h *InventoryHandler) AddItem(c *gin.Context) {
	var req entity.AddInventoryItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if err := h.validator.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": formatValidationError(err)})
		return
	}

	item, err := h.inventoryService.AddItem(c.Request.Context(), &req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add inventory item"})
		return
	}

	c.JSON(http.StatusCreated, item)
}

// AdjustQuantity устанавливает количество позиции
func (h *InventoryHandler) AdjustQuantity(c *gin.Context) {
	id := c.Param("item_id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Item ID is required"})
		return
	}

	var req entity.AdjustQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if err := h.validator.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": formatValidationError(err)})
		return
	}

	item, err := h.inventoryService.AdjustQuantity(c.Request.Context(), id, req.Quantity)
	if err != nil {
		if errors.Is(err, service.ErrInventoryItemNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Inventory item not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to adjust quantity"})
		return
	}

	c.JSON(http.StatusOK, item)
}

// Archive помечает позицию архивной
func (h *InventoryHandler) Archive(c *gin.Context) {
	h.setArchived(c, true)
}

// Unarchive возвращает позицию из архива
func (h *InventoryHandler) Unarchive(c *gin.Context) {
	h.setArchived(c, false)
}

func (h *InventoryHandler) setArchived(c *gin.Context, archived bool) {
	id := c.Param("item_id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Item ID is required"})
		return
	}

	if err := h.inventoryService.SetArchived(c.Request.Context(), id, archived); err != nil {
		if errors.Is(err, service.ErrInventoryItemNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Inventory item not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update inventory item"})
		return
	}

	c.JSON(http.StatusOK, entity.SuccessResponse{Message: "Inventory item updated"})
}
