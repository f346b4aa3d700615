package service

import (
	"context"
	"errors"
	"fmt"

	"coffeecompanion/orders-service/internal/app/orders/entity"
	"coffeecompanion/orders-service/internal/app/orders/repository"
	"coffeecompanion/pkg/metrics"
)

var (
	ErrInventoryItemNotFound = errors.New("inventory item not found")
)

// InventoryService обрабатывает операции склада и классификацию запасов
type InventoryService struct {
	inventoryRepo repository.InventoryRepository
}

// NewInventoryService создает новый сервис склада
func NewInventoryService(inventoryRepo repository.InventoryRepository) *InventoryService {
	return &InventoryService{inventoryRepo: inventoryRepo}
}

// AddItem добавляет новую позицию склада
func (s *InventoryService) AddItem(ctx context.Context, req *entity.AddInventoryItemRequest) (*entity.InventoryItemResponse, error) {
	item := &entity.InventoryItem{
		ProductName: req.ProductName,
		Quantity:    req.Quantity,
		Price:       req.Price,
		ImageURL:    req.ImageURL,
	}

	if err := s.inventoryRepo.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to add inventory item: %w", err)
	}

	return annotate(*item), nil
}

// ListActive возвращает неархивированные позиции с уровнем запаса.
// Попутно обновляет gauge распределения позиций по уровням.
func (s *InventoryService) ListActive(ctx context.Context) ([]entity.InventoryItemResponse, error) {
	items, err := s.inventoryRepo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list inventory: %w", err)
	}

	counts := map[entity.StockStatus]int{}
	responses := make([]entity.InventoryItemResponse, 0, len(items))
	for _, item := range items {
		resp := annotate(item)
		counts[resp.StockStatus]++
		responses = append(responses, *resp)
	}

	for _, status := range []entity.StockStatus{entity.StockStatusCritical, entity.StockStatusLow, entity.StockStatusNormal} {
		metrics.InventoryStockLevel.WithLabelValues(string(status)).Set(float64(counts[status]))
	}

	return responses, nil
}

// ListLowStock возвращает позиции, требующие пополнения (critical и low).
// Само оповещение о пополнении - забота внешних систем.
func (s *InventoryService) ListLowStock(ctx context.Context) ([]entity.InventoryItemResponse, error) {
	items, err := s.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	lowStock := make([]entity.InventoryItemResponse, 0)
	for _, item := range items {
		if item.StockStatus != entity.StockStatusNormal {
			lowStock = append(lowStock, item)
		}
	}

	return lowStock, nil
}

// AdjustQuantity устанавливает количество позиции
func (s *InventoryService) AdjustQuantity(ctx context.Context, id string, quantity int) (*entity.InventoryItemResponse, error) {
	if err := s.inventoryRepo.UpdateQuantity(ctx, id, quantity); err != nil {
		if errors.Is(err, repository.ErrInventoryItemNotFound) {
			return nil, ErrInventoryItemNotFound
		}
		return nil, fmt.Errorf("failed to adjust quantity: %w", err)
	}

	item, err := s.inventoryRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrInventoryItemNotFound) {
			return nil, ErrInventoryItemNotFound
		}
		return nil, fmt.Errorf("failed to get inventory item: %w", err)
	}

	return annotate(*item), nil
}

// SetArchived помечает позицию архивной или возвращает ее в оборот
func (s *InventoryService) SetArchived(ctx context.Context, id string, archived bool) error {
	if err := s.inventoryRepo.SetArchived(ctx, id, archived); err != nil {
		if errors.Is(err, repository.ErrInventoryItemNotFound) {
			return ErrInventoryItemNotFound
		}
		return fmt.Errorf("failed to change archive flag: %w", err)
	}
	return nil
}

func annotate(item entity.InventoryItem) *entity.InventoryItemResponse {
	return &entity.InventoryItemResponse{
		InventoryItem: item,
		StockStatus:   entity.ClassifyStock(item.Quantity),
	}
}
