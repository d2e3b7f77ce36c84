package services

import (
	"context"
	"fmt"

	"github.com/tiannys/buffet-restaurant/models"
	"gorm.io/gorm"
)

// StockService reserves tracked inventory. Untracked menus (nil stock) are
// always available.
type StockService struct {
	db *gorm.DB
}

func NewStockService(db *gorm.DB) *StockService {
	return &StockService{db: db}
}

// Reserve takes quantity units of a menu in its own transaction.
func (s *StockService) Reserve(ctx context.Context, menuID uint, quantity int) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return reserveStock(tx, menuID, quantity)
	})
}

// reserveStock decrements stock inside tx. The decrement is a single
// conditional UPDATE so two reservations for the last unit cannot both win.
func reserveStock(tx *gorm.DB, menuID uint, quantity int) error {
	if quantity <= 0 {
		return validationf("quantity must be positive, got %d", quantity)
	}

	var menu models.Menu
	if err := tx.First(&menu, menuID).Error; err != nil {
		return notFound(err, "menu", menuID)
	}
	if menu.IsOutOfStock {
		return fmt.Errorf("%w: %s", ErrOutOfStock, menu.Name)
	}
	if !menu.IsTracked() {
		return nil
	}

	res := tx.Model(&models.Menu{}).
		Where("id = ? AND stock_quantity >= ? AND is_out_of_stock = ?", menuID, quantity, false).
		Update("stock_quantity", gorm.Expr("stock_quantity - ?", quantity))
	if res.Error != nil {
		return fmt.Errorf("failed to decrement stock: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		var current models.Menu
		if err := tx.First(&current, menuID).Error; err != nil {
			return notFound(err, "menu", menuID)
		}
		if current.IsOutOfStock {
			return fmt.Errorf("%w: %s", ErrOutOfStock, current.Name)
		}
		available := 0
		if current.StockQuantity != nil {
			available = *current.StockQuantity
		}
		return &StockError{MenuID: menuID, MenuName: current.Name, Requested: quantity, Available: available}
	}

	if err := tx.Model(&models.Menu{}).
		Where("id = ? AND stock_quantity = ?", menuID, 0).
		Update("is_out_of_stock", true).Error; err != nil {
		return fmt.Errorf("failed to flag out of stock: %w", err)
	}
	return nil
}

// Restock adds units to a tracked menu and clears the out-of-stock flag.
func (s *StockService) Restock(ctx context.Context, menuID uint, quantity int) error {
	if quantity <= 0 {
		return validationf("restock quantity must be positive, got %d", quantity)
	}
	res := s.db.WithContext(ctx).Model(&models.Menu{}).
		Where("id = ? AND stock_quantity IS NOT NULL", menuID).
		Updates(map[string]interface{}{
			"stock_quantity":  gorm.Expr("stock_quantity + ?", quantity),
			"is_out_of_stock": false,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to restock menu: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: tracked menu %d", ErrNotFound, menuID)
	}
	return nil
}

// LowStock lists tracked menus at or below their low stock threshold.
func (s *StockService) LowStock(ctx context.Context) ([]models.Menu, error) {
	menus := []models.Menu{}
	err := s.db.WithContext(ctx).
		Where("stock_quantity IS NOT NULL AND stock_quantity <= low_stock_threshold").
		Order("stock_quantity ASC").
		Find(&menus).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query low stock: %w", err)
	}
	return menus, nil
}
