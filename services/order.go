package services

import (
	"context"
	"fmt"

	"github.com/tiannys/buffet-restaurant/models"
	"gorm.io/gorm"
)

// orderTransitions lists the statuses an order may move to.
var orderTransitions = map[string][]string{
	models.OrderPending:    {models.OrderAccepted, models.OrderCancelled},
	models.OrderAccepted:   {models.OrderInProgress, models.OrderCancelled},
	models.OrderInProgress: {models.OrderServed, models.OrderCancelled},
}

// OrderLine is one requested menu item.
type OrderLine struct {
	MenuID   uint   `json:"menu_id" binding:"required"`
	Quantity int    `json:"quantity" binding:"required"`
	Notes    string `json:"notes"`
}

// PlaceOrderInput is a customer or staff order for a session.
type PlaceOrderInput struct {
	Items     []OrderLine `json:"items" binding:"required"`
	Notes     string      `json:"notes"`
	CreatedBy *uint       `json:"-"`
}

type OrderService struct {
	db       *gorm.DB
	resolver MenuResolver
	notifier Notifier
}

func NewOrderService(db *gorm.DB, resolver MenuResolver, notifier Notifier) *OrderService {
	return &OrderService{db: db, resolver: resolver, notifier: notifier}
}

// PlaceOrder accepts an order only when the session is active, every item is
// in the package catalog and stock can be reserved for every line.
func (s *OrderService) PlaceOrder(ctx context.Context, sessionID string, in PlaceOrderInput) (*models.Order, error) {
	if len(in.Items) == 0 {
		return nil, validationf("order has no items")
	}
	for _, line := range in.Items {
		if line.Quantity <= 0 {
			return nil, validationf("quantity for menu %d must be positive", line.MenuID)
		}
	}

	var session models.Session
	if err := s.db.WithContext(ctx).First(&session, "id = ?", sessionID).Error; err != nil {
		return nil, notFound(err, "session", sessionID)
	}
	if session.Status != models.SessionActive {
		return nil, ErrSessionNotActive
	}

	entitled, err := s.resolver.ResolveMenuIDs(ctx, session.PackageID)
	if err != nil {
		return nil, err
	}
	allowed := make(map[uint]bool, len(entitled))
	for _, id := range entitled {
		allowed[id] = true
	}
	for _, line := range in.Items {
		if !allowed[line.MenuID] {
			return nil, validationf("menu %d is not included in this package", line.MenuID)
		}
	}

	order := models.Order{
		SessionID: sessionID,
		Status:    models.OrderPending,
		Notes:     in.Notes,
		CreatedBy: in.CreatedBy,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current models.Session
		if err := tx.Select("id", "status").First(&current, "id = ?", sessionID).Error; err != nil {
			return notFound(err, "session", sessionID)
		}
		if current.Status != models.SessionActive {
			return ErrSessionNotActive
		}

		for _, line := range in.Items {
			if err := reserveStock(tx, line.MenuID, line.Quantity); err != nil {
				return err
			}
		}

		if err := tx.Create(&order).Error; err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}
		for _, line := range in.Items {
			item := models.OrderItem{
				OrderID:  order.ID,
				MenuID:   line.MenuID,
				Quantity: line.Quantity,
				Notes:    line.Notes,
			}
			if err := tx.Create(&item).Error; err != nil {
				return fmt.Errorf("failed to create order item: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	full, err := s.Get(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	publish(ctx, s.notifier, Event{Type: EventOrderPlaced, SessionID: sessionID, TableID: session.TableID, Data: full})
	return full, nil
}

// Get returns an order with its items and menus.
func (s *OrderService) Get(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	if err := s.db.WithContext(ctx).Preload("OrderItems.Menu").First(&order, id).Error; err != nil {
		return nil, notFound(err, "order", id)
	}
	return &order, nil
}

// UpdateStatus moves an order along pending, accepted, in_progress, served.
// Any unserved order can be cancelled.
func (s *OrderService) UpdateStatus(ctx context.Context, id uint, status string) (*models.Order, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.First(&order, id).Error; err != nil {
			return notFound(err, "order", id)
		}
		if !canMoveOrder(order.Status, status) {
			return fmt.Errorf("%w: order %d cannot go from %s to %s", ErrInvalidState, id, order.Status, status)
		}
		res := tx.Model(&models.Order{}).Where("id = ? AND status = ?", id, order.Status).Update("status", status)
		if res.Error != nil {
			return fmt.Errorf("failed to update order status: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: order %d changed concurrently", ErrInvalidState, id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	order, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	publish(ctx, s.notifier, Event{Type: EventOrderUpdated, SessionID: order.SessionID, Data: order})
	return order, nil
}

func canMoveOrder(from, to string) bool {
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// RecordWaste sets the wasted quantity of an order item. Waste cannot exceed
// the ordered quantity.
func (s *OrderService) RecordWaste(ctx context.Context, itemID uint, quantity int, reason string) (*models.OrderItem, error) {
	if quantity < 0 {
		return nil, validationf("waste quantity must not be negative")
	}

	var item models.OrderItem
	if err := s.db.WithContext(ctx).First(&item, itemID).Error; err != nil {
		return nil, notFound(err, "order item", itemID)
	}
	if quantity > item.Quantity {
		return nil, validationf("waste quantity %d exceeds ordered quantity %d", quantity, item.Quantity)
	}

	if err := s.db.WithContext(ctx).Model(&item).Updates(map[string]interface{}{
		"waste_quantity": quantity,
		"waste_reason":   reason,
	}).Error; err != nil {
		return nil, fmt.Errorf("failed to record waste: %w", err)
	}
	item.WasteQuantity = quantity
	item.WasteReason = reason
	return &item, nil
}
