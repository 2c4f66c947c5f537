// Package engine is the authority over the order lifecycle: it converts a
// cart snapshot into a persisted order with frozen item snapshots, and it
// validates and applies status transitions.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/daikochiya/teashop-app/cart"
	"github.com/daikochiya/teashop-app/models"
	"github.com/daikochiya/teashop-app/utils"
)

var (
	ErrEmptyCart         = errors.New("cart is empty")
	ErrShopNotResolved   = errors.New("shop context is not resolved")
	ErrShopClosed        = errors.New("shop is currently closed")
	ErrTableOutOfRange   = errors.New("table number is out of range for this shop")
	ErrOrderNotFound     = errors.New("order not found")
	ErrUnknownStatus     = errors.New("unknown order status")
	ErrInvalidTransition = errors.New("invalid status transition")
)

type Engine struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Engine {
	return &Engine{db: db}
}

// CheckoutDetails carries the optional fields a customer can attach.
type CheckoutDetails struct {
	CustomerName string
	Notes        string
}

// CreateOrder converts the cart lines into a persisted order. The order
// header, its item snapshots and the change-feed row are written in one
// transaction, so a failed snapshot insert never leaves a phantom order.
// The caller clears the cart and sets the tracked order only on success.
func (e *Engine) CreateOrder(ctx context.Context, shop *models.Shop, tableNumber int, lines []cart.Line, details CheckoutDetails) (*models.Order, error) {
	if shop == nil {
		return nil, ErrShopNotResolved
	}
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}
	if !shop.IsOpen {
		return nil, ErrShopClosed
	}
	if tableNumber < 1 || tableNumber > shop.NumberOfTables {
		return nil, fmt.Errorf("%w: got %d, shop has %d tables", ErrTableOutOfRange, tableNumber, shop.NumberOfTables)
	}

	now := time.Now()
	order := models.Order{
		ID:           uuid.NewString(),
		ShopID:       shop.ID,
		TableNumber:  tableNumber,
		Status:       models.StatusPending,
		CustomerName: details.CustomerName,
		Notes:        details.Notes,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	for _, line := range lines {
		item := models.OrderItem{
			ID:         uuid.NewString(),
			OrderID:    order.ID,
			MenuItemID: line.Item.ID,
			Name:       line.Item.Name,
			Price:      line.Item.EffectivePrice(),
			Quantity:   line.Quantity,
			CreatedAt:  now,
		}
		order.TotalAmount += item.Price * float64(item.Quantity)
		order.Items = append(order.Items, item)
	}

	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&order).Error; err != nil {
			return err
		}
		return tx.Create(&models.DBChange{
			ShopID:     shop.ID,
			TableName:  "orders",
			RecordID:   order.ID,
			ActionType: models.ActionInsert,
			ChangedAt:  now,
		}).Error
	})
	if err != nil {
		utils.ErrorLogger.Printf("create order for shop %s failed: %v", shop.ID, err)
		return nil, err
	}
	return &order, nil
}

// AdvanceStatus moves an order along pending -> started -> ready, or
// pending -> cancelled. The label is normalized before validation and
// before the store write; re-issuing the current status is a harmless
// no-op. Transitions out of a terminal state are rejected.
func (e *Engine) AdvanceStatus(ctx context.Context, orderID, targetLabel string) (*models.Order, error) {
	target, ok := models.NormalizeStatus(targetLabel)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStatus, targetLabel)
	}

	var order models.Order
	if err := e.db.WithContext(ctx).Preload("Items").First(&order, "id = ?", orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	if order.Status == target {
		return &order, nil
	}
	if !order.Status.CanTransitionTo(target) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, order.Status, target)
	}

	now := time.Now()
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Order{}).Where("id = ?", orderID).Updates(map[string]interface{}{
			"status":     target,
			"updated_at": now,
		})
		if res.Error != nil {
			return res.Error
		}
		return tx.Create(&models.DBChange{
			ShopID:     order.ShopID,
			TableName:  "orders",
			RecordID:   order.ID,
			ActionType: models.ActionUpdate,
			ChangedAt:  now,
		}).Error
	})
	if err != nil {
		utils.ErrorLogger.Printf("advance order %s to %s failed: %v", orderID, target, err)
		return nil, err
	}

	order.Status = target
	order.UpdatedAt = now
	return &order, nil
}

// TotalFor recomputes the sum of item snapshots. The persisted TotalAmount
// must always equal this value.
func TotalFor(order *models.Order) float64 {
	var sum float64
	for _, item := range order.Items {
		sum += item.Price * float64(item.Quantity)
	}
	return sum
}
