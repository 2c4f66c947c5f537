package models

import "time"

// OrderItem is a frozen snapshot of a menu item at order-creation time.
// Name and price are copied, not referenced, so later catalog edits never
// retroactively alter a historical order.
type OrderItem struct {
	ID         string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	OrderID    string    `gorm:"type:varchar(36);not null;index" json:"orderId"`
	MenuItemID string    `gorm:"type:varchar(36);not null" json:"menuItemId"`
	Name       string    `gorm:"type:varchar(255);not null" json:"name"`
	Price      float64   `gorm:"type:decimal(10,2);not null" json:"price"`
	Quantity   int       `gorm:"not null" json:"quantity"`
	CreatedAt  time.Time `gorm:"not null" json:"createdAt"`
}
