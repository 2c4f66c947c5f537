package models

import "time"

type Order struct {
	ID           string      `gorm:"type:varchar(36);primaryKey" json:"id"`
	ShopID       string      `gorm:"type:varchar(36);not null;index" json:"shopId"`
	TableNumber  int         `gorm:"not null" json:"tableNumber"`
	Status       OrderStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	TotalAmount  float64     `gorm:"column:total;type:decimal(10,2);not null" json:"totalAmount"`
	CustomerName string      `gorm:"type:varchar(100)" json:"customerName,omitempty"`
	Notes        string      `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt    time.Time   `gorm:"not null" json:"createdAt"`
	UpdatedAt    time.Time   `gorm:"not null" json:"updatedAt"`
	Items        []OrderItem `gorm:"foreignKey:OrderID" json:"items"`
}
