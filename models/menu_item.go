package models

import "time"

// Menu item categories.
const (
	CategoryTea    = "tea"
	CategorySnacks = "snacks"
	CategoryExtra  = "extra"
)

// ValidCategory reports whether c is one of the known menu categories.
func ValidCategory(c string) bool {
	return c == CategoryTea || c == CategorySnacks || c == CategoryExtra
}

type MenuItem struct {
	ID              string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	ShopID          string    `gorm:"type:varchar(36);not null;index" json:"shopId"`
	Name            string    `gorm:"type:varchar(255);not null" json:"name"`
	Description     string    `gorm:"type:text" json:"description"`
	Price           float64   `gorm:"type:decimal(10,2);not null" json:"price"`
	Category        string    `gorm:"type:varchar(20);not null" json:"category"`
	ImageURL        *string   `gorm:"column:image;type:varchar(255)" json:"image,omitempty"`
	Discount        *int      `json:"discount,omitempty"`
	IsBestSeller    bool      `gorm:"not null;default:false" json:"isBestSeller"`
	IsTodaysSpecial bool      `gorm:"not null;default:false" json:"isTodaysSpecial"`
	IsAvailable     bool      `gorm:"not null;default:true" json:"isAvailable"`
	CreatedAt       time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt       time.Time `gorm:"not null" json:"updatedAt"`
}

// EffectivePrice applies the promotional discount, if any.
func (m *MenuItem) EffectivePrice() float64 {
	if m.Discount != nil && *m.Discount > 0 {
		return m.Price * (1 - float64(*m.Discount)/100)
	}
	return m.Price
}
