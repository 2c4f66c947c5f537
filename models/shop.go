package models

import "time"

type Shop struct {
	ID                   string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Slug                 string    `gorm:"type:varchar(100);not null;uniqueIndex" json:"slug"`
	Name                 string    `gorm:"type:varchar(255);not null" json:"name"`
	Description          string    `gorm:"type:text" json:"description"`
	LogoURL              *string   `gorm:"column:logo_url;type:varchar(255)" json:"logoUrl,omitempty"`
	NumberOfTables       int       `gorm:"not null;default:10" json:"numberOfTables"`
	IsOpen               bool      `gorm:"not null;default:true" json:"isOpen"`
	SoundAlerts          bool      `gorm:"not null;default:true" json:"soundAlerts"`
	BrowserNotifications bool      `gorm:"not null;default:false" json:"browserNotifications"`
	CreatedAt            time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt            time.Time `gorm:"not null" json:"updatedAt"`
}
