package models

import "time"

// Change action types recorded in db_changes.
const (
	ActionInsert = "INSERT"
	ActionUpdate = "UPDATE"
	ActionDelete = "DELETE"
)

// DBChange is one row of the change-notification feed. Writers append a row
// in the same transaction as the mutation it describes; the realtime feed
// polls unprocessed rows in changed_at order and marks them processed.
type DBChange struct {
	ID         uint      `gorm:"primaryKey"`
	ShopID     string    `gorm:"type:varchar(36);not null;index:idx_shop_processed"`
	TableName  string    `gorm:"type:varchar(50);not null"`
	RecordID   string    `gorm:"type:varchar(36);not null"`
	ActionType string    `gorm:"type:varchar(10);not null"`
	ChangedAt  time.Time `gorm:"not null"`
	Processed  bool      `gorm:"not null;default:false;index:idx_shop_processed"`
}
