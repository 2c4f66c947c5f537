package models

import (
	"database/sql/driver"
	"fmt"
)

// OrderStatus is the canonical in-memory order state. The relational store
// labels the in-progress state "preparing"; that translation lives in the
// Valuer/Scanner pair below and nowhere else.
type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusStarted   OrderStatus = "started"
	StatusReady     OrderStatus = "ready"
	StatusCancelled OrderStatus = "cancelled"
)

// storeLabelPreparing is the store-side synonym for StatusStarted.
const storeLabelPreparing = "preparing"

// NormalizeStatus maps an incoming label (API or store) to its canonical
// status. "preparing" and "started" collapse to StatusStarted.
func NormalizeStatus(label string) (OrderStatus, bool) {
	switch label {
	case string(StatusPending):
		return StatusPending, true
	case string(StatusStarted), storeLabelPreparing:
		return StatusStarted, true
	case string(StatusReady):
		return StatusReady, true
	case string(StatusCancelled):
		return StatusCancelled, true
	}
	return "", false
}

// StoreLabel returns the label written to the orders table.
func (s OrderStatus) StoreLabel() string {
	if s == StatusStarted {
		return storeLabelPreparing
	}
	return string(s)
}

// IsTerminal reports whether no further transitions are accepted.
func (s OrderStatus) IsTerminal() bool {
	return s == StatusReady || s == StatusCancelled
}

// CanTransitionTo validates the workflow:
// pending -> started -> ready, or pending -> cancelled.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	switch s {
	case StatusPending:
		return next == StatusStarted || next == StatusCancelled
	case StatusStarted:
		return next == StatusReady
	}
	return false
}

// Value implements driver.Valuer so the store always sees "preparing".
func (s OrderStatus) Value() (driver.Value, error) {
	return s.StoreLabel(), nil
}

// Scan implements sql.Scanner and re-canonicalizes on the way in.
func (s *OrderStatus) Scan(value interface{}) error {
	var label string
	switch v := value.(type) {
	case string:
		label = v
	case []byte:
		label = string(v)
	default:
		return fmt.Errorf("unsupported status type %T", value)
	}
	normalized, ok := NormalizeStatus(label)
	if !ok {
		return fmt.Errorf("unknown order status %q", label)
	}
	*s = normalized
	return nil
}
