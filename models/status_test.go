package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeStatusTreatsPreparingAsStarted(t *testing.T) {
	fromStarted, ok := NormalizeStatus("started")
	assert.True(t, ok)
	fromPreparing, ok := NormalizeStatus("preparing")
	assert.True(t, ok)

	assert.Equal(t, StatusStarted, fromStarted)
	assert.Equal(t, fromStarted, fromPreparing)
}

func TestNormalizeStatusRejectsUnknownLabel(t *testing.T) {
	_, ok := NormalizeStatus("delivered")
	assert.False(t, ok)
}

func TestStoreLabelTranslation(t *testing.T) {
	assert.Equal(t, "preparing", StatusStarted.StoreLabel())
	assert.Equal(t, "pending", StatusPending.StoreLabel())
	assert.Equal(t, "ready", StatusReady.StoreLabel())
	assert.Equal(t, "cancelled", StatusCancelled.StoreLabel())
}

func TestScanCanonicalizes(t *testing.T) {
	var s OrderStatus
	assert.NoError(t, s.Scan("preparing"))
	assert.Equal(t, StatusStarted, s)

	assert.NoError(t, s.Scan([]byte("ready")))
	assert.Equal(t, StatusReady, s)

	assert.Error(t, s.Scan("bogus"))
}

func TestTransitionTable(t *testing.T) {
	assert.True(t, StatusPending.CanTransitionTo(StatusStarted))
	assert.True(t, StatusPending.CanTransitionTo(StatusCancelled))
	assert.True(t, StatusStarted.CanTransitionTo(StatusReady))

	assert.False(t, StatusPending.CanTransitionTo(StatusReady))
	assert.False(t, StatusStarted.CanTransitionTo(StatusCancelled))
	assert.False(t, StatusStarted.CanTransitionTo(StatusPending))

	// Terminal states accept nothing.
	for _, next := range []OrderStatus{StatusPending, StatusStarted, StatusReady, StatusCancelled} {
		assert.False(t, StatusReady.CanTransitionTo(next))
		assert.False(t, StatusCancelled.CanTransitionTo(next))
	}

	assert.True(t, StatusReady.IsTerminal())
	assert.True(t, StatusCancelled.IsTerminal())
	assert.False(t, StatusPending.IsTerminal())
	assert.False(t, StatusStarted.IsTerminal())
}
