// Package realtime keeps customer and admin order views synchronized with
// server-side state. The feed polls the db_changes table for unprocessed
// rows and fans row-level events out to per-shop subscriptions and sinks;
// views reconcile their in-memory mirrors from those events.
package realtime

import (
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/daikochiya/teashop-app/models"
	"github.com/daikochiya/teashop-app/utils"
)

type EventType string

const (
	EventInsert EventType = "insert"
	EventUpdate EventType = "update"
	EventDelete EventType = "delete"
)

// Event is one row-level change to the orders table. New carries the row
// as read after the change (insert/update); Old carries only the id for a
// delete, since the row is gone.
type Event struct {
	Type EventType     `json:"type"`
	New  *models.Order `json:"new,omitempty"`
	Old  *models.Order `json:"old,omitempty"`
}

// OrderID returns the id the event refers to, whichever side carries it.
func (e Event) OrderID() string {
	if e.New != nil {
		return e.New.ID
	}
	if e.Old != nil {
		return e.Old.ID
	}
	return ""
}

// Sink receives every event regardless of subscriptions. The websocket hub
// and the Kafka publisher are sinks.
type Sink interface {
	Deliver(shopID string, ev Event)
}

// Subscription is one shop-scoped event stream. Events for a single order
// are delivered in feed order; Cancel releases the stream and must be
// called when the owning view goes away.
type Subscription struct {
	Events chan Event

	feed   *Feed
	shopID string
	once   sync.Once
}

// Cancel detaches the subscription from the feed. The Events channel is
// left open so a dispatch that already copied the subscriber list cannot
// panic; the drained channel is simply garbage once the view stops reading.
func (s *Subscription) Cancel() {
	s.once.Do(func() {
		s.feed.unsubscribe(s)
	})
}

// Feed polls db_changes on a fixed interval, translates unprocessed rows
// into events, dispatches them, and marks the rows processed in the same
// transaction.
type Feed struct {
	DB       *gorm.DB
	Interval time.Duration

	mu    sync.Mutex
	subs  map[string][]*Subscription
	sinks []Sink

	stopChan chan struct{}
	stopOnce sync.Once
}

func NewFeed(db *gorm.DB) *Feed {
	return &Feed{
		DB:       db,
		Interval: time.Second,
		subs:     make(map[string][]*Subscription),
		stopChan: make(chan struct{}),
	}
}

// AddSink registers a global event sink. Call before Start.
func (f *Feed) AddSink(s Sink) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sinks = append(f.sinks, s)
}

// Subscribe returns a stream of order events for one shop.
func (f *Feed) Subscribe(shopID string) *Subscription {
	sub := &Subscription{
		Events: make(chan Event, 64),
		feed:   f,
		shopID: shopID,
	}
	f.mu.Lock()
	f.subs[shopID] = append(f.subs[shopID], sub)
	f.mu.Unlock()
	return sub
}

func (f *Feed) unsubscribe(sub *Subscription) {
	f.mu.Lock()
	defer f.mu.Unlock()
	subs := f.subs[sub.shopID]
	for i, s := range subs {
		if s == sub {
			f.subs[sub.shopID] = append(subs[:i], subs[i+1:]...)
			break
		}
	}
}

func (f *Feed) Start() {
	go func() {
		ticker := time.NewTicker(f.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				f.Poll()
			case <-f.stopChan:
				return
			}
		}
	}()
}

func (f *Feed) Stop() {
	f.stopOnce.Do(func() {
		close(f.stopChan)
	})
}

// Poll drains unprocessed change rows once. Exposed so tests can drive the
// feed without waiting on the ticker.
func (f *Feed) Poll() {
	var changes []models.DBChange

	tx := f.DB.Begin()
	if err := tx.Where("processed = ? AND table_name = ?", false, "orders").
		Order("changed_at ASC, id ASC").
		Limit(100).
		Find(&changes).Error; err != nil {
		tx.Rollback()
		utils.ErrorLogger.Printf("fetching changes failed: %v", err)
		return
	}

	for _, change := range changes {
		ev, ok := f.eventFor(change)
		if ok {
			f.dispatch(change.ShopID, ev)
		}
		if err := tx.Model(&models.DBChange{}).
			Where("id = ?", change.ID).
			Update("processed", true).Error; err != nil {
			tx.Rollback()
			utils.ErrorLogger.Printf("marking change %d processed failed: %v", change.ID, err)
			return
		}
	}

	if err := tx.Commit().Error; err != nil {
		utils.ErrorLogger.Printf("committing change batch failed: %v", err)
	}
}

// eventFor loads the current row for insert/update changes. Deletes carry
// only the record id. A row that disappeared between the change and the
// poll is dropped; the matching delete change follows it in the feed.
func (f *Feed) eventFor(change models.DBChange) (Event, bool) {
	switch change.ActionType {
	case models.ActionDelete:
		return Event{Type: EventDelete, Old: &models.Order{ID: change.RecordID, ShopID: change.ShopID}}, true
	case models.ActionInsert, models.ActionUpdate:
		var order models.Order
		if err := f.DB.First(&order, "id = ?", change.RecordID).Error; err != nil {
			utils.ErrorLogger.Printf("fetching order %s for change failed: %v", change.RecordID, err)
			return Event{}, false
		}
		if change.ActionType == models.ActionInsert {
			return Event{Type: EventInsert, New: &order}, true
		}
		return Event{Type: EventUpdate, New: &order}, true
	}
	return Event{}, false
}

func (f *Feed) dispatch(shopID string, ev Event) {
	f.mu.Lock()
	subs := append([]*Subscription(nil), f.subs[shopID]...)
	sinks := append([]Sink(nil), f.sinks...)
	f.mu.Unlock()

	for _, sub := range subs {
		select {
		case sub.Events <- ev:
		default:
			utils.ErrorLogger.Printf("dropping event for shop %s: subscriber buffer full", shopID)
		}
	}
	for _, sink := range sinks {
		sink.Deliver(shopID, ev)
	}
}
