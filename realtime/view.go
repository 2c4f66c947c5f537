package realtime

import (
	"sync"

	"gorm.io/gorm"

	"github.com/daikochiya/teashop-app/models"
	"github.com/daikochiya/teashop-app/utils"
)

// Notifier signals a new-order alert. It fires at most once per insert
// event, and only when the shop's sound alerts are enabled at event time.
type Notifier interface {
	NewOrder(order models.Order)
}

// SettingsFunc returns the shop's current settings. The view calls it when
// an event arrives instead of capturing preferences at subscription time,
// so a settings change takes effect without re-subscribing.
type SettingsFunc func() models.Shop

// ShopView mirrors server-side order state for one shop: the admin's full
// order list (most recent first) and the customer's single tracked order.
// Events are applied strictly in delivery order.
type ShopView struct {
	db       *gorm.DB
	shopID   string
	settings SettingsFunc
	notifier Notifier

	mu      sync.Mutex
	orders  []models.Order
	tracked *models.Order

	sub  *Subscription
	done chan struct{}
}

func NewShopView(db *gorm.DB, shopID string, settings SettingsFunc, notifier Notifier) *ShopView {
	return &ShopView{
		db:       db,
		shopID:   shopID,
		settings: settings,
		notifier: notifier,
		done:     make(chan struct{}),
	}
}

// Start establishes the baseline from a full fetch, then subscribes to the
// feed and applies incremental events until Stop. The baseline must be in
// place before incremental events are trusted.
func (v *ShopView) Start(feed *Feed) error {
	var orders []models.Order
	if err := v.db.Preload("Items").
		Where("shop_id = ?", v.shopID).
		Order("created_at DESC").
		Find(&orders).Error; err != nil {
		return err
	}

	v.mu.Lock()
	v.orders = orders
	v.mu.Unlock()

	v.sub = feed.Subscribe(v.shopID)
	go v.loop()
	return nil
}

// Stop tears the subscription down. Events already in flight for a
// superseded shop context are never applied after Stop returns the loop.
func (v *ShopView) Stop() {
	if v.sub != nil {
		v.sub.Cancel()
	}
	close(v.done)
}

func (v *ShopView) loop() {
	for {
		select {
		case ev := <-v.sub.Events:
			v.Apply(ev)
		case <-v.done:
			return
		}
	}
}

// Apply merges one event into both views. Exported so tests can drive the
// view deterministically.
func (v *ShopView) Apply(ev Event) {
	switch ev.Type {
	case EventInsert:
		v.applyInsert(ev)
	case EventUpdate:
		v.applyUpdate(ev)
	case EventDelete:
		v.applyDelete(ev)
	}
}

// applyInsert resolves the item snapshots via a secondary lookup, merges
// the full order by id (guarding against duplicate delivery) and prepends
// it as most recent.
func (v *ShopView) applyInsert(ev Event) {
	if ev.New == nil {
		return
	}
	order := *ev.New
	if len(order.Items) == 0 {
		if err := v.db.Where("order_id = ?", order.ID).Find(&order.Items).Error; err != nil {
			utils.ErrorLogger.Printf("fetching items for order %s failed: %v", order.ID, err)
			return
		}
	}

	v.mu.Lock()
	kept := make([]models.Order, 0, len(v.orders)+1)
	kept = append(kept, order)
	for _, o := range v.orders {
		if o.ID != order.ID {
			kept = append(kept, o)
		}
	}
	v.orders = kept
	v.mu.Unlock()

	if v.notifier != nil && v.settings != nil && v.settings().SoundAlerts {
		v.notifier.NewOrder(order)
	}
}

// applyUpdate applies only the fields the event carries (status and
// updatedAt) to the matching list entry, and to the tracked order when it
// shares the id. Unmatched ids are ignored.
func (v *ShopView) applyUpdate(ev Event) {
	if ev.New == nil {
		return
	}
	v.mu.Lock()
	defer v.mu.Unlock()

	for i := range v.orders {
		if v.orders[i].ID == ev.New.ID {
			v.orders[i].Status = ev.New.Status
			v.orders[i].UpdatedAt = ev.New.UpdatedAt
			break
		}
	}
	if v.tracked != nil && v.tracked.ID == ev.New.ID {
		v.tracked.Status = ev.New.Status
		v.tracked.UpdatedAt = ev.New.UpdatedAt
	}
}

// applyDelete removes the entry from the admin list. The tracked order is
// deliberately left at its last-known state so the customer keeps context
// instead of losing the status display.
func (v *ShopView) applyDelete(ev Event) {
	if ev.Old == nil {
		return
	}
	v.mu.Lock()
	defer v.mu.Unlock()

	for i := range v.orders {
		if v.orders[i].ID == ev.Old.ID {
			v.orders = append(v.orders[:i], v.orders[i+1:]...)
			break
		}
	}
}

// Track sets the customer's current order. A copy is kept so partial
// updates never mutate the caller's value.
func (v *ShopView) Track(order models.Order) {
	v.mu.Lock()
	defer v.mu.Unlock()
	tracked := order
	v.tracked = &tracked
}

// Tracked returns a copy of the customer's current order, or nil.
func (v *ShopView) Tracked() *models.Order {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.tracked == nil {
		return nil
	}
	tracked := *v.tracked
	return &tracked
}

// Orders returns a copy of the admin list, most recent first.
func (v *ShopView) Orders() []models.Order {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]models.Order, len(v.orders))
	copy(out, v.orders)
	return out
}
