package realtime

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/daikochiya/teashop-app/cart"
	"github.com/daikochiya/teashop-app/engine"
	"github.com/daikochiya/teashop-app/models"
	"github.com/daikochiya/teashop-app/utils"
)

func TestMain(m *testing.M) {
	utils.InitLogger()
	os.Exit(m.Run())
}

func setupTestDB(t *testing.T) *gorm.DB {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	if err := db.AutoMigrate(&models.Shop{}, &models.MenuItem{}, &models.Order{}, &models.OrderItem{}, &models.DBChange{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

func seedShop(t *testing.T, db *gorm.DB, soundAlerts bool) *models.Shop {
	shop := &models.Shop{
		ID:             uuid.NewString(),
		Slug:           "dai-ko-chiya",
		Name:           "Dai Ko Chiya",
		NumberOfTables: 10,
		IsOpen:         true,
		SoundAlerts:    soundAlerts,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}
	if err := db.Create(shop).Error; err != nil {
		t.Fatalf("failed to seed shop: %v", err)
	}
	return shop
}

func seedOrder(t *testing.T, db *gorm.DB, shopID string, status models.OrderStatus) *models.Order {
	now := time.Now()
	order := &models.Order{
		ID:          uuid.NewString(),
		ShopID:      shopID,
		TableNumber: 1,
		Status:      status,
		TotalAmount: 40,
		CreatedAt:   now,
		UpdatedAt:   now,
		Items: []models.OrderItem{{
			ID:         uuid.NewString(),
			MenuItemID: uuid.NewString(),
			Name:       "Masala Tea",
			Price:      40,
			Quantity:   1,
			CreatedAt:  now,
		}},
	}
	order.Items[0].OrderID = order.ID
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("failed to seed order: %v", err)
	}
	return order
}

type recordingNotifier struct {
	mu     sync.Mutex
	orders []models.Order
}

func (n *recordingNotifier) NewOrder(order models.Order) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.orders = append(n.orders, order)
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.orders)
}

func settingsFor(db *gorm.DB, shopID string) SettingsFunc {
	return func() models.Shop {
		var shop models.Shop
		db.First(&shop, "id = ?", shopID)
		return shop
	}
}

func TestViewBaselineFetch(t *testing.T) {
	db := setupTestDB(t)
	shop := seedShop(t, db, true)
	older := seedOrder(t, db, shop.ID, models.StatusReady)
	time.Sleep(5 * time.Millisecond)
	newer := seedOrder(t, db, shop.ID, models.StatusPending)

	feed := NewFeed(db)
	view := NewShopView(db, shop.ID, settingsFor(db, shop.ID), nil)
	assert.NoError(t, view.Start(feed))
	defer view.Stop()

	orders := view.Orders()
	assert.Len(t, orders, 2)
	assert.Equal(t, newer.ID, orders[0].ID)
	assert.Equal(t, older.ID, orders[1].ID)
	assert.Len(t, orders[0].Items, 1)
}

func TestViewInsertMergesAndNotifiesOnce(t *testing.T) {
	db := setupTestDB(t)
	shop := seedShop(t, db, true)
	order := seedOrder(t, db, shop.ID, models.StatusPending)

	notifier := &recordingNotifier{}
	view := NewShopView(db, shop.ID, settingsFor(db, shop.ID), notifier)

	// Item snapshots are resolved via the secondary lookup.
	ev := Event{Type: EventInsert, New: &models.Order{
		ID: order.ID, ShopID: shop.ID, TableNumber: 1,
		Status: models.StatusPending, TotalAmount: 40,
		CreatedAt: order.CreatedAt, UpdatedAt: order.UpdatedAt,
	}}
	view.Apply(ev)

	orders := view.Orders()
	assert.Len(t, orders, 1)
	assert.Len(t, orders[0].Items, 1)
	assert.Equal(t, "Masala Tea", orders[0].Items[0].Name)
	assert.Equal(t, 1, notifier.count())

	// Duplicate delivery must not produce two entries.
	view.Apply(ev)
	assert.Len(t, view.Orders(), 1)
}

func TestViewInsertRespectsSoundPreferenceAtEventTime(t *testing.T) {
	db := setupTestDB(t)
	shop := seedShop(t, db, false)
	order := seedOrder(t, db, shop.ID, models.StatusPending)

	notifier := &recordingNotifier{}
	view := NewShopView(db, shop.ID, settingsFor(db, shop.ID), notifier)

	ev := Event{Type: EventInsert, New: &models.Order{ID: order.ID, ShopID: shop.ID, Status: models.StatusPending}}
	view.Apply(ev)
	assert.Zero(t, notifier.count())

	// Turning alerts on takes effect without re-subscribing.
	assert.NoError(t, db.Model(&models.Shop{}).Where("id = ?", shop.ID).Update("sound_alerts", true).Error)
	second := seedOrder(t, db, shop.ID, models.StatusPending)
	view.Apply(Event{Type: EventInsert, New: &models.Order{ID: second.ID, ShopID: shop.ID, Status: models.StatusPending}})
	assert.Equal(t, 1, notifier.count())
}

func TestViewUpdateAppliesPartialFieldsToBothViews(t *testing.T) {
	db := setupTestDB(t)
	shop := seedShop(t, db, true)
	order := seedOrder(t, db, shop.ID, models.StatusPending)

	view := NewShopView(db, shop.ID, settingsFor(db, shop.ID), nil)
	view.Apply(Event{Type: EventInsert, New: order})
	view.Track(*order)

	updatedAt := time.Now().Add(time.Minute)
	view.Apply(Event{Type: EventUpdate, New: &models.Order{
		ID: order.ID, Status: models.StatusStarted, UpdatedAt: updatedAt,
	}})

	orders := view.Orders()
	assert.Equal(t, models.StatusStarted, orders[0].Status)
	assert.Equal(t, updatedAt, orders[0].UpdatedAt)
	// The rest of the entry survives the partial update.
	assert.InDelta(t, 40, orders[0].TotalAmount, 1e-9)

	tracked := view.Tracked()
	assert.NotNil(t, tracked)
	assert.Equal(t, models.StatusStarted, tracked.Status)
	assert.Equal(t, updatedAt, tracked.UpdatedAt)
}

func TestViewUpdateUnmatchedIDIgnored(t *testing.T) {
	db := setupTestDB(t)
	shop := seedShop(t, db, true)
	order := seedOrder(t, db, shop.ID, models.StatusPending)

	view := NewShopView(db, shop.ID, settingsFor(db, shop.ID), nil)
	view.Apply(Event{Type: EventInsert, New: order})

	view.Apply(Event{Type: EventUpdate, New: &models.Order{ID: "unknown", Status: models.StatusReady}})
	assert.Equal(t, models.StatusPending, view.Orders()[0].Status)
}

func TestViewLabelEquivalence(t *testing.T) {
	db := setupTestDB(t)
	shop := seedShop(t, db, true)
	a := seedOrder(t, db, shop.ID, models.StatusPending)
	b := seedOrder(t, db, shop.ID, models.StatusPending)

	view := NewShopView(db, shop.ID, settingsFor(db, shop.ID), nil)
	view.Apply(Event{Type: EventInsert, New: a})
	view.Apply(Event{Type: EventInsert, New: b})

	// One event arrives under each label; both normalize before comparison.
	statusA, _ := models.NormalizeStatus("started")
	statusB, _ := models.NormalizeStatus("preparing")
	view.Apply(Event{Type: EventUpdate, New: &models.Order{ID: a.ID, Status: statusA}})
	view.Apply(Event{Type: EventUpdate, New: &models.Order{ID: b.ID, Status: statusB}})

	orders := view.Orders()
	assert.Equal(t, orders[0].Status, orders[1].Status)
	assert.Equal(t, models.StatusStarted, orders[0].Status)
}

func TestViewDeleteKeepsTrackedOrderLastKnownState(t *testing.T) {
	db := setupTestDB(t)
	shop := seedShop(t, db, true)
	order := seedOrder(t, db, shop.ID, models.StatusStarted)

	view := NewShopView(db, shop.ID, settingsFor(db, shop.ID), nil)
	view.Apply(Event{Type: EventInsert, New: order})
	view.Track(*order)

	view.Apply(Event{Type: EventDelete, Old: &models.Order{ID: order.ID}})

	// Gone from the admin list, but the customer keeps the last status.
	assert.Empty(t, view.Orders())
	tracked := view.Tracked()
	assert.NotNil(t, tracked)
	assert.Equal(t, models.StatusStarted, tracked.Status)

	// Deletes are naturally idempotent.
	view.Apply(Event{Type: EventDelete, Old: &models.Order{ID: order.ID}})
	assert.Empty(t, view.Orders())
}

func TestFeedDeliversEngineChangesToView(t *testing.T) {
	db := setupTestDB(t)
	shop := seedShop(t, db, true)
	eng := engine.New(db)

	item := models.MenuItem{
		ID: uuid.NewString(), ShopID: shop.ID, Name: "Masala Tea",
		Price: 40, Category: models.CategoryTea, IsAvailable: true,
		CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}
	assert.NoError(t, db.Create(&item).Error)

	feed := NewFeed(db)
	notifier := &recordingNotifier{}
	view := NewShopView(db, shop.ID, settingsFor(db, shop.ID), notifier)
	assert.NoError(t, view.Start(feed))
	defer view.Stop()

	order, err := eng.CreateOrder(context.Background(), shop, 5, []cart.Line{{Item: item, Quantity: 2}}, engine.CheckoutDetails{})
	assert.NoError(t, err)
	view.Track(*order)

	feed.Poll()
	waitFor(t, func() bool { return len(view.Orders()) == 1 && notifier.count() == 1 })
	assert.Equal(t, order.ID, view.Orders()[0].ID)

	_, err = eng.AdvanceStatus(context.Background(), order.ID, "started")
	assert.NoError(t, err)
	feed.Poll()
	waitFor(t, func() bool { return view.Orders()[0].Status == models.StatusStarted })

	// The customer's tracked order reflects the change without a re-fetch.
	tracked := view.Tracked()
	assert.NotNil(t, tracked)
	assert.Equal(t, models.StatusStarted, tracked.Status)
}

func TestFeedScopesEventsByShop(t *testing.T) {
	db := setupTestDB(t)
	shopA := seedShop(t, db, true)
	shopB := &models.Shop{
		ID: uuid.NewString(), Slug: "other-shop", Name: "Other Shop",
		NumberOfTables: 5, IsOpen: true,
		CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}
	assert.NoError(t, db.Create(shopB).Error)

	feed := NewFeed(db)
	viewA := NewShopView(db, shopA.ID, settingsFor(db, shopA.ID), nil)
	viewB := NewShopView(db, shopB.ID, settingsFor(db, shopB.ID), nil)
	assert.NoError(t, viewA.Start(feed))
	assert.NoError(t, viewB.Start(feed))
	defer viewA.Stop()
	defer viewB.Stop()

	order := seedOrder(t, db, shopB.ID, models.StatusPending)
	assert.NoError(t, db.Create(&models.DBChange{
		ShopID: shopB.ID, TableName: "orders", RecordID: order.ID,
		ActionType: models.ActionInsert, ChangedAt: time.Now(),
	}).Error)

	feed.Poll()
	waitFor(t, func() bool { return len(viewB.Orders()) == 1 })
	assert.Empty(t, viewA.Orders())
}

func TestFeedDeleteEvent(t *testing.T) {
	db := setupTestDB(t)
	shop := seedShop(t, db, true)
	order := seedOrder(t, db, shop.ID, models.StatusPending)

	feed := NewFeed(db)
	view := NewShopView(db, shop.ID, settingsFor(db, shop.ID), nil)
	assert.NoError(t, view.Start(feed))
	defer view.Stop()
	assert.Len(t, view.Orders(), 1)

	// An out-of-band delete reaches the view through the feed.
	assert.NoError(t, db.Delete(&models.Order{}, "id = ?", order.ID).Error)
	assert.NoError(t, db.Create(&models.DBChange{
		ShopID: shop.ID, TableName: "orders", RecordID: order.ID,
		ActionType: models.ActionDelete, ChangedAt: time.Now(),
	}).Error)

	feed.Poll()
	waitFor(t, func() bool { return len(view.Orders()) == 0 })
}

func TestFeedMarksChangesProcessed(t *testing.T) {
	db := setupTestDB(t)
	shop := seedShop(t, db, true)
	order := seedOrder(t, db, shop.ID, models.StatusPending)
	assert.NoError(t, db.Create(&models.DBChange{
		ShopID: shop.ID, TableName: "orders", RecordID: order.ID,
		ActionType: models.ActionInsert, ChangedAt: time.Now(),
	}).Error)

	feed := NewFeed(db)
	feed.Poll()

	var unprocessed int64
	assert.NoError(t, db.Model(&models.DBChange{}).Where("processed = ?", false).Count(&unprocessed).Error)
	assert.Zero(t, unprocessed)
}

func TestSubscriptionCancelStopsDelivery(t *testing.T) {
	db := setupTestDB(t)
	shop := seedShop(t, db, true)

	feed := NewFeed(db)
	sub := feed.Subscribe(shop.ID)
	sub.Cancel()
	sub.Cancel() // idempotent

	order := seedOrder(t, db, shop.ID, models.StatusPending)
	assert.NoError(t, db.Create(&models.DBChange{
		ShopID: shop.ID, TableName: "orders", RecordID: order.ID,
		ActionType: models.ActionInsert, ChangedAt: time.Now(),
	}).Error)
	feed.Poll()

	select {
	case ev := <-sub.Events:
		t.Fatalf("cancelled subscription received event %v", ev)
	default:
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}
