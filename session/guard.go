// Package session binds a customer's browsing session to one table identity
// for a bounded window, so a tab left open across a shift change cannot
// submit to another table's context.
package session

import (
	"context"
	"sync"
	"time"
)

// TTL is how long a table binding stays valid after creation.
const TTL = 24 * time.Hour

// TableSession is the binding of one browsing session to one table.
type TableSession struct {
	TableNumber int       `json:"tableNumber"`
	ShopID      string    `json:"shopId"`
	ShopSlug    string    `json:"shopSlug"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Store is the durable backing for table sessions. The Redis implementation
// is used in production; tests use the in-memory one.
type Store interface {
	Save(ctx context.Context, key string, s TableSession) error
	Load(ctx context.Context, key string) (*TableSession, error)
	Delete(ctx context.Context, key string) error
}

// Guard keeps sessions in memory with a durable store behind it, and
// enforces expiry on read.
type Guard struct {
	store Store

	mu    sync.Mutex
	cache map[string]TableSession

	now func() time.Time
}

func NewGuard(store Store) *Guard {
	return &Guard{
		store: store,
		cache: make(map[string]TableSession),
		now:   time.Now,
	}
}

// Set stores the binding in memory and in the durable store. CreatedAt is
// stamped here if the caller left it zero.
func (g *Guard) Set(ctx context.Context, key string, s TableSession) error {
	if s.CreatedAt.IsZero() {
		s.CreatedAt = g.now()
	}

	g.mu.Lock()
	g.cache[key] = s
	g.mu.Unlock()

	return g.store.Save(ctx, key, s)
}

// Get returns the binding for key, or nil if absent or older than TTL.
// An expired binding is purged from both layers.
func (g *Guard) Get(ctx context.Context, key string) (*TableSession, error) {
	g.mu.Lock()
	s, ok := g.cache[key]
	g.mu.Unlock()

	if !ok {
		stored, err := g.store.Load(ctx, key)
		if err != nil {
			return nil, err
		}
		if stored == nil {
			return nil, nil
		}
		s = *stored
		g.mu.Lock()
		g.cache[key] = s
		g.mu.Unlock()
	}

	if g.now().Sub(s.CreatedAt) > TTL {
		if err := g.Clear(ctx, key); err != nil {
			return nil, err
		}
		return nil, nil
	}
	return &s, nil
}

// Clear removes the binding unconditionally.
func (g *Guard) Clear(ctx context.Context, key string) error {
	g.mu.Lock()
	delete(g.cache, key)
	g.mu.Unlock()

	return g.store.Delete(ctx, key)
}
