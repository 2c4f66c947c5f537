package cart

import (
	"sync"

	"github.com/daikochiya/teashop-app/models"
)

// Registry holds one cart per browsing session, keyed by the opaque session
// key the client sends with each request. Carts live only in memory.
type Registry struct {
	mu    sync.Mutex
	carts map[string]*Cart
}

func NewRegistry() *Registry {
	return &Registry{carts: make(map[string]*Cart)}
}

func (r *Registry) cart(key string) *Cart {
	c, ok := r.carts[key]
	if !ok {
		c = &Cart{}
		r.carts[key] = c
	}
	return c
}

func (r *Registry) Add(key string, item models.MenuItem) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cart(key).Add(item)
}

func (r *Registry) Remove(key, itemID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cart(key).Remove(itemID)
}

func (r *Registry) SetQuantity(key, itemID string, qty int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cart(key).SetQuantity(itemID, qty)
}

func (r *Registry) Clear(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.carts, key)
}

// Snapshot returns the session's current lines and total.
func (r *Registry) Snapshot(key string) ([]Line, float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := r.cart(key)
	return c.Lines(), c.Total()
}
