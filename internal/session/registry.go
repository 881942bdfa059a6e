// Package session binds each storefront session to its own cart and
// checkout.
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	cartapp "github.com/jcmexdev/storefront/internal/cart/app"
	checkoutapp "github.com/jcmexdev/storefront/internal/checkout/app"
	"github.com/jcmexdev/storefront/internal/coordinator"
	"github.com/jcmexdev/storefront/internal/coordinator/sagalog"
	"github.com/jcmexdev/storefront/internal/pkg/kvstore"
)

type Session struct {
	ID       string
	Cart     *cartapp.Store
	Checkout *checkoutapp.Wizard
}

type Options struct {
	SagaLog           sagalog.Repository
	PlaceOrderTimeout time.Duration
}

// Registry creates sessions on first use and keeps them for the life of the
// process. State survives restarts through the key-value store.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	store    kvstore.Store
	orders   coordinator.OrderClient
	opts     Options
}

func NewRegistry(store kvstore.Store, orders coordinator.OrderClient, opts Options) *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		store:    store,
		orders:   orders,
		opts:     opts,
	}
}

// Get returns the session for id, hydrating its cart and checkout the first
// time it is seen.
func (r *Registry) Get(ctx context.Context, id string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[id]; ok {
		return s
	}

	cart := cartapp.NewStore(cartapp.NewKVRepository(r.store, id))
	cart.Hydrate(ctx)
	wizard := checkoutapp.NewWizard(cart, r.orders, checkoutapp.Options{
		SessionID:  id,
		Repository: checkoutapp.NewKVRepository(r.store, id),
		SagaLog:    r.opts.SagaLog,
		Timeout:    r.opts.PlaceOrderTimeout,
	})
	wizard.Hydrate(ctx)

	s := &Session{ID: id, Cart: cart, Checkout: wizard}
	r.sessions[id] = s
	slog.DebugContext(ctx, "session opened", "session_id", id)
	return s
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
