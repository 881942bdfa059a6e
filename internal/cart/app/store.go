package app

import (
	"context"
	"log/slog"
	"sync"

	"github.com/jcmexdev/storefront/internal/cart/domain"
)

// Store holds one cart and writes it through to the repository after every
// change. The reducer stays pure; Store is the only place with side effects.
type Store struct {
	mu       sync.Mutex
	state    domain.Cart
	repo     ItemRepository
	hydrated bool
}

func NewStore(repo ItemRepository) *Store {
	return &Store{
		state: domain.Empty(),
		repo:  repo,
	}
}

// Hydrate loads the persisted items once. Later calls do nothing. A corrupt
// or unreadable value is dropped and the cart starts empty. Cancellation of
// ctx does not abort the load.
func (s *Store) Hydrate(ctx context.Context) domain.Cart {
	ctx = context.WithoutCancel(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.hydrated {
		return s.state
	}
	s.hydrated = true

	items, found, err := s.repo.Load(ctx)
	if err != nil {
		slog.WarnContext(ctx, "discarding unreadable cart", "error", err)
		return s.state
	}
	if !found {
		return s.state
	}

	s.state = domain.Reduce(s.state, domain.LoadCart{Items: items})
	slog.DebugContext(ctx, "cart hydrated", "lines", len(s.state.Items), "item_count", s.state.ItemCount)
	return s.state
}

// Dispatch applies action, persists the resulting items and returns the new
// state. Persistence errors are logged and otherwise ignored.
func (s *Store) Dispatch(ctx context.Context, action domain.Action) domain.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = domain.Reduce(s.state, action)

	if err := s.repo.Save(ctx, s.state.CloneItems()); err != nil {
		slog.ErrorContext(ctx, "failed to persist cart", "error", err)
	}
	return s.state
}

// Snapshot returns the current cart. The item slice is a copy.
func (s *Store) Snapshot() domain.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.state
	c.Items = s.state.CloneItems()
	return c
}

func (s *Store) AddItem(ctx context.Context, item domain.CartItem) domain.Cart {
	return s.Dispatch(ctx, domain.AddItem{Item: item})
}

func (s *Store) RemoveItem(ctx context.Context, id string) domain.Cart {
	return s.Dispatch(ctx, domain.RemoveItem{ID: id})
}

func (s *Store) UpdateQuantity(ctx context.Context, id string, quantity int) domain.Cart {
	return s.Dispatch(ctx, domain.UpdateQuantity{ID: id, Quantity: quantity})
}

func (s *Store) Clear(ctx context.Context) domain.Cart {
	return s.Dispatch(ctx, domain.ClearCart{})
}

func (s *Store) Toggle(ctx context.Context) domain.Cart {
	return s.Dispatch(ctx, domain.ToggleCart{})
}

func (s *Store) Open(ctx context.Context) domain.Cart {
	return s.Dispatch(ctx, domain.OpenCart{})
}

func (s *Store) Close(ctx context.Context) domain.Cart {
	return s.Dispatch(ctx, domain.CloseCart{})
}

// Take removes the given quantities, as when those lines have been ordered.
func (s *Store) Take(ctx context.Context, items []domain.CartItem) domain.Cart {
	return s.Dispatch(ctx, domain.TakeItems{Items: items})
}

// PutBack returns quantities removed by Take.
func (s *Store) PutBack(ctx context.Context, items []domain.CartItem) domain.Cart {
	return s.Dispatch(ctx, domain.PutBackItems{Items: items})
}
