package app

import (
	"context"

	"github.com/jcmexdev/storefront/internal/cart/domain"
	"github.com/jcmexdev/storefront/internal/pkg/kvstore"
)

// KVRepository stores the item list as JSON under one key.
type KVRepository struct {
	store kvstore.Store
	key   string
}

var _ ItemRepository = (*KVRepository)(nil)

// NewKVRepository returns the repository for the cart of sessionID.
func NewKVRepository(store kvstore.Store, sessionID string) *KVRepository {
	return &KVRepository{
		store: store,
		key:   store.GenerateKey("cart", sessionID),
	}
}

func (r *KVRepository) Load(ctx context.Context) ([]domain.CartItem, bool, error) {
	var items []domain.CartItem
	found, err := kvstore.LoadJSON(ctx, r.store, r.key, &items)
	if err != nil {
		return nil, found, err
	}
	return items, found, nil
}

func (r *KVRepository) Save(ctx context.Context, items []domain.CartItem) error {
	return kvstore.SaveJSON(ctx, r.store, r.key, items, 0)
}
