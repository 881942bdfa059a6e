package app

import (
	"context"

	"github.com/jcmexdev/storefront/internal/pkg/kvstore"
)

type KVRepository struct {
	store kvstore.Store
	key   string
}

var _ Repository = (*KVRepository)(nil)

func NewKVRepository(store kvstore.Store, sessionID string) *KVRepository {
	return &KVRepository{
		store: store,
		key:   store.GenerateKey("checkout", sessionID),
	}
}

func (r *KVRepository) Load(ctx context.Context) (Record, bool, error) {
	var rec Record
	found, err := kvstore.LoadJSON(ctx, r.store, r.key, &rec)
	if err != nil {
		return Record{}, found, err
	}
	return rec, found, nil
}

func (r *KVRepository) Save(ctx context.Context, rec Record) error {
	return kvstore.SaveJSON(ctx, r.store, r.key, rec, 0)
}
