// Package kvstore is the key-value persistence used for cart contents,
// order history and idempotency keys. Values are opaque strings; callers
// serialise with the JSON helpers in this package.
package kvstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Store is the persistence port. Get returns "" and a nil error on a miss.
// A zero ttl means the value never expires.
type Store interface {
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	GenerateKey(operation, key string) string
}

func generateKey(namespace, operation, key string) string {
	return fmt.Sprintf("%s:%s:%s", namespace, operation, key)
}

// SaveJSON marshals v and stores it under key.
func SaveJSON(ctx context.Context, s Store, key string, v any, ttl time.Duration) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("kvstore: marshal %q: %w", key, err)
	}
	return s.Set(ctx, key, string(b), ttl)
}

// LoadJSON reads key into v. found is false when nothing is stored. A value
// that does not decode is reported as ErrCorrupt so callers can discard it.
func LoadJSON(ctx context.Context, s Store, key string, v any) (found bool, err error) {
	raw, err := s.Get(ctx, key)
	if err != nil {
		return false, err
	}
	if raw == "" {
		return false, nil
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return true, fmt.Errorf("%w: %q: %v", ErrCorrupt, key, err)
	}
	return true, nil
}
