package sagalog

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("saga not found")

// Repository appends entries. Implementations never update rows in place.
type Repository interface {
	Save(ctx context.Context, entry *Entry) error
}

// Reader is implemented by repositories that can be queried back.
type Reader interface {
	GetLatest(ctx context.Context, sagaID string) (*Entry, error)
	History(ctx context.Context, sagaID string) ([]Entry, error)
}
