package app

import (
	"context"

	"github.com/jcmexdev/storefront/internal/cart/domain"
)

// ItemRepository persists the cart's item list. Load returns found=false
// when nothing has been stored yet.
type ItemRepository interface {
	Load(ctx context.Context) (items []domain.CartItem, found bool, err error)
	Save(ctx context.Context, items []domain.CartItem) error
}
