package app

import (
	"context"

	"github.com/jcmexdev/storefront/internal/checkout/domain"
)

// Record is what a checkout session persists. CVVs never reach it.
type Record struct {
	Checkout     domain.Checkout        `json:"checkout"`
	SavedMethods []domain.PaymentMethod `json:"savedMethods"`
}

// Repository persists a session's checkout. Load returns found=false when
// nothing has been stored yet.
type Repository interface {
	Load(ctx context.Context) (rec Record, found bool, err error)
	Save(ctx context.Context, rec Record) error
}
