package domain

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrStepLocked           = errors.New("checkout step is locked")
	ErrAlreadyProcessing    = errors.New("order placement already in progress")
	ErrCompleted            = errors.New("checkout already completed")
	ErrUnknownPaymentMethod = errors.New("unknown payment method")
)

// FieldErrors maps a form field to its validation message. It is returned
// by the validators and never stored on the Checkout.
type FieldErrors map[string]string

func (f FieldErrors) Error() string {
	fields := make([]string, 0, len(f))
	for k := range f {
		fields = append(fields, k)
	}
	sort.Strings(fields)

	parts := make([]string, len(fields))
	for i, k := range fields {
		parts[i] = k + ": " + f[k]
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// orNil keeps a nil FieldErrors from turning into a non-nil error.
func (f FieldErrors) orNil() error {
	if len(f) == 0 {
		return nil
	}
	return f
}
