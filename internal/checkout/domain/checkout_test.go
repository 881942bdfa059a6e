package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cartdomain "github.com/jcmexdev/storefront/internal/cart/domain"
)

var now = time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC)

func validAddress() ShippingAddress {
	return ShippingAddress{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Street:    "1 Main St",
		City:      "Springfield",
		State:     "IL",
		ZipCode:   "62701",
		Country:   "US",
	}
}

func validCard() CardForm {
	return CardForm{
		CardNumber:     "4242 4242 4242 4242",
		ExpiryMonth:    8,
		ExpiryYear:     now.Year(),
		CVV:            "123",
		CardholderName: "Ada Lovelace",
	}
}

func fieldErrors(t *testing.T, err error) FieldErrors {
	t.Helper()
	var fe FieldErrors
	require.ErrorAs(t, err, &fe)
	return fe
}

func TestValidateAddress(t *testing.T) {
	assert.NoError(t, ValidateAddress(validAddress()))

	fe := fieldErrors(t, ValidateAddress(ShippingAddress{FirstName: "Ada", Street: "   "}))
	assert.NotContains(t, fe, "firstName")
	for _, field := range []string{"lastName", "street", "city", "state", "zipCode", "country"} {
		assert.Contains(t, fe, field)
	}
}

func TestValidateAddress_Phone(t *testing.T) {
	tests := []struct {
		phone string
		ok    bool
	}{
		{"", true},
		{"+1 (555) 123-4567", true},
		{"555.123.4567", true},
		{"12345", false},
		{"+1 555 123 4567 890 12", false},
		{"555-CALL-NOW", false},
	}
	for _, tt := range tests {
		t.Run(tt.phone, func(t *testing.T) {
			a := validAddress()
			a.Phone = tt.phone
			err := ValidateAddress(a)
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.Contains(t, fieldErrors(t, err), "phone")
		})
	}
}

func TestValidateCard(t *testing.T) {
	assert.NoError(t, ValidateCard(validCard(), now))

	tests := []struct {
		name   string
		mutate func(*CardForm)
		field  string
	}{
		{"eight digit number", func(f *CardForm) { f.CardNumber = "42424242" }, "cardNumber"},
		{"letters in number", func(f *CardForm) { f.CardNumber = "4242-4242-4242-424X" }, "cardNumber"},
		{"month zero", func(f *CardForm) { f.ExpiryMonth = 0 }, "expiryMonth"},
		{"month thirteen", func(f *CardForm) { f.ExpiryMonth = 13 }, "expiryMonth"},
		{"last year", func(f *CardForm) { f.ExpiryYear = now.Year() - 1 }, "expiryYear"},
		{"short cvv", func(f *CardForm) { f.CVV = "12" }, "cvv"},
		{"blank holder", func(f *CardForm) { f.CardholderName = " " }, "cardholderName"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := validCard()
			tt.mutate(&f)
			fe := fieldErrors(t, ValidateCard(f, now))
			assert.Len(t, fe, 1)
			assert.Contains(t, fe, tt.field)
		})
	}
}

func TestValidateCard_LengthBounds(t *testing.T) {
	tests := []struct {
		name   string
		number string
		cvv    string
		valid  bool
	}{
		{"twelve digits", "424242424242", "123", false},
		{"thirteen digits", "4242424242424", "123", true},
		{"twenty digits", "42424242424242424242", "123", true},
		{"spaced thirteen digits", "4242 4242 4242 4", "123", true},
		{"two digit cvv", "4242424242424242", "12", false},
		{"three digit cvv", "4242424242424242", "123", true},
		{"five digit cvv", "4242424242424242", "12345", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := validCard()
			f.CardNumber = tt.number
			f.CVV = tt.cvv
			err := ValidateCard(f, now)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Len(t, fieldErrors(t, err), 1)
			}
		})
	}
}

func TestNewPaymentMethod_MasksNumber(t *testing.T) {
	m := NewPaymentMethod("pm_1", validCard())

	assert.Equal(t, "**** **** **** 4242", m.CardNumberMasked)
	assert.Equal(t, "Visa", m.Brand)
	assert.Equal(t, "Visa ending in 4242", m.Label())
}

func TestCheckout_ShippingAdvancesAndMirrorsBilling(t *testing.T) {
	c, err := Initial().SetShippingAddress(validAddress())
	require.NoError(t, err)

	assert.Equal(t, StepPayment, c.CurrentStep)
	require.NotNil(t, c.BillingAddress)
	assert.Equal(t, *c.ShippingAddress, *c.BillingAddress)

	other := validAddress()
	other.City = "Shelbyville"
	c, err = c.SetBillingAddress(other)
	require.NoError(t, err)
	assert.False(t, c.UseSameAddressForBilling)
	assert.Equal(t, "Shelbyville", c.BillingAddress.City)

	c, err = c.SetUseSameAddressForBilling(true)
	require.NoError(t, err)
	assert.Equal(t, "Springfield", c.BillingAddress.City)
}

func TestCheckout_InvalidShippingDoesNotAdvance(t *testing.T) {
	start := Initial()
	c, err := start.SetShippingAddress(ShippingAddress{FirstName: "Ada"})

	assert.Error(t, err)
	assert.Equal(t, start, c)
	assert.Empty(t, c.Error)
}

func TestCheckout_StepGating(t *testing.T) {
	c := Initial()

	_, err := c.GoToStep(StepPayment)
	assert.ErrorIs(t, err, ErrStepLocked)
	_, err = c.SetPaymentMethod(SeedMethods(now)[0])
	assert.ErrorIs(t, err, ErrStepLocked)

	c, err = c.SetShippingAddress(validAddress())
	require.NoError(t, err)
	_, err = c.GoToStep(StepReview)
	assert.ErrorIs(t, err, ErrStepLocked)

	c, err = c.SetPaymentMethod(SeedMethods(now)[0])
	require.NoError(t, err)
	assert.Equal(t, StepReview, c.CurrentStep)

	back, err := c.GoToStep(StepShipping)
	require.NoError(t, err)
	assert.Equal(t, StepShipping, back.CurrentStep)

	forward, err := back.GoToStep(StepReview)
	require.NoError(t, err)
	assert.Equal(t, StepReview, forward.CurrentStep)

	_, err = forward.GoToStep(StepConfirmation)
	assert.ErrorIs(t, err, ErrStepLocked)
}

func TestCheckout_Placement(t *testing.T) {
	cart := cartdomain.Reduce(cartdomain.Empty(), cartdomain.AddItem{Item: cartdomain.CartItem{ID: "p1", UnitPrice: 30}})

	c, err := Initial().SetShippingAddress(validAddress())
	require.NoError(t, err)
	_, err = c.BeginPlacement(cart)
	assert.ErrorIs(t, err, ErrStepLocked)

	c, err = c.SetPaymentMethod(SeedMethods(now)[0])
	require.NoError(t, err)

	processing, err := c.BeginPlacement(cart)
	require.NoError(t, err)
	assert.True(t, processing.IsProcessing)
	assert.InDelta(t, 38.39, processing.OrderSummary.Total, 1e-9)

	_, err = processing.BeginPlacement(cart)
	assert.ErrorIs(t, err, ErrAlreadyProcessing)
	_, err = processing.GoToStep(StepShipping)
	assert.ErrorIs(t, err, ErrAlreadyProcessing)

	failed := processing.PlacementFailed("order service unavailable")
	assert.False(t, failed.IsProcessing)
	assert.Equal(t, StepReview, failed.CurrentStep)
	assert.Equal(t, "order service unavailable", failed.Error)

	retry, err := failed.BeginPlacement(cart)
	require.NoError(t, err)
	assert.Empty(t, retry.Error)

	done := retry.PlacementSucceeded("id-1", "ORD-00000001-ABCD")
	assert.Equal(t, StepConfirmation, done.CurrentStep)
	assert.NoError(t, done.CanEnter(StepConfirmation))

	_, err = done.SetShippingAddress(validAddress())
	assert.ErrorIs(t, err, ErrCompleted)
}

func TestCheckout_Review(t *testing.T) {
	cart := cartdomain.Reduce(cartdomain.Empty(), cartdomain.AddItem{Item: cartdomain.CartItem{ID: "p1", UnitPrice: 20}})
	cart = cartdomain.Reduce(cart, cartdomain.AddItem{Item: cartdomain.CartItem{ID: "p1", UnitPrice: 20}})

	_, err := Initial().Review(cart)
	assert.ErrorIs(t, err, ErrStepLocked)

	c, err := Initial().SetShippingAddress(validAddress())
	require.NoError(t, err)
	c, err = c.SetPaymentMethod(SeedMethods(now)[1])
	require.NoError(t, err)

	r, err := c.Review(cart)
	require.NoError(t, err)
	assert.Equal(t, 2, r.Summary.ItemCount)
	assert.InDelta(t, 0.0, r.Summary.Shipping, 1e-9)
	assert.InDelta(t, 43.20, r.Summary.Total, 1e-9)
	assert.Equal(t, r.ShippingAddress, r.BillingAddress)
	assert.Equal(t, "Mastercard", r.PaymentMethod.Brand)
}

func TestFieldErrors_Message(t *testing.T) {
	err := FieldErrors{"zipCode": "required", "city": "required"}
	assert.Equal(t, "validation failed: city: required; zipCode: required", err.Error())
}
