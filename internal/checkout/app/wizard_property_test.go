package app

import (
	"context"
	"reflect"
	"testing"

	"pgregory.net/rapid"

	cartapp "github.com/jcmexdev/storefront/internal/cart/app"
	cartdomain "github.com/jcmexdev/storefront/internal/cart/domain"
	"github.com/jcmexdev/storefront/internal/checkout/domain"
	orderapp "github.com/jcmexdev/storefront/internal/order/app"
	"github.com/jcmexdev/storefront/internal/pkg/kvstore"
)

var steps = []domain.Step{domain.StepShipping, domain.StepPayment, domain.StepReview, domain.StepConfirmation}

// checkInvariants holds after every operation, successful or not.
func checkInvariants(t *rapid.T, c domain.Checkout) {
	if c.IsProcessing {
		t.Fatalf("checkout left processing")
	}
	if _, err := domain.ParseStep(string(c.CurrentStep)); err != nil {
		t.Fatal(err)
	}
	if err := c.CanEnter(c.CurrentStep); err != nil {
		t.Fatalf("on step %s without its prerequisites: %v", c.CurrentStep, err)
	}
	if c.UseSameAddressForBilling && !reflect.DeepEqual(c.ShippingAddress, c.BillingAddress) {
		t.Fatalf("billing %+v does not mirror shipping %+v", c.BillingAddress, c.ShippingAddress)
	}
	if c.CurrentStep != domain.StepReview && c.Error != "" {
		t.Fatalf("error %q outside review", c.Error)
	}
}

func TestWizard_ResetProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		ctx := context.Background()
		kv := kvstore.NewMemoryStore("test")
		cart := cartapp.NewStore(cartapp.NewKVRepository(kv, "s1"))
		orders := orderapp.NewService(kv, orderapp.Options{})
		w := NewWizard(cart, orders, Options{SessionID: "s1", Repository: NewKVRepository(kv, "s1")})

		n := rapid.IntRange(0, 40).Draw(t, "ops")
		for i := 0; i < n; i++ {
			switch rapid.IntRange(0, 8).Draw(t, "op") {
			case 0:
				a := address()
				if rapid.Bool().Draw(t, "blank") {
					a.City = ""
				}
				_, _ = w.SetShippingAddress(ctx, a)
			case 1:
				_, _ = w.SetUseSameAddressForBilling(ctx, rapid.Bool().Draw(t, "same"))
			case 2:
				a := address()
				a.City = "Shelbyville"
				_, _ = w.SetBillingAddress(ctx, a)
			case 3:
				_, _ = w.SelectPaymentMethod(ctx, rapid.SampledFrom([]string{"pm_visa_4242", "pm_mc_4444", "pm_x"}).Draw(t, "pm"))
			case 4:
				number := rapid.SampledFrom([]string{"42424242", "4242424242424242"}).Draw(t, "number")
				_, _ = w.SubmitNewCard(ctx, card(number))
			case 5:
				_, _ = w.GoToStep(ctx, rapid.SampledFrom(steps).Draw(t, "step"))
			case 6:
				cart.AddItem(ctx, cartdomain.CartItem{ID: "p1", UnitPrice: 12.5, InStock: true})
			case 7:
				_, _, _ = w.PlaceOrder(ctx, "")
			default:
				w.Reset(ctx)
			}
			checkInvariants(t, w.State())
		}

		if got := w.Reset(ctx); !reflect.DeepEqual(got, domain.Initial()) {
			t.Fatalf("reset returned %+v", got)
		}
	})
}
