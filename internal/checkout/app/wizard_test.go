package app

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cartapp "github.com/jcmexdev/storefront/internal/cart/app"
	cartdomain "github.com/jcmexdev/storefront/internal/cart/domain"
	"github.com/jcmexdev/storefront/internal/checkout/domain"
	orderapp "github.com/jcmexdev/storefront/internal/order/app"
	orderdomain "github.com/jcmexdev/storefront/internal/order/domain"
	"github.com/jcmexdev/storefront/internal/pkg/kvstore"
)

var now = time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC)

// flakyOrders wraps the real order service and fails on demand.
type flakyOrders struct {
	*orderapp.Service
	createErrs  []error
	confirmErr  error
	createGate  chan struct{}
	createCalls int
}

func (f *flakyOrders) CreateOrder(ctx context.Context, req orderdomain.CreateOrderRequest) (orderdomain.Order, error) {
	f.createCalls++
	if f.createGate != nil {
		<-f.createGate
	}
	if len(f.createErrs) > 0 {
		err := f.createErrs[0]
		f.createErrs = f.createErrs[1:]
		if err != nil {
			return orderdomain.Order{}, err
		}
	}
	return f.Service.CreateOrder(ctx, req)
}

func (f *flakyOrders) ConfirmOrder(ctx context.Context, number string) (orderdomain.Order, error) {
	if f.confirmErr != nil {
		return orderdomain.Order{}, f.confirmErr
	}
	return f.Service.ConfirmOrder(ctx, number)
}

type fixture struct {
	kv     *kvstore.MemoryStore
	cart   *cartapp.Store
	orders *flakyOrders
	wizard *Wizard
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	kv := kvstore.NewMemoryStore("test")
	f := &fixture{
		kv:     kv,
		cart:   cartapp.NewStore(cartapp.NewKVRepository(kv, "s1")),
		orders: &flakyOrders{Service: orderapp.NewService(kv, orderapp.Options{})},
	}
	opts.SessionID = "s1"
	if opts.Repository == nil {
		opts.Repository = NewKVRepository(kv, "s1")
	}
	opts.Now = func() time.Time { return now }
	f.wizard = NewWizard(f.cart, f.orders, opts)
	f.wizard.Hydrate(context.Background())
	return f
}

func address() domain.ShippingAddress {
	return domain.ShippingAddress{
		FirstName: "Ada", LastName: "Lovelace", Street: "1 Main St",
		City: "Springfield", State: "IL", ZipCode: "62701", Country: "US",
		Phone: "+1 (555) 123-4567",
	}
}

func card(number string) domain.CardForm {
	return domain.CardForm{
		CardNumber:     number,
		ExpiryMonth:    11,
		ExpiryYear:     now.Year() + 1,
		CVV:            "123",
		CardholderName: "Ada Lovelace",
	}
}

func (f *fixture) toReview(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	f.cart.AddItem(ctx, cartdomain.CartItem{ID: "p1", Name: "Mug", UnitPrice: 20, InStock: true})
	f.cart.AddItem(ctx, cartdomain.CartItem{ID: "p1", Name: "Mug", UnitPrice: 20, InStock: true})
	_, err := f.wizard.SetShippingAddress(ctx, address())
	require.NoError(t, err)
	_, err = f.wizard.SelectPaymentMethod(ctx, "pm_visa_4242")
	require.NoError(t, err)
}

func TestWizard_InvalidCardStaysOnPayment(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{})

	state, err := f.wizard.SetShippingAddress(ctx, address())
	require.NoError(t, err)
	assert.Equal(t, domain.StepPayment, state.CurrentStep)

	state, err = f.wizard.SubmitNewCard(ctx, card("42424242"))
	var fe domain.FieldErrors
	require.ErrorAs(t, err, &fe)
	assert.Contains(t, fe, "cardNumber")
	assert.Equal(t, domain.StepPayment, state.CurrentStep)
	assert.Empty(t, state.Error)
	assert.Nil(t, state.PaymentMethod)
}

func TestWizard_NewCardIsMaskedAndSaved(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{})
	_, err := f.wizard.SetShippingAddress(ctx, address())
	require.NoError(t, err)

	form := card("5105-1051-0510-5100")
	form.SaveCard = true
	state, err := f.wizard.SubmitNewCard(ctx, form)
	require.NoError(t, err)

	assert.Equal(t, domain.StepReview, state.CurrentStep)
	assert.Equal(t, "**** **** **** 5100", state.PaymentMethod.CardNumberMasked)
	assert.Len(t, f.wizard.SavedMethods(), 3)

	raw, err := f.kv.Get(ctx, f.kv.GenerateKey("checkout", "s1"))
	require.NoError(t, err)
	assert.NotContains(t, raw, "5105")
	assert.NotContains(t, raw, `"cvv"`)
}

func TestWizard_UnknownSavedMethod(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{})
	_, err := f.wizard.SetShippingAddress(ctx, address())
	require.NoError(t, err)

	_, err = f.wizard.SelectPaymentMethod(ctx, "pm_nope")
	assert.ErrorIs(t, err, domain.ErrUnknownPaymentMethod)
}

func TestWizard_PlaceOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{})
	f.toReview(t)

	review, err := f.wizard.Review()
	require.NoError(t, err)
	assert.InDelta(t, 43.20, review.Summary.Total, 1e-9)

	state, order, err := f.wizard.PlaceOrder(ctx, "")
	require.NoError(t, err)

	assert.Equal(t, domain.StepConfirmation, state.CurrentStep)
	assert.Equal(t, order.ID, state.OrderID)
	assert.Equal(t, order.OrderNumber, state.OrderNumber)
	assert.False(t, state.IsProcessing)
	assert.InDelta(t, 43.20, state.OrderSummary.Total, 1e-9)
	assert.Equal(t, orderdomain.StatusConfirmed, order.Status)
	assert.Equal(t, "Visa ending in 4242", order.PaymentMethod)
	assert.True(t, f.cart.Snapshot().IsEmpty())

	f.cart.AddItem(ctx, cartdomain.CartItem{ID: "p2", UnitPrice: 1})
	tracked, ok := f.orders.TrackOrder(order.OrderNumber)
	require.True(t, ok)
	assert.Len(t, tracked.Items, 1)
	assert.Equal(t, 2, tracked.Items[0].Quantity)

	_, _, err = f.wizard.PlaceOrder(ctx, "")
	assert.ErrorIs(t, err, domain.ErrCompleted)
}

func TestWizard_PlacementFailureIsRetryable(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{})
	f.toReview(t)
	f.orders.createErrs = []error{errors.New("order service unavailable")}

	state, _, err := f.wizard.PlaceOrder(ctx, "key-1")
	require.ErrorIs(t, err, ErrPlacementFailed)
	assert.Equal(t, domain.StepReview, state.CurrentStep)
	assert.False(t, state.IsProcessing)
	assert.Contains(t, state.Error, "order service unavailable")
	assert.Equal(t, 2, f.cart.Snapshot().ItemCount)

	state, order, err := f.wizard.PlaceOrder(ctx, "key-1")
	require.NoError(t, err)
	assert.Empty(t, state.Error)
	assert.Equal(t, domain.StepConfirmation, state.CurrentStep)
	assert.NotEmpty(t, order.OrderNumber)
}

func TestWizard_LateFailureRestoresCart(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{})
	f.toReview(t)
	before := f.cart.Snapshot().Items
	f.orders.confirmErr = errors.New("confirmation refused")

	_, _, err := f.wizard.PlaceOrder(ctx, "")
	require.ErrorIs(t, err, ErrPlacementFailed)

	assert.Equal(t, before, f.cart.Snapshot().Items)
	orders, total := f.orders.Orders(1, 10)
	require.Equal(t, 1, total)
	assert.Equal(t, orderdomain.StatusCancelled, orders[0].Status)
}

func TestWizard_EmptyCartFailsLikeOrderCreation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{})
	f.toReview(t)
	f.cart.Clear(ctx)

	state, _, err := f.wizard.PlaceOrder(ctx, "")
	require.ErrorIs(t, err, ErrPlacementFailed)
	assert.ErrorIs(t, err, orderapp.ErrEmptyOrder)
	assert.Equal(t, domain.StepReview, state.CurrentStep)
	assert.NotEmpty(t, state.Error)
}

func TestWizard_PlaceOrderTimesOut(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{Timeout: 20 * time.Millisecond})
	f.orders.Service = orderapp.NewService(f.kv, orderapp.Options{Latency: time.Minute})
	f.toReview(t)

	_, _, err := f.wizard.PlaceOrder(ctx, "")
	require.ErrorIs(t, err, ErrPlacementFailed)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, f.cart.Snapshot().IsEmpty())
}

func TestWizard_RejectsConcurrentPlacement(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{})
	f.toReview(t)
	f.orders.createGate = make(chan struct{})

	done := make(chan error, 1)
	go func() {
		_, _, err := f.wizard.PlaceOrder(ctx, "")
		done <- err
	}()

	require.Eventually(t, func() bool { return f.wizard.State().IsProcessing }, time.Second, time.Millisecond)

	_, _, err := f.wizard.PlaceOrder(ctx, "")
	assert.ErrorIs(t, err, domain.ErrAlreadyProcessing)
	_, err = f.wizard.GoToStep(ctx, domain.StepShipping)
	assert.ErrorIs(t, err, domain.ErrAlreadyProcessing)

	close(f.orders.createGate)
	require.NoError(t, <-done)
	assert.Equal(t, 1, f.orders.createCalls)
}

func TestWizard_HydratesPersistedCheckout(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{})
	f.toReview(t)
	want := f.wizard.State()

	again := NewWizard(f.cart, f.orders, Options{SessionID: "s1", Repository: NewKVRepository(f.kv, "s1")})
	got := again.Hydrate(ctx)

	assert.Equal(t, want.CurrentStep, got.CurrentStep)
	assert.Equal(t, want.ShippingAddress, got.ShippingAddress)
	assert.Equal(t, want.PaymentMethod.ID, got.PaymentMethod.ID)

	require.NoError(t, f.kv.Set(ctx, f.kv.GenerateKey("checkout", "s1"), "{", 0))
	broken := NewWizard(f.cart, f.orders, Options{SessionID: "s1", Repository: NewKVRepository(f.kv, "s1")})
	assert.Equal(t, domain.Initial(), broken.Hydrate(ctx))
}

func TestWizard_ResetReturnsInitial(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{})
	f.toReview(t)

	assert.Equal(t, domain.Initial(), f.wizard.Reset(ctx))
	assert.Equal(t, domain.StepShipping, f.wizard.State().CurrentStep)
}

// heldOrders parks every CreateOrder until its release channel is closed.
// The first call then fails.
type heldOrders struct {
	*orderapp.Service
	entered chan struct{}
	release []chan struct{}
	calls   atomic.Int32
}

func (h *heldOrders) CreateOrder(ctx context.Context, req orderdomain.CreateOrderRequest) (orderdomain.Order, error) {
	n := int(h.calls.Add(1)) - 1
	h.entered <- struct{}{}
	<-h.release[n]
	if n == 0 {
		return orderdomain.Order{}, errors.New("order service unavailable")
	}
	return h.Service.CreateOrder(ctx, req)
}

func TestWizard_StalePlacementDoesNotOverwriteNewerOne(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{})
	held := &heldOrders{
		Service: f.orders.Service,
		entered: make(chan struct{}),
		release: []chan struct{}{make(chan struct{}), make(chan struct{})},
	}
	f.wizard = NewWizard(f.cart, held, Options{SessionID: "s1", Repository: NewKVRepository(f.kv, "s1")})
	f.toReview(t)

	firstDone := make(chan error, 1)
	go func() {
		_, _, err := f.wizard.PlaceOrder(ctx, "")
		firstDone <- err
	}()
	<-held.entered

	f.wizard.Reset(ctx)
	_, err := f.wizard.SetShippingAddress(ctx, address())
	require.NoError(t, err)
	_, err = f.wizard.SelectPaymentMethod(ctx, "pm_visa_4242")
	require.NoError(t, err)

	type result struct {
		state domain.Checkout
		err   error
	}
	secondDone := make(chan result, 1)
	go func() {
		state, _, err := f.wizard.PlaceOrder(ctx, "")
		secondDone <- result{state, err}
	}()
	<-held.entered

	close(held.release[0])
	require.ErrorIs(t, <-firstDone, ErrPlacementFailed)
	state := f.wizard.State()
	assert.True(t, state.IsProcessing)
	assert.Empty(t, state.Error)

	close(held.release[1])
	second := <-secondDone
	require.NoError(t, second.err)
	assert.Equal(t, domain.StepConfirmation, second.state.CurrentStep)
	assert.Equal(t, domain.StepConfirmation, f.wizard.State().CurrentStep)
}
