package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jcmexdev/storefront/internal/checkout/domain"
	"github.com/jcmexdev/storefront/internal/coordinator"
	"github.com/jcmexdev/storefront/internal/coordinator/sagalog"
	orderdomain "github.com/jcmexdev/storefront/internal/order/domain"
)

// ErrPlacementFailed wraps every order-creation failure. The checkout stays
// on review and the call may be retried.
var ErrPlacementFailed = errors.New("failed to place order")

const DefaultPlaceOrderTimeout = 10 * time.Second

type Options struct {
	SessionID string
	// Repository persists the checkout. Nil keeps it in memory only.
	Repository Repository
	// SagaLog records placement transitions. May be nil.
	SagaLog sagalog.Repository
	// Timeout bounds one PlaceOrder call.
	Timeout time.Duration
	Now     func() time.Time
}

// Wizard drives one session's checkout. Operations are serialised; the lock
// is released while an order is being placed.
type Wizard struct {
	mu        sync.Mutex
	state     domain.Checkout
	saved     []domain.PaymentMethod
	hydrated  bool
	placement string // saga id of the placement in flight

	cart      coordinator.CartClient
	orders    coordinator.OrderClient
	repo      Repository
	sagaLog   sagalog.Repository
	sessionID string
	timeout   time.Duration
	now       func() time.Time
}

func NewWizard(cart coordinator.CartClient, orders coordinator.OrderClient, opts Options) *Wizard {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultPlaceOrderTimeout
	}
	return &Wizard{
		state:     domain.Initial(),
		saved:     domain.SeedMethods(now()),
		cart:      cart,
		orders:    orders,
		repo:      opts.Repository,
		sagaLog:   opts.SagaLog,
		sessionID: opts.SessionID,
		timeout:   timeout,
		now:       now,
	}
}

// Hydrate restores the persisted checkout once. An interrupted placement is
// not resumed; the checkout comes back on review, ready to retry.
func (w *Wizard) Hydrate(ctx context.Context) domain.Checkout {
	ctx = context.WithoutCancel(ctx)
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.hydrated || w.repo == nil {
		w.hydrated = true
		return w.state.Clone()
	}
	w.hydrated = true

	rec, found, err := w.repo.Load(ctx)
	if err != nil {
		slog.WarnContext(ctx, "discarding unreadable checkout", "session_id", w.sessionID, "error", err)
		return w.state.Clone()
	}
	if !found {
		return w.state.Clone()
	}

	state := rec.Checkout
	if state.CurrentStep == "" {
		state = domain.Initial()
	}
	if state.IsProcessing {
		state = state.PlacementFailed("previous order placement was interrupted")
	}
	w.state = state
	if len(rec.SavedMethods) > 0 {
		w.saved = rec.SavedMethods
	}
	return w.state.Clone()
}

// State returns the checkout with the summary recomputed from the cart,
// except on confirmation where it keeps the placed order's totals.
func (w *Wizard) State() domain.Checkout {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.view()
}

func (w *Wizard) SavedMethods() []domain.PaymentMethod {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := make([]domain.PaymentMethod, len(w.saved))
	copy(out, w.saved)
	return out
}

func (w *Wizard) SetShippingAddress(ctx context.Context, a domain.ShippingAddress) (domain.Checkout, error) {
	return w.apply(ctx, func(c domain.Checkout) (domain.Checkout, error) {
		return c.SetShippingAddress(a)
	})
}

func (w *Wizard) SetUseSameAddressForBilling(ctx context.Context, same bool) (domain.Checkout, error) {
	return w.apply(ctx, func(c domain.Checkout) (domain.Checkout, error) {
		return c.SetUseSameAddressForBilling(same)
	})
}

func (w *Wizard) SetBillingAddress(ctx context.Context, a domain.ShippingAddress) (domain.Checkout, error) {
	return w.apply(ctx, func(c domain.Checkout) (domain.Checkout, error) {
		return c.SetBillingAddress(a)
	})
}

// SelectPaymentMethod picks one of the saved methods by id.
func (w *Wizard) SelectPaymentMethod(ctx context.Context, id string) (domain.Checkout, error) {
	return w.apply(ctx, func(c domain.Checkout) (domain.Checkout, error) {
		for _, m := range w.saved {
			if m.ID == id {
				return c.SetPaymentMethod(m)
			}
		}
		return c, fmt.Errorf("%w: %s", domain.ErrUnknownPaymentMethod, id)
	})
}

// SubmitNewCard validates a card form and uses it as the payment method,
// adding it to the saved list when requested.
func (w *Wizard) SubmitNewCard(ctx context.Context, form domain.CardForm) (domain.Checkout, error) {
	return w.apply(ctx, func(c domain.Checkout) (domain.Checkout, error) {
		if err := domain.ValidateCard(form, w.now()); err != nil {
			return c, err
		}
		method := domain.NewPaymentMethod("pm_"+uuid.NewString(), form)
		next, err := c.SetPaymentMethod(method)
		if err != nil {
			return c, err
		}
		if form.SaveCard {
			w.saved = append(w.saved, method)
		}
		return next, nil
	})
}

func (w *Wizard) GoToStep(ctx context.Context, step domain.Step) (domain.Checkout, error) {
	return w.apply(ctx, func(c domain.Checkout) (domain.Checkout, error) {
		return c.GoToStep(step)
	})
}

// Review returns the review view computed from the cart as it is now.
func (w *Wizard) Review() (domain.Review, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state.Review(w.cart.Snapshot())
}

// PlaceOrder turns the cart into an order. On success the checkout moves to
// confirmation and the cart is empty; on failure the checkout stays on
// review with Error set and the cart untouched.
func (w *Wizard) PlaceOrder(ctx context.Context, idempotencyKey string) (domain.Checkout, orderdomain.Order, error) {
	w.mu.Lock()
	cart := w.cart.Snapshot()
	started, err := w.state.BeginPlacement(cart)
	if err != nil {
		w.mu.Unlock()
		return w.State(), orderdomain.Order{}, err
	}
	w.state = started
	sagaID := uuid.NewString()
	w.placement = sagaID
	w.persist(ctx)
	req := orderdomain.CreateOrderRequest{
		SessionID:       w.sessionID,
		IdempotencyKey:  idempotencyKey,
		Items:           cart.CloneItems(),
		ShippingAddress: toOrderAddress(*started.ShippingAddress),
		PaymentMethod:   started.PaymentMethod.Label(),
	}
	if !started.UseSameAddressForBilling && started.BillingAddress != nil {
		b := toOrderAddress(*started.BillingAddress)
		req.BillingAddress = &b
	}
	w.mu.Unlock()

	order, err := w.runPlacement(ctx, sagaID, req)
	ctx = context.WithoutCancel(ctx)

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.placement != sagaID {
		// reset while the order was being placed, possibly followed by a
		// newer placement that now owns the state
		if err != nil {
			err = fmt.Errorf("%w: %w", ErrPlacementFailed, err)
		}
		return w.view(), order, err
	}
	w.placement = ""
	if err != nil {
		w.state = w.state.PlacementFailed(fmt.Sprintf("%s: %v", ErrPlacementFailed, err))
		w.persist(ctx)
		return w.view(), orderdomain.Order{}, fmt.Errorf("%w: %w", ErrPlacementFailed, err)
	}
	w.state = w.state.PlacementSucceeded(order.ID, order.OrderNumber)
	w.persist(ctx)
	return w.view(), order, nil
}

// Reset returns the checkout to its initial state.
func (w *Wizard) Reset(ctx context.Context) domain.Checkout {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.state = domain.Initial()
	w.placement = ""
	w.persist(ctx)
	return w.state.Clone()
}

func (w *Wizard) runPlacement(ctx context.Context, sagaID string, req orderdomain.CreateOrderRequest) (orderdomain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	create := coordinator.NewCreateOrderStep(w.orders, req)
	steps := []coordinator.Step{
		create,
		coordinator.NewClearCartStep(w.cart, req.Items),
		coordinator.NewConfirmOrderStep(w.orders, create),
	}

	payload, _ := json.Marshal(placementPayload{
		SessionID:      req.SessionID,
		IdempotencyKey: req.IdempotencyKey,
		Lines:          len(req.Items),
		PaymentMethod:  req.PaymentMethod,
	})
	slog.InfoContext(ctx, "placing order", "session_id", w.sessionID, "saga_id", sagaID, "lines", len(req.Items))

	saga := coordinator.NewOrchestrator(sagaID, steps, w.sagaLog).WithPayload(string(payload))
	if err := saga.Start(ctx); err != nil {
		return orderdomain.Order{}, err
	}
	return create.Order(), nil
}

type placementPayload struct {
	SessionID      string `json:"sessionId"`
	IdempotencyKey string `json:"idempotencyKey,omitempty"`
	Lines          int    `json:"lines"`
	PaymentMethod  string `json:"paymentMethod"`
}

// apply runs a transition and persists the result when it succeeds.
func (w *Wizard) apply(ctx context.Context, fn func(domain.Checkout) (domain.Checkout, error)) (domain.Checkout, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	next, err := fn(w.state)
	if err != nil {
		return w.view(), err
	}
	w.state = next
	w.persist(ctx)
	return w.view(), nil
}

// view must be called with w.mu held.
func (w *Wizard) view() domain.Checkout {
	c := w.state.Clone()
	if c.CurrentStep != domain.StepConfirmation && !c.IsProcessing {
		c.OrderSummary = domain.SummarizeCart(w.cart.Snapshot())
	}
	return c
}

// persist must be called with w.mu held.
func (w *Wizard) persist(ctx context.Context) {
	if w.repo == nil {
		return
	}
	saved := make([]domain.PaymentMethod, len(w.saved))
	copy(saved, w.saved)
	if err := w.repo.Save(ctx, Record{Checkout: w.state, SavedMethods: saved}); err != nil {
		slog.ErrorContext(ctx, "failed to persist checkout", "session_id", w.sessionID, "error", err)
	}
}

func toOrderAddress(a domain.ShippingAddress) orderdomain.Address {
	return orderdomain.Address{
		FirstName: a.FirstName,
		LastName:  a.LastName,
		Street:    a.Street,
		City:      a.City,
		State:     a.State,
		ZipCode:   a.ZipCode,
		Country:   a.Country,
		Phone:     a.Phone,
	}
}
