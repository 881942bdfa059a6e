package domain

import (
	"fmt"

	cartdomain "github.com/jcmexdev/storefront/internal/cart/domain"
)

type Step string

const (
	StepShipping     Step = "shipping"
	StepPayment      Step = "payment"
	StepReview       Step = "review"
	StepConfirmation Step = "confirmation"
)

var stepOrder = map[Step]int{
	StepShipping:     0,
	StepPayment:      1,
	StepReview:       2,
	StepConfirmation: 3,
}

func ParseStep(s string) (Step, error) {
	st := Step(s)
	if _, ok := stepOrder[st]; !ok {
		return "", fmt.Errorf("unknown checkout step %q", s)
	}
	return st, nil
}

// Before reports whether s comes earlier in the wizard than other.
func (s Step) Before(other Step) bool {
	return stepOrder[s] < stepOrder[other]
}

// OrderSummary is the totals snapshot shown on review.
type OrderSummary struct {
	Items     []cartdomain.CartItem `json:"items"`
	ItemCount int                   `json:"itemCount"`
	Subtotal  float64               `json:"subtotal"`
	Shipping  float64               `json:"shipping"`
	Tax       float64               `json:"tax"`
	Total     float64               `json:"total"`
}

func SummarizeCart(c cartdomain.Cart) OrderSummary {
	items := c.CloneItems()
	t := cartdomain.ComputeTotals(items)
	return OrderSummary{
		Items:     items,
		ItemCount: t.ItemCount,
		Subtotal:  t.Subtotal,
		Shipping:  t.ShippingFee,
		Tax:       t.Tax,
		Total:     t.Total,
	}
}

// Review is everything the review step displays.
type Review struct {
	Summary         OrderSummary    `json:"summary"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	BillingAddress  ShippingAddress `json:"billingAddress"`
	PaymentMethod   PaymentMethod   `json:"paymentMethod"`
}

// Checkout is the wizard aggregate. Transitions return a new value and leave
// the receiver untouched.
type Checkout struct {
	CurrentStep              Step             `json:"currentStep"`
	ShippingAddress          *ShippingAddress `json:"shippingAddress,omitempty"`
	BillingAddress           *ShippingAddress `json:"billingAddress,omitempty"`
	UseSameAddressForBilling bool             `json:"useSameAddressForBilling"`
	PaymentMethod            *PaymentMethod   `json:"paymentMethod,omitempty"`
	OrderSummary             OrderSummary     `json:"orderSummary"`
	IsProcessing             bool             `json:"isProcessing"`
	Error                    string           `json:"error,omitempty"`
	OrderID                  string           `json:"orderId,omitempty"`
	OrderNumber              string           `json:"orderNumber,omitempty"`
}

// Initial is the aggregate a new or reset checkout starts from.
func Initial() Checkout {
	return Checkout{
		CurrentStep:              StepShipping,
		UseSameAddressForBilling: true,
		OrderSummary:             OrderSummary{Items: []cartdomain.CartItem{}},
	}
}

func (c Checkout) Clone() Checkout {
	out := c
	if c.ShippingAddress != nil {
		a := *c.ShippingAddress
		out.ShippingAddress = &a
	}
	if c.BillingAddress != nil {
		a := *c.BillingAddress
		out.BillingAddress = &a
	}
	if c.PaymentMethod != nil {
		m := *c.PaymentMethod
		out.PaymentMethod = &m
	}
	out.OrderSummary.Items = cartdomain.Cart{Items: c.OrderSummary.Items}.CloneItems()
	return out
}

// SetShippingAddress validates a and moves to payment.
func (c Checkout) SetShippingAddress(a ShippingAddress) (Checkout, error) {
	if err := c.editable(); err != nil {
		return c, err
	}
	if err := ValidateAddress(a); err != nil {
		return c, err
	}
	next := c.advance()
	next.ShippingAddress = &a
	if next.UseSameAddressForBilling {
		b := a
		next.BillingAddress = &b
	}
	next.CurrentStep = StepPayment
	return next, nil
}

// SetUseSameAddressForBilling toggles mirroring. Turning it on copies the
// shipping address into billing immediately.
func (c Checkout) SetUseSameAddressForBilling(same bool) (Checkout, error) {
	if err := c.editable(); err != nil {
		return c, err
	}
	next := c.advance()
	next.UseSameAddressForBilling = same
	if same {
		next.BillingAddress = nil
		if next.ShippingAddress != nil {
			b := *next.ShippingAddress
			next.BillingAddress = &b
		}
	}
	return next, nil
}

// SetBillingAddress records a separate billing address and stops mirroring.
func (c Checkout) SetBillingAddress(a ShippingAddress) (Checkout, error) {
	if err := c.editable(); err != nil {
		return c, err
	}
	if err := ValidateAddress(a); err != nil {
		return c, err
	}
	next := c.advance()
	next.UseSameAddressForBilling = false
	next.BillingAddress = &a
	return next, nil
}

// SetPaymentMethod records m and moves to review. It requires a shipping
// address.
func (c Checkout) SetPaymentMethod(m PaymentMethod) (Checkout, error) {
	if err := c.editable(); err != nil {
		return c, err
	}
	if c.ShippingAddress == nil {
		return c, fmt.Errorf("%w: shipping address required before payment", ErrStepLocked)
	}
	next := c.advance()
	next.PaymentMethod = &m
	next.CurrentStep = StepReview
	return next, nil
}

// GoToStep navigates the wizard. Going back is always allowed; going forward
// needs the target's prerequisites. Confirmation is only reached by placing
// the order.
func (c Checkout) GoToStep(target Step) (Checkout, error) {
	if _, ok := stepOrder[target]; !ok {
		return c, fmt.Errorf("unknown checkout step %q", target)
	}
	if err := c.editable(); err != nil {
		return c, err
	}
	if target == StepConfirmation {
		return c, fmt.Errorf("%w: confirmation is reached by placing the order", ErrStepLocked)
	}
	if c.CurrentStep.Before(target) {
		if err := c.CanEnter(target); err != nil {
			return c, err
		}
	}
	next := c.advance()
	next.CurrentStep = target
	return next, nil
}

// CanEnter reports whether the prerequisites of step are met.
func (c Checkout) CanEnter(step Step) error {
	switch step {
	case StepShipping:
		return nil
	case StepPayment:
		if c.ShippingAddress == nil {
			return fmt.Errorf("%w: shipping address required", ErrStepLocked)
		}
		return nil
	case StepReview:
		if c.ShippingAddress == nil {
			return fmt.Errorf("%w: shipping address required", ErrStepLocked)
		}
		if c.PaymentMethod == nil {
			return fmt.Errorf("%w: payment method required", ErrStepLocked)
		}
		return nil
	case StepConfirmation:
		if c.OrderID == "" {
			return fmt.Errorf("%w: order not placed", ErrStepLocked)
		}
		return nil
	default:
		return fmt.Errorf("unknown checkout step %q", step)
	}
}

// Review assembles the review view from the current cart.
func (c Checkout) Review(cart cartdomain.Cart) (Review, error) {
	if err := c.CanEnter(StepReview); err != nil {
		return Review{}, err
	}
	billing := *c.ShippingAddress
	if c.BillingAddress != nil {
		billing = *c.BillingAddress
	}
	return Review{
		Summary:         SummarizeCart(cart),
		ShippingAddress: *c.ShippingAddress,
		BillingAddress:  billing,
		PaymentMethod:   *c.PaymentMethod,
	}, nil
}

// BeginPlacement marks the checkout as processing. Only allowed on review.
func (c Checkout) BeginPlacement(cart cartdomain.Cart) (Checkout, error) {
	if c.IsProcessing {
		return c, ErrAlreadyProcessing
	}
	if err := c.editable(); err != nil {
		return c, err
	}
	if c.CurrentStep != StepReview {
		return c, fmt.Errorf("%w: orders are placed from review", ErrStepLocked)
	}
	if err := c.CanEnter(StepReview); err != nil {
		return c, err
	}
	next := c.Clone()
	next.IsProcessing = true
	next.Error = ""
	next.OrderSummary = SummarizeCart(cart)
	return next, nil
}

// PlacementFailed stays on review with msg as the checkout error.
func (c Checkout) PlacementFailed(msg string) Checkout {
	next := c.Clone()
	next.IsProcessing = false
	next.Error = msg
	next.CurrentStep = StepReview
	return next
}

// PlacementSucceeded moves to confirmation carrying the order identity.
func (c Checkout) PlacementSucceeded(orderID, orderNumber string) Checkout {
	next := c.Clone()
	next.IsProcessing = false
	next.Error = ""
	next.OrderID = orderID
	next.OrderNumber = orderNumber
	next.CurrentStep = StepConfirmation
	return next
}

// advance copies c for a user-driven transition, dropping any placement
// error.
func (c Checkout) advance() Checkout {
	next := c.Clone()
	next.Error = ""
	return next
}

func (c Checkout) editable() error {
	if c.CurrentStep == StepConfirmation {
		return ErrCompleted
	}
	if c.IsProcessing {
		return ErrAlreadyProcessing
	}
	return nil
}
