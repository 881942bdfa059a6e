package coordinator

import (
	"context"
	"fmt"

	cartdomain "github.com/jcmexdev/storefront/internal/cart/domain"
	orderdomain "github.com/jcmexdev/storefront/internal/order/domain"
)

// OrderClient is the part of the order service a placement needs.
type OrderClient interface {
	CreateOrder(ctx context.Context, req orderdomain.CreateOrderRequest) (orderdomain.Order, error)
	ConfirmOrder(ctx context.Context, orderNumber string) (orderdomain.Order, error)
	CancelOrder(ctx context.Context, orderNumber string) (orderdomain.Order, error)
}

// CartClient is the part of the cart store a placement needs.
type CartClient interface {
	Snapshot() cartdomain.Cart
	Take(ctx context.Context, items []cartdomain.CartItem) cartdomain.Cart
	PutBack(ctx context.Context, items []cartdomain.CartItem) cartdomain.Cart
}

// --- CreateOrderStep ---

type CreateOrderStep struct {
	client  OrderClient
	request orderdomain.CreateOrderRequest
	order   orderdomain.Order
}

func NewCreateOrderStep(client OrderClient, request orderdomain.CreateOrderRequest) *CreateOrderStep {
	return &CreateOrderStep{client: client, request: request}
}

func (s *CreateOrderStep) Name() string { return "Create_Order_Step" }

func (s *CreateOrderStep) Execute(ctx context.Context) error {
	order, err := s.client.CreateOrder(ctx, s.request)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	s.order = order
	return nil
}

func (s *CreateOrderStep) Compensate(ctx context.Context) error {
	if s.order.OrderNumber == "" {
		return nil
	}
	order, err := s.client.CancelOrder(ctx, s.order.OrderNumber)
	if err != nil {
		return err
	}
	s.order = order
	return nil
}

// Order is the order created by Execute, with its latest known status.
func (s *CreateOrderStep) Order() orderdomain.Order { return s.order }

// --- ClearCartStep ---

// ClearCartStep removes the ordered lines from the cart. Anything added to
// the cart after the order was built stays.
type ClearCartStep struct {
	cart  CartClient
	items []cartdomain.CartItem
	taken bool
}

func NewClearCartStep(cart CartClient, ordered []cartdomain.CartItem) *ClearCartStep {
	return &ClearCartStep{cart: cart, items: cartdomain.Cart{Items: ordered}.CloneItems()}
}

func (s *ClearCartStep) Name() string { return "Clear_Cart_Step" }

func (s *ClearCartStep) Execute(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.cart.Take(ctx, s.items)
	s.taken = true
	return nil
}

func (s *ClearCartStep) Compensate(ctx context.Context) error {
	if s.taken {
		s.cart.PutBack(ctx, s.items)
		s.taken = false
	}
	return nil
}

// --- ConfirmOrderStep ---

type ConfirmOrderStep struct {
	client  OrderClient
	created *CreateOrderStep
}

// NewConfirmOrderStep confirms whatever order created produced.
func NewConfirmOrderStep(client OrderClient, created *CreateOrderStep) *ConfirmOrderStep {
	return &ConfirmOrderStep{client: client, created: created}
}

func (s *ConfirmOrderStep) Name() string { return "Confirm_Order_Step" }

func (s *ConfirmOrderStep) Execute(ctx context.Context) error {
	number := s.created.order.OrderNumber
	if number == "" {
		return fmt.Errorf("no order to confirm")
	}
	if s.created.order.Status == orderdomain.StatusConfirmed {
		// replayed by idempotency key
		return nil
	}
	order, err := s.client.ConfirmOrder(ctx, number)
	if err != nil {
		return fmt.Errorf("failed to confirm order %s: %w", number, err)
	}
	s.created.order = order
	return nil
}

// Compensate is a no-op; this is the last step.
func (s *ConfirmOrderStep) Compensate(ctx context.Context) error {
	return nil
}
