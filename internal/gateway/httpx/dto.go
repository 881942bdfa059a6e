package httpx

import (
	"time"

	"github.com/shopspring/decimal"

	cartdomain "github.com/jcmexdev/storefront/internal/cart/domain"
	checkoutdomain "github.com/jcmexdev/storefront/internal/checkout/domain"
	orderdomain "github.com/jcmexdev/storefront/internal/order/domain"
)

// money rounds to cents for display. Stored values keep full precision.
func money(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

// --- requests ---

type AddItemRequest struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	UnitPrice       float64  `json:"unitPrice"`
	OriginalPrice   *float64 `json:"originalPrice,omitempty"`
	Image           string   `json:"image"`
	InStock         *bool    `json:"inStock,omitempty"`
	IsPrimeEligible *bool    `json:"isPrimeEligible,omitempty"`
	Seller          string   `json:"seller,omitempty"`
}

type UpdateQuantityRequest struct {
	Quantity *int `json:"quantity"`
}

type BillingRequest struct {
	UseSameAddressForBilling *bool                           `json:"useSameAddressForBilling,omitempty"`
	Address                  *checkoutdomain.ShippingAddress `json:"address,omitempty"`
}

type PaymentRequest struct {
	SavedMethodID string                   `json:"savedMethodId,omitempty"`
	Card          *checkoutdomain.CardForm `json:"card,omitempty"`
}

type StepRequest struct {
	Step string `json:"step"`
}

type StatusRequest struct {
	Status string `json:"status"`
}

// --- responses ---

type CartItemResponse struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	UnitPrice       float64  `json:"unitPrice"`
	OriginalPrice   *float64 `json:"originalPrice,omitempty"`
	Image           string   `json:"image"`
	Quantity        int      `json:"quantity"`
	InStock         bool     `json:"inStock"`
	IsPrimeEligible *bool    `json:"isPrimeEligible,omitempty"`
	Seller          string   `json:"seller,omitempty"`
	LineTotal       float64  `json:"lineTotal"`
}

type CartResponse struct {
	Items       []CartItemResponse `json:"items"`
	ItemCount   int                `json:"itemCount"`
	Subtotal    float64            `json:"subtotal"`
	ShippingFee float64            `json:"shippingFee"`
	Tax         float64            `json:"tax"`
	Total       float64            `json:"total"`
	IsOpen      bool               `json:"isOpen"`
}

type SummaryResponse struct {
	Items     []CartItemResponse `json:"items"`
	ItemCount int                `json:"itemCount"`
	Subtotal  float64            `json:"subtotal"`
	Shipping  float64            `json:"shipping"`
	Tax       float64            `json:"tax"`
	Total     float64            `json:"total"`
}

type CheckoutResponse struct {
	CurrentStep              checkoutdomain.Step             `json:"currentStep"`
	ShippingAddress          *checkoutdomain.ShippingAddress `json:"shippingAddress,omitempty"`
	BillingAddress           *checkoutdomain.ShippingAddress `json:"billingAddress,omitempty"`
	UseSameAddressForBilling bool                            `json:"useSameAddressForBilling"`
	PaymentMethod            *checkoutdomain.PaymentMethod   `json:"paymentMethod,omitempty"`
	OrderSummary             SummaryResponse                 `json:"orderSummary"`
	IsProcessing             bool                            `json:"isProcessing"`
	Error                    string                          `json:"error,omitempty"`
	OrderID                  string                          `json:"orderId,omitempty"`
	OrderNumber              string                          `json:"orderNumber,omitempty"`
}

type CheckoutStateResponse struct {
	Checkout     CheckoutResponse               `json:"checkout"`
	SavedMethods []checkoutdomain.PaymentMethod `json:"savedMethods"`
}

type ReviewResponse struct {
	Summary         SummaryResponse                `json:"summary"`
	ShippingAddress checkoutdomain.ShippingAddress `json:"shippingAddress"`
	BillingAddress  checkoutdomain.ShippingAddress `json:"billingAddress"`
	PaymentMethod   checkoutdomain.PaymentMethod   `json:"paymentMethod"`
}

type PlaceOrderResponse struct {
	Checkout CheckoutResponse `json:"checkout"`
	Order    OrderResponse    `json:"order"`
}

type OrderResponse struct {
	ID                string               `json:"id"`
	OrderNumber       string               `json:"orderNumber"`
	Status            string               `json:"status"`
	Items             []CartItemResponse   `json:"items"`
	Subtotal          float64              `json:"subtotal"`
	Shipping          float64              `json:"shipping"`
	Tax               float64              `json:"tax"`
	Total             float64              `json:"total"`
	ShippingAddress   orderdomain.Address  `json:"shippingAddress"`
	BillingAddress    *orderdomain.Address `json:"billingAddress,omitempty"`
	PaymentMethod     string               `json:"paymentMethod"`
	CreatedAt         string               `json:"createdAt"`
	UpdatedAt         string               `json:"updatedAt"`
	EstimatedDelivery string               `json:"estimatedDelivery,omitempty"`
	TrackingNumber    string               `json:"trackingNumber,omitempty"`
}

// --- mapping ---

func (r AddItemRequest) toItem() cartdomain.CartItem {
	inStock := true
	if r.InStock != nil {
		inStock = *r.InStock
	}
	return cartdomain.CartItem{
		ID:              r.ID,
		Name:            r.Name,
		UnitPrice:       r.UnitPrice,
		OriginalPrice:   r.OriginalPrice,
		Image:           r.Image,
		InStock:         inStock,
		IsPrimeEligible: r.IsPrimeEligible,
		Seller:          r.Seller,
	}
}

func mapItems(items []cartdomain.CartItem) []CartItemResponse {
	out := make([]CartItemResponse, len(items))
	for i, it := range items {
		out[i] = CartItemResponse{
			ID:              it.ID,
			Name:            it.Name,
			UnitPrice:       money(it.UnitPrice),
			OriginalPrice:   it.OriginalPrice,
			Image:           it.Image,
			Quantity:        it.Quantity,
			InStock:         it.InStock,
			IsPrimeEligible: it.IsPrimeEligible,
			Seller:          it.Seller,
			LineTotal:       money(it.LineTotal()),
		}
	}
	return out
}

func mapCart(c cartdomain.Cart) CartResponse {
	return CartResponse{
		Items:       mapItems(c.Items),
		ItemCount:   c.ItemCount,
		Subtotal:    money(c.Subtotal),
		ShippingFee: money(c.ShippingFee),
		Tax:         money(c.Tax),
		Total:       money(c.Total),
		IsOpen:      c.IsOpen,
	}
}

func mapSummary(s checkoutdomain.OrderSummary) SummaryResponse {
	return SummaryResponse{
		Items:     mapItems(s.Items),
		ItemCount: s.ItemCount,
		Subtotal:  money(s.Subtotal),
		Shipping:  money(s.Shipping),
		Tax:       money(s.Tax),
		Total:     money(s.Total),
	}
}

func mapCheckout(c checkoutdomain.Checkout) CheckoutResponse {
	return CheckoutResponse{
		CurrentStep:              c.CurrentStep,
		ShippingAddress:          c.ShippingAddress,
		BillingAddress:           c.BillingAddress,
		UseSameAddressForBilling: c.UseSameAddressForBilling,
		PaymentMethod:            c.PaymentMethod,
		OrderSummary:             mapSummary(c.OrderSummary),
		IsProcessing:             c.IsProcessing,
		Error:                    c.Error,
		OrderID:                  c.OrderID,
		OrderNumber:              c.OrderNumber,
	}
}

func mapReview(r checkoutdomain.Review) ReviewResponse {
	return ReviewResponse{
		Summary:         mapSummary(r.Summary),
		ShippingAddress: r.ShippingAddress,
		BillingAddress:  r.BillingAddress,
		PaymentMethod:   r.PaymentMethod,
	}
}

func mapOrder(o orderdomain.Order) OrderResponse {
	resp := OrderResponse{
		ID:              o.ID,
		OrderNumber:     o.OrderNumber,
		Status:          string(o.Status),
		Items:           mapItems(o.Items),
		Subtotal:        money(o.Subtotal),
		Shipping:        money(o.Shipping),
		Tax:             money(o.Tax),
		Total:           money(o.Total),
		ShippingAddress: o.ShippingAddress,
		BillingAddress:  o.BillingAddress,
		PaymentMethod:   o.PaymentMethod,
		CreatedAt:       o.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       o.UpdatedAt.Format(time.RFC3339),
		TrackingNumber:  o.TrackingNumber,
	}
	if o.EstimatedDelivery != nil {
		resp.EstimatedDelivery = o.EstimatedDelivery.Format(time.RFC3339)
	}
	return resp
}

func mapOrders(orders []orderdomain.Order) []OrderResponse {
	out := make([]OrderResponse, len(orders))
	for i, o := range orders {
		out[i] = mapOrder(o)
	}
	return out
}
