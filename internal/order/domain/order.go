package domain

import (
	"time"

	cartdomain "github.com/jcmexdev/storefront/internal/cart/domain"
)

// DeliveryWindow is added to CreatedAt to estimate delivery.
const DeliveryWindow = 7 * 24 * time.Hour

type Order struct {
	ID                string                `json:"id"`
	OrderNumber       string                `json:"orderNumber"`
	Status            OrderStatus           `json:"status"`
	Items             []cartdomain.CartItem `json:"items"`
	Subtotal          float64               `json:"subtotal"`
	Shipping          float64               `json:"shipping"`
	Tax               float64               `json:"tax"`
	Total             float64               `json:"total"`
	ShippingAddress   Address               `json:"shippingAddress"`
	BillingAddress    *Address              `json:"billingAddress,omitempty"`
	PaymentMethod     string                `json:"paymentMethod"`
	SessionID         string                `json:"sessionId,omitempty"`
	IdempotencyKey    string                `json:"idempotencyKey,omitempty"`
	CreatedAt         time.Time             `json:"createdAt"`
	UpdatedAt         time.Time             `json:"updatedAt"`
	EstimatedDelivery *time.Time            `json:"estimatedDelivery,omitempty"`
	TrackingNumber    string                `json:"trackingNumber,omitempty"`
}

// Clone returns a deep copy, so callers can never reach the stored snapshot.
func (o Order) Clone() Order {
	c := o
	c.Items = cartdomain.Cart{Items: o.Items}.CloneItems()
	if o.BillingAddress != nil {
		b := *o.BillingAddress
		c.BillingAddress = &b
	}
	if o.EstimatedDelivery != nil {
		d := *o.EstimatedDelivery
		c.EstimatedDelivery = &d
	}
	return c
}

type Address struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Street    string `json:"street"`
	City      string `json:"city"`
	State     string `json:"state"`
	ZipCode   string `json:"zipCode"`
	Country   string `json:"country"`
	Phone     string `json:"phone,omitempty"`
}

// CreateOrderRequest is what checkout hands to the order service.
type CreateOrderRequest struct {
	SessionID       string
	IdempotencyKey  string
	Items           []cartdomain.CartItem
	ShippingAddress Address
	BillingAddress  *Address
	PaymentMethod   string
}
