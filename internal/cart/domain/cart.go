package domain

const (
	// FreeShippingThreshold is the subtotal a cart must exceed to ship for free.
	FreeShippingThreshold = 35.0
	// FlatShippingFee applies to carts at or below the threshold.
	FlatShippingFee = 5.99
	// TaxRate is applied to the subtotal.
	TaxRate = 0.08
)

type CartItem struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	UnitPrice       float64  `json:"unitPrice"`
	OriginalPrice   *float64 `json:"originalPrice,omitempty"`
	Image           string   `json:"image"`
	Quantity        int      `json:"quantity"`
	InStock         bool     `json:"inStock"`
	IsPrimeEligible *bool    `json:"isPrimeEligible,omitempty"`
	Seller          string   `json:"seller,omitempty"`
}

// LineTotal is UnitPrice multiplied by Quantity.
func (i CartItem) LineTotal() float64 {
	return i.UnitPrice * float64(i.Quantity)
}

// Cart is the cart aggregate. Every field except Items and IsOpen is derived
// from Items and only ever set by withItems.
type Cart struct {
	Items       []CartItem `json:"items"`
	ItemCount   int        `json:"itemCount"`
	Subtotal    float64    `json:"subtotal"`
	ShippingFee float64    `json:"shippingFee"`
	Tax         float64    `json:"tax"`
	Total       float64    `json:"total"`
	IsOpen      bool       `json:"isOpen"`
}

// Empty returns the initial cart.
func Empty() Cart {
	return Cart{Items: []CartItem{}}
}

func (c Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// Find returns the line with the given product id.
func (c Cart) Find(id string) (CartItem, bool) {
	for _, it := range c.Items {
		if it.ID == id {
			return it, true
		}
	}
	return CartItem{}, false
}

// CloneItems returns a copy of the item list that shares nothing with c.
func (c Cart) CloneItems() []CartItem {
	return cloneItems(c.Items)
}

// Totals holds the money figures derived from a list of items.
type Totals struct {
	ItemCount   int     `json:"itemCount"`
	Subtotal    float64 `json:"subtotal"`
	ShippingFee float64 `json:"shippingFee"`
	Tax         float64 `json:"tax"`
	Total       float64 `json:"total"`
}

// ComputeTotals derives the totals for items. An empty list yields zero totals,
// including a zero shipping fee, the same as a cleared cart.
func ComputeTotals(items []CartItem) Totals {
	if len(items) == 0 {
		return Totals{}
	}

	var t Totals
	for _, it := range items {
		t.ItemCount += it.Quantity
		t.Subtotal += it.LineTotal()
	}

	t.ShippingFee = ShippingFor(t.Subtotal)
	t.Tax = t.Subtotal * TaxRate
	t.Total = t.Subtotal + t.ShippingFee + t.Tax
	return t
}

// ShippingFor returns the shipping fee charged on subtotal.
func ShippingFor(subtotal float64) float64 {
	if subtotal > FreeShippingThreshold {
		return 0
	}
	return FlatShippingFee
}

func (c Cart) Totals() Totals {
	return Totals{
		ItemCount:   c.ItemCount,
		Subtotal:    c.Subtotal,
		ShippingFee: c.ShippingFee,
		Tax:         c.Tax,
		Total:       c.Total,
	}
}

func withItems(c Cart, items []CartItem) Cart {
	t := ComputeTotals(items)
	return Cart{
		Items:       items,
		ItemCount:   t.ItemCount,
		Subtotal:    t.Subtotal,
		ShippingFee: t.ShippingFee,
		Tax:         t.Tax,
		Total:       t.Total,
		IsOpen:      c.IsOpen,
	}
}

func cloneItems(items []CartItem) []CartItem {
	out := make([]CartItem, len(items))
	for i, it := range items {
		out[i] = it
		if it.OriginalPrice != nil {
			v := *it.OriginalPrice
			out[i].OriginalPrice = &v
		}
		if it.IsPrimeEligible != nil {
			v := *it.IsPrimeEligible
			out[i].IsPrimeEligible = &v
		}
	}
	return out
}
