package domain

import (
	"fmt"
	"strings"
	"time"
)

// PaymentMethod is an opaque, already-accepted card. The CVV only lives in
// memory for the current session.
type PaymentMethod struct {
	ID               string `json:"id"`
	Brand            string `json:"brand"`
	CardNumberMasked string `json:"cardNumberMasked"`
	ExpiryMonth      int    `json:"expiryMonth"`
	ExpiryYear       int    `json:"expiryYear"`
	CVV              string `json:"-"`
	CardholderName   string `json:"cardholderName"`
	IsDefault        bool   `json:"isDefault"`
}

// Label is what the order records as its payment method.
func (m PaymentMethod) Label() string {
	return fmt.Sprintf("%s ending in %s", m.Brand, lastFour(m.CardNumberMasked))
}

type CardForm struct {
	CardNumber     string `json:"cardNumber"`
	ExpiryMonth    int    `json:"expiryMonth"`
	ExpiryYear     int    `json:"expiryYear"`
	CVV            string `json:"cvv"`
	CardholderName string `json:"cardholderName"`
	SaveCard       bool   `json:"saveCard"`
}

const (
	minCardDigits = 13
	minCVVDigits  = 3
)

// ValidateCard checks a new-card form against now's year. It returns
// FieldErrors or nil.
func ValidateCard(f CardForm, now time.Time) error {
	errs := FieldErrors{}

	number := stripCardNumber(f.CardNumber)
	if !isDigits(number) || len(number) < minCardDigits {
		errs["cardNumber"] = "Card number must be at least 13 digits"
	}
	if f.ExpiryMonth < 1 || f.ExpiryMonth > 12 {
		errs["expiryMonth"] = "Expiry month must be between 1 and 12"
	}
	if f.ExpiryYear < now.Year() {
		errs["expiryYear"] = "Card has expired"
	}
	cvv := strings.TrimSpace(f.CVV)
	if !isDigits(cvv) || len(cvv) < minCVVDigits {
		errs["cvv"] = "CVV must be at least 3 digits"
	}
	if strings.TrimSpace(f.CardholderName) == "" {
		errs["cardholderName"] = "Cardholder name is required"
	}
	return errs.orNil()
}

// NewPaymentMethod turns a validated form into a PaymentMethod with the
// number masked.
func NewPaymentMethod(id string, f CardForm) PaymentMethod {
	number := stripCardNumber(f.CardNumber)
	return PaymentMethod{
		ID:               id,
		Brand:            cardBrand(number),
		CardNumberMasked: MaskCardNumber(number),
		ExpiryMonth:      f.ExpiryMonth,
		ExpiryYear:       f.ExpiryYear,
		CVV:              strings.TrimSpace(f.CVV),
		CardholderName:   strings.TrimSpace(f.CardholderName),
	}
}

// MaskCardNumber keeps only the last four digits.
func MaskCardNumber(number string) string {
	return "**** **** **** " + lastFour(stripCardNumber(number))
}

// SeedMethods returns the saved cards every new session starts with.
func SeedMethods(now time.Time) []PaymentMethod {
	return []PaymentMethod{
		{
			ID:               "pm_visa_4242",
			Brand:            "Visa",
			CardNumberMasked: MaskCardNumber("4242424242424242"),
			ExpiryMonth:      12,
			ExpiryYear:       now.Year() + 3,
			CardholderName:   "Storefront Shopper",
			IsDefault:        true,
		},
		{
			ID:               "pm_mc_4444",
			Brand:            "Mastercard",
			CardNumberMasked: MaskCardNumber("5555555555554444"),
			ExpiryMonth:      6,
			ExpiryYear:       now.Year() + 2,
			CardholderName:   "Storefront Shopper",
		},
	}
}

func stripCardNumber(s string) string {
	return strings.NewReplacer(" ", "", "-", "").Replace(strings.TrimSpace(s))
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func lastFour(s string) string {
	if len(s) <= 4 {
		return s
	}
	return s[len(s)-4:]
}

func cardBrand(number string) string {
	switch {
	case strings.HasPrefix(number, "4"):
		return "Visa"
	case strings.HasPrefix(number, "34"), strings.HasPrefix(number, "37"):
		return "Amex"
	case len(number) > 0 && number[0] == '5':
		return "Mastercard"
	case strings.HasPrefix(number, "6"):
		return "Discover"
	default:
		return "Card"
	}
}
