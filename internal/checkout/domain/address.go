package domain

import "strings"

type ShippingAddress struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Street    string `json:"street"`
	City      string `json:"city"`
	State     string `json:"state"`
	ZipCode   string `json:"zipCode"`
	Country   string `json:"country"`
	Phone     string `json:"phone,omitempty"`
}

const (
	minPhoneDigits = 10
	maxPhoneDigits = 15
)

// ValidateAddress checks the required fields and, when present, the phone
// shape. It returns FieldErrors or nil.
func ValidateAddress(a ShippingAddress) error {
	errs := FieldErrors{}
	required := []struct {
		field, value, label string
	}{
		{"firstName", a.FirstName, "First name"},
		{"lastName", a.LastName, "Last name"},
		{"street", a.Street, "Street address"},
		{"city", a.City, "City"},
		{"state", a.State, "State"},
		{"zipCode", a.ZipCode, "ZIP code"},
		{"country", a.Country, "Country"},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			errs[r.field] = r.label + " is required"
		}
	}

	if phone := strings.TrimSpace(a.Phone); phone != "" && !validPhone(phone) {
		errs["phone"] = "Phone number must have 10 to 15 digits"
	}
	return errs.orNil()
}

func validPhone(phone string) bool {
	digits := 0
	for _, r := range phone {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case strings.ContainsRune("+-(). ", r):
		default:
			return false
		}
	}
	return digits >= minPhoneDigits && digits <= maxPhoneDigits
}
