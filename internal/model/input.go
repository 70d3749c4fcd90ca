package model

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Validation errors returned by the input types.
var (
	ErrInvalidPhone    = errors.New("please enter a valid 10-digit phone number")
	ErrInvalidRole     = errors.New("role must be customer or dealer")
	ErrMissingCategory = errors.New("please select a category")
	ErrInvalidQuantity = errors.New("please enter a valid quantity")
	ErrMissingAddress  = errors.New("please enter your address")
)

// MaxQuantity is the largest quantity a single listing may carry.
const MaxQuantity = 1_000_000

// ValidQuantity reports whether q is a finite quantity in (0, MaxQuantity].
func ValidQuantity(q float64) bool {
	return !math.IsNaN(q) && q > 0 && q <= MaxQuantity
}

// UserInput is the registration request from the presentation layer.
type UserInput struct {
	Phone    string    `json:"phone"`
	Role     Role      `json:"role"`
	Name     string    `json:"name,omitempty"`
	Location *GeoPoint `json:"location,omitempty"`
}

// Validate checks the fields the registration form enforces.
func (in UserInput) Validate() error {
	if len(digits(in.Phone)) < 10 {
		return ErrInvalidPhone
	}
	if !in.Role.Valid() {
		return ErrInvalidRole
	}
	return nil
}

// DisplayName falls back to a role based name when none was supplied.
func (in UserInput) DisplayName() string {
	if name := strings.TrimSpace(in.Name); name != "" {
		return name
	}
	if in.Role == RoleDealer {
		return "Dealer User"
	}
	return "Customer User"
}

// ListingInput is the listing creation request from the presentation layer.
type ListingInput struct {
	Category      Category  `json:"category"`
	CustomerName  string    `json:"customerName,omitempty"`
	CustomerPhone string    `json:"customerPhone,omitempty"`
	Quantity      float64   `json:"quantity"`
	Unit          string    `json:"unit"`
	Description   string    `json:"description,omitempty"`
	Address       string    `json:"address"`
	ImageRefs     []string  `json:"imageUrls,omitempty"`
	Location      *GeoPoint `json:"location,omitempty"`
}

// Validate checks the fields the listing form enforces.
func (in ListingInput) Validate() error {
	if strings.TrimSpace(string(in.Category)) == "" {
		return ErrMissingCategory
	}
	if !ValidQuantity(in.Quantity) {
		return fmt.Errorf("%w: %v", ErrInvalidQuantity, in.Quantity)
	}
	if strings.TrimSpace(in.Address) == "" {
		return ErrMissingAddress
	}
	return nil
}

// NormalizePhone renders a raw phone number as "+<country>-<digits>".
// A country code typed in front of a 10-digit number, or a single trunk "0", is
// recognized and not repeated. Numbers given as "+<cc>..." keep their own country code.
// Digits are never dropped otherwise.
func NormalizePhone(countryCode, raw string) string {
	raw = strings.TrimSpace(raw)
	cc := digits(countryCode)

	if rest, ok := strings.CutPrefix(raw, "+"); ok {
		rest = strings.TrimSpace(rest)
		if i := strings.IndexAny(rest, "- ("); i > 0 {
			return "+" + digits(rest[:i]) + "-" + digits(rest[i+1:])
		}
		d := digits(rest)
		switch {
		case cc != "" && strings.HasPrefix(d, cc) && len(d) > len(cc):
			return "+" + cc + "-" + d[len(cc):]
		case len(d) > 10:
			return "+" + d[:len(d)-10] + "-" + d[len(d)-10:]
		}
		return "+" + cc + "-" + d
	}

	d := digits(raw)
	switch {
	case cc != "" && len(d) == len(cc)+10 && strings.HasPrefix(d, cc):
		d = d[len(cc):]
	case len(d) == 11 && d[0] == '0':
		d = d[1:]
	}
	return "+" + cc + "-" + d
}

func digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
