package domain

import (
	"errors"
	"strings"
	"unicode"
)

type PurchaserProfile struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// ShippingInfo holds the three delivery fields, seeded from the purchaser
// profile and editable afterwards. Validation happens at submit time only.
type ShippingInfo struct {
	ReceiverName string `json:"receiver_name"`
	Phone        string `json:"phone"`
	Address      string `json:"address"`
}

var (
	ErrShippingIncomplete = errors.New("receiver name, phone and address are all required")
	ErrInvalidPhone       = errors.New("phone number must contain 9 to 11 digits")
)

// NormalizePhone strips everything but digits.
func NormalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func (s ShippingInfo) Validate() error {
	if strings.TrimSpace(s.ReceiverName) == "" ||
		strings.TrimSpace(s.Phone) == "" ||
		strings.TrimSpace(s.Address) == "" {
		return ErrShippingIncomplete
	}
	digits := NormalizePhone(s.Phone)
	if len(digits) < 9 || len(digits) > 11 {
		return ErrInvalidPhone
	}
	return nil
}

// SeedFrom pre-fills empty fields from the profile without overwriting
// anything the user already typed.
func (s ShippingInfo) SeedFrom(p *PurchaserProfile) ShippingInfo {
	if p == nil {
		return s
	}
	if s.ReceiverName == "" {
		s.ReceiverName = p.Name
	}
	if s.Phone == "" {
		s.Phone = p.Phone
	}
	if s.Address == "" {
		s.Address = p.Address
	}
	return s
}
