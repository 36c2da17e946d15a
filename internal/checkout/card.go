package checkout

import (
	"strings"

	"github.com/isolele/isolele-backend/internal/checkout/payment"
)

const (
	maxCardDigits   = 19
	maxExpiryDigits = 4
	maxCVVDigits    = 4
)

// CardDraft is the card form as last submitted by the shopper, already masked.
type CardDraft struct {
	Number     string `json:"card_number"`
	Expiry     string `json:"expiry"`
	CVV        string `json:"cvv"`
	HolderName string `json:"holder_name"`
	Email      string `json:"email"`
}

// Masked normalises raw input: the number is grouped in fours, the expiry is
// rendered as MM/YY and the cvv keeps digits only.
func (d CardDraft) Masked() CardDraft {
	return CardDraft{
		Number:     FormatCardNumber(d.Number),
		Expiry:     FormatExpiry(d.Expiry),
		CVV:        truncate(payment.DigitsOnly(d.CVV), maxCVVDigits),
		HolderName: strings.TrimSpace(d.HolderName),
		Email:      strings.TrimSpace(d.Email),
	}
}

// MissingFields lists the json names of empty fields in form order.
func (d CardDraft) MissingFields() []string {
	fields := []struct {
		name  string
		value string
	}{
		{"card_number", d.Number},
		{"expiry", d.Expiry},
		{"cvv", d.CVV},
		{"holder_name", d.HolderName},
		{"email", d.Email},
	}
	missing := []string{}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}

// Complete reports whether every field has a value.
func (d CardDraft) Complete() bool {
	return len(d.MissingFields()) == 0
}

func (d CardDraft) details() payment.CardDetails {
	return payment.CardDetails{
		Number:     d.Number,
		Expiry:     d.Expiry,
		CVV:        d.CVV,
		HolderName: d.HolderName,
		Email:      d.Email,
	}
}

// FormatCardNumber keeps up to 19 digits and groups them in fours.
func FormatCardNumber(raw string) string {
	digits := truncate(payment.DigitsOnly(raw), maxCardDigits)
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && i%4 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// FormatExpiry renders up to four digits as MM/YY.
func FormatExpiry(raw string) string {
	digits := truncate(payment.DigitsOnly(raw), maxExpiryDigits)
	if len(digits) <= 2 {
		return digits
	}
	return digits[:2] + "/" + digits[2:]
}

func lastFour(number string) string {
	digits := payment.DigitsOnly(number)
	if len(digits) <= 4 {
		return digits
	}
	return digits[len(digits)-4:]
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
