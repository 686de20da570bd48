package billing

import "strings"

// Promo is the closed set of recognised promo codes.
type Promo string

const (
	PromoNone     Promo = ""
	PromoLoyal5   Promo = "LOYAL5"   // 5% of subtotal, max 500
	PromoFirst100 Promo = "FIRST100" // flat 100
)

// ParsePromo is case-insensitive and ignores surrounding whitespace.
// Unknown codes are not an error; they simply grant no discount.
func ParsePromo(code string) Promo {
	switch Promo(strings.ToUpper(strings.TrimSpace(code))) {
	case PromoLoyal5:
		return PromoLoyal5
	case PromoFirst100:
		return PromoFirst100
	default:
		return PromoNone
	}
}

func (p Promo) String() string {
	if p == PromoNone {
		return "none"
	}
	return string(p)
}
