/*
quote.go - Payment quote composition

PURPOSE:
  Turns a base premium and late fine into the full amount payable for a
  chosen payment method and promo code.

ORDER OF OPERATIONS:
  1. principal   = premium + fine
  2. fee         = method convenience fee (on principal)
  3. emiInterest = principal × 12% p.a. × months/12 (EMI methods only)
  4. subtotal    = principal + fee + emiInterest
  5. discount    = promo rule applied to subtotal
  6. taxable     = max(0, subtotal − discount)
  7. gst         = taxable × 18%
  8. total       = taxable + gst

  The convenience fee is not financed: EMI interest is charged on the
  principal only.

PURITY:
  Quote reads nothing but its arguments and the engine's rates. Identical
  inputs always produce an identical BillBreakdown.

SEE ALSO:
  - method.go: payment methods and selectors
  - promo.go: promo codes
  - factory/tariff.go: rate overrides
*/
package billing

import (
	"github.com/shopspring/decimal"
	"github.com/warp/renewal-engine/generic"
)

// =============================================================================
// RATES
// =============================================================================

type Rates struct {
	CardFeeRate   decimal.Decimal
	CardFeeCap    generic.Amount
	NetBankingFee generic.Amount
	BranchFee     generic.Amount
	EMIAnnualRate decimal.Decimal
	LoyalRate     decimal.Decimal
	LoyalCap      generic.Amount
	FirstFlat     generic.Amount
	GSTRate       decimal.Decimal
}

func DefaultRates() Rates {
	return Rates{
		CardFeeRate:   decimal.RequireFromString("0.015"),
		CardFeeCap:    generic.NewAmountFromInt(150),
		NetBankingFee: generic.NewAmountFromInt(10),
		BranchFee:     generic.NewAmountFromInt(50),
		EMIAnnualRate: decimal.RequireFromString("0.12"),
		LoyalRate:     decimal.RequireFromString("0.05"),
		LoyalCap:      generic.NewAmountFromInt(500),
		FirstFlat:     generic.NewAmountFromInt(100),
		GSTRate:       decimal.RequireFromString("0.18"),
	}
}

// =============================================================================
// BILL BREAKDOWN
// =============================================================================

type BillBreakdown struct {
	BasePremium    generic.Amount `json:"base_premium"`
	Fine           generic.Amount `json:"fine"`
	Discount       generic.Amount `json:"discount"`
	ConvenienceFee generic.Amount `json:"convenience_fee"`
	EMIInterest    generic.Amount `json:"emi_interest"`
	GST            generic.Amount `json:"gst"`
	Total          generic.Amount `json:"total"`
}

// Subtotal is the pre-discount, pre-tax amount.
func (b BillBreakdown) Subtotal() generic.Amount {
	return b.BasePremium.Add(b.Fine).Add(b.ConvenienceFee).Add(b.EMIInterest)
}

// Taxable is the amount GST is charged on.
func (b BillBreakdown) Taxable() generic.Amount {
	return b.Subtotal().Sub(b.Discount).FloorZero()
}

// =============================================================================
// ENGINE
// =============================================================================

type Engine struct {
	Rates Rates
}

func NewEngine(r Rates) *Engine {
	return &Engine{Rates: r}
}

// Quote composes the bill for one payment method and promo code.
func (e *Engine) Quote(method Method, premium, fine generic.Amount, promo Promo) BillBreakdown {
	principal := premium.Add(fine)
	fee := e.ConvenienceFee(method, principal)
	interest := e.EMIInterest(method, principal)

	subtotal := principal.Add(fee).Add(interest)
	discount := e.Discount(promo, subtotal)
	taxable := subtotal.Sub(discount).FloorZero()
	gst := taxable.Mul(e.Rates.GSTRate)

	return BillBreakdown{
		BasePremium:    premium,
		Fine:           fine,
		Discount:       discount,
		ConvenienceFee: fee,
		EMIInterest:    interest,
		GST:            gst,
		Total:          taxable.Add(gst),
	}
}

func (e *Engine) ConvenienceFee(method Method, principal generic.Amount) generic.Amount {
	switch method {
	case MethodCard:
		return principal.Mul(e.Rates.CardFeeRate).Min(e.Rates.CardFeeCap)
	case MethodNetBanking:
		return e.Rates.NetBankingFee
	case MethodBranch:
		return e.Rates.BranchFee
	default:
		return generic.ZeroAmount
	}
}

// EMIInterest is simple interest on the principal for the EMI term.
func (e *Engine) EMIInterest(method Method, principal generic.Amount) generic.Amount {
	months := method.EMIMonths()
	if months == 0 {
		return generic.ZeroAmount
	}
	share := e.Rates.EMIAnnualRate.Mul(decimal.NewFromInt(int64(months))).Div(decimal.NewFromInt(12))
	return principal.Mul(share)
}

func (e *Engine) Discount(promo Promo, subtotal generic.Amount) generic.Amount {
	switch promo {
	case PromoLoyal5:
		return subtotal.Mul(e.Rates.LoyalRate).Min(e.Rates.LoyalCap)
	case PromoFirst100:
		return e.Rates.FirstFlat
	default:
		return generic.ZeroAmount
	}
}
