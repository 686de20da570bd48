/*
Package factory converts JSON tariff definitions into pricing rules.

PURPOSE:
  Lets operators change premium, fine and billing constants without a
  rebuild. Every field is optional; omitted fields keep the standard value
  from insurance.DefaultTariff and billing.DefaultRates.

JSON SCHEMA:
  {
    "premium": {
      "base_rate": 0.025,
      "age_depreciation": 0.03,
      "min_age_factor": 0.7,
      "min_premium": 5000,
      "electric_discount": 500,
      "diesel_surcharge": 250
    },
    "grace": {
      "grace_period_days": 30,
      "fine_per_day": 50
    },
    "billing": {
      "card_fee_rate": 0.015,
      "card_fee_cap": 150,
      "netbanking_fee": 10,
      "branch_fee": 50,
      "emi_annual_rate": 0.12,
      "loyal_rate": 0.05,
      "loyal_cap": 500,
      "first_flat": 100,
      "gst_rate": 0.18
    }
  }

  Numbers may also be given as strings ("0.025") to avoid float rounding.

USAGE:
  tariff, rates, err := factory.LoadTariffFile(cfg.TariffFile)
  wf := renewal.New(tariff, rates, store)

SEE ALSO:
  - insurance/premium.go: Tariff
  - billing/quote.go: Rates
*/
package factory

import (
	"fmt"
	"os"

	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"github.com/warp/renewal-engine/billing"
	"github.com/warp/renewal-engine/generic"
	"github.com/warp/renewal-engine/insurance"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// TariffJSON is the JSON representation of a full tariff. Nil fields keep
// their defaults.
type TariffJSON struct {
	Premium *PremiumJSON `json:"premium,omitempty"`
	Grace   *GraceJSON   `json:"grace,omitempty"`
	Billing *BillingJSON `json:"billing,omitempty"`
}

type PremiumJSON struct {
	BaseRate         *decimal.Decimal `json:"base_rate,omitempty"`
	AgeDepreciation  *decimal.Decimal `json:"age_depreciation,omitempty"`
	MinAgeFactor     *decimal.Decimal `json:"min_age_factor,omitempty"`
	MinPremium       *decimal.Decimal `json:"min_premium,omitempty"`
	ElectricDiscount *decimal.Decimal `json:"electric_discount,omitempty"`
	DieselSurcharge  *decimal.Decimal `json:"diesel_surcharge,omitempty"`
}

type GraceJSON struct {
	GracePeriodDays *int             `json:"grace_period_days,omitempty"`
	FinePerDay      *decimal.Decimal `json:"fine_per_day,omitempty"`
}

type BillingJSON struct {
	CardFeeRate   *decimal.Decimal `json:"card_fee_rate,omitempty"`
	CardFeeCap    *decimal.Decimal `json:"card_fee_cap,omitempty"`
	NetBankingFee *decimal.Decimal `json:"netbanking_fee,omitempty"`
	BranchFee     *decimal.Decimal `json:"branch_fee,omitempty"`
	EMIAnnualRate *decimal.Decimal `json:"emi_annual_rate,omitempty"`
	LoyalRate     *decimal.Decimal `json:"loyal_rate,omitempty"`
	LoyalCap      *decimal.Decimal `json:"loyal_cap,omitempty"`
	FirstFlat     *decimal.Decimal `json:"first_flat,omitempty"`
	GSTRate       *decimal.Decimal `json:"gst_rate,omitempty"`
}

// =============================================================================
// PARSING
// =============================================================================

// ParseTariff parses a JSON document into a tariff and billing rates.
func ParseTariff(data []byte) (insurance.Tariff, billing.Rates, error) {
	var tj TariffJSON
	if err := json.Unmarshal(data, &tj); err != nil {
		return insurance.Tariff{}, billing.Rates{}, fmt.Errorf("failed to parse tariff JSON: %w", err)
	}
	return FromJSON(tj)
}

// LoadTariffFile reads path with ParseTariff. An empty path yields the
// defaults.
func LoadTariffFile(path string) (insurance.Tariff, billing.Rates, error) {
	if path == "" {
		return insurance.DefaultTariff(), billing.DefaultRates(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return insurance.Tariff{}, billing.Rates{}, fmt.Errorf("failed to read tariff file: %w", err)
	}
	return ParseTariff(data)
}

// FromJSON overlays tj on the defaults and validates the result.
func FromJSON(tj TariffJSON) (insurance.Tariff, billing.Rates, error) {
	t := insurance.DefaultTariff()
	r := billing.DefaultRates()

	if p := tj.Premium; p != nil {
		setDecimal(&t.BaseRate, p.BaseRate)
		setDecimal(&t.AgeDepreciation, p.AgeDepreciation)
		setDecimal(&t.MinAgeFactor, p.MinAgeFactor)
		setAmount(&t.MinPremium, p.MinPremium)
		setAmount(&t.ElectricDiscount, p.ElectricDiscount)
		setAmount(&t.DieselSurcharge, p.DieselSurcharge)
	}
	if g := tj.Grace; g != nil {
		if g.GracePeriodDays != nil {
			t.GracePeriodDays = *g.GracePeriodDays
		}
		setAmount(&t.FinePerDay, g.FinePerDay)
	}
	if b := tj.Billing; b != nil {
		setDecimal(&r.CardFeeRate, b.CardFeeRate)
		setAmount(&r.CardFeeCap, b.CardFeeCap)
		setAmount(&r.NetBankingFee, b.NetBankingFee)
		setAmount(&r.BranchFee, b.BranchFee)
		setDecimal(&r.EMIAnnualRate, b.EMIAnnualRate)
		setDecimal(&r.LoyalRate, b.LoyalRate)
		setAmount(&r.LoyalCap, b.LoyalCap)
		setAmount(&r.FirstFlat, b.FirstFlat)
		setDecimal(&r.GSTRate, b.GSTRate)
	}

	if err := validate(t, r); err != nil {
		return insurance.Tariff{}, billing.Rates{}, err
	}
	return t, r, nil
}

// ToJSON renders a tariff with every field set.
func ToJSON(t insurance.Tariff, r billing.Rates) TariffJSON {
	days := t.GracePeriodDays
	return TariffJSON{
		Premium: &PremiumJSON{
			BaseRate:         ptr(t.BaseRate),
			AgeDepreciation:  ptr(t.AgeDepreciation),
			MinAgeFactor:     ptr(t.MinAgeFactor),
			MinPremium:       ptr(t.MinPremium.Value),
			ElectricDiscount: ptr(t.ElectricDiscount.Value),
			DieselSurcharge:  ptr(t.DieselSurcharge.Value),
		},
		Grace: &GraceJSON{
			GracePeriodDays: &days,
			FinePerDay:      ptr(t.FinePerDay.Value),
		},
		Billing: &BillingJSON{
			CardFeeRate:   ptr(r.CardFeeRate),
			CardFeeCap:    ptr(r.CardFeeCap.Value),
			NetBankingFee: ptr(r.NetBankingFee.Value),
			BranchFee:     ptr(r.BranchFee.Value),
			EMIAnnualRate: ptr(r.EMIAnnualRate),
			LoyalRate:     ptr(r.LoyalRate),
			LoyalCap:      ptr(r.LoyalCap.Value),
			FirstFlat:     ptr(r.FirstFlat.Value),
			GSTRate:       ptr(r.GSTRate),
		},
	}
}

// =============================================================================
// HELPERS
// =============================================================================

func setDecimal(dst *decimal.Decimal, src *decimal.Decimal) {
	if src != nil {
		*dst = *src
	}
}

func setAmount(dst *generic.Amount, src *decimal.Decimal) {
	if src != nil {
		*dst = generic.Amount{Value: *src}
	}
}

func ptr(d decimal.Decimal) *decimal.Decimal { return &d }

func validate(t insurance.Tariff, r billing.Rates) error {
	if t.GracePeriodDays < 0 {
		return fmt.Errorf("tariff: grace_period_days must be >= 0, got %d", t.GracePeriodDays)
	}
	if !t.MinAgeFactor.IsPositive() || t.MinAgeFactor.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("tariff: min_age_factor must be in (0, 1], got %s", t.MinAgeFactor)
	}

	rates := map[string]decimal.Decimal{
		"base_rate":        t.BaseRate,
		"age_depreciation": t.AgeDepreciation,
		"card_fee_rate":    r.CardFeeRate,
		"emi_annual_rate":  r.EMIAnnualRate,
		"loyal_rate":       r.LoyalRate,
		"gst_rate":         r.GSTRate,
	}
	for name, v := range rates {
		if v.IsNegative() {
			return fmt.Errorf("tariff: %s must not be negative, got %s", name, v)
		}
	}

	amounts := map[string]generic.Amount{
		"min_premium":       t.MinPremium,
		"electric_discount": t.ElectricDiscount,
		"diesel_surcharge":  t.DieselSurcharge,
		"fine_per_day":      t.FinePerDay,
		"card_fee_cap":      r.CardFeeCap,
		"netbanking_fee":    r.NetBankingFee,
		"branch_fee":        r.BranchFee,
		"loyal_cap":         r.LoyalCap,
		"first_flat":        r.FirstFlat,
	}
	for name, v := range amounts {
		if v.IsNegative() {
			return fmt.Errorf("tariff: %s must not be negative, got %s", name, v)
		}
	}
	return nil
}
