/*
premium.go - Base insurance premium pricing

PURPOSE:
  Computes the base premium of a vehicle from its value, age and fuel type.

ALGORITHM:
  baseRate   = originalValue × BaseRate                  (2.5%)
  age        = max(0, referenceYear − manufactureYear)
  ageFactor  = max(MinAgeFactor, 1 − AgeDepreciation×age) (0.7, 3%/year)
  fuelAdjust = Electric −500, Diesel +250, otherwise 0
  premium    = max(MinPremium, baseRate×ageFactor + fuelAdjust)  (5000)

REFERENCE YEAR:
  The year used for vehicle age is an explicit argument. The renewal
  workflow passes the year of the evaluation date, so the same inputs
  always price the same.

SEE ALSO:
  - factory/tariff.go: loads Tariff overrides from JSON
  - renewal/workflow.go: calls Premium during assessment
*/
package insurance

import (
	"github.com/shopspring/decimal"
	"github.com/warp/renewal-engine/generic"
)

// =============================================================================
// TARIFF - Pricing constants
// =============================================================================

type Tariff struct {
	BaseRate         decimal.Decimal // share of original value
	AgeDepreciation  decimal.Decimal // per year of age
	MinAgeFactor     decimal.Decimal
	MinPremium       generic.Amount
	ElectricDiscount generic.Amount // subtracted
	DieselSurcharge  generic.Amount // added
	GracePeriodDays  int
	FinePerDay       generic.Amount
}

// DefaultTariff returns the standard pricing rules.
func DefaultTariff() Tariff {
	return Tariff{
		BaseRate:         decimal.RequireFromString("0.025"),
		AgeDepreciation:  decimal.RequireFromString("0.03"),
		MinAgeFactor:     decimal.RequireFromString("0.7"),
		MinPremium:       generic.NewAmountFromInt(5000),
		ElectricDiscount: generic.NewAmountFromInt(500),
		DieselSurcharge:  generic.NewAmountFromInt(250),
		GracePeriodDays:  30,
		FinePerDay:       generic.NewAmountFromInt(50),
	}
}

// =============================================================================
// CALCULATOR
// =============================================================================

// PremiumBreakdown shows how a premium was reached.
type PremiumBreakdown struct {
	BaseRate       generic.Amount  `json:"base_rate"`
	Age            int             `json:"age"`
	AgeFactor      decimal.Decimal `json:"age_factor"`
	FuelAdjustment generic.Amount  `json:"fuel_adjustment"`
	Premium        generic.Amount  `json:"premium"`
	FloorApplied   bool            `json:"floor_applied"`
}

type Calculator struct {
	Tariff Tariff
}

func NewCalculator(t Tariff) *Calculator {
	return &Calculator{Tariff: t}
}

// Age is never negative, even for vehicles built after the reference year.
func Age(manufactureYear, referenceYear int) int {
	if age := referenceYear - manufactureYear; age > 0 {
		return age
	}
	return 0
}

// AgeFactor returns max(MinAgeFactor, 1 − AgeDepreciation×age).
func (c *Calculator) AgeFactor(manufactureYear, referenceYear int) decimal.Decimal {
	age := decimal.NewFromInt(int64(Age(manufactureYear, referenceYear)))
	factor := decimal.NewFromInt(1).Sub(c.Tariff.AgeDepreciation.Mul(age))
	return decimal.Max(c.Tariff.MinAgeFactor, factor)
}

func (c *Calculator) FuelAdjustment(fuel string) generic.Amount {
	switch ClassifyFuel(fuel) {
	case FuelElectric:
		return c.Tariff.ElectricDiscount.Neg()
	case FuelDiesel:
		return c.Tariff.DieselSurcharge
	default:
		return generic.ZeroAmount
	}
}

// Premium returns the base premium for v priced in referenceYear.
func (c *Calculator) Premium(v *Vehicle, referenceYear int) generic.Amount {
	return c.Breakdown(v, referenceYear).Premium
}

func (c *Calculator) Breakdown(v *Vehicle, referenceYear int) PremiumBreakdown {
	baseRate := v.OriginalValue.Mul(c.Tariff.BaseRate)
	factor := c.AgeFactor(v.Year, referenceYear)
	fuel := c.FuelAdjustment(v.Fuel)

	raw := baseRate.Mul(factor).Add(fuel)
	premium := raw.Max(c.Tariff.MinPremium)

	return PremiumBreakdown{
		BaseRate:       baseRate,
		Age:            Age(v.Year, referenceYear),
		AgeFactor:      factor,
		FuelAdjustment: fuel,
		Premium:        premium,
		FloorApplied:   raw.LessThan(c.Tariff.MinPremium),
	}
}
