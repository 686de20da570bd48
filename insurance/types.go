// Package insurance implements vehicle insurance policy rules: premium
// pricing and date-driven policy status.
package insurance

import (
	"fmt"
	"strings"

	"github.com/warp/renewal-engine/generic"
)

// =============================================================================
// FUEL TYPE
// =============================================================================

// FuelType is the pricing class of a vehicle's fuel. Free-text input is kept
// on the vehicle; the class is derived case-insensitively.
type FuelType string

const (
	FuelPetrol   FuelType = "petrol"
	FuelDiesel   FuelType = "diesel"
	FuelElectric FuelType = "electric"
	FuelOther    FuelType = "other"
)

func ClassifyFuel(s string) FuelType {
	switch FuelType(strings.ToLower(strings.TrimSpace(s))) {
	case FuelPetrol:
		return FuelPetrol
	case FuelDiesel:
		return FuelDiesel
	case FuelElectric:
		return FuelElectric
	default:
		return FuelOther
	}
}

// =============================================================================
// POLICY STATUS
// =============================================================================

type Status string

const (
	StatusNew     Status = "New"
	StatusActive  Status = "Active"
	StatusGrace   Status = "Due (Grace Period)"
	StatusExpired Status = "OVERDUE / EXPIRED"
)

// =============================================================================
// POLICY
// =============================================================================

// Policy is the renewal state attached to a vehicle. Status is only
// authoritative after a commit (Apply or a completed renewal).
type Policy struct {
	RegistrationDate generic.PolicyDate `json:"registration_date"`
	RenewalDueDate   generic.PolicyDate `json:"renewal_due_date"`
	Status           Status             `json:"status"`
}

// NewPolicy starts a policy with its first due date one year after registration.
func NewPolicy(registered generic.PolicyDate) Policy {
	return Policy{
		RegistrationDate: registered,
		RenewalDueDate:   generic.AddOneYear(registered),
		Status:           StatusNew,
	}
}

// Apply commits an evaluated status label to the policy.
func (p *Policy) Apply(r StatusResult) {
	p.Status = r.Status
}

// =============================================================================
// VEHICLE
// =============================================================================

type Vehicle struct {
	Make          string         `json:"make"`
	Model         string         `json:"model"`
	Year          int            `json:"year"`
	OriginalValue generic.Amount `json:"original_value"`
	Fuel          string         `json:"fuel_type"`
	Policy        Policy         `json:"policy"`
}

// NewVehicle validates the attributes and attaches a fresh policy.
func NewVehicle(vehicleMake, model string, year int, value generic.Amount, fuel string, registered generic.PolicyDate) (*Vehicle, error) {
	if year <= 0 {
		return nil, fmt.Errorf("%w: manufacture year %d", generic.ErrInvalidVehicle, year)
	}
	if value.IsNegative() {
		return nil, fmt.Errorf("%w: original value %s is negative", generic.ErrInvalidVehicle, value)
	}
	if err := registered.Validate(); err != nil {
		return nil, fmt.Errorf("registration date: %w", err)
	}
	return &Vehicle{
		Make:          strings.TrimSpace(vehicleMake),
		Model:         strings.TrimSpace(model),
		Year:          year,
		OriginalValue: value,
		Fuel:          strings.TrimSpace(fuel),
		Policy:        NewPolicy(registered),
	}, nil
}

func (v *Vehicle) FuelType() FuelType { return ClassifyFuel(v.Fuel) }

// DueDate is a shortcut for the policy's current renewal due date.
func (v *Vehicle) DueDate() generic.PolicyDate { return v.Policy.RenewalDueDate }

func (v *Vehicle) String() string {
	return fmt.Sprintf("%s (%s), %d", v.Model, v.Make, v.Year)
}
