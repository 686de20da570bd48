/*
dto.go - Request/response types for the renewal API

PURPOSE:
  Decouples the wire format from domain types. Dates travel as strings
  ("DD/MM/YYYY" or "YYYY-MM-DD"), money as JSON numbers with two decimals,
  payment methods as their 1-6 selector.

STATELESS VEHICLES:
  The server keeps no vehicle records. Each request carries the vehicle
  and its policy; renewal responses return the updated vehicle for the
  caller to persist.

SEE ALSO:
  - handlers.go: Handlers that use these types
*/
package api

import (
	"fmt"
	"time"

	"github.com/warp/renewal-engine/billing"
	"github.com/warp/renewal-engine/generic"
	"github.com/warp/renewal-engine/insurance"
	"github.com/warp/renewal-engine/renewal"
)

// =============================================================================
// VEHICLE
// =============================================================================

// VehicleDTO is a vehicle with its policy. renewal_due_date and status are
// optional on input; when omitted the policy is fresh from registration.
type VehicleDTO struct {
	Make             string         `json:"make"`
	Model            string         `json:"model"`
	Year             int            `json:"year"`
	OriginalValue    generic.Amount `json:"original_value"`
	FuelType         string         `json:"fuel_type"`
	RegistrationDate string         `json:"registration_date"`
	RenewalDueDate   string         `json:"renewal_due_date,omitempty"`
	Status           string         `json:"status,omitempty"`
}

// toVehicle validates the DTO into a domain vehicle.
func (d VehicleDTO) toVehicle() (*insurance.Vehicle, error) {
	registered, err := generic.ParsePolicyDate(d.RegistrationDate)
	if err != nil {
		return nil, fmt.Errorf("registration_date: %w", err)
	}
	v, err := insurance.NewVehicle(d.Make, d.Model, d.Year, d.OriginalValue, d.FuelType, registered)
	if err != nil {
		return nil, err
	}
	if d.RenewalDueDate != "" {
		due, err := generic.ParsePolicyDate(d.RenewalDueDate)
		if err != nil {
			return nil, fmt.Errorf("renewal_due_date: %w", err)
		}
		v.Policy.RenewalDueDate = due
	}
	if d.Status != "" {
		v.Policy.Status = insurance.Status(d.Status)
	}
	return v, nil
}

func toVehicleDTO(v *insurance.Vehicle) VehicleDTO {
	return VehicleDTO{
		Make:             v.Make,
		Model:            v.Model,
		Year:             v.Year,
		OriginalValue:    v.OriginalValue,
		FuelType:         v.Fuel,
		RegistrationDate: v.Policy.RegistrationDate.String(),
		RenewalDueDate:   v.Policy.RenewalDueDate.String(),
		Status:           string(v.Policy.Status),
	}
}

// =============================================================================
// REQUESTS
// =============================================================================

// EvaluateRequest is the body of /premium and /status. as_of defaults to
// today.
type EvaluateRequest struct {
	Vehicle VehicleDTO `json:"vehicle"`
	AsOf    string     `json:"as_of,omitempty"`
}

type QuoteRequest struct {
	Vehicle VehicleDTO `json:"vehicle"`
	AsOf    string     `json:"as_of,omitempty"`
	Method  int        `json:"method"`
	Promo   string     `json:"promo,omitempty"`
}

// RenewRequest commits a renewal. Confirm is the payment confirmation;
// when ExpectedTotal is set the payment is confirmed only if it matches
// the quoted total.
type RenewRequest struct {
	QuoteRequest
	Confirm        bool            `json:"confirm"`
	ExpectedTotal  *generic.Amount `json:"expected_total,omitempty"`
	IdempotencyKey string          `json:"idempotency_key,omitempty"`
}

// =============================================================================
// RESPONSES
// =============================================================================

type MethodDTO struct {
	Selector    int    `json:"selector"`
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description"`
	EMIMonths   int    `json:"emi_months,omitempty"`
}

func toMethodDTO(m billing.Method) MethodDTO {
	return MethodDTO{
		Selector:    int(m),
		Code:        m.Code(),
		Name:        m.Name(),
		Description: m.Describe(),
		EMIMonths:   m.EMIMonths(),
	}
}

type PremiumResponse struct {
	Vehicle       string                     `json:"vehicle"`
	ReferenceYear int                        `json:"reference_year"`
	Breakdown     insurance.PremiumBreakdown `json:"breakdown"`
}

type StatusResponse struct {
	AsOf        string                 `json:"as_of"`
	DueDate     string                 `json:"due_date"`
	Result      insurance.StatusResult `json:"result"`
	DaysOverdue int                    `json:"days_overdue"`
	Renewable   bool                   `json:"renewable"`
}

type AssessmentDTO struct {
	AsOf      string                     `json:"as_of"`
	DueDate   string                     `json:"due_date"`
	Status    insurance.StatusResult     `json:"status"`
	Premium   insurance.PremiumBreakdown `json:"premium"`
	Renewable bool                       `json:"renewable"`
}

type QuoteResponse struct {
	Assessment AssessmentDTO          `json:"assessment"`
	Method     MethodDTO              `json:"method"`
	Promo      string                 `json:"promo"`
	Bill       *billing.BillBreakdown `json:"bill"`
}

type ReceiptDTO struct {
	ID             string                  `json:"id"`
	IdempotencyKey string                  `json:"idempotency_key,omitempty"`
	Vehicle        renewal.VehicleSnapshot `json:"vehicle"`
	OldDueDate     string                  `json:"old_due_date"`
	NewDueDate     string                  `json:"new_due_date"`
	Method         MethodDTO               `json:"method"`
	Promo          string                  `json:"promo"`
	Bill           billing.BillBreakdown   `json:"bill"`
	IssuedAt       string                  `json:"issued_at"`
}

func toReceiptDTO(r renewal.Receipt) ReceiptDTO {
	return ReceiptDTO{
		ID:             r.ID,
		IdempotencyKey: r.IdempotencyKey,
		Vehicle:        r.Vehicle,
		OldDueDate:     r.OldDueDate.String(),
		NewDueDate:     r.NewDueDate.String(),
		Method:         toMethodDTO(r.Method),
		Promo:          r.Promo.String(),
		Bill:           r.Bill,
		IssuedAt:       r.IssuedAt.Format(time.RFC3339),
	}
}

type RenewResponse struct {
	Outcome    string                 `json:"outcome"`
	Message    string                 `json:"message,omitempty"`
	Assessment AssessmentDTO          `json:"assessment"`
	Bill       *billing.BillBreakdown `json:"bill,omitempty"`
	Receipt    *ReceiptDTO            `json:"receipt,omitempty"`
	Vehicle    VehicleDTO             `json:"vehicle"`
	Replayed   bool                   `json:"replayed,omitempty"`
}

// ErrorResponse is the body of failed requests.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toAssessmentDTO(a renewal.Assessment, due generic.PolicyDate) AssessmentDTO {
	return AssessmentDTO{
		AsOf:      a.AsOf.String(),
		DueDate:   due.String(),
		Status:    a.Status,
		Premium:   a.Premium,
		Renewable: a.Renewable,
	}
}

func toRenewResponse(out renewal.Outcome, v *insurance.Vehicle, oldDue generic.PolicyDate) RenewResponse {
	resp := RenewResponse{
		Outcome:    string(out.Kind),
		Assessment: toAssessmentDTO(out.Assessment, oldDue),
		Bill:       out.Bill,
		Vehicle:    toVehicleDTO(v),
		Replayed:   out.Replayed,
	}
	if out.Reason != nil {
		resp.Message = out.Reason.Error()
	}
	if out.Receipt != nil {
		dto := toReceiptDTO(*out.Receipt)
		resp.Receipt = &dto
	}
	return resp
}
