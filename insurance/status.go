package insurance

import (
	"github.com/shopspring/decimal"
	"github.com/warp/renewal-engine/generic"
)

// =============================================================================
// STATUS EVALUATION
// =============================================================================
//
//   diff = DaysBetween(dueDate, currentDate)
//
//   diff >= 0              Active              fine 0
//   -grace <= diff < 0     Due (Grace Period)  fine 0
//   diff < -grace          OVERDUE / EXPIRED   fine = LateFine(-diff)
//
// Evaluation is a pure query. Nothing is written to the policy until the
// caller commits with Policy.Apply or a renewal completes.

// StatusResult is the advisory outcome of one evaluation.
type StatusResult struct {
	Status  Status         `json:"status"`
	Days    int            `json:"days"` // > 0 days left until due, < 0 days overdue
	Fine    generic.Amount `json:"fine"`
	Expired bool           `json:"expired"`
}

// DaysOverdue is zero unless the due date has passed.
func (r StatusResult) DaysOverdue() int {
	if r.Days < 0 {
		return -r.Days
	}
	return 0
}

type Evaluator struct {
	GracePeriodDays int
	FinePerDay      generic.Amount
}

func NewEvaluator(t Tariff) *Evaluator {
	return &Evaluator{GracePeriodDays: t.GracePeriodDays, FinePerDay: t.FinePerDay}
}

// Evaluate classifies the policy against currentDate.
func (e *Evaluator) Evaluate(p Policy, currentDate generic.PolicyDate) StatusResult {
	diff := generic.DaysBetween(p.RenewalDueDate, currentDate)
	switch {
	case diff >= 0:
		return StatusResult{Status: StatusActive, Days: diff, Fine: generic.ZeroAmount}
	case -diff <= e.GracePeriodDays:
		return StatusResult{Status: StatusGrace, Days: diff, Fine: generic.ZeroAmount}
	default:
		return StatusResult{Status: StatusExpired, Days: diff, Fine: e.LateFine(-diff), Expired: true}
	}
}

// LateFine charges FinePerDay for each day past the grace period. No cap.
func (e *Evaluator) LateFine(overdueDays int) generic.Amount {
	if overdueDays <= e.GracePeriodDays {
		return generic.ZeroAmount
	}
	return e.FinePerDay.Mul(decimal.NewFromInt(int64(overdueDays - e.GracePeriodDays)))
}
