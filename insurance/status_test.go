package insurance_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/warp/renewal-engine/generic"
	"github.com/warp/renewal-engine/insurance"
)

func defaultEvaluator() *insurance.Evaluator {
	return insurance.NewEvaluator(insurance.DefaultTariff())
}

func policyDue(d generic.PolicyDate) insurance.Policy {
	return insurance.Policy{RenewalDueDate: d, Status: insurance.StatusActive}
}

// =============================================================================
// STATUS CLASSIFICATION
// =============================================================================

func TestEvaluate_OverdueWorkedExample(t *testing.T) {
	// GIVEN: due 01/01/2024
	p := policyDue(generic.NewPolicyDate(1, 1, 2024))

	// WHEN: evaluated on 15/03/2024
	r := defaultEvaluator().Evaluate(p, generic.NewPolicyDate(15, 3, 2024))

	// THEN: 74 days overdue, 44 past grace, fine 2200
	assert.Equal(t, insurance.StatusExpired, r.Status)
	assert.Equal(t, -74, r.Days)
	assert.Equal(t, 74, r.DaysOverdue())
	assert.Equal(t, "2200.00", r.Fine.String())
	assert.True(t, r.Expired)
}

func TestEvaluate_Boundaries(t *testing.T) {
	due := generic.NewPolicyDate(1, 1, 2024)
	tests := []struct {
		name    string
		current generic.PolicyDate
		status  insurance.Status
		days    int
		fine    string
	}{
		{"well before due", generic.NewPolicyDate(1, 12, 2023), insurance.StatusActive, 31, "0.00"},
		{"due today", due, insurance.StatusActive, 0, "0.00"},
		{"one day late", due.AddDays(1), insurance.StatusGrace, -1, "0.00"},
		{"last grace day", due.AddDays(30), insurance.StatusGrace, -30, "0.00"},
		{"first expired day", due.AddDays(31), insurance.StatusExpired, -31, "50.00"},
		{"a year late", due.AddDays(366), insurance.StatusExpired, -366, "16800.00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := defaultEvaluator().Evaluate(policyDue(due), tt.current)
			assert.Equal(t, tt.status, r.Status)
			assert.Equal(t, tt.days, r.Days)
			assert.Equal(t, tt.fine, r.Fine.String())
			assert.Equal(t, tt.status == insurance.StatusExpired, r.Expired)
		})
	}
}

func TestEvaluate_IsAPartition(t *testing.T) {
	// Every day difference maps to exactly one status.
	due := generic.NewPolicyDate(1, 1, 2024)
	ev := defaultEvaluator()
	for offset := -400; offset <= 400; offset++ {
		r := ev.Evaluate(policyDue(due), due.AddDays(offset))
		diff := -offset

		active := diff >= 0
		grace := diff < 0 && diff >= -30
		expired := diff < -30
		assert.Equal(t, 1, count(active, grace, expired))

		switch {
		case active:
			assert.Equal(t, insurance.StatusActive, r.Status, "diff %d", diff)
		case grace:
			assert.Equal(t, insurance.StatusGrace, r.Status, "diff %d", diff)
		case expired:
			assert.Equal(t, insurance.StatusExpired, r.Status, "diff %d", diff)
		}
	}
}

func count(flags ...bool) int {
	n := 0
	for _, f := range flags {
		if f {
			n++
		}
	}
	return n
}

func TestEvaluate_DoesNotMutatePolicy(t *testing.T) {
	p := policyDue(generic.NewPolicyDate(1, 1, 2024))
	before := p

	_ = defaultEvaluator().Evaluate(p, generic.NewPolicyDate(15, 3, 2024))

	assert.Equal(t, before, p)
}

func TestPolicy_ApplyCommitsLabel(t *testing.T) {
	p := policyDue(generic.NewPolicyDate(1, 1, 2024))
	r := defaultEvaluator().Evaluate(p, generic.NewPolicyDate(15, 3, 2024))

	p.Apply(r)

	assert.Equal(t, insurance.StatusExpired, p.Status)
	assert.Equal(t, generic.NewPolicyDate(1, 1, 2024), p.RenewalDueDate)
}

// =============================================================================
// LATE FINE
// =============================================================================

func TestLateFine(t *testing.T) {
	ev := defaultEvaluator()

	for d := 0; d <= 30; d++ {
		assert.True(t, ev.LateFine(d).IsZero(), "day %d", d)
	}
	assert.Equal(t, "50.00", ev.LateFine(31).String())
	assert.Equal(t, "2200.00", ev.LateFine(74).String())

	// strictly +50 per day beyond grace, no cap
	for d := 31; d < 1000; d++ {
		step := ev.LateFine(d + 1).Sub(ev.LateFine(d))
		assert.Equal(t, "50.00", step.String(), "day %d", d)
	}
}

func TestClassifyFuel(t *testing.T) {
	assert.Equal(t, insurance.FuelDiesel, insurance.ClassifyFuel("Diesel"))
	assert.Equal(t, insurance.FuelElectric, insurance.ClassifyFuel("ELECTRIC"))
	assert.Equal(t, insurance.FuelPetrol, insurance.ClassifyFuel(" petrol "))
	assert.Equal(t, insurance.FuelOther, insurance.ClassifyFuel("LPG"))
}
