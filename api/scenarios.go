/*
scenarios.go - Worked examples evaluated against the live engine

PURPOSE:
  Each scenario feeds fixed inputs through the handler's workflow and
  reports the value it got next to the documented value. With a custom
  tariff loaded the "want" column still shows the standard figures, so a
  failing scenario is how operators spot a tariff override.

AVAILABLE SCENARIOS:
  diesel-premium:   500000 diesel from 2020, priced in 2024
  electric-floor:   cheap old electric car hits the minimum premium
  grace-period:     19 days late, inside the grace window, no fine
  overdue-fine:     74 days late, fine on the 44 days past grace
  upi-first100:     UPI with FIRST100 on the overdue bill
  card-fee-cap:     card fee capped at Rs. 150
  leap-day-renewal: 29/02 due date renews to 28/02

USAGE VIA API:
  GET /api/scenarios

ADDING NEW SCENARIOS:
  Append to scenarios with an ID, description and run function.

SEE ALSO:
  - handlers.go: ListScenarios handler
*/
package api

import (
	"net/http"

	"github.com/warp/renewal-engine/billing"
	"github.com/warp/renewal-engine/generic"
	"github.com/warp/renewal-engine/insurance"
	"github.com/warp/renewal-engine/renewal"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

// ScenarioResult is one evaluated example.
type ScenarioResult struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Got         string `json:"got"`
	Want        string `json:"want"`
	Pass        bool   `json:"pass"`
}

type scenario struct {
	id          string
	description string
	want        string
	run         func(wf *renewal.Workflow) string
}

func mustVehicle(vehicleMake, model string, year int, value int64, fuel string, registered generic.PolicyDate) *insurance.Vehicle {
	v, err := insurance.NewVehicle(vehicleMake, model, year, generic.NewAmountFromInt(value), fuel, registered)
	if err != nil {
		panic(err)
	}
	return v
}

// withDue returns a vehicle whose policy is due on due.
func withDue(v *insurance.Vehicle, due generic.PolicyDate) *insurance.Vehicle {
	v.Policy.RenewalDueDate = due
	v.Policy.Status = insurance.StatusActive
	return v
}

var scenarios = []scenario{
	{
		id:          "diesel-premium",
		description: "Value 500000, year 2020, Diesel, priced in 2024: 12500 x 0.88 + 250",
		want:        "11250.00",
		run: func(wf *renewal.Workflow) string {
			v := mustVehicle("Tata", "Nexon", 2020, 500000, "Diesel", generic.NewPolicyDate(1, 1, 2021))
			return wf.Calculator().Premium(v, 2024).String()
		},
	},
	{
		id:          "electric-floor",
		description: "Value 100000, year 2010, Electric, priced in 2024: floored at 5000",
		want:        "5000.00",
		run: func(wf *renewal.Workflow) string {
			v := mustVehicle("Reva", "i", 2010, 100000, "Electric", generic.NewPolicyDate(1, 6, 2010))
			return wf.Calculator().Premium(v, 2024).String()
		},
	},
	{
		id:          "grace-period",
		description: "Due 01/01/2024, checked 20/01/2024: 19 days late, inside grace",
		want:        string(insurance.StatusGrace) + " fine=0.00",
		run: func(wf *renewal.Workflow) string {
			p := insurance.Policy{RenewalDueDate: generic.NewPolicyDate(1, 1, 2024)}
			r := wf.Evaluator().Evaluate(p, generic.NewPolicyDate(20, 1, 2024))
			return string(r.Status) + " fine=" + r.Fine.String()
		},
	},
	{
		id:          "overdue-fine",
		description: "Due 01/01/2024, checked 15/03/2024: 74 days late, (74-30) x 50",
		want:        string(insurance.StatusExpired) + " fine=2200.00",
		run: func(wf *renewal.Workflow) string {
			p := insurance.Policy{RenewalDueDate: generic.NewPolicyDate(1, 1, 2024)}
			r := wf.Evaluator().Evaluate(p, generic.NewPolicyDate(15, 3, 2024))
			return string(r.Status) + " fine=" + r.Fine.String()
		},
	},
	{
		id:          "upi-first100",
		description: "Premium 11250 + fine 2200, UPI, FIRST100: (13450 - 100) x 1.18",
		want:        "15753.00",
		run: func(wf *renewal.Workflow) string {
			bill := wf.Billing().Quote(billing.MethodUPI, generic.NewAmountFromInt(11250), generic.NewAmountFromInt(2200), billing.PromoFirst100)
			return bill.Total.String()
		},
	},
	{
		id:          "card-fee-cap",
		description: "Premium 20000, card: 1.5% would be 300, capped at 150",
		want:        "150.00",
		run: func(wf *renewal.Workflow) string {
			bill := wf.Billing().Quote(billing.MethodCard, generic.NewAmountFromInt(20000), generic.ZeroAmount, billing.PromoNone)
			return bill.ConvenienceFee.String()
		},
	},
	{
		id:          "leap-day-renewal",
		description: "Due 29/02/2024, renewed on 15/06/2024: next due clamps to 28/02/2025",
		want:        "28/02/2025",
		run: func(wf *renewal.Workflow) string {
			v := withDue(mustVehicle("Maruti", "Swift", 2018, 600000, "Petrol", generic.NewPolicyDate(29, 2, 2020)), generic.NewPolicyDate(29, 2, 2024))
			r := wf.Evaluator().Evaluate(v.Policy, generic.NewPolicyDate(15, 6, 2024))
			if !r.Expired {
				return "not renewable: " + string(r.Status)
			}
			return generic.AddOneYear(v.DueDate()).String()
		},
	},
}

// RunScenarios evaluates every scenario against wf.
func RunScenarios(wf *renewal.Workflow) []ScenarioResult {
	results := make([]ScenarioResult, len(scenarios))
	for i, s := range scenarios {
		got := s.run(wf)
		results[i] = ScenarioResult{
			ID:          s.id,
			Description: s.description,
			Got:         got,
			Want:        s.want,
			Pass:        got == s.want,
		}
	}
	return results
}

// ListScenarios evaluates the worked examples.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, RunScenarios(h.Workflow))
}
