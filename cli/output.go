package cli

import (
	"fmt"
	"strconv"

	"github.com/fatih/color"
	json "github.com/goccy/go-json"
	"github.com/olekukonko/tablewriter"
	"github.com/warp/renewal-engine/billing"
	"github.com/warp/renewal-engine/insurance"
	"github.com/warp/renewal-engine/renewal"
)

// =============================================================================
// OUTPUT HELPERS
// =============================================================================

func (e *env) printJSON(v any) error {
	enc := json.NewEncoder(e.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (e *env) table(header []string) *tablewriter.Table {
	t := tablewriter.NewWriter(e.out)
	t.SetHeader(header)
	t.SetAutoWrapText(false)
	return t
}

// kv renders two-column label/value output.
func (e *env) kv(title string, rows [][2]string) {
	fmt.Fprintf(e.out, "\n=== %s ===\n\n", title)
	t := tablewriter.NewWriter(e.out)
	t.SetBorder(false)
	t.SetColumnSeparator("")
	t.SetAutoWrapText(false)
	t.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT})
	for _, r := range rows {
		t.Append([]string{r[0], r[1]})
	}
	t.Render()
}

func colorizeStatus(s insurance.Status) string {
	switch s {
	case insurance.StatusActive:
		return color.GreenString(string(s))
	case insurance.StatusGrace:
		return color.YellowString(string(s))
	case insurance.StatusExpired:
		return color.RedString(string(s))
	default:
		return string(s)
	}
}

func colorizeOutcome(k renewal.OutcomeKind) string {
	switch k {
	case renewal.OutcomeRenewed:
		return color.GreenString(string(k))
	case renewal.OutcomeQuoted:
		return string(k)
	default:
		return color.RedString(string(k))
	}
}

// =============================================================================
// PRINTERS
// =============================================================================

func (e *env) printMethods(methods []billing.Method) error {
	if e.format == "json" {
		type row struct {
			Selector    int    `json:"selector"`
			Code        string `json:"code"`
			Name        string `json:"name"`
			Description string `json:"description"`
		}
		rows := make([]row, len(methods))
		for i, m := range methods {
			rows[i] = row{Selector: int(m), Code: m.Code(), Name: m.Name(), Description: m.Describe()}
		}
		return e.printJSON(rows)
	}

	t := e.table([]string{"#", "Method", "Fee"})
	for _, m := range methods {
		t.Append([]string{strconv.Itoa(int(m)), m.Name(), m.Describe()})
	}
	t.Render()
	return nil
}

func (e *env) printPremium(v *insurance.Vehicle, year int, b insurance.PremiumBreakdown) error {
	if e.format == "json" {
		return e.printJSON(map[string]any{
			"vehicle":        v.String(),
			"reference_year": year,
			"breakdown":      b,
		})
	}

	rows := [][2]string{
		{"Vehicle", v.String()},
		{"Priced in", strconv.Itoa(year)},
		{"Age (years)", strconv.Itoa(b.Age)},
		{"Base rate", b.BaseRate.String()},
		{"Age factor", b.AgeFactor.StringFixed(2)},
		{"Fuel adjustment", b.FuelAdjustment.String()},
		{"Premium", b.Premium.String()},
	}
	if b.FloorApplied {
		rows = append(rows, [2]string{"", "(minimum premium applied)"})
	}
	e.kv("Premium", rows)
	return nil
}

func (e *env) printAssessment(v *insurance.Vehicle, a renewal.Assessment) error {
	if e.format == "json" {
		return e.printJSON(map[string]any{
			"vehicle":    v,
			"assessment": a,
		})
	}

	days := "due today"
	switch {
	case a.Status.Days > 0:
		days = fmt.Sprintf("%d days left", a.Status.Days)
	case a.Status.Days < 0:
		days = fmt.Sprintf("%d days overdue", a.Status.DaysOverdue())
	}
	renew := "disabled (policy not expired)"
	if a.Renewable {
		renew = "available"
	}
	e.kv("Status", [][2]string{
		{"Vehicle", v.String()},
		{"Due date", v.DueDate().String()},
		{"As of", a.AsOf.String()},
		{"Status", colorizeStatus(a.Status.Status)},
		{"Days", days},
		{"Late fine", a.Status.Fine.String()},
		{"Premium", a.Premium.Premium.String()},
		{"Renewal", renew},
	})
	return nil
}

func (e *env) printOutcome(v *insurance.Vehicle, out renewal.Outcome) error {
	if e.format == "json" {
		resp := map[string]any{
			"outcome":    out.Kind,
			"assessment": out.Assessment,
			"bill":       out.Bill,
			"receipt":    out.Receipt,
			"vehicle":    v,
		}
		if out.Method.Valid() {
			resp["method"] = out.Method
		}
		if out.Reason != nil {
			resp["message"] = out.Reason.Error()
		}
		if out.Replayed {
			resp["replayed"] = true
		}
		return e.printJSON(resp)
	}

	rows := [][2]string{
		{"Outcome", colorizeOutcome(out.Kind)},
		{"Status", colorizeStatus(out.Assessment.Status.Status)},
	}
	if out.Reason != nil {
		rows = append(rows, [2]string{"Reason", out.Reason.Error()})
	}
	if b := out.Bill; b != nil {
		rows = append(rows,
			[2]string{"Method", out.Method.Name()},
			[2]string{"Promo", out.Promo.String()},
			[2]string{"Base premium", b.BasePremium.String()},
			[2]string{"Late fine", b.Fine.String()},
			[2]string{"Convenience fee", b.ConvenienceFee.String()},
			[2]string{"EMI interest", b.EMIInterest.String()},
			[2]string{"Discount", "-" + b.Discount.String()},
			[2]string{"GST (18%)", b.GST.String()},
			[2]string{"Total", b.Total.String()},
		)
	}
	if r := out.Receipt; r != nil {
		rows = append(rows,
			[2]string{"Receipt", r.ID},
			[2]string{"Old due date", r.OldDueDate.String()},
			[2]string{"New due date", r.NewDueDate.String()},
		)
	}
	if out.Replayed {
		rows = append(rows, [2]string{"", "(replayed from an earlier request)"})
	}
	e.kv("Renewal", rows)
	return nil
}

func (e *env) printReceipts(receipts []renewal.Receipt) error {
	if e.format == "json" {
		if receipts == nil {
			receipts = []renewal.Receipt{}
		}
		return e.printJSON(receipts)
	}

	t := e.table([]string{"Receipt", "Vehicle", "Old due", "New due", "Method", "Total", "Issued"})
	for _, r := range receipts {
		t.Append([]string{
			r.ID,
			fmt.Sprintf("%s (%s), %d", r.Vehicle.Model, r.Vehicle.Make, r.Vehicle.Year),
			r.OldDueDate.String(),
			r.NewDueDate.String(),
			r.Method.Name(),
			r.Bill.Total.String(),
			r.IssuedAt.Format("2006-01-02 15:04"),
		})
	}
	t.Render()
	return nil
}
