package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/warp/renewal-engine/billing"
	"github.com/warp/renewal-engine/generic"
	"github.com/warp/renewal-engine/insurance"
	"github.com/warp/renewal-engine/renewal"
)

// =============================================================================
// VEHICLE FLAGS
// =============================================================================

type vehicleFlags struct {
	vehicleMake string
	model       string
	year        int
	value       string
	fuel        string
	registered  string
	due         string
	asOf        string
}

func (f *vehicleFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.vehicleMake, "make", "", "vehicle make")
	fs.StringVar(&f.model, "model", "", "vehicle model")
	fs.IntVar(&f.year, "year", 0, "manufacture year")
	fs.StringVar(&f.value, "value", "", "original value in rupees")
	fs.StringVar(&f.fuel, "fuel", "Petrol", "fuel type (Petrol, Diesel, Electric, ...)")
	fs.StringVar(&f.registered, "registered", "", "registration date (DD/MM/YYYY)")
	fs.StringVar(&f.due, "due", "", "current renewal due date (default: one year after registration)")
	fs.StringVar(&f.asOf, "as-of", "", "evaluation date (default: today)")
	for _, name := range []string{"make", "model", "year", "value", "registered"} {
		_ = cmd.MarkFlagRequired(name)
	}
}

func (f *vehicleFlags) vehicle() (*insurance.Vehicle, generic.PolicyDate, error) {
	value, err := generic.ParseAmount(f.value)
	if err != nil {
		return nil, generic.PolicyDate{}, fmt.Errorf("%w: value %q: %v", generic.ErrInvalidVehicle, f.value, err)
	}
	registered, err := generic.ParsePolicyDate(f.registered)
	if err != nil {
		return nil, generic.PolicyDate{}, fmt.Errorf("--registered: %w", err)
	}
	v, err := insurance.NewVehicle(f.vehicleMake, f.model, f.year, value, f.fuel, registered)
	if err != nil {
		return nil, generic.PolicyDate{}, err
	}
	if f.due != "" {
		due, err := generic.ParsePolicyDate(f.due)
		if err != nil {
			return nil, generic.PolicyDate{}, fmt.Errorf("--due: %w", err)
		}
		v.Policy.RenewalDueDate = due
		v.Policy.Status = insurance.StatusActive
	}

	asOf := generic.Today()
	if f.asOf != "" {
		if asOf, err = generic.ParsePolicyDate(f.asOf); err != nil {
			return nil, generic.PolicyDate{}, fmt.Errorf("--as-of: %w", err)
		}
	}
	return v, asOf, nil
}

// =============================================================================
// COMMANDS
// =============================================================================

func newMethodsCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "methods",
		Short: "List payment methods",
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.printMethods(billing.Methods())
		},
	}
}

func newPremiumCmd(e *env) *cobra.Command {
	var vf vehicleFlags
	cmd := &cobra.Command{
		Use:   "premium",
		Short: "Show the premium breakdown, priced in the as-of year",
		RunE: func(cmd *cobra.Command, args []string) error {
			v, asOf, err := vf.vehicle()
			if err != nil {
				return err
			}
			return e.printPremium(v, asOf.Year, e.workflow.Calculator().Breakdown(v, asOf.Year))
		},
	}
	vf.register(cmd)
	return cmd
}

func newStatusCmd(e *env) *cobra.Command {
	var vf vehicleFlags
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Evaluate policy status on the as-of date",
		RunE: func(cmd *cobra.Command, args []string) error {
			v, asOf, err := vf.vehicle()
			if err != nil {
				return err
			}
			return e.printAssessment(v, e.workflow.Assess(v, asOf))
		},
	}
	vf.register(cmd)
	return cmd
}

func newQuoteCmd(e *env) *cobra.Command {
	var (
		vf     vehicleFlags
		method int
		promo  string
	)
	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Compose the renewal bill for a payment method",
		RunE: func(cmd *cobra.Command, args []string) error {
			v, asOf, err := vf.vehicle()
			if err != nil {
				return err
			}
			out := e.workflow.Quote(v, renewal.Request{Current: asOf, Method: method, Promo: promo})
			if err := out.Err(); err != nil {
				return err
			}
			return e.printOutcome(v, out)
		},
	}
	vf.register(cmd)
	cmd.Flags().IntVarP(&method, "method", "m", 0, "payment method 1-6 (see methods)")
	cmd.Flags().StringVar(&promo, "promo", "", "promo code (LOYAL5, FIRST100)")
	_ = cmd.MarkFlagRequired("method")
	return cmd
}

func newRenewCmd(e *env) *cobra.Command {
	var (
		vf     vehicleFlags
		method int
		promo  string
		yes    bool
		key    string
	)
	cmd := &cobra.Command{
		Use:   "renew",
		Short: "Renew an expired policy after payment confirmation",
		RunE: func(cmd *cobra.Command, args []string) error {
			v, asOf, err := vf.vehicle()
			if err != nil {
				return err
			}
			if key == "" {
				key = uuid.NewString()
			}

			var confirmer renewal.Confirmer = renewal.AlwaysConfirm
			if !yes {
				confirmer = promptConfirmer(e.in, e.out)
			}
			out, err := e.workflow.Renew(cmd.Context(), v, renewal.Request{
				Current:        asOf,
				Method:         method,
				Promo:          promo,
				IdempotencyKey: key,
			}, confirmer)
			if err != nil {
				return err
			}
			if err := e.printOutcome(v, out); err != nil {
				return err
			}
			if out.Kind == renewal.OutcomeInvalidMethod {
				return out.Err()
			}
			return nil
		},
	}
	vf.register(cmd)
	cmd.Flags().IntVarP(&method, "method", "m", 0, "payment method 1-6 (see methods)")
	cmd.Flags().StringVar(&promo, "promo", "", "promo code (LOYAL5, FIRST100)")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "confirm payment without prompting")
	cmd.Flags().StringVar(&key, "idempotency-key", "", "retry key (default: random)")
	_ = cmd.MarkFlagRequired("method")
	return cmd
}

func newReceiptsCmd(e *env) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "receipts",
		Short: "List receipts, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			receipts, err := e.receipts.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			return e.printReceipts(receipts)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum receipts to show (0 = all)")
	return cmd
}

// promptConfirmer shows the bill and reads a single y/n answer.
func promptConfirmer(in io.Reader, out io.Writer) renewal.Confirmer {
	return renewal.ConfirmFunc(func(bill billing.BillBreakdown, method billing.Method) bool {
		fmt.Fprintf(out, "Pay Rs. %s via %s? (y/n): ", bill.Total, method.Name())
		answer, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && answer == "" {
			return false
		}
		switch strings.ToLower(strings.TrimSpace(answer)) {
		case "y", "yes":
			return true
		default:
			return false
		}
	})
}
