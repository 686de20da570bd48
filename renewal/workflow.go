/*
Package renewal orchestrates a policy renewal from status check to receipt.

FLOW:
  1. Assess:  evaluate status and price the base premium
  2. Gate:    only EXPIRED policies may be renewed
  3. Select:  validate the 1-6 payment selector and parse the promo code
  4. Quote:   compose the bill
  5. Confirm: ask the Confirmer once, synchronously
  6. Commit:  record the receipt, then advance the due date by one year
              from the previous due date and mark the policy Active

NO PARTIAL STATE:
  Steps 1-5 never touch the vehicle. Step 6 writes the receipt first; if
  that fails the vehicle is left as it was. A rejected renewal is an
  Outcome, not an error. Errors are reserved for infrastructure failures.

IDEMPOTENCY:
  A request carrying an idempotency key that already produced a receipt is
  replayed: the stored receipt is returned and the same due date applied,
  without asking for confirmation again. The key replays only for the same
  vehicle and due date; any other use is ErrDuplicateIdempotencyKey.

SEE ALSO:
  - insurance/: status and premium rules
  - billing/: quote composition and receipt IDs
  - receipt.go: Receipt and ReceiptStore
*/
package renewal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/warp/renewal-engine/billing"
	"github.com/warp/renewal-engine/generic"
	"github.com/warp/renewal-engine/insurance"
	"github.com/warp/renewal-engine/logging"
	"github.com/warp/renewal-engine/metrics"
)

// =============================================================================
// CONFIRMATION
// =============================================================================

// Confirmer is the external payment confirmation step. It is called at most
// once per renewal and its answer is final.
type Confirmer interface {
	Confirm(bill billing.BillBreakdown, method billing.Method) bool
}

type ConfirmFunc func(bill billing.BillBreakdown, method billing.Method) bool

func (f ConfirmFunc) Confirm(bill billing.BillBreakdown, method billing.Method) bool {
	return f(bill, method)
}

var (
	AlwaysConfirm Confirmer = ConfirmFunc(func(billing.BillBreakdown, billing.Method) bool { return true })
	NeverConfirm  Confirmer = ConfirmFunc(func(billing.BillBreakdown, billing.Method) bool { return false })
)

// =============================================================================
// REQUEST / OUTCOME
// =============================================================================

type Request struct {
	Current        generic.PolicyDate
	Method         int    // selector 1-6
	Promo          string // free text, case-insensitive
	IdempotencyKey string // optional
}

type OutcomeKind string

const (
	OutcomeQuoted        OutcomeKind = "quoted"
	OutcomeRenewed       OutcomeKind = "renewed"
	OutcomeNotExpired    OutcomeKind = "not_expired"
	OutcomeInvalidMethod OutcomeKind = "invalid_method"
	OutcomeDeclined      OutcomeKind = "declined"
)

// Assessment is the read-only view of a policy on a given date.
type Assessment struct {
	AsOf      generic.PolicyDate         `json:"as_of"`
	Status    insurance.StatusResult     `json:"status"`
	Premium   insurance.PremiumBreakdown `json:"premium"`
	Renewable bool                       `json:"renewable"`
}

type Outcome struct {
	Kind       OutcomeKind            `json:"outcome"`
	Assessment Assessment             `json:"assessment"`
	Method     billing.Method         `json:"method,omitempty"`
	Promo      billing.Promo          `json:"promo,omitempty"`
	Bill       *billing.BillBreakdown `json:"bill,omitempty"`
	Receipt    *Receipt               `json:"receipt,omitempty"`
	Replayed   bool                   `json:"replayed,omitempty"`
	Reason     error                  `json:"-"`
}

// Committed reports whether the vehicle's policy was changed.
func (o Outcome) Committed() bool { return o.Kind == OutcomeRenewed }

// Err maps a rejected outcome to its sentinel error, nil otherwise.
func (o Outcome) Err() error {
	switch o.Kind {
	case OutcomeNotExpired:
		return generic.ErrNotExpired
	case OutcomeDeclined:
		return generic.ErrPaymentDeclined
	case OutcomeInvalidMethod:
		if o.Reason != nil {
			return o.Reason
		}
		return generic.ErrInvalidMethod
	default:
		return nil
	}
}

// =============================================================================
// WORKFLOW
// =============================================================================

type IDSource interface {
	Next() string
}

type Workflow struct {
	calculator *insurance.Calculator
	evaluator  *insurance.Evaluator
	billing    *billing.Engine
	receipts   ReceiptStore
	ids        IDSource
	now        func() time.Time
	logger     logging.Logger
	metrics    *metrics.Recorder
}

type Option func(*Workflow)

func WithLogger(l logging.Logger) Option { return func(w *Workflow) { w.logger = l } }

func WithMetrics(m *metrics.Recorder) Option { return func(w *Workflow) { w.metrics = m } }

func WithReceiptIDs(ids IDSource) Option { return func(w *Workflow) { w.ids = ids } }

func WithClock(now func() time.Time) Option { return func(w *Workflow) { w.now = now } }

// New wires a workflow. receipts may be nil, in which case receipts are
// issued but not recorded.
func New(tariff insurance.Tariff, rates billing.Rates, receipts ReceiptStore, opts ...Option) *Workflow {
	w := &Workflow{
		calculator: insurance.NewCalculator(tariff),
		evaluator:  insurance.NewEvaluator(tariff),
		billing:    billing.NewEngine(rates),
		receipts:   receipts,
		ids:        billing.NewReceiptIDGenerator(),
		now:        time.Now,
		logger:     logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *Workflow) Calculator() *insurance.Calculator { return w.calculator }

func (w *Workflow) Evaluator() *insurance.Evaluator { return w.evaluator }

func (w *Workflow) Billing() *billing.Engine { return w.billing }

// Assess evaluates v on current. The premium is priced in current's year.
func (w *Workflow) Assess(v *insurance.Vehicle, current generic.PolicyDate) Assessment {
	status := w.evaluator.Evaluate(v.Policy, current)
	w.metrics.Evaluation(string(status.Status))
	return Assessment{
		AsOf:      current,
		Status:    status,
		Premium:   w.calculator.Breakdown(v, current.Year),
		Renewable: status.Expired,
	}
}

// Quote prices a renewal without committing anything. It quotes even for
// policies that are not renewable, so callers can show the price.
func (w *Workflow) Quote(v *insurance.Vehicle, req Request) Outcome {
	return w.quote(w.Assess(v, req.Current), req)
}

func (w *Workflow) quote(a Assessment, req Request) Outcome {
	method, err := billing.ParseMethod(req.Method)
	if err != nil {
		return Outcome{Kind: OutcomeInvalidMethod, Assessment: a, Reason: err}
	}
	promo := billing.ParsePromo(req.Promo)
	bill := w.billing.Quote(method, a.Premium.Premium, a.Status.Fine, promo)
	w.metrics.Quote(method.Code(), promo.String())
	return Outcome{Kind: OutcomeQuoted, Assessment: a, Method: method, Promo: promo, Bill: &bill}
}

// Renew runs the full flow. The vehicle is modified only when the returned
// outcome is OutcomeRenewed. A nil confirmer declines every payment.
func (w *Workflow) Renew(ctx context.Context, v *insurance.Vehicle, req Request, confirmer Confirmer) (Outcome, error) {
	log := w.logger.With(
		logging.Stringer("vehicle", v),
		logging.Stringer("due_date", v.DueDate()),
		logging.Stringer("as_of", req.Current),
	)

	if out, ok, err := w.replay(ctx, v, req); err != nil || ok {
		return out, err
	}

	a := w.Assess(v, req.Current)
	if !a.Renewable {
		log.Info("renewal disabled: policy not expired", logging.String("status", string(a.Status.Status)))
		return w.finish(Outcome{Kind: OutcomeNotExpired, Assessment: a, Reason: generic.ErrNotExpired}), nil
	}

	quoted := w.quote(a, req)
	if quoted.Kind == OutcomeInvalidMethod {
		log.Warn("renewal aborted: invalid payment selection", logging.Err(quoted.Reason))
		return w.finish(quoted), nil
	}
	out := quoted

	if confirmer == nil {
		log.Warn("renewal aborted: no payment confirmer", logging.Stringer("method", out.Method))
		out.Kind = OutcomeDeclined
		out.Reason = generic.ErrPaymentDeclined
		return w.finish(out), nil
	}
	if !confirmer.Confirm(*out.Bill, out.Method) {
		log.Info("renewal aborted: payment not confirmed", logging.Stringer("method", out.Method))
		out.Kind = OutcomeDeclined
		out.Reason = generic.ErrPaymentDeclined
		return w.finish(out), nil
	}

	oldDue := v.DueDate()
	receipt := Receipt{
		ID:             w.ids.Next(),
		IdempotencyKey: req.IdempotencyKey,
		Vehicle:        snapshotOf(v),
		OldDueDate:     oldDue,
		NewDueDate:     generic.AddOneYear(oldDue),
		Bill:           *out.Bill,
		Method:         out.Method,
		Promo:          out.Promo,
		IssuedAt:       w.now().UTC(),
	}
	if w.receipts != nil {
		if err := w.receipts.Append(ctx, receipt); err != nil {
			log.Error("renewal aborted: receipt not recorded", logging.Err(err))
			return Outcome{}, fmt.Errorf("record receipt %s: %w", receipt.ID, err)
		}
	}

	commit(v, receipt)
	out.Kind = OutcomeRenewed
	out.Receipt = &receipt
	w.metrics.Collected(receipt.Bill.Total.Float64())
	log.Info("renewal committed",
		logging.String("receipt_id", receipt.ID),
		logging.Stringer("new_due_date", receipt.NewDueDate),
		logging.String("method", out.Method.Code()),
		logging.Stringer("total", receipt.Bill.Total),
	)
	return w.finish(out), nil
}

// replay returns the stored outcome for a known idempotency key.
func (w *Workflow) replay(ctx context.Context, v *insurance.Vehicle, req Request) (Outcome, bool, error) {
	if req.IdempotencyKey == "" || w.receipts == nil {
		return Outcome{}, false, nil
	}
	existing, err := w.receipts.FindByIdempotencyKey(ctx, req.IdempotencyKey)
	if err != nil {
		return Outcome{}, false, fmt.Errorf("lookup idempotency key: %w", err)
	}
	if existing == nil {
		return Outcome{}, false, nil
	}
	if existing.Vehicle != snapshotOf(v) {
		return Outcome{}, false, fmt.Errorf("%w: key %q was used for vehicle %s %s",
			generic.ErrDuplicateIdempotencyKey, req.IdempotencyKey, existing.Vehicle.Make, existing.Vehicle.Model)
	}
	if !existing.OldDueDate.Equal(v.DueDate()) {
		return Outcome{}, false, fmt.Errorf("%w: key %q was used for due date %s",
			generic.ErrDuplicateIdempotencyKey, req.IdempotencyKey, existing.OldDueDate)
	}

	a := w.Assess(v, req.Current)
	commit(v, *existing)
	bill := existing.Bill
	return Outcome{
		Kind:       OutcomeRenewed,
		Assessment: a,
		Method:     existing.Method,
		Promo:      existing.Promo,
		Bill:       &bill,
		Receipt:    existing,
		Replayed:   true,
	}, true, nil
}

func snapshotOf(v *insurance.Vehicle) VehicleSnapshot {
	return VehicleSnapshot{Make: v.Make, Model: v.Model, Year: v.Year, Fuel: v.Fuel}
}

func commit(v *insurance.Vehicle, r Receipt) {
	v.Policy.RenewalDueDate = r.NewDueDate
	v.Policy.Status = insurance.StatusActive
}

func (w *Workflow) finish(o Outcome) Outcome {
	w.metrics.Renewal(string(o.Kind))
	return o
}

// IsRejected reports whether err is a business-rule outcome rather than a failure.
func IsRejected(err error) bool {
	return generic.IsRejection(err) || errors.Is(err, generic.ErrInvalidMethod)
}
