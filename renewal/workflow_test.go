package renewal_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/renewal-engine/billing"
	"github.com/warp/renewal-engine/generic"
	"github.com/warp/renewal-engine/insurance"
	"github.com/warp/renewal-engine/logging"
	"github.com/warp/renewal-engine/metrics"
	"github.com/warp/renewal-engine/renewal"
	"github.com/warp/renewal-engine/store/memory"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

var (
	dueDate   = generic.NewPolicyDate(1, 1, 2024)
	overdueOn = generic.NewPolicyDate(15, 3, 2024) // 74 days late
)

// dieselCar is priced at 11250 in 2024 and is due on 01/01/2024.
func dieselCar(t *testing.T) *insurance.Vehicle {
	t.Helper()
	v, err := insurance.NewVehicle("Tata", "Harrier", 2020, generic.NewAmountFromInt(500000), "Diesel", generic.NewPolicyDate(1, 1, 2020))
	require.NoError(t, err)
	v.Policy.RenewalDueDate = dueDate
	return v
}

func newWorkflow(store renewal.ReceiptStore, opts ...renewal.Option) *renewal.Workflow {
	clock := func() time.Time { return time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC) }
	opts = append([]renewal.Option{
		renewal.WithClock(clock),
		renewal.WithReceiptIDs(billing.NewSeededReceiptIDGenerator(clock, 1)),
	}, opts...)
	return renewal.New(insurance.DefaultTariff(), billing.DefaultRates(), store, opts...)
}

func upiFirst100(current generic.PolicyDate) renewal.Request {
	return renewal.Request{Current: current, Method: int(billing.MethodUPI), Promo: "first100"}
}

type countingConfirmer struct {
	answer bool
	calls  int
	bill   billing.BillBreakdown
}

func (c *countingConfirmer) Confirm(bill billing.BillBreakdown, _ billing.Method) bool {
	c.calls++
	c.bill = bill
	return c.answer
}

type failingStore struct {
	*memory.Memory
}

func (failingStore) Append(context.Context, renewal.Receipt) error {
	return errors.New("disk full")
}

// =============================================================================
// SUCCESSFUL RENEWAL
// =============================================================================

func TestRenew_ExpiredConfirmedWorkedExample(t *testing.T) {
	// GIVEN: an expired diesel policy and a confirming payer
	store := memory.New()
	wf := newWorkflow(store)
	v := dieselCar(t)
	payer := &countingConfirmer{answer: true}

	// WHEN: renewed by UPI with FIRST100
	out, err := wf.Renew(context.Background(), v, upiFirst100(overdueOn), payer)
	require.NoError(t, err)

	// THEN: the bill matches the worked example
	assert.Equal(t, renewal.OutcomeRenewed, out.Kind)
	assert.True(t, out.Committed())
	assert.NoError(t, out.Err())
	require.NotNil(t, out.Bill)
	assert.Equal(t, "15753.00", out.Bill.Total.String())
	assert.Equal(t, 1, payer.calls)
	assert.Equal(t, "15753.00", payer.bill.Total.String())

	// AND: the due date advances one year from the old due date, not from today
	assert.Equal(t, generic.NewPolicyDate(1, 1, 2025), v.DueDate())
	assert.Equal(t, insurance.StatusActive, v.Policy.Status)

	// AND: the receipt is recorded
	require.NotNil(t, out.Receipt)
	assert.Regexp(t, `^P1710495000-\d{6}$`, out.Receipt.ID)
	assert.Equal(t, dueDate, out.Receipt.OldDueDate)
	assert.Equal(t, generic.NewPolicyDate(1, 1, 2025), out.Receipt.NewDueDate)
	assert.Equal(t, billing.MethodUPI, out.Receipt.Method)
	assert.Equal(t, billing.PromoFirst100, out.Receipt.Promo)

	stored, err := store.Get(context.Background(), out.Receipt.ID)
	require.NoError(t, err)
	assert.Equal(t, "15753.00", stored.Bill.Total.String())
	assert.Equal(t, "Harrier", stored.Vehicle.Model)
}

func TestRenew_LeapDayDueDateClamps(t *testing.T) {
	wf := newWorkflow(memory.New())
	v := dieselCar(t)
	v.Policy.RenewalDueDate = generic.NewPolicyDate(29, 2, 2024)

	out, err := wf.Renew(context.Background(), v, upiFirst100(generic.NewPolicyDate(15, 4, 2024)), renewal.AlwaysConfirm)
	require.NoError(t, err)

	assert.Equal(t, renewal.OutcomeRenewed, out.Kind)
	assert.Equal(t, generic.NewPolicyDate(28, 2, 2025), v.DueDate())
}

func TestRenew_WithoutStoreStillCommits(t *testing.T) {
	wf := newWorkflow(nil)
	v := dieselCar(t)

	out, err := wf.Renew(context.Background(), v, upiFirst100(overdueOn), renewal.AlwaysConfirm)
	require.NoError(t, err)

	assert.True(t, out.Committed())
	assert.NotNil(t, out.Receipt)
	assert.Equal(t, generic.NewPolicyDate(1, 1, 2025), v.DueDate())
}

// =============================================================================
// NO PARTIAL STATE
// =============================================================================

func TestRenew_RejectionsLeaveVehicleUntouched(t *testing.T) {
	tests := []struct {
		name      string
		current   generic.PolicyDate
		method    int
		confirmer renewal.Confirmer
		kind      renewal.OutcomeKind
		err       error
	}{
		{"active policy", generic.NewPolicyDate(15, 12, 2023), 2, renewal.AlwaysConfirm, renewal.OutcomeNotExpired, generic.ErrNotExpired},
		{"grace period", generic.NewPolicyDate(20, 1, 2024), 2, renewal.AlwaysConfirm, renewal.OutcomeNotExpired, generic.ErrNotExpired},
		{"declined", overdueOn, 2, renewal.NeverConfirm, renewal.OutcomeDeclined, generic.ErrPaymentDeclined},
		{"no confirmer", overdueOn, 2, nil, renewal.OutcomeDeclined, generic.ErrPaymentDeclined},
		{"selector zero", overdueOn, 0, renewal.AlwaysConfirm, renewal.OutcomeInvalidMethod, generic.ErrInvalidMethod},
		{"selector seven", overdueOn, 7, renewal.AlwaysConfirm, renewal.OutcomeInvalidMethod, generic.ErrInvalidMethod},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memory.New()
			wf := newWorkflow(store)
			v := dieselCar(t)
			before := *v

			out, err := wf.Renew(context.Background(), v, renewal.Request{Current: tt.current, Method: tt.method}, tt.confirmer)
			require.NoError(t, err)

			assert.Equal(t, tt.kind, out.Kind)
			assert.False(t, out.Committed())
			assert.ErrorIs(t, out.Err(), tt.err)
			assert.True(t, renewal.IsRejected(out.Err()))
			assert.Nil(t, out.Receipt)
			assert.Equal(t, before, *v)
			assert.Equal(t, 0, store.Len())
		})
	}
}

func TestRenew_InvalidMethodNeverAsksForConfirmation(t *testing.T) {
	wf := newWorkflow(memory.New())
	payer := &countingConfirmer{answer: true}

	out, err := wf.Renew(context.Background(), dieselCar(t), renewal.Request{Current: overdueOn, Method: 9}, payer)
	require.NoError(t, err)

	assert.Equal(t, renewal.OutcomeInvalidMethod, out.Kind)
	assert.Equal(t, 0, payer.calls)

	var methodErr *generic.InvalidMethodError
	require.ErrorAs(t, out.Err(), &methodErr)
	assert.Equal(t, 9, methodErr.Choice)
}

func TestRenew_StoreFailureAborts(t *testing.T) {
	// GIVEN: a store that cannot record receipts
	wf := newWorkflow(failingStore{memory.New()})
	v := dieselCar(t)
	before := *v

	// WHEN: a confirmed renewal tries to commit
	_, err := wf.Renew(context.Background(), v, upiFirst100(overdueOn), renewal.AlwaysConfirm)

	// THEN: the error surfaces and the policy is unchanged
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.False(t, renewal.IsRejected(err))
	assert.Equal(t, before, *v)
}

// =============================================================================
// IDEMPOTENCY
// =============================================================================

func TestRenew_ReplaysIdempotencyKey(t *testing.T) {
	store := memory.New()
	wf := newWorkflow(store)
	v := dieselCar(t)
	req := upiFirst100(overdueOn)
	req.IdempotencyKey = "retry-123"

	first, err := wf.Renew(context.Background(), v, req, renewal.AlwaysConfirm)
	require.NoError(t, err)
	require.True(t, first.Committed())

	// GIVEN: the client retries with the original vehicle state
	retry := dieselCar(t)
	payer := &countingConfirmer{answer: false}

	// WHEN: the same key is presented again
	second, err := wf.Renew(context.Background(), retry, req, payer)
	require.NoError(t, err)

	// THEN: the stored receipt is returned without charging again
	assert.True(t, second.Replayed)
	assert.Equal(t, renewal.OutcomeRenewed, second.Kind)
	assert.Equal(t, first.Receipt.ID, second.Receipt.ID)
	assert.Equal(t, 0, payer.calls)
	assert.Equal(t, 1, store.Len())
	assert.Equal(t, generic.NewPolicyDate(1, 1, 2025), retry.DueDate())
}

func TestRenew_IdempotencyKeyReusedForOtherDueDate(t *testing.T) {
	store := memory.New()
	wf := newWorkflow(store)
	req := upiFirst100(overdueOn)
	req.IdempotencyKey = "retry-123"

	_, err := wf.Renew(context.Background(), dieselCar(t), req, renewal.AlwaysConfirm)
	require.NoError(t, err)

	other := dieselCar(t)
	other.Policy.RenewalDueDate = generic.NewPolicyDate(1, 1, 2023)
	before := *other

	_, err = wf.Renew(context.Background(), other, req, renewal.AlwaysConfirm)

	assert.ErrorIs(t, err, generic.ErrDuplicateIdempotencyKey)
	assert.Equal(t, before, *other)
}

func TestRenew_IdempotencyKeyReusedForOtherVehicle(t *testing.T) {
	store := memory.New()
	wf := newWorkflow(store)
	req := upiFirst100(overdueOn)
	req.IdempotencyKey = "shared-key"

	_, err := wf.Renew(context.Background(), dieselCar(t), req, renewal.AlwaysConfirm)
	require.NoError(t, err)

	// GIVEN: another car due the same day, still active on as_of
	other, err := insurance.NewVehicle("Hyundai", "Creta", 2020, generic.NewAmountFromInt(500000), "Diesel", generic.NewPolicyDate(1, 1, 2020))
	require.NoError(t, err)
	other.Policy.RenewalDueDate = dueDate
	before := *other
	payer := &countingConfirmer{answer: false}
	req.Current = generic.NewPolicyDate(2, 1, 2024)

	// WHEN: it presents the same key
	_, err = wf.Renew(context.Background(), other, req, payer)

	// THEN: the key is refused and the car is untouched
	assert.ErrorIs(t, err, generic.ErrDuplicateIdempotencyKey)
	assert.Equal(t, before, *other)
	assert.Equal(t, 0, payer.calls)
	assert.Equal(t, 1, store.Len())
}

// =============================================================================
// QUOTE / ASSESS
// =============================================================================

func TestQuote_DoesNotCommit(t *testing.T) {
	wf := newWorkflow(memory.New())
	v := dieselCar(t)
	before := *v

	out := wf.Quote(v, renewal.Request{Current: overdueOn, Method: int(billing.MethodCard), Promo: "LOYAL5"})

	assert.Equal(t, renewal.OutcomeQuoted, out.Kind)
	require.NotNil(t, out.Bill)
	assert.Equal(t, "150.00", out.Bill.ConvenienceFee.String())
	assert.Equal(t, "500.00", out.Bill.Discount.String())
	assert.Equal(t, before, *v)
}

func TestAssess_PricesInAsOfYear(t *testing.T) {
	wf := newWorkflow(nil)
	v := dieselCar(t)

	a := wf.Assess(v, overdueOn)
	assert.Equal(t, "11250.00", a.Premium.Premium.String())
	assert.Equal(t, "2200.00", a.Status.Fine.String())
	assert.True(t, a.Renewable)

	// a year later the car is one year older
	later := wf.Assess(v, generic.NewPolicyDate(15, 3, 2025))
	assert.Equal(t, "10875.00", later.Premium.Premium.String())
}

// =============================================================================
// OBSERVABILITY
// =============================================================================

func TestRenew_RecordsMetrics(t *testing.T) {
	rec := metrics.New(false)
	wf := newWorkflow(memory.New(), renewal.WithMetrics(rec))

	_, err := wf.Renew(context.Background(), dieselCar(t), upiFirst100(overdueOn), renewal.AlwaysConfirm)
	require.NoError(t, err)
	_, err = wf.Renew(context.Background(), dieselCar(t), upiFirst100(overdueOn), renewal.NeverConfirm)
	require.NoError(t, err)

	n, err := testutil.GatherAndCount(rec.Registry(), "renewal_renewals_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n, "one series per outcome")

	n, err = testutil.GatherAndCount(rec.Registry(), "renewal_quotes_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRenew_NilConfirmerDeclines(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	store := memory.New()
	wf := newWorkflow(store, renewal.WithLogger(logging.NewLoggerFromCore(core)))
	v := dieselCar(t)

	out, err := wf.Renew(context.Background(), v, upiFirst100(overdueOn), nil)

	require.NoError(t, err)
	assert.Equal(t, renewal.OutcomeDeclined, out.Kind)
	assert.Equal(t, dueDate, v.DueDate())
	assert.Equal(t, 0, store.Len())
	assert.Len(t, logs.FilterMessage("renewal aborted: no payment confirmer").All(), 1)
	assert.Empty(t, logs.FilterMessage("renewal aborted: payment not confirmed").All())
}

func TestRenew_LogsCommit(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	wf := newWorkflow(memory.New(), renewal.WithLogger(logging.NewLoggerFromCore(core)))

	out, err := wf.Renew(context.Background(), dieselCar(t), upiFirst100(overdueOn), renewal.AlwaysConfirm)
	require.NoError(t, err)

	entries := logs.FilterMessage("renewal committed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, out.Receipt.ID, entries[0].ContextMap()["receipt_id"])
	assert.Equal(t, "upi", entries[0].ContextMap()["method"])
}
