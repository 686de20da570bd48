// Package storetest is a behavioural suite every renewal.ReceiptStore must
// pass.
package storetest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/renewal-engine/billing"
	"github.com/warp/renewal-engine/generic"
	"github.com/warp/renewal-engine/renewal"
)

// Factory returns an empty store. Cleanup is the factory's job.
type Factory func(t *testing.T) renewal.ReceiptStore

var issuedBase = time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)

// Receipt builds the worked-example receipt issued n minutes after a fixed
// instant.
func Receipt(id, key string, n int) renewal.Receipt {
	bill := billing.NewEngine(billing.DefaultRates()).Quote(
		billing.MethodUPI, generic.NewAmountFromInt(11250), generic.NewAmountFromInt(2200), billing.PromoFirst100)
	return renewal.Receipt{
		ID:             id,
		IdempotencyKey: key,
		Vehicle:        renewal.VehicleSnapshot{Make: "Tata", Model: "Harrier", Year: 2020, Fuel: "Diesel"},
		OldDueDate:     generic.NewPolicyDate(1, 1, 2024),
		NewDueDate:     generic.NewPolicyDate(1, 1, 2025),
		Bill:           bill,
		Method:         billing.MethodUPI,
		Promo:          billing.PromoFirst100,
		IssuedAt:       issuedBase.Add(time.Duration(n) * time.Minute),
	}
}

func Run(t *testing.T, newStore Factory) {
	t.Run("AppendAndGet", func(t *testing.T) { testAppendAndGet(t, newStore(t)) })
	t.Run("GetUnknown", func(t *testing.T) { testGetUnknown(t, newStore(t)) })
	t.Run("FindByIdempotencyKey", func(t *testing.T) { testFindByKey(t, newStore(t)) })
	t.Run("DuplicateKey", func(t *testing.T) { testDuplicateKey(t, newStore(t)) })
	t.Run("DuplicateID", func(t *testing.T) { testDuplicateID(t, newStore(t)) })
	t.Run("ListNewestFirst", func(t *testing.T) { testListNewestFirst(t, newStore(t)) })
	t.Run("EmptyKeysDoNotCollide", func(t *testing.T) { testEmptyKeys(t, newStore(t)) })
}

func testAppendAndGet(t *testing.T, s renewal.ReceiptStore) {
	ctx := context.Background()
	want := Receipt("P1710495000-123456", "key-1", 0)
	require.NoError(t, s.Append(ctx, want))

	got, err := s.Get(ctx, want.ID)
	require.NoError(t, err)

	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.IdempotencyKey, got.IdempotencyKey)
	assert.Equal(t, want.Vehicle, got.Vehicle)
	assert.Equal(t, want.OldDueDate, got.OldDueDate)
	assert.Equal(t, want.NewDueDate, got.NewDueDate)
	assert.Equal(t, want.Method, got.Method)
	assert.Equal(t, want.Promo, got.Promo)
	assert.True(t, want.IssuedAt.Equal(got.IssuedAt), "issued %s, got %s", want.IssuedAt, got.IssuedAt)

	assert.Equal(t, "11250.00", got.Bill.BasePremium.String())
	assert.Equal(t, "2200.00", got.Bill.Fine.String())
	assert.Equal(t, "100.00", got.Bill.Discount.String())
	assert.Equal(t, "0.00", got.Bill.ConvenienceFee.String())
	assert.Equal(t, "0.00", got.Bill.EMIInterest.String())
	assert.Equal(t, "2403.00", got.Bill.GST.String())
	assert.Equal(t, "15753.00", got.Bill.Total.String())
}

func testGetUnknown(t *testing.T, s renewal.ReceiptStore) {
	_, err := s.Get(context.Background(), "P0-000000")
	assert.ErrorIs(t, err, generic.ErrReceiptNotFound)
}

func testFindByKey(t *testing.T, s renewal.ReceiptStore) {
	ctx := context.Background()
	require.NoError(t, s.Append(ctx, Receipt("P1-100000", "key-1", 0)))

	got, err := s.FindByIdempotencyKey(ctx, "key-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "P1-100000", got.ID)

	missing, err := s.FindByIdempotencyKey(ctx, "key-2")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func testDuplicateKey(t *testing.T, s renewal.ReceiptStore) {
	ctx := context.Background()
	require.NoError(t, s.Append(ctx, Receipt("P1-100000", "key-1", 0)))

	err := s.Append(ctx, Receipt("P2-200000", "key-1", 1))
	assert.ErrorIs(t, err, generic.ErrDuplicateIdempotencyKey)

	_, err = s.Get(ctx, "P2-200000")
	assert.ErrorIs(t, err, generic.ErrReceiptNotFound)
}

func testDuplicateID(t *testing.T, s renewal.ReceiptStore) {
	ctx := context.Background()
	require.NoError(t, s.Append(ctx, Receipt("P1-100000", "", 0)))

	err := s.Append(ctx, Receipt("P1-100000", "", 1))
	assert.ErrorIs(t, err, generic.ErrDuplicateIdempotencyKey)
}

func testListNewestFirst(t *testing.T, s renewal.ReceiptStore) {
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		require.NoError(t, s.Append(ctx, Receipt(fmt.Sprintf("P%d-100000", i), "", i)))
	}

	all, err := s.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 5)
	for i, r := range all {
		assert.Equal(t, fmt.Sprintf("P%d-100000", 4-i), r.ID)
	}

	limited, err := s.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, "P4-100000", limited[0].ID)
	assert.Equal(t, "P3-100000", limited[1].ID)
}

func testEmptyKeys(t *testing.T, s renewal.ReceiptStore) {
	ctx := context.Background()
	require.NoError(t, s.Append(ctx, Receipt("P1-100000", "", 0)))
	require.NoError(t, s.Append(ctx, Receipt("P2-200000", "", 1)))

	all, err := s.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
