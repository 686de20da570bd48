package generic_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/renewal-engine/generic"
)

func TestAmount_Arithmetic(t *testing.T) {
	a := generic.NewAmountFromInt(13450)
	b := generic.NewAmountFromInt(100)

	assert.Equal(t, "13550.00", a.Add(b).String())
	assert.Equal(t, "13350.00", a.Sub(b).String())
	assert.Equal(t, "2403.00", a.Sub(b).Mul(decimal.RequireFromString("0.18")).String())
	assert.Equal(t, "-100.00", b.Neg().String())
	assert.True(t, b.Neg().IsNegative())
	assert.True(t, generic.ZeroAmount.IsZero())
	assert.True(t, a.IsPositive())
}

func TestAmount_DecimalPrecision(t *testing.T) {
	// 0.1 + 0.2 is exact on decimal
	sum := generic.MustParseAmount("0.1").Add(generic.MustParseAmount("0.2"))
	assert.True(t, sum.Equal(generic.MustParseAmount("0.3")))
}

func TestAmount_MinMaxFloor(t *testing.T) {
	fee := generic.NewAmountFromInt(300)
	limit := generic.NewAmountFromInt(150)

	assert.Equal(t, "150.00", fee.Min(limit).String())
	assert.Equal(t, "300.00", fee.Max(limit).String())
	assert.Equal(t, "0.00", generic.NewAmountFromInt(-5).FloorZero().String())
	assert.Equal(t, "5.00", generic.NewAmountFromInt(5).FloorZero().String())
}

func TestAmount_Rounded(t *testing.T) {
	exact := generic.MustParseAmount("11717.4895502")

	assert.Equal(t, "11717.49", exact.Rounded().Value.String())
	assert.False(t, exact.Equal(generic.MustParseAmount("11717.49")))
	assert.True(t, exact.Rounded().Equal(generic.MustParseAmount("11717.49")))
	assert.True(t, generic.MustParseAmount("146.755").Rounded().Equal(generic.MustParseAmount("146.76")))
}

func TestAmount_JSON(t *testing.T) {
	// GIVEN: an amount with more than two decimals
	a := generic.MustParseAmount("15753.004")

	// WHEN: marshalled
	data, err := json.Marshal(map[string]generic.Amount{"total": a})
	require.NoError(t, err)

	// THEN: it is a bare number with two decimals
	assert.JSONEq(t, `{"total": 15753.00}`, string(data))

	// AND: numbers and quoted strings both decode
	var got struct {
		A generic.Amount `json:"a"`
		B generic.Amount `json:"b"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a": 500000, "b": "12.5"}`), &got))
	assert.Equal(t, "500000.00", got.A.String())
	assert.Equal(t, "12.50", got.B.String())
}

func TestParseAmount_Invalid(t *testing.T) {
	_, err := generic.ParseAmount("five hundred")
	assert.Error(t, err)
}

func TestErrorHelpers(t *testing.T) {
	dateErr := &generic.InvalidDateError{Input: "31/13/2024", Reason: "month must be between 1 and 12"}
	methodErr := &generic.InvalidMethodError{Choice: 9}

	assert.True(t, generic.IsClientError(dateErr))
	assert.True(t, generic.IsClientError(methodErr))
	assert.True(t, errors.Is(methodErr, generic.ErrInvalidMethod))
	assert.True(t, generic.IsRejection(generic.ErrNotExpired))
	assert.True(t, generic.IsRejection(generic.ErrPaymentDeclined))
	assert.False(t, generic.IsRejection(generic.ErrReceiptNotFound))
	assert.True(t, generic.IsNotFound(generic.ErrReceiptNotFound))
	assert.Contains(t, dateErr.Error(), "31/13/2024")
}
