package generic_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/renewal-engine/generic"
)

// =============================================================================
// PARSING
// =============================================================================

func TestParsePolicyDate_Formats(t *testing.T) {
	tests := []struct {
		in   string
		want generic.PolicyDate
	}{
		{"15/03/2024", generic.NewPolicyDate(15, 3, 2024)},
		{"1/1/2024", generic.NewPolicyDate(1, 1, 2024)},
		{"2024-03-15", generic.NewPolicyDate(15, 3, 2024)},
		{"  29/02/2024 ", generic.NewPolicyDate(29, 2, 2024)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := generic.ParsePolicyDate(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParsePolicyDate_Rejects(t *testing.T) {
	// Range checks are loose: day 1-31, month 1-12, year after 1900.
	for _, in := range []string{"", "15-03", "aa/03/2024", "32/01/2024", "00/01/2024", "10/13/2024", "10/00/2024", "01/01/1900", "2024/03"} {
		t.Run(in, func(t *testing.T) {
			_, err := generic.ParsePolicyDate(in)
			require.Error(t, err)
			assert.True(t, errors.Is(err, generic.ErrInvalidDate))

			var dateErr *generic.InvalidDateError
			assert.ErrorAs(t, err, &dateErr)
		})
	}
}

func TestParsePolicyDate_LooseDayAccepted(t *testing.T) {
	// GIVEN: 31/02 passes the loose range check
	d, err := generic.ParsePolicyDate("31/02/2023")
	require.NoError(t, err)

	// THEN: it behaves like 03/03/2023 in day arithmetic
	assert.Equal(t, 0, generic.DaysBetween(d, generic.NewPolicyDate(3, 3, 2023)))
}

func TestPolicyDate_Formatting(t *testing.T) {
	d := generic.NewPolicyDate(5, 7, 2024)
	assert.Equal(t, "05/07/2024", d.String())
	assert.Equal(t, "2024-07-05", d.ISO())
}

// =============================================================================
// DAY ARITHMETIC
// =============================================================================

func TestDayNumber_Epoch(t *testing.T) {
	assert.Equal(t, int64(0), generic.DayNumber(generic.NewPolicyDate(1, 1, 1970)))
	assert.Equal(t, int64(-1), generic.DayNumber(generic.NewPolicyDate(31, 12, 1969)))
	assert.Equal(t, int64(19723), generic.DayNumber(generic.NewPolicyDate(1, 1, 2024)))
}

func TestDayNumber_MatchesUnixDays(t *testing.T) {
	// Cross-check against UTC midnight for every day of 2023-2025.
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3*366; i++ {
		tm := start.AddDate(0, 0, i)
		d := generic.FromTime(tm)
		require.Equal(t, tm.Unix()/86400, generic.DayNumber(d), d.String())
	}
}

func TestDaysBetween_WorkedExample(t *testing.T) {
	// GIVEN: due 01/01/2024, current 15/03/2024
	due := generic.NewPolicyDate(1, 1, 2024)
	current := generic.NewPolicyDate(15, 3, 2024)

	// THEN: due - current = -74 (31 Jan + 29 Feb + 14 Mar)
	assert.Equal(t, -74, generic.DaysBetween(due, current))
	assert.Equal(t, 74, generic.DaysBetween(current, due))
}

func TestDaysBetween_AcrossLeapYears(t *testing.T) {
	assert.Equal(t, 366, generic.DaysBetween(generic.NewPolicyDate(1, 1, 2025), generic.NewPolicyDate(1, 1, 2024)))
	assert.Equal(t, 365, generic.DaysBetween(generic.NewPolicyDate(1, 1, 2024), generic.NewPolicyDate(1, 1, 2023)))
	assert.Equal(t, 36525, generic.DaysBetween(generic.NewPolicyDate(1, 1, 2100), generic.NewPolicyDate(1, 1, 2000)))
}

func TestPolicyDate_Compare(t *testing.T) {
	a := generic.NewPolicyDate(28, 2, 2024)
	b := generic.NewPolicyDate(1, 3, 2024)

	assert.True(t, a.Before(b))
	assert.True(t, b.After(a))
	assert.False(t, a.Equal(b))
	assert.True(t, a.AddDays(2).Equal(b))
	assert.True(t, generic.PolicyDate{}.IsZero())
}

func TestAddDays_CrossesMonthAndYear(t *testing.T) {
	assert.Equal(t, generic.NewPolicyDate(1, 3, 2024), generic.NewPolicyDate(28, 2, 2024).AddDays(2))
	assert.Equal(t, generic.NewPolicyDate(1, 1, 2025), generic.NewPolicyDate(31, 12, 2024).AddDays(1))
	assert.Equal(t, generic.NewPolicyDate(30, 11, 2024), generic.NewPolicyDate(1, 1, 2025).AddDays(-32))
}

// =============================================================================
// ADD ONE YEAR
// =============================================================================

func TestAddOneYear_KeepsDayAndMonth(t *testing.T) {
	for _, d := range []generic.PolicyDate{
		generic.NewPolicyDate(1, 1, 2024),
		generic.NewPolicyDate(31, 12, 2023),
		generic.NewPolicyDate(15, 8, 2019),
		generic.NewPolicyDate(28, 2, 2023),
	} {
		next := generic.AddOneYear(d)
		assert.Equal(t, d.Year+1, next.Year, d.String())
		assert.Equal(t, d.Month, next.Month, d.String())
		assert.Equal(t, d.Day, next.Day, d.String())
	}
}

func TestAddOneYear_LeapDayClamps(t *testing.T) {
	// GIVEN: a policy due on 29/02 of a leap year
	// WHEN: it is renewed
	// THEN: the next due date is 28/02, never an invalid 29/02
	assert.Equal(t, generic.NewPolicyDate(28, 2, 2025), generic.AddOneYear(generic.NewPolicyDate(29, 2, 2024)))

	// century years follow the Gregorian rule: 2100 is not a leap year
	assert.Equal(t, generic.NewPolicyDate(28, 2, 2100), generic.AddOneYear(generic.NewPolicyDate(29, 2, 2099)))

	// 29/02/2095 (loose input) lands on a leap year and is kept
	assert.Equal(t, generic.NewPolicyDate(29, 2, 2096), generic.AddOneYear(generic.NewPolicyDate(29, 2, 2095)))
}

func TestIsLeapYear(t *testing.T) {
	assert.True(t, generic.IsLeapYear(2024))
	assert.True(t, generic.IsLeapYear(2000))
	assert.False(t, generic.IsLeapYear(1900))
	assert.False(t, generic.IsLeapYear(2023))
}

func TestPolicyDate_TextEncoding(t *testing.T) {
	data, err := generic.NewPolicyDate(1, 1, 2025).MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "01/01/2025", string(data))

	var d generic.PolicyDate
	require.NoError(t, d.UnmarshalText([]byte("2024-02-29")))
	assert.Equal(t, generic.NewPolicyDate(29, 2, 2024), d)
	assert.Error(t, d.UnmarshalText([]byte("29-02")))
}
