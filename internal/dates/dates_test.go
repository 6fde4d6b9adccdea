package dates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var saoPaulo = time.FixedZone("BRT", -3*3600)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		want   string
		wantOK bool
	}{
		{"canonical passthrough", "2025-02-01", "2025-02-01", true},
		{"canonical with spaces", " 2025-02-01 ", "2025-02-01", true},
		{"day month year", "01/02/2025", "2025-02-01", true},
		{"single digit parts", "1/2/2025", "2025-02-01", true},
		{"two digit year", "15/03/25", "2025-03-15", true},
		{"zero padded short year", "01/02/0025", "2025-02-01", true},
		{"three digit year", "1/2/025", "2025-02-01", true},
		{"dash separator", "15-03-2025", "2025-03-15", true},
		{"serial number", "45658", "2025-01-01", true},
		{"serial with time fraction", "45658.75", "2025-01-01", true},
		{"free form month name", "February 1, 2025", "2025-02-01", true},
		{"free form compact", "20250201", "2025-02-01", true},
		{"past serial range", "99999999", "", false},
		{"day rolls into next month", "31/04/2025", "2025-05-01", true},
		{"empty", "", "", false},
		{"blank", "   ", "", false},
		{"garbage", "a definir", "", false},
		{"serial zero", "0", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Normalize(tt.in, saoPaulo)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	inputs := []string{"01/02/2025", "45658", "15/03/25", "February 1, 2025", "2024-02-29"}
	for _, in := range inputs {
		first, ok := Normalize(in, saoPaulo)
		require.True(t, ok, in)

		second, ok := Normalize(first, saoPaulo)
		require.True(t, ok, first)
		assert.Equal(t, first, second, in)
	}
}

func TestFreeFormUsesLocation(t *testing.T) {
	// 01:30 UTC on the 2nd is still the 1st in São Paulo.
	got, ok := Normalize("2025-02-02T01:30:00Z", saoPaulo)
	require.True(t, ok)
	assert.Equal(t, "2025-02-01", got)
}

func TestTodayAndDaysBetween(t *testing.T) {
	now := time.Date(2025, 1, 2, 1, 0, 0, 0, time.UTC)
	today := Today(now, saoPaulo)
	assert.Equal(t, "2025-01-01", FormatISO(today))

	end, err := ParseISO("2025-01-05")
	require.NoError(t, err)
	assert.Equal(t, 4, DaysBetween(today, end))
	assert.Equal(t, -4, DaysBetween(end, today))
	assert.Equal(t, "2025-01-03", FormatISO(AddDays(today, 2)))
}

func TestDaysBetweenAcrossDST(t *testing.T) {
	a, err := ParseISO("2025-03-08")
	require.NoError(t, err)
	b, err := ParseISO("2025-03-10")
	require.NoError(t, err)

	assert.Equal(t, 2, DaysBetween(a, b))
}

func TestDaysBetweenLongSpan(t *testing.T) {
	a, err := ParseISO("1700-01-01")
	require.NoError(t, err)
	b, err := ParseISO("2025-01-01")
	require.NoError(t, err)

	assert.Equal(t, 118704, DaysBetween(a, b))
	assert.Equal(t, -118704, DaysBetween(b, a))
	assert.Equal(t, "2025-01-01", FormatISO(AddDays(a, DaysBetween(a, b))))
}
