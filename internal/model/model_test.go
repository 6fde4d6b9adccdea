package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeLabel(t *testing.T) {
	tests := []struct {
		name string
		in   string
		def  string
		want string
	}{
		{"trims", "  Nelore  ", DefaultCategory, "Nelore"},
		{"collapses internal runs", "Nelore \t  PO", DefaultCategory, "Nelore PO"},
		{"empty gets default", "", DefaultSubcategory, DefaultSubcategory},
		{"blank gets default", " \n ", DefaultCategory, DefaultCategory},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeLabel(tt.in, tt.def))
		})
	}
}

func TestBucketKeyOf(t *testing.T) {
	a := Event{Tags: [2]string{" Nelore ", ""}}
	b := Event{Tags: [2]string{"Nelore", "  "}}

	assert.Equal(t, BucketKeyOf(a), BucketKeyOf(b))
	assert.Equal(t, BucketKey{Category: "Nelore", Subcategory: DefaultSubcategory}, BucketKeyOf(a))
	assert.Equal(t, "Sem categoria|Sem subcategoria", BucketKeyOf(Event{}).String())
}

func TestCountdownTo(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		start time.Time
		want  Countdown
	}{
		{
			name:  "far ahead",
			start: now.Add(3*24*time.Hour + 2*time.Hour + 5*time.Minute),
			want:  Countdown{Days: 3, Hours: 2, Minutes: 5, Status: CountdownOK},
		},
		{
			name:  "within two days",
			start: now.Add(47 * time.Hour),
			want:  Countdown{Days: 1, Hours: 23, Minutes: 0, Status: CountdownSoon},
		},
		{
			name:  "already started",
			start: now.Add(-90 * time.Minute),
			want:  Countdown{Days: 0, Hours: 1, Minutes: 30, Status: CountdownLate},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CountdownTo(now, tt.start))
		})
	}
}

func TestStartTime(t *testing.T) {
	loc := time.FixedZone("BRT", -3*3600)

	got, err := StartTime(Event{Date: "2025-02-01", Time: "19:30"}, loc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 2, 1, 19, 30, 0, 0, loc), got)

	got, err = StartTime(Event{Date: "2025-02-01", Time: "à noite"}, loc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 2, 1, 0, 0, 0, 0, loc), got)

	_, err = StartTime(Event{Date: "01/02/2025"}, loc)
	assert.Error(t, err)
}
