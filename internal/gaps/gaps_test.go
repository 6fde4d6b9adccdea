package gaps

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventplanner/internal/dates"
	"eventplanner/internal/model"
)

func seqIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("gap-%d", n)
	}
}

func gapsOnly(recs []model.Event) []model.Event {
	var out []model.Event
	for _, r := range recs {
		if r.IsGap {
			out = append(out, r)
		}
	}
	return out
}

func TestBetweenTwoEvents(t *testing.T) {
	a := model.Event{ID: "a", Name: "A", Date: "2025-01-01", Time: "10:00", Tags: [2]string{"Nelore", "Machos"}}
	b := model.Event{ID: "b", Name: "B", Date: "2025-01-05", Tags: [2]string{"Nelore", "Machos"}}

	// Today is the first event's day, so only inter-event gaps appear.
	today, err := dates.ParseISO("2025-01-01")
	require.NoError(t, err)

	out := Synthesize([]model.Event{b, a}, today, seqIDs())

	require.Len(t, out, 5)
	assert.Equal(t, "a", out[0].ID)
	assert.Equal(t, "b", out[4].ID)

	gaps := gapsOnly(out)
	require.Len(t, gaps, 3)
	wantDates := []string{"2025-01-02", "2025-01-03", "2025-01-04"}
	wantNames := []string{
		"Intervalo: 3 dias até o próximo evento",
		"Intervalo: 2 dias até o próximo evento",
		"Intervalo: 1 dia até o próximo evento",
	}
	for i, g := range gaps {
		assert.Equal(t, wantDates[i], g.Date)
		assert.Equal(t, wantNames[i], g.Name)
		assert.Equal(t, "10:00", g.Time, "gaps inherit the preceding event's time")
		assert.Equal(t, a.Tags, g.Tags)
		assert.Equal(t, "2025-01-05", g.NextDate)
		assert.True(t, g.IsGap)
	}
}

func TestLeadingGapsIncludeToday(t *testing.T) {
	today, err := dates.ParseISO("2025-01-01")
	require.NoError(t, err)

	first := model.Event{ID: "x", Name: "X", Date: "2025-01-04", Time: "09:00", Tags: [2]string{"Gir", ""}}
	out := Synthesize([]model.Event{first}, today, seqIDs())

	require.Len(t, out, 4)
	assert.Equal(t, "x", out[3].ID)

	want := []struct{ date, name string }{
		{"2025-01-01", "Intervalo: 3 dias até o evento"},
		{"2025-01-02", "Intervalo: 2 dias até o evento"},
		{"2025-01-03", "Intervalo: 1 dia até o evento"},
	}
	for i, w := range want {
		assert.Equal(t, w.date, out[i].Date)
		assert.Equal(t, w.name, out[i].Name)
		assert.Equal(t, "09:00", out[i].Time)
		assert.Equal(t, first.Tags, out[i].Tags)
		assert.Equal(t, "2025-01-04", out[i].NextDate)
	}
}

func TestNoLeadingGapsForPastOrToday(t *testing.T) {
	for _, date := range []string{"2025-01-01", "2024-12-25"} {
		today, err := dates.ParseISO("2025-01-01")
		require.NoError(t, err)

		out := Synthesize([]model.Event{{ID: "e", Date: date}}, today, seqIDs())
		assert.Len(t, out, 1, date)
	}
}

func TestBucketsAreIndependent(t *testing.T) {
	today, err := dates.ParseISO("2025-01-01")
	require.NoError(t, err)

	events := []model.Event{
		{ID: "n1", Date: "2025-01-01", Tags: [2]string{"Nelore", "Machos"}},
		{ID: "g1", Date: "2025-01-01", Tags: [2]string{"Gir", "Fêmeas"}},
		{ID: "n2", Date: "2025-01-03", Tags: [2]string{" Nelore ", "Machos"}},
		{ID: "g2", Date: "2025-01-02", Tags: [2]string{"Gir", "Fêmeas"}},
	}
	out := Synthesize(events, today, seqIDs())

	var ids []string
	for _, r := range out {
		if r.IsGap {
			ids = append(ids, "gap@"+r.Date)
			continue
		}
		ids = append(ids, r.ID)
	}
	// Nelore first (first appearance), one gap on the 2nd; Gir has none.
	assert.Equal(t, []string{"n1", "gap@2025-01-02", "n2", "g1", "g2"}, ids)
}

func TestSameDayEventsKeepInputOrder(t *testing.T) {
	today, err := dates.ParseISO("2025-01-01")
	require.NoError(t, err)

	events := []model.Event{
		{ID: "late", Date: "2025-01-03"},
		{ID: "first", Date: "2025-01-01"},
		{ID: "second", Date: "2025-01-01"},
	}
	out := Synthesize(events, today, seqIDs())

	require.Len(t, out, 4)
	assert.Equal(t, "first", out[0].ID)
	assert.Equal(t, "second", out[1].ID)
	assert.True(t, out[2].IsGap)
	assert.Equal(t, "2025-01-02", out[2].Date)
	assert.Equal(t, "late", out[3].ID)
}

func TestNeverGeneratesOnEventDays(t *testing.T) {
	today, err := dates.ParseISO("2025-01-01")
	require.NoError(t, err)

	events := []model.Event{
		{ID: "a", Date: "2025-01-10"},
		{ID: "b", Date: "2025-01-20"},
		{ID: "c", Date: "2025-02-02"},
	}
	out := Synthesize(events, today, seqIDs())

	eventDays := map[string]bool{}
	for _, e := range events {
		eventDays[e.Date] = true
	}
	seen := map[string]bool{}
	for _, g := range gapsOnly(out) {
		assert.False(t, eventDays[g.Date], g.Date)
		assert.False(t, seen[g.Date], "one gap per day")
		seen[g.Date] = true
	}
	// Jan 1..9 leading (9), Jan 11..19 (9), Jan 21..Feb 1 (12).
	assert.Len(t, seen, 30)
}

func TestCenturiesApartStillReachNextEvent(t *testing.T) {
	today, err := dates.ParseISO("2025-01-01")
	require.NoError(t, err)

	events := []model.Event{
		{ID: "old", Date: "1700-01-01"},
		{ID: "now", Date: "2025-01-01"},
	}
	out := Synthesize(events, today, seqIDs())

	gaps := gapsOnly(out)
	require.Len(t, gaps, 118703)
	assert.Equal(t, "1700-01-02", gaps[0].Date)
	assert.Equal(t, "Intervalo: 118703 dias até o próximo evento", gaps[0].Name)
	last := gaps[len(gaps)-1]
	assert.Equal(t, "2024-12-31", last.Date)
	assert.Equal(t, "Intervalo: 1 dia até o próximo evento", last.Name)
	assert.Equal(t, "now", out[len(out)-1].ID)
}

func TestInputIsNotMutated(t *testing.T) {
	today, err := dates.ParseISO("2025-01-01")
	require.NoError(t, err)

	events := []model.Event{
		{ID: "b", Date: "2025-01-05"},
		{ID: "a", Date: "2025-01-02"},
	}
	snapshot := append([]model.Event(nil), events...)

	Synthesize(events, today, nil)

	assert.Equal(t, snapshot, events)
}

func TestEmptyInput(t *testing.T) {
	today, err := dates.ParseISO("2025-01-01")
	require.NoError(t, err)

	assert.Empty(t, Synthesize(nil, today, nil))
}
