// Package gaps fills the silent days of each category/subcategory bucket with
// countdown placeholders, so every grid row shows how far away its next event is.
package gaps

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/teambition/rrule-go"

	"eventplanner/internal/dates"
	appLog "eventplanner/internal/log"
	"eventplanner/internal/model"
)

// Synthesize returns events interleaved with gap records. today must be a
// civil date (see dates.Today).
//
// Per bucket, in order of first appearance:
//   - leading gaps from today up to the day before the first event, when it
//     lies in the future, labelled with the days left until it;
//   - each event followed by one gap per empty day before the next event
//     of the bucket, labelled with the days left until that next event.
//
// Events on the same day keep their input order. Gaps copy Time and Tags
// from their anchor event so they land in the same grid row. The input
// slice is not modified. A nil newID uses random UUIDs.
func Synthesize(events []model.Event, today time.Time, newID func() string) []model.Event {
	if newID == nil {
		newID = uuid.NewString
	}

	var order []model.BucketKey
	buckets := make(map[model.BucketKey][]model.Event)
	for _, ev := range events {
		key := model.BucketKeyOf(ev)
		if _, ok := buckets[key]; !ok {
			order = append(order, key)
		}
		buckets[key] = append(buckets[key], ev)
	}

	out := make([]model.Event, 0, len(events))
	total := 0
	for _, key := range order {
		list := buckets[key]
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].Date < list[j].Date
		})

		lead := leadingGaps(list[0], today, newID)
		out = append(out, lead...)
		total += len(lead)

		for i, curr := range list {
			out = append(out, curr)
			if i+1 == len(list) {
				continue
			}
			between := betweenGaps(curr, list[i+1], newID)
			out = append(out, between...)
			total += len(between)
		}
	}

	appLog.Debug("gaps synthesized", "events", len(events), "buckets", len(order), "gaps", total)
	return out
}

func leadingGaps(first model.Event, today time.Time, newID func() string) []model.Event {
	firstDate, err := dates.ParseISO(first.Date)
	if err != nil {
		return nil
	}
	diff := dates.DaysBetween(today, firstDate)
	if diff <= 0 {
		return nil
	}

	days := dayRange(today, diff)
	out := make([]model.Event, 0, len(days))
	for i, day := range days {
		left := diff - i
		out = append(out, newGap(first, day, first.Date, fmt.Sprintf("Intervalo: %s até o evento", plural(left)), newID))
	}
	return out
}

func betweenGaps(curr, next model.Event, newID func() string) []model.Event {
	start, err := dates.ParseISO(curr.Date)
	if err != nil {
		return nil
	}
	end, err := dates.ParseISO(next.Date)
	if err != nil {
		return nil
	}
	diff := dates.DaysBetween(start, end)
	if diff <= 1 {
		return nil
	}

	days := dayRange(dates.AddDays(start, 1), diff-1)
	out := make([]model.Event, 0, len(days))
	for i, day := range days {
		left := diff - 1 - i
		out = append(out, newGap(curr, day, next.Date, fmt.Sprintf("Intervalo: %s até o próximo evento", plural(left)), newID))
	}
	return out
}

func newGap(anchor model.Event, day time.Time, nextDate, name string, newID func() string) model.Event {
	return model.Event{
		ID:       newID(),
		Name:     name,
		Date:     dates.FormatISO(day),
		Time:     anchor.Time,
		Tags:     anchor.Tags,
		IsGap:    true,
		NextDate: nextDate,
	}
}

// dayRange lists n consecutive civil days starting at start.
func dayRange(start time.Time, n int) []time.Time {
	r, err := rrule.NewRRule(rrule.ROption{
		Freq:    rrule.DAILY,
		Dtstart: start,
		Count:   n,
	})
	if err != nil {
		// Not reachable for DAILY with a positive count; keep going without rrule.
		appLog.Error("gaps: daily rule rejected", err, "start", dates.FormatISO(start), "count", n)
		out := make([]time.Time, n)
		for i := range out {
			out[i] = dates.AddDays(start, i)
		}
		return out
	}
	return r.All()
}

func plural(n int) string {
	if n > 1 {
		return fmt.Sprintf("%d dias", n)
	}
	return fmt.Sprintf("%d dia", n)
}
