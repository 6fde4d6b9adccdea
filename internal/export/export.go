// Package export writes the event set as iCalendar, CSV or JSON.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/bytedance/sonic"

	"eventplanner/internal/dates"
	appLog "eventplanner/internal/log"
	"eventplanner/internal/model"
	"eventplanner/internal/records"
)

type Format string

const (
	FormatICS  Format = "ics"
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// ParseFormat accepts a format name or a file extension.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), ".")); f {
	case FormatICS, FormatCSV, FormatJSON:
		return f, nil
	case "ical", "ical3":
		return FormatICS, nil
	}
	return "", fmt.Errorf("export: unknown format %q", s)
}

// ContentType is the MIME type served for f.
func (f Format) ContentType() string {
	switch f {
	case FormatICS:
		return "text/calendar; charset=utf-8"
	case FormatCSV:
		return "text/csv; charset=utf-8"
	default:
		return "application/json; charset=utf-8"
	}
}

// EventDuration is the length given to timed events in calendar exports.
const EventDuration = time.Hour

type Options struct {
	IncludeGaps bool
	Location    *time.Location
	Now         time.Time
	ProductID   string
}

func (o Options) withDefaults() Options {
	if o.Location == nil {
		o.Location = time.Local
	}
	if o.Now.IsZero() {
		o.Now = time.Now()
	}
	if o.ProductID == "" {
		o.ProductID = "-//eventplanner//planner//PT"
	}
	return o
}

// Write dispatches to the writer for f.
func Write(w io.Writer, f Format, events []model.Event, opts Options) error {
	switch f {
	case FormatICS:
		return ICS(w, events, opts)
	case FormatCSV:
		return CSV(w, events, opts)
	case FormatJSON:
		return JSON(w, events, opts)
	}
	return fmt.Errorf("export: unknown format %q", f)
}

func selectEvents(events []model.Event, includeGaps bool) []model.Event {
	if includeGaps {
		return events
	}
	out := make([]model.Event, 0, len(events))
	for _, e := range events {
		if !e.IsGap {
			out = append(out, e)
		}
	}
	return out
}

// ICS writes one VEVENT per record. Events without a time become all-day
// events; timed events last EventDuration.
func ICS(w io.Writer, events []model.Event, opts Options) error {
	opts = opts.withDefaults()
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(opts.ProductID)

	written := 0
	for _, e := range selectEvents(events, opts.IncludeGaps) {
		day, err := dates.ParseISO(e.Date)
		if err != nil {
			appLog.Warn("export: skipping event with bad date", "id", e.ID, "date", e.Date)
			continue
		}

		ev := cal.AddEvent(e.ID)
		ev.SetDtStampTime(opts.Now)
		ev.SetSummary(e.Name)

		if e.Time == "" {
			ev.SetAllDayStartAt(day)
			ev.SetAllDayEndAt(dates.AddDays(day, 1))
		} else {
			start, err := model.StartTime(e, opts.Location)
			if err != nil {
				start = day
			}
			ev.SetStartAt(start)
			ev.SetEndAt(start.Add(EventDuration))
		}

		key := model.BucketKeyOf(e)
		ev.AddProperty(ical.ComponentPropertyCategories, key.Category)
		ev.AddProperty(ical.ComponentPropertyCategories, key.Subcategory)
		if e.IsGap {
			ev.SetDescription("Próximo evento em " + e.NextDate)
		}
		written++
	}

	if err := cal.SerializeTo(w); err != nil {
		return fmt.Errorf("export: write ics: %w", err)
	}
	appLog.Debug("export ics written", "events", written)
	return nil
}

// CSV writes the events with the default feed headers, so the output can be
// fed back through the ingestor. Gap rows are marked in the Intervalo column
// and the mapper skips them.
func CSV(w io.Writer, events []model.Event, opts Options) error {
	h := records.DefaultHeaders()
	cw := csv.NewWriter(w)

	header := []string{h.Name[0], h.Date[0], h.Time[0], h.Category[0], h.Subcategory[0]}
	if opts.IncludeGaps {
		header = append(header, records.GapColumn, records.NextDateColumn)
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("export: write csv: %w", err)
	}

	for _, e := range selectEvents(events, opts.IncludeGaps) {
		row := []string{e.Name, e.Date, e.Time, e.Tags[0], e.Tags[1]}
		if opts.IncludeGaps {
			gap := ""
			if e.IsGap {
				gap = records.GapMarker
			}
			row = append(row, gap, e.NextDate)
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("export: write csv: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("export: write csv: %w", err)
	}
	return nil
}

// JSON writes the events as a JSON array.
func JSON(w io.Writer, events []model.Event, opts Options) error {
	list := selectEvents(events, opts.IncludeGaps)
	if list == nil {
		list = []model.Event{}
	}
	data, err := sonic.Marshal(list)
	if err != nil {
		return fmt.Errorf("export: encode json: %w", err)
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("export: write json: %w", err)
	}
	return nil
}
