// Package records maps parsed feed rows onto canonical events.
package records

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"eventplanner/internal/dates"
	appLog "eventplanner/internal/log"
	"eventplanner/internal/model"
)

// HeaderSet lists, per field, the accepted column labels in priority order.
// The first label with a non-empty cell wins.
type HeaderSet struct {
	Name        []string `yaml:"name" json:"name"`
	Date        []string `yaml:"date" json:"date"`
	Time        []string `yaml:"time" json:"time"`
	Category    []string `yaml:"category" json:"category"`
	Subcategory []string `yaml:"subcategory" json:"subcategory"`
}

// Columns added by a CSV export that includes gaps. Rows whose GapColumn
// holds GapMarker are gap records, not events, and are skipped on ingest.
const (
	GapColumn      = "Intervalo"
	NextDateColumn = "Próximo evento"
	GapMarker      = "sim"
)

// DefaultHeaders returns the labels used by the published auction sheet.
func DefaultHeaders() HeaderSet {
	return HeaderSet{
		Name:        []string{"Leilão/Evento", "Evento", "Nome do Evento"},
		Date:        []string{"Data"},
		Time:        []string{"Hora", "Horário"},
		Category:    []string{"Categoria (Raça)"},
		Subcategory: []string{"Subcategoria (Sexo)"},
	}
}

// WithDefaults fills every empty label list from DefaultHeaders.
func (h HeaderSet) WithDefaults() HeaderSet {
	def := DefaultHeaders()
	if len(h.Name) == 0 {
		h.Name = def.Name
	}
	if len(h.Date) == 0 {
		h.Date = def.Date
	}
	if len(h.Time) == 0 {
		h.Time = def.Time
	}
	if len(h.Category) == 0 {
		h.Category = def.Category
	}
	if len(h.Subcategory) == 0 {
		h.Subcategory = def.Subcategory
	}
	return h
}

// Stats counts what happened to the data rows of one mapping pass.
type Stats struct {
	Rows        int `json:"rows"`
	Accepted    int `json:"accepted"`
	MissingName int `json:"missing_name"`
	MissingDate int `json:"missing_date"`
	BadDate     int `json:"bad_date"`
	Gaps        int `json:"gaps"`
}

// Discarded is the number of rows that produced no event.
func (s Stats) Discarded() int {
	return s.MissingName + s.MissingDate + s.BadDate + s.Gaps
}

// Mapper turns rows into events. The zero value uses the default headers,
// time.Local and random UUIDs.
type Mapper struct {
	Headers  HeaderSet
	Location *time.Location
	NewID    func() string
}

// MapTable treats the first row as the header. Tables with fewer than two
// rows have no data and yield no events.
func (m Mapper) MapTable(rows [][]string) ([]model.Event, Stats) {
	if len(rows) < 2 {
		return nil, Stats{}
	}
	return m.Map(rows[0], rows[1:])
}

// Map builds one event per acceptable data row. Rows without a name, with
// a date the normalizer rejects or marked as exported gaps are dropped and
// counted in Stats. The output
// follows input order; use SortByDate when date order is needed.
func (m Mapper) Map(header []string, rows [][]string) ([]model.Event, Stats) {
	headers := m.Headers.WithDefaults()
	newID := m.NewID
	if newID == nil {
		newID = uuid.NewString
	}

	labels := make([]string, len(header))
	for i, h := range header {
		labels[i] = strings.TrimSpace(h)
	}

	stats := Stats{Rows: len(rows)}
	events := make([]model.Event, 0, len(rows))

	for i, cols := range rows {
		rec := make(map[string]string, len(labels))
		for j, label := range labels {
			// Short rows: missing cells are empty. A label repeated in the
			// header keeps its last column.
			var v string
			if j < len(cols) {
				v = strings.TrimSpace(cols[j])
			}
			rec[label] = v
		}

		if strings.EqualFold(rec[GapColumn], GapMarker) {
			stats.Gaps++
			continue
		}

		name := lookup(rec, headers.Name)
		rawDate := lookup(rec, headers.Date)
		if name == "" {
			stats.MissingName++
			appLog.Debug("row skipped: missing name", "row", i+2)
			continue
		}
		if rawDate == "" {
			stats.MissingDate++
			appLog.Debug("row skipped: missing date", "row", i+2, "name", name)
			continue
		}
		iso, ok := dates.Normalize(rawDate, m.Location)
		if !ok {
			stats.BadDate++
			appLog.Debug("row skipped: unparseable date", "row", i+2, "name", name, "date", rawDate)
			continue
		}

		events = append(events, model.Event{
			ID:   newID(),
			Name: name,
			Date: iso,
			Time: lookup(rec, headers.Time),
			Tags: [2]string{
				orDefault(lookup(rec, headers.Category), model.DefaultCategory),
				orDefault(lookup(rec, headers.Subcategory), model.DefaultSubcategory),
			},
		})
	}

	stats.Accepted = len(events)
	return events, stats
}

// SortByDate orders events ascending by date, keeping input order for
// events on the same day.
func SortByDate(events []model.Event) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Date < events[j].Date
	})
}

func lookup(rec map[string]string, labels []string) string {
	for _, l := range labels {
		if v := rec[l]; v != "" {
			return v
		}
	}
	return ""
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
