// Package grid indexes records by category, subcategory and day so the
// planner grid can look up any cell directly.
package grid

import (
	"time"

	"eventplanner/internal/dates"
	"eventplanner/internal/model"
)

// Index maps category → subcategory → YYYY-MM-DD → records. Category and
// subcategory keys are normalized with model.BucketKeyOf, so they match the
// buckets the gap synthesizer used.
type Index struct {
	cells map[string]map[string]map[string][]model.Event

	categories []string
	subs       map[string][]string
	count      int
}

// Build indexes records in input order. Nothing is deduplicated: records
// sharing a bucket and a day all land in that cell. The input is not
// modified and the result shares no maps with earlier indexes.
func Build(records []model.Event) *Index {
	idx := &Index{
		cells: make(map[string]map[string]map[string][]model.Event),
		subs:  make(map[string][]string),
	}

	for _, rec := range records {
		key := model.BucketKeyOf(rec)
		day := dayKey(rec.Date)

		bySub, ok := idx.cells[key.Category]
		if !ok {
			bySub = make(map[string]map[string][]model.Event)
			idx.cells[key.Category] = bySub
			idx.categories = append(idx.categories, key.Category)
		}
		byDay, ok := bySub[key.Subcategory]
		if !ok {
			byDay = make(map[string][]model.Event)
			bySub[key.Subcategory] = byDay
			idx.subs[key.Category] = append(idx.subs[key.Category], key.Subcategory)
		}
		byDay[day] = append(byDay[day], rec)
		idx.count++
	}

	return idx
}

// dayKey re-derives the calendar day from the record's own Y/M/D, so a date
// is never shifted by reading it as an instant in some timezone.
func dayKey(date string) string {
	t, err := dates.ParseISO(date)
	if err != nil {
		return date
	}
	return dates.FormatISO(dates.Civil(t.Year(), t.Month(), t.Day()))
}

// Cell returns the records of one grid cell. Category and subcategory are
// normalized before lookup; an unknown cell is empty.
func (idx *Index) Cell(category, subcategory string, day time.Time) []model.Event {
	key := model.NewBucketKey(category, subcategory)
	return idx.cells[key.Category][key.Subcategory][dates.FormatISO(day)]
}

// CellByKey is Cell for callers that already hold a date string.
func (idx *Index) CellByKey(key model.BucketKey, date string) []model.Event {
	return idx.cells[key.Category][key.Subcategory][date]
}

// Categories lists categories in order of first appearance.
func (idx *Index) Categories() []string {
	return append([]string(nil), idx.categories...)
}

// Subcategories lists the subcategories of category in order of first appearance.
func (idx *Index) Subcategories(category string) []string {
	return append([]string(nil), idx.subs[category]...)
}

// Rows lists every (category, subcategory) pair, category-major.
func (idx *Index) Rows() []model.BucketKey {
	var out []model.BucketKey
	for _, cat := range idx.categories {
		for _, sub := range idx.subs[cat] {
			out = append(out, model.BucketKey{Category: cat, Subcategory: sub})
		}
	}
	return out
}

// Len is the total number of indexed records.
func (idx *Index) Len() int {
	return idx.count
}
