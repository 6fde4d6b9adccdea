package model

import (
	"strings"
)

// Default bucket labels used when a row has no category/subcategory.
const (
	DefaultCategory    = "Sem categoria"
	DefaultSubcategory = "Sem subcategoria"
)

// Event is a single grid record. Canonical events come from one accepted feed
// row; gap records are synthesized placeholders filling the silent days of a
// category/subcategory bucket and always have IsGap set.
type Event struct {
	ID   string `json:"id"`
	Name string `json:"name"`

	// Date is a canonical YYYY-MM-DD calendar day with no timezone attached.
	Date string `json:"date"`

	// Time is an optional HH:MM string; empty means all-day.
	Time string `json:"time,omitempty"`

	// Tags holds [category, subcategory]. Either may be empty; defaults are
	// applied at lookup time by BucketKeyOf.
	Tags [2]string `json:"tags"`

	IsGap bool `json:"is_gap,omitempty"`

	// NextDate is set on gap records only: the date of the event the gap
	// counts down to.
	NextDate string `json:"next_date,omitempty"`
}

func (e Event) Category() string    { return e.Tags[0] }
func (e Event) Subcategory() string { return e.Tags[1] }

// BucketKey identifies a grid row. Both fields are always normalized.
type BucketKey struct {
	Category    string
	Subcategory string
}

func (k BucketKey) String() string {
	return k.Category + "|" + k.Subcategory
}

// NewBucketKey normalizes a raw (category, subcategory) pair.
func NewBucketKey(category, subcategory string) BucketKey {
	return BucketKey{
		Category:    NormalizeLabel(category, DefaultCategory),
		Subcategory: NormalizeLabel(subcategory, DefaultSubcategory),
	}
}

// BucketKeyOf returns the normalized bucket of e. The gap synthesizer and
// the grid indexer must both go through here so bucket identity matches.
func BucketKeyOf(e Event) BucketKey {
	return NewBucketKey(e.Tags[0], e.Tags[1])
}

// NormalizeLabel trims s, collapses internal whitespace runs to a single
// space and returns def when nothing is left.
func NormalizeLabel(s, def string) string {
	out := strings.Join(strings.Fields(s), " ")
	if out == "" {
		return def
	}
	return out
}
