package domain

import "time"

// Observation is a core entity describing one monthly data point of a series.
type Observation struct {
	Date       time.Time // first day of the month, UTC
	SeriesID   string
	SeriesName string
	Value      float64
	Year       int
	Period     string // monthly period code, "M01".."M12"
	PeriodName string // e.g. "January"
}

// Key identifies an observation inside the canonical table.
type Key struct {
	Date     time.Time
	SeriesID string
}

// Key returns the natural dedup key of the observation.
func (o Observation) Key() Key {
	return Key{Date: o.Date, SeriesID: o.SeriesID}
}

// SeriesDefinition maps a display name to the remote series identifier.
type SeriesDefinition struct {
	Name string
	ID   string
}

// Table is the canonical set of observations. Invariant: no two rows share
// (Date, SeriesID); rows are kept sorted ascending by date for presentation.
type Table []Observation

// Watermark reports the maximum date present in the table.
func (t Table) Watermark() (time.Time, bool) {
	if len(t) == 0 {
		return time.Time{}, false
	}
	max := t[0].Date
	for _, o := range t[1:] {
		if o.Date.After(max) {
			max = o.Date
		}
	}
	return max, true
}

// SeriesNames returns the distinct series names in order of first appearance.
func (t Table) SeriesNames() []string {
	seen := map[string]struct{}{}
	var names []string
	for _, o := range t {
		if _, ok := seen[o.SeriesName]; ok {
			continue
		}
		seen[o.SeriesName] = struct{}{}
		names = append(names, o.SeriesName)
	}
	return names
}
