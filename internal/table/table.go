// Package table provides the display transformations the dashboard applies to
// the canonical table: filtering, pivoting, percent change, and summary
// metrics. All functions are pure; none mutate their input.
package table

import (
	"sort"
	"time"

	"LaborStats/internal/domain"
)

// FilterRange keeps observations with from <= date <= to. Zero bounds are
// open on that side.
func FilterRange(tbl domain.Table, from, to time.Time) domain.Table {
	var out domain.Table
	for _, o := range tbl {
		if !from.IsZero() && o.Date.Before(from) {
			continue
		}
		if !to.IsZero() && o.Date.After(to) {
			continue
		}
		out = append(out, o)
	}
	return out
}

// FilterSeries keeps observations whose series name is in names. An empty
// list keeps everything.
func FilterSeries(tbl domain.Table, names []string) domain.Table {
	if len(names) == 0 {
		return tbl
	}
	wanted := make(map[string]struct{}, len(names))
	for _, n := range names {
		wanted[n] = struct{}{}
	}
	var out domain.Table
	for _, o := range tbl {
		if _, ok := wanted[o.SeriesName]; ok {
			out = append(out, o)
		}
	}
	return out
}

// Pivot is the wide form of the table: one row per date, one column per
// series name (alphabetical). Missing cells are nil.
type Pivot struct {
	Columns []string
	Rows    []PivotRow
}

// PivotRow holds the values of one date across all columns.
type PivotRow struct {
	Date   time.Time
	Values []*float64
}

// ToPivot pivots the table into wide form, dates ascending.
func ToPivot(tbl domain.Table) Pivot {
	names := append([]string(nil), tbl.SeriesNames()...)
	sort.Strings(names)
	col := make(map[string]int, len(names))
	for i, n := range names {
		col[n] = i
	}

	byDate := map[time.Time][]*float64{}
	var dates []time.Time
	for _, o := range tbl {
		row, ok := byDate[o.Date]
		if !ok {
			row = make([]*float64, len(names))
			byDate[o.Date] = row
			dates = append(dates, o.Date)
		}
		v := o.Value
		row[col[o.SeriesName]] = &v
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	rows := make([]PivotRow, 0, len(dates))
	for _, d := range dates {
		rows = append(rows, PivotRow{Date: d, Values: byDate[d]})
	}
	return Pivot{Columns: names, Rows: rows}
}

// Change is one percent-change data point of a series.
type Change struct {
	Date       time.Time
	SeriesID   string
	SeriesName string
	Percent    float64
}

// PercentChange computes, per series, the percent change of each observation
// against the observation `periods` positions earlier in date order (1 =
// month over month, 12 = year over year). Observations without a base point,
// or with a zero base value, produce no data point.
func PercentChange(tbl domain.Table, periods int) []Change {
	if periods <= 0 {
		periods = 1
	}

	var out []Change
	for _, group := range groupBySeries(tbl) {
		for i := periods; i < len(group); i++ {
			base := group[i-periods].Value
			if base == 0 {
				continue
			}
			out = append(out, Change{
				Date:       group[i].Date,
				SeriesID:   group[i].SeriesID,
				SeriesName: group[i].SeriesName,
				Percent:    (group[i].Value - base) / base * 100,
			})
		}
	}
	return out
}

// SeriesSummary aggregates one series for catalog listings.
type SeriesSummary struct {
	SeriesID   string
	SeriesName string
	First      time.Time
	Last       time.Time
	Count      int
}

// Summaries returns per-series date range and row count, in order of first
// appearance in the table.
func Summaries(tbl domain.Table) []SeriesSummary {
	var out []SeriesSummary
	for _, group := range groupBySeries(tbl) {
		out = append(out, SeriesSummary{
			SeriesID:   group[0].SeriesID,
			SeriesName: group[0].SeriesName,
			First:      group[0].Date,
			Last:       group[len(group)-1].Date,
			Count:      len(group),
		})
	}
	return out
}

// Metric is the latest-value card of one series.
type Metric struct {
	SeriesID    string
	SeriesName  string
	Date        time.Time
	Value       float64
	MonthDelta  *float64 // absolute change vs previous month, nil when absent
	YearPercent *float64 // percent change vs twelve months back, nil when absent
}

// LatestMetrics computes the dashboard metric cards: the most recent value of
// each series with its month-over-month delta and year-over-year percent
// change.
func LatestMetrics(tbl domain.Table) []Metric {
	var out []Metric
	for _, group := range groupBySeries(tbl) {
		last := group[len(group)-1]
		m := Metric{
			SeriesID:   last.SeriesID,
			SeriesName: last.SeriesName,
			Date:       last.Date,
			Value:      last.Value,
		}

		if prev, ok := valueAt(group, last.Date.AddDate(0, -1, 0)); ok {
			delta := last.Value - prev
			m.MonthDelta = &delta
		}
		if base, ok := valueAt(group, last.Date.AddDate(-1, 0, 0)); ok && base != 0 {
			pct := (last.Value - base) / base * 100
			m.YearPercent = &pct
		}

		out = append(out, m)
	}
	return out
}

// groupBySeries splits the table into per-series groups sorted by date, in
// order of first appearance.
func groupBySeries(tbl domain.Table) []domain.Table {
	index := map[string]int{}
	var groups []domain.Table
	for _, o := range tbl {
		i, ok := index[o.SeriesID]
		if !ok {
			i = len(groups)
			index[o.SeriesID] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], o)
	}
	for _, g := range groups {
		sort.SliceStable(g, func(i, j int) bool { return g[i].Date.Before(g[j].Date) })
	}
	return groups
}

func valueAt(group domain.Table, date time.Time) (float64, bool) {
	for _, o := range group {
		if o.Date.Equal(date) {
			return o.Value, true
		}
	}
	return 0, false
}
