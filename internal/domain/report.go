package domain

import "time"

// SeriesOutcome records how a single series fared during a collection run.
type SeriesOutcome struct {
	Series  SeriesDefinition
	Records int
	Error   string // empty on success
}

// OK reports whether the series was fetched and parsed successfully.
func (o SeriesOutcome) OK() bool {
	return o.Error == ""
}

// RunReport summarizes one collection run for audit and notifications.
type RunReport struct {
	StartedAt  time.Time
	FinishedAt time.Time
	StartYear  int
	EndYear    int
	Outcomes   []SeriesOutcome
	Fetched    int       // observations parsed across all series
	Appended   int       // rows actually added by the merge
	Watermark  time.Time // max date after the run, zero when the table is empty
}

// Succeeded reports whether at least one series produced data.
func (r RunReport) Succeeded() bool {
	for _, o := range r.Outcomes {
		if o.OK() {
			return true
		}
	}
	return false
}

// Failures returns the outcomes that ended in an error.
func (r RunReport) Failures() []SeriesOutcome {
	var failed []SeriesOutcome
	for _, o := range r.Outcomes {
		if !o.OK() {
			failed = append(failed, o)
		}
	}
	return failed
}

// Release is one upcoming entry of the remote release calendar.
type Release struct {
	ReferenceMonth string
	Date           time.Time
}
