package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"LaborStats/internal/domain"
	"LaborStats/internal/infrastructure/csvstore"
	"LaborStats/internal/table"
)

const dateLayout = "2006-01-02"

func (c *Controller) handleHealthz(w http.ResponseWriter, r *http.Request) {
	tbl, err := c.cache.Table()
	if err != nil {
		c.logError("healthz: table load failed", err)
		writeError(w, http.StatusInternalServerError, "dataset unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "rows": len(tbl)})
}

type seriesResponse struct {
	SeriesID   string `json:"seriesId"`
	SeriesName string `json:"seriesName"`
	First      string `json:"first"`
	Last       string `json:"last"`
	Count      int    `json:"count"`
}

func (c *Controller) handleSeries(w http.ResponseWriter, r *http.Request) {
	tbl, err := c.cache.Table()
	if err != nil {
		c.logError("series: table load failed", err)
		writeError(w, http.StatusInternalServerError, "failed to load dataset")
		return
	}

	summaries := table.Summaries(tbl)
	out := make([]seriesResponse, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, seriesResponse{
			SeriesID:   s.SeriesID,
			SeriesName: s.SeriesName,
			First:      s.First.Format(dateLayout),
			Last:       s.Last.Format(dateLayout),
			Count:      s.Count,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

type observationResponse struct {
	Date       string  `json:"date"`
	SeriesID   string  `json:"seriesId"`
	SeriesName string  `json:"seriesName"`
	Value      float64 `json:"value"`
	Year       int     `json:"year"`
	Period     string  `json:"period"`
	PeriodName string  `json:"periodName"`
}

func (c *Controller) handleObservations(w http.ResponseWriter, r *http.Request) {
	filtered, ok := c.filteredTable(w, r)
	if !ok {
		return
	}

	out := make([]observationResponse, 0, len(filtered))
	for _, o := range filtered {
		out = append(out, observationResponse{
			Date:       o.Date.Format(dateLayout),
			SeriesID:   o.SeriesID,
			SeriesName: o.SeriesName,
			Value:      o.Value,
			Year:       o.Year,
			Period:     o.Period,
			PeriodName: o.PeriodName,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// handleObservationsCSV is the downstream export: the same flat format as the
// persisted file, filtered by date range and series selection, values
// untouched.
func (c *Controller) handleObservationsCSV(w http.ResponseWriter, r *http.Request) {
	filtered, ok := c.filteredTable(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="labor_stats.csv"`)
	if err := csvstore.Write(w, filtered); err != nil {
		c.logError("observations.csv: write failed", err)
	}
}

type metricResponse struct {
	SeriesID    string   `json:"seriesId"`
	SeriesName  string   `json:"seriesName"`
	Date        string   `json:"date"`
	Value       float64  `json:"value"`
	MonthDelta  *float64 `json:"monthDelta"`
	YearPercent *float64 `json:"yearPercent"`
}

func (c *Controller) handleMetrics(w http.ResponseWriter, r *http.Request) {
	tbl, err := c.cache.Table()
	if err != nil {
		c.logError("metrics: table load failed", err)
		writeError(w, http.StatusInternalServerError, "failed to load dataset")
		return
	}

	metrics := table.LatestMetrics(tbl)
	out := make([]metricResponse, 0, len(metrics))
	for _, m := range metrics {
		out = append(out, metricResponse{
			SeriesID:    m.SeriesID,
			SeriesName:  m.SeriesName,
			Date:        m.Date.Format(dateLayout),
			Value:       m.Value,
			MonthDelta:  m.MonthDelta,
			YearPercent: m.YearPercent,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

type pivotResponse struct {
	Columns []string   `json:"columns"`
	Rows    []pivotRow `json:"rows"`
}

type pivotRow struct {
	Date   string     `json:"date"`
	Values []*float64 `json:"values"`
}

func (c *Controller) handlePivot(w http.ResponseWriter, r *http.Request) {
	filtered, ok := c.filteredTable(w, r)
	if !ok {
		return
	}

	p := table.ToPivot(filtered)
	out := pivotResponse{Columns: p.Columns, Rows: make([]pivotRow, 0, len(p.Rows))}
	for _, row := range p.Rows {
		out.Rows = append(out.Rows, pivotRow{Date: row.Date.Format(dateLayout), Values: row.Values})
	}
	writeJSON(w, http.StatusOK, out)
}

type changeResponse struct {
	Date       string  `json:"date"`
	SeriesID   string  `json:"seriesId"`
	SeriesName string  `json:"seriesName"`
	Percent    float64 `json:"percent"`
}

func (c *Controller) handleChanges(w http.ResponseWriter, r *http.Request) {
	periods := 1
	if s := r.URL.Query().Get("periods"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 || n > 120 {
			writeError(w, http.StatusBadRequest, "invalid 'periods' (expected 1..120)")
			return
		}
		periods = n
	}

	filtered, ok := c.filteredTable(w, r)
	if !ok {
		return
	}

	changes := table.PercentChange(filtered, periods)
	out := make([]changeResponse, 0, len(changes))
	for _, ch := range changes {
		out = append(out, changeResponse{
			Date:       ch.Date.Format(dateLayout),
			SeriesID:   ch.SeriesID,
			SeriesName: ch.SeriesName,
			Percent:    ch.Percent,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

type runResponse struct {
	StartedAt  string              `json:"startedAt"`
	FinishedAt string              `json:"finishedAt"`
	StartYear  int                 `json:"startYear"`
	EndYear    int                 `json:"endYear"`
	Fetched    int                 `json:"fetched"`
	Appended   int                 `json:"appended"`
	Watermark  string              `json:"watermark,omitempty"`
	Succeeded  bool                `json:"succeeded"`
	Series     []runSeriesResponse `json:"series"`
}

type runSeriesResponse struct {
	SeriesID   string `json:"seriesId"`
	SeriesName string `json:"seriesName"`
	Records    int    `json:"records"`
	Error      string `json:"error,omitempty"`
}

func (c *Controller) handleRuns(w http.ResponseWriter, r *http.Request) {
	if c.runs == nil {
		writeError(w, http.StatusNotFound, "run history is not configured")
		return
	}

	limit := 20
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 || n > 100 {
			writeError(w, http.StatusBadRequest, "invalid 'limit' (expected 1..100)")
			return
		}
		limit = n
	}

	runs, err := c.runs.RecentRuns(r.Context(), limit)
	if err != nil {
		c.logError("runs: query failed", err)
		writeError(w, http.StatusInternalServerError, "failed to load run history")
		return
	}

	out := make([]runResponse, 0, len(runs))
	for _, run := range runs {
		resp := runResponse{
			StartedAt:  run.StartedAt.Format(time.RFC3339),
			FinishedAt: run.FinishedAt.Format(time.RFC3339),
			StartYear:  run.StartYear,
			EndYear:    run.EndYear,
			Fetched:    run.Fetched,
			Appended:   run.Appended,
			Succeeded:  run.Succeeded(),
		}
		if !run.Watermark.IsZero() {
			resp.Watermark = run.Watermark.Format(dateLayout)
		}
		for _, o := range run.Outcomes {
			resp.Series = append(resp.Series, runSeriesResponse{
				SeriesID:   o.Series.ID,
				SeriesName: o.Series.Name,
				Records:    o.Records,
				Error:      o.Error,
			})
		}
		out = append(out, resp)
	}
	writeJSON(w, http.StatusOK, out)
}

type releaseResponse struct {
	ReferenceMonth string `json:"referenceMonth"`
	Date           string `json:"date"`
}

func (c *Controller) handleSchedule(w http.ResponseWriter, r *http.Request) {
	if c.calendar == nil {
		writeError(w, http.StatusNotFound, "release schedule is not configured")
		return
	}

	releases, err := c.calendar.Upcoming(r.Context())
	if err != nil {
		c.logError("schedule: fetch failed", err)
		writeError(w, http.StatusBadGateway, "failed to fetch release schedule")
		return
	}

	out := make([]releaseResponse, 0, len(releases))
	for _, rel := range releases {
		out = append(out, releaseResponse{
			ReferenceMonth: rel.ReferenceMonth,
			Date:           rel.Date.Format(dateLayout),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (c *Controller) handleReload(w http.ResponseWriter, r *http.Request) {
	tbl, err := c.cache.Reload()
	if err != nil {
		c.logError("reload failed", err)
		writeError(w, http.StatusInternalServerError, "failed to reload dataset")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "reloaded", "rows": len(tbl)})
}

// filteredTable applies the shared from/to/series query filters to the cached
// table. On failure it writes the error response and reports ok=false.
func (c *Controller) filteredTable(w http.ResponseWriter, r *http.Request) (domain.Table, bool) {
	from, to, names, err := parseTableQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}

	tbl, err := c.cache.Table()
	if err != nil {
		c.logError("table load failed", err)
		writeError(w, http.StatusInternalServerError, "failed to load dataset")
		return nil, false
	}

	return table.FilterSeries(table.FilterRange(tbl, from, to), names), true
}

func parseTableQuery(r *http.Request) (from time.Time, to time.Time, names []string, err error) {
	q := r.URL.Query()

	if s := q.Get("from"); s != "" {
		from, err = time.Parse(dateLayout, s)
		if err != nil {
			return time.Time{}, time.Time{}, nil, errors.New("invalid 'from' (expected YYYY-MM-DD)")
		}
	}
	if s := q.Get("to"); s != "" {
		to, err = time.Parse(dateLayout, s)
		if err != nil {
			return time.Time{}, time.Time{}, nil, errors.New("invalid 'to' (expected YYYY-MM-DD)")
		}
	}
	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return time.Time{}, time.Time{}, nil, errors.New("'from' must be <= 'to'")
	}

	names = q["series"]
	return from, to, names, nil
}

func (c *Controller) logError(msg string, err error) {
	if c.logger != nil {
		c.logger.Error(msg, "error", err)
	}
}
