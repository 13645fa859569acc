// Package httpapi exposes the canonical table to the dashboard frontend as a
// read-only JSON/CSV API. Handlers only ever see the memoized table cache;
// the disk is touched on first load and on explicit reload.
package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"LaborStats/internal/ports"
	"LaborStats/internal/usecase"
)

// NewMux builds the API routing table. The run repository and release
// calendar are optional; their endpoints report 404 when not wired.
func NewMux(cache *usecase.TableCache, runs ports.RunRepository, calendar ports.ReleaseCalendar, logger *slog.Logger) *http.ServeMux {
	c := &Controller{cache: cache, runs: runs, calendar: calendar, logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", c.handleHealthz)
	mux.HandleFunc("GET /api/series", c.handleSeries)
	mux.HandleFunc("GET /api/observations", c.handleObservations)
	mux.HandleFunc("GET /api/observations.csv", c.handleObservationsCSV)
	mux.HandleFunc("GET /api/metrics", c.handleMetrics)
	mux.HandleFunc("GET /api/pivot", c.handlePivot)
	mux.HandleFunc("GET /api/changes", c.handleChanges)
	mux.HandleFunc("GET /api/runs", c.handleRuns)
	mux.HandleFunc("GET /api/schedule", c.handleSchedule)
	mux.HandleFunc("POST /api/reload", c.handleReload)
	return mux
}

// Controller serves dashboard queries over the cached table.
type Controller struct {
	cache    *usecase.TableCache
	runs     ports.RunRepository
	calendar ports.ReleaseCalendar
	logger   *slog.Logger
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to write JSON", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{
		"error":   http.StatusText(status),
		"message": msg,
	})
}
