package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"LaborStats/internal/config"
	"LaborStats/internal/domain"
	"LaborStats/internal/httpapi"
	"LaborStats/internal/infrastructure/bls"
	"LaborStats/internal/infrastructure/csvstore"
	"LaborStats/internal/infrastructure/release"
	"LaborStats/internal/infrastructure/scheduler"
	"LaborStats/internal/infrastructure/storage"
	"LaborStats/internal/infrastructure/telegram"
	"LaborStats/internal/logging"
	"LaborStats/internal/ports"
	"LaborStats/internal/provider"
	"LaborStats/internal/table"
	"LaborStats/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg      config.Config
	logger   *slog.Logger
	cache    *usecase.TableCache
	pipeline *usecase.Pipeline
	runs     ports.RunRepository
	calendar ports.ReleaseCalendar
	db       *sql.DB
}

// New builds a runnable application instance from a loaded config.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}

	registry := provider.NewRegistry()
	registry.Register("bls", bls.NewClient(cfg.BLS, nil, baseLogger.With("component", "bls")))

	source, err := registry.Resolve(cfg.Provider)
	if err != nil {
		return nil, err
	}

	store := csvstore.New(cfg.Data.Path)
	cache := usecase.NewTableCache(store)

	app := &Application{
		cfg:      cfg,
		logger:   baseLogger,
		cache:    cache,
		calendar: release.NewCalendar(cfg.Schedule.URL, nil),
	}

	if cfg.History.Path != "" {
		db, err := storage.Open(cfg.History.Path)
		if err != nil {
			return nil, fmt.Errorf("open run history: %w", err)
		}
		app.db = db
		app.runs = storage.NewSQLiteRepository(db)
	}

	var notifier ports.Notifier
	tg := cfg.Notifications.Telegram
	if tg.BotToken != "" && tg.ChatID != "" {
		notifier = telegram.NewNotifier(tg)
	}

	series := make([]domain.SeriesDefinition, 0, len(cfg.Series))
	for _, s := range cfg.Series {
		series = append(series, domain.SeriesDefinition{Name: s.Name, ID: s.ID})
	}

	app.pipeline = usecase.NewPipeline(usecase.PipelineDeps{
		Source:    source,
		Store:     store,
		Runs:      app.runs,
		Notifier:  notifier,
		Logger:    baseLogger.With("component", "pipeline"),
		Series:    series,
		StartYear: cfg.BLS.StartYear,
	})
	return app, nil
}

// Close releases resources held by the application.
func (a *Application) Close() error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}

// Collect runs the collection pipeline once and refreshes the cached table.
func (a *Application) Collect(ctx context.Context) (domain.RunReport, error) {
	report, err := a.pipeline.Collect(ctx)
	if err != nil {
		return report, err
	}
	if _, err := a.cache.Reload(); err != nil {
		a.logger.Warn("cache refresh after collect failed", "error", err)
	}
	return report, nil
}

// Serve runs the HTTP API until ctx is cancelled. When collectEvery is
// positive, a background scheduler re-runs the pipeline at that interval.
func (a *Application) Serve(ctx context.Context, collectEvery time.Duration) error {
	mux := httpapi.NewMux(a.cache, a.runs, a.calendar, a.logger.With("component", "httpapi"))
	srv := &http.Server{
		Addr:              a.cfg.HTTP.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	var sched *usecase.Scheduler
	if collectEvery > 0 {
		sched = usecase.NewScheduler(
			scheduler.NewIntervalScheduler(collectEvery),
			a.pipeline, a.cache,
			a.logger.With("component", "scheduler"),
		)
		if err := sched.Start(ctx); err != nil {
			return fmt.Errorf("start scheduler: %w", err)
		}
	}

	go a.logNextRelease(ctx)

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http listening", "addr", a.cfg.HTTP.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if sched != nil {
		if err := sched.Stop(shutdownCtx); err != nil {
			a.logger.Error("scheduler stop", "error", err)
		}
	}

	a.logger.Info("http shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return ctx.Err()
}

// Export writes the persisted table to w as CSV, restricted to the given
// date range and series names. Zero times and an empty name list mean no
// restriction.
func (a *Application) Export(w io.Writer, from, to time.Time, names []string) error {
	tbl, err := a.cache.Table()
	if err != nil {
		return err
	}
	filtered := table.FilterSeries(table.FilterRange(tbl, from, to), names)
	return csvstore.Write(w, filtered)
}

// logNextRelease reports when fresh data is expected. Best effort only; the
// calendar page being unreachable must not affect serving.
func (a *Application) logNextRelease(ctx context.Context) {
	releases, err := a.calendar.Upcoming(ctx)
	if err != nil {
		a.logger.Debug("release schedule unavailable", "error", err)
		return
	}
	if len(releases) > 0 {
		a.logger.Info("next release",
			"reference", releases[0].ReferenceMonth,
			"date", releases[0].Date.Format("2006-01-02"),
		)
	}
}

// Releases returns the upcoming publication dates scraped from the
// release calendar.
func (a *Application) Releases(ctx context.Context) ([]domain.Release, error) {
	return a.calendar.Upcoming(ctx)
}
