package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"LaborStats/internal/domain"
	"LaborStats/internal/ports"
)

// ErrNoDataCollected is returned when every series failed and nothing was
// fetched; the persisted table is left untouched in that case.
var ErrNoDataCollected = errors.New("no data collected")

// PipelineDeps wires all driven adapters into the collection pipeline.
type PipelineDeps struct {
	Source    ports.ObservationSource
	Store     ports.TableStore
	Runs      ports.RunRepository
	Notifier  ports.Notifier
	Logger    *slog.Logger
	Series    []domain.SeriesDefinition
	StartYear int
}

// Pipeline implements the incremental collection workflow: load the persisted
// table, fetch each catalog series sequentially, merge past the watermark,
// save, and record the run.
type Pipeline struct {
	source    ports.ObservationSource
	store     ports.TableStore
	runs      ports.RunRepository
	notifier  ports.Notifier
	logger    *slog.Logger
	series    []domain.SeriesDefinition
	startYear int
	now       func() time.Time
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	startYear := deps.StartYear
	if startYear == 0 {
		startYear = 2020
	}
	return &Pipeline{
		source:    deps.Source,
		store:     deps.Store,
		runs:      deps.Runs,
		notifier:  deps.Notifier,
		logger:    deps.Logger,
		series:    deps.Series,
		startYear: startYear,
		now:       time.Now,
	}
}

// Collect performs one collection run. A failing series is logged and
// skipped; the run as a whole fails only when nothing at all was collected
// and at least one series errored.
func (p *Pipeline) Collect(ctx context.Context) (domain.RunReport, error) {
	existing, err := p.store.Load()
	if err != nil {
		return domain.RunReport{}, fmt.Errorf("load table: %w", err)
	}

	startYear := p.startYear
	if watermark, ok := existing.Watermark(); ok {
		// Update runs re-fetch from the watermark year; the merge filter
		// discards the overlap.
		startYear = watermark.Year()
	}
	endYear := p.now().Year()

	report := domain.RunReport{
		StartedAt: p.now(),
		StartYear: startYear,
		EndYear:   endYear,
	}

	var incoming []domain.Observation
	for _, def := range p.series {
		p.info("fetching series", "series", def.Name, "id", def.ID, "from", startYear, "to", endYear)

		obs, err := p.source.FetchSeries(ctx, def, startYear, endYear)
		outcome := domain.SeriesOutcome{Series: def}
		if err != nil {
			p.warn("series failed, continuing", "series", def.Name, "error", err)
			outcome.Error = err.Error()
		} else {
			outcome.Records = len(obs)
			incoming = append(incoming, obs...)
			p.info("series fetched", "series", def.Name, "records", len(obs))
		}
		report.Outcomes = append(report.Outcomes, outcome)
	}
	report.Fetched = len(incoming)

	if len(incoming) == 0 {
		report.FinishedAt = p.now()
		p.recordRun(ctx, report)
		if !report.Succeeded() {
			return report, ErrNoDataCollected
		}
		p.info("no observations returned, table left unchanged")
		return report, nil
	}

	merged := domain.Merge(existing, incoming)
	report.Appended = len(merged) - len(existing)
	if watermark, ok := merged.Watermark(); ok {
		report.Watermark = watermark
	}

	if err := p.store.Save(merged); err != nil {
		report.FinishedAt = p.now()
		return report, fmt.Errorf("save table: %w", err)
	}
	report.FinishedAt = p.now()

	p.info("collection run finished",
		"fetched", report.Fetched,
		"appended", report.Appended,
		"rows", len(merged),
		"watermark", report.Watermark.Format("2006-01-02"),
	)

	p.recordRun(ctx, report)
	p.notify(ctx, report)

	return report, nil
}

// recordRun persists the report when a run repository is wired; a failure
// here never fails the run.
func (p *Pipeline) recordRun(ctx context.Context, report domain.RunReport) {
	if p.runs == nil {
		return
	}
	if err := p.runs.SaveRun(ctx, report); err != nil {
		p.warn("record run failed", "error", err)
	}
}

// notify publishes a digest when new rows were appended; best effort.
func (p *Pipeline) notify(ctx context.Context, report domain.RunReport) {
	if p.notifier == nil || report.Appended == 0 {
		return
	}
	digest := fmt.Sprintf("Labor stats updated: %d new observations, data now through %s.",
		report.Appended, report.Watermark.Format("January 2006"))
	if failed := report.Failures(); len(failed) > 0 {
		digest += fmt.Sprintf(" %d series failed.", len(failed))
	}
	if err := p.notifier.PublishDigest(ctx, digest); err != nil {
		p.warn("publish digest failed", "error", err)
	}
}

func (p *Pipeline) info(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Info(msg, args...)
	}
}

func (p *Pipeline) warn(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Warn(msg, args...)
	}
}
