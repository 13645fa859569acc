package ports

import (
	"context"
	"time"

	"LaborStats/internal/domain"
)

// ObservationSource pulls fresh observations for one series from the remote
// statistics API. Implementations own request pacing and retry policy.
type ObservationSource interface {
	FetchSeries(ctx context.Context, def domain.SeriesDefinition, startYear, endYear int) ([]domain.Observation, error)
}

// TableStore persists the canonical table as a flat tabular file.
type TableStore interface {
	// Load returns the persisted table; an absent file yields an empty table.
	Load() (domain.Table, error)
	// Save overwrites the persisted table in full.
	Save(table domain.Table) error
}

// RunRepository keeps collection run reports for audit and history.
type RunRepository interface {
	SaveRun(ctx context.Context, report domain.RunReport) error
	RecentRuns(ctx context.Context, limit int) ([]domain.RunReport, error)
}

// Notifier streams collection digests to Telegram or other channels.
type Notifier interface {
	PublishDigest(ctx context.Context, digest string) error
}

// ReleaseCalendar reports upcoming publication dates of the remote source.
type ReleaseCalendar interface {
	Upcoming(ctx context.Context) ([]domain.Release, error)
}

// Scheduler controls when collection runs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
