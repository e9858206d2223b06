// package services defines the ReportSource abstraction over the hosted
// backend and its two implementations: an aggregated source that calls the
// backend-side report function (over REST or a direct Postgres connection)
// and a raw-join source that fetches the underlying tables and joins them
// locally.
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mveldt/timeport/internal/models"
	"github.com/mveldt/timeport/internal/report"
	"github.com/mveldt/timeport/internal/shared"
	"golang.org/x/time/rate"
)

// FetchResult is what a source hands the rest of the pipeline: the aggregated
// rows plus per-project fetch statuses, so a failed call is distinguishable
// from a legitimately empty one in the run summary.
type FetchResult struct {
	Rows      []models.ReportRow
	Projects  []models.ProjectStatus
	CompanyID string
}

// ReportSource is a single fetch strategy. Implementations are selected by
// configuration, not by duplicated scripts.
type ReportSource interface {
	// Name identifies the strategy in logs and the run summary.
	Name() string

	// Fetch retrieves and aggregates the report rows for one run.
	Fetch(ctx context.Context) (*FetchResult, error)
}

// RPCCaller invokes the backend's report aggregation function for one
// project. Implemented over REST and over a direct Postgres connection.
type RPCCaller interface {
	CallProjectReport(ctx context.Context, project string, filter models.DateFilter, startDate, endDate string) (models.Table, error)
}

// NewSource builds the ReportSource the configuration selects. Call
// cfg.Validate before this.
func NewSource(cfg *shared.Config, logger *log.Logger) (ReportSource, error) {
	filter := cfg.DateFilter()

	switch cfg.Mode() {
	case shared.ModeAggregatedDB:
		return NewAggregatedSource(
			NewPostgresCaller(cfg.Database.URL),
			string(shared.ModeAggregatedDB),
			cfg.Report.TargetProjects,
			filter,
			cfg.Report.CustomStartDate,
			cfg.Report.CustomEndDate,
			cfg.Export.RateLimit,
			logger,
		), nil

	case shared.ModeAggregatedREST:
		client := NewSupabaseClient(cfg.Supabase.URL, cfg.Supabase.Key, nil)
		return NewAggregatedSource(
			client,
			string(shared.ModeAggregatedREST),
			cfg.Report.TargetProjects,
			filter,
			cfg.Report.CustomStartDate,
			cfg.Report.CustomEndDate,
			cfg.Export.RateLimit,
			logger,
		), nil

	case shared.ModeRawJoin:
		window, err := windowFor(filter, cfg)
		if err != nil {
			return nil, err
		}
		client := NewSupabaseClient(cfg.Supabase.URL, cfg.Supabase.Key, nil)
		return NewRawJoinSource(client, RawJoinOpts{
			Company: cfg.Report.CompanyName,
			Targets: cfg.Report.TargetProjects,
			Window:  window,
			Logger:  logger,
		}), nil
	}

	return nil, fmt.Errorf("%w: unknown fetch mode", shared.ErrInvalidConfig)
}

func windowFor(filter models.DateFilter, cfg *shared.Config) (*report.TimeWindow, error) {
	start, end, err := filter.Window(time.Now(), cfg.Report.CustomStartDate, cfg.Report.CustomEndDate)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidConfig, err)
	}
	return &report.TimeWindow{Start: start, End: end}, nil
}

// newLimiter builds the limiter pacing sequential backend calls.
func newLimiter(perSecond float64) *rate.Limiter {
	if perSecond <= 0 {
		perSecond = 5.0
	}
	return rate.NewLimiter(rate.Limit(perSecond), 1)
}
