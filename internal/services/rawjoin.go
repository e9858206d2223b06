package services

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/mveldt/timeport/internal/models"
	"github.com/mveldt/timeport/internal/report"
	"github.com/mveldt/timeport/internal/shared"
)

// TableFetcher is the backend surface the raw-join source needs: a company
// lookup plus company-scoped table reads. Satisfied by [SupabaseClient].
type TableFetcher interface {
	LookupCompany(ctx context.Context, name string) (models.Row, error)
	FetchCompanyTable(ctx context.Context, table, companyID string) (models.Table, error)
}

// RawJoinOpts configures a raw-join fetch.
type RawJoinOpts struct {
	Company string
	Targets []string
	Window  *report.TimeWindow
	Logger  *log.Logger
}

// RawJoinSource fetches time entries, projects and users for one company and
// performs the join and aggregation locally. Unlike the aggregated source,
// an empty required table is fatal for the whole run.
type RawJoinSource struct {
	client TableFetcher
	opts   RawJoinOpts
}

// NewRawJoinSource builds a raw-join source over the given table fetcher.
func NewRawJoinSource(client TableFetcher, opts RawJoinOpts) *RawJoinSource {
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	return &RawJoinSource{client: client, opts: opts}
}

func (s *RawJoinSource) Name() string { return string(shared.ModeRawJoin) }

// Fetch resolves the company, pulls the three raw tables and aggregates them.
func (s *RawJoinSource) Fetch(ctx context.Context) (*FetchResult, error) {
	logger := s.opts.Logger

	company, err := s.client.LookupCompany(ctx, s.opts.Company)
	if err != nil {
		return nil, err
	}
	companyID := company.StringVal("id")
	logger.Info("resolved company", "name", s.opts.Company, "id", companyID)

	tables := map[string]models.Table{}
	for _, name := range []string{"time_entries", "projects", "users"} {
		table, err := s.client.FetchCompanyTable(ctx, name, companyID)
		if err != nil {
			return nil, err
		}
		if len(table) == 0 {
			return nil, fmt.Errorf("%w: table %q has no active rows for company %q", shared.ErrNoData, name, s.opts.Company)
		}
		logger.Info("fetched table", "table", name, "rows", len(table))
		tables[name] = table
	}

	rows, err := report.Aggregate(tables["time_entries"], tables["projects"], tables["users"], report.AggregateOpts{
		Targets: s.opts.Targets,
		Window:  s.opts.Window,
		Logger:  logger,
	})
	if err != nil {
		return nil, err
	}

	return &FetchResult{
		Rows:      rows,
		Projects:  report.GroupStatuses(rows),
		CompanyID: companyID,
	}, nil
}
