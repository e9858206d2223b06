package services

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mveldt/timeport/internal/models"
	"github.com/mveldt/timeport/internal/schema"
	"github.com/samber/lo"
	"golang.org/x/time/rate"
)

// AggregatedSource fetches pre-aggregated rows by invoking the backend report
// function once per target project. Per-project transport failures are
// absorbed: the project is recorded with a failed status and zero rows so the
// remaining projects can still succeed.
type AggregatedSource struct {
	caller    RPCCaller
	mode      string
	targets   []string
	filter    models.DateFilter
	startDate string
	endDate   string
	limiter   *rate.Limiter
	logger    *log.Logger
}

// NewAggregatedSource builds an aggregated source over the given caller.
func NewAggregatedSource(caller RPCCaller, mode string, targets []string, filter models.DateFilter, startDate, endDate string, rateLimit float64, logger *log.Logger) *AggregatedSource {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &AggregatedSource{
		caller:    caller,
		mode:      mode,
		targets:   targets,
		filter:    filter,
		startDate: startDate,
		endDate:   endDate,
		limiter:   newLimiter(rateLimit),
		logger:    logger,
	}
}

func (s *AggregatedSource) Name() string { return s.mode }

// Fetch calls the backend function for each target project sequentially.
func (s *AggregatedSource) Fetch(ctx context.Context) (*FetchResult, error) {
	result := &FetchResult{
		Projects: make([]models.ProjectStatus, 0, len(s.targets)),
	}

	for _, project := range s.targets {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		s.logger.Info("calling project report RPC", "project", project, "filter", s.filter)
		table, err := s.caller.CallProjectReport(ctx, project, s.filter, s.startDate, s.endDate)
		if err != nil {
			s.logger.Error("RPC failed, treating as zero rows", "project", project, "err", err)
			result.Projects = append(result.Projects, models.ProjectStatus{
				Name:   project,
				Status: models.StatusError,
			})
			continue
		}

		rows := mapAggregates(project, table)
		status := models.ProjectStatus{
			Name:   project,
			Rows:   len(rows),
			Users:  countUsers(rows),
			Status: models.StatusOK,
		}
		if len(rows) == 0 {
			status.Status = models.StatusEmpty
			s.logger.Info("RPC returned no rows", "project", project)
		} else {
			s.logger.Info("fetched aggregated rows", "project", project, "rows", len(rows))
		}

		result.Projects = append(result.Projects, status)
		result.Rows = append(result.Rows, rows...)
	}

	return result, nil
}

// mapAggregates converts the backend's pre-aggregated rows into report rows,
// resolving its column names through the alias table. The project name
// defaults to the requested target when the backend omits the column.
func mapAggregates(target string, table models.Table) []models.ReportRow {
	ab := schema.BindAggregates(table)

	return lo.Map(table, func(r models.Row, _ int) models.ReportRow {
		row := models.ReportRow{
			Project:          target,
			UserName:         r.StringVal(ab.UserName),
			UserEmail:        r.StringVal(ab.UserEmail),
			TotalDurationRaw: r.FloatVal(ab.Duration),
			TotalEntries:     int(r.FloatVal(ab.Entries)),
			FirstEntryDate:   entryStamp(r, ab.FirstEntry),
			LastEntryDate:    entryStamp(r, ab.LastEntry),
		}
		if ab.Project != "" {
			if name := r.StringVal(ab.Project); name != "" {
				row.Project = name
			}
		}
		if row.TotalEntries == 0 {
			row.TotalEntries = 1
		}
		return row
	})
}

func entryStamp(r models.Row, col string) string {
	if col == "" {
		return ""
	}
	if t, ok := r.TimeVal(col); ok {
		return t.Format(time.RFC3339)
	}
	return r.StringVal(col)
}

func countUsers(rows []models.ReportRow) int {
	return len(lo.UniqBy(rows, func(r models.ReportRow) string {
		return r.UserName + "\x00" + r.UserEmail
	}))
}
