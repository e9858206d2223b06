// package tasks orchestrates one export run: fetch, format, write artifacts.
// The run is strictly sequential; every failure either surfaces as a written
// artifact plus a returned error or is absorbed inside the source per the
// per-project policy.
package tasks

import (
	"context"
	"fmt"
	"io"
	"runtime/debug"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mveldt/timeport/internal/formatter"
	"github.com/mveldt/timeport/internal/models"
	"github.com/mveldt/timeport/internal/report"
	"github.com/mveldt/timeport/internal/services"
	"github.com/mveldt/timeport/internal/shared"
	"github.com/samber/lo"
)

// ExportResult describes a completed run.
type ExportResult struct {
	ReportPath  string
	SummaryPath string
	Summary     models.RunSummary
	Rows        []models.ReportRow
}

// ExportEngine runs the pipeline end to end against one source.
type ExportEngine struct {
	source services.ReportSource
	cfg    *shared.Config
	logger *log.Logger
	now    func() time.Time
}

// NewExportEngine creates an engine for the given source and configuration.
func NewExportEngine(source services.ReportSource, cfg *shared.Config, logger *log.Logger) *ExportEngine {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &ExportEngine{
		source: source,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

// Run executes one export. Fatal errors are persisted to the error artifact
// before returning; an unexpected panic is captured with its stack trace in
// the fatal artifact. Both leave a non-nil error for the caller to exit on.
func (e *ExportEngine) Run(ctx context.Context) (result *ExportResult, err error) {
	dir := e.cfg.Export.Dir

	defer func() {
		if r := recover(); r != nil {
			msg := fmt.Sprintf("%v", r)
			e.logger.Error("unexpected failure", "panic", msg)
			if werr := formatter.WriteFatalArtifact(dir, msg, string(debug.Stack())); werr != nil {
				e.logger.Error("failed to write fatal artifact", "err", werr)
			}
			result, err = nil, fmt.Errorf("unexpected failure: %s", msg)
		}
	}()

	fetched, err := e.source.Fetch(ctx)
	if err != nil {
		e.logger.Error("fetch failed", "source", e.source.Name(), "err", err)
		if werr := formatter.WriteErrorArtifact(dir, err.Error()); werr != nil {
			e.logger.Error("failed to write error artifact", "err", werr)
		}
		return nil, err
	}

	rows := report.Format(fetched.Rows, report.FormatOpts{
		Priority:     e.cfg.Report.PriorityProjects,
		Separator:    e.cfg.Report.Separator,
		ConvertHours: e.cfg.Report.ConvertHours,
	})

	now := e.now()
	filter := e.cfg.DateFilter()
	filename := formatter.ReportFilename(e.cfg.Mode(), filter, now)

	reportPath, err := formatter.WriteReportCSV(dir, filename, rows)
	if err != nil {
		if werr := formatter.WriteErrorArtifact(dir, err.Error()); werr != nil {
			e.logger.Error("failed to write error artifact", "err", werr)
		}
		return nil, err
	}

	dataRows := lo.Filter(rows, func(r models.ReportRow, _ int) bool { return !r.IsSeparator() })
	if len(dataRows) == 0 {
		msg := fmt.Sprintf("No time entries found for projects %v with date filter %q on %s",
			e.cfg.Report.TargetProjects, filter, now.Format(time.RFC3339))
		e.logger.Warn("no data matched, report contains only the header row")
		if werr := formatter.WriteNoDataMarker(dir, msg); werr != nil {
			return nil, werr
		}
	}

	summary := models.RunSummary{
		RunID:      shared.GenerateRunID(),
		ExportDate: now.Format(time.RFC3339),
		Mode:       e.source.Name(),
		CompanyID:  fetched.CompanyID,
		DateFilter: string(filter),
		TotalRows:  len(dataRows),
		Projects:   fetched.Projects,
		ReportFile: reportPath,
	}

	summaryPath, err := formatter.WriteSummary(dir, summary)
	if err != nil {
		return nil, err
	}

	if err := formatter.PublishOutput(reportPath); err != nil {
		e.logger.Error("failed to publish report path", "err", err)
		return nil, err
	}

	e.logger.Info("report written", "file", reportPath, "rows", len(dataRows))
	return &ExportResult{
		ReportPath:  reportPath,
		SummaryPath: summaryPath,
		Summary:     summary,
		Rows:        rows,
	}, nil
}

// Preview fetches and formats the report without writing any artifacts.
func (e *ExportEngine) Preview(ctx context.Context) ([]models.ReportRow, error) {
	fetched, err := e.source.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	return report.Format(fetched.Rows, report.FormatOpts{
		Priority:     e.cfg.Report.PriorityProjects,
		Separator:    e.cfg.Report.Separator,
		ConvertHours: e.cfg.Report.ConvertHours,
	}), nil
}
