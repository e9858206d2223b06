// package formatter serializes the final report and the run artifacts: the
// CSV itself, the JSON run summary, the error/no-data markers a scheduled run
// leaves behind, and the console rendering used by preview.
package formatter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mveldt/timeport/internal/models"
	"github.com/mveldt/timeport/internal/shared"
)

// Artifact filenames under the export directory.
const (
	SummaryFile = "export_summary.json"
	ErrorFile   = "error.txt"
	FatalFile   = "fatal_error.txt"
	NoDataFile  = "no_data_found.txt"
)

// Header lists the published report columns, in output order.
var Header = []string{
	"project",
	"user_name",
	"user_email",
	"total_duration_raw",
	"total_hours",
	"total_entries",
	"first_entry_date",
	"last_entry_date",
}

// ReportFilename builds the deterministic, date-stamped CSV filename for the
// given mode and filter.
func ReportFilename(mode shared.FetchMode, filter models.DateFilter, now time.Time) string {
	stamp := now.Format("2006-01-02")
	if mode == shared.ModeRawJoin {
		return fmt.Sprintf("project_time_report_%s.csv", stamp)
	}
	return fmt.Sprintf("report_%s_%s.csv", filter.Slug(), stamp)
}

// Record renders one report row as CSV fields. Separator rows keep their
// literal in the project column and leave everything else empty.
func Record(r models.ReportRow) []string {
	if r.IsSeparator() {
		return []string{r.Project, "", "", "", "", "", "", ""}
	}
	return []string{
		r.Project,
		r.UserName,
		r.UserEmail,
		strconv.FormatFloat(r.TotalDurationRaw, 'f', -1, 64),
		strconv.FormatFloat(r.TotalHours, 'f', 2, 64),
		strconv.Itoa(r.TotalEntries),
		r.FirstEntryDate,
		r.LastEntryDate,
	}
}

// WriteReportCSV writes the report to dir/filename, creating dir first. A
// run with zero rows still produces the header so downstream consumers see a
// well-formed file.
func WriteReportCSV(dir, filename string, rows []models.ReportRow) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	path := filepath.Join(dir, filename)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create report file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(Header); err != nil {
		return "", fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, r := range rows {
		if err := w.Write(Record(r)); err != nil {
			return "", fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("CSV writer error: %w", err)
	}
	return path, nil
}

// WriteSummary writes the machine-readable run summary.
func WriteSummary(dir string, summary models.RunSummary) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal summary: %w", err)
	}

	path := filepath.Join(dir, SummaryFile)
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return "", fmt.Errorf("failed to write summary: %w", err)
	}
	return path, nil
}

// WriteErrorArtifact persists a fatal error message so an unattended run
// leaves durable evidence of what went wrong.
func WriteErrorArtifact(dir, message string) error {
	return writeText(dir, ErrorFile, message)
}

// WriteFatalArtifact persists an unexpected failure with its stack trace.
func WriteFatalArtifact(dir, message, stack string) error {
	return writeText(dir, FatalFile, fmt.Sprintf("Error: %s\n\n%s", message, stack))
}

// WriteNoDataMarker records a successful run that matched zero rows.
func WriteNoDataMarker(dir, message string) error {
	return writeText(dir, NoDataFile, message)
}

func writeText(dir, name, message string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if !strings.HasSuffix(message, "\n") {
		message += "\n"
	}
	if err := os.WriteFile(filepath.Join(dir, name), []byte(message), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

// PublishOutput appends the report path to the job runner's output channel
// when one is configured (GITHUB_OUTPUT). A run without one is a no-op.
func PublishOutput(reportPath string) error {
	outFile := os.Getenv("GITHUB_OUTPUT")
	if outFile == "" {
		return nil
	}

	f, err := os.OpenFile(outFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open output channel: %w", err)
	}
	defer f.Close()

	if _, err := fmt.Fprintf(f, "report_file=%s\n", reportPath); err != nil {
		return fmt.Errorf("failed to publish report path: %w", err)
	}
	return nil
}

var (
	headerStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	separatorStyle = lipgloss.NewStyle().Faint(true)
)

// RenderTable renders the report rows as an aligned console table for the
// preview command.
func RenderTable(rows []models.ReportRow) string {
	records := [][]string{Header}
	for _, r := range rows {
		records = append(records, Record(r))
	}

	widths := make([]int, len(Header))
	for _, rec := range records {
		for i, field := range rec {
			if len(field) > widths[i] {
				widths[i] = len(field)
			}
		}
	}

	var b strings.Builder
	for n, rec := range records {
		cells := make([]string, len(rec))
		for i, field := range rec {
			cells[i] = fmt.Sprintf("%-*s", widths[i], field)
		}
		line := strings.TrimRight(strings.Join(cells, "  "), " ")
		switch {
		case n == 0:
			line = headerStyle.Render(line)
		case rows[n-1].IsSeparator():
			line = separatorStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}
