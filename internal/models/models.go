package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Row is a single record as decoded from the backend, keyed by the backend's
// actual column names.
type Row map[string]any

// Table is an ordered collection of rows from one backend call.
type Table []Row

// StringVal returns the row's value for col rendered as a trimmed string.
// Missing and null values come back as the empty string.
func (r Row) StringVal(col string) string {
	v, ok := r[col]
	if !ok || v == nil {
		return ""
	}
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(s)
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", v))
	}
}

// FloatVal returns the row's value for col as a float64. Non-numeric values
// coerce to zero, matching the aggregation contract for duration columns.
func (r Row) FloatVal(col string) float64 {
	v, ok := r[col]
	if !ok || v == nil {
		return 0
	}
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(n), 64); err == nil {
			return f
		}
	}
	return 0
}

// timeLayouts are the timestamp shapes the backend is known to emit.
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// TimeVal parses the row's value for col as a timestamp. The second return
// value reports whether parsing succeeded.
func (r Row) TimeVal(col string) (time.Time, bool) {
	s := r.StringVal(col)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// DateFilter is a named time window bounding which time entries a run includes.
type DateFilter string

const (
	FilterToday       DateFilter = "TODAY"
	FilterYesterday   DateFilter = "YESTERDAY"
	FilterThisWeek    DateFilter = "THIS_WEEK"
	FilterLastWeek    DateFilter = "LAST_WEEK"
	FilterThisMonth   DateFilter = "THIS_MONTH"
	FilterLastMonth   DateFilter = "LAST_MONTH"
	FilterCustomRange DateFilter = "CUSTOM_RANGE"
)

// ParseDateFilter normalizes and validates a filter name.
func ParseDateFilter(s string) (DateFilter, error) {
	f := DateFilter(strings.ToUpper(strings.TrimSpace(s)))
	switch f {
	case FilterToday, FilterYesterday, FilterThisWeek, FilterLastWeek,
		FilterThisMonth, FilterLastMonth, FilterCustomRange:
		return f, nil
	case "":
		return FilterToday, nil
	}
	return "", fmt.Errorf("unknown date filter %q", s)
}

// Slug returns the lowercased, hyphenated form used in report filenames.
func (f DateFilter) Slug() string {
	return strings.ReplaceAll(strings.ToLower(string(f)), "_", "-")
}

// Window computes the filter's half-open interval [start, end) anchored at
// now. CUSTOM_RANGE requires both bounds in YYYY-MM-DD form; the end date is
// inclusive, so the returned end is midnight of the following day.
func (f DateFilter) Window(now time.Time, customStart, customEnd string) (time.Time, time.Time, error) {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	switch f {
	case FilterToday:
		return midnight, midnight.AddDate(0, 0, 1), nil
	case FilterYesterday:
		return midnight.AddDate(0, 0, -1), midnight, nil
	case FilterThisWeek:
		start := startOfWeek(midnight)
		return start, start.AddDate(0, 0, 7), nil
	case FilterLastWeek:
		start := startOfWeek(midnight).AddDate(0, 0, -7)
		return start, start.AddDate(0, 0, 7), nil
	case FilterThisMonth:
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		return start, start.AddDate(0, 1, 0), nil
	case FilterLastMonth:
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, -1, 0)
		return start, start.AddDate(0, 1, 0), nil
	case FilterCustomRange:
		if customStart == "" || customEnd == "" {
			return time.Time{}, time.Time{}, fmt.Errorf("CUSTOM_RANGE requires both CUSTOM_START_DATE and CUSTOM_END_DATE")
		}
		start, err := time.ParseInLocation("2006-01-02", customStart, now.Location())
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid custom start date %q: %w", customStart, err)
		}
		end, err := time.ParseInLocation("2006-01-02", customEnd, now.Location())
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid custom end date %q: %w", customEnd, err)
		}
		end = end.AddDate(0, 0, 1)
		if !end.After(start) {
			return time.Time{}, time.Time{}, fmt.Errorf("custom range end %q precedes start %q", customEnd, customStart)
		}
		return start, end, nil
	}
	return time.Time{}, time.Time{}, fmt.Errorf("unknown date filter %q", string(f))
}

// startOfWeek returns the preceding Monday (or d itself on Mondays).
func startOfWeek(d time.Time) time.Time {
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}

// ReportRow is one aggregated line of the published report: the totals for a
// single (project, user) pair.
type ReportRow struct {
	Project          string
	UserName         string
	UserEmail        string
	TotalDurationRaw float64 // minutes as delivered by the backend
	TotalHours       float64
	TotalEntries     int
	FirstEntryDate   string
	LastEntryDate    string

	separator bool
}

// SeparatorRow builds the sentinel row inserted between project groups for
// readability. It carries the literal in the project field and nothing else,
// and is excluded from any aggregate recomputation.
func SeparatorRow(literal string) ReportRow {
	return ReportRow{Project: literal, separator: true}
}

// IsSeparator reports whether the row is a group separator rather than data.
func (r ReportRow) IsSeparator() bool {
	return r.separator
}

// Fetch statuses distinguish a project that was queried and legitimately
// empty from one whose call failed and was absorbed as zero rows.
const (
	StatusOK    = "ok"
	StatusEmpty = "empty"
	StatusError = "error"
)

// ProjectStatus summarizes one project group's contribution to the run.
type ProjectStatus struct {
	Name   string `json:"name"`
	Rows   int    `json:"rows"`
	Users  int    `json:"users"`
	Status string `json:"status"`
}

// RunSummary is the machine-readable artifact describing a completed run.
type RunSummary struct {
	RunID      string          `json:"run_id"`
	ExportDate string          `json:"export_date"`
	Mode       string          `json:"mode"`
	CompanyID  string          `json:"company_id,omitempty"`
	DateFilter string          `json:"date_filter"`
	TotalRows  int             `json:"total_rows"`
	Projects   []ProjectStatus `json:"projects"`
	ReportFile string          `json:"report_file"`
}
