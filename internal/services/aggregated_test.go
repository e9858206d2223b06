package services

import (
	"context"
	"errors"
	"testing"

	"github.com/mveldt/timeport/internal/models"
)

// fakeCaller scripts per-project RPC responses.
type fakeCaller struct {
	responses map[string]models.Table
	errs      map[string]error
	calls     []string
}

func (f *fakeCaller) CallProjectReport(ctx context.Context, project string, filter models.DateFilter, startDate, endDate string) (models.Table, error) {
	f.calls = append(f.calls, project)
	if err := f.errs[project]; err != nil {
		return nil, err
	}
	return f.responses[project], nil
}

func aggRow(user string, minutes, entries float64) models.Row {
	return models.Row{
		"user_name":              user,
		"user_email":             user + "@example.com",
		"total_duration_minutes": minutes,
		"total_entries":          entries,
	}
}

func TestAggregatedSourceFetch(t *testing.T) {
	t.Run("three rows for Alpha, none for Beta", func(t *testing.T) {
		caller := &fakeCaller{
			responses: map[string]models.Table{
				"Alpha": {aggRow("ada", 60, 2), aggRow("bob", 30, 1), aggRow("cam", 15, 1)},
				"Beta":  {},
			},
		}
		src := NewAggregatedSource(caller, "rest-rpc", []string{"Alpha", "Beta"}, models.FilterToday, "", "", 100, nil)

		result, err := src.Fetch(context.Background())
		if err != nil {
			t.Fatalf("Fetch failed: %v", err)
		}

		if len(result.Rows) != 3 {
			t.Fatalf("got %d rows, want 3", len(result.Rows))
		}
		for _, r := range result.Rows {
			if r.Project != "Alpha" {
				t.Errorf("row project = %q, want Alpha", r.Project)
			}
		}

		if len(result.Projects) != 2 {
			t.Fatalf("statuses = %+v", result.Projects)
		}
		if result.Projects[0].Status != models.StatusOK || result.Projects[0].Rows != 3 {
			t.Errorf("Alpha status = %+v", result.Projects[0])
		}
		if result.Projects[1].Status != models.StatusEmpty {
			t.Errorf("Beta status = %+v, a successful empty call is not an error", result.Projects[1])
		}

		if len(caller.calls) != 2 {
			t.Errorf("calls = %v, every target must be queried", caller.calls)
		}
	})

	t.Run("per-project failure is absorbed", func(t *testing.T) {
		caller := &fakeCaller{
			responses: map[string]models.Table{"Alpha": {aggRow("ada", 60, 1)}},
			errs:      map[string]error{"Beta": errors.New("503 service unavailable")},
		}
		src := NewAggregatedSource(caller, "rest-rpc", []string{"Alpha", "Beta"}, models.FilterToday, "", "", 100, nil)

		result, err := src.Fetch(context.Background())
		if err != nil {
			t.Fatalf("a per-project failure must not abort the run: %v", err)
		}
		if len(result.Rows) != 1 {
			t.Errorf("got %d rows, want Alpha's 1", len(result.Rows))
		}
		if result.Projects[1].Status != models.StatusError || result.Projects[1].Rows != 0 {
			t.Errorf("Beta status = %+v, want recorded error with zero rows", result.Projects[1])
		}
	})

	t.Run("maps backend column aliases", func(t *testing.T) {
		caller := &fakeCaller{
			responses: map[string]models.Table{
				"Alpha": {{
					"project_name":     "Alpha Prime",
					"user_name":        "Ada",
					"email":            "ada@example.com",
					"total_duration":   90.0,
					"entry_count":      4.0,
					"first_entry_date": "2026-03-02T09:00:00Z",
					"last_entry_date":  "2026-03-03T09:00:00Z",
				}},
			},
		}
		src := NewAggregatedSource(caller, "rest-rpc", []string{"Alpha"}, models.FilterToday, "", "", 100, nil)

		result, err := src.Fetch(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		row := result.Rows[0]
		if row.Project != "Alpha Prime" {
			t.Errorf("backend project name should win: %q", row.Project)
		}
		if row.UserEmail != "ada@example.com" || row.TotalDurationRaw != 90 || row.TotalEntries != 4 {
			t.Errorf("row = %+v", row)
		}
		if row.FirstEntryDate != "2026-03-02T09:00:00Z" {
			t.Errorf("first entry = %q", row.FirstEntryDate)
		}
	})
}
