package report

import (
	"testing"

	"github.com/mveldt/timeport/internal/models"
)

func TestFormat(t *testing.T) {
	rows := []models.ReportRow{
		{Project: "Coerco", UserName: "Cam", TotalDurationRaw: 30, TotalEntries: 1},
		{Project: "Aurora", UserName: "Zoe", TotalDurationRaw: 300, TotalEntries: 4},
		{Project: "Dept of Health", UserName: "Ada", TotalDurationRaw: 60, TotalEntries: 2},
		{Project: "Dept of Health", UserName: "Bob", TotalDurationRaw: 240, TotalEntries: 3},
	}
	opts := FormatOpts{
		Priority:     []string{"Dept of Health", "Coerco"},
		ConvertHours: true,
	}

	out := Format(rows, opts)

	t.Run("priority groups lead, others alphabetical", func(t *testing.T) {
		var order []string
		for _, r := range out {
			if !r.IsSeparator() {
				order = append(order, r.Project)
			}
		}
		want := []string{"Dept of Health", "Dept of Health", "Coerco", "Aurora"}
		if len(order) != len(want) {
			t.Fatalf("order = %v", order)
		}
		for i := range want {
			if order[i] != want[i] {
				t.Fatalf("order = %v, want %v", order, want)
			}
		}
	})

	t.Run("separator between non-empty groups only", func(t *testing.T) {
		separators := 0
		for i, r := range out {
			if r.IsSeparator() {
				separators++
				if i == 0 || i == len(out)-1 {
					t.Errorf("separator at boundary index %d", i)
				}
				if r.Project != DefaultSeparator {
					t.Errorf("separator literal = %q", r.Project)
				}
			}
		}
		if separators != 2 {
			t.Errorf("got %d separators, want 2", separators)
		}
	})

	t.Run("total hours non-increasing within each group", func(t *testing.T) {
		var prev *models.ReportRow
		for i := range out {
			r := out[i]
			if r.IsSeparator() {
				prev = nil
				continue
			}
			if prev != nil && prev.Project == r.Project && r.TotalHours > prev.TotalHours {
				t.Errorf("group %q not sorted: %v after %v", r.Project, r.TotalHours, prev.TotalHours)
			}
			prev = &out[i]
		}
	})

	t.Run("hours conversion", func(t *testing.T) {
		for _, r := range out {
			if r.IsSeparator() {
				continue
			}
			if r.UserName == "Ada" && r.TotalHours != 1.0 {
				t.Errorf("Ada hours = %v, want 1.0", r.TotalHours)
			}
			if r.UserName == "Cam" && r.TotalHours != 0.5 {
				t.Errorf("Cam hours = %v, want 0.5", r.TotalHours)
			}
		}
	})
}

func TestFormatWithoutConversion(t *testing.T) {
	rows := []models.ReportRow{{Project: "Alpha", UserName: "Ada", TotalDurationRaw: 90, TotalEntries: 1}}
	out := Format(rows, FormatOpts{ConvertHours: false})
	if out[0].TotalHours != 90 {
		t.Errorf("unconverted hours = %v, want the raw minutes 90", out[0].TotalHours)
	}
}

func TestFormatCustomSeparator(t *testing.T) {
	rows := []models.ReportRow{
		{Project: "Alpha", UserName: "Ada", TotalDurationRaw: 60, TotalEntries: 1},
		{Project: "Beta", UserName: "Bob", TotalDurationRaw: 30, TotalEntries: 1},
	}
	out := Format(rows, FormatOpts{Separator: "==="})
	if len(out) != 3 || !out[1].IsSeparator() || out[1].Project != "===" {
		t.Errorf("formatted rows = %+v", out)
	}
}

func TestFormatSingleGroupHasNoSeparator(t *testing.T) {
	rows := []models.ReportRow{
		{Project: "Alpha", UserName: "Ada", TotalDurationRaw: 60, TotalEntries: 1},
		{Project: "Alpha", UserName: "Bob", TotalDurationRaw: 30, TotalEntries: 1},
	}
	out := Format(rows, FormatOpts{})
	for _, r := range out {
		if r.IsSeparator() {
			t.Error("single group must not contain separators")
		}
	}
}

func TestFormatEmpty(t *testing.T) {
	out := Format(nil, FormatOpts{})
	if len(out) != 0 {
		t.Errorf("Format(nil) = %+v", out)
	}
}
