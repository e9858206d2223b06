package models

import (
	"testing"
	"time"
)

func TestRowAccessors(t *testing.T) {
	row := Row{
		"name":     "  Ada Lovelace ",
		"minutes":  float64(90),
		"text_num": "42.5",
		"junk":     "not a number",
		"stamp":    "2026-03-02T10:30:00Z",
		"day":      "2026-03-02",
		"empty":    nil,
	}

	t.Run("StringVal trims and stringifies", func(t *testing.T) {
		if got := row.StringVal("name"); got != "Ada Lovelace" {
			t.Errorf("StringVal(name) = %q", got)
		}
		if got := row.StringVal("minutes"); got != "90" {
			t.Errorf("StringVal(minutes) = %q", got)
		}
		if got := row.StringVal("empty"); got != "" {
			t.Errorf("StringVal(empty) = %q", got)
		}
		if got := row.StringVal("missing"); got != "" {
			t.Errorf("StringVal(missing) = %q", got)
		}
	})

	t.Run("FloatVal coerces non-numeric to zero", func(t *testing.T) {
		if got := row.FloatVal("minutes"); got != 90 {
			t.Errorf("FloatVal(minutes) = %v", got)
		}
		if got := row.FloatVal("text_num"); got != 42.5 {
			t.Errorf("FloatVal(text_num) = %v", got)
		}
		if got := row.FloatVal("junk"); got != 0 {
			t.Errorf("FloatVal(junk) = %v, want 0", got)
		}
		if got := row.FloatVal("missing"); got != 0 {
			t.Errorf("FloatVal(missing) = %v, want 0", got)
		}
	})

	t.Run("TimeVal parses known layouts", func(t *testing.T) {
		if ts, ok := row.TimeVal("stamp"); !ok || ts.Hour() != 10 {
			t.Errorf("TimeVal(stamp) = %v, %v", ts, ok)
		}
		if ts, ok := row.TimeVal("day"); !ok || ts.Day() != 2 {
			t.Errorf("TimeVal(day) = %v, %v", ts, ok)
		}
		if _, ok := row.TimeVal("junk"); ok {
			t.Error("TimeVal(junk) should fail")
		}
	})
}

func TestParseDateFilter(t *testing.T) {
	cases := []struct {
		in      string
		want    DateFilter
		wantErr bool
	}{
		{"TODAY", FilterToday, false},
		{"today", FilterToday, false},
		{" this_week ", FilterThisWeek, false},
		{"", FilterToday, false},
		{"CUSTOM_RANGE", FilterCustomRange, false},
		{"FORTNIGHT", "", true},
	}
	for _, tc := range cases {
		got, err := ParseDateFilter(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseDateFilter(%q) expected error", tc.in)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Errorf("ParseDateFilter(%q) = %v, %v; want %v", tc.in, got, err, tc.want)
		}
	}
}

func TestDateFilterSlug(t *testing.T) {
	if got := FilterThisWeek.Slug(); got != "this-week" {
		t.Errorf("Slug() = %q", got)
	}
	if got := FilterCustomRange.Slug(); got != "custom-range" {
		t.Errorf("Slug() = %q", got)
	}
}

func TestDateFilterWindow(t *testing.T) {
	// A Wednesday.
	now := time.Date(2026, 3, 4, 15, 30, 0, 0, time.UTC)

	t.Run("today", func(t *testing.T) {
		start, end, err := FilterToday.Window(now, "", "")
		if err != nil {
			t.Fatal(err)
		}
		if start.Day() != 4 || start.Hour() != 0 {
			t.Errorf("start = %v", start)
		}
		if end.Sub(start) != 24*time.Hour {
			t.Errorf("window length = %v", end.Sub(start))
		}
	})

	t.Run("this week starts Monday", func(t *testing.T) {
		start, end, err := FilterThisWeek.Window(now, "", "")
		if err != nil {
			t.Fatal(err)
		}
		if start.Weekday() != time.Monday || start.Day() != 2 {
			t.Errorf("start = %v", start)
		}
		if end.Sub(start) != 7*24*time.Hour {
			t.Errorf("window length = %v", end.Sub(start))
		}
	})

	t.Run("last month", func(t *testing.T) {
		start, end, err := FilterLastMonth.Window(now, "", "")
		if err != nil {
			t.Fatal(err)
		}
		if start.Month() != time.February || start.Day() != 1 {
			t.Errorf("start = %v", start)
		}
		if end.Month() != time.March || end.Day() != 1 {
			t.Errorf("end = %v", end)
		}
	})

	t.Run("custom range is end-inclusive", func(t *testing.T) {
		start, end, err := FilterCustomRange.Window(now, "2026-01-10", "2026-01-20")
		if err != nil {
			t.Fatal(err)
		}
		if start.Day() != 10 {
			t.Errorf("start = %v", start)
		}
		if end.Day() != 21 {
			t.Errorf("end = %v, want midnight after the inclusive end date", end)
		}
	})

	t.Run("custom range requires both bounds", func(t *testing.T) {
		if _, _, err := FilterCustomRange.Window(now, "2026-01-10", ""); err == nil {
			t.Error("expected error for missing end date")
		}
	})

	t.Run("custom range rejects inverted bounds", func(t *testing.T) {
		if _, _, err := FilterCustomRange.Window(now, "2026-01-20", "2026-01-10"); err == nil {
			t.Error("expected error for inverted range")
		}
	})
}

func TestSeparatorRow(t *testing.T) {
	sep := SeparatorRow("---")
	if !sep.IsSeparator() {
		t.Error("IsSeparator() = false")
	}
	if sep.Project != "---" || sep.UserName != "" || sep.TotalEntries != 0 {
		t.Errorf("separator carries data: %+v", sep)
	}
	if (ReportRow{Project: "---"}).IsSeparator() {
		t.Error("a data row with a dash project must not be a separator")
	}
}
