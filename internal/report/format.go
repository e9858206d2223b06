package report

import (
	"math"
	"sort"

	"github.com/mveldt/timeport/internal/models"
	"github.com/samber/lo"
)

// DefaultSeparator is the literal placed in the project field of separator rows.
const DefaultSeparator = "---"

// FormatOpts configures the published report layout.
type FormatOpts struct {
	// Priority lists project names that sort first, in this order. Projects
	// not listed follow alphabetically.
	Priority []string
	// Separator is the project-field literal of separator rows. Defaults to
	// DefaultSeparator.
	Separator string
	// ConvertHours divides total minutes by 60 for the total_hours column.
	// When false total_hours duplicates total_duration_raw, matching the
	// historical report output.
	ConvertHours bool
}

// Format orders the aggregated rows for publication: priority projects first
// in their configured order, remaining projects alphabetically, each group
// internally sorted by total hours descending, with one separator row between
// successive non-empty groups.
func Format(rows []models.ReportRow, opts FormatOpts) []models.ReportRow {
	if opts.Separator == "" {
		opts.Separator = DefaultSeparator
	}

	rows = lo.Map(rows, func(r models.ReportRow, _ int) models.ReportRow {
		if opts.ConvertHours {
			r.TotalHours = math.Round(r.TotalDurationRaw/60*100) / 100
		} else {
			r.TotalHours = r.TotalDurationRaw
		}
		return r
	})

	groups := lo.GroupBy(rows, func(r models.ReportRow) string { return r.Project })

	rank := lo.SliceToMap(opts.Priority, func(name string) (string, int) {
		return name, lo.IndexOf(opts.Priority, name)
	})
	names := lo.Keys(groups)
	sort.Slice(names, func(i, k int) bool {
		ri, iOK := rank[names[i]]
		rk, kOK := rank[names[k]]
		switch {
		case iOK && kOK:
			return ri < rk
		case iOK:
			return true
		case kOK:
			return false
		default:
			return names[i] < names[k]
		}
	})

	out := make([]models.ReportRow, 0, len(rows)+len(names))
	for _, name := range names {
		group := groups[name]
		if len(group) == 0 {
			continue
		}
		sort.Slice(group, func(i, k int) bool {
			if group[i].TotalHours != group[k].TotalHours {
				return group[i].TotalHours > group[k].TotalHours
			}
			return group[i].UserName < group[k].UserName
		})
		if len(out) > 0 {
			out = append(out, models.SeparatorRow(opts.Separator))
		}
		out = append(out, group...)
	}
	return out
}
