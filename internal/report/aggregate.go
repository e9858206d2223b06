// package report implements the local join-and-aggregate pipeline and the
// published report formatting: raw tables in, sorted report rows out.
package report

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mveldt/timeport/internal/models"
	"github.com/mveldt/timeport/internal/schema"
	"github.com/mveldt/timeport/internal/shared"
	"github.com/samber/lo"
)

// UnknownUser is the display name used when a user row carries neither name
// columns nor an email.
const UnknownUser = "Unknown User"

// TimeWindow bounds which time entries are included, half-open [Start, End).
type TimeWindow struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the window.
func (w TimeWindow) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// AggregateOpts configures the local join.
type AggregateOpts struct {
	// Targets restricts the join to these project titles. Empty means all.
	Targets []string
	// Window filters entries by their resolved entry date when set.
	Window *TimeWindow
	Logger *log.Logger
}

// Aggregate inner-joins time entries to the filtered project set and the user
// set, derives display name and duration, and groups by (project, user).
func Aggregate(entries, projects, users models.Table, opts AggregateOpts) ([]models.ReportRow, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	eb := schema.BindEntries(entries)
	pb := schema.BindProjects(projects)
	ub := schema.BindUsers(users)

	if pb.ID == "" || pb.Title == "" {
		return nil, fmt.Errorf("%w: projects table has no recognizable id/title columns", shared.ErrInvalidInput)
	}
	if eb.ProjectFK == "" || eb.UserFK == "" {
		return nil, fmt.Errorf("%w: time entries table has no recognizable foreign keys", shared.ErrInvalidInput)
	}
	if ub.ID == "" {
		return nil, fmt.Errorf("%w: users table has no recognizable id column", shared.ErrInvalidInput)
	}

	matched := filterProjects(projects, pb, opts.Targets)
	if len(matched) == 0 {
		return nil, fmt.Errorf("%w: none of %v present in projects table", shared.ErrProjectNotFound, opts.Targets)
	}

	titleByID := lo.SliceToMap(matched, func(p models.Row) (string, string) {
		return p.StringVal(pb.ID), strings.TrimSpace(p.StringVal(pb.Title))
	})
	userByID := lo.SliceToMap(users, func(u models.Row) (string, models.Row) {
		return u.StringVal(ub.ID), u
	})

	if eb.Duration == "" && (eb.StartTime == "" || eb.EndTime == "") {
		logger.Warn("no duration or start/end columns resolved, all durations will be zero")
	}
	if eb.EntryDate == "" && opts.Window != nil {
		logger.Warn("no entry date column resolved, date filter not applied")
	}

	type joined struct {
		project  string
		userName string
		email    string
		minutes  float64
		entryAt  time.Time
		hasEntry bool
	}

	rows := make([]joined, 0, len(entries))
	for _, e := range entries {
		title, ok := titleByID[e.StringVal(eb.ProjectFK)]
		if !ok {
			continue // entry for a project outside the target set
		}
		user, ok := userByID[e.StringVal(eb.UserFK)]
		if !ok {
			continue
		}

		j := joined{
			project:  title,
			userName: displayName(user, ub),
			email:    user.StringVal(ub.Email),
			minutes:  durationMinutes(e, eb),
		}
		if eb.EntryDate != "" {
			if t, ok := e.TimeVal(eb.EntryDate); ok {
				j.entryAt = t
				j.hasEntry = true
			}
		}
		if opts.Window != nil && eb.EntryDate != "" {
			if !j.hasEntry || !opts.Window.Contains(j.entryAt) {
				continue
			}
		}
		rows = append(rows, j)
	}

	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no time entries matched the requested projects and users", shared.ErrEmptyJoin)
	}

	groups := lo.GroupBy(rows, func(j joined) string {
		return j.project + "\x00" + j.userName + "\x00" + j.email
	})

	report := make([]models.ReportRow, 0, len(groups))
	for _, group := range groups {
		first := group[0]
		row := models.ReportRow{
			Project:      first.project,
			UserName:     first.userName,
			UserEmail:    first.email,
			TotalEntries: len(group),
		}
		for _, j := range group {
			row.TotalDurationRaw += j.minutes
		}
		stamped := lo.Filter(group, func(j joined, _ int) bool { return j.hasEntry })
		if len(stamped) > 0 {
			minAt, maxAt := stamped[0].entryAt, stamped[0].entryAt
			for _, j := range stamped[1:] {
				if j.entryAt.Before(minAt) {
					minAt = j.entryAt
				}
				if j.entryAt.After(maxAt) {
					maxAt = j.entryAt
				}
			}
			row.FirstEntryDate = minAt.Format(time.RFC3339)
			row.LastEntryDate = maxAt.Format(time.RFC3339)
		}
		report = append(report, row)
	}

	// Deterministic order before the priority sort runs.
	sort.Slice(report, func(i, k int) bool {
		if report[i].Project != report[k].Project {
			return report[i].Project < report[k].Project
		}
		return report[i].UserName < report[k].UserName
	})

	return report, nil
}

// filterProjects restricts the projects table to the requested titles; an
// empty target list keeps every project.
func filterProjects(projects models.Table, pb schema.ProjectBinding, targets []string) models.Table {
	if len(targets) == 0 {
		return projects
	}
	wanted := lo.SliceToMap(targets, func(t string) (string, struct{}) {
		return strings.TrimSpace(t), struct{}{}
	})
	return lo.Filter(projects, func(p models.Row, _ int) bool {
		_, ok := wanted[strings.TrimSpace(p.StringVal(pb.Title))]
		return ok
	})
}

// displayName derives a user's display name: trimmed first+last when the name
// columns exist, else email, else the UnknownUser literal.
func displayName(user models.Row, ub schema.UserBinding) string {
	if ub.FirstName != "" || ub.LastName != "" {
		name := strings.TrimSpace(user.StringVal(ub.FirstName) + " " + user.StringVal(ub.LastName))
		if name != "" {
			return name
		}
	}
	if email := user.StringVal(ub.Email); email != "" {
		return email
	}
	return UnknownUser
}

// durationMinutes reads the entry's duration column, falling back to the
// start/end timestamp difference, then to zero.
func durationMinutes(e models.Row, eb schema.EntryBinding) float64 {
	if eb.Duration != "" {
		return e.FloatVal(eb.Duration)
	}
	if eb.StartTime != "" && eb.EndTime != "" {
		start, okS := e.TimeVal(eb.StartTime)
		end, okE := e.TimeVal(eb.EndTime)
		if okS && okE && end.After(start) {
			return end.Sub(start).Minutes()
		}
	}
	return 0
}

// GroupStatuses summarizes the report rows per project group for the run
// summary. Separator rows are excluded.
func GroupStatuses(rows []models.ReportRow) []models.ProjectStatus {
	data := lo.Filter(rows, func(r models.ReportRow, _ int) bool { return !r.IsSeparator() })
	groups := lo.GroupBy(data, func(r models.ReportRow) string { return r.Project })

	names := lo.Keys(groups)
	sort.Strings(names)

	statuses := make([]models.ProjectStatus, 0, len(names))
	for _, name := range names {
		group := groups[name]
		users := lo.UniqBy(group, func(r models.ReportRow) string { return r.UserName + "\x00" + r.UserEmail })
		statuses = append(statuses, models.ProjectStatus{
			Name:   name,
			Rows:   len(group),
			Users:  len(users),
			Status: models.StatusOK,
		})
	}
	return statuses
}
