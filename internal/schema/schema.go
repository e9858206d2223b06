// package schema resolves the backend's actual column names against the
// logical fields the pipeline needs. Backend schema naming is not stable, so
// each logical field carries an ordered list of acceptable aliases; the first
// case-insensitive match against a fetched table wins. A binding value of ""
// means the field is absent and downstream code must use its documented
// fallback.
package schema

import (
	"strings"

	"github.com/mveldt/timeport/internal/models"
	"github.com/samber/lo"
)

// Field names a logical column the pipeline reads.
type Field string

const (
	FieldID        Field = "id"
	FieldTitle     Field = "title"
	FieldFirstName Field = "first_name"
	FieldLastName  Field = "last_name"
	FieldEmail     Field = "email"
	FieldProjectFK Field = "project_fk"
	FieldUserFK    Field = "user_fk"
	FieldDuration  Field = "duration"
	FieldEntryDate Field = "entry_date"
	FieldStartTime Field = "start_time"
	FieldEndTime   Field = "end_time"

	// Logical fields of pre-aggregated backend rows.
	FieldAggProject    Field = "agg_project"
	FieldAggUserName   Field = "agg_user_name"
	FieldAggUserEmail  Field = "agg_user_email"
	FieldAggDuration   Field = "agg_duration"
	FieldAggHours      Field = "agg_hours"
	FieldAggEntries    Field = "agg_entries"
	FieldAggFirstEntry Field = "agg_first_entry"
	FieldAggLastEntry  Field = "agg_last_entry"
)

// aliases maps each logical field to its acceptable column names, most
// specific first. Matching is case-insensitive.
var aliases = map[Field][]string{
	FieldID:        {"id", "uuid"},
	FieldTitle:     {"title", "name", "project_name", "project_title"},
	FieldFirstName: {"first_name", "firstname", "given_name"},
	FieldLastName:  {"last_name", "lastname", "surname", "family_name"},
	FieldEmail:     {"email", "user_email", "email_address"},
	FieldProjectFK: {"project_id", "projectid", "project"},
	FieldUserFK:    {"user_id", "userid", "owner_id", "user"},
	FieldDuration:  {"duration_minutes", "duration", "minutes", "time_spent"},
	FieldEntryDate: {"entry_date", "entrydate", "date", "created_at"},
	FieldStartTime: {"start_time", "started_at", "start"},
	FieldEndTime:   {"end_time", "ended_at", "stopped_at", "end"},

	FieldAggProject:    {"project", "project_name", "project_title"},
	FieldAggUserName:   {"user_name", "username", "full_name"},
	FieldAggUserEmail:  {"user_email", "email"},
	FieldAggDuration:   {"total_duration_raw", "total_duration_minutes", "total_duration", "total_minutes", "duration_minutes"},
	FieldAggHours:      {"total_hours", "hours"},
	FieldAggEntries:    {"total_entries", "entry_count", "entries"},
	FieldAggFirstEntry: {"first_entry_date", "first_entry", "min_entry_date"},
	FieldAggLastEntry:  {"last_entry_date", "last_entry", "max_entry_date"},
}

// Columns returns the distinct column names present across a table's rows.
func Columns(t models.Table) []string {
	seen := map[string]struct{}{}
	cols := []string{}
	for _, row := range t {
		for col := range row {
			if _, ok := seen[col]; !ok {
				seen[col] = struct{}{}
				cols = append(cols, col)
			}
		}
	}
	return cols
}

// Resolve binds a logical field to the first matching actual column name.
func Resolve(cols []string, f Field) (string, bool) {
	byLower := lo.SliceToMap(cols, func(c string) (string, string) {
		return strings.ToLower(c), c
	})
	for _, alias := range aliases[f] {
		if actual, ok := byLower[alias]; ok {
			return actual, true
		}
	}
	return "", false
}

// EntryBinding holds the resolved columns of the time-entries table.
type EntryBinding struct {
	ProjectFK string
	UserFK    string
	Duration  string
	StartTime string
	EndTime   string
	EntryDate string
}

// ProjectBinding holds the resolved columns of the projects table.
type ProjectBinding struct {
	ID    string
	Title string
}

// UserBinding holds the resolved columns of the users table.
type UserBinding struct {
	ID        string
	FirstName string
	LastName  string
	Email     string
}

// AggBinding holds the resolved columns of pre-aggregated backend rows.
type AggBinding struct {
	Project    string
	UserName   string
	UserEmail  string
	Duration   string
	Hours      string
	Entries    string
	FirstEntry string
	LastEntry  string
}

func bind(t models.Table, f Field) string {
	col, _ := Resolve(Columns(t), f)
	return col
}

// BindEntries resolves the time-entries table once for the whole run.
func BindEntries(t models.Table) EntryBinding {
	return EntryBinding{
		ProjectFK: bind(t, FieldProjectFK),
		UserFK:    bind(t, FieldUserFK),
		Duration:  bind(t, FieldDuration),
		StartTime: bind(t, FieldStartTime),
		EndTime:   bind(t, FieldEndTime),
		EntryDate: bind(t, FieldEntryDate),
	}
}

// BindProjects resolves the projects table.
func BindProjects(t models.Table) ProjectBinding {
	return ProjectBinding{
		ID:    bind(t, FieldID),
		Title: bind(t, FieldTitle),
	}
}

// BindUsers resolves the users table.
func BindUsers(t models.Table) UserBinding {
	return UserBinding{
		ID:        bind(t, FieldID),
		FirstName: bind(t, FieldFirstName),
		LastName:  bind(t, FieldLastName),
		Email:     bind(t, FieldEmail),
	}
}

// BindAggregates resolves pre-aggregated rows returned by the backend RPC.
func BindAggregates(t models.Table) AggBinding {
	return AggBinding{
		Project:    bind(t, FieldAggProject),
		UserName:   bind(t, FieldAggUserName),
		UserEmail:  bind(t, FieldAggUserEmail),
		Duration:   bind(t, FieldAggDuration),
		Hours:      bind(t, FieldAggHours),
		Entries:    bind(t, FieldAggEntries),
		FirstEntry: bind(t, FieldAggFirstEntry),
		LastEntry:  bind(t, FieldAggLastEntry),
	}
}
