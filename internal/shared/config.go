package shared

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/mveldt/timeport/internal/models"
)

//go:embed config.example.toml
var exampleConf []byte

// FetchMode selects which backend access strategy a run uses.
type FetchMode string

const (
	// ModeAggregatedREST calls the backend aggregation function over REST.
	ModeAggregatedREST FetchMode = "rest-rpc"
	// ModeAggregatedDB calls the aggregation function over a direct Postgres connection.
	ModeAggregatedDB FetchMode = "db-rpc"
	// ModeRawJoin fetches the raw tables over REST and joins them locally.
	ModeRawJoin FetchMode = "raw-join"
)

// Config represents the application configuration, loaded from an optional
// TOML file and overridden by environment variables.
type Config struct {
	Supabase SupabaseConfig `toml:"supabase"`
	Database DatabaseConfig `toml:"database"`
	Report   ReportConfig   `toml:"report"`
	Export   ExportConfig   `toml:"export"`
}

// SupabaseConfig contains REST backend access settings.
type SupabaseConfig struct {
	URL       string `toml:"url"`
	Key       string `toml:"key"`
	FetchMode string `toml:"fetch_mode"` // "rpc" or "raw"
}

// DatabaseConfig contains the direct Postgres connection settings.
type DatabaseConfig struct {
	URL string `toml:"url"`
}

// ReportConfig contains the report scoping and formatting settings.
type ReportConfig struct {
	CompanyName      string   `toml:"company_name"`
	TargetProjects   []string `toml:"target_projects"`
	DateFilter       string   `toml:"date_filter"`
	CustomStartDate  string   `toml:"custom_start_date"`
	CustomEndDate    string   `toml:"custom_end_date"`
	PriorityProjects []string `toml:"priority_projects"`
	Separator        string   `toml:"separator"`
	ConvertHours     bool     `toml:"convert_hours"`
}

// ExportConfig contains output settings.
type ExportConfig struct {
	Dir       string  `toml:"dir"`
	RateLimit float64 `toml:"rate_limit"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ApplyEnv overlays environment variables onto the config. The environment is
// the primary configuration channel for scheduled runs; the TOML file only
// supplies defaults.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("SUPABASE_URL"); v != "" {
		c.Supabase.URL = strings.TrimRight(v, "/")
	}
	if v := os.Getenv("SUPABASE_KEY"); v != "" {
		c.Supabase.Key = v
	}
	if v := os.Getenv("FETCH_MODE"); v != "" {
		c.Supabase.FetchMode = strings.ToLower(strings.TrimSpace(v))
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Database.URL = v
	}
	if v, ok := os.LookupEnv("TARGET_PROJECTS"); ok {
		c.Report.TargetProjects = SplitProjects(v)
	}
	if v := os.Getenv("DATE_FILTER"); v != "" {
		c.Report.DateFilter = v
	}
	if v := os.Getenv("CUSTOM_START_DATE"); v != "" {
		c.Report.CustomStartDate = v
	}
	if v := os.Getenv("CUSTOM_END_DATE"); v != "" {
		c.Report.CustomEndDate = v
	}
	if v := os.Getenv("COMPANY_NAME"); v != "" {
		c.Report.CompanyName = v
	}
	if v := os.Getenv("EXPORT_DIR"); v != "" {
		c.Export.Dir = v
	}
	if v := os.Getenv("RATE_LIMIT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			c.Export.RateLimit = f
		}
	}
}

// SplitProjects parses a comma-separated project list, trimming whitespace
// and dropping empty entries.
func SplitProjects(s string) []string {
	parts := strings.Split(s, ",")
	projects := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			projects = append(projects, p)
		}
	}
	return projects
}

// Mode resolves which fetch strategy the configuration selects. A direct
// database URL takes precedence over REST access.
func (c *Config) Mode() FetchMode {
	if c.Database.URL != "" {
		return ModeAggregatedDB
	}
	if c.Supabase.FetchMode == "raw" {
		return ModeRawJoin
	}
	return ModeAggregatedREST
}

// Validate checks that every value the resolved mode requires is present and
// well formed. It fails fast so a scheduled run can surface a configuration
// error before touching the backend.
func (c *Config) Validate() error {
	mode := c.Mode()

	if mode != ModeAggregatedDB {
		if c.Supabase.URL == "" {
			return fmt.Errorf("%w: SUPABASE_URL", ErrMissingEnv)
		}
		if c.Supabase.Key == "" {
			return fmt.Errorf("%w: SUPABASE_KEY", ErrMissingEnv)
		}
		if fm := c.Supabase.FetchMode; fm != "" && fm != "rpc" && fm != "raw" {
			return fmt.Errorf("%w: FETCH_MODE must be rpc or raw, got %q", ErrInvalidConfig, fm)
		}
	}

	// Target projects are a hard requirement in the aggregated modes; raw
	// mode treats an empty list as "all projects".
	if mode != ModeRawJoin && len(c.Report.TargetProjects) == 0 {
		return fmt.Errorf("%w: TARGET_PROJECTS", ErrMissingEnv)
	}

	filter, err := models.ParseDateFilter(c.Report.DateFilter)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if filter == models.FilterCustomRange {
		if c.Report.CustomStartDate == "" || c.Report.CustomEndDate == "" {
			return fmt.Errorf("%w: CUSTOM_START_DATE and CUSTOM_END_DATE are required with CUSTOM_RANGE", ErrMissingEnv)
		}
	}

	if mode == ModeRawJoin && c.Report.CompanyName == "" {
		return fmt.Errorf("%w: company_name has no default", ErrInvalidConfig)
	}

	return nil
}

// DateFilter returns the parsed date filter. Call Validate first; an invalid
// value falls back to TODAY here.
func (c *Config) DateFilter() models.DateFilter {
	f, err := models.ParseDateFilter(c.Report.DateFilter)
	if err != nil {
		return models.FilterToday
	}
	return f
}
