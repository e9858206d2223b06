package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/mveldt/timeport/internal/formatter"
	"github.com/mveldt/timeport/internal/services"
	"github.com/mveldt/timeport/internal/shared"
	"github.com/mveldt/timeport/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	logger    *log.Logger
	output    io.Writer
	newSource func(cfg *shared.Config, logger *log.Logger) (services.ReportSource, error)
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Logger    *log.Logger
	Output    io.Writer
	NewSource func(cfg *shared.Config, logger *log.Logger) (services.ReportSource, error)
}

// NewRunner creates a new Runner with the provided options.
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.NewSource == nil {
		opts.NewSource = services.NewSource
	}
	return &Runner{
		logger:    opts.Logger,
		output:    opts.Output,
		newSource: opts.NewSource,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		exportCommand, previewCommand, setupCommand,
	} {
		commands = append(commands, fn(r))
	}
	return commands
}

// loadConfig reads the optional TOML config and overlays the environment. A
// validation failure is persisted as an error artifact before returning, so
// an unattended run never fails silently.
func (r *Runner) loadConfig(path string) (*shared.Config, error) {
	config := shared.DefaultConfig()
	if _, err := os.Stat(path); err == nil {
		loaded, err := shared.LoadConfig(path)
		if err != nil {
			return nil, err
		}
		config = loaded
	}
	config.ApplyEnv()

	if err := config.Validate(); err != nil {
		r.logger.Error("configuration invalid", "err", err)
		if werr := formatter.WriteErrorArtifact(config.Export.Dir, err.Error()); werr != nil {
			r.logger.Error("failed to write error artifact", "err", werr)
		}
		return nil, err
	}
	return config, nil
}

func (r *Runner) buildEngine(cfg *shared.Config) (*tasks.ExportEngine, error) {
	source, err := r.newSource(cfg, r.logger)
	if err != nil {
		if werr := formatter.WriteErrorArtifact(cfg.Export.Dir, err.Error()); werr != nil {
			r.logger.Error("failed to write error artifact", "err", werr)
		}
		return nil, err
	}
	return tasks.NewExportEngine(source, cfg, r.logger), nil
}

// Export runs the full pipeline and prints the run summary.
func (r *Runner) Export(ctx context.Context, cmd *cli.Command) error {
	cfg, err := r.loadConfig(cmd.String("config"))
	if err != nil {
		return err
	}

	engine, err := r.buildEngine(cfg)
	if err != nil {
		return err
	}

	result, err := engine.Run(ctx)
	if err != nil {
		return err
	}

	r.writePlain("Report: %s\n", result.ReportPath)
	r.writePlain("Summary: %s\n", result.SummaryPath)
	r.writePlain("Rows: %d\n", result.Summary.TotalRows)
	for _, p := range result.Summary.Projects {
		r.writePlain("  %s: %d rows, %d users (%s)\n", p.Name, p.Rows, p.Users, p.Status)
	}
	return nil
}

// Preview fetches and formats the report and renders it to the console
// without writing any files.
func (r *Runner) Preview(ctx context.Context, cmd *cli.Command) error {
	cfg, err := r.loadConfig(cmd.String("config"))
	if err != nil {
		return err
	}

	engine, err := r.buildEngine(cfg)
	if err != nil {
		return err
	}

	rows, err := engine.Preview(ctx)
	if err != nil {
		return err
	}

	return r.writePlain("%s", formatter.RenderTable(rows))
}

// Setup writes the example configuration file.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("config")
	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}
	r.logger.Info("wrote config file", "path", path)
	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
