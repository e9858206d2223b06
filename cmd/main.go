package main

import (
	"context"
	"os"

	"github.com/mveldt/timeport/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	runner := NewRunner(RunnerOpts{Logger: logger})

	app := &cli.Command{
		Name:     "timeport",
		Usage:    "Export time-tracking reports from a hosted backend to CSV",
		Version:  "1.0.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		logger.Fatalf("export failed: %v", err)
	}
}
