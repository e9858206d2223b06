// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

// exportCommand runs the full export pipeline.
func exportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "export",
		Usage:  "Fetch, aggregate and write the time report CSV",
		Flags:  []cli.Flag{configFlag()},
		Action: r.Export,
	}
}

// previewCommand prints the report to the console without writing files.
func previewCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "preview",
		Usage:  "Render the report to the console without writing artifacts",
		Flags:  []cli.Flag{configFlag()},
		Action: r.Preview,
	}
}

// setupCommand writes the example configuration file.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "setup",
		Usage:  "Create a config.toml with documented defaults",
		Flags:  []cli.Flag{configFlag()},
		Action: r.Setup,
	}
}
