// Command substrate is the CLI surface for the semantic substrate:
// ingest, extract, walk, search, voronoi, and reason subcommands over a
// single sqlite-backed store, the way the teacher's cmd/wt is a single
// cobra binary fronting internal/store. spec.md §6 bullet 3.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hartonomous/substrate/internal/config"
	"github.com/hartonomous/substrate/internal/logger"
)

func main() {
	var dsnFlag string
	var logLevelFlag string

	root := &cobra.Command{
		Use:   "substrate",
		Short: "substrate — content-addressed semantic graph over text and model weights",
		Long:  "Ingests text and model weights into a Merkle-DAG relation graph on S3, and serves walk, A*, Voronoi, and OODA-style reasoning queries over it.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return logger.Init(logLevelFlag, "")
		},
	}
	root.PersistentFlags().StringVar(&dsnFlag, "dsn", "", "sqlite DSN (overrides config/env)")
	root.PersistentFlags().StringVar(&logLevelFlag, "log-level", "info", "log level: debug, info, warn, error")

	cfgLoader := func() (*config.Config, error) {
		userDir, err := config.GetUserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("user config dir: %w", err)
		}
		projDir, err := config.GetProjectDir()
		if err != nil {
			return nil, fmt.Errorf("project dir: %w", err)
		}
		mgr := config.NewManager()
		if err := mgr.Load(userDir, projDir); err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		cfg := mgr.Get()
		if dsnFlag != "" {
			cfg.DSN = dsnFlag
		}
		return cfg, nil
	}

	root.AddCommand(
		ingestCmd(cfgLoader),
		extractCmd(cfgLoader),
		walkCmd(cfgLoader),
		searchCmd(cfgLoader),
		voronoiCmd(cfgLoader),
		reasonCmd(cfgLoader),
		initCmd(cfgLoader),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// configLoader builds the layered Config for every subcommand,
// honoring the --dsn persistent flag over settings.yaml and the
// environment. --log-level is applied by the root command's
// PersistentPreRunE, not through the Config.
type configLoader func() (*config.Config, error)
