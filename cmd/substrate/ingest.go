package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hartonomous/substrate/internal/ingest"
)

// ingestCmd tokenizes a text file into compositions and bigram relations.
// spec.md §4.11 (text ingester), exercising the data-flow diagram's
// "Text ingester" box.
func ingestCmd(loadCfg configLoader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest [file]",
		Short: "Ingest a text file into the relation graph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadCfg()
			if err != nil {
				return err
			}
			s, _, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			path := args[0]
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}

			content := newContent(cfg, path, "text", "text/plain", int64(len(data)))
			stats, err := ingest.Ingest(cmd.Context(), s, content, string(data))
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}

			fmt.Printf("tokens=%d compositions=%d relations=%d\n", stats.Tokens, stats.Compositions, stats.Relations)
			return nil
		},
	}
	return cmd
}
