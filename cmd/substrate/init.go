package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hartonomous/substrate/internal/ingest"
	"github.com/hartonomous/substrate/internal/store"
)

// initCmd creates the sqlite store (running migrations) and seeds the
// default Unicode atom ranges, the one-time setup step every other
// subcommand assumes has already run. spec.md §4.2/§4.12.
func initCmd(loadCfg configLoader) *cobra.Command {
	var skipSeed bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize the store and seed Unicode atoms",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadCfg()
			if err != nil {
				return err
			}
			s, err := store.Open(cfg.DSN)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer s.Close()
			fmt.Println("initialized store:", cfg.DSN)

			if skipSeed {
				return nil
			}
			n, err := ingest.SeedAtoms(cmd.Context(), s, nil)
			if err != nil {
				return fmt.Errorf("seed atoms: %w", err)
			}
			fmt.Printf("seeded %d atoms\n", n)
			return nil
		},
	}
	cmd.Flags().BoolVar(&skipSeed, "skip-seed", false, "skip seeding default Unicode atom ranges")
	return cmd
}
