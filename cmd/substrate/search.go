package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hartonomous/substrate/internal/search"
)

// searchCmd runs single-goal A* between two tokens, resolved by exact-
// then-lowercase composition lookup. spec.md §4.7.
func searchCmd(loadCfg configLoader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search [start] [goal]",
		Short: "A* search between two tokens over the relation graph",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadCfg()
			if err != nil {
				return err
			}
			s, arena, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			result, err := search.SearchByText(cmd.Context(), arena, cfg, args[0], args[1])
			if err != nil {
				return fmt.Errorf("search: %w", err)
			}
			if !result.Found {
				fmt.Printf("not found (expansions=%d)\n", result.Expansions)
				return nil
			}

			for i, id := range result.Path {
				entry, err := arena.Resolve(cmd.Context(), id)
				if err != nil {
					return err
				}
				if i > 0 {
					fmt.Print(" -> ")
				}
				fmt.Print(entry.Text)
			}
			fmt.Println()
			fmt.Printf("expansions=%d avg_elo=%.1f total_obs=%d\n", result.Expansions, result.AvgElo, result.TotalObs)
			return nil
		},
	}
	return cmd
}
