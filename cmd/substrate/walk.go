package main

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/spf13/cobra"

	"github.com/hartonomous/substrate/internal/walk"
)

// walkCmd runs the generative walk engine from a free-text prompt and
// prints the assembled token sequence. spec.md §4.6.
func walkCmd(loadCfg configLoader) *cobra.Command {
	var maxSteps int
	var goalText string
	var seed int64
	cmd := &cobra.Command{
		Use:   "walk [prompt]",
		Short: "Generative walk over the relation graph from a prompt",
		Args:  cobra.ExactArgs(1),
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

			ctx := cmd.Context()
			state, err := walk.Seed(ctx, arena, args[0], cfg.StartEnergy, cfg.RecentWindow)
			if err != nil {
				return fmt.Errorf("seed walk: %w", err)
			}

			if goalText != "" {
				goalID, ok, err := arena.ResolveText(ctx, goalText)
				if err != nil {
					return err
				}
				if ok {
					entry, err := arena.Resolve(ctx, goalID)
					if err != nil {
						return err
					}
					state = state.WithGoal(goalID, entry.Position)
				}
			}

			rngSeed := seed
			if rngSeed == 0 {
				rngSeed = time.Now().UnixNano()
			}
			rng := rand.New(rand.NewSource(rngSeed))

			engine := walk.New(arena, cfg)
			result, err := engine.Run(ctx, state, rng, maxSteps)
			if err != nil {
				return fmt.Errorf("run walk: %w", err)
			}

			tokens := make([]string, 0, len(result.Trajectory))
			for _, id := range result.Trajectory {
				entry, err := arena.Resolve(ctx, id)
				if err != nil {
					return err
				}
				tokens = append(tokens, entry.Text)
			}

			fmt.Println(walk.Assemble(tokens))
			fmt.Printf("(%d steps, terminated: %s)\n", result.Steps, result.Reason)
			return nil
		},
	}
	cmd.Flags().IntVar(&maxSteps, "max-steps", 0, "maximum walk steps (0 = config default)")
	cmd.Flags().StringVar(&goalText, "goal", "", "optional goal token to attract the walk toward")
	cmd.Flags().Int64Var(&seed, "seed", 0, "RNG seed (0 = time-derived)")
	return cmd
}
