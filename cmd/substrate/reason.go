package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hartonomous/substrate/internal/reason"
)

// reasonCmd runs the full OODA/BDI/Tree-of-Thought/Reflexion orchestrator
// over a prompt and the optional last-three-turns history. spec.md §4.9.
func reasonCmd(loadCfg configLoader) *cobra.Command {
	var history []string
	var trace bool
	cmd := &cobra.Command{
		Use:   "reason [prompt]",
		Short: "Run the reasoning orchestrator over a prompt",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadCfg()
			if err != nil {
				return err
			}
			cfg.IncludeReasoningTrace = cfg.IncludeReasoningTrace || trace
			s, arena, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			result := reason.Orchestrate(cmd.Context(), arena, cfg, args[0], history)

			fmt.Println(result.Response)
			fmt.Printf("(confidence=%.2f, hypotheses=%d)\n", result.Confidence, len(result.Hypotheses))
			for _, line := range result.ReasoningTrace {
				fmt.Println("  trace:", line)
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&history, "history", nil, "prior conversation turns, most recent last")
	cmd.Flags().BoolVar(&trace, "trace", false, "include the reasoning trace in output")
	return cmd
}
