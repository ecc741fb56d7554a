package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hartonomous/substrate/internal/graph"
	"github.com/hartonomous/substrate/internal/hashid"
	"github.com/hartonomous/substrate/internal/interfaces"
	"github.com/hartonomous/substrate/internal/substrate"
	"github.com/hartonomous/substrate/internal/voronoi"
)

// voronoiCmd groups the Voronoi/gap-analysis queries: per-composition cell
// statistics and cross-graph polysemy ranking. spec.md §4.8.
func voronoiCmd(loadCfg configLoader) *cobra.Command {
	root := &cobra.Command{
		Use:   "voronoi",
		Short: "Voronoi cell and polysemy analysis over the relation graph",
	}
	root.AddCommand(voronoiCellCmd(loadCfg), voronoiPolysemousCmd(loadCfg))
	return root
}

func voronoiCellCmd(loadCfg configLoader) *cobra.Command {
	var radius float64
	var samples int
	var maxNeighbors int
	cmd := &cobra.Command{
		Use:   "cell [token]",
		Short: "Monte-Carlo Voronoi cell analysis for a token's composition",
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
			target, ok, err := arena.ResolveText(ctx, args[0])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("token %q has no composition", args[0])
			}

			cell, err := voronoi.Analyze(ctx, arena, target, radius, samples, maxNeighbors)
			if err != nil {
				return fmt.Errorf("voronoi analyze: %w", err)
			}

			fmt.Printf("samples=%d owned=%d approx_volume=%.4f avg_boundary_dist=%.4f eccentricity=%.4f\n",
				cell.Samples, cell.Owned, cell.ApproxVolume, cell.AvgBoundaryDistance, cell.Eccentricity)
			for _, n := range cell.BoundaryNeighbors {
				fmt.Printf("  boundary: %-20s lost=%.3f\n", n.Text, n.LostFrac)
			}
			return nil
		},
	}
	cmd.Flags().Float64Var(&radius, "radius", 0.5, "sampling radius in radians")
	cmd.Flags().IntVar(&samples, "samples", 500, "Monte-Carlo sample count")
	cmd.Flags().IntVar(&maxNeighbors, "max-neighbors", 5, "max boundary neighbors to report")
	return cmd
}

func voronoiPolysemousCmd(loadCfg configLoader) *cobra.Command {
	var minSpread float64
	var topN int
	var limit int
	cmd := &cobra.Command{
		Use:   "polysemous",
		Short: "Rank compositions by neighbor-position spread (polysemy proxy)",
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
			candidates, err := candidateCompositions(ctx, arena, limit)
			if err != nil {
				return fmt.Errorf("list candidates: %w", err)
			}

			concepts, err := voronoi.FindPolysemous(ctx, arena, candidates, minSpread, topN)
			if err != nil {
				return fmt.Errorf("find polysemous: %w", err)
			}
			for _, c := range concepts {
				fmt.Printf("%-20s spread=%.4f\n", c.Text, c.Spread)
			}
			return nil
		},
	}
	cmd.Flags().Float64Var(&minSpread, "min-spread", 0.1, "minimum mean pairwise geodesic spread")
	cmd.Flags().IntVar(&topN, "top", 20, "number of concepts to report")
	cmd.Flags().IntVar(&limit, "limit", 2000, "max candidate compositions to scan")
	return cmd
}

// candidateCompositions lists compositions with at least two relation
// memberships (voronoi.minProjections), capped at limit, as the candidate
// pool for FindPolysemous. There is no dedicated listing primitive on
// graph.Arena for this — it is a one-off scan, not a traversal primitive
// every caller needs, so it stays local to the CLI rather than growing
// Arena's surface.
func candidateCompositions(ctx context.Context, arena *graph.Arena, limit int) ([]substrate.Hash, error) {
	const q = `
SELECT compositionid FROM relationsequence
GROUP BY compositionid
HAVING COUNT(*) >= 2
LIMIT ?`
	var out []substrate.Hash
	err := arena.Persist.Query(ctx, q, []any{limit}, func(row interfaces.Row) error {
		var idHex string
		if err := row.Scan(&idHex); err != nil {
			return err
		}
		id, err := hashid.FromHex(idHex)
		if err != nil {
			return err
		}
		out = append(out, id)
		return nil
	})
	return out, err
}
