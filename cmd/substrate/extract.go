package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/hartonomous/substrate/internal/config"
	"github.com/hartonomous/substrate/internal/cron"
	"github.com/hartonomous/substrate/internal/extract"
	"github.com/hartonomous/substrate/internal/logger"
	"github.com/hartonomous/substrate/internal/model"
)

// extractCmd runs the model extractor against a safetensors model
// directory, optionally rescanning it on a cron schedule. spec.md §4.5;
// SPEC_FULL.md's "Scheduled re-extraction" expansion wires internal/cron
// in here for --watch.
func extractCmd(loadCfg configLoader) *cobra.Command {
	var watchCron string
	cmd := &cobra.Command{
		Use:   "extract [model-dir]",
		Short: "Extract neighbor relations from a model checkpoint's weights",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadCfg()
			if err != nil {
				return err
			}
			dir := args[0]

			if watchCron == "" {
				return runExtractOnce(cmd, cfg, dir)
			}
			return watchExtract(cmd, cfg, dir, watchCron)
		},
	}
	cmd.Flags().StringVar(&watchCron, "watch", "", "cron expression to periodically rescan model-dir (e.g. \"0 */6 * * *\")")
	return cmd
}

func runExtractOnce(cmd *cobra.Command, cfg *config.Config, dir string) error {
	s, _, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	source, err := model.OpenDirectory(dir)
	if err != nil {
		return fmt.Errorf("open model dir %s: %w", dir, err)
	}

	content := newContent(cfg, dir, "model", "application/octet-stream", 0)
	stats, err := extract.New(s, source, cfg).Run(cmd.Context(), content)
	if err != nil {
		return fmt.Errorf("extract: %w", err)
	}

	fmt.Printf("vocab=%s layers_processed=%d layers_skipped=%d edges=%s relations_written=%s\n",
		humanize.Comma(int64(stats.VocabularySize)),
		stats.LayersProcessed, stats.LayersSkipped,
		humanize.Comma(int64(stats.EdgesEmitted)),
		humanize.Comma(int64(stats.RelationsWritten)),
	)
	return nil
}

// watchExtract runs the extractor immediately, then again every time the
// cron schedule fires, until the command is interrupted. Each rescan opens
// its own store/tensor-source handles so a long-lived watch process never
// holds a stale memory-mapped container across a checkpoint's on-disk
// replacement.
func watchExtract(cmd *cobra.Command, cfg *config.Config, dir, cronExpr string) error {
	schedule, err := cron.Parse(cronExpr)
	if err != nil {
		return fmt.Errorf("parse --watch schedule: %w", err)
	}

	if err := runExtractOnce(cmd, cfg, dir); err != nil {
		logger.Error("extract: initial watch run failed", "error", err)
	}

	ctx := cmd.Context()
	for {
		next := schedule.Next(time.Now())
		if next.IsZero() {
			return fmt.Errorf("extract: watch schedule %q never fires", cronExpr)
		}
		wait := time.Until(next)
		logger.Info("extract: watch sleeping until next scan", "next", next, "wait", wait)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}

		if err := runExtractOnce(cmd, cfg, dir); err != nil {
			logger.Error("extract: watch run failed", "error", err)
		}
	}
}
