package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/phobologic/gitref/internal/build"
	"github.com/phobologic/gitref/internal/model"
	"github.com/phobologic/gitref/internal/parse"
	"github.com/phobologic/gitref/internal/watch"
)

func newWatchCmd(g *globalOptions) *cobra.Command {
	var debounce time.Duration

	cmd := &cobra.Command{
		Use:   "watch [docs-dir]",
		Short: "Re-run the check whenever the project changes",
		Long: `Run "gitref check" once, then again after every burst of changes below
the project root. Failing checks are reported and watching continues.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := g.setup(docsDir(args), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			cache, err := parse.NewCache(parse.DefaultCacheSize)
			if err != nil {
				return err
			}

			check := func(ctx context.Context) {
				res, err := build.Run(ctx, build.Options{Config: cfg, Mode: model.ModeCheck, Logger: logger, Cache: cache})
				if res != nil {
					if werr := writeResult(cmd.OutOrStdout(), res, g); werr != nil {
						logger.Error("writing result", "error", werr)
					}
					if err == nil {
						err = res.Report.Err()
					}
				}
				if err != nil && ctx.Err() == nil {
					logger.Error("check failed", "error", err)
				}
			}

			w, err := watch.New(cfg.ProjectRoot, watch.Options{
				Debounce: debounce,
				Logger:   logger,
				OnChange: func(ctx context.Context, paths []string) {
					logger.Info("change detected, re-checking", "files", len(paths))
					check(ctx)
				},
			})
			if err != nil {
				return err
			}

			check(cmd.Context())
			logger.Info("watching for changes", "root", cfg.ProjectRoot)
			return w.Run(cmd.Context())
		},
	}
	cmd.Flags().DurationVar(&debounce, "debounce", watch.DefaultDebounce, "quiet period before re-checking")
	return cmd
}
