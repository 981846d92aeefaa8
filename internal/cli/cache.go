package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"

	"github.com/HerbHall/galleria/internal/services"
)

// NewCacheCommand creates the cache command group.
func NewCacheCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect the offline snapshot cache",
	}
	cmd.AddCommand(newCacheListCommand(rootOpts))
	cmd.AddCommand(newCacheClearCommand(rootOpts))
	return cmd
}

func newCacheListCommand(rootOpts *RootOptions) *cobra.Command {
	var sortBy string
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List cached snapshots",
		Args:    exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx, rootOpts, cmd.ErrOrStderr(), zapcore.WarnLevel)
			if err != nil {
				return err
			}
			defer a.Close()

			opts := services.ListOptions{SortBy: sortBy}
			if sortBy == "source" {
				opts.SortOrder = "asc"
			}
			list, err := a.Snapshots.List(ctx, opts)
			if err != nil {
				return err
			}
			return newFormatter(cmd, rootOpts).Render(list, func(w io.Writer) error {
				return renderSnapshots(w, list)
			})
		},
	}
	cmd.Flags().StringVar(&sortBy, "sort", "fetched_at", "sort by source, fetched_at or count")
	return cmd
}

func newCacheClearCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clear [source...]",
		Short: "Drop cached snapshots (all of them when no source is given)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx, rootOpts, cmd.ErrOrStderr(), zapcore.WarnLevel)
			if err != nil {
				return err
			}
			defer a.Close()

			sources := args
			if len(sources) == 0 {
				list, err := a.Snapshots.List(ctx, services.ListOptions{Limit: 1000})
				if err != nil {
					return err
				}
				for _, s := range list.Items {
					sources = append(sources, s.Source)
				}
			}
			for _, source := range sources {
				if err := a.Snapshots.Delete(ctx, source); err != nil {
					return fmt.Errorf("clear %s: %w", source, err)
				}
			}
			return newFormatter(cmd, rootOpts).Success(
				fmt.Sprintf("Cleared %d cached snapshots", len(sources)), map[string]any{"cleared": sources})
		},
	}
}
