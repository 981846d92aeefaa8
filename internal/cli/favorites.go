package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"
)

// NewFavoritesCommand creates the favorites command group.
func NewFavoritesCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "favorites",
		Short: "Manage your favorite artworks",
	}
	cmd.AddCommand(newFavoritesListCommand(rootOpts))
	cmd.AddCommand(newFavoritesAddCommand(rootOpts))
	cmd.AddCommand(newFavoritesRemoveCommand(rootOpts))
	return cmd
}

func newFavoritesListCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List favorites with their statistics",
		Args:    exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx, rootOpts, cmd.ErrOrStderr(), zapcore.WarnLevel)
			if err != nil {
				return err
			}
			defer a.Close()

			viewer, err := a.Viewer(ctx)
			if err != nil {
				return err
			}
			state, err := resolveState(ctx, cmd, a, "favorites")
			if err != nil {
				return err
			}
			view, err := a.Gallery.Favorites(ctx, viewer, state)
			if err != nil {
				return err
			}
			saveState(ctx, cmd, a, "favorites", view.State)

			return newFormatter(cmd, rootOpts).Render(view, func(w io.Writer) error {
				return renderFavorites(w, view)
			})
		},
	}
	addStateFlags(cmd)
	return cmd
}

func newFavoritesAddCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "add <id>",
		Short: "Add an artwork to your favorites",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx, rootOpts, cmd.ErrOrStderr(), zapcore.WarnLevel)
			if err != nil {
				return err
			}
			defer a.Close()

			viewer, err := a.Viewer(ctx)
			if err != nil {
				return err
			}
			if err := a.Gallery.AddFavorite(ctx, viewer, args[0]); err != nil {
				return err
			}
			return newFormatter(cmd, rootOpts).Success(
				fmt.Sprintf("Added %s to favorites", args[0]), map[string]string{"id": args[0]})
		},
	}
}

func newFavoritesRemoveCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <id>",
		Aliases: []string{"rm"},
		Short:   "Remove an artwork from your favorites",
		Args:    exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx, rootOpts, cmd.ErrOrStderr(), zapcore.WarnLevel)
			if err != nil {
				return err
			}
			defer a.Close()

			viewer, err := a.Viewer(ctx)
			if err != nil {
				return err
			}
			if err := a.Gallery.RemoveFavorite(ctx, viewer, args[0]); err != nil {
				return err
			}
			return newFormatter(cmd, rootOpts).Success(
				fmt.Sprintf("Removed %s from favorites", args[0]), map[string]string{"id": args[0]})
		},
	}
}
