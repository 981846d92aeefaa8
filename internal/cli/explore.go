package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"
)

// NewExploreCommand creates the explore command.
func NewExploreCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "explore",
		Short: "Browse public artworks",
		Long: `Browse the public gallery.

Artworks can be searched by title or artist name, filtered by category
and price, sorted and paged. Use --resume to continue from the
last explore state.`,
		Args: exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExplore(cmd, rootOpts)
		},
	}
	addStateFlags(cmd)
	return cmd
}

func runExplore(cmd *cobra.Command, opts *RootOptions) error {
	ctx := cmd.Context()
	a, err := openApp(ctx, opts, cmd.ErrOrStderr(), zapcore.WarnLevel)
	if err != nil {
		return err
	}
	defer a.Close()

	state, err := resolveState(ctx, cmd, a, "explore")
	if err != nil {
		return err
	}
	view, err := a.Gallery.Explore(ctx, state)
	if err != nil {
		return err
	}
	saveState(ctx, cmd, a, "explore", view.State)

	return newFormatter(cmd, opts).Render(view, func(w io.Writer) error {
		return renderExplore(w, view)
	})
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one artwork with more works by its artist",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx, rootOpts, cmd.ErrOrStderr(), zapcore.WarnLevel)
			if err != nil {
				return err
			}
			defer a.Close()

			detail, err := a.Gallery.Artwork(ctx, args[0])
			if err != nil {
				return err
			}
			return newFormatter(cmd, rootOpts).Render(detail, func(w io.Writer) error {
				return renderArtwork(w, detail)
			})
		},
	}
}

// NewArtistCommand creates the artist command.
func NewArtistCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "artist <email>",
		Short: "Show an artist's public profile",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx, rootOpts, cmd.ErrOrStderr(), zapcore.WarnLevel)
			if err != nil {
				return err
			}
			defer a.Close()

			artist, err := a.Gallery.Artist(ctx, args[0])
			if err != nil {
				return err
			}
			return newFormatter(cmd, rootOpts).Render(artist, func(w io.Writer) error {
				return renderArtist(w, artist)
			})
		},
	}
}

// NewLikeCommand creates the like command.
func NewLikeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "like <id>",
		Short: "Like an artwork",
		Long:  "Like an artwork. Each user can like an artwork once.",
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
			if err := a.Gallery.Like(ctx, args[0], viewer); err != nil {
				return err
			}
			return newFormatter(cmd, rootOpts).Success(
				fmt.Sprintf("Liked %s", args[0]), map[string]string{"id": args[0]})
		},
	}
}
