package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap/zapcore"

	"github.com/HerbHall/galleria/internal/gallery"
	"github.com/HerbHall/galleria/internal/marketplace"
	"github.com/HerbHall/galleria/pkg/models"
)

// NewMineCommand creates the mine command.
func NewMineCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mine",
		Short: "List your own artworks, private ones included",
		Args:  exactArgs(0),
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
			state, err := resolveState(ctx, cmd, a, "mine")
			if err != nil {
				return err
			}
			view, err := a.Gallery.MyGallery(ctx, viewer, state)
			if err != nil {
				return err
			}
			saveState(ctx, cmd, a, "mine", view.State)

			return newFormatter(cmd, rootOpts).Render(view, func(w io.Writer) error {
				return renderStudio(w, view)
			})
		},
	}
	addStateFlags(cmd)
	return cmd
}

// artworkFlags holds the editable artwork fields.
type artworkFlags struct {
	title       string
	category    string
	medium      string
	description string
	dimensions  string
	image       string
	price       float64
	visibility  string
}

func (f *artworkFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.title, "title", "", "artwork title")
	fs.StringVar(&f.category, "category", "", "category, e.g. Paintings")
	fs.StringVar(&f.medium, "medium", "", "medium, e.g. Oil on canvas")
	fs.StringVar(&f.description, "description", "", "description")
	fs.StringVar(&f.dimensions, "dimensions", "", "dimensions, e.g. 60 x 80 cm")
	fs.StringVar(&f.image, "image", "", "image URL")
	fs.Float64Var(&f.price, "price", 0, "price in USD (omit when not for sale)")
	fs.StringVar(&f.visibility, "visibility", "", "Public or Private")
}

// NewAddCommand creates the add command.
func NewAddCommand(rootOpts *RootOptions) *cobra.Command {
	var in artworkFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Publish a new artwork",
		Args:  exactArgs(0),
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
			na := gallery.NewArtwork{
				Title:       in.title,
				Category:    in.category,
				Medium:      in.medium,
				Description: in.description,
				Dimensions:  in.dimensions,
				Image:       in.image,
				Visibility:  models.Visibility(in.visibility),
			}
			if cmd.Flags().Changed("price") {
				na.Price = models.Price(in.price)
			}
			id, err := a.Gallery.Publish(ctx, viewer, na)
			if err != nil {
				return err
			}
			return newFormatter(cmd, rootOpts).Success(
				fmt.Sprintf("Published %q as %s", na.Title, id), map[string]string{"id": id})
		},
	}
	in.register(cmd.Flags())
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("category")
	return cmd
}

// NewEditCommand creates the edit command.
func NewEditCommand(rootOpts *RootOptions) *cobra.Command {
	var in artworkFlags
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change fields of one of your artworks",
		Long:  "Change fields of one of your artworks. Only the flags given are updated.",
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
			u := in.update(cmd.Flags())
			if err := a.Gallery.Edit(ctx, viewer, args[0], u); err != nil {
				return err
			}
			return newFormatter(cmd, rootOpts).Success(
				fmt.Sprintf("Updated %s", args[0]), map[string]string{"id": args[0]})
		},
	}
	in.register(cmd.Flags())
	return cmd
}

// update returns an ArtworkUpdate carrying the changed flags only.
func (f *artworkFlags) update(fs *pflag.FlagSet) marketplace.ArtworkUpdate {
	var u marketplace.ArtworkUpdate
	str := func(name string, v string) *string {
		if fs.Changed(name) {
			return &v
		}
		return nil
	}
	u.Title = str("title", f.title)
	u.Category = str("category", f.category)
	u.Medium = str("medium", f.medium)
	u.Description = str("description", f.description)
	u.Dimensions = str("dimensions", f.dimensions)
	u.Image = str("image", f.image)
	if fs.Changed("price") {
		u.Price = models.Price(f.price)
	}
	if fs.Changed("visibility") {
		v := models.Visibility(f.visibility)
		u.Visibility = &v
	}
	return u
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete one of your artworks",
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
			if err := a.Gallery.Remove(ctx, viewer, args[0]); err != nil {
				return err
			}
			return newFormatter(cmd, rootOpts).Success(
				fmt.Sprintf("Deleted %s", args[0]), map[string]string{"id": args[0]})
		},
	}
}

// NewStatsCommand creates the stats command.
func NewStatsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show your dashboard",
		Args:  exactArgs(0),
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
			d, err := a.Gallery.Dashboard(ctx, viewer)
			if err != nil {
				return err
			}
			name := viewer.Name
			if name == "" {
				name = viewer.Email
			}
			return newFormatter(cmd, rootOpts).Render(d, func(w io.Writer) error {
				return renderDashboard(w, name, d)
			})
		},
	}
}
