package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/HerbHall/galleria/internal/version"
)

// NewVersionCommand creates the version command.
func NewVersionCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return newFormatter(cmd, rootOpts).Render(version.Map(), func(w io.Writer) error {
				_, err := fmt.Fprintln(w, version.Info())
				return err
			})
		},
	}
}
