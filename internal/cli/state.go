package cli

import (
	"context"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/HerbHall/galleria/internal/query"
	"github.com/HerbHall/galleria/internal/services"
	"github.com/HerbHall/galleria/internal/settings"
)

// stateFlags maps list flags to the query parameters understood by
// query.ParseState.
var stateFlags = map[string]string{
	"search":   query.ParamSearch,
	"category": query.ParamCategory,
	"min":      query.ParamMin,
	"max":      query.ParamMax,
	"sort":     query.ParamSort,
	"page":     query.ParamPage,
	"limit":    query.ParamLimit,
}

// filterFlags are the flags that change the matching set; setting one
// without --page starts over on the first page.
var filterFlags = []string{"search", "category", "min", "max", "sort"}

// addStateFlags registers the filter, sort and pagination flags of a list
// command. Values are parsed by query.ParseState, so the flags are strings.
func addStateFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringP("search", "s", "", "match title or artist name")
	f.StringP("category", "c", "", "only show this category (All for every category)")
	f.String("min", "", "minimum price")
	f.String("max", "", "maximum price")
	f.String("sort", "", "sort order (newest|popular|priceAsc|priceDesc)")
	f.StringP("page", "p", "", "page number")
	f.StringP("limit", "n", "", "artworks per page (remembered)")
	f.Bool("resume", false, "start from the last state used by this command")
}

// resolveState builds the query state for view from the changed flags,
// starting from the defaults or, with --resume, the last saved state.
func resolveState(ctx context.Context, cmd *cobra.Command, a *app, view string) (query.State, error) {
	base := a.Gallery.NewState()
	flags := cmd.Flags()

	if resume, _ := flags.GetBool("resume"); resume {
		var saved query.State
		err := services.GetJSON(ctx, a.Settings, settings.StateKey(view), &saved)
		switch {
		case err == nil:
			base = saved
		case isNotFound(err):
		default:
			a.Logger.Warn("saved state unreadable", zap.String("view", view), zap.Error(err))
		}
	}

	values := base.Values()
	flags.Visit(func(f *pflag.Flag) {
		if param, ok := stateFlags[f.Name]; ok {
			values.Set(param, f.Value.String())
		}
	})
	if !flags.Changed("page") {
		for _, name := range filterFlags {
			if flags.Changed(name) {
				values.Del(query.ParamPage)
				break
			}
		}
	}

	return query.ParseState(values, base.PageSize)
}

// saveState remembers state for --resume and, when --limit was given, its
// page size for later runs. Call it once the listing succeeded. Failures are
// logged only.
func saveState(ctx context.Context, cmd *cobra.Command, a *app, view string, state query.State) {
	if err := services.SetJSON(ctx, a.Settings, settings.StateKey(view), state); err != nil {
		a.Logger.Warn("save state", zap.String("view", view), zap.Error(err))
	}
	if cmd.Flags().Changed("limit") {
		if err := a.Settings.Set(ctx, settings.KeyPageSize, strconv.Itoa(state.PageSize)); err != nil {
			a.Logger.Warn("save page size", zap.Error(err))
		}
	}
}
