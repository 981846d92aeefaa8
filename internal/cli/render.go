package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/HerbHall/galleria/internal/auth"
	"github.com/HerbHall/galleria/internal/gallery"
	"github.com/HerbHall/galleria/internal/present"
	"github.com/HerbHall/galleria/internal/query"
	"github.com/HerbHall/galleria/internal/services"
	"github.com/HerbHall/galleria/pkg/models"
)

// titleWidth bounds titles in tables.
const titleWidth = 30

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
}

// column is one artwork table column.
type column struct {
	header string
	value  func(a *models.Artwork) string
}

var (
	colID       = column{"ID", func(a *models.Artwork) string { return a.ID }}
	colTitle    = column{"TITLE", func(a *models.Artwork) string { return present.TruncateText(a.Title, titleWidth) }}
	colArtist   = column{"ARTIST", func(a *models.Artwork) string { return a.ArtistName }}
	colCategory = column{"CATEGORY", func(a *models.Artwork) string { return a.Category }}
	colPrice    = column{"PRICE", present.FormatArtworkPrice}
	colLikes    = column{"LIKES", func(a *models.Artwork) string { return strconv.Itoa(a.LikeCount()) }}
	colCreated  = column{"CREATED", present.FormatDate}
	colVisible  = column{"VISIBILITY", func(a *models.Artwork) string { return string(visibility(a)) }}
)

func visibility(a *models.Artwork) models.Visibility {
	if a.IsPublic() {
		return models.VisibilityPublic
	}
	return models.VisibilityPrivate
}

// writeArtworks prints artworks as an aligned table.
func writeArtworks(w io.Writer, artworks []models.Artwork, cols ...column) error {
	tw := newTable(w)
	headers := make([]string, len(cols))
	for i, c := range cols {
		headers[i] = c.header
	}
	fmt.Fprintln(tw, strings.Join(headers, "\t"))

	cells := make([]string, len(cols))
	for i := range artworks {
		for j, c := range cols {
			cells[j] = c.value(&artworks[i])
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	return tw.Flush()
}

// pageSummary describes the visible window of res.
func pageSummary(res query.Result) string {
	first := (res.Page-1)*res.PageSize + 1
	last := first + len(res.Items) - 1
	return fmt.Sprintf("Showing %d-%d of %s (page %d of %d)",
		first, last, present.Plural(res.TotalMatched, "artwork", "artworks"), res.Page, res.TotalPages)
}

// writePage prints the summary and table of res, or empty when nothing
// matched.
func writePage(w io.Writer, res query.Result, empty string, cols ...column) error {
	if res.TotalMatched == 0 {
		fmt.Fprintln(w, empty)
		return nil
	}
	fmt.Fprintln(w, pageSummary(res))
	fmt.Fprintln(w)
	return writeArtworks(w, res.Items, cols...)
}

func cachedNotice(w io.Writer, cached bool, fetchedAt time.Time) {
	if cached {
		fmt.Fprintf(w, "\nOffline: showing artworks cached on %s.\n", present.FormatTime(fetchedAt))
	}
}

const noMatches = "No artworks match the current filters."

// tabsLine lists the category tabs that have artworks, marking the active one.
func tabsLine(tabs []gallery.CategoryTab) string {
	parts := make([]string, 0, len(tabs))
	for i, t := range tabs {
		if i > 0 && t.Count == 0 && !t.Active {
			continue
		}
		label := fmt.Sprintf("%s (%d)", t.Name, t.Count)
		if t.Active {
			label = "[" + label + "]"
		}
		parts = append(parts, label)
	}
	return "Categories: " + strings.Join(parts, "  ")
}

func renderExplore(w io.Writer, v *gallery.ExploreView) error {
	fmt.Fprintln(w, tabsLine(v.Tabs))
	fmt.Fprintln(w)
	err := writePage(w, v.Result, noMatches,
		colID, colTitle, colArtist, colCategory, colPrice, colLikes, colCreated)
	if err != nil {
		return err
	}
	cachedNotice(w, v.Cached, v.FetchedAt)
	return nil
}

func renderArtwork(w io.Writer, d *gallery.ArtworkDetail) error {
	a := &d.Artwork
	fmt.Fprintln(w, a.Title)
	if a.ArtistEmail != "" {
		fmt.Fprintf(w, "by %s <%s>\n", a.ArtistName, a.ArtistEmail)
	} else {
		fmt.Fprintf(w, "by %s\n", a.ArtistName)
	}
	fmt.Fprintln(w)

	field := func(name, value string) {
		if value != "" {
			fmt.Fprintf(w, "%-12s%s\n", name, value)
		}
	}
	field("ID", a.ID)
	field("Category", a.Category)
	field("Medium", a.Medium)
	field("Dimensions", a.Dimensions)
	field("Price", present.FormatArtworkPrice(a))
	field("Likes", strconv.Itoa(a.LikeCount()))
	field("Visibility", string(visibility(a)))
	field("Created", present.FormatDate(a))
	field("Image", a.Image)

	if a.Description != "" {
		fmt.Fprintf(w, "\n%s\n", a.Description)
	}
	if len(d.Related) > 0 {
		fmt.Fprintf(w, "\nMore by %s\n\n", a.ArtistName)
		return writeArtworks(w, d.Related, colID, colTitle, colPrice)
	}
	return nil
}

func renderArtist(w io.Writer, a *gallery.Artist) error {
	fmt.Fprintf(w, "%s <%s>\n", a.Name, a.Email)
	fmt.Fprintf(w, "%s, %s\n\n",
		present.Plural(len(a.Works), "artwork", "artworks"),
		present.Plural(a.TotalLikes, "like", "likes"))
	return writeArtworks(w, a.Works, colID, colTitle, colCategory, colPrice, colLikes)
}

func renderStudio(w io.Writer, v *gallery.StudioView) error {
	s := v.Stats
	fmt.Fprintf(w, "My gallery: %s, %s (%d public, %d private)\n\n",
		present.Plural(s.Total, "artwork", "artworks"),
		present.Plural(s.TotalLikes, "like", "likes"),
		s.Public, s.Private)
	empty := noMatches
	if s.Total == 0 {
		empty = "You have not published any artworks yet. Publish one with 'galleria add'."
	}
	err := writePage(w, v.Result, empty,
		colID, colTitle, colCategory, colPrice, colLikes, colVisible, colCreated)
	if err != nil {
		return err
	}
	cachedNotice(w, v.Cached, v.FetchedAt)
	return nil
}

func renderFavorites(w io.Writer, v *gallery.FavoritesView) error {
	s := v.Stats
	if s.Count == 0 {
		fmt.Fprintln(w, "No favorites yet. Add one with 'galleria favorites add <id>'.")
		return nil
	}
	fmt.Fprintf(w, "Favorites: %s, %s, %s\n",
		present.Plural(s.Count, "artwork", "artworks"),
		present.Plural(s.TotalLikes, "like", "likes"),
		present.Plural(s.Categories, "category", "categories"))
	if err := writeCounts(w, s.ByCategory); err != nil {
		return err
	}
	fmt.Fprintln(w)
	err := writePage(w, v.Result, noMatches,
		colID, colTitle, colArtist, colCategory, colPrice, colLikes)
	if err != nil {
		return err
	}
	cachedNotice(w, v.Cached, v.FetchedAt)
	return nil
}

func writeCounts(w io.Writer, counts []models.CategoryCount) error {
	tw := newTable(w)
	for _, c := range counts {
		fmt.Fprintf(tw, "  %s\t%d\n", c.Category, c.Count)
	}
	return tw.Flush()
}

func renderDashboard(w io.Writer, name string, d *gallery.DashboardView) error {
	fmt.Fprintf(w, "Dashboard for %s\n\n", name)

	tw := newTable(w)
	fmt.Fprintf(tw, "Artworks\t%d\n", d.Stats.Total)
	fmt.Fprintf(tw, "Likes\t%d\n", d.Stats.TotalLikes)
	fmt.Fprintf(tw, "Public\t%d\n", d.Stats.Public)
	fmt.Fprintf(tw, "Private\t%d\n", d.Stats.Private)
	fmt.Fprintf(tw, "Favorites\t%d\n", d.FavoritesCount)
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(d.Categories) > 0 {
		fmt.Fprintln(w, "\nCategories")
		if err := writeCounts(w, d.Categories); err != nil {
			return err
		}
	}

	fmt.Fprintf(w, "\nUploads (last %d months)\n", len(d.Monthly))
	tw = newTable(w)
	for _, m := range d.Monthly {
		fmt.Fprintf(tw, "  %s\t%d\n", m.Month, m.Count)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(d.Recent) > 0 {
		fmt.Fprint(w, "\nRecent\n\n")
		return writeArtworks(w, d.Recent, colID, colTitle, colCategory, colLikes, colCreated)
	}
	return nil
}

func renderSession(w io.Writer, s *auth.Session) error {
	who := s.Email
	if s.Name != "" {
		who = fmt.Sprintf("%s <%s>", s.Name, s.Email)
	}
	fmt.Fprintf(w, "Signed in as %s\n", who)
	if !s.ExpiresAt.IsZero() {
		fmt.Fprintf(w, "Session expires %s\n", s.ExpiresAt.UTC().Format("2006-01-02 15:04 MST"))
	}
	return nil
}

func renderSnapshots(w io.Writer, list *services.ListResult[services.SnapshotInfo]) error {
	if len(list.Items) == 0 {
		fmt.Fprintln(w, "No cached snapshots.")
		return nil
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "SOURCE\tARTWORKS\tFETCHED")
	for _, s := range list.Items {
		fmt.Fprintf(tw, "%s\t%d\t%s\n", s.Source, s.Count, s.FetchedAt.UTC().Format(time.RFC3339))
	}
	return tw.Flush()
}
