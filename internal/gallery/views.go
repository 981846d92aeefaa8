package gallery

import (
	"slices"
	"time"

	"github.com/HerbHall/galleria/internal/query"
	"github.com/HerbHall/galleria/pkg/catalog"
	"github.com/HerbHall/galleria/pkg/models"
)

// View sizes.
const (
	RelatedLimit  = 3
	FeaturedLimit = 4
	RecentLimit   = 5
	DashboardSpan = 6 // months
)

// CategoryTab is one entry of the explore category bar.
type CategoryTab struct {
	Name   string `json:"name"`
	Count  int    `json:"count"`
	Active bool   `json:"active"`
}

// Stats summarizes a collection of artworks.
type Stats struct {
	Total      int `json:"total"`
	TotalLikes int `json:"totalLikes"`
	Public     int `json:"public"`
	Private    int `json:"private"`
}

// FavoriteStats summarizes a user's favorites.
type FavoriteStats struct {
	Count      int                    `json:"count"`
	TotalLikes int                    `json:"totalLikes"`
	Categories int                    `json:"categories"`
	ByCategory []models.CategoryCount `json:"byCategory"`
}

// MonthCount is the number of uploads in one calendar month.
type MonthCount struct {
	Month string `json:"month"` // "Jan 2025"
	Count int    `json:"count"`
}

// DashboardView is the overview of an artist's own gallery.
type DashboardView struct {
	Stats          Stats                  `json:"stats"`
	FavoritesCount int                    `json:"favoritesCount"`
	Categories     []models.CategoryCount `json:"categories"`
	Monthly        []MonthCount           `json:"monthly"`
	Recent         []models.Artwork       `json:"recent"`
}

// Artist is the public profile of one artist.
type Artist struct {
	Name       string           `json:"name"`
	Email      string           `json:"email"`
	Photo      string           `json:"photo,omitempty"`
	TotalLikes int              `json:"totalLikes"`
	Works      []models.Artwork `json:"works"`
}

// Public returns the artworks that are publicly listed, in order.
func Public(artworks []models.Artwork) []models.Artwork {
	out := make([]models.Artwork, 0, len(artworks))
	for i := range artworks {
		if artworks[i].IsPublic() {
			out = append(out, artworks[i])
		}
	}
	return out
}

// Explore runs state over a snapshot with every dimension active.
func Explore(artworks []models.Artwork, state query.State) query.Result {
	return query.Run(artworks, state)
}

// CategoryTabs counts the snapshot per category, All first, with only the
// category dimension applied. The tab matching active is marked.
func CategoryTabs(artworks []models.Artwork, names []string, active string) []CategoryTab {
	engine := query.NewEngine(artworks)
	base := query.NewState(query.DefaultPageSize).Only(query.DimCategory)
	if active == "" {
		active = catalog.All
	}

	tabs := make([]CategoryTab, 0, len(names)+1)
	for _, name := range append([]string{catalog.All}, names...) {
		tabs = append(tabs, CategoryTab{
			Name:   name,
			Count:  engine.Count(base.WithCategory(name)),
			Active: name == active,
		})
	}
	return tabs
}

// GalleryStats totals a collection.
func GalleryStats(artworks []models.Artwork) Stats {
	s := Stats{Total: len(artworks)}
	for i := range artworks {
		s.TotalLikes += artworks[i].LikeCount()
		if artworks[i].IsPublic() {
			s.Public++
		} else {
			s.Private++
		}
	}
	return s
}

// countByCategory counts artworks per category in first-seen order.
func countByCategory(artworks []models.Artwork) []models.CategoryCount {
	out := []models.CategoryCount{}
	index := make(map[string]int)
	for i := range artworks {
		c := artworks[i].Category
		if j, ok := index[c]; ok {
			out[j].Count++
			continue
		}
		index[c] = len(out)
		out = append(out, models.CategoryCount{Category: c, Count: 1})
	}
	return out
}

// FavoritesStats summarizes favorites.
func FavoritesStats(favorites []models.Artwork) FavoriteStats {
	byCat := countByCategory(favorites)
	return FavoriteStats{
		Count:      len(favorites),
		TotalLikes: GalleryStats(favorites).TotalLikes,
		Categories: len(byCat),
		ByCategory: byCat,
	}
}

// Dashboard builds the overview of an artist's artworks as of now.
func Dashboard(artworks, favorites []models.Artwork, now time.Time) DashboardView {
	return DashboardView{
		Stats:          GalleryStats(artworks),
		FavoritesCount: len(favorites),
		Categories:     countByCategory(artworks),
		Monthly:        monthlyUploads(artworks, now, DashboardSpan),
		Recent:         mostRecent(artworks, RecentLimit),
	}
}

// monthlyUploads counts uploads for the span months ending with the month of
// now, oldest first. Artworks without a usable timestamp are not counted.
func monthlyUploads(artworks []models.Artwork, now time.Time, span int) []MonthCount {
	now = now.UTC()
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(span - 1), 0)

	out := make([]MonthCount, span)
	for i := range out {
		out[i].Month = first.AddDate(0, i, 0).Format("Jan 2006")
	}
	for i := range artworks {
		t, ok := artworks[i].CreatedTime()
		if !ok {
			continue
		}
		t = t.UTC()
		idx := (t.Year()-first.Year())*12 + int(t.Month()) - int(first.Month())
		if idx >= 0 && idx < span {
			out[idx].Count++
		}
	}
	return out
}

// mostRecent returns up to n artworks, newest first.
func mostRecent(artworks []models.Artwork, n int) []models.Artwork {
	sorted := slices.Clone(artworks)
	slices.SortStableFunc(sorted, func(a, b models.Artwork) int {
		return query.Compare(query.SortNewest, &a, &b)
	})
	if sorted == nil {
		sorted = []models.Artwork{}
	}
	return sorted[:min(n, len(sorted))]
}

// ArtistProfile collects the artworks of email. ok is false when the snapshot
// holds none.
func ArtistProfile(artworks []models.Artwork, email string) (Artist, bool) {
	a := Artist{Email: email, Works: []models.Artwork{}}
	for i := range artworks {
		w := &artworks[i]
		if w.ArtistEmail != email {
			continue
		}
		if a.Name == "" {
			a.Name = w.ArtistName
		}
		if a.Photo == "" {
			a.Photo = w.ArtistPhoto
		}
		a.TotalLikes += w.LikeCount()
		a.Works = append(a.Works, *w)
	}
	return a, len(a.Works) > 0
}

// Related returns up to RelatedLimit other artworks by the artist of a, in
// snapshot order.
func Related(artworks []models.Artwork, a *models.Artwork) []models.Artwork {
	out := []models.Artwork{}
	if a.ArtistEmail == "" {
		return out
	}
	for i := range artworks {
		if len(out) == RelatedLimit {
			break
		}
		w := &artworks[i]
		if w.ArtistEmail == a.ArtistEmail && w.ID != a.ID {
			out = append(out, *w)
		}
	}
	return out
}

// Featured returns the first FeaturedLimit of the latest artworks.
func Featured(latest []models.Artwork) []models.Artwork {
	out := make([]models.Artwork, 0, FeaturedLimit)
	return append(out, latest[:min(FeaturedLimit, len(latest))]...)
}
