package gallery

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HerbHall/galleria/internal/query"
	"github.com/HerbHall/galleria/internal/testutil"
	"github.com/HerbHall/galleria/pkg/models"
)

func collection() []models.Artwork {
	return []models.Artwork{
		testutil.NewArtwork(testutil.WithID("p1"), testutil.WithTitle("Ocean Dreams"), testutil.WithArtist("Mira Sol", "mira@example.com"),
			testutil.WithCategory("Paintings"), testutil.WithLikes(4), testutil.WithRawCreatedAt("2025-06-02T10:00:00Z")),
		testutil.NewArtwork(testutil.WithID("ph1"), testutil.WithTitle("City Lights"), testutil.WithArtist("Jon Park", "jon@example.com"),
			testutil.WithCategory("Photography"), testutil.WithLikes(9), testutil.WithRawCreatedAt("2025-04-20T10:00:00Z")),
		testutil.NewArtwork(testutil.WithID("p2"), testutil.WithTitle("Quiet Morning"), testutil.WithArtist("Mira Sol", "mira@example.com"),
			testutil.WithCategory("Paintings"), testutil.WithLikes(-2), testutil.WithVisibility(models.VisibilityPrivate),
			testutil.WithRawCreatedAt("2025-01-15T10:00:00Z")),
		testutil.NewArtwork(testutil.WithID("s1"), testutil.WithTitle("Stone Form"), testutil.WithArtist("Mira Sol", "mira@example.com"),
			testutil.WithCategory("Sculpture"), testutil.WithLikes(1), testutil.WithRawCreatedAt("2024-12-31T23:00:00Z")),
		testutil.NewArtwork(testutil.WithID("p3"), testutil.WithTitle("Dawn"), testutil.WithArtist("Mira Sol", "mira@example.com"),
			testutil.WithCategory("Paintings"), testutil.WithLikes(0), testutil.WithRawCreatedAt("bad")),
	}
}

func TestPublic(t *testing.T) {
	got := Public(collection())
	require.Len(t, got, 4)
	for i := range got {
		assert.NotEqual(t, "p2", got[i].ID)
	}
}

func TestCategoryTabs(t *testing.T) {
	tabs := CategoryTabs(collection(), []string{"Paintings", "Photography", "Sculpture", "Collage"}, "Sculpture")
	assert.Equal(t, []CategoryTab{
		{Name: "All", Count: 5},
		{Name: "Paintings", Count: 3},
		{Name: "Photography", Count: 1},
		{Name: "Sculpture", Count: 1, Active: true},
		{Name: "Collage", Count: 0},
	}, tabs)

	tabs = CategoryTabs(nil, []string{"Paintings"}, "")
	assert.True(t, tabs[0].Active, "All is active by default")
	assert.Zero(t, tabs[0].Count)
}

func TestGalleryStats(t *testing.T) {
	s := GalleryStats(collection())
	assert.Equal(t, Stats{Total: 5, TotalLikes: 14, Public: 4, Private: 1}, s)
	assert.Equal(t, Stats{}, GalleryStats(nil))
}

func TestFavoritesStats(t *testing.T) {
	s := FavoritesStats(collection())
	assert.Equal(t, 5, s.Count)
	assert.Equal(t, 14, s.TotalLikes)
	assert.Equal(t, 3, s.Categories)
	assert.Equal(t, []models.CategoryCount{
		{Category: "Paintings", Count: 3},
		{Category: "Photography", Count: 1},
		{Category: "Sculpture", Count: 1},
	}, s.ByCategory)

	empty := FavoritesStats(nil)
	assert.Zero(t, empty.Count)
	assert.NotNil(t, empty.ByCategory)
}

func TestDashboard(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	d := Dashboard(collection(), collection()[:2], now)

	assert.Equal(t, 5, d.Stats.Total)
	assert.Equal(t, 2, d.FavoritesCount)
	assert.Equal(t, []MonthCount{
		{Month: "Jan 2025", Count: 1},
		{Month: "Feb 2025", Count: 0},
		{Month: "Mar 2025", Count: 0},
		{Month: "Apr 2025", Count: 1},
		{Month: "May 2025", Count: 0},
		{Month: "Jun 2025", Count: 1},
	}, d.Monthly, "December 2024 falls outside the six-month window")

	ids := make([]string, len(d.Recent))
	for i := range d.Recent {
		ids[i] = d.Recent[i].ID
	}
	assert.Equal(t, []string{"p1", "ph1", "p2", "s1", "p3"}, ids)
}

func TestDashboard_YearBoundary(t *testing.T) {
	now := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	d := Dashboard(collection(), nil, now)
	require.Len(t, d.Monthly, DashboardSpan)
	assert.Equal(t, "Sep 2024", d.Monthly[0].Month)
	assert.Equal(t, MonthCount{Month: "Dec 2024", Count: 1}, d.Monthly[3])
	assert.Equal(t, MonthCount{Month: "Jan 2025", Count: 1}, d.Monthly[4])
}

func TestDashboard_RecentLimit(t *testing.T) {
	many := make([]models.Artwork, 8)
	for i := range many {
		many[i] = testutil.NewArtwork()
	}
	d := Dashboard(many, nil, time.Now())
	assert.Len(t, d.Recent, RecentLimit)
}

func TestArtistProfile(t *testing.T) {
	a, ok := ArtistProfile(collection(), "mira@example.com")
	require.True(t, ok)
	assert.Equal(t, "Mira Sol", a.Name)
	assert.Len(t, a.Works, 4)
	assert.Equal(t, 5, a.TotalLikes)

	_, ok = ArtistProfile(collection(), "nobody@example.com")
	assert.False(t, ok)
}

func TestRelated(t *testing.T) {
	coll := collection()
	rel := Related(coll, &coll[0])
	require.Len(t, rel, RelatedLimit)
	assert.Equal(t, "p2", rel[0].ID)
	assert.Equal(t, "s1", rel[1].ID)
	assert.Equal(t, "p3", rel[2].ID)

	assert.Empty(t, Related(coll, &coll[1]), "only work by that artist")
	orphan := testutil.NewArtwork(testutil.WithArtist("Anon", ""))
	assert.Empty(t, Related(coll, &orphan))
}

func TestFeatured(t *testing.T) {
	coll := collection()
	assert.Len(t, Featured(coll), FeaturedLimit)
	assert.Len(t, Featured(coll[:2]), 2)
	assert.NotNil(t, Featured(nil))
}

func TestExplore_UsesEveryDimension(t *testing.T) {
	s := query.NewState(12).WithCategory("Paintings").WithSearch("dawn")
	res := Explore(collection(), s)
	require.Equal(t, 1, res.TotalMatched)
	assert.Equal(t, "p3", res.Items[0].ID)
}
