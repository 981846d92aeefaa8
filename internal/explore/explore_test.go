package explore_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/HerbHall/galleria/internal/explore"
	"github.com/HerbHall/galleria/internal/gallery"
	"github.com/HerbHall/galleria/internal/gallery/gallerytest"
	"github.com/HerbHall/galleria/internal/plugin"
	"github.com/HerbHall/galleria/internal/server"
	"github.com/HerbHall/galleria/internal/testutil"
	"github.com/HerbHall/galleria/pkg/models"
)

func seed() []models.Artwork {
	return []models.Artwork{
		testutil.NewArtwork(testutil.WithID("a1"), testutil.WithTitle("Ocean Dreams"), testutil.WithArtist("Mira Sol", "mira@example.com"),
			testutil.WithCategory("Paintings"), testutil.WithPrice(250), testutil.WithLikes(4), testutil.WithRawCreatedAt("2025-06-01T00:00:00Z")),
		testutil.NewArtwork(testutil.WithID("a2"), testutil.WithTitle("City Lights"), testutil.WithArtist("Jon Park", "jon@example.com"),
			testutil.WithCategory("Photography"), testutil.WithLikedBy("fan@example.com"), testutil.WithRawCreatedAt("2025-05-01T00:00:00Z")),
		testutil.NewArtwork(testutil.WithID("a3"), testutil.WithTitle("Hidden Study"), testutil.WithArtist("Mira Sol", "mira@example.com"),
			testutil.WithCategory("Drawings"), testutil.WithVisibility(models.VisibilityPrivate), testutil.WithRawCreatedAt("2025-04-01T00:00:00Z")),
		testutil.NewArtwork(testutil.WithID("a4"), testutil.WithTitle("Stone Form"), testutil.WithArtist("Mira Sol", "mira@example.com"),
			testutil.WithCategory("Sculpture"), testutil.WithPrice(1200), testutil.WithRawCreatedAt("2025-03-01T00:00:00Z")),
		testutil.NewArtwork(testutil.WithID("a5"), testutil.WithTitle("Harbor at Dusk"), testutil.WithArtist("Jon Park", "jon@example.com"),
			testutil.WithCategory("Paintings"), testutil.WithPrice(90), testutil.WithRawCreatedAt("2025-02-01T00:00:00Z")),
	}
}

func setup(t *testing.T) (*gallerytest.Fixture, http.Handler) {
	t.Helper()
	f := gallerytest.New(t, seed()...)
	return f, f.Serve(t, nil, explore.New(f.Service))
}

func ids(items []models.Artwork) []string {
	out := make([]string, len(items))
	for i := range items {
		out[i] = items[i].ID
	}
	return out
}

func TestList_DefaultState(t *testing.T) {
	_, h := setup(t)

	w := gallerytest.Do(t, h, http.MethodGet, "/api/v1/explore/artworks", "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotEmpty(t, w.Header().Get(server.VersionHeader))

	view := gallerytest.Decode[gallery.ExploreView](t, w)
	assert.Equal(t, 4, view.Result.TotalMatched, "private work is hidden")
	assert.Equal(t, 2, view.Result.TotalPages)
	assert.Equal(t, []string{"a1", "a2"}, ids(view.Result.Items))
	require.NotEmpty(t, view.Tabs)
	assert.Equal(t, gallery.CategoryTab{Name: "All", Count: 4, Active: true}, view.Tabs[0])
}

func TestList_FilterAndSort(t *testing.T) {
	_, h := setup(t)

	w := gallerytest.Do(t, h, http.MethodGet, "/api/v1/explore/artworks?category=Paintings&sort=priceAsc", "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	view := gallerytest.Decode[gallery.ExploreView](t, w)
	assert.Equal(t, []string{"a5", "a1"}, ids(view.Result.Items))

	w = gallerytest.Do(t, h, http.MethodGet, "/api/v1/explore/artworks?q=STONE&min=1000", "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	view = gallerytest.Decode[gallery.ExploreView](t, w)
	assert.Equal(t, []string{"a4"}, ids(view.Result.Items))
}

func TestList_ClampsPage(t *testing.T) {
	_, h := setup(t)

	w := gallerytest.Do(t, h, http.MethodGet, "/api/v1/explore/artworks?page=9", "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	view := gallerytest.Decode[gallery.ExploreView](t, w)
	assert.Equal(t, 2, view.State.Page)
	assert.Equal(t, []string{"a4", "a5"}, ids(view.Result.Items))
}

func TestList_RejectsBadQuery(t *testing.T) {
	_, h := setup(t)

	for _, path := range []string{
		"/api/v1/explore/artworks?sort=oldest",
		"/api/v1/explore/artworks?min=cheap",
		"/api/v1/explore/artworks?category=Pottery",
	} {
		w := gallerytest.Do(t, h, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, path)
		assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))
	}
}

func TestList_UpstreamDown(t *testing.T) {
	f, h := setup(t)
	f.Market.FailWith(http.StatusBadGateway)

	w := gallerytest.Do(t, h, http.MethodGet, "/api/v1/explore/artworks", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestList_PageSizeFromConfig(t *testing.T) {
	f := gallerytest.New(t, seed()...)
	cfg := viper.New()
	cfg.Set("plugins.explore.page_size", 3)
	h := f.Serve(t, cfg, explore.New(f.Service))

	w := gallerytest.Do(t, h, http.MethodGet, "/api/v1/explore/artworks", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	view := gallerytest.Decode[gallery.ExploreView](t, w)
	assert.Equal(t, 3, view.Result.PageSize)
	assert.Len(t, view.Result.Items, 3)
}

func TestDisabled(t *testing.T) {
	f := gallerytest.New(t, seed()...)
	cfg := viper.New()
	cfg.Set("plugins.explore.enabled", false)
	h := f.Serve(t, cfg, explore.New(f.Service))

	w := gallerytest.Do(t, h, http.MethodGet, "/api/v1/explore/artworks", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCategories(t *testing.T) {
	_, h := setup(t)

	w := gallerytest.Do(t, h, http.MethodGet, "/api/v1/explore/categories", "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := gallerytest.Decode[struct {
		Categories []struct{ Name string } `json:"categories"`
		Tabs       []gallery.CategoryTab   `json:"tabs"`
	}](t, w)
	require.NotEmpty(t, body.Categories)
	assert.Equal(t, "Paintings", body.Categories[0].Name)
	assert.Len(t, body.Tabs, len(body.Categories)+1)
	assert.Contains(t, body.Tabs, gallery.CategoryTab{Name: "Paintings", Count: 2})
}

func TestFeatured(t *testing.T) {
	_, h := setup(t)

	w := gallerytest.Do(t, h, http.MethodGet, "/api/v1/explore/featured", "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	featured := gallerytest.Decode[[]models.Artwork](t, w)
	assert.Len(t, featured, gallery.FeaturedLimit)
	assert.NotContains(t, ids(featured), "a3")
}

func TestArtwork(t *testing.T) {
	_, h := setup(t)

	w := gallerytest.Do(t, h, http.MethodGet, "/api/v1/explore/artworks/a1", "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	detail := gallerytest.Decode[gallery.ArtworkDetail](t, w)
	assert.Equal(t, "Ocean Dreams", detail.Artwork.Title)
	assert.Equal(t, []string{"a4"}, ids(detail.Related))

	w = gallerytest.Do(t, h, http.MethodGet, "/api/v1/explore/artworks/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestArtist(t *testing.T) {
	_, h := setup(t)

	w := gallerytest.Do(t, h, http.MethodGet, "/api/v1/explore/artists/jon@example.com", "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	artist := gallerytest.Decode[gallery.Artist](t, w)
	assert.Equal(t, "Jon Park", artist.Name)
	assert.Len(t, artist.Works, 2)

	w = gallerytest.Do(t, h, http.MethodGet, "/api/v1/explore/artists/ghost@example.com", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLike(t *testing.T) {
	f, h := setup(t)
	bearer := f.Bearer(t, "fan@example.com", "Fan")

	w := gallerytest.Do(t, h, http.MethodPost, "/api/v1/explore/artworks/a1/like", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code, "anonymous likes are refused")

	w = gallerytest.Do(t, h, http.MethodPost, "/api/v1/explore/artworks/a1/like", bearer, nil)
	require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())
	a, _ := f.Market.Artwork("a1")
	assert.Equal(t, 5, a.Likes)
	assert.Contains(t, a.LikedBy, "fan@example.com")

	w = gallerytest.Do(t, h, http.MethodPost, "/api/v1/explore/artworks/a1/like", bearer, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = gallerytest.Do(t, h, http.MethodPost, "/api/v1/explore/artworks/a2/like", bearer, nil)
	assert.Equal(t, http.StatusConflict, w.Code, "liked before this session")
}

func TestLike_ExpiredOrMalformedToken(t *testing.T) {
	f, h := setup(t)
	bearer := f.Bearer(t, "fan@example.com", "Fan")
	f.Clock.Advance(2 * time.Hour)

	w := gallerytest.Do(t, h, http.MethodPost, "/api/v1/explore/artworks/a1/like", bearer, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = gallerytest.Do(t, h, http.MethodPost, "/api/v1/explore/artworks/a1/like", "Basic Zm9vOmJhcg==", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = gallerytest.Do(t, h, http.MethodPost, "/api/v1/explore/artworks/a1/like", "Bearer not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHealth_ReflectsWarmUp(t *testing.T) {
	warm := func(t *testing.T, f *gallerytest.Fixture) *explore.Plugin {
		t.Helper()
		p := explore.New(f.Service)
		cfg := viper.New()
		cfg.Set("warm", true)
		require.NoError(t, p.Init(cfg, zap.NewNop()))
		require.NoError(t, p.Start(context.Background()))
		select {
		case <-p.Warmed():
		case <-time.After(5 * time.Second):
			t.Fatal("warm-up did not finish")
		}
		require.NoError(t, p.Stop())
		return p
	}

	t.Run("reachable", func(t *testing.T) {
		p := warm(t, gallerytest.New(t, seed()...))
		assert.Equal(t, plugin.HealthOK, p.Health(context.Background()).Status)
	})

	t.Run("unreachable", func(t *testing.T) {
		f := gallerytest.New(t, seed()...)
		f.Market.FailWith(http.StatusServiceUnavailable)
		h := warm(t, f).Health(context.Background())
		assert.Equal(t, plugin.HealthDegraded, h.Status)
		assert.Contains(t, h.Message, "warm all")
	})
}

func TestHealth_StopDuringWarmUpIsNotAnOutage(t *testing.T) {
	f := gallerytest.New(t, seed()...)
	p := explore.New(f.Service)
	cfg := viper.New()
	cfg.Set("warm", true)
	require.NoError(t, p.Init(cfg, zap.NewNop()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, p.Start(ctx))
	<-p.Warmed()
	require.NoError(t, p.Stop())

	h := p.Health(context.Background())
	assert.Equal(t, plugin.HealthOK, h.Status)
	assert.Empty(t, h.Message)
}

func TestWarmed_ClosedWithoutWarmUp(t *testing.T) {
	f := gallerytest.New(t, seed()...)
	p := explore.New(f.Service)
	require.NoError(t, p.Init(viper.New(), zap.NewNop()))
	require.NoError(t, p.Start(context.Background()))

	select {
	case <-p.Warmed():
	default:
		t.Fatal("Warmed not closed when warm-up is off")
	}
	require.NoError(t, p.Stop())
}

func TestServerHealth_IncludesViews(t *testing.T) {
	_, h := setup(t)
	w := gallerytest.Do(t, h, http.MethodGet, "/api/v1/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := gallerytest.Decode[map[string]any](t, w)
	assert.Equal(t, "ok", body["status"])
	views, ok := body["views"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, views, "explore")
}
