package marketplace_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/HerbHall/galleria/internal/marketplace"
	"github.com/HerbHall/galleria/internal/testutil"
	"github.com/HerbHall/galleria/pkg/models"
)

func newClient(t *testing.T, baseURL string, tokens marketplace.TokenSource) *marketplace.Client {
	t.Helper()
	c, err := marketplace.New(marketplace.Options{
		BaseURL: baseURL,
		Timeout: 5 * time.Second,
		Tokens:  tokens,
		Logger:  zap.NewNop(),
	})
	require.NoError(t, err)
	return c
}

func seed() []models.Artwork {
	return []models.Artwork{
		testutil.NewArtwork(testutil.WithID("a1"), testutil.WithTitle("Ocean Dreams"), testutil.WithArtist("Mira Sol", "mira@example.com"),
			testutil.WithCategory("Paintings"), testutil.WithRawCreatedAt("2025-03-01T00:00:00Z")),
		testutil.NewArtwork(testutil.WithID("a2"), testutil.WithTitle("City Lights"), testutil.WithArtist("Jon Park", "jon@example.com"),
			testutil.WithCategory("Photography"), testutil.WithRawCreatedAt("2025-04-01T00:00:00Z")),
		testutil.NewArtwork(testutil.WithID("a3"), testutil.WithTitle("Stone Form"), testutil.WithArtist("Mira Sol", "mira@example.com"),
			testutil.WithCategory("Paintings"), testutil.WithRawCreatedAt("2025-02-01T00:00:00Z")),
	}
}

func TestNew_RejectsNonHTTPBaseURL(t *testing.T) {
	_, err := marketplace.New(marketplace.Options{BaseURL: "ftp://example.com"})
	assert.Error(t, err)
}

func TestNew_DefaultBaseURL(t *testing.T) {
	c, err := marketplace.New(marketplace.Options{})
	require.NoError(t, err)
	assert.Equal(t, marketplace.DefaultBaseURL, c.BaseURL())
}

func TestClient_AllArtworksKeepsOrderAndTagsRequests(t *testing.T) {
	fake := testutil.NewFakeMarketplace(t, seed()...)
	c := newClient(t, fake.URL()+"/", nil)

	got, err := c.AllArtworks(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"a1", "a2", "a3"}, []string{got[0].ID, got[1].ID, got[2].ID})

	reqs := fake.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "/all-artworks", reqs[0].Path)
	_, err = uuid.Parse(reqs[0].RequestID)
	assert.NoError(t, err, "X-Request-ID should be a UUID")
}

func TestClient_ListArtworks(t *testing.T) {
	fake := testutil.NewFakeMarketplace(t, seed()...)
	c := newClient(t, fake.URL(), nil)

	p, err := c.ListArtworks(context.Background(), 2, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, p.Total)
	assert.Equal(t, 2, p.TotalPages)
	require.Len(t, p.Artworks, 1)
	assert.Equal(t, "a3", p.Artworks[0].ID)
}

func TestClient_LatestAndQueries(t *testing.T) {
	fake := testutil.NewFakeMarketplace(t, seed()...)
	c := newClient(t, fake.URL(), nil)
	ctx := context.Background()

	latest, err := c.LatestArtworks(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, latest)
	assert.Equal(t, "a2", latest[0].ID)

	mine, err := c.ArtistArtworks(ctx, "mira@example.com")
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	found, err := c.SearchArtworks(ctx, "city")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "a2", found[0].ID)

	byCat, err := c.ArtworksByCategory(ctx, "Paintings")
	require.NoError(t, err)
	assert.Len(t, byCat, 2)

	none, err := c.ArtworksByCategory(ctx, "Collage")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestClient_GetArtwork(t *testing.T) {
	fake := testutil.NewFakeMarketplace(t, seed()...)
	c := newClient(t, fake.URL(), nil)

	a, err := c.GetArtwork(context.Background(), "a2")
	require.NoError(t, err)
	assert.Equal(t, "City Lights", a.Title)

	_, err = c.GetArtwork(context.Background(), "missing")
	require.ErrorIs(t, err, marketplace.ErrNotFound)
	var se *marketplace.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusNotFound, se.StatusCode)
	assert.Equal(t, "artwork not found", se.Message)
}

func TestClient_GetArtworkNullBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte("null"))
	}))
	defer srv.Close()

	_, err := newClient(t, srv.URL, nil).GetArtwork(context.Background(), "x")
	assert.ErrorIs(t, err, marketplace.ErrNotFound)
}

func TestClient_OwnerMutationsNeedToken(t *testing.T) {
	fake := testutil.NewFakeMarketplace(t, seed()...)
	fake.RequireAuth()
	ctx := context.Background()
	title := "Ocean Dreams II"

	anon := newClient(t, fake.URL(), nil)
	err := anon.UpdateArtwork(ctx, "a1", marketplace.ArtworkUpdate{Title: &title})
	assert.ErrorIs(t, err, marketplace.ErrUnauthorized)

	owner := anon.WithTokens(marketplace.StaticToken("id-token"))
	require.NoError(t, owner.UpdateArtwork(ctx, "a1", marketplace.ArtworkUpdate{Title: &title}))
	a, ok := fake.Artwork("a1")
	require.True(t, ok)
	assert.Equal(t, title, a.Title)
	assert.Equal(t, "Mira Sol", a.ArtistName, "fields outside the update are kept")

	require.NoError(t, owner.DeleteArtwork(ctx, "a3"))
	_, ok = fake.Artwork("a3")
	assert.False(t, ok)

	assert.ErrorIs(t, owner.DeleteArtwork(ctx, "a3"), marketplace.ErrNotFound)
	assert.ErrorIs(t, owner.UpdateArtwork(ctx, "nope", marketplace.ArtworkUpdate{Title: &title}), marketplace.ErrNotFound)

	reqs := fake.Requests()
	assert.Equal(t, "Bearer id-token", reqs[len(reqs)-1].Authorization)
}

func TestClient_TokenSourceError(t *testing.T) {
	fake := testutil.NewFakeMarketplace(t, seed()...)
	boom := errors.New("no session")
	c := newClient(t, fake.URL(), marketplace.TokenFunc(func(context.Context) (string, error) { return "", boom }))

	err := c.DeleteArtwork(context.Background(), "a1")
	assert.ErrorIs(t, err, marketplace.ErrUnauthorized)
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, fake.Requests(), "no request is sent without a token")
}

func TestClient_CreateArtwork(t *testing.T) {
	fake := testutil.NewFakeMarketplace(t)
	c := newClient(t, fake.URL(), marketplace.StaticToken("t"))

	a := testutil.NewArtwork(testutil.WithID(""), testutil.WithTitle("New Work"), testutil.WithPrice(120))
	id, err := c.CreateArtwork(context.Background(), &a)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	stored, ok := fake.Artwork(id)
	require.True(t, ok)
	assert.Equal(t, "New Work", stored.Title)
	assert.InDelta(t, 120, stored.EffectivePrice(), 0.001)
}

func TestClient_LikeArtwork(t *testing.T) {
	fake := testutil.NewFakeMarketplace(t, seed()...)
	c := newClient(t, fake.URL(), nil)
	ctx := context.Background()

	changed, err := c.LikeArtwork(ctx, "a1", "fan@example.com")
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = c.LikeArtwork(ctx, "a1", "fan@example.com")
	require.NoError(t, err)
	assert.False(t, changed)

	a, _ := fake.Artwork("a1")
	assert.Equal(t, 1, a.Likes)

	_, err = c.LikeArtwork(ctx, "missing", "fan@example.com")
	assert.ErrorIs(t, err, marketplace.ErrNotFound)
}

func TestClient_Favorites(t *testing.T) {
	fake := testutil.NewFakeMarketplace(t, seed()...)
	c := newClient(t, fake.URL(), nil)
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, c.AddFavorite(ctx, "fan@example.com", "a2", now))
	require.NoError(t, c.AddFavorite(ctx, "fan@example.com", "a1", now))
	assert.ErrorIs(t, c.AddFavorite(ctx, "fan@example.com", "a2", now), marketplace.ErrAlreadyExists)

	favs, err := c.Favorites(ctx, "fan@example.com")
	require.NoError(t, err)
	require.Len(t, favs, 2)
	assert.Equal(t, "a2", favs[0].ID)

	require.NoError(t, c.RemoveFavorite(ctx, "fan@example.com", "a2"))
	assert.ErrorIs(t, c.RemoveFavorite(ctx, "fan@example.com", "a2"), marketplace.ErrNotFound)

	favs, err = c.Favorites(ctx, "fan@example.com")
	require.NoError(t, err)
	assert.Len(t, favs, 1)
}

func TestClient_UsersAndStats(t *testing.T) {
	fake := testutil.NewFakeMarketplace(t, seed()...)
	c := newClient(t, fake.URL(), nil)
	ctx := context.Background()

	u, err := c.CreateOrGetUser(ctx, models.User{Name: "Fan", Email: "fan@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "2025-01-01T00:00:00Z", u.CreatedAt)

	again, err := c.CreateOrGetUser(ctx, models.User{Name: "Renamed", Email: "fan@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "Fan", again.Name, "existing profile is returned")

	total, err := c.TotalArtworks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, total)

	stats, err := c.CategoryStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.CategoryCount{{Category: "Paintings", Count: 2}, {Category: "Photography", Count: 1}}, stats)
}

func TestClient_StatusMapping(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusBadRequest, marketplace.ErrInvalid},
		{http.StatusUnauthorized, marketplace.ErrUnauthorized},
		{http.StatusForbidden, marketplace.ErrUnauthorized},
		{http.StatusNotFound, marketplace.ErrNotFound},
		{http.StatusConflict, marketplace.ErrAlreadyExists},
		{http.StatusBadGateway, marketplace.ErrUnavailable},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			fake := testutil.NewFakeMarketplace(t)
			fake.FailWith(tt.status)
			_, err := newClient(t, fake.URL(), nil).AllArtworks(context.Background())
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestClient_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := newClient(t, url, nil).AllArtworks(context.Background())
	assert.ErrorIs(t, err, marketplace.ErrUnavailable)
}

func TestClient_CanceledContext(t *testing.T) {
	fake := testutil.NewFakeMarketplace(t, seed()...)
	c, err := marketplace.New(marketplace.Options{BaseURL: fake.URL(), RateLimit: 1, Burst: 1})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.AllArtworks(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, fake.Requests())
}

func TestClient_Metrics(t *testing.T) {
	fake := testutil.NewFakeMarketplace(t, seed()...)
	reg := prometheus.NewRegistry()
	c, err := marketplace.New(marketplace.Options{BaseURL: fake.URL(), Registerer: reg})
	require.NoError(t, err)

	ctx := context.Background()
	_, err = c.AllArtworks(ctx)
	require.NoError(t, err)
	_, err = c.GetArtwork(ctx, "a1")
	require.NoError(t, err)
	_, err = c.GetArtwork(ctx, "a2")
	require.NoError(t, err)

	n, err := promtestutil.GatherAndCount(reg, "galleria_api_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n, "one series per endpoint/method/code")

	// A second client on the same registry shares the collectors.
	_, err = marketplace.New(marketplace.Options{BaseURL: fake.URL(), Registerer: reg})
	require.NoError(t, err)
}
