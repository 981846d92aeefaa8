// Package gallery combines the marketplace client, the local snapshot cache
// and the query engine into the views shown by the CLI and the view server.
package gallery

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/HerbHall/galleria/internal/marketplace"
	"github.com/HerbHall/galleria/internal/query"
	"github.com/HerbHall/galleria/internal/services"
	"github.com/HerbHall/galleria/pkg/catalog"
	"github.com/HerbHall/galleria/pkg/models"
)

// Sentinel errors returned by Service.
var (
	ErrUnknownCategory  = errors.New("unknown category")
	ErrAlreadyLiked     = errors.New("already liked")
	ErrAlreadyFavorited = errors.New("already in favorites")
	ErrNotOwner         = errors.New("artwork belongs to another artist")
	ErrArtistNotFound   = errors.New("artist not found")
	ErrInvalidArtwork   = errors.New("invalid artwork")
)

// Snapshot sources. Per-user sources are built with ArtistSource and
// FavoritesSource.
const (
	SourceAll    = "all"
	SourceLatest = "latest"
)

// ArtistSource names the snapshot of one artist's own artworks.
func ArtistSource(email string) string { return "artist:" + email }

// FavoritesSource names the snapshot of one user's favorites.
func FavoritesSource(email string) string { return "favorites:" + email }

// Marketplace is the subset of the marketplace client used by Service.
type Marketplace interface {
	AllArtworks(ctx context.Context) ([]models.Artwork, error)
	LatestArtworks(ctx context.Context) ([]models.Artwork, error)
	GetArtwork(ctx context.Context, id string) (*models.Artwork, error)
	ArtistArtworks(ctx context.Context, email string) ([]models.Artwork, error)
	CreateArtwork(ctx context.Context, a *models.Artwork) (string, error)
	UpdateArtwork(ctx context.Context, id string, u marketplace.ArtworkUpdate) error
	DeleteArtwork(ctx context.Context, id string) error
	LikeArtwork(ctx context.Context, id, email string) (bool, error)
	AddFavorite(ctx context.Context, email, artworkID string, addedAt time.Time) error
	Favorites(ctx context.Context, email string) ([]models.Artwork, error)
	RemoveFavorite(ctx context.Context, email, artworkID string) error
}

// Compile-time interface guard.
var _ Marketplace = (*marketplace.Client)(nil)

// Options tunes a Service.
type Options struct {
	PageSize   int
	MaxAge     time.Duration // oldest cached snapshot usable as a fallback
	Now        func() time.Time
	Catalog    *catalog.Catalog
	Registerer prometheus.Registerer
	Logger     *zap.Logger
}

// Service serves gallery views. It is safe for concurrent use.
type Service struct {
	market    Marketplace
	snapshots services.SnapshotRepository
	catalog   *catalog.Catalog
	pageSize  int
	maxAge    time.Duration
	now       func() time.Time
	metrics   *Metrics
	logger    *zap.Logger
}

// NewService creates a Service. snapshots may be nil to run without a cache.
func NewService(market Marketplace, snapshots services.SnapshotRepository, opts Options) (*Service, error) {
	metrics, err := NewMetrics(opts.Registerer)
	if err != nil {
		return nil, fmt.Errorf("gallery metrics: %w", err)
	}
	s := &Service{
		market:    market,
		snapshots: snapshots,
		catalog:   opts.Catalog,
		pageSize:  opts.PageSize,
		maxAge:    opts.MaxAge,
		now:       opts.Now,
		metrics:   metrics,
		logger:    opts.Logger,
	}
	if s.catalog == nil {
		s.catalog = catalog.Default()
	}
	if s.pageSize <= 0 {
		s.pageSize = query.DefaultPageSize
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s, nil
}

// PageSize is the default page size for new query states.
func (s *Service) PageSize() int {
	return s.pageSize
}

// NewState returns a default query state using the service page size.
func (s *Service) NewState() query.State {
	return query.NewState(s.pageSize)
}

// Catalog returns the category catalog used for validation.
func (s *Service) Catalog() *catalog.Catalog {
	return s.catalog
}

// Snapshot fetches the artworks of source once. A successful fetch refreshes
// the cache. When the fetch fails, a cached snapshot no older than MaxAge is
// returned with Cached set; otherwise the fetch error is returned.
func (s *Service) Snapshot(ctx context.Context, source string) (*services.Snapshot, error) {
	kind := sourceKind(source)
	artworks, fetchErr := s.fetch(ctx, source)
	now := s.now()

	if fetchErr == nil {
		s.metrics.Fetches.WithLabelValues(kind, "ok").Inc()
		snap := &services.Snapshot{Source: source, FetchedAt: now, Artworks: artworks}
		if s.snapshots != nil {
			if err := s.snapshots.Save(ctx, source, artworks, now); err != nil {
				s.logger.Warn("cache snapshot failed", zap.String("source", source), zap.Error(err))
			}
		}
		return snap, nil
	}

	s.metrics.Fetches.WithLabelValues(kind, "error").Inc()
	if s.snapshots == nil || ctx.Err() != nil {
		return nil, fetchErr
	}

	cached, err := s.snapshots.Load(ctx, source)
	if err != nil {
		if !errors.Is(err, services.ErrNotFound) {
			s.logger.Warn("load cached snapshot failed", zap.String("source", source), zap.Error(err))
		}
		return nil, fetchErr
	}
	if age := cached.Age(now); s.maxAge > 0 && age > s.maxAge {
		s.logger.Debug("cached snapshot too old",
			zap.String("source", source),
			zap.Duration("age", age),
		)
		return nil, fetchErr
	}

	s.metrics.Fetches.WithLabelValues(kind, "cached").Inc()
	s.logger.Warn("serving cached snapshot",
		zap.String("source", source),
		zap.Time("fetched_at", cached.FetchedAt),
		zap.Error(fetchErr),
	)
	cached.Cached = true
	return cached, nil
}

func (s *Service) fetch(ctx context.Context, source string) ([]models.Artwork, error) {
	switch {
	case source == SourceAll:
		return s.market.AllArtworks(ctx)
	case source == SourceLatest:
		return s.market.LatestArtworks(ctx)
	case strings.HasPrefix(source, "artist:"):
		return s.market.ArtistArtworks(ctx, strings.TrimPrefix(source, "artist:"))
	case strings.HasPrefix(source, "favorites:"):
		return s.market.Favorites(ctx, strings.TrimPrefix(source, "favorites:"))
	}
	return nil, fmt.Errorf("unknown snapshot source %q", source)
}

// sourceKind strips the user part of a source for use as a metric label.
func sourceKind(source string) string {
	kind, _, _ := strings.Cut(source, ":")
	return kind
}

// run evaluates state and records how many artworks matched.
func (s *Service) run(artworks []models.Artwork, state query.State) query.Result {
	return s.observe(query.Run(artworks, state))
}

func (s *Service) observe(res query.Result) query.Result {
	s.metrics.Matched.Observe(float64(res.TotalMatched))
	return res
}

// validateState rejects category filters outside the catalog.
func (s *Service) validateState(state query.State) error {
	if state.Category != "" && !s.catalog.ValidFilter(state.Category) {
		return fmt.Errorf("%w: %q", ErrUnknownCategory, state.Category)
	}
	return nil
}

// ExploreView is one page of the public explore listing.
type ExploreView struct {
	State     query.State   `json:"state"`
	Result    query.Result  `json:"result"`
	Tabs      []CategoryTab `json:"tabs"`
	FetchedAt time.Time     `json:"fetchedAt"`
	Cached    bool          `json:"cached,omitempty"`
}

// Explore fetches the public snapshot and evaluates state against it.
func (s *Service) Explore(ctx context.Context, state query.State) (*ExploreView, error) {
	if err := s.validateState(state); err != nil {
		return nil, err
	}
	snap, err := s.Snapshot(ctx, SourceAll)
	if err != nil {
		return nil, err
	}
	names, err := s.catalog.Names()
	if err != nil {
		return nil, err
	}

	public := Public(snap.Artworks)
	res := s.observe(Explore(public, state))
	state.Page = res.Page
	return &ExploreView{
		State:     state,
		Result:    res,
		Tabs:      CategoryTabs(public, names, state.Category),
		FetchedAt: snap.FetchedAt,
		Cached:    snap.Cached,
	}, nil
}

// Featured returns the featured artworks from the latest snapshot.
func (s *Service) Featured(ctx context.Context) ([]models.Artwork, error) {
	snap, err := s.Snapshot(ctx, SourceLatest)
	if err != nil {
		return nil, err
	}
	return Featured(Public(snap.Artworks)), nil
}

// ArtworkDetail is a single artwork with more works by its artist.
type ArtworkDetail struct {
	Artwork models.Artwork   `json:"artwork"`
	Related []models.Artwork `json:"related"`
}

// Artwork loads one artwork and its related works. Failing to load related
// works is logged and leaves Related empty.
func (s *Service) Artwork(ctx context.Context, id string) (*ArtworkDetail, error) {
	a, err := s.market.GetArtwork(ctx, id)
	if err != nil {
		return nil, err
	}
	d := &ArtworkDetail{Artwork: *a, Related: []models.Artwork{}}
	if a.ArtistEmail == "" {
		return d, nil
	}
	snap, err := s.Snapshot(ctx, ArtistSource(a.ArtistEmail))
	if err != nil {
		s.logger.Warn("related artworks unavailable", zap.String("id", id), zap.Error(err))
		return d, nil
	}
	d.Related = Related(Public(snap.Artworks), a)
	return d, nil
}

// Artist returns the public profile of the artist with email.
func (s *Service) Artist(ctx context.Context, email string) (*Artist, error) {
	snap, err := s.Snapshot(ctx, SourceAll)
	if err != nil {
		return nil, err
	}
	a, ok := ArtistProfile(Public(snap.Artworks), email)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrArtistNotFound, email)
	}
	return &a, nil
}

// Like records a like on id by viewer. Liking twice fails with ErrAlreadyLiked.
func (s *Service) Like(ctx context.Context, id string, viewer Viewer) error {
	if err := viewer.validate(); err != nil {
		return err
	}
	a, err := s.market.GetArtwork(ctx, id)
	if err != nil {
		return err
	}
	if a.LikedByUser(viewer.Email) {
		return fmt.Errorf("%w: %s", ErrAlreadyLiked, a.Title)
	}
	changed, err := s.market.LikeArtwork(ctx, id, viewer.Email)
	if err != nil {
		return err
	}
	if !changed {
		return fmt.Errorf("%w: %s", ErrAlreadyLiked, a.Title)
	}
	s.logger.Info("artwork liked", zap.String("id", id), zap.String("email", viewer.Email))
	return nil
}
