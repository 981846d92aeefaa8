package gallery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/HerbHall/galleria/internal/marketplace"
	"github.com/HerbHall/galleria/internal/query"
)

// FavoritesView lists a user's favorites with their statistics.
type FavoritesView struct {
	State     query.State   `json:"state"`
	Result    query.Result  `json:"result"`
	Stats     FavoriteStats `json:"stats"`
	FetchedAt time.Time     `json:"fetchedAt"`
	Cached    bool          `json:"cached,omitempty"`
}

// Favorites evaluates state over the viewer's favorites. Stats always cover
// every favorite, not just the matching ones.
func (s *Service) Favorites(ctx context.Context, viewer Viewer, state query.State) (*FavoritesView, error) {
	if err := viewer.validate(); err != nil {
		return nil, err
	}
	if err := s.validateState(state); err != nil {
		return nil, err
	}
	snap, err := s.Snapshot(ctx, FavoritesSource(viewer.Email))
	if err != nil {
		return nil, err
	}
	res := s.run(snap.Artworks, state)
	state.Page = res.Page
	return &FavoritesView{
		State:     state,
		Result:    res,
		Stats:     FavoritesStats(snap.Artworks),
		FetchedAt: snap.FetchedAt,
		Cached:    snap.Cached,
	}, nil
}

// AddFavorite stores id among the viewer's favorites.
func (s *Service) AddFavorite(ctx context.Context, viewer Viewer, id string) error {
	if err := viewer.validate(); err != nil {
		return err
	}
	if id == "" {
		return fmt.Errorf("%w: artwork id is required", ErrInvalidArtwork)
	}
	err := s.market.AddFavorite(ctx, viewer.Email, id, s.now())
	if errors.Is(err, marketplace.ErrAlreadyExists) {
		return fmt.Errorf("%w: %s", ErrAlreadyFavorited, id)
	}
	if err != nil {
		return err
	}
	s.logger.Info("favorite added", zap.String("id", id), zap.String("email", viewer.Email))
	return nil
}

// RemoveFavorite drops id from the viewer's favorites.
func (s *Service) RemoveFavorite(ctx context.Context, viewer Viewer, id string) error {
	if err := viewer.validate(); err != nil {
		return err
	}
	if err := s.market.RemoveFavorite(ctx, viewer.Email, id); err != nil {
		return err
	}
	s.logger.Info("favorite removed", zap.String("id", id), zap.String("email", viewer.Email))
	return nil
}
