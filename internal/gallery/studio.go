package gallery

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/HerbHall/galleria/internal/marketplace"
	"github.com/HerbHall/galleria/internal/query"
	"github.com/HerbHall/galleria/pkg/models"
)

// ErrSignInRequired is returned when an operation needs a signed-in viewer.
var ErrSignInRequired = errors.New("sign in required")

// Viewer is the signed-in user acting on the gallery.
type Viewer struct {
	Email    string
	Name     string
	PhotoURL string
}

func (v Viewer) validate() error {
	if v.Email == "" {
		return ErrSignInRequired
	}
	return nil
}

// NewArtwork is the input for publishing an artwork. Artist fields come from
// the viewer.
type NewArtwork struct {
	Title       string            `json:"title"`
	Category    string            `json:"category"`
	Medium      string            `json:"medium"`
	Description string            `json:"description"`
	Dimensions  string            `json:"dimensions"`
	Image       string            `json:"image"`
	Price       *float64          `json:"price"`
	Visibility  models.Visibility `json:"visibility"`
}

// validateFields checks the shared artwork rules.
func (s *Service) validateFields(title, category, image string, price *float64, vis models.Visibility) error {
	var problems []string
	if strings.TrimSpace(title) == "" {
		problems = append(problems, "title is required")
	}
	if !s.catalog.Valid(category) {
		problems = append(problems, fmt.Sprintf("unknown category %q", category))
	}
	if image != "" {
		if u, err := url.Parse(image); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			problems = append(problems, "image must be an http(s) URL")
		}
	}
	if price != nil && (*price < 0 || math.IsNaN(*price) || math.IsInf(*price, 0)) {
		problems = append(problems, "price must be a non-negative number")
	}
	if vis != "" && vis != models.VisibilityPublic && vis != models.VisibilityPrivate {
		problems = append(problems, fmt.Sprintf("visibility must be %s or %s", models.VisibilityPublic, models.VisibilityPrivate))
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidArtwork, strings.Join(problems, "; "))
	}
	return nil
}

// Publish creates an artwork owned by viewer and returns its ID.
func (s *Service) Publish(ctx context.Context, viewer Viewer, in NewArtwork) (string, error) {
	if err := viewer.validate(); err != nil {
		return "", err
	}
	if err := s.validateFields(in.Title, in.Category, in.Image, in.Price, in.Visibility); err != nil {
		return "", err
	}
	vis := in.Visibility
	if vis == "" {
		vis = models.VisibilityPublic
	}

	a := &models.Artwork{
		Title:       strings.TrimSpace(in.Title),
		ArtistName:  viewer.Name,
		ArtistEmail: viewer.Email,
		ArtistPhoto: viewer.PhotoURL,
		Category:    in.Category,
		Medium:      in.Medium,
		Description: in.Description,
		Dimensions:  in.Dimensions,
		Image:       in.Image,
		Price:       in.Price,
		Visibility:  vis,
		CreatedAt:   s.now().UTC().Format(time.RFC3339),
	}
	id, err := s.market.CreateArtwork(ctx, a)
	if err != nil {
		return "", err
	}
	s.logger.Info("artwork published", zap.String("id", id), zap.String("artist", viewer.Email))
	return id, nil
}

// owned loads id and checks that viewer is its artist.
func (s *Service) owned(ctx context.Context, viewer Viewer, id string) (*models.Artwork, error) {
	if err := viewer.validate(); err != nil {
		return nil, err
	}
	a, err := s.market.GetArtwork(ctx, id)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(a.ArtistEmail, viewer.Email) {
		return nil, fmt.Errorf("%w: %s", ErrNotOwner, a.Title)
	}
	return a, nil
}

// Edit applies u to an artwork owned by viewer.
func (s *Service) Edit(ctx context.Context, viewer Viewer, id string, u marketplace.ArtworkUpdate) error {
	if u.Empty() {
		return fmt.Errorf("%w: nothing to update", ErrInvalidArtwork)
	}
	a, err := s.owned(ctx, viewer, id)
	if err != nil {
		return err
	}

	// Validate the artwork as it would look after the update.
	title, category, image, vis := a.Title, a.Category, a.Image, a.Visibility
	if u.Title != nil {
		title = *u.Title
	}
	if u.Category != nil {
		category = *u.Category
	}
	if u.Image != nil {
		image = *u.Image
	}
	if u.Visibility != nil {
		vis = *u.Visibility
	}
	if err := s.validateFields(title, category, image, u.Price, vis); err != nil {
		return err
	}

	if err := s.market.UpdateArtwork(ctx, id, u); err != nil {
		return err
	}
	s.logger.Info("artwork updated", zap.String("id", id))
	return nil
}

// Remove deletes an artwork owned by viewer.
func (s *Service) Remove(ctx context.Context, viewer Viewer, id string) error {
	if _, err := s.owned(ctx, viewer, id); err != nil {
		return err
	}
	if err := s.market.DeleteArtwork(ctx, id); err != nil {
		return err
	}
	s.logger.Info("artwork deleted", zap.String("id", id))
	return nil
}

// StudioView is the artist's own gallery, private works included.
type StudioView struct {
	State     query.State  `json:"state"`
	Result    query.Result `json:"result"`
	Stats     Stats        `json:"stats"`
	FetchedAt time.Time    `json:"fetchedAt"`
	Cached    bool         `json:"cached,omitempty"`
}

// MyGallery evaluates state over the viewer's artworks.
func (s *Service) MyGallery(ctx context.Context, viewer Viewer, state query.State) (*StudioView, error) {
	if err := viewer.validate(); err != nil {
		return nil, err
	}
	if err := s.validateState(state); err != nil {
		return nil, err
	}
	snap, err := s.Snapshot(ctx, ArtistSource(viewer.Email))
	if err != nil {
		return nil, err
	}
	res := s.run(snap.Artworks, state)
	state.Page = res.Page
	return &StudioView{
		State:     state,
		Result:    res,
		Stats:     GalleryStats(snap.Artworks),
		FetchedAt: snap.FetchedAt,
		Cached:    snap.Cached,
	}, nil
}

// Dashboard builds the viewer's dashboard. The favorites count is omitted
// (zero) when favorites cannot be loaded.
func (s *Service) Dashboard(ctx context.Context, viewer Viewer) (*DashboardView, error) {
	if err := viewer.validate(); err != nil {
		return nil, err
	}
	mine, err := s.Snapshot(ctx, ArtistSource(viewer.Email))
	if err != nil {
		return nil, err
	}
	var favorites []models.Artwork
	if favs, err := s.Snapshot(ctx, FavoritesSource(viewer.Email)); err != nil {
		s.logger.Warn("favorites unavailable for dashboard", zap.Error(err))
	} else {
		favorites = favs.Artworks
	}
	d := Dashboard(mine.Artworks, favorites, s.now())
	return &d, nil
}
