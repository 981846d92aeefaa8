package marketplace

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/HerbHall/galleria/pkg/models"
)

// alreadyFavorited is the message the API answers with, using 200 OK, when
// the favorite exists.
const alreadyFavorited = "already in favorites"

// AddFavorite adds artworkID to the favorites of email. It returns
// ErrAlreadyExists when the pair is already stored.
func (c *Client) AddFavorite(ctx context.Context, email, artworkID string, addedAt time.Time) error {
	req := models.FavoriteRequest{
		UserEmail: email,
		ArtworkID: artworkID,
		AddedAt:   addedAt.UTC().Format(time.RFC3339),
	}
	var res struct {
		Message    string `json:"message"`
		InsertedID string `json:"insertedId"`
	}
	err := c.do(ctx, call{method: http.MethodPost, endpoint: "/favorites", path: "/favorites", body: req}, &res)
	if err != nil {
		return err
	}
	if strings.EqualFold(strings.TrimSpace(res.Message), alreadyFavorited) {
		return fmt.Errorf("%w: artwork %q is in the favorites of %s", ErrAlreadyExists, artworkID, email)
	}
	return nil
}

// Favorites returns the favorited artworks of email.
func (c *Client) Favorites(ctx context.Context, email string) ([]models.Artwork, error) {
	return c.artworkList(ctx, "/favorites/{email}", "/favorites/"+url.PathEscape(email))
}

// RemoveFavorite removes artworkID from the favorites of email.
func (c *Client) RemoveFavorite(ctx context.Context, email, artworkID string) error {
	var res deleteResult
	err := c.do(ctx, call{
		method:   http.MethodDelete,
		endpoint: "/favorites",
		path:     "/favorites",
		body:     models.FavoriteRequest{UserEmail: email, ArtworkID: artworkID},
	}, &res)
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("%w: artwork %q is not in the favorites of %s", ErrNotFound, artworkID, email)
	}
	return nil
}

// CreateOrGetUser stores the profile of a newly registered user. The API
// returns the existing profile when the email is already known.
func (c *Client) CreateOrGetUser(ctx context.Context, u models.User) (*models.User, error) {
	var out models.User
	if err := c.do(ctx, call{method: http.MethodPost, endpoint: "/users", path: "/users", body: u}, &out); err != nil {
		return nil, err
	}
	if out.Email == "" {
		out = u
	}
	return &out, nil
}

// TotalArtworks returns the API's artwork count.
func (c *Client) TotalArtworks(ctx context.Context) (int, error) {
	var res struct {
		Total int `json:"total"`
	}
	if err := c.do(ctx, call{method: http.MethodGet, endpoint: "/stats/total-artworks", path: "/stats/total-artworks"}, &res); err != nil {
		return 0, err
	}
	return res.Total, nil
}

// CategoryStats returns per-category artwork counts.
func (c *Client) CategoryStats(ctx context.Context) ([]models.CategoryCount, error) {
	var out []models.CategoryCount
	if err := c.do(ctx, call{method: http.MethodGet, endpoint: "/stats/by-category", path: "/stats/by-category"}, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []models.CategoryCount{}
	}
	return out, nil
}
