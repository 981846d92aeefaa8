package marketplace

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/HerbHall/galleria/pkg/models"
)

// Page is one server-side page from GET /artworks.
type Page struct {
	Artworks   []models.Artwork `json:"artworks"`
	Total      int              `json:"total"`
	Page       int              `json:"page"`
	TotalPages int              `json:"totalPages"`
}

// ArtworkUpdate is a partial update; nil fields are left unchanged.
type ArtworkUpdate struct {
	Title       *string            `json:"title,omitempty"`
	Category    *string            `json:"category,omitempty"`
	Medium      *string            `json:"medium,omitempty"`
	Description *string            `json:"description,omitempty"`
	Dimensions  *string            `json:"dimensions,omitempty"`
	Image       *string            `json:"image,omitempty"`
	Price       *float64           `json:"price,omitempty"`
	Visibility  *models.Visibility `json:"visibility,omitempty"`
}

// Empty reports whether the update changes nothing.
func (u ArtworkUpdate) Empty() bool {
	return u == ArtworkUpdate{}
}

type insertResult struct {
	InsertedID string `json:"insertedId"`
}

type updateResult struct {
	MatchedCount  int `json:"matchedCount"`
	ModifiedCount int `json:"modifiedCount"`
}

type deleteResult struct {
	DeletedCount int `json:"deletedCount"`
}

// AllArtworks returns every artwork in API order.
func (c *Client) AllArtworks(ctx context.Context) ([]models.Artwork, error) {
	return c.artworkList(ctx, "/all-artworks", "/all-artworks")
}

// ListArtworks returns one server-side page of artworks.
func (c *Client) ListArtworks(ctx context.Context, page, limit int) (*Page, error) {
	q := url.Values{}
	q.Set("page", fmt.Sprint(max(page, 1)))
	q.Set("limit", fmt.Sprint(max(limit, 1)))

	var p Page
	err := c.do(ctx, call{method: http.MethodGet, endpoint: "/artworks", path: "/artworks?" + q.Encode()}, &p)
	if err != nil {
		return nil, err
	}
	if p.Artworks == nil {
		p.Artworks = []models.Artwork{}
	}
	return &p, nil
}

// LatestArtworks returns the most recently created artworks.
func (c *Client) LatestArtworks(ctx context.Context) ([]models.Artwork, error) {
	return c.artworkList(ctx, "/latest-artworks", "/latest-artworks")
}

// GetArtwork returns a single artwork. A null body is reported as ErrNotFound.
func (c *Client) GetArtwork(ctx context.Context, id string) (*models.Artwork, error) {
	var raw json.RawMessage
	err := c.do(ctx, call{method: http.MethodGet, endpoint: "/artwork/{id}", path: "/artwork/" + url.PathEscape(id)}, &raw)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, fmt.Errorf("%w: artwork %q", ErrNotFound, id)
	}
	var a models.Artwork
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, fmt.Errorf("decode artwork %q: %w", id, err)
	}
	return &a, nil
}

// ArtistArtworks returns every artwork owned by email, private ones included.
func (c *Client) ArtistArtworks(ctx context.Context, email string) ([]models.Artwork, error) {
	return c.artworkList(ctx, "/my-artworks/{email}", "/my-artworks/"+url.PathEscape(email))
}

// SearchArtworks runs the API's own title/artist search.
func (c *Client) SearchArtworks(ctx context.Context, term string) ([]models.Artwork, error) {
	return c.artworkList(ctx, "/artworks/search/{term}", "/artworks/search/"+url.PathEscape(term))
}

// ArtworksByCategory returns the artworks in category.
func (c *Client) ArtworksByCategory(ctx context.Context, category string) ([]models.Artwork, error) {
	return c.artworkList(ctx, "/artworks/category/{category}", "/artworks/category/"+url.PathEscape(category))
}

// CreateArtwork publishes a and returns the ID assigned by the API.
func (c *Client) CreateArtwork(ctx context.Context, a *models.Artwork) (string, error) {
	var res insertResult
	err := c.do(ctx, call{method: http.MethodPost, endpoint: "/artworks", path: "/artworks", body: a, auth: true}, &res)
	if err != nil {
		return "", err
	}
	return res.InsertedID, nil
}

// UpdateArtwork applies u to the artwork with id. It requires the owner's token.
func (c *Client) UpdateArtwork(ctx context.Context, id string, u ArtworkUpdate) error {
	var res updateResult
	err := c.do(ctx, call{
		method:   http.MethodPatch,
		endpoint: "/artwork/{id}",
		path:     "/artwork/" + url.PathEscape(id),
		body:     u,
		auth:     true,
	}, &res)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%w: artwork %q", ErrNotFound, id)
	}
	return nil
}

// DeleteArtwork removes the artwork with id. It requires the owner's token.
func (c *Client) DeleteArtwork(ctx context.Context, id string) error {
	var res deleteResult
	err := c.do(ctx, call{
		method:   http.MethodDelete,
		endpoint: "/artwork/{id}",
		path:     "/artwork/" + url.PathEscape(id),
		auth:     true,
	}, &res)
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("%w: artwork %q", ErrNotFound, id)
	}
	return nil
}

// LikeArtwork records a like by email. It reports false when the API made no
// change, which happens when email has already liked the artwork.
func (c *Client) LikeArtwork(ctx context.Context, id, email string) (bool, error) {
	body := struct {
		UserEmail string `json:"userEmail"`
		Action    string `json:"action"`
	}{UserEmail: email, Action: "like"}

	var res updateResult
	err := c.do(ctx, call{
		method:   http.MethodPatch,
		endpoint: "/artwork/{id}/like",
		path:     "/artwork/" + url.PathEscape(id) + "/like",
		body:     body,
	}, &res)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

func (c *Client) artworkList(ctx context.Context, endpoint, path string) ([]models.Artwork, error) {
	var out []models.Artwork
	if err := c.do(ctx, call{method: http.MethodGet, endpoint: endpoint, path: path}, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []models.Artwork{}
	}
	return out, nil
}
