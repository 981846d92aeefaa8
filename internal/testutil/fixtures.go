package testutil

import (
	"time"

	"github.com/google/uuid"

	"github.com/HerbHall/galleria/pkg/models"
)

// NewArtwork returns an Artwork with sensible defaults, suitable for test fixtures.
// Override individual fields with the With* options.
func NewArtwork(opts ...func(*models.Artwork)) models.Artwork {
	a := models.Artwork{
		ID:          uuid.New().String(),
		Title:       "Untitled",
		ArtistName:  "Test Artist",
		ArtistEmail: "artist@example.com",
		Category:    "Paintings",
		Medium:      "Oil on canvas",
		Visibility:  models.VisibilityPublic,
		CreatedAt:   time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC).Format(time.RFC3339),
	}
	for _, opt := range opts {
		opt(&a)
	}
	return a
}

// WithID sets the artwork ID.
func WithID(id string) func(*models.Artwork) {
	return func(a *models.Artwork) { a.ID = id }
}

// WithTitle sets the artwork title.
func WithTitle(title string) func(*models.Artwork) {
	return func(a *models.Artwork) { a.Title = title }
}

// WithArtist sets the artist name and email.
func WithArtist(name, email string) func(*models.Artwork) {
	return func(a *models.Artwork) {
		a.ArtistName = name
		a.ArtistEmail = email
	}
}

// WithCategory sets the artwork category.
func WithCategory(c string) func(*models.Artwork) {
	return func(a *models.Artwork) { a.Category = c }
}

// WithPrice sets the artwork price.
func WithPrice(p float64) func(*models.Artwork) {
	return func(a *models.Artwork) { a.Price = models.Price(p) }
}

// WithoutPrice clears the artwork price.
func WithoutPrice() func(*models.Artwork) {
	return func(a *models.Artwork) { a.Price = nil }
}

// WithLikes sets the like count.
func WithLikes(n int) func(*models.Artwork) {
	return func(a *models.Artwork) { a.Likes = n }
}

// WithLikedBy sets the users who liked the artwork.
func WithLikedBy(emails ...string) func(*models.Artwork) {
	return func(a *models.Artwork) {
		a.LikedBy = emails
		a.Likes = len(emails)
	}
}

// WithCreatedAt sets the creation timestamp.
func WithCreatedAt(t time.Time) func(*models.Artwork) {
	return func(a *models.Artwork) { a.CreatedAt = t.UTC().Format(time.RFC3339Nano) }
}

// WithRawCreatedAt sets CreatedAt verbatim, for malformed timestamps.
func WithRawCreatedAt(raw string) func(*models.Artwork) {
	return func(a *models.Artwork) { a.CreatedAt = raw }
}

// WithVisibility sets the artwork visibility.
func WithVisibility(v models.Visibility) func(*models.Artwork) {
	return func(a *models.Artwork) { a.Visibility = v }
}
