package models

import (
	"slices"
	"time"
)

// Visibility controls whether an artwork is listed publicly.
type Visibility string

const (
	VisibilityPublic  Visibility = "Public"
	VisibilityPrivate Visibility = "Private"
)

// Artwork is a marketplace listing owned by an artist. Records are created and
// mutated by the marketplace API; Galleria treats them as read-only snapshots.
type Artwork struct {
	ID          string     `json:"_id"`
	Title       string     `json:"title"`
	ArtistName  string     `json:"artistName"`
	ArtistEmail string     `json:"artistEmail,omitempty"`
	ArtistPhoto string     `json:"artistPhoto,omitempty"`
	Category    string     `json:"category"`
	Medium      string     `json:"medium,omitempty"`
	Description string     `json:"description,omitempty"`
	Dimensions  string     `json:"dimensions,omitempty"`
	Image       string     `json:"image,omitempty"`
	Price       *float64   `json:"price"` // nil when the artwork is not for sale
	Likes       int        `json:"likes"`
	LikedBy     []string   `json:"likedBy,omitempty"`
	Visibility  Visibility `json:"visibility,omitempty"`
	CreatedAt   string     `json:"createdAt,omitempty"` // ISO 8601, kept verbatim
}

// createdAtLayouts are tried in order when parsing CreatedAt.
var createdAtLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// EffectivePrice returns the price, or 0 when none is set.
func (a *Artwork) EffectivePrice() float64 {
	if a.Price == nil {
		return 0
	}
	return *a.Price
}

// ForSale reports whether the artwork carries a price.
func (a *Artwork) ForSale() bool {
	return a.Price != nil
}

// LikeCount returns Likes, treating negative values as 0.
func (a *Artwork) LikeCount() int {
	return max(a.Likes, 0)
}

// CreatedTime parses CreatedAt. ok is false when the timestamp is missing or
// malformed; callers order such records as the oldest possible instant.
func (a *Artwork) CreatedTime() (t time.Time, ok bool) {
	if a.CreatedAt == "" {
		return time.Time{}, false
	}
	for _, layout := range createdAtLayouts {
		if parsed, err := time.Parse(layout, a.CreatedAt); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

// LikedByUser reports whether email appears in LikedBy.
func (a *Artwork) LikedByUser(email string) bool {
	if email == "" {
		return false
	}
	return slices.Contains(a.LikedBy, email)
}

// IsPublic reports whether the artwork is publicly visible. Records without
// a visibility are public.
func (a *Artwork) IsPublic() bool {
	return a.Visibility != VisibilityPrivate
}

// Price returns a pointer to p, for building Artwork literals.
func Price(p float64) *float64 {
	return &p
}
