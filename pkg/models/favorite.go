package models

// FavoriteRequest is the body sent to the marketplace when a user adds an
// artwork to their favorites. Listings come back as full Artwork records.
type FavoriteRequest struct {
	UserEmail string `json:"userEmail"`
	ArtworkID string `json:"artworkId"`
	AddedAt   string `json:"addedAt,omitempty"`
}

// User is the marketplace profile created after sign-up.
type User struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	PhotoURL  string `json:"photoURL,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
}

// CategoryCount is one row of the marketplace's per-category statistics.
type CategoryCount struct {
	Category string `json:"_id"`
	Count    int    `json:"count"`
}
