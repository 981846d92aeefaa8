package testutil

import (
	"cmp"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"slices"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/HerbHall/galleria/pkg/models"
)

// RecordedRequest is one call observed by FakeMarketplace.
type RecordedRequest struct {
	Method        string
	Path          string
	Authorization string
	RequestID     string
}

// FakeMarketplace is an in-memory stand-in for the marketplace REST API,
// served over httptest. Artworks keep insertion order, matching the API.
type FakeMarketplace struct {
	Server *httptest.Server

	mu          sync.Mutex
	artworks    []models.Artwork
	favorites   map[string][]string // email -> artwork IDs
	users       map[string]models.User
	requests    []RecordedRequest
	failStatus  int
	requireAuth bool
}

// NewFakeMarketplace starts a fake API seeded with artworks. The server is
// closed when the test completes.
func NewFakeMarketplace(t *testing.T, artworks ...models.Artwork) *FakeMarketplace {
	t.Helper()
	f := &FakeMarketplace{
		artworks:  slices.Clone(artworks),
		favorites: make(map[string][]string),
		users:     make(map[string]models.User),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /all-artworks", f.handleAll)
	mux.HandleFunc("GET /artworks", f.handlePage)
	mux.HandleFunc("POST /artworks", f.handleCreate)
	mux.HandleFunc("GET /latest-artworks", f.handleLatest)
	mux.HandleFunc("GET /artwork/{id}", f.handleGet)
	mux.HandleFunc("PATCH /artwork/{id}", f.handleUpdate)
	mux.HandleFunc("DELETE /artwork/{id}", f.handleDelete)
	mux.HandleFunc("PATCH /artwork/{id}/like", f.handleLike)
	mux.HandleFunc("GET /my-artworks/{email}", f.handleByArtist)
	mux.HandleFunc("GET /artworks/search/{term}", f.handleSearch)
	mux.HandleFunc("GET /artworks/category/{category}", f.handleCategory)
	mux.HandleFunc("POST /favorites", f.handleAddFavorite)
	mux.HandleFunc("GET /favorites/{email}", f.handleFavorites)
	mux.HandleFunc("DELETE /favorites", f.handleRemoveFavorite)
	mux.HandleFunc("POST /users", f.handleUser)
	mux.HandleFunc("GET /stats/total-artworks", f.handleTotal)
	mux.HandleFunc("GET /stats/by-category", f.handleByCategory)

	f.Server = httptest.NewServer(f.middleware(mux))
	t.Cleanup(f.Server.Close)
	return f
}

// URL returns the base URL of the fake API.
func (f *FakeMarketplace) URL() string {
	return f.Server.URL
}

// FailWith makes every subsequent request fail with status; 0 restores normal behavior.
func (f *FakeMarketplace) FailWith(status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failStatus = status
}

// RequireAuth makes owner mutations reject requests without a bearer token.
func (f *FakeMarketplace) RequireAuth() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requireAuth = true
}

// Requests returns a copy of all recorded requests.
func (f *FakeMarketplace) Requests() []RecordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.requests)
}

// Artworks returns a copy of the current artwork list.
func (f *FakeMarketplace) Artworks() []models.Artwork {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.artworks)
}

// Artwork returns the stored artwork with id.
func (f *FakeMarketplace) Artwork(id string) (models.Artwork, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.indexOf(id)
	if i < 0 {
		return models.Artwork{}, false
	}
	return f.artworks[i], true
}

// User returns the stored user profile for email.
func (f *FakeMarketplace) User(email string) (models.User, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[email]
	return u, ok
}

func (f *FakeMarketplace) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.requests = append(f.requests, RecordedRequest{
			Method:        r.Method,
			Path:          r.URL.Path,
			Authorization: r.Header.Get("Authorization"),
			RequestID:     r.Header.Get("X-Request-ID"),
		})
		status := f.failStatus
		needAuth := f.requireAuth && (r.Method == http.MethodPatch || r.Method == http.MethodDelete) &&
			strings.HasPrefix(r.URL.Path, "/artwork/") && !strings.HasSuffix(r.URL.Path, "/like")
		f.mu.Unlock()

		if status != 0 {
			writeFakeJSON(w, status, map[string]string{"message": http.StatusText(status)})
			return
		}
		if needAuth && !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
			writeFakeJSON(w, http.StatusUnauthorized, map[string]string{"message": "unauthorized access"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (f *FakeMarketplace) indexOf(id string) int {
	return slices.IndexFunc(f.artworks, func(a models.Artwork) bool { return a.ID == id })
}

func (f *FakeMarketplace) filter(keep func(*models.Artwork) bool) []models.Artwork {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Artwork{}
	for i := range f.artworks {
		if keep(&f.artworks[i]) {
			out = append(out, f.artworks[i])
		}
	}
	return out
}

func (f *FakeMarketplace) handleAll(w http.ResponseWriter, _ *http.Request) {
	writeFakeJSON(w, http.StatusOK, f.filter(func(*models.Artwork) bool { return true }))
}

func (f *FakeMarketplace) handlePage(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	page = max(page, 1)
	if limit < 1 {
		limit = 12
	}
	all := f.filter(func(*models.Artwork) bool { return true })
	start := min((page-1)*limit, len(all))
	end := min(start+limit, len(all))
	writeFakeJSON(w, http.StatusOK, map[string]any{
		"artworks":   all[start:end],
		"total":      len(all),
		"page":       page,
		"totalPages": (len(all) + limit - 1) / limit,
	})
}

func (f *FakeMarketplace) handleLatest(w http.ResponseWriter, _ *http.Request) {
	all := f.filter(func(*models.Artwork) bool { return true })
	slices.SortStableFunc(all, func(a, b models.Artwork) int { return cmp.Compare(b.CreatedAt, a.CreatedAt) })
	writeFakeJSON(w, http.StatusOK, all[:min(6, len(all))])
}

func (f *FakeMarketplace) handleGet(w http.ResponseWriter, r *http.Request) {
	a, ok := f.Artwork(r.PathValue("id"))
	if !ok {
		writeFakeJSON(w, http.StatusNotFound, map[string]string{"message": "artwork not found"})
		return
	}
	writeFakeJSON(w, http.StatusOK, a)
}

func (f *FakeMarketplace) handleCreate(w http.ResponseWriter, r *http.Request) {
	var a models.Artwork
	if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
		writeFakeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid body"})
		return
	}
	a.ID = uuid.New().String()
	f.mu.Lock()
	f.artworks = append(f.artworks, a)
	f.mu.Unlock()
	writeFakeJSON(w, http.StatusOK, map[string]any{"acknowledged": true, "insertedId": a.ID})
}

func (f *FakeMarketplace) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var patch map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeFakeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid body"})
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.indexOf(r.PathValue("id"))
	if i < 0 {
		writeFakeJSON(w, http.StatusOK, map[string]any{"matchedCount": 0, "modifiedCount": 0})
		return
	}
	// Merge the patch over the stored record.
	current, _ := json.Marshal(f.artworks[i])
	var merged map[string]json.RawMessage
	_ = json.Unmarshal(current, &merged)
	for k, v := range patch {
		merged[k] = v
	}
	raw, _ := json.Marshal(merged)
	var updated models.Artwork
	_ = json.Unmarshal(raw, &updated)
	f.artworks[i] = updated
	writeFakeJSON(w, http.StatusOK, map[string]any{"matchedCount": 1, "modifiedCount": 1})
}

func (f *FakeMarketplace) handleDelete(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.indexOf(r.PathValue("id"))
	if i < 0 {
		writeFakeJSON(w, http.StatusOK, map[string]any{"deletedCount": 0})
		return
	}
	f.artworks = slices.Delete(f.artworks, i, i+1)
	writeFakeJSON(w, http.StatusOK, map[string]any{"deletedCount": 1})
}

func (f *FakeMarketplace) handleLike(w http.ResponseWriter, r *http.Request) {
	var body struct {
		UserEmail string `json:"userEmail"`
		Action    string `json:"action"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.indexOf(r.PathValue("id"))
	if i < 0 {
		writeFakeJSON(w, http.StatusNotFound, map[string]string{"message": "artwork not found"})
		return
	}
	a := &f.artworks[i]
	if body.UserEmail != "" && slices.Contains(a.LikedBy, body.UserEmail) {
		writeFakeJSON(w, http.StatusOK, map[string]any{"matchedCount": 1, "modifiedCount": 0})
		return
	}
	a.Likes++
	if body.UserEmail != "" {
		a.LikedBy = append(a.LikedBy, body.UserEmail)
	}
	writeFakeJSON(w, http.StatusOK, map[string]any{"matchedCount": 1, "modifiedCount": 1})
}

func (f *FakeMarketplace) handleByArtist(w http.ResponseWriter, r *http.Request) {
	email := r.PathValue("email")
	writeFakeJSON(w, http.StatusOK, f.filter(func(a *models.Artwork) bool { return a.ArtistEmail == email }))
}

func (f *FakeMarketplace) handleSearch(w http.ResponseWriter, r *http.Request) {
	term := strings.ToLower(r.PathValue("term"))
	writeFakeJSON(w, http.StatusOK, f.filter(func(a *models.Artwork) bool {
		return strings.Contains(strings.ToLower(a.Title), term) ||
			strings.Contains(strings.ToLower(a.ArtistName), term)
	}))
}

func (f *FakeMarketplace) handleCategory(w http.ResponseWriter, r *http.Request) {
	c := r.PathValue("category")
	writeFakeJSON(w, http.StatusOK, f.filter(func(a *models.Artwork) bool { return a.Category == c }))
}

func (f *FakeMarketplace) handleAddFavorite(w http.ResponseWriter, r *http.Request) {
	var req models.FavoriteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFakeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid body"})
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if slices.Contains(f.favorites[req.UserEmail], req.ArtworkID) {
		writeFakeJSON(w, http.StatusOK, map[string]string{"message": "Already in favorites"})
		return
	}
	f.favorites[req.UserEmail] = append(f.favorites[req.UserEmail], req.ArtworkID)
	writeFakeJSON(w, http.StatusOK, map[string]any{"acknowledged": true, "insertedId": uuid.New().String()})
}

func (f *FakeMarketplace) handleFavorites(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	ids := slices.Clone(f.favorites[r.PathValue("email")])
	f.mu.Unlock()
	out := []models.Artwork{}
	for _, id := range ids {
		if a, ok := f.Artwork(id); ok {
			out = append(out, a)
		}
	}
	writeFakeJSON(w, http.StatusOK, out)
}

func (f *FakeMarketplace) handleRemoveFavorite(w http.ResponseWriter, r *http.Request) {
	var req models.FavoriteRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := f.favorites[req.UserEmail]
	i := slices.Index(ids, req.ArtworkID)
	if i < 0 {
		writeFakeJSON(w, http.StatusOK, map[string]any{"deletedCount": 0})
		return
	}
	f.favorites[req.UserEmail] = slices.Delete(ids, i, i+1)
	writeFakeJSON(w, http.StatusOK, map[string]any{"deletedCount": 1})
}

func (f *FakeMarketplace) handleUser(w http.ResponseWriter, r *http.Request) {
	var u models.User
	if err := json.NewDecoder(r.Body).Decode(&u); err != nil {
		writeFakeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid body"})
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if existing, ok := f.users[u.Email]; ok {
		writeFakeJSON(w, http.StatusOK, existing)
		return
	}
	u.CreatedAt = "2025-01-01T00:00:00Z"
	f.users[u.Email] = u
	writeFakeJSON(w, http.StatusOK, u)
}

func (f *FakeMarketplace) handleTotal(w http.ResponseWriter, _ *http.Request) {
	f.mu.Lock()
	n := len(f.artworks)
	f.mu.Unlock()
	writeFakeJSON(w, http.StatusOK, map[string]int{"total": n})
}

func (f *FakeMarketplace) handleByCategory(w http.ResponseWriter, _ *http.Request) {
	counts := map[string]int{}
	var order []string
	for _, a := range f.filter(func(*models.Artwork) bool { return true }) {
		if _, seen := counts[a.Category]; !seen {
			order = append(order, a.Category)
		}
		counts[a.Category]++
	}
	out := make([]models.CategoryCount, 0, len(order))
	for _, c := range order {
		out = append(out, models.CategoryCount{Category: c, Count: counts[c]})
	}
	writeFakeJSON(w, http.StatusOK, out)
}

func writeFakeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
