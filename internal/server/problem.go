package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/HerbHall/galleria/internal/auth"
	"github.com/HerbHall/galleria/internal/gallery"
	"github.com/HerbHall/galleria/internal/marketplace"
	"github.com/HerbHall/galleria/internal/query"
)

// Problem types for RFC 7807 Problem Details responses.
const (
	ProblemTypeNotFound     = "https://galleria.dev/problems/not-found"
	ProblemTypeBadRequest   = "https://galleria.dev/problems/bad-request"
	ProblemTypeInternal     = "https://galleria.dev/problems/internal-error"
	ProblemTypeUnauthorized = "https://galleria.dev/problems/unauthorized"
	ProblemTypeForbidden    = "https://galleria.dev/problems/forbidden"
	ProblemTypeRateLimited  = "https://galleria.dev/problems/rate-limited"
	ProblemTypeConflict     = "https://galleria.dev/problems/conflict"
	ProblemTypeUnavailable  = "https://galleria.dev/problems/upstream-unavailable"
)

// Problem represents an RFC 7807 Problem Details response.
type Problem struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
}

// WriteProblem writes an RFC 7807 Problem Details JSON response.
func WriteProblem(w http.ResponseWriter, p Problem) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(p)
}

func problem(typ, title string, status int) func(w http.ResponseWriter, detail, instance string) {
	return func(w http.ResponseWriter, detail, instance string) {
		WriteProblem(w, Problem{Type: typ, Title: title, Status: status, Detail: detail, Instance: instance})
	}
}

// Helpers for the common problem responses.
var (
	NotFound           = problem(ProblemTypeNotFound, "Not Found", http.StatusNotFound)
	BadRequest         = problem(ProblemTypeBadRequest, "Bad Request", http.StatusBadRequest)
	InternalError      = problem(ProblemTypeInternal, "Internal Server Error", http.StatusInternalServerError)
	Unauthorized       = problem(ProblemTypeUnauthorized, "Unauthorized", http.StatusUnauthorized)
	Forbidden          = problem(ProblemTypeForbidden, "Forbidden", http.StatusForbidden)
	RateLimited        = problem(ProblemTypeRateLimited, "Too Many Requests", http.StatusTooManyRequests)
	Conflict           = problem(ProblemTypeConflict, "Conflict", http.StatusConflict)
	ServiceUnavailable = problem(ProblemTypeUnavailable, "Service Unavailable", http.StatusServiceUnavailable)
)

// WriteError maps err onto the matching problem response. Errors not known
// to the gallery stack become a 500 with a generic detail.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	instance := r.URL.Path
	detail := err.Error()
	switch {
	case errors.Is(err, query.ErrInvalidQuery),
		errors.Is(err, gallery.ErrUnknownCategory),
		errors.Is(err, gallery.ErrInvalidArtwork),
		errors.Is(err, marketplace.ErrInvalid),
		errors.Is(err, auth.ErrInvalidEmail),
		errors.Is(err, auth.ErrWeakPassword),
		errors.Is(err, auth.ErrNameRequired):
		BadRequest(w, detail, instance)
	case errors.Is(err, gallery.ErrSignInRequired),
		errors.Is(err, auth.ErrNotSignedIn),
		errors.Is(err, auth.ErrSessionExpired),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, marketplace.ErrUnauthorized):
		Unauthorized(w, detail, instance)
	case errors.Is(err, gallery.ErrNotOwner):
		Forbidden(w, detail, instance)
	case errors.Is(err, gallery.ErrArtistNotFound),
		errors.Is(err, marketplace.ErrNotFound):
		NotFound(w, detail, instance)
	case errors.Is(err, gallery.ErrAlreadyLiked),
		errors.Is(err, gallery.ErrAlreadyFavorited),
		errors.Is(err, auth.ErrEmailExists),
		errors.Is(err, marketplace.ErrAlreadyExists):
		Conflict(w, detail, instance)
	case errors.Is(err, marketplace.ErrUnavailable):
		ServiceUnavailable(w, detail, instance)
	default:
		InternalError(w, "internal error", instance)
	}
}
