// Package settings provides HTTP handlers for the locally persisted
// preferences: the remembered page size and the last state of each listing.
package settings

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/HerbHall/galleria/internal/query"
	"github.com/HerbHall/galleria/internal/server"
	"github.com/HerbHall/galleria/internal/services"
)

// KeyPageSize holds the page size chosen with --limit or PUT page-size.
const KeyPageSize = "query.page_size"

// statePrefix prefixes the keys holding the last state of a listing.
const statePrefix = "state."

// StateKey is the setting holding the last state of view.
func StateKey(view string) string {
	return statePrefix + view
}

// PageSizeResponse is the remembered page size.
type PageSizeResponse struct {
	PageSize int  `json:"page_size"`
	Default  bool `json:"default"`
}

// PageSizeRequest sets the remembered page size.
type PageSizeRequest struct {
	PageSize int `json:"page_size"`
}

// Handler provides HTTP handlers for settings endpoints.
type Handler struct {
	settings    services.SettingsRepository
	defaultSize int
	logger      *zap.Logger
}

// NewHandler creates a settings Handler. defaultSize is reported when no
// page size was saved.
func NewHandler(settings services.SettingsRepository, defaultSize int, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{settings: settings, defaultSize: defaultSize, logger: logger}
}

// RegisterRoutes registers settings routes on the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/settings/page-size", h.handleGetPageSize)
	mux.HandleFunc("PUT /api/v1/settings/page-size", h.handleSetPageSize)
	mux.HandleFunc("GET /api/v1/settings/states", h.handleListStates)
	mux.HandleFunc("GET /api/v1/settings/states/{view}", h.handleGetState)
	mux.HandleFunc("DELETE /api/v1/settings/states/{view}", h.handleDeleteState)
}

// PageSize returns the saved page size, or def when none is saved or the
// saved value is unusable.
func PageSize(ctx context.Context, repo services.SettingsRepository, def int) (int, bool) {
	s, err := repo.Get(ctx, KeyPageSize)
	if err != nil {
		return def, false
	}
	n, err := strconv.Atoi(s.Value)
	if err != nil || n < 1 || n > query.MaxPageSize {
		return def, false
	}
	return n, true
}

func (h *Handler) handleGetPageSize(w http.ResponseWriter, r *http.Request) {
	n, saved := PageSize(r.Context(), h.settings, h.defaultSize)
	server.WriteJSON(w, http.StatusOK, PageSizeResponse{PageSize: n, Default: !saved})
}

// handleSetPageSize saves the page size used by later runs.
func (h *Handler) handleSetPageSize(w http.ResponseWriter, r *http.Request) {
	var req PageSizeRequest
	if !server.DecodeJSON(w, r, &req) {
		return
	}
	if req.PageSize < 1 || req.PageSize > query.MaxPageSize {
		server.BadRequest(w, "page_size must be between 1 and "+strconv.Itoa(query.MaxPageSize), r.URL.Path)
		return
	}
	if err := h.settings.Set(r.Context(), KeyPageSize, strconv.Itoa(req.PageSize)); err != nil {
		h.logger.Error("failed to save page size", zap.Error(err))
		server.InternalError(w, "failed to save page size", r.URL.Path)
		return
	}
	server.WriteJSON(w, http.StatusOK, PageSizeResponse{PageSize: req.PageSize})
}

// handleListStates returns the saved states keyed by view.
func (h *Handler) handleListStates(w http.ResponseWriter, r *http.Request) {
	all, err := h.settings.List(r.Context(), statePrefix)
	if err != nil {
		h.logger.Error("failed to list settings", zap.Error(err))
		server.InternalError(w, "failed to list saved states", r.URL.Path)
		return
	}
	views := make([]string, 0, len(all))
	for i := range all {
		views = append(views, strings.TrimPrefix(all[i].Key, statePrefix))
	}
	server.WriteJSON(w, http.StatusOK, map[string][]string{"views": views})
}

func (h *Handler) handleGetState(w http.ResponseWriter, r *http.Request) {
	var state query.State
	err := services.GetJSON(r.Context(), h.settings, StateKey(r.PathValue("view")), &state)
	if errors.Is(err, services.ErrNotFound) {
		server.NotFound(w, "no saved state for "+r.PathValue("view"), r.URL.Path)
		return
	}
	if err != nil {
		h.logger.Error("failed to read saved state", zap.String("view", r.PathValue("view")), zap.Error(err))
		server.InternalError(w, "failed to read saved state", r.URL.Path)
		return
	}
	server.WriteJSON(w, http.StatusOK, state)
}

func (h *Handler) handleDeleteState(w http.ResponseWriter, r *http.Request) {
	err := h.settings.Delete(r.Context(), StateKey(r.PathValue("view")))
	if errors.Is(err, services.ErrNotFound) {
		server.NotFound(w, "no saved state for "+r.PathValue("view"), r.URL.Path)
		return
	}
	if err != nil {
		h.logger.Error("failed to delete saved state", zap.Error(err))
		server.InternalError(w, "failed to delete saved state", r.URL.Path)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
