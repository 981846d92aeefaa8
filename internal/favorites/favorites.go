// Package favorites serves the signed-in user's favorite artworks.
package favorites

import (
	"context"
	"net/http"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/HerbHall/galleria/internal/gallery"
	"github.com/HerbHall/galleria/internal/plugin"
	"github.com/HerbHall/galleria/internal/query"
	"github.com/HerbHall/galleria/internal/server"
)

// Plugin implements the favorites view.
type Plugin struct {
	svc      *gallery.Service
	logger   *zap.Logger
	pageSize int
}

// New creates the favorites view over svc.
func New(svc *gallery.Service) *Plugin {
	return &Plugin{svc: svc, logger: zap.NewNop()}
}

func (p *Plugin) Name() string    { return "favorites" }
func (p *Plugin) Version() string { return "0.1.0" }

func (p *Plugin) Init(config *viper.Viper, logger *zap.Logger) error {
	p.logger = logger
	p.pageSize = p.svc.PageSize()
	if config.IsSet("page_size") {
		p.pageSize = min(max(config.GetInt("page_size"), 1), query.MaxPageSize)
	}
	p.logger.Info("favorites module initialized")
	return nil
}

func (p *Plugin) Start(context.Context) error { return nil }
func (p *Plugin) Stop() error                 { return nil }

func (p *Plugin) Routes() []plugin.Route {
	return []plugin.Route{
		{Method: "GET", Path: "/{$}", Handler: p.handleList},
		{Method: "POST", Path: "/{$}", Handler: p.handleAdd},
		{Method: "DELETE", Path: "/{artworkId}", Handler: p.handleRemove},
	}
}

// addRequest is the body of POST /favorites/.
type addRequest struct {
	ArtworkID string `json:"artworkId"`
}

func (p *Plugin) handleList(w http.ResponseWriter, r *http.Request) {
	state, err := query.ParseState(r.URL.Query(), p.pageSize)
	if err != nil {
		server.WriteError(w, r, err)
		return
	}
	view, err := p.svc.Favorites(r.Context(), gallery.ViewerFromContext(r.Context()), state)
	if err != nil {
		p.fail(w, r, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, view)
}

func (p *Plugin) handleAdd(w http.ResponseWriter, r *http.Request) {
	var req addRequest
	if !server.DecodeJSON(w, r, &req) {
		return
	}
	if err := p.svc.AddFavorite(r.Context(), gallery.ViewerFromContext(r.Context()), req.ArtworkID); err != nil {
		p.fail(w, r, err)
		return
	}
	server.WriteJSON(w, http.StatusCreated, req)
}

func (p *Plugin) handleRemove(w http.ResponseWriter, r *http.Request) {
	err := p.svc.RemoveFavorite(r.Context(), gallery.ViewerFromContext(r.Context()), r.PathValue("artworkId"))
	if err != nil {
		p.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (p *Plugin) fail(w http.ResponseWriter, r *http.Request, err error) {
	p.logger.Debug("request failed", zap.String("path", r.URL.Path), zap.Error(err))
	server.WriteError(w, r, err)
}
