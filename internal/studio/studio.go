// Package studio serves the signed-in artist's workspace: their own
// gallery with private works, statistics, the dashboard and artwork
// publishing.
package studio

import (
	"context"
	"net/http"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/HerbHall/galleria/internal/gallery"
	"github.com/HerbHall/galleria/internal/marketplace"
	"github.com/HerbHall/galleria/internal/plugin"
	"github.com/HerbHall/galleria/internal/query"
	"github.com/HerbHall/galleria/internal/server"
)

// Plugin implements the studio view.
type Plugin struct {
	svc      *gallery.Service
	logger   *zap.Logger
	pageSize int
}

// New creates the studio view over svc.
func New(svc *gallery.Service) *Plugin {
	return &Plugin{svc: svc, logger: zap.NewNop()}
}

func (p *Plugin) Name() string    { return "studio" }
func (p *Plugin) Version() string { return "0.1.0" }

func (p *Plugin) Init(config *viper.Viper, logger *zap.Logger) error {
	p.logger = logger
	p.pageSize = p.svc.PageSize()
	if config.IsSet("page_size") {
		p.pageSize = min(max(config.GetInt("page_size"), 1), query.MaxPageSize)
	}
	p.logger.Info("studio module initialized", zap.Int("page_size", p.pageSize))
	return nil
}

func (p *Plugin) Start(context.Context) error { return nil }
func (p *Plugin) Stop() error                 { return nil }

func (p *Plugin) Routes() []plugin.Route {
	return []plugin.Route{
		{Method: "GET", Path: "/artworks", Handler: p.handleList},
		{Method: "POST", Path: "/artworks", Handler: p.handlePublish},
		{Method: "PATCH", Path: "/artworks/{id}", Handler: p.handleEdit},
		{Method: "DELETE", Path: "/artworks/{id}", Handler: p.handleRemove},
		{Method: "GET", Path: "/stats", Handler: p.handleStats},
		{Method: "GET", Path: "/dashboard", Handler: p.handleDashboard},
	}
}

// handleList evaluates the query string over the viewer's own artworks.
func (p *Plugin) handleList(w http.ResponseWriter, r *http.Request) {
	state, err := query.ParseState(r.URL.Query(), p.pageSize)
	if err != nil {
		server.WriteError(w, r, err)
		return
	}
	view, err := p.svc.MyGallery(r.Context(), gallery.ViewerFromContext(r.Context()), state)
	if err != nil {
		p.fail(w, r, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, view)
}

func (p *Plugin) handleStats(w http.ResponseWriter, r *http.Request) {
	view, err := p.svc.MyGallery(r.Context(), gallery.ViewerFromContext(r.Context()), p.svc.NewState())
	if err != nil {
		p.fail(w, r, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, view.Stats)
}

func (p *Plugin) handleDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := p.svc.Dashboard(r.Context(), gallery.ViewerFromContext(r.Context()))
	if err != nil {
		p.fail(w, r, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, d)
}

func (p *Plugin) handlePublish(w http.ResponseWriter, r *http.Request) {
	var in gallery.NewArtwork
	if !server.DecodeJSON(w, r, &in) {
		return
	}
	id, err := p.svc.Publish(r.Context(), gallery.ViewerFromContext(r.Context()), in)
	if err != nil {
		p.fail(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/v1/explore/artworks/"+id)
	server.WriteJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (p *Plugin) handleEdit(w http.ResponseWriter, r *http.Request) {
	var u marketplace.ArtworkUpdate
	if !server.DecodeJSON(w, r, &u) {
		return
	}
	if err := p.svc.Edit(r.Context(), gallery.ViewerFromContext(r.Context()), r.PathValue("id"), u); err != nil {
		p.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (p *Plugin) handleRemove(w http.ResponseWriter, r *http.Request) {
	if err := p.svc.Remove(r.Context(), gallery.ViewerFromContext(r.Context()), r.PathValue("id")); err != nil {
		p.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (p *Plugin) fail(w http.ResponseWriter, r *http.Request, err error) {
	p.logger.Debug("request failed", zap.String("path", r.URL.Path), zap.Error(err))
	server.WriteError(w, r, err)
}
