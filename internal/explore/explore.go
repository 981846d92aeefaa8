// Package explore serves the public gallery: the filtered explore listing,
// category tabs, featured works, artwork details and artist profiles.
package explore

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/HerbHall/galleria/internal/gallery"
	"github.com/HerbHall/galleria/internal/plugin"
	"github.com/HerbHall/galleria/internal/query"
	"github.com/HerbHall/galleria/internal/server"
)

// Plugin implements the explore view.
type Plugin struct {
	svc      *gallery.Service
	logger   *zap.Logger
	pageSize int
	warm     bool

	cancel context.CancelFunc
	wg     sync.WaitGroup
	warmed chan struct{}

	mu      sync.Mutex
	warmErr error
}

// New creates the explore view over svc.
func New(svc *gallery.Service) *Plugin {
	return &Plugin{svc: svc, logger: zap.NewNop()}
}

func (p *Plugin) Name() string    { return "explore" }
func (p *Plugin) Version() string { return "0.1.0" }

// Init reads page_size (defaulting to the service page size) and warm,
// which prefetches the public snapshot on Start.
func (p *Plugin) Init(config *viper.Viper, logger *zap.Logger) error {
	p.logger = logger
	p.pageSize = p.svc.PageSize()
	if config.IsSet("page_size") {
		p.pageSize = min(max(config.GetInt("page_size"), 1), query.MaxPageSize)
	}
	p.warm = config.GetBool("warm")
	p.logger.Info("explore module initialized", zap.Int("page_size", p.pageSize))
	return nil
}

func (p *Plugin) Start(ctx context.Context) error {
	p.warmed = make(chan struct{})
	if !p.warm {
		close(p.warmed)
		return nil
	}
	ctx, p.cancel = context.WithCancel(ctx)
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer close(p.warmed)
		var warmErr error
		for _, source := range []string{gallery.SourceAll, gallery.SourceLatest} {
			snap, err := p.svc.Snapshot(ctx, source)
			switch {
			case ctx.Err() != nil:
				// Stopped mid warm-up; the previous health stands.
				return
			case err != nil:
				p.logger.Warn("cache warm-up failed", zap.String("source", source), zap.Error(err))
				warmErr = errors.Join(warmErr, fmt.Errorf("warm %s: %w", source, err))
			case snap.Cached:
				warmErr = errors.Join(warmErr, fmt.Errorf("warm %s: marketplace unreachable, serving snapshot from %s",
					source, snap.FetchedAt.Format(time.RFC3339)))
			}
		}
		p.mu.Lock()
		p.warmErr = warmErr
		p.mu.Unlock()
	}()
	return nil
}

// Warmed is closed once the warm-up started by Start has finished or was
// stopped. It is nil before Start.
func (p *Plugin) Warmed() <-chan struct{} {
	return p.warmed
}

func (p *Plugin) Stop() error {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
	return nil
}

// Health reports degraded when the last warm-up could not reach the
// marketplace.
func (p *Plugin) Health(_ context.Context) plugin.HealthStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.warmErr != nil {
		return plugin.HealthStatus{Status: plugin.HealthDegraded, Message: p.warmErr.Error()}
	}
	return plugin.HealthStatus{Status: plugin.HealthOK}
}

func (p *Plugin) Routes() []plugin.Route {
	return []plugin.Route{
		{Method: "GET", Path: "/artworks", Handler: p.handleList},
		{Method: "GET", Path: "/artworks/{id}", Handler: p.handleArtwork},
		{Method: "POST", Path: "/artworks/{id}/like", Handler: p.handleLike},
		{Method: "GET", Path: "/categories", Handler: p.handleCategories},
		{Method: "GET", Path: "/featured", Handler: p.handleFeatured},
		{Method: "GET", Path: "/artists/{email}", Handler: p.handleArtist},
	}
}

// handleList evaluates the query string against the public snapshot.
func (p *Plugin) handleList(w http.ResponseWriter, r *http.Request) {
	state, err := query.ParseState(r.URL.Query(), p.pageSize)
	if err != nil {
		server.WriteError(w, r, err)
		return
	}
	view, err := p.svc.Explore(r.Context(), state)
	if err != nil {
		p.fail(w, r, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, view)
}

// handleCategories lists the catalog with public artwork counts.
func (p *Plugin) handleCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := p.svc.Catalog().Categories()
	if err != nil {
		p.fail(w, r, err)
		return
	}
	view, err := p.svc.Explore(r.Context(), p.svc.NewState())
	if err != nil {
		p.fail(w, r, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, map[string]any{
		"categories": categories,
		"tabs":       view.Tabs,
	})
}

func (p *Plugin) handleFeatured(w http.ResponseWriter, r *http.Request) {
	featured, err := p.svc.Featured(r.Context())
	if err != nil {
		p.fail(w, r, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, featured)
}

func (p *Plugin) handleArtwork(w http.ResponseWriter, r *http.Request) {
	detail, err := p.svc.Artwork(r.Context(), r.PathValue("id"))
	if err != nil {
		p.fail(w, r, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, detail)
}

func (p *Plugin) handleArtist(w http.ResponseWriter, r *http.Request) {
	artist, err := p.svc.Artist(r.Context(), r.PathValue("email"))
	if err != nil {
		p.fail(w, r, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, artist)
}

func (p *Plugin) handleLike(w http.ResponseWriter, r *http.Request) {
	viewer := gallery.ViewerFromContext(r.Context())
	if err := p.svc.Like(r.Context(), r.PathValue("id"), viewer); err != nil {
		p.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// fail logs err and writes it as a problem response.
func (p *Plugin) fail(w http.ResponseWriter, r *http.Request, err error) {
	p.logger.Debug("request failed", zap.String("path", r.URL.Path), zap.Error(err))
	server.WriteError(w, r, err)
}
