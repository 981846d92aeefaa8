// Package gallerytest wires a gallery.Service and the view server against
// the fake marketplace for handler tests.
package gallerytest

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/HerbHall/galleria/internal/gallery"
	"github.com/HerbHall/galleria/internal/marketplace"
	"github.com/HerbHall/galleria/internal/plugin"
	"github.com/HerbHall/galleria/internal/server"
	"github.com/HerbHall/galleria/internal/services"
	"github.com/HerbHall/galleria/internal/testutil"
	"github.com/HerbHall/galleria/pkg/models"
)

// PageSize is the page size of fixture services.
const PageSize = 2

// Fixture is a gallery service backed by a fake marketplace and an
// in-memory snapshot cache.
type Fixture struct {
	Market   *testutil.FakeMarketplace
	Service  *gallery.Service
	Clock    *testutil.Clock
	Registry *prometheus.Registry

	// Sessions, when set, supplies the viewer of requests without a bearer
	// token.
	Sessions server.SessionSource
}

// New seeds a fake marketplace with artworks and builds a Service over it.
func New(t *testing.T, artworks ...models.Artwork) *Fixture {
	t.Helper()
	market := testutil.NewFakeMarketplace(t, artworks...)
	reg := prometheus.NewRegistry()
	client, err := marketplace.New(marketplace.Options{BaseURL: market.URL(), Registerer: reg})
	if err != nil {
		t.Fatalf("marketplace client: %v", err)
	}
	repo, err := services.NewSQLiteSnapshotRepository(context.Background(), testutil.NewStore(t))
	if err != nil {
		t.Fatalf("snapshot repository: %v", err)
	}
	clock := testutil.NewClock()
	svc, err := gallery.NewService(client, repo, gallery.Options{
		PageSize:   PageSize,
		Now:        clock.Now,
		Registerer: reg,
		Logger:     zap.NewNop(),
	})
	if err != nil {
		t.Fatalf("gallery service: %v", err)
	}
	return &Fixture{Market: market, Service: svc, Clock: clock, Registry: reg}
}

// Serve registers views, initializes them with cfg (nil for defaults) and
// returns the view server's handler.
func (f *Fixture) Serve(t *testing.T, cfg *viper.Viper, views ...plugin.Plugin) http.Handler {
	t.Helper()
	reg := plugin.NewRegistry(zap.NewNop())
	for _, v := range views {
		if err := reg.Register(v); err != nil {
			t.Fatalf("register %s: %v", v.Name(), err)
		}
	}
	if err := reg.InitAll(cfg); err != nil {
		t.Fatalf("init views: %v", err)
	}
	if err := reg.StartAll(context.Background()); err != nil {
		t.Fatalf("start views: %v", err)
	}
	t.Cleanup(reg.StopAll)
	opts := []server.Option{server.WithClock(f.Clock.Now), server.WithGatherer(f.Registry)}
	if f.Sessions != nil {
		opts = append(opts, server.WithSessions(f.Sessions))
	}
	return server.New("", reg, zap.NewNop(), opts...).Handler()
}

// Bearer returns an Authorization header value for a user signed in now.
func (f *Fixture) Bearer(t *testing.T, email, name string) string {
	t.Helper()
	return "Bearer " + testutil.IDToken(t, email, name, "", f.Clock.Now())
}

// Do sends a request to h. body, when non-nil, is encoded as JSON; an empty
// authorization sends no Authorization header.
func Do(t *testing.T, h http.Handler, method, path, authorization string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("encode body: %v", err)
		}
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

// Decode unmarshals the recorded JSON body into a new T.
func Decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return v
}
