package plugin

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeView struct {
	name     string
	calls    *[]string
	startErr error
	cfg      *viper.Viper
}

func (f *fakeView) Name() string    { return f.name }
func (f *fakeView) Version() string { return "1.0.0" }

func (f *fakeView) Init(cfg *viper.Viper, _ *zap.Logger) error {
	f.cfg = cfg
	*f.calls = append(*f.calls, "init "+f.name)
	return nil
}

func (f *fakeView) Start(context.Context) error {
	*f.calls = append(*f.calls, "start "+f.name)
	return f.startErr
}

func (f *fakeView) Stop() error {
	*f.calls = append(*f.calls, "stop "+f.name)
	return nil
}

func (f *fakeView) Routes() []Route {
	return []Route{{Method: http.MethodGet, Path: "/", Handler: func(http.ResponseWriter, *http.Request) {}}}
}

func TestRegistry_Register(t *testing.T) {
	var calls []string
	r := NewRegistry(zap.NewNop())
	require.NoError(t, r.Register(&fakeView{name: "explore", calls: &calls}))
	assert.Error(t, r.Register(&fakeView{name: "explore", calls: &calls}), "duplicate name")
	assert.Error(t, r.Register(&fakeView{name: "", calls: &calls}), "empty name")

	p, ok := r.Get("explore")
	require.True(t, ok)
	assert.Equal(t, "explore", p.Name())
	_, ok = r.Get("missing")
	assert.False(t, ok)
}

func TestRegistry_Lifecycle(t *testing.T) {
	var calls []string
	r := NewRegistry(nil)
	require.NoError(t, r.Register(&fakeView{name: "explore", calls: &calls}))
	require.NoError(t, r.Register(&fakeView{name: "studio", calls: &calls}))
	require.NoError(t, r.Register(&fakeView{name: "favorites", calls: &calls}))

	cfg := viper.New()
	cfg.Set("plugins.studio.enabled", false)
	cfg.Set("plugins.explore.page_size", 24)
	require.NoError(t, r.InitAll(cfg))
	require.NoError(t, r.StartAll(context.Background()))
	r.StopAll()

	assert.Equal(t, []string{
		"init explore", "init favorites",
		"start explore", "start favorites",
		"stop favorites", "stop explore",
	}, calls)

	explore, _ := r.Get("explore")
	assert.Equal(t, 24, explore.(*fakeView).cfg.GetInt("page_size"))

	assert.True(t, r.Enabled("explore"))
	assert.False(t, r.Enabled("studio"))

	routes := r.AllRoutes()
	assert.Contains(t, routes, "explore")
	assert.NotContains(t, routes, "studio")

	assert.Equal(t, []Info{
		{Name: "explore", Version: "1.0.0", Enabled: true, Routes: 1},
		{Name: "studio", Version: "1.0.0", Enabled: false},
		{Name: "favorites", Version: "1.0.0", Enabled: true, Routes: 1},
	}, r.Infos())
}

func TestRegistry_StartFailureStopsStarted(t *testing.T) {
	var calls []string
	r := NewRegistry(zap.NewNop())
	require.NoError(t, r.Register(&fakeView{name: "explore", calls: &calls}))
	require.NoError(t, r.Register(&fakeView{name: "studio", calls: &calls, startErr: errors.New("boom")}))
	require.NoError(t, r.InitAll(nil))

	err := r.StartAll(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "studio")
	assert.Equal(t, []string{"init explore", "init studio", "start explore", "start studio", "stop explore"}, calls)

	calls = nil
	r.StopAll()
	assert.Empty(t, calls, "nothing left to stop")
}

type healthyView struct {
	fakeView
	status HealthStatus
}

func (h *healthyView) Health(context.Context) HealthStatus { return h.status }

func TestRegistry_Health(t *testing.T) {
	var calls []string
	r := NewRegistry(zap.NewNop())
	require.NoError(t, r.Register(&healthyView{
		fakeView: fakeView{name: "explore", calls: &calls},
		status:   HealthStatus{Status: HealthDegraded, Message: "marketplace unreachable"},
	}))
	require.NoError(t, r.Register(&healthyView{
		fakeView: fakeView{name: "studio", calls: &calls},
		status:   HealthStatus{Status: HealthOK},
	}))
	require.NoError(t, r.Register(&fakeView{name: "favorites", calls: &calls}))

	cfg := viper.New()
	cfg.Set("plugins.studio.enabled", false)
	require.NoError(t, r.InitAll(cfg))

	got := r.Health(context.Background())
	assert.Equal(t, map[string]HealthStatus{
		"explore": {Status: HealthDegraded, Message: "marketplace unreachable"},
	}, got, "disabled views and views without checks are omitted")
}
