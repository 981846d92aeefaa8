// Package plugin defines the view modules mounted by the Galleria view server
// and the registry that drives their lifecycle.
package plugin

import (
	"context"
	"net/http"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Route is an HTTP route exposed by a view. Path is relative to the view's
// mount point, /api/v1/<name>.
type Route struct {
	Method  string
	Path    string
	Handler http.HandlerFunc
}

// Plugin is a view served under /api/v1/<Name()>.
type Plugin interface {
	// Name returns the view's unique identifier (e.g. "explore", "studio").
	Name() string

	// Version returns the view's semantic version.
	Version() string

	// Init configures the view from its plugins.<name> config subtree.
	Init(config *viper.Viper, logger *zap.Logger) error

	// Start begins background work such as cache warming.
	Start(ctx context.Context) error

	// Stop releases whatever Start acquired.
	Stop() error

	// Routes returns the HTTP routes this view exposes.
	Routes() []Route
}

// Info describes a registered view.
type Info struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Enabled bool   `json:"enabled"`
	Routes  int    `json:"routes"`
}

// Health states reported by HealthChecker.
const (
	HealthOK       = "ok"
	HealthDegraded = "degraded"
)

// HealthStatus is a view's self-reported health.
type HealthStatus struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// HealthChecker is implemented by views that report their health.
type HealthChecker interface {
	Health(ctx context.Context) HealthStatus
}
