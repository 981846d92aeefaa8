package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/HerbHall/galleria/internal/auth"
	"github.com/HerbHall/galleria/internal/config"
	"github.com/HerbHall/galleria/internal/gallery"
	"github.com/HerbHall/galleria/internal/marketplace"
	"github.com/HerbHall/galleria/internal/services"
	"github.com/HerbHall/galleria/internal/settings"
	"github.com/HerbHall/galleria/internal/store"
)

// app is the set of collaborators a command works with, built from config.
type app struct {
	Config    *config.ViperConfig
	Logger    *zap.Logger
	Metrics   *prometheus.Registry
	Store     *store.SQLiteStore
	Settings  services.SettingsRepository
	Snapshots services.SnapshotRepository
	Market    *marketplace.Client
	Auth      *auth.Service
	Gallery   *gallery.Service
}

// newLogger writes JSON logs at level to w, or human-readable debug logs when
// verbose.
func newLogger(w io.Writer, verbose bool, level zapcore.Level) *zap.Logger {
	enc := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	if verbose {
		enc = zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
		level = zapcore.DebugLevel
	}
	return zap.New(zapcore.NewCore(enc, zapcore.Lock(zapcore.AddSync(w)), level))
}

// loadConfig reads the configuration selected by --config.
func loadConfig(opts *RootOptions) (*config.ViperConfig, error) {
	v, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "load configuration", err)
	}
	return config.New(v), nil
}

// openApp wires the store, the marketplace client, the session and the
// gallery service. Logs at level or above are written to logs.
func openApp(ctx context.Context, opts *RootOptions, logs io.Writer, level zapcore.Level) (*app, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}
	a := &app{
		Config:  cfg,
		Logger:  newLogger(logs, opts.Verbose, level),
		Metrics: prometheus.NewRegistry(),
	}

	a.Store, err = store.New(cfg.GetString("cache.path"))
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	if a.Settings, err = services.NewSQLiteSettingsRepository(ctx, a.Store); err != nil {
		a.Close()
		return nil, err
	}
	if a.Snapshots, err = services.NewSQLiteSnapshotRepository(ctx, a.Store); err != nil {
		a.Close()
		return nil, err
	}

	market, err := marketplace.NewFromConfig(cfg, nil, a.Metrics, a.Logger.Named("marketplace"))
	if err != nil {
		a.Close()
		return nil, WrapExitError(ExitCommandError, "configure marketplace", err)
	}

	var sessions auth.SessionStore = &auth.MemorySessionStore{}
	if path := cfg.GetString("session.path"); path != "" {
		sessions = auth.NewFileSessionStore(path)
	}
	provider := auth.NewHTTPProvider(
		cfg.GetString("auth.base_url"),
		cfg.GetString("auth.api_key"),
		cfg.GetDuration("api.timeout"),
		a.Logger.Named("identity"),
	)
	a.Auth = auth.NewService(provider, market, sessions, a.Logger.Named("auth"))
	a.Market = market.WithTokens(a.Auth)

	pageSize, _ := settings.PageSize(ctx, a.Settings, cfg.GetInt("query.page_size"))
	a.Gallery, err = gallery.NewService(a.Market, a.Snapshots, gallery.Options{
		PageSize:   pageSize,
		MaxAge:     cfg.GetDuration("cache.max_age"),
		Registerer: a.Metrics,
		Logger:     a.Logger.Named("gallery"),
	})
	if err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// Viewer returns the signed-in user.
func (a *app) Viewer(ctx context.Context) (gallery.Viewer, error) {
	sess, err := a.Auth.Current(ctx)
	if err != nil {
		return gallery.Viewer{}, err
	}
	return gallery.Viewer{Email: sess.Email, Name: sess.Name, PhotoURL: sess.PhotoURL}, nil
}

// Close releases the cache database and flushes logs.
func (a *app) Close() {
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			a.Logger.Warn("close cache", zap.Error(err))
		}
	}
	_ = a.Logger.Sync()
}

// isNotFound reports whether err is a missing setting or snapshot.
func isNotFound(err error) bool {
	return errors.Is(err, services.ErrNotFound)
}
