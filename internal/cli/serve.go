package cli

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/HerbHall/galleria/internal/explore"
	"github.com/HerbHall/galleria/internal/favorites"
	"github.com/HerbHall/galleria/internal/plugin"
	"github.com/HerbHall/galleria/internal/server"
	"github.com/HerbHall/galleria/internal/settings"
	"github.com/HerbHall/galleria/internal/studio"
)

// shutdownTimeout bounds graceful shutdown of the view server.
const shutdownTimeout = 10 * time.Second

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the local view server",
		Long: `Run the local view server.

The explore, studio and favorites views are served as JSON under /api/v1.
Requests carrying a bearer ID token act as that user; other requests use
the signed-in session of this machine.`,
		Args: exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx, rootOpts, cmd.ErrOrStderr(), zapcore.InfoLevel)
			if err != nil {
				return err
			}
			defer a.Close()

			if addr == "" {
				addr = net.JoinHostPort(a.Config.GetString("server.host"), a.Config.GetString("server.port"))
			}
			srv, registry, err := newViewServer(ctx, a, addr)
			if err != nil {
				return err
			}
			defer registry.StopAll()
			return serve(ctx, srv, a.Logger)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from server.host and server.port)")
	return cmd
}

// newViewServer registers, initializes and starts the views and returns the
// server mounting them.
func newViewServer(ctx context.Context, a *app, addr string) (*server.Server, *plugin.Registry, error) {
	a.Metrics.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	registry := plugin.NewRegistry(a.Logger)
	views := []plugin.Plugin{
		explore.New(a.Gallery),
		studio.New(a.Gallery),
		favorites.New(a.Gallery),
	}
	for _, v := range views {
		if err := registry.Register(v); err != nil {
			return nil, nil, err
		}
	}
	if err := registry.InitAll(a.Config.Viper()); err != nil {
		return nil, nil, fmt.Errorf("initialize views: %w", err)
	}
	if err := registry.StartAll(ctx); err != nil {
		return nil, nil, fmt.Errorf("start views: %w", err)
	}

	srv := server.New(addr, registry, a.Logger,
		server.WithSessions(a.Auth),
		server.WithGatherer(a.Metrics),
		server.WithRoutes(settings.NewHandler(a.Settings, a.Config.GetInt("query.page_size"), a.Logger.Named("settings"))),
	)
	return srv, registry, nil
}

// serve runs srv until ctx is canceled or the listener fails.
func serve(ctx context.Context, srv *server.Server, logger *zap.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down view server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}
