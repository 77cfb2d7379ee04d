package mediactl

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/smartpc/mediactl/internal/devices"
	"github.com/smartpc/mediactl/internal/logging"
)

// Flags carries command line overrides. Empty fields keep the config value.
type Flags struct {
	ConfigPath    string
	LogLevel      string
	ListenAddress string
}

const shutdownTimeout = 5 * time.Second

// Main loads the config, applies the overrides and runs until SIGINT or
// SIGTERM.
func Main(flags Flags) error {
	cfg, err := LoadConfig(flags.ConfigPath)
	if err != nil {
		return err
	}
	if flags.LogLevel != "" {
		cfg.LogLevel = flags.LogLevel
	}
	if flags.ListenAddress != "" {
		cfg.ListenAddress = flags.ListenAddress
	}
	logging.SetLevel(cfg.LogLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Info().
		Str("listen_address", cfg.ListenAddress).
		Str("profiles_path", cfg.ProfilesPath).
		Msg("starting mediactl")

	return Run(ctx, NewApp(cfg, Options{}))
}

// Run starts the device watcher and the HTTP server and blocks until ctx is
// done or one of them fails. The app is shut down before Run returns.
func Run(ctx context.Context, app *App) error {
	g, gctx := errgroup.WithContext(ctx)

	watcher, err := devices.NewHotplugWatcher(app.cfg.DeviceWatchPaths)
	if err != nil {
		logger.Warn().Err(err).Msg("device hotplug disabled")
	} else {
		g.Go(func() error {
			return watcher.Run(gctx)
		})
		g.Go(func() error {
			if err := app.registry.Watch(gctx, watcher.Events()); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	app.Start(gctx)

	server := &http.Server{
		Addr:              app.cfg.ListenAddress,
		Handler:           app.setupRouter(),
		ReadHeaderTimeout: 10 * time.Second,
		// Hijacked websockets are not closed by Shutdown; their request
		// contexts end with gctx instead.
		BaseContext: func(net.Listener) context.Context { return gctx },
	}
	g.Go(func() error {
		httpLogger.Info().Str("address", server.Addr).Msg("starting web server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	logger.Info().Msg("mediactl shutting down")
	if shutdownErr := app.Shutdown(); shutdownErr != nil {
		logger.Warn().Err(shutdownErr).Msg("shutdown was not clean")
	}
	return err
}

// Exit logs err and exits non-zero when it is set.
func Exit(err error) {
	if err == nil {
		return
	}
	logger.Error().Err(err).Msg("mediactl failed")
	os.Exit(1)
}
