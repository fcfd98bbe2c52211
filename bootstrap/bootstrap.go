// Package bootstrap wires all dependencies and starts the application.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/artpar/minapi/adapters/clock"
	apihttp "github.com/artpar/minapi/adapters/http"
	"github.com/artpar/minapi/adapters/idgen"
	"github.com/artpar/minapi/adapters/metrics"
	"github.com/artpar/minapi/app"
	"github.com/artpar/minapi/config"
	"github.com/artpar/minapi/domain/route"
	"github.com/artpar/minapi/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// App represents the running application.
type App struct {
	Logger     zerolog.Logger
	Config     *config.Config
	HTTPServer *http.Server
	Handler    http.Handler
	Metrics    *metrics.Collector
	Dispatcher *app.Dispatcher
	Stores     Stores

	holder *config.Holder
}

// Options provides optional configuration for application initialization.
type Options struct {
	// ConfigPath is a YAML file. When it exists it is watched for changes;
	// otherwise configuration comes from MINAPI_* variables.
	ConfigPath string

	// Config bypasses file loading when set.
	Config *config.Config

	// MetricsRegistry isolates metrics; the default Prometheus registry is
	// used when nil.
	MetricsRegistry *prometheus.Registry

	// LogOutput defaults to os.Stdout.
	LogOutput io.Writer

	Version string
	Commit  string
}

// New creates and initializes the application.
func New(opts Options) (*App, error) {
	cfg, holder, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}

	out := opts.LogOutput
	if out == nil {
		out = os.Stdout
	}
	logger := setupLogger(cfg.Logging, out)
	logger.Info().Str("version", opts.Version).Msg("initializing minapi")

	a := &App{
		Logger: logger,
		Config: cfg,
		holder: holder,
	}

	var metricsHandler http.Handler
	var observer ports.StoreObserver
	if cfg.Metrics.Enabled {
		if opts.MetricsRegistry != nil {
			a.Metrics = metrics.NewWithRegistry(opts.MetricsRegistry)
			metricsHandler = promhttp.HandlerFor(opts.MetricsRegistry, promhttp.HandlerOpts{})
		} else {
			a.Metrics = metrics.New()
			metricsHandler = promhttp.Handler()
		}
		observer = a.Metrics
		logger.Info().Str("path", cfg.Metrics.Path).Msg("prometheus metrics enabled")
	}

	a.Stores = NewStores(clock.Real{}, observer)
	a.Stores.Seed(context.Background(), cfg.Seed)

	registry, err := BuildRegistry(cfg, a.Stores.Handlers(), logger)
	if err != nil {
		return nil, fmt.Errorf("build routes: %w", err)
	}

	deps := app.DispatcherDeps{
		Registry: registry,
		IDGen:    idgen.TimeOrdered{},
		Logger:   logger,
	}
	if a.Metrics != nil {
		deps.Outcomes = a.Metrics
	}
	a.Dispatcher = app.NewDispatcher(deps)

	dispatch := apihttp.NewDispatchHandler(a.Dispatcher, logger, apihttp.HandlerConfig{
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
		TagsHeader:   cfg.Auth.TagsHeader,
	})
	a.Handler = apihttp.NewRouter(dispatch, apihttp.NewHealthHandler(a.Dispatcher), logger, apihttp.RouterConfig{
		Metrics:        a.Metrics,
		MetricsHandler: metricsHandler,
		MetricsPath:    cfg.Metrics.Path,
		RequestTimeout: cfg.Server.RequestTimeout,
		Version:        opts.Version,
		Commit:         opts.Commit,
	})

	a.HTTPServer = &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      a.Handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	if holder != nil {
		a.watchConfig(holder)
	}

	logger.Info().
		Int("routes", len(registry.Routes())).
		Int("people", a.Stores.People.Len(context.Background())).
		Int("products", a.Stores.Products.Len(context.Background())).
		Int("housing", a.Stores.Housing.Len(context.Background())).
		Int("accounts", a.Stores.Accounts.Len(context.Background())).
		Msg("application ready")

	return a, nil
}

// BuildRegistry creates the route registry and mounts every route.
func BuildRegistry(cfg *config.Config, h app.Handlers, logger zerolog.Logger) (*route.Registry, error) {
	reg := app.NewRegistry()
	err := app.RegisterRoutes(reg, h, app.RoutesConfig{
		AdminTag:    cfg.Auth.AdminTag,
		DebugRoutes: cfg.Server.DebugRoutes,
	}, logger)
	if err != nil {
		return nil, err
	}
	return reg, nil
}

func loadConfig(opts Options) (*config.Config, *config.Holder, error) {
	if opts.Config != nil {
		return opts.Config, nil, nil
	}
	if opts.ConfigPath != "" {
		if _, err := os.Stat(opts.ConfigPath); err == nil {
			// The holder logs through a bootstrap logger until the real one exists.
			holder, err := config.NewHolder(opts.ConfigPath, zerolog.New(os.Stderr).With().Timestamp().Logger())
			if err != nil {
				return nil, nil, err
			}
			return holder.Get(), holder, nil
		}
	}
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil, nil
}

// watchConfig hot-reloads the log level. Other changes need a restart.
func (a *App) watchConfig(holder *config.Holder) {
	if a.Metrics != nil {
		holder.SetObserver(a.Metrics)
	}
	holder.OnChange(func(cfg *config.Config) {
		applyLogLevel(cfg.Logging.Level)
		a.Logger.Info().Str("level", cfg.Logging.Level).Msg("log level applied")
	})
	if err := holder.WatchFile(); err != nil {
		a.Logger.Warn().Err(err).Msg("config file watch disabled")
	}
	holder.WatchSignals()
}

// Run starts the server and blocks until SIGINT or SIGTERM.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return a.RunContext(ctx)
}

// RunContext starts the server and blocks until ctx is done or the server
// fails, then shuts down.
func (a *App) RunContext(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.HTTPServer.Addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	return a.Serve(ctx, ln)
}

// Serve runs the server on ln until ctx is done.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info().
			Str("addr", ln.Addr().String()).
			Msg("starting http server")
		if err := a.HTTPServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		a.Logger.Info().Msg("shutting down")
	}

	return a.Shutdown()
}

// Shutdown gracefully stops the application.
func (a *App) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout)
	defer cancel()

	if a.holder != nil {
		a.holder.Stop()
	}

	var err error
	if a.HTTPServer != nil {
		if err = a.HTTPServer.Shutdown(ctx); err != nil {
			a.Logger.Error().Err(err).Msg("http server shutdown error")
		}
	}

	a.Logger.Info().Msg("shutdown complete")
	return err
}

func setupLogger(cfg config.LoggingConfig, out io.Writer) zerolog.Logger {
	applyLogLevel(cfg.Level)

	if cfg.Format == "console" {
		output := zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
		return zerolog.New(output).With().Timestamp().Logger()
	}
	return zerolog.New(out).With().Timestamp().Logger()
}

func applyLogLevel(levelStr string) {
	level, err := zerolog.ParseLevel(levelStr)
	if err != nil || levelStr == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
}
