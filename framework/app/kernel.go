package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/km-arc/go-inject/framework/config"
	"github.com/km-arc/go-inject/framework/injector"
	"github.com/km-arc/go-inject/framework/providers"
	"github.com/km-arc/go-inject/framework/routing"
)

// Version is the application version reported by the CLI.
const Version = "0.1.0"

// Options configures New.
type Options struct {
	// EnvFiles are loaded before the environment is read (".env" when empty).
	EnvFiles []string
	// ValuesFile overrides INJECT_VALUES_FILE.
	ValuesFile string
	// Initial entries are installed with Set before any provider runs.
	Initial map[string]any
	Injector []injector.Option
}

// Application is the top-level injector. It embeds the Injector, so Get,
// Set, Remove and the rest are available directly. Register adds a
// ServiceProvider and shadows Injector.Register; rules are registered
// through a.Injector.Register.
type Application struct {
	*injector.Injector
	Providers *injector.ProviderRegistry
}

// New creates the application and registers the framework providers:
// config, logger, seed values and the deferred router.
func New(opts Options) (*Application, error) {
	inj := injector.New(opts.Initial, opts.Injector...)
	app := &Application{
		Injector:  inj,
		Providers: injector.NewProviderRegistry(inj),
	}

	core := []injector.ServiceProvider{
		&providers.ConfigProvider{EnvFiles: opts.EnvFiles},
		&providers.LoggerProvider{},
		&providers.ValuesProvider{File: opts.ValuesFile},
		&providers.RoutingProvider{},
	}
	for _, p := range core {
		if err := app.Register(p); err != nil {
			return nil, err
		}
	}
	return app, nil
}

// Register adds a ServiceProvider to the application.
func (a *Application) Register(provider injector.ServiceProvider) error {
	return a.Providers.Register(provider)
}

// Boot runs the Boot phase on all providers.
func (a *Application) Boot() error {
	return a.Providers.Boot()
}

// Config resolves "config".
func (a *Application) Config() (*config.Config, error) {
	return injector.Resolve[*config.Config](a.Injector, "config")
}

// Router resolves "router", loading the routing provider on first use.
func (a *Application) Router() (*routing.Router, error) {
	return injector.Resolve[*routing.Router](a.Injector, "router")
}

// Logger resolves "logger", falling back to slog.Default.
func (a *Application) Logger() *slog.Logger {
	log, err := injector.Resolve[*slog.Logger](a.Injector, "logger")
	if err != nil || log == nil {
		return slog.Default()
	}
	return log
}

// ── Server ───────────────────────────────────────────────────────────────────

// Run boots the application if needed and serves the router until ctx is
// cancelled, then shuts down within Server.ShutdownTimeout.
func (a *Application) Run(ctx context.Context) error {
	if !a.Providers.Booted() {
		if err := a.Boot(); err != nil {
			return err
		}
	}
	cfg, err := a.Config()
	if err != nil {
		return fmt.Errorf("resolving config: %w", err)
	}
	router, err := a.Router()
	if err != nil {
		return fmt.Errorf("resolving router: %w", err)
	}
	log := a.Logger()

	srv := &http.Server{
		Addr:        cfg.Addr(),
		Handler:     router,
		ReadTimeout: cfg.Server.ReadTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	log.Info("server stopped")
	return nil
}

// ── Environment ──────────────────────────────────────────────────────────────

// Environment returns INJECT_APP_ENV, or "" when config cannot load.
func (a *Application) Environment() string {
	cfg, err := a.Config()
	if err != nil {
		return ""
	}
	return cfg.App.Env
}

func (a *Application) IsLocal() bool      { return a.Environment() == config.EnvLocal }
func (a *Application) IsProduction() bool { return a.Environment() == config.EnvProduction }
func (a *Application) IsTesting() bool    { return a.Environment() == config.EnvTesting }

func (a *Application) IsDebug() bool {
	cfg, err := a.Config()
	return err == nil && cfg.App.Debug
}
