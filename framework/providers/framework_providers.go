package providers

import (
	"log/slog"

	"github.com/km-arc/go-inject/framework/config"
	"github.com/km-arc/go-inject/framework/injector"
	"github.com/km-arc/go-inject/framework/logging"
	"github.com/km-arc/go-inject/framework/routing"
)

// ── ConfigProvider ────────────────────────────────────────────────────────────

// ConfigProvider loads configuration from .env files and the environment.
//
// Keys:
//   - "config"   → *config.Config
//   - "app_name" → string
//   - "env"      → string
type ConfigProvider struct {
	injector.BaseProvider
	EnvFiles []string
}

func (p *ConfigProvider) Register(inj *injector.Injector) error {
	envFiles := p.EnvFiles
	inj.Register("config", "env", injector.Fn(func() (*config.Config, error) {
		return config.Load(envFiles...)
	}))
	inj.Register("app_name", "config", injector.Fn(func(cfg *config.Config) string {
		return cfg.App.Name
	}, injector.Arg("config")))
	inj.Register("env", "config", injector.Fn(func(cfg *config.Config) string {
		return cfg.App.Env
	}, injector.Arg("config")))
	return nil
}

// ── LoggerProvider ────────────────────────────────────────────────────────────

// LoggerProvider builds the application logger from "config" and logs the
// configuration once it is resolved.
//
// Keys:
//   - "logger" → *slog.Logger
type LoggerProvider struct {
	injector.BaseProvider
}

func (p *LoggerProvider) Register(inj *injector.Injector) error {
	inj.Register("logger", "config", injector.Fn(func(cfg *config.Config) *slog.Logger {
		return logging.New(&cfg.App)
	}, injector.Arg("config")))
	return inj.OnResolved("logger", injector.Fn(func(log *slog.Logger, cfg *config.Config) {
		cfg.LogConfig(log)
	}, injector.Arg("logger"), injector.Arg("config")))
}

// ── ValuesProvider ────────────────────────────────────────────────────────────

// ValuesProvider installs seed values with Set, so any other rule for the
// same key takes priority. File names a YAML mapping; when empty, the file
// named by "config" (INJECT_VALUES_FILE) is used if any.
type ValuesProvider struct {
	injector.BaseProvider
	File string
}

func (p *ValuesProvider) Register(inj *injector.Injector) error {
	if p.File == "" {
		return nil
	}
	return setValues(inj, p.File)
}

func (p *ValuesProvider) Boot(inj *injector.Injector) error {
	if p.File != "" {
		return nil
	}
	cfg, err := injector.Resolve[*config.Config](inj, "config")
	if err != nil {
		if injector.IsKeyNotRegistered(err) {
			return nil
		}
		return err
	}
	if cfg == nil || cfg.Values.File == "" {
		return nil
	}
	return setValues(inj, cfg.Values.File)
}

func setValues(inj *injector.Injector, file string) error {
	values, err := config.LoadValues(file)
	if err != nil {
		return err
	}
	for k, v := range values {
		inj.Set(k, v)
	}
	return nil
}

// ── RoutingProvider ───────────────────────────────────────────────────────────

// RoutingProvider registers the HTTP router with the inspection endpoints
// mounted. It is deferred: nothing is built until "router" is requested.
//
// Keys:
//   - "router" → *routing.Router
type RoutingProvider struct {
	injector.BaseProvider
}

func (p *RoutingProvider) Register(inj *injector.Injector) error {
	inj.Register("router", "chi", injector.Fn(func(i *injector.Injector, kw injector.Kwargs) *routing.Router {
		log, _ := kw["logger"].(*slog.Logger)
		r := routing.New(i, log)
		r.Inspect()
		return r
	}, injector.Arg(injector.InjectorKey), injector.OptKey("logger")))
	return nil
}

func (p *RoutingProvider) IsDeferred() bool   { return true }
func (p *RoutingProvider) Provides() []string { return []string{"router"} }
