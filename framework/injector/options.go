package injector

import (
	"io"
	"log/slog"
)

// Option configures an Injector.
type Option func(*Injector)

// WithLogger sends debug traces of registration and resolution to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(inj *Injector) {
		if logger != nil {
			inj.log = logger
		}
	}
}

// WithCycleDetection makes Get fail with a *CycleError when a key is
// requested while it is already being resolved. Resolution is unguarded
// without it, and a producer that asks for its own key recurses.
func WithCycleDetection() Option {
	return func(inj *Injector) { inj.detectCycles = true }
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
