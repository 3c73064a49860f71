package injector

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrKeyNotRegistered is matched by every *KeyNotRegisteredError.
	ErrKeyNotRegistered = errors.New("injector: key not registered")

	// ErrInvalidParameter is matched by every *InvalidParameterError.
	ErrInvalidParameter = errors.New("injector: invalid parameter declaration")

	// ErrCycleDetected is matched by every *CycleError.
	ErrCycleDetected = errors.New("injector: resolution cycle detected")

	// ErrBind is matched by every *BindError.
	ErrBind = errors.New("injector: cannot bind argument")
)

// KeyNotRegisteredError reports a lookup for a key that has no rule
// sequence. Available lists every key known at the time of the lookup.
type KeyNotRegisteredError struct {
	Key       string
	Available []string
}

func (e *KeyNotRegisteredError) Error() string {
	quoted := make([]string, len(e.Available))
	for i, k := range e.Available {
		quoted[i] = fmt.Sprintf("%q", k)
	}
	return fmt.Sprintf("injector: no rule for %q. Available keys: %s", e.Key, strings.Join(quoted, ", "))
}

func (e *KeyNotRegisteredError) Is(target error) bool { return target == ErrKeyNotRegistered }

// InvalidParameterError reports a function whose parameters cannot be bound,
// most commonly because it captures a variadic remainder.
type InvalidParameterError struct {
	Param    string
	Location string
	Reason   string
}

func (e *InvalidParameterError) Error() string {
	msg := fmt.Sprintf("injector: %s: %s", e.Reason, e.Param)
	if e.Location != "" {
		msg += " in " + e.Location
	}
	return msg
}

func (e *InvalidParameterError) Is(target error) bool { return target == ErrInvalidParameter }

// CycleError is returned when cycle detection is enabled and a key is
// requested again while it is still being resolved.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return "injector: resolution cycle: " + strings.Join(e.Path, " -> ")
}

func (e *CycleError) Is(target error) bool { return target == ErrCycleDetected }

// BindError reports a bound value that does not fit the parameter's type.
type BindError struct {
	Param string
	Want  string
	Got   string
}

func (e *BindError) Error() string {
	return fmt.Sprintf("injector: parameter %q wants %s, got %s", e.Param, e.Want, e.Got)
}

func (e *BindError) Is(target error) bool { return target == ErrBind }

// IsKeyNotRegistered reports whether err is, or wraps, a missing-key error.
func IsKeyNotRegistered(err error) bool {
	var ke *KeyNotRegisteredError
	return errors.As(err, &ke)
}

// IsInvalidParameter reports whether err is, or wraps, an invalid parameter
// declaration.
func IsInvalidParameter(err error) bool {
	var pe *InvalidParameterError
	return errors.As(err, &pe)
}

// IsCycle reports whether err is, or wraps, a resolution cycle.
func IsCycle(err error) bool {
	var ce *CycleError
	return errors.As(err, &ce)
}
