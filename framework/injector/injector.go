package injector

import (
	"fmt"
	"log/slog"
	"reflect"
	"slices"
	"sync"
	"sync/atomic"
)

// InjectorKey is the reserved key under which every injector resolves to
// itself, so producers can register further rules while running.
const InjectorKey = "injector"

// loader is consulted when Get finds no rules for a key. It reports whether
// it registered something worth a second lookup. h is the handle of the
// running operation.
type loader func(h *Injector, key string) (bool, error)

// ── Injector ──────────────────────────────────────────────────────────────────

// Injector resolves keys to values through ordered, lazily evaluated rules.
//
// It supports:
//   - Register / Provide / Set / Remove of rules with placement hints
//   - Get with reverse-order fallback and memoization of non-empty results
//   - Inject of any function by parameter name
//   - OnResolved callbacks
//   - Resolve[T] typed lookups
//
// Every top-level operation holds one exclusive lock, so a resolution and
// its cache write are atomic with respect to other goroutines. Producers and
// callbacks re-enter through the handle bound to the "injector" parameter,
// which skips the lock while its operation runs. A producer that calls back
// into an Injector captured from outside its parameters deadlocks.
type Injector struct {
	*core
	scope *scope // nil on the root handle
}

type core struct {
	op sync.Mutex // held for each top-level operation

	rules     *ruleStore
	cache     *resolutionCache
	callbacks *callbackTable
	log       *slog.Logger

	mu           sync.Mutex
	loaders      []loader
	detectCycles bool
	resolving    []string
}

// scope marks the handle of one running operation.
type scope struct {
	active atomic.Bool
}

// New creates an injector and installs each initial entry with Set.
//
//	inj := injector.New(map[string]any{"port": 8080, "env": "local"})
func New(initial map[string]any, opts ...Option) *Injector {
	inj := &Injector{core: &core{
		rules:     newRuleStore(),
		cache:     newResolutionCache(),
		callbacks: newCallbackTable(),
		log:       discardLogger(),
	}}
	for _, opt := range opts {
		opt(inj)
	}
	inj.cache.put(InjectorKey, inj)

	keys := make([]string, 0, len(initial))
	for k := range initial {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		inj.Set(k, initial[k])
	}
	return inj
}

// acquire takes the operation lock unless inj is the handle of an operation
// that is still running. It returns the handle to work through and the
// matching release.
func (inj *Injector) acquire() (*Injector, func()) {
	if inj.scope != nil && inj.scope.active.Load() {
		return inj, func() {}
	}
	inj.op.Lock()
	h := &Injector{core: inj.core, scope: &scope{}}
	h.scope.active.Store(true)
	return h, func() {
		h.scope.active.Store(false)
		inj.op.Unlock()
	}
}

// Atomic runs fn while holding the operation lock. fn must use the handle it
// is given; calls through it do not lock again.
//
//	err := inj.Atomic(func(h *injector.Injector) error {
//	    v, err := h.Get("db")
//	    ...
//	})
func (inj *Injector) Atomic(fn func(h *Injector) error) error {
	h, release := inj.acquire()
	defer release()
	return fn(h)
}

// ── Registration ──────────────────────────────────────────────────────────────

// Register adds a rule for key. An empty identifier gets a unique one.
//
//	inj.Register("db", "sqlite", injector.Fn(openSQLite, injector.Arg("path")))
//	inj.Register("db", "postgres", injector.Fn(openPostgres, injector.Arg("dsn")),
//	    injector.Placement{Follows: "sqlite"})
func (inj *Injector) Register(key, identifier string, value any, placement ...Placement) {
	inj.RegisterRule(NewRule(key, identifier, value, placement...))
}

// Provide is an alias for Register.
func (inj *Injector) Provide(key, identifier string, value any, placement ...Placement) {
	inj.Register(key, identifier, value, placement...)
}

// RegisterRule inserts a pre-built rule.
func (inj *Injector) RegisterRule(r *Rule) {
	_, release := inj.acquire()
	defer release()
	inj.rules.insert(r)
	inj.log.Debug("rule registered",
		slog.String("key", r.key),
		slog.String("identifier", r.identifier),
		slog.Bool("producer", r.Producer() != nil),
	)
}

// RegisterRules inserts rules in order.
func (inj *Injector) RegisterRules(rules []*Rule) {
	h, release := inj.acquire()
	defer release()
	for _, r := range rules {
		h.RegisterRule(r)
	}
}

// Set installs value as the lowest priority rule for key. Any other rule
// that yields a non-empty value wins over it.
//
//	inj.Set("port", 8080)
func (inj *Injector) Set(key string, value any) {
	inj.Register(key, SetterIdentifier, value, Placement{Precedes: All})
}

// Remove drops key's rules tagged identifier, or all of them when identifier
// is omitted or All. It reports whether key had rules registered at all.
// Values that were already resolved stay cached.
func (inj *Injector) Remove(key string, identifier ...string) bool {
	_, release := inj.acquire()
	defer release()

	id := All
	if len(identifier) > 0 && identifier[0] != "" {
		id = identifier[0]
	}
	existed := inj.rules.remove(key, id)
	inj.log.Debug("rules removed", slog.String("key", key), slog.String("identifier", id), slog.Bool("existed", existed))
	return existed
}

// ── Resolution ────────────────────────────────────────────────────────────────

// Get resolves key. A memoized non-empty value is returned straight away and
// overrides are ignored. Otherwise the key's rules are tried from the last
// placed back to the first; producers are injected with overrides, and the
// first non-empty value fires the OnResolved callbacks, is memoized and
// returned. When every rule yields nil, Get returns nil and the scan runs
// again on the next call. InjectorKey resolves to the handle Get is called on.
func (inj *Injector) Get(key string, overrides ...Overrides) (any, error) {
	if key == InjectorKey {
		return inj, nil
	}
	h, release := inj.acquire()
	defer release()
	return h.resolve(key, overrides...)
}

// resolve is Get with the operation lock held.
func (inj *Injector) resolve(key string, overrides ...Overrides) (any, error) {
	if v, ok := inj.cache.lookup(key); ok {
		inj.log.Debug("cache hit", slog.String("key", key))
		return v, nil
	}

	seq, ok := inj.rules.sequence(key)
	if !ok {
		loaded, err := inj.load(key)
		if err != nil {
			return nil, err
		}
		if loaded {
			if v, hit := inj.cache.lookup(key); hit {
				return v, nil
			}
			seq, ok = inj.rules.sequence(key)
		}
		if !ok {
			return nil, &KeyNotRegisteredError{Key: key, Available: inj.rules.keys()}
		}
	}

	if inj.detectCycles {
		if err := inj.enter(key); err != nil {
			return nil, err
		}
		defer inj.leave()
	}

	var ov Overrides
	if len(overrides) > 0 {
		ov = overrides[0]
	}

	for i := len(seq) - 1; i >= 0; i-- {
		rule := seq[i]
		value := rule.value
		if fn, isProducer := value.(*Func); isProducer {
			v, err := inj.Inject(ov, fn)
			if err != nil {
				return nil, err
			}
			value = v
		}
		if isEmpty(value) {
			continue
		}

		if err := inj.fire(afterFetch, key, value, rule.identifier); err != nil {
			return nil, err
		}
		inj.cache.put(key, value)
		inj.log.Debug("resolved", slog.String("key", key), slog.String("identifier", rule.identifier))
		return value, nil
	}

	inj.cache.put(key, nil)
	inj.log.Debug("no rule produced a value", slog.String("key", key), slog.Int("rules", len(seq)))
	return nil, nil
}

// Make resolves key and panics on failure, for wiring code where a missing
// dependency is a programming error.
//
//	db := inj.Make("db").(*sql.DB)
func (inj *Injector) Make(key string) any {
	v, err := inj.Get(key)
	if err != nil {
		panic(err)
	}
	return v
}

// Accessors returns a getter per key, or per known key when none are given.
// The table is built once and does not track keys registered later.
func (inj *Injector) Accessors(keys ...string) map[string]func() (any, error) {
	if len(keys) == 0 {
		keys = inj.Keys()
	}
	out := make(map[string]func() (any, error), len(keys))
	for _, k := range keys {
		out[k] = func() (any, error) { return inj.Get(k) }
	}
	return out
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// The read helpers below take no operation lock and see each map as of the
// moment they read it.

// Keys returns every key with registered rules, sorted.
func (inj *Injector) Keys() []string { return inj.rules.keys() }

// Has reports whether key has a rule sequence.
func (inj *Injector) Has(key string) bool { return inj.rules.has(key) }

// Resolved reports whether key currently has a memoized non-empty value.
func (inj *Injector) Resolved(key string) bool {
	_, ok := inj.cache.lookup(key)
	return ok
}

// Rules returns key's rules in stored order. Get evaluates them last first.
func (inj *Injector) Rules(key string) []*Rule {
	seq, _ := inj.rules.sequence(key)
	return seq
}

func (inj *Injector) addLoader(l loader) {
	inj.mu.Lock()
	defer inj.mu.Unlock()
	inj.loaders = append(inj.loaders, l)
}

func (inj *Injector) load(key string) (bool, error) {
	inj.mu.Lock()
	loaders := slices.Clone(inj.loaders)
	inj.mu.Unlock()

	for _, l := range loaders {
		ok, err := l(inj, key)
		if err != nil {
			return false, fmt.Errorf("loading %q: %w", key, err)
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

func (inj *Injector) enter(key string) error {
	inj.mu.Lock()
	defer inj.mu.Unlock()
	if slices.Contains(inj.resolving, key) {
		path := append(slices.Clone(inj.resolving), key)
		return &CycleError{Path: path}
	}
	inj.resolving = append(inj.resolving, key)
	return nil
}

func (inj *Injector) leave() {
	inj.mu.Lock()
	defer inj.mu.Unlock()
	inj.resolving = inj.resolving[:len(inj.resolving)-1]
}

// ── Generics helper ───────────────────────────────────────────────────────────

// Resolve calls Get and type-asserts the result.
//
//	db, err := injector.Resolve[*sql.DB](inj, "db")
func Resolve[T any](inj *Injector, key string) (T, error) {
	var zero T
	v, err := inj.Get(key)
	if err != nil {
		return zero, err
	}
	if v == nil {
		return zero, nil
	}
	typed, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("injector: Resolve[%s]: %q resolved to %T", reflect.TypeFor[T](), key, v)
	}
	return typed, nil
}

// MustResolve is like Resolve but panics on error.
func MustResolve[T any](inj *Injector, key string) T {
	v, err := Resolve[T](inj, key)
	if err != nil {
		panic(err)
	}
	return v
}
