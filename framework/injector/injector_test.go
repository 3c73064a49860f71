package injector_test

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-inject/framework/injector"
)

// ── helpers ──────────────────────────────────────────────────────────────────

func identifiers(rules []*injector.Rule) []string {
	out := make([]string, len(rules))
	for i, r := range rules {
		out[i] = r.Identifier()
	}
	return out
}

// counter returns a producer yielding value and the number of calls made.
func counter(value any) (*injector.Func, *int) {
	calls := new(int)
	return injector.Fn(func() any {
		*calls++
		return value
	}), calls
}

// ── Get ──────────────────────────────────────────────────────────────────────

func TestGet_UnregisteredKeyListsKnownKeys(t *testing.T) {
	inj := injector.New(map[string]any{"b": 1, "c": 2})

	_, err := inj.Get("a")
	require.Error(t, err)
	assert.True(t, errors.Is(err, injector.ErrKeyNotRegistered))

	var ke *injector.KeyNotRegisteredError
	require.ErrorAs(t, err, &ke)
	assert.Equal(t, "a", ke.Key)
	assert.Equal(t, []string{"b", "c"}, ke.Available)
	assert.Contains(t, err.Error(), `no rule for "a"`)
}

func TestGet_SetLiteral(t *testing.T) {
	inj := injector.New(nil)
	inj.Set("a", 10)

	v, err := inj.Get("a")
	require.NoError(t, err)
	assert.Equal(t, 10, v)
}

func TestNew_InitialValuesUseSet(t *testing.T) {
	inj := injector.New(map[string]any{"port": 8080})

	rules := inj.Rules("port")
	require.Len(t, rules, 1)
	assert.Equal(t, injector.SetterIdentifier, rules[0].Identifier())
	assert.Equal(t, injector.Placement{Precedes: injector.All}, rules[0].Placement())
	assert.Equal(t, 8080, inj.Make("port"))
}

func TestGet_FollowsIsEvaluatedFirst(t *testing.T) {
	inj := injector.New(nil)
	inj.Register("a", "x", 1)
	inj.Register("a", "y", 2, injector.Placement{Follows: "x"})

	assert.Equal(t, []string{"x", "y"}, identifiers(inj.Rules("a")))

	v, err := inj.Get("a")
	require.NoError(t, err)
	assert.Equal(t, 2, v)
}

func TestGet_PrecedesIsEvaluatedLast(t *testing.T) {
	inj := injector.New(nil)
	inj.Register("a", "x", 1)
	inj.Register("a", "z", 3)
	inj.Register("a", "y", 2, injector.Placement{Precedes: "x"})

	assert.Equal(t, []string{"y", "x", "z"}, identifiers(inj.Rules("a")))
	assert.Equal(t, 3, inj.Make("a"))
}

func TestGet_SetIsTheFallback(t *testing.T) {
	inj := injector.New(nil)
	inj.Set("greeting", "hello")
	inj.Register("greeting", "empty", injector.Fn(func() any { return nil }))

	assert.Equal(t, []string{injector.SetterIdentifier, "empty"}, identifiers(inj.Rules("greeting")))
	assert.Equal(t, "hello", inj.Make("greeting"))
}

func TestGet_ProducerBeatsSet(t *testing.T) {
	inj := injector.New(nil)
	inj.Register("greeting", "loud", injector.Fn(func() string { return "HELLO" }))
	inj.Set("greeting", "hello")

	assert.Equal(t, "HELLO", inj.Make("greeting"))
}

func TestGet_LaterSetWins(t *testing.T) {
	inj := injector.New(nil)
	inj.Set("a", 1)
	inj.Set("a", 2)

	assert.Equal(t, 2, inj.Make("a"))
}

func TestGet_MemoizesNonEmptyResult(t *testing.T) {
	inj := injector.New(nil)
	producer, calls := counter("first")
	inj.Register("a", "p", producer)

	assert.Equal(t, "first", inj.Make("a"))
	inj.Register("a", "q", "second", injector.Placement{Follows: injector.All})

	assert.Equal(t, "first", inj.Make("a"))
	assert.Equal(t, 1, *calls)
	assert.True(t, inj.Resolved("a"))
}

func TestGet_EmptyResultIsNotMemoized(t *testing.T) {
	inj := injector.New(nil)
	producer, calls := counter(nil)
	inj.Register("a", "p", producer)

	for range 3 {
		v, err := inj.Get("a")
		require.NoError(t, err)
		assert.Nil(t, v)
	}
	assert.Equal(t, 3, *calls)
	assert.False(t, inj.Resolved("a"))
}

func TestGet_TypedNilIsEmpty(t *testing.T) {
	type conn struct{}
	inj := injector.New(nil)
	inj.Set("conn", "fallback")
	inj.Register("conn", "nil-ptr", injector.Fn(func() *conn { return nil }))

	assert.Equal(t, "fallback", inj.Make("conn"))
}

func TestGet_OverridesReachProducer(t *testing.T) {
	inj := injector.New(nil)
	inj.Register("sum", "add", injector.Fn(func(a, b int) int { return a + b },
		injector.Arg("a"), injector.Arg("b")))

	v, err := inj.Get("sum", injector.Overrides{"a": 1, 1: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, v)

	// Cached: overrides are ignored from now on.
	v, err = inj.Get("sum", injector.Overrides{"a": 10, "b": 20})
	require.NoError(t, err)
	assert.Equal(t, 3, v)
}

func TestGet_ProducerErrorPropagates(t *testing.T) {
	boom := errors.New("boom")
	inj := injector.New(nil)
	inj.Set("a", "fallback")
	inj.Register("a", "failing", injector.Fn(func() (any, error) { return nil, boom }))

	_, err := inj.Get("a")
	assert.Equal(t, boom, err)
	assert.False(t, inj.Resolved("a"))
}

func TestGet_ProducerDependsOnOtherKeys(t *testing.T) {
	inj := injector.New(map[string]any{"host": "localhost", "port": 5432})
	inj.Register("dsn", "", injector.Fn(func(host string, port int) string {
		return fmt.Sprintf("%s:%d", host, port)
	}, injector.Arg("host"), injector.Arg("port")))

	assert.Equal(t, "localhost:5432", inj.Make("dsn"))
}

func TestGet_InjectorResolvesItself(t *testing.T) {
	inj := injector.New(nil)

	self, err := inj.Get(injector.InjectorKey)
	require.NoError(t, err)
	assert.Same(t, inj, self)
	assert.NotContains(t, inj.Keys(), injector.InjectorKey)
}

func TestGet_ProducerRegistersRulesDynamically(t *testing.T) {
	inj := injector.New(nil)
	inj.Register("setup", "", injector.Fn(func(i *injector.Injector) string {
		i.Set("late", "registered")
		return "done"
	}, injector.Arg(injector.InjectorKey)))

	assert.Equal(t, "done", inj.Make("setup"))
	assert.Equal(t, "registered", inj.Make("late"))
}

func TestGet_RecursiveSameKey(t *testing.T) {
	inj := injector.New(nil)
	inj.Set("n", 1)
	depth := 0
	inj.Register("n", "inc", injector.Fn(func(i *injector.Injector) (any, error) {
		depth++
		if depth > 1 {
			return nil, nil
		}
		v, err := i.Get("n")
		if err != nil {
			return nil, err
		}
		return v.(int) + 1, nil
	}, injector.Arg(injector.InjectorKey)))

	assert.Equal(t, 2, inj.Make("n"))
}

func TestGet_CycleDetectionIsOptIn(t *testing.T) {
	inj := injector.New(nil, injector.WithCycleDetection())
	inj.Register("a", "", injector.Fn(func(b any) any { return b }, injector.Arg("b")))
	inj.Register("b", "", injector.Fn(func(a any) any { return a }, injector.Arg("a")))

	_, err := inj.Get("a")
	require.Error(t, err)
	assert.True(t, injector.IsCycle(err))
	assert.ErrorIs(t, err, injector.ErrCycleDetected)

	var ce *injector.CycleError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, []string{"a", "b", "a"}, ce.Path)
}

func TestGet_CycleDetectionAllowsDiamonds(t *testing.T) {
	inj := injector.New(map[string]any{"base": 1}, injector.WithCycleDetection())
	inj.Register("left", "", injector.Fn(func(b int) int { return b + 1 }, injector.Arg("base")))
	inj.Register("right", "", injector.Fn(func(b int) int { return b + 2 }, injector.Arg("base")))
	inj.Register("top", "", injector.Fn(func(l, r int) int { return l + r },
		injector.Arg("left"), injector.Arg("right")))

	assert.Equal(t, 5, inj.Make("top"))
}

// ── Remove ───────────────────────────────────────────────────────────────────

func TestRemove_UnknownKey(t *testing.T) {
	inj := injector.New(nil)
	assert.False(t, inj.Remove("missing"))
}

func TestRemove_KeepsCachedValue(t *testing.T) {
	inj := injector.New(nil)
	inj.Set("a", 1)
	require.Equal(t, 1, inj.Make("a"))

	assert.True(t, inj.Remove("a"))
	assert.Empty(t, inj.Rules("a"))
	assert.Equal(t, 1, inj.Make("a"))
}

func TestRemove_AllLeavesKeyKnown(t *testing.T) {
	inj := injector.New(nil)
	inj.Set("a", 1)

	assert.True(t, inj.Remove("a", injector.All))
	assert.True(t, inj.Has("a"))

	v, err := inj.Get("a")
	require.NoError(t, err)
	assert.Nil(t, v)
	assert.True(t, inj.Remove("a"))
}

func TestRemove_ByIdentifier(t *testing.T) {
	inj := injector.New(nil)
	inj.Register("a", "x", 1)
	inj.Register("a", "y", 2)
	inj.Register("a", "x", 3)

	assert.True(t, inj.Remove("a", "x"))
	assert.Equal(t, []string{"y"}, identifiers(inj.Rules("a")))
	assert.Equal(t, 2, inj.Make("a"))
}

// ── Helpers ──────────────────────────────────────────────────────────────────

func TestRegister_DefaultIdentifiersAreUnique(t *testing.T) {
	inj := injector.New(nil)
	inj.Register("a", "", 1)
	inj.Provide("a", "", 2)

	ids := identifiers(inj.Rules("a"))
	require.Len(t, ids, 2)
	assert.NotEmpty(t, ids[0])
	assert.NotEqual(t, ids[0], ids[1])
}

func TestRegisterRules(t *testing.T) {
	inj := injector.New(nil)
	inj.RegisterRules([]*injector.Rule{
		injector.NewRule("a", "x", 1),
		injector.NewRule("a", "y", 2, injector.Placement{Precedes: "x"}),
	})

	assert.Equal(t, []string{"y", "x"}, identifiers(inj.Rules("a")))
	assert.Equal(t, 1, inj.Make("a"))
}

func TestResolve_Typed(t *testing.T) {
	inj := injector.New(map[string]any{"name": "inject", "port": 8080})

	name, err := injector.Resolve[string](inj, "name")
	require.NoError(t, err)
	assert.Equal(t, "inject", name)

	_, err = injector.Resolve[string](inj, "port")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "resolved to int")

	assert.Equal(t, 8080, injector.MustResolve[int](inj, "port"))
	assert.Panics(t, func() { injector.MustResolve[int](inj, "missing") })
}

func TestMake_PanicsOnMissingKey(t *testing.T) {
	inj := injector.New(nil)
	assert.Panics(t, func() { inj.Make("missing") })
}

func TestAccessors(t *testing.T) {
	inj := injector.New(map[string]any{"a": 1, "b": 2})

	acc := inj.Accessors()
	require.Len(t, acc, 2)
	v, err := acc["b"]()
	require.NoError(t, err)
	assert.Equal(t, 2, v)

	only := inj.Accessors("c")
	_, err = only["c"]()
	assert.True(t, injector.IsKeyNotRegistered(err))
}

// ── Options ──────────────────────────────────────────────────────────────────

func TestWithLogger_TracesResolution(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	inj := injector.New(nil, injector.WithLogger(log))

	inj.Register("port", "env", 8080)
	_, err := inj.Get("port")
	require.NoError(t, err)
	_, err = inj.Get("port")
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "rule registered")
	assert.Contains(t, out, "msg=resolved key=port identifier=env")
	assert.Contains(t, out, "cache hit")
}

func TestWithLogger_NilKeepsDefault(t *testing.T) {
	inj := injector.New(map[string]any{"a": 1}, injector.WithLogger(nil))
	assert.Equal(t, 1, inj.Make("a"))
}
