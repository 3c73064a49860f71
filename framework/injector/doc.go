// Package injector resolves named keys to values and wires them into
// functions by parameter name.
//
// # Overview
//
// Every key owns an ordered list of rules. A rule's value is either a
// literal or a producer (a function wrapped with Fn). Get walks the list from
// the last placed rule back to the first and returns the first non-empty
// result, memoizing it. Rules placed first are therefore the fallbacks:
//
//	inj := injector.New(map[string]any{"greeting": "hello"}) // Set → lowest priority
//	inj.Register("greeting", "loud", injector.Fn(func() any { return nil }))
//	v, _ := inj.Get("greeting") // "hello": the producer yielded nil
//
// # Placement
//
//	inj.Register("a", "x", 1)
//	inj.Register("a", "y", 2, injector.Placement{Follows: "x"})
//	inj.Get("a") // 2: y is stored after x and evaluated before it
//
// Set is Register with the reserved identifier SetterIdentifier and
// Placement{Precedes: All}.
//
// # Injection
//
// Go does not keep parameter names at runtime, so producers and callbacks
// declare them next to the function:
//
//	openDB := injector.Fn(func(dsn string, kw injector.Kwargs) (*sql.DB, error) {
//	    return sql.Open(kw["driver"].(string), dsn)
//	}, injector.Arg("dsn"), injector.Key("driver"))
//
// Each parameter is bound from the overrides by index, then by name, then by
// Get(name). Optional parameters (OptArg, OptKey) stay unbound when their
// key is not registered. Named parameters arrive together in a trailing
// Kwargs argument. Variadic functions cannot be injected.
//
// # Callbacks
//
//	inj.OnResolved("db", injector.Fn(func(db *sql.DB, kw injector.Kwargs) {
//	    log.Printf("db from rule %s", kw["method"])
//	}, injector.Arg("db"), injector.Key("method")))
//
// # Caveats
//
// Remove does not evict memoized values. Resolution is re-entrant and, unless
// WithCycleDetection is given, a producer asking for its own key recurses
// without limit.
package injector
