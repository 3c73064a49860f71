package injector

import "sync"

// afterFetch is the event fired once a key resolves to a non-empty value.
const afterFetch = "after_fetch"

// callbackTable maps event → key → callbacks in registration order.
// Callbacks are only ever appended.
type callbackTable struct {
	mu     sync.RWMutex
	events map[string]map[string][]*Func
}

func newCallbackTable() *callbackTable {
	return &callbackTable{events: make(map[string]map[string][]*Func)}
}

func (t *callbackTable) add(event, key string, fn *Func) {
	t.mu.Lock()
	defer t.mu.Unlock()
	byKey, ok := t.events[event]
	if !ok {
		byKey = make(map[string][]*Func)
		t.events[event] = byKey
	}
	byKey[key] = append(byKey[key], fn)
}

func (t *callbackTable) listeners(event, key string) []*Func {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]*Func(nil), t.events[event][key]...)
}

// OnResolved registers fn to run every time key resolves to a non-empty
// value. fn is injected with the value at index 0 and the identifier of the
// winning rule under the name "method"; any other parameter resolves
// normally. An empty key defaults to the name of fn's first parameter.
//
//	inj.OnResolved("", injector.Fn(func(db *sql.DB, kw injector.Kwargs) {
//	    log.Printf("db ready via %s", kw["method"])
//	}, injector.Arg("db"), injector.Key("method")))
func (inj *Injector) OnResolved(key string, fn *Func) error {
	if fn == nil {
		return &InvalidParameterError{Param: "<nil>", Reason: "value is not a function"}
	}
	if key == "" {
		if len(fn.params) == 0 {
			return &InvalidParameterError{
				Param:    "<none>",
				Location: fn.Location(),
				Reason:   "callback without a key must declare a parameter",
			}
		}
		key = fn.params[0].Name
	}
	_, release := inj.acquire()
	defer release()
	inj.callbacks.add(afterFetch, key, fn)
	inj.log.Debug("callback registered", "event", afterFetch, "key", key)
	return nil
}

// fire runs every callback registered for (event, key).
func (inj *Injector) fire(event, key string, value any, identifier string) error {
	for _, fn := range inj.callbacks.listeners(event, key) {
		if _, err := inj.Inject(Overrides{0: value, "method": identifier}, fn); err != nil {
			return err
		}
	}
	return nil
}
