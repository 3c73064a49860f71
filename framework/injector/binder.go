package injector

import (
	"fmt"
	"reflect"
	"runtime"
)

// ── Parameter descriptors ─────────────────────────────────────────────────────

// Kind describes how a function parameter is bound and passed.
type Kind int

const (
	// Positional parameters are required and passed in declared order.
	Positional Kind = iota
	// OptionalPositional parameters are left at their zero value when the
	// key is not registered.
	OptionalPositional
	// Named parameters are required and collected into a trailing Kwargs.
	Named
	// OptionalNamed parameters are omitted from Kwargs when the key is not
	// registered.
	OptionalNamed
	// Rest captures a variadic remainder. It cannot be injected.
	Rest
)

func (k Kind) String() string {
	switch k {
	case Positional:
		return "positional"
	case OptionalPositional:
		return "optional positional"
	case Named:
		return "named"
	case OptionalNamed:
		return "optional named"
	case Rest:
		return "rest"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Param names one parameter of an injectable function. Go does not expose
// parameter names at runtime, so every function carries its descriptors.
type Param struct {
	Name string
	Kind Kind
}

func (p Param) optional() bool { return p.Kind == OptionalPositional || p.Kind == OptionalNamed }
func (p Param) named() bool    { return p.Kind == Named || p.Kind == OptionalNamed }

func Arg(name string) Param    { return Param{Name: name, Kind: Positional} }
func OptArg(name string) Param { return Param{Name: name, Kind: OptionalPositional} }
func Key(name string) Param    { return Param{Name: name, Kind: Named} }
func OptKey(name string) Param { return Param{Name: name, Kind: OptionalNamed} }
func RestOf(name string) Param { return Param{Name: name, Kind: Rest} }

// Kwargs carries every named parameter of a call. It is always the last
// argument of a function that declares at least one Named or OptionalNamed
// parameter.
type Kwargs map[string]any

// Overrides preempts resolution during binding. Keys are either an int
// (parameter index) or a string (parameter name); the index wins.
type Overrides map[any]any

// ── Func ──────────────────────────────────────────────────────────────────────

// Func is a Go function paired with its parameter descriptors. A *Func stored
// as a rule value is a producer.
//
//	injector.Fn(func(dsn string, kw injector.Kwargs) (*sql.DB, error) {
//	    return sql.Open(kw["driver"].(string), dsn)
//	}, injector.Arg("dsn"), injector.Key("driver"))
type Func struct {
	fn     reflect.Value
	params []Param
}

// Fn wraps fn for injection. Descriptors are checked when the function is
// first invoked, so a bad declaration surfaces from Inject or Get.
func Fn(fn any, params ...Param) *Func {
	return &Func{fn: reflect.ValueOf(fn), params: params}
}

// Params returns the declared parameter descriptors.
func (f *Func) Params() []Param { return append([]Param(nil), f.params...) }

// Location reports where the wrapped function was declared, if known.
func (f *Func) Location() string {
	if f.fn.Kind() != reflect.Func {
		return ""
	}
	rf := runtime.FuncForPC(f.fn.Pointer())
	if rf == nil {
		return ""
	}
	file, line := rf.FileLine(rf.Entry())
	return fmt.Sprintf("%s (%s:%d)", rf.Name(), file, line)
}

func (f *Func) String() string {
	if !f.fn.IsValid() {
		return "<nil>"
	}
	if loc := f.Location(); loc != "" {
		return loc
	}
	return fmt.Sprintf("%T", f.fn.Interface())
}

var (
	kwargsType = reflect.TypeOf(Kwargs{})
	errorType  = reflect.TypeOf((*error)(nil)).Elem()
)

// validate checks the descriptors against the function's signature.
func (f *Func) validate() error {
	if f.fn.Kind() != reflect.Func || f.fn.IsNil() {
		return &InvalidParameterError{Param: fmt.Sprintf("%v", f.fn), Reason: "value is not a function"}
	}
	t := f.fn.Type()

	positional, named := 0, 0
	for _, p := range f.params {
		switch {
		case p.Kind == Rest:
			return &InvalidParameterError{
				Param:    ":" + p.Name,
				Location: f.Location(),
				Reason:   "splat arguments are not permitted when injecting",
			}
		case p.named():
			named++
		default:
			positional++
		}
	}
	if t.IsVariadic() {
		name := "..."
		if len(f.params) > 0 {
			name = ":" + f.params[len(f.params)-1].Name
		}
		return &InvalidParameterError{
			Param:    name,
			Location: f.Location(),
			Reason:   "splat arguments are not permitted when injecting",
		}
	}

	want := positional
	if named > 0 {
		want++
	}
	if t.NumIn() != want {
		return &InvalidParameterError{
			Param:    fmt.Sprintf("%d descriptors for %d arguments", len(f.params), t.NumIn()),
			Location: f.Location(),
			Reason:   "parameter descriptors do not match the function",
		}
	}
	if named > 0 && !kwargsType.AssignableTo(t.In(want-1)) {
		return &InvalidParameterError{
			Param:    t.In(want - 1).String(),
			Location: f.Location(),
			Reason:   "named parameters need a trailing Kwargs argument",
		}
	}

	switch t.NumOut() {
	case 0, 1:
	case 2:
		if t.Out(1) != errorType {
			return &InvalidParameterError{Param: t.Out(1).String(), Location: f.Location(), Reason: "second result must be error"}
		}
	default:
		return &InvalidParameterError{Param: t.String(), Location: f.Location(), Reason: "too many results"}
	}
	return nil
}

// ── Binding ───────────────────────────────────────────────────────────────────

// Inject calls fn with its parameters bound, each by overrides[index], then
// overrides[name], then Get(name). An optional parameter whose key is not
// registered is left unbound. Errors returned by fn itself are passed
// through untouched.
//
//	inj.Inject(injector.Overrides{0: 40}, injector.Fn(func(x int) int { return x + 2 }, injector.Arg("x")))
func (inj *Injector) Inject(overrides Overrides, fn *Func) (any, error) {
	h, release := inj.acquire()
	defer release()
	return h.inject(overrides, fn)
}

func (inj *Injector) inject(overrides Overrides, fn *Func) (any, error) {
	if fn == nil {
		return nil, &InvalidParameterError{Param: "<nil>", Reason: "value is not a function"}
	}
	if err := fn.validate(); err != nil {
		return nil, err
	}
	t := fn.fn.Type()

	args := make([]reflect.Value, 0, t.NumIn())
	var kwargs Kwargs

	for i, p := range fn.params {
		value, bound, err := inj.bind(overrides, i, p)
		if err != nil {
			return nil, err
		}

		if p.named() {
			if kwargs == nil {
				kwargs = Kwargs{}
			}
			if bound {
				kwargs[p.Name] = value
			}
			continue
		}

		argType := t.In(len(args))
		if !bound {
			args = append(args, reflect.Zero(argType))
			continue
		}
		arg, err := coerce(p.Name, value, argType)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}
	if kwargs != nil {
		args = append(args, reflect.ValueOf(kwargs).Convert(t.In(len(args))))
	}

	return results(fn.fn.Call(args))
}

func (inj *Injector) bind(overrides Overrides, index int, p Param) (any, bool, error) {
	if v, ok := overrides[index]; ok {
		return v, true, nil
	}
	if v, ok := overrides[p.Name]; ok {
		return v, true, nil
	}
	v, err := inj.Get(p.Name)
	if err != nil {
		if p.optional() && IsKeyNotRegistered(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return v, true, nil
}

func coerce(name string, value any, to reflect.Type) (reflect.Value, error) {
	if value == nil {
		return reflect.Zero(to), nil
	}
	v := reflect.ValueOf(value)
	if v.Type().AssignableTo(to) {
		return v, nil
	}
	return reflect.Value{}, &BindError{Param: name, Want: to.String(), Got: v.Type().String()}
}

func results(out []reflect.Value) (any, error) {
	switch len(out) {
	case 0:
		return nil, nil
	case 1:
		if out[0].Type() == errorType {
			err, _ := out[0].Interface().(error)
			return nil, err
		}
		return out[0].Interface(), nil
	default:
		err, _ := out[1].Interface().(error)
		return out[0].Interface(), err
	}
}

// isEmpty reports whether v is the empty sentinel: nil, or a nil value of a
// nillable kind.
func isEmpty(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
