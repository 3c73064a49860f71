package injector

import "github.com/google/uuid"

const (
	// All is the wildcard identifier used by placement hints and Remove.
	All = ":all"

	// SetterIdentifier tags rules installed through Set.
	SetterIdentifier = ":setter"
)

// Placement asks for a rule to sit before or after other rules under the same
// key. Either field may name another rule's identifier or All.
//
// Placement is a request. It is applied once, when the rule is inserted, and
// contradictory requests are not reconciled.
type Placement struct {
	Precedes string
	Follows  string
}

// Rule is one candidate provider for a key. Its value is either a literal or
// a producer built with Fn.
type Rule struct {
	key        string
	identifier string
	value      any
	placement  Placement
}

// NewRule builds an immutable rule. An empty identifier is replaced by a
// fresh one so that every registration can be told apart.
//
//	r := injector.NewRule("db", "postgres", injector.Fn(openDB, injector.Arg("dsn")))
func NewRule(key, identifier string, value any, placement ...Placement) *Rule {
	if identifier == "" {
		identifier = uuid.NewString()
	}
	var p Placement
	if len(placement) > 0 {
		p = placement[0]
	}
	return &Rule{key: key, identifier: identifier, value: value, placement: p}
}

func (r *Rule) Key() string          { return r.key }
func (r *Rule) Identifier() string   { return r.identifier }
func (r *Rule) Value() any           { return r.value }
func (r *Rule) Placement() Placement { return r.placement }

// Producer reports the rule's producer, or nil when the value is a literal.
func (r *Rule) Producer() *Func {
	fn, _ := r.value.(*Func)
	return fn
}

// precedes reports whether r asks to be ordered before other, either because
// r precedes it or because other follows r.
func (r *Rule) precedes(other *Rule) bool {
	return matches(r.placement.Precedes, other.identifier) ||
		matches(other.placement.Follows, r.identifier)
}

func matches(hint, identifier string) bool {
	return hint != "" && (hint == All || hint == identifier)
}
