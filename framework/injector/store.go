package injector

import (
	"slices"
	"sync"
)

// ruleStore holds the ordered rule sequence of every key.
type ruleStore struct {
	mu    sync.RWMutex
	rules map[string][]*Rule
}

func newRuleStore() *ruleStore {
	return &ruleStore{rules: make(map[string][]*Rule)}
}

// insert places r into its key's sequence.
//
// The ordering relation is not guaranteed to be total or transitive, so this
// is a single relative insertion and never a sort. r goes before the earliest
// rule it strictly precedes, otherwise after everything already present.
// Ties and unrelated pairs keep insertion order.
func (s *ruleStore) insert(r *Rule) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seq := s.rules[r.key]
	pos := len(seq)
	for i, existing := range seq {
		if r.precedes(existing) && !existing.precedes(r) {
			pos = i
			break
		}
	}
	s.rules[r.key] = slices.Insert(seq, pos, r)
}

// remove drops the rules tagged identifier (every rule for All). It reports
// whether the key had a sequence. An emptied sequence keeps the key known.
func (s *ruleStore) remove(key, identifier string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	seq, ok := s.rules[key]
	if !ok {
		return false
	}
	if identifier == All {
		s.rules[key] = []*Rule{}
		return true
	}
	s.rules[key] = slices.DeleteFunc(slices.Clone(seq), func(r *Rule) bool {
		return r.identifier == identifier
	})
	return true
}

// sequence returns a copy of key's rules in stored order.
func (s *ruleStore) sequence(key string) ([]*Rule, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seq, ok := s.rules[key]
	if !ok {
		return nil, false
	}
	return slices.Clone(seq), true
}

func (s *ruleStore) has(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.rules[key]
	return ok
}

// keys returns every key with a sequence, sorted.
func (s *ruleStore) keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.rules))
	for k := range s.rules {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}
