// Package store keeps the session's filter rules in memory.
package store

import (
	"fmt"
	"sync"

	"github.com/John-Robertt/bgpfilter-go/internal/model"
)

// IndexError is returned when a position or id does not address a rule.
type IndexError struct {
	Index int
	Len   int
	ID    string // set by the id-based helpers
}

func (e *IndexError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.ID != "" {
		return fmt.Sprintf("RULE_NOT_FOUND: no rule with id %q", e.ID)
	}
	return fmt.Sprintf("RULE_NOT_FOUND: index %d out of range [0,%d)", e.Index, e.Len)
}

// AppError renders the failure as an API payload.
func (e *IndexError) AppError() model.AppError {
	app := model.AppError{
		Code:    "RULE_NOT_FOUND",
		Message: "规则不存在",
		Stage:   "store",
	}
	if e.ID != "" {
		app.Snippet = e.ID
	}
	return app
}

// Store is an ordered list of rules. Order is insertion order and only
// matters for display numbering.
//
// The zero value is ready to use.
type Store struct {
	mu    sync.RWMutex
	rules []model.FilterRule
}

// New returns a store holding a copy of seed, in order.
func New(seed ...model.FilterRule) *Store {
	s := &Store{}
	s.rules = append(s.rules, seed...)
	return s
}

// Add appends r. The caller must have populated r.ID.
func (s *Store) Add(r model.FilterRule) {
	s.mu.Lock()
	s.rules = append(s.rules, r)
	s.mu.Unlock()
}

// Append adds rules in order under one lock, so readers never observe a
// partial import.
func (s *Store) Append(rules ...model.FilterRule) {
	if len(rules) == 0 {
		return
	}
	s.mu.Lock()
	s.rules = append(s.rules, rules...)
	s.mu.Unlock()
}

// Update replaces the rule at index in place. The rule keeps the id that is
// already stored at that position.
func (s *Store) Update(index int, r model.FilterRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.rules) {
		return &IndexError{Index: index, Len: len(s.rules)}
	}
	r.ID = s.rules[index].ID
	s.rules[index] = r
	return nil
}

// RemoveAt deletes the rule at index and shifts the following rules down.
func (s *Store) RemoveAt(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.rules) {
		return &IndexError{Index: index, Len: len(s.rules)}
	}
	s.rules = append(s.rules[:index], s.rules[index+1:]...)
	return nil
}

// Clear drops every rule. There is no undo.
func (s *Store) Clear() {
	s.mu.Lock()
	s.rules = nil
	s.mu.Unlock()
}

// All returns a copy of the rules in store order.
func (s *Store) All() []model.FilterRule {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.FilterRule, len(s.rules))
	copy(out, s.rules)
	return out
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rules)
}

// Stats is recomputed on every call.
func (s *Store) Stats() model.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return model.ComputeStats(s.rules)
}

// IndexOf returns the current position of id, or -1.
func (s *Store) IndexOf(id string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.indexOfLocked(id)
}

func (s *Store) indexOfLocked(id string) int {
	for i, r := range s.rules {
		if r.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) Get(id string) (model.FilterRule, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.indexOfLocked(id)
	if i < 0 {
		return model.FilterRule{}, false
	}
	return s.rules[i], true
}

// UpdateByID resolves id to its current position and updates it. The lookup
// and the write happen under the same lock.
func (s *Store) UpdateByID(id string, r model.FilterRule) (model.FilterRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOfLocked(id)
	if i < 0 {
		return model.FilterRule{}, &IndexError{Index: -1, Len: len(s.rules), ID: id}
	}
	r.ID = id
	s.rules[i] = r
	return r, nil
}

func (s *Store) RemoveByID(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOfLocked(id)
	if i < 0 {
		return &IndexError{Index: -1, Len: len(s.rules), ID: id}
	}
	s.rules = append(s.rules[:i], s.rules[i+1:]...)
	return nil
}
