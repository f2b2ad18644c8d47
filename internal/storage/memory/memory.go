package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"fintrack/internal/core"
	"fintrack/internal/ports"
)

var _ ports.Store = (*Store)(nil)

// Store keeps every entity in process memory. Insertion order is preserved
// for rules and categories so listings are stable.
type Store struct {
	mu           sync.Mutex
	rules        []core.RecurringRule
	transactions []core.Transaction
	categories   []core.Category
	state        map[string]string
}

func New() *Store {
	return &Store{state: map[string]string{}}
}

func (s *Store) Close() error { return nil }

func (s *Store) ListRules(_ context.Context) ([]core.RecurringRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.RecurringRule(nil), s.rules...), nil
}

func (s *Store) GetRule(_ context.Context, id string) (core.RecurringRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.ruleIndex(id)
	if i < 0 {
		return core.RecurringRule{}, fmt.Errorf("rule %s: %w", id, ports.ErrNotFound)
	}
	return s.rules[i], nil
}

// SaveRule inserts or replaces a rule by ID. A stored LastAppliedDate is
// never moved backwards.
func (s *Store) SaveRule(_ context.Context, r core.RecurringRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.ruleIndex(r.ID); i >= 0 {
		if last := s.rules[i].LastAppliedDate; !last.IsZero() && last.String() > r.LastAppliedDate.String() {
			r.LastAppliedDate = last
		}
		s.rules[i] = r
		return nil
	}
	s.rules = append(s.rules, r)
	return nil
}

func (s *Store) DeleteRule(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.ruleIndex(id)
	if i < 0 {
		return fmt.Errorf("rule %s: %w", id, ports.ErrNotFound)
	}
	s.rules = append(s.rules[:i], s.rules[i+1:]...)
	return nil
}

func (s *Store) MarkApplied(_ context.Context, id string, day core.Date) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.ruleIndex(id)
	if i < 0 {
		return fmt.Errorf("rule %s: %w", id, ports.ErrNotFound)
	}
	last := s.rules[i].LastAppliedDate
	if !last.IsZero() && last.String() >= day.String() {
		return nil
	}
	s.rules[i].LastAppliedDate = day
	return nil
}

func (s *Store) ruleIndex(id string) int {
	for i := range s.rules {
		if s.rules[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) AddTransaction(_ context.Context, t core.Transaction) error {
	if err := t.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.transactions {
		if existing.ID == t.ID {
			return fmt.Errorf("transaction %s: %w", t.ID, ports.ErrDuplicate)
		}
		if t.RecurringRuleID != "" && existing.RecurringRuleID == t.RecurringRuleID &&
			existing.Date.String() == t.Date.String() {
			return fmt.Errorf("rule %s on %s: %w", t.RecurringRuleID, t.Date, ports.ErrDuplicate)
		}
	}
	s.transactions = append(s.transactions, t)
	return nil
}

func (s *Store) DeleteTransaction(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.transactions {
		if s.transactions[i].ID == id {
			s.transactions = append(s.transactions[:i], s.transactions[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("transaction %s: %w", id, ports.ErrNotFound)
}

func (s *Store) GetTransaction(_ context.Context, id string) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.transactions {
		if t.ID == id {
			return t, nil
		}
	}
	return core.Transaction{}, fmt.Errorf("transaction %s: %w", id, ports.ErrNotFound)
}

func (s *Store) ListTransactions(_ context.Context, from, to core.Date) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lo, hi := from.String(), to.String()
	var out []core.Transaction
	for _, t := range s.transactions {
		d := t.Date.String()
		if lo != "" && d < lo {
			continue
		}
		if hi != "" && d > hi {
			continue
		}
		out = append(out, t)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.String() < out[j].Date.String() })
	return out, nil
}

func (s *Store) ListCategories(_ context.Context) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Category(nil), s.categories...), nil
}

func (s *Store) SaveCategory(_ context.Context, c core.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.categories {
		if s.categories[i].ID == c.ID {
			s.categories[i] = c
			return nil
		}
		if s.categories[i].Name == c.Name {
			return fmt.Errorf("category %q: %w", c.Name, ports.ErrDuplicate)
		}
	}
	s.categories = append(s.categories, c)
	return nil
}

func (s *Store) DeleteCategory(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.categories {
		if s.categories[i].ID == id {
			s.categories = append(s.categories[:i], s.categories[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("category %s: %w", id, ports.ErrNotFound)
}

func (s *Store) GetState(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.state[key]
	return v, ok, nil
}

func (s *Store) CompareAndSwapState(_ context.Context, key, prev, next string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.state[key]
	if prev == "" {
		if ok {
			return false, nil
		}
	} else if !ok || cur != prev {
		return false, nil
	}
	if next == "" {
		delete(s.state, key)
		return true, nil
	}
	s.state[key] = next
	return true, nil
}
