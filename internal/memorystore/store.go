// Package memorystore is an in-memory store backend used by tests and for
// running the server without any external dependency.
package memorystore

import (
	"context"
	"sort"
	"sync"
	"time"

	"habits/internal/core"
)

type completionKey struct {
	actionID string
	dateKey  string
}

type Store struct {
	mu          sync.Mutex
	templates   map[string]core.ActionTemplate
	seq         map[string]int // insertion order for stable listing
	nextSeq     int
	completions map[completionKey]bool // value: journaled
	plans       map[string]core.DailyPlan
}

func New() *Store {
	return &Store{
		templates:   make(map[string]core.ActionTemplate),
		seq:         make(map[string]int),
		completions: make(map[completionKey]bool),
		plans:       make(map[string]core.DailyPlan),
	}
}

func (s *Store) ListTemplates(ctx context.Context) ([]core.ActionTemplate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]core.ActionTemplate, 0, len(s.templates))
	for _, t := range s.templates {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		return s.seq[out[i].ID] < s.seq[out[j].ID]
	})
	return out, nil
}

func (s *Store) UpsertTemplate(ctx context.Context, t core.ActionTemplate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.templates[t.ID]; !exists {
		s.seq[t.ID] = s.nextSeq
		s.nextSeq++
		if t.CreatedAt.IsZero() {
			t.CreatedAt = time.Now()
		}
	} else if t.CreatedAt.IsZero() {
		t.CreatedAt = s.templates[t.ID].CreatedAt
	}
	s.templates[t.ID] = t
	return nil
}

func (s *Store) DeleteTemplate(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for k := range s.completions {
		if k.actionID == id {
			delete(s.completions, k)
		}
	}
	delete(s.templates, id)
	delete(s.seq, id)
	return nil
}

func (s *Store) ListCompletions(ctx context.Context, dateKey string) ([]core.CompletionRecord, error) {
	return s.ListCompletionsInRange(ctx, dateKey, dateKey)
}

func (s *Store) ListCompletionsInRange(ctx context.Context, from, to string) ([]core.CompletionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []core.CompletionRecord
	for k := range s.completions {
		if from <= k.dateKey && k.dateKey <= to {
			out = append(out, core.CompletionRecord{ActionID: k.actionID, DateKey: k.dateKey})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DateKey != out[j].DateKey {
			return out[i].DateKey < out[j].DateKey
		}
		return out[i].ActionID < out[j].ActionID
	})
	return out, nil
}

func (s *Store) UpsertCompletion(ctx context.Context, rec core.CompletionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := completionKey{actionID: rec.ActionID, dateKey: rec.DateKey}
	if _, exists := s.completions[k]; !exists {
		s.completions[k] = false
	}
	return nil
}

func (s *Store) DeleteCompletion(ctx context.Context, rec core.CompletionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.completions, completionKey{actionID: rec.ActionID, dateKey: rec.DateKey})
	return nil
}

func (s *Store) GetPlan(ctx context.Context, dateKey string) (*core.DailyPlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.plans[dateKey]
	if !ok {
		return nil, nil
	}
	cp := p
	cp.Items = append([]core.PlanItem(nil), p.Items...)
	return &cp, nil
}

func (s *Store) UpsertPlan(ctx context.Context, p core.DailyPlan) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if prev, ok := s.plans[p.DateKey]; ok {
		p.CreatedAt = prev.CreatedAt
	} else if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	p.Items = append([]core.PlanItem(nil), p.Items...)
	s.plans[p.DateKey] = p
	return nil
}

// ListUnjournaled implements store.JournalSource for worker tests.
func (s *Store) ListUnjournaled(ctx context.Context, limit int) ([]core.CompletionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []core.CompletionRecord
	for k, journaled := range s.completions {
		if !journaled {
			out = append(out, core.CompletionRecord{ActionID: k.actionID, DateKey: k.dateKey})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DateKey != out[j].DateKey {
			return out[i].DateKey < out[j].DateKey
		}
		return out[i].ActionID < out[j].ActionID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// MarkJournaled implements store.JournalSource.
func (s *Store) MarkJournaled(ctx context.Context, rec core.CompletionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := completionKey{actionID: rec.ActionID, dateKey: rec.DateKey}
	if _, exists := s.completions[k]; exists {
		s.completions[k] = true
	}
	return nil
}
