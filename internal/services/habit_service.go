package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"habits/internal/core"
	"habits/internal/store"
)

// JournalPublisher announces completion changes to the journal queue.
// *amqp.Client satisfies it; tests use fakes.
type JournalPublisher interface {
	PublishCompletionSync(ctx context.Context, actionID, dateKey string, removed bool) error
}

// HabitService orchestrates template and completion operations over the
// store and publishes journal sync messages for the worker.
type HabitService struct {
	store store.Store
	queue JournalPublisher
}

func NewHabitService(st store.Store, queue JournalPublisher) *HabitService {
	return &HabitService{store: st, queue: queue}
}

// ListTemplates returns every template in creation order.
func (s *HabitService) ListTemplates(ctx context.Context) ([]core.ActionTemplate, error) {
	return s.store.ListTemplates(ctx)
}

// UpsertTemplate normalizes, validates and saves a template. A missing id
// gets a generated one; malformed times are clamped, never rejected.
func (s *HabitService) UpsertTemplate(ctx context.Context, t core.ActionTemplate) (core.ActionTemplate, error) {
	if strings.TrimSpace(t.ID) == "" {
		t.ID = uuid.NewString()
	}
	t = t.Normalize()
	if err := t.Validate(); err != nil {
		return core.ActionTemplate{}, err
	}
	if err := s.store.UpsertTemplate(ctx, t); err != nil {
		return core.ActionTemplate{}, fmt.Errorf("save template: %w", err)
	}
	return t, nil
}

// DeleteTemplate removes a template; the store deletes its completion
// records first.
func (s *HabitService) DeleteTemplate(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return core.ErrEmptyTemplateID
	}
	if err := s.store.DeleteTemplate(ctx, id); err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	return nil
}

// ListCompletions returns the completions recorded for a single day.
func (s *HabitService) ListCompletions(ctx context.Context, dateKey string) ([]core.CompletionRecord, error) {
	if _, err := core.ParseDateKey(dateKey); err != nil {
		return nil, err
	}
	return s.store.ListCompletions(ctx, dateKey)
}

// RecordCompletion checks an action for a day. Recording twice leaves one
// record. The journal publish is best effort: the check already succeeded
// locally and the worker's pending scan covers lost messages.
func (s *HabitService) RecordCompletion(ctx context.Context, rec core.CompletionRecord) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	if err := s.store.UpsertCompletion(ctx, rec); err != nil {
		return fmt.Errorf("record completion: %w", err)
	}
	s.publish(ctx, rec, false)
	return nil
}

// RemoveCompletion unchecks an action for a day.
func (s *HabitService) RemoveCompletion(ctx context.Context, rec core.CompletionRecord) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	if err := s.store.DeleteCompletion(ctx, rec); err != nil {
		return fmt.Errorf("remove completion: %w", err)
	}
	s.publish(ctx, rec, true)
	return nil
}

func (s *HabitService) publish(ctx context.Context, rec core.CompletionRecord, removed bool) {
	if s.queue == nil {
		return
	}
	if err := s.queue.PublishCompletionSync(ctx, rec.ActionID, rec.DateKey, removed); err != nil {
		slog.ErrorContext(ctx, "Failed to publish completion sync message",
			"action_id", rec.ActionID,
			"date_key", rec.DateKey,
			"removed", removed,
			"error", err)
		// Intentionally not returned: the local write already succeeded.
	}
}

// WeekStats computes the Monday..Sunday scoreboard for the week containing
// dateKey. A template-lookup failure propagates; the tally itself folds
// unknown actions into the default category.
func (s *HabitService) WeekStats(ctx context.Context, dateKey string) (core.WeekRange, map[core.Category]core.CategoryTally, error) {
	week, err := core.WeekRangeOf(dateKey)
	if err != nil {
		return core.WeekRange{}, nil, err
	}

	records, err := s.store.ListCompletionsInRange(ctx, week.Start, week.End)
	if err != nil {
		return core.WeekRange{}, nil, fmt.Errorf("load week completions: %w", err)
	}

	templates, err := s.store.ListTemplates(ctx)
	if err != nil {
		return core.WeekRange{}, nil, fmt.Errorf("load templates for stats: %w", err)
	}

	tallies := core.WeeklyCategoryTally(records, core.LookupFromTemplates(templates))
	return week, tallies, nil
}
