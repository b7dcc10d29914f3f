package services

import (
	"context"
	"fmt"
	"time"

	"habits/internal/core"
	"habits/internal/store"
)

// PlanService manages the denormalized per-day plan snapshot.
type PlanService struct {
	store store.Store
}

func NewPlanService(st store.Store) *PlanService {
	return &PlanService{store: st}
}

// GetPlan returns the plan stored for dateKey, or nil when none exists.
func (s *PlanService) GetPlan(ctx context.Context, dateKey string) (*core.DailyPlan, error) {
	if !core.IsDateKey(dateKey) {
		return nil, core.ErrInvalidDateKey
	}
	return s.store.GetPlan(ctx, dateKey)
}

// PutPlan replaces the plan for plan.DateKey wholesale. Item times are
// clamped on the way in; structural problems are rejected.
func (s *PlanService) PutPlan(ctx context.Context, plan core.DailyPlan) (core.DailyPlan, error) {
	plan = plan.Normalize()
	if err := plan.Validate(); err != nil {
		return core.DailyPlan{}, err
	}
	now := time.Now().UTC()
	if plan.CreatedAt.IsZero() {
		plan.CreatedAt = now
	}
	plan.UpdatedAt = now
	if err := s.store.UpsertPlan(ctx, plan); err != nil {
		return core.DailyPlan{}, fmt.Errorf("save plan: %w", err)
	}
	return plan, nil
}

// GenerateDraft builds a draft plan for dateKey from the current templates,
// one item per template in creation order, and saves it. An existing plan
// for the day is replaced.
func (s *PlanService) GenerateDraft(ctx context.Context, dateKey string) (core.DailyPlan, error) {
	if !core.IsDateKey(dateKey) {
		return core.DailyPlan{}, core.ErrInvalidDateKey
	}

	templates, err := s.store.ListTemplates(ctx)
	if err != nil {
		return core.DailyPlan{}, fmt.Errorf("load templates for draft: %w", err)
	}

	items := make([]core.PlanItem, 0, len(templates))
	for i, t := range templates {
		items = append(items, core.PlanItem{
			ID:       t.ID,
			Name:     t.Name,
			Time:     core.ClampTimeOfDay(t.StartTime),
			Done:     false,
			Reason:   "registered routine",
			Priority: i + 1,
		})
	}

	now := time.Now().UTC()
	plan := core.DailyPlan{
		DateKey:   dateKey,
		Status:    core.PlanDraft,
		Items:     items,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.UpsertPlan(ctx, plan); err != nil {
		return core.DailyPlan{}, fmt.Errorf("save draft plan: %w", err)
	}
	return plan, nil
}
