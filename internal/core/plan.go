package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	PlanDraft     PlanStatus = "draft"
	PlanConfirmed PlanStatus = "confirmed"
)

type (
	PlanStatus string

	// PlanItem is one entry of a per-day plan snapshot.
	PlanItem struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		Time     string `json:"time"`
		Done     bool   `json:"done"`
		Reason   string `json:"reason,omitempty"`
		Priority int    `json:"priority,omitempty"`
	}

	// DailyPlan is a denormalized ordered snapshot of planned items for a
	// single date key. It is upserted wholesale; there is no per-item
	// history. On the wire the item list travels under "plan".
	DailyPlan struct {
		DateKey   string     `json:"dateKey"`
		Status    PlanStatus `json:"status"`
		Items     []PlanItem `json:"plan"`
		CreatedAt time.Time  `json:"created_at,omitempty"`
		UpdatedAt time.Time  `json:"updated_at,omitempty"`
	}
)

var (
	ErrInvalidPlanStatus = errors.New("plan status must be 'draft' or 'confirmed'")
	ErrEmptyPlanItemName = errors.New("empty plan item name")
)

func (s PlanStatus) IsValid() bool {
	return s == PlanDraft || s == PlanConfirmed
}

// Normalize clamps every item time into a displayable wall-clock value.
func (p DailyPlan) Normalize() DailyPlan {
	items := make([]PlanItem, len(p.Items))
	for i, it := range p.Items {
		it.Name = strings.TrimSpace(it.Name)
		it.Time = ClampTimeOfDay(it.Time)
		items[i] = it
	}
	p.Items = items
	return p
}

func (p DailyPlan) Validate() error {
	if !IsDateKey(p.DateKey) {
		return fmt.Errorf("%w: %q", ErrInvalidDateKey, p.DateKey)
	}
	if !p.Status.IsValid() {
		return ErrInvalidPlanStatus
	}
	for i, it := range p.Items {
		if strings.TrimSpace(it.Name) == "" {
			return fmt.Errorf("item %d: %w", i, ErrEmptyPlanItemName)
		}
	}
	return nil
}
