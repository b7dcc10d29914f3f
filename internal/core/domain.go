package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrEmptyTemplateID = errors.New("empty template id")
	ErrEmptyName       = errors.New("empty template name")
	ErrNameTooLong     = errors.New("template name too long (max 200 characters)")
	ErrEmptyActionID   = errors.New("empty action id")
)

type (
	// ActionTemplate is a user-defined recurring habit with a scheduled
	// time window.
	ActionTemplate struct {
		ID        string    `json:"id"`
		Name      string    `json:"name"`
		Category  Category  `json:"category"`
		StartTime string    `json:"start_time"`
		EndTime   string    `json:"end_time"`
		CreatedAt time.Time `json:"created_at,omitempty"`
	}

	// CompletionRecord is the fact "action X was completed on day Y".
	// At most one record exists per (ActionID, DateKey) pair; records are
	// created and deleted, never updated.
	CompletionRecord struct {
		ActionID string `json:"actionId"`
		DateKey  string `json:"dateKey"`
	}
)

// Normalize folds the category onto the closed set and clamps both times
// into [00:00, 23:59], substituting the fixed defaults when absent or
// malformed. It never fails.
func (t ActionTemplate) Normalize() ActionTemplate {
	t.Name = strings.TrimSpace(t.Name)
	t.Category = ParseCategory(string(t.Category))
	t.StartTime = ClampTimeOfDay(t.StartTime)
	end := strings.TrimSpace(t.EndTime)
	if end == "" {
		end = DefaultEndTime
	}
	t.EndTime = ClampTimeOfDay(end)
	return t
}

func (t ActionTemplate) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return ErrEmptyTemplateID
	}
	if strings.TrimSpace(t.Name) == "" {
		return ErrEmptyName
	}
	if len(t.Name) > 200 {
		return ErrNameTooLong
	}
	if !t.Category.IsValid() {
		return fmt.Errorf("unknown category %q", t.Category)
	}
	return nil
}

func (r CompletionRecord) Validate() error {
	if strings.TrimSpace(r.ActionID) == "" {
		return ErrEmptyActionID
	}
	if _, err := ParseDateKey(r.DateKey); err != nil {
		return err
	}
	return nil
}
