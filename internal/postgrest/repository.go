// Package postgrest is the Supabase-backed store: the same tables as the
// sqlite backend, reached through the PostgREST API instead of a local file.
package postgrest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/supabase-community/postgrest-go"
	"github.com/supabase-community/supabase-go"

	"habits/internal/core"
)

type Repository struct {
	client *supabase.Client
}

// New builds a repository over a Supabase project. The key is expected to
// be a service-role key; the service is single tenant and does its own
// token check at the HTTP edge.
func New(apiURL, apiKey string) (*Repository, error) {
	client, err := supabase.NewClient(apiURL, apiKey, &supabase.ClientOptions{})
	if err != nil {
		return nil, fmt.Errorf("create supabase client: %w", err)
	}
	return &Repository{client: client}, nil
}

type templateRow struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	StartTime string    `json:"start_time"`
	EndTime   string    `json:"end_time"`
	CreatedAt time.Time `json:"created_at"`
}

// templateWrite omits server-managed columns so an upsert never clobbers
// created_at.
type templateWrite struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Category  string `json:"category"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

type completionRow struct {
	ActionID string `json:"action_id"`
	DateKey  string `json:"date_key"`
}

// ListTemplates implements store.TemplateStore.
func (r *Repository) ListTemplates(ctx context.Context) ([]core.ActionTemplate, error) {
	resp, _, err := r.client.From("action_templates").
		Select("id,name,category,start_time,end_time,created_at", "", false).
		Order("created_at", &postgrest.OrderOpts{Ascending: true}).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}

	var rows []templateRow
	if err := json.Unmarshal(resp, &rows); err != nil {
		return nil, fmt.Errorf("decode templates: %w", err)
	}

	out := make([]core.ActionTemplate, len(rows))
	for i, row := range rows {
		out[i] = core.ActionTemplate{
			ID:        row.ID,
			Name:      row.Name,
			Category:  core.ParseCategory(row.Category),
			StartTime: row.StartTime,
			EndTime:   row.EndTime,
			CreatedAt: row.CreatedAt,
		}
	}
	return out, nil
}

// UpsertTemplate implements store.TemplateStore.
func (r *Repository) UpsertTemplate(ctx context.Context, t core.ActionTemplate) error {
	row := templateWrite{
		ID:        t.ID,
		Name:      t.Name,
		Category:  string(t.Category),
		StartTime: t.StartTime,
		EndTime:   t.EndTime,
	}
	_, _, err := r.client.From("action_templates").
		Insert(row, true, "id", "", "").
		Execute()
	if err != nil {
		return fmt.Errorf("upsert template: %w", err)
	}

	slog.InfoContext(ctx, "Template saved to Supabase", "id", t.ID, "name", t.Name)
	return nil
}

// DeleteTemplate implements store.TemplateStore. Logs go first so a failed
// second step never leaves orphaned records pointing at a live template.
func (r *Repository) DeleteTemplate(ctx context.Context, id string) error {
	if _, _, err := r.client.From("action_logs").
		Delete("", "").
		Eq("action_id", id).
		Execute(); err != nil {
		return fmt.Errorf("delete template logs: %w", err)
	}

	if _, _, err := r.client.From("action_templates").
		Delete("", "").
		Eq("id", id).
		Execute(); err != nil {
		return fmt.Errorf("delete template: %w", err)
	}

	slog.InfoContext(ctx, "Template deleted from Supabase with its logs", "id", id)
	return nil
}

// ListCompletions implements store.CompletionStore.
func (r *Repository) ListCompletions(ctx context.Context, dateKey string) ([]core.CompletionRecord, error) {
	resp, _, err := r.client.From("action_logs").
		Select("action_id,date_key", "", false).
		Eq("date_key", dateKey).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("list completions: %w", err)
	}
	return decodeCompletions(resp)
}

// ListCompletionsInRange implements store.CompletionStore with a closed
// range query.
func (r *Repository) ListCompletionsInRange(ctx context.Context, from, to string) ([]core.CompletionRecord, error) {
	resp, _, err := r.client.From("action_logs").
		Select("action_id,date_key", "", false).
		Gte("date_key", from).
		Lte("date_key", to).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("list completions in range: %w", err)
	}
	return decodeCompletions(resp)
}

func decodeCompletions(resp []byte) ([]core.CompletionRecord, error) {
	var rows []completionRow
	if err := json.Unmarshal(resp, &rows); err != nil {
		return nil, fmt.Errorf("decode completions: %w", err)
	}
	out := make([]core.CompletionRecord, len(rows))
	for i, row := range rows {
		out[i] = core.CompletionRecord{ActionID: row.ActionID, DateKey: row.DateKey}
	}
	return out, nil
}

// UpsertCompletion implements store.CompletionStore. The unique pair
// constraint makes double-checking idempotent.
func (r *Repository) UpsertCompletion(ctx context.Context, rec core.CompletionRecord) error {
	row := completionRow{ActionID: rec.ActionID, DateKey: rec.DateKey}
	_, _, err := r.client.From("action_logs").
		Insert(row, true, "action_id,date_key", "", "").
		Execute()
	if err != nil {
		return fmt.Errorf("upsert completion: %w", err)
	}
	return nil
}

// DeleteCompletion implements store.CompletionStore.
func (r *Repository) DeleteCompletion(ctx context.Context, rec core.CompletionRecord) error {
	_, _, err := r.client.From("action_logs").
		Delete("", "").
		Eq("action_id", rec.ActionID).
		Eq("date_key", rec.DateKey).
		Execute()
	if err != nil {
		return fmt.Errorf("delete completion: %w", err)
	}
	return nil
}

type planRow struct {
	DateKey   string          `json:"date_key"`
	Status    string          `json:"status"`
	Plan      json.RawMessage `json:"plan"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type planWrite struct {
	DateKey string          `json:"date_key"`
	Status  string          `json:"status"`
	Plan    json.RawMessage `json:"plan"`
}

type planPayload struct {
	Items []core.PlanItem `json:"items"`
}

// GetPlan implements store.PlanStore.
func (r *Repository) GetPlan(ctx context.Context, dateKey string) (*core.DailyPlan, error) {
	resp, _, err := r.client.From("daily_plans").
		Select("date_key,status,plan,created_at,updated_at", "", false).
		Eq("date_key", dateKey).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("get plan: %w", err)
	}

	var rows []planRow
	if err := json.Unmarshal(resp, &rows); err != nil {
		return nil, fmt.Errorf("decode plan: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	var payload planPayload
	if len(rows[0].Plan) > 0 {
		if err := json.Unmarshal(rows[0].Plan, &payload); err != nil {
			return nil, fmt.Errorf("decode plan items: %w", err)
		}
	}

	return &core.DailyPlan{
		DateKey:   rows[0].DateKey,
		Status:    core.PlanStatus(rows[0].Status),
		Items:     payload.Items,
		CreatedAt: rows[0].CreatedAt,
		UpdatedAt: rows[0].UpdatedAt,
	}, nil
}

// UpsertPlan implements store.PlanStore.
func (r *Repository) UpsertPlan(ctx context.Context, p core.DailyPlan) error {
	payload, err := json.Marshal(planPayload{Items: p.Items})
	if err != nil {
		return fmt.Errorf("encode plan items: %w", err)
	}

	row := planWrite{
		DateKey: p.DateKey,
		Status:  string(p.Status),
		Plan:    payload,
	}
	_, _, err = r.client.From("daily_plans").
		Insert(row, true, "date_key", "", "").
		Execute()
	if err != nil {
		return fmt.Errorf("upsert plan: %w", err)
	}

	slog.InfoContext(ctx, "Daily plan saved to Supabase",
		"date_key", p.DateKey,
		"status", p.Status,
		"items", len(p.Items))
	return nil
}
