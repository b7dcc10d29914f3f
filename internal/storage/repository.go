package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"habits/internal/core"

	_ "modernc.org/sqlite"
)

// Repository is the SQLite implementation of the store ports plus the
// journal source used by the sync worker.
type Repository struct {
	db *sql.DB
}

func NewRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// ListTemplates implements store.TemplateStore.
func (r *Repository) ListTemplates(ctx context.Context) ([]core.ActionTemplate, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, category, start_time, end_time, created_at
		 FROM action_templates ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	var out []core.ActionTemplate
	for rows.Next() {
		var t core.ActionTemplate
		var category string
		if err := rows.Scan(&t.ID, &t.Name, &category, &t.StartTime, &t.EndTime, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		t.Category = core.ParseCategory(category)
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate templates: %w", err)
	}
	return out, nil
}

// UpsertTemplate implements store.TemplateStore. Last write wins.
func (r *Repository) UpsertTemplate(ctx context.Context, t core.ActionTemplate) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO action_templates (id, name, category, start_time, end_time)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   name = excluded.name,
		   category = excluded.category,
		   start_time = excluded.start_time,
		   end_time = excluded.end_time`,
		t.ID, t.Name, string(t.Category), t.StartTime, t.EndTime)
	if err != nil {
		return fmt.Errorf("upsert template: %w", err)
	}

	slog.InfoContext(ctx, "Template saved",
		"id", t.ID,
		"name", t.Name,
		"category", t.Category)
	return nil
}

// DeleteTemplate implements store.TemplateStore. Completion records go
// first inside one transaction; the cleanup is deliberate application
// logic, not a foreign-key cascade.
func (r *Repository) DeleteTemplate(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete template: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM action_logs WHERE action_id = ?`, id); err != nil {
		return fmt.Errorf("delete template logs: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM action_templates WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete template: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete template: %w", err)
	}

	slog.InfoContext(ctx, "Template deleted with its logs", "id", id)
	return nil
}

// ListCompletions implements store.CompletionStore.
func (r *Repository) ListCompletions(ctx context.Context, dateKey string) ([]core.CompletionRecord, error) {
	return r.queryCompletions(ctx,
		`SELECT action_id, date_key FROM action_logs WHERE date_key = ? ORDER BY action_id`,
		dateKey)
}

// ListCompletionsInRange implements store.CompletionStore. The range is
// closed on both ends.
func (r *Repository) ListCompletionsInRange(ctx context.Context, from, to string) ([]core.CompletionRecord, error) {
	return r.queryCompletions(ctx,
		`SELECT action_id, date_key FROM action_logs
		 WHERE date_key >= ? AND date_key <= ?
		 ORDER BY date_key, action_id`,
		from, to)
}

func (r *Repository) queryCompletions(ctx context.Context, query string, args ...any) ([]core.CompletionRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list completions: %w", err)
	}
	defer rows.Close()

	var out []core.CompletionRecord
	for rows.Next() {
		var rec core.CompletionRecord
		if err := rows.Scan(&rec.ActionID, &rec.DateKey); err != nil {
			return nil, fmt.Errorf("scan completion: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate completions: %w", err)
	}
	return out, nil
}

// UpsertCompletion implements store.CompletionStore. Re-checking an
// already-checked day is a no-op thanks to the (action_id, date_key)
// primary key.
func (r *Repository) UpsertCompletion(ctx context.Context, rec core.CompletionRecord) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO action_logs (action_id, date_key) VALUES (?, ?)
		 ON CONFLICT(action_id, date_key) DO NOTHING`,
		rec.ActionID, rec.DateKey)
	if err != nil {
		return fmt.Errorf("upsert completion: %w", err)
	}
	return nil
}

// DeleteCompletion implements store.CompletionStore.
func (r *Repository) DeleteCompletion(ctx context.Context, rec core.CompletionRecord) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM action_logs WHERE action_id = ? AND date_key = ?`,
		rec.ActionID, rec.DateKey)
	if err != nil {
		return fmt.Errorf("delete completion: %w", err)
	}
	return nil
}

// GetPlan implements store.PlanStore. Items live in the plan JSON blob.
func (r *Repository) GetPlan(ctx context.Context, dateKey string) (*core.DailyPlan, error) {
	var (
		status    string
		itemsJSON string
		createdAt time.Time
		updatedAt time.Time
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT status, plan, created_at, updated_at FROM daily_plans WHERE date_key = ?`,
		dateKey).Scan(&status, &itemsJSON, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get plan: %w", err)
	}

	var items []core.PlanItem
	if err := json.Unmarshal([]byte(itemsJSON), &items); err != nil {
		return nil, fmt.Errorf("decode plan items: %w", err)
	}

	return &core.DailyPlan{
		DateKey:   dateKey,
		Status:    core.PlanStatus(status),
		Items:     items,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}, nil
}

// UpsertPlan implements store.PlanStore. The snapshot is replaced
// wholesale; last write wins.
func (r *Repository) UpsertPlan(ctx context.Context, p core.DailyPlan) error {
	itemsJSON, err := json.Marshal(p.Items)
	if err != nil {
		return fmt.Errorf("encode plan items: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO daily_plans (date_key, status, plan)
		 VALUES (?, ?, ?)
		 ON CONFLICT(date_key) DO UPDATE SET
		   status = excluded.status,
		   plan = excluded.plan,
		   updated_at = CURRENT_TIMESTAMP`,
		p.DateKey, string(p.Status), string(itemsJSON))
	if err != nil {
		return fmt.Errorf("upsert plan: %w", err)
	}

	slog.InfoContext(ctx, "Daily plan saved",
		"date_key", p.DateKey,
		"status", p.Status,
		"items", len(p.Items))
	return nil
}

// ListUnjournaled implements store.JournalSource. It returns completions
// that have not yet been copied to the external journal, oldest first.
func (r *Repository) ListUnjournaled(ctx context.Context, limit int) ([]core.CompletionRecord, error) {
	return r.queryCompletions(ctx,
		`SELECT action_id, date_key FROM action_logs
		 WHERE journaled = 0
		 ORDER BY created_at LIMIT ?`,
		limit)
}

// MarkJournaled implements store.JournalSource.
func (r *Repository) MarkJournaled(ctx context.Context, rec core.CompletionRecord) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE action_logs SET journaled = 1 WHERE action_id = ? AND date_key = ?`,
		rec.ActionID, rec.DateKey)
	if err != nil {
		return fmt.Errorf("mark journaled: %w", err)
	}
	return nil
}
