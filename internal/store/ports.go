package store

import (
	"context"

	"habits/internal/core"
)

// Ports for outbound storage adapters. All state lives behind these; the
// HTTP layer never touches a database handle directly.
type (
	TemplateStore interface {
		// ListTemplates returns every template ordered by creation time.
		ListTemplates(ctx context.Context) ([]core.ActionTemplate, error)
		// UpsertTemplate inserts or replaces the template keyed on its id.
		UpsertTemplate(ctx context.Context, t core.ActionTemplate) error
		// DeleteTemplate removes the template and, first, every completion
		// record referencing it. The cleanup is explicit, not a DB cascade.
		DeleteTemplate(ctx context.Context, id string) error
	}

	CompletionStore interface {
		ListCompletions(ctx context.Context, dateKey string) ([]core.CompletionRecord, error)
		// ListCompletionsInRange returns records with from <= dateKey <= to,
		// bounds included.
		ListCompletionsInRange(ctx context.Context, from, to string) ([]core.CompletionRecord, error)
		// UpsertCompletion is idempotent on (actionId, dateKey).
		UpsertCompletion(ctx context.Context, rec core.CompletionRecord) error
		DeleteCompletion(ctx context.Context, rec core.CompletionRecord) error
	}

	PlanStore interface {
		// GetPlan returns nil without error when no plan exists for the key.
		GetPlan(ctx context.Context, dateKey string) (*core.DailyPlan, error)
		// UpsertPlan replaces the whole snapshot for the plan's date key.
		UpsertPlan(ctx context.Context, p core.DailyPlan) error
	}

	// Store is the unified surface the services need.
	Store interface {
		TemplateStore
		CompletionStore
		PlanStore
	}

	// JournalWriter appends completion events to an external journal.
	JournalWriter interface {
		AppendCompletion(ctx context.Context, rec core.CompletionRecord, removed bool) (ref string, err error)
	}

	// JournalSource hands the sync worker completions that have not yet
	// been copied to the journal. Only local backends implement it.
	JournalSource interface {
		ListUnjournaled(ctx context.Context, limit int) ([]core.CompletionRecord, error)
		MarkJournaled(ctx context.Context, rec core.CompletionRecord) error
	}
)
