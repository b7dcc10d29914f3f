package worker

import (
	"context"
	"fmt"
	"log/slog"

	"habits/internal/amqp"
	"habits/internal/core"
	"habits/internal/store"
)

// JournalWorker copies completion events into the external journal. It
// consumes sync messages from AMQP and, as a backup for lost messages,
// periodically scans the local store for rows not yet journaled.
type JournalWorker struct {
	source    store.JournalSource
	writer    store.JournalWriter
	batchSize int
}

func NewJournalWorker(source store.JournalSource, writer store.JournalWriter, batchSize int) *JournalWorker {
	return &JournalWorker{
		source:    source,
		writer:    writer,
		batchSize: batchSize,
	}
}

// HandleSyncMessage processes a single completion sync message from AMQP.
// The message carries the full record because an unchecked row is already
// gone from the store.
func (w *JournalWorker) HandleSyncMessage(ctx context.Context, msg *amqp.CompletionSyncMessage) error {
	slog.InfoContext(ctx, "Processing completion sync message",
		"action_id", msg.ActionID,
		"date_key", msg.DateKey,
		"removed", msg.Removed)

	rec := core.CompletionRecord{ActionID: msg.ActionID, DateKey: msg.DateKey}
	if err := rec.Validate(); err != nil {
		return fmt.Errorf("invalid sync message: %w", err)
	}

	ref, err := w.writer.AppendCompletion(ctx, rec, msg.Removed)
	if err != nil {
		return fmt.Errorf("append to journal: %w", err)
	}

	if !msg.Removed {
		if err := w.source.MarkJournaled(ctx, rec); err != nil {
			slog.ErrorContext(ctx, "Failed to mark completion as journaled",
				"action_id", rec.ActionID,
				"date_key", rec.DateKey,
				"error", err)
			// The append itself worked; the pending scan will retry the mark.
		}
	}

	slog.InfoContext(ctx, "Completion journaled",
		"action_id", rec.ActionID,
		"date_key", rec.DateKey,
		"removed", msg.Removed,
		"journal_ref", ref)

	return nil
}

// ProcessPending journals completions that never made it through AMQP.
func (w *JournalWorker) ProcessPending(ctx context.Context) error {
	return w.drainPending(ctx, w.batchSize)
}

// StartupCheck runs a larger pending scan once at worker startup to
// recover from downtime.
func (w *JournalWorker) StartupCheck(ctx context.Context) error {
	return w.drainPending(ctx, w.batchSize*5)
}

func (w *JournalWorker) drainPending(ctx context.Context, limit int) error {
	pending, err := w.source.ListUnjournaled(ctx, limit)
	if err != nil {
		return fmt.Errorf("list unjournaled completions: %w", err)
	}

	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing unjournaled completions", "count", len(pending))

	synced := 0
	for _, rec := range pending {
		ref, err := w.writer.AppendCompletion(ctx, rec, false)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to journal completion",
				"action_id", rec.ActionID,
				"date_key", rec.DateKey,
				"error", err)
			continue
		}
		if err := w.source.MarkJournaled(ctx, rec); err != nil {
			slog.ErrorContext(ctx, "Failed to mark completion as journaled",
				"action_id", rec.ActionID,
				"date_key", rec.DateKey,
				"error", err)
			continue
		}
		synced++
		slog.InfoContext(ctx, "Completion journaled",
			"action_id", rec.ActionID,
			"date_key", rec.DateKey,
			"journal_ref", ref)
	}

	slog.InfoContext(ctx, "Pending scan completed",
		"total", len(pending),
		"synced", synced,
		"errors", len(pending)-synced)

	return nil
}
