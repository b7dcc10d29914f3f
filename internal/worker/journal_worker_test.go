package worker

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"habits/internal/amqp"
	"habits/internal/core"
	"habits/internal/memorystore"
)

type appendCall struct {
	rec     core.CompletionRecord
	removed bool
}

type fakeJournal struct {
	calls []appendCall
	fail  func(rec core.CompletionRecord) error
}

func (f *fakeJournal) AppendCompletion(ctx context.Context, rec core.CompletionRecord, removed bool) (string, error) {
	if f.fail != nil {
		if err := f.fail(rec); err != nil {
			return "", err
		}
	}
	f.calls = append(f.calls, appendCall{rec, removed})
	return fmt.Sprintf("row-%d", len(f.calls)), nil
}

func TestHandleSyncMessageAppendsAndMarks(t *testing.T) {
	st := memorystore.New()
	journal := &fakeJournal{}
	w := NewJournalWorker(st, journal, 10)
	ctx := context.Background()

	rec := core.CompletionRecord{ActionID: "a1", DateKey: "2024-01-02"}
	require.NoError(t, st.UpsertCompletion(ctx, rec))

	err := w.HandleSyncMessage(ctx, &amqp.CompletionSyncMessage{
		ActionID: "a1",
		DateKey:  "2024-01-02",
	})
	require.NoError(t, err)
	require.Len(t, journal.calls, 1)
	assert.Equal(t, appendCall{rec, false}, journal.calls[0])

	pending, err := st.ListUnjournaled(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestHandleSyncMessageRemoval(t *testing.T) {
	st := memorystore.New()
	journal := &fakeJournal{}
	w := NewJournalWorker(st, journal, 10)

	err := w.HandleSyncMessage(context.Background(), &amqp.CompletionSyncMessage{
		ActionID: "a1",
		DateKey:  "2024-01-02",
		Removed:  true,
	})
	require.NoError(t, err)
	require.Len(t, journal.calls, 1)
	assert.True(t, journal.calls[0].removed)
}

func TestHandleSyncMessageRejectsInvalid(t *testing.T) {
	w := NewJournalWorker(memorystore.New(), &fakeJournal{}, 10)

	err := w.HandleSyncMessage(context.Background(), &amqp.CompletionSyncMessage{
		DateKey: "2024-01-02",
	})
	assert.Error(t, err)
}

func TestProcessPendingDrainsBacklog(t *testing.T) {
	st := memorystore.New()
	journal := &fakeJournal{}
	w := NewJournalWorker(st, journal, 10)
	ctx := context.Background()

	for _, day := range []string{"2024-01-01", "2024-01-02", "2024-01-03"} {
		require.NoError(t, st.UpsertCompletion(ctx, core.CompletionRecord{ActionID: "a1", DateKey: day}))
	}

	require.NoError(t, w.ProcessPending(ctx))
	assert.Len(t, journal.calls, 3)

	pending, err := st.ListUnjournaled(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)

	// Nothing left, a second scan is a no-op.
	require.NoError(t, w.ProcessPending(ctx))
	assert.Len(t, journal.calls, 3)
}

func TestProcessPendingKeepsFailedRows(t *testing.T) {
	st := memorystore.New()
	journal := &fakeJournal{
		fail: func(rec core.CompletionRecord) error {
			if rec.DateKey == "2024-01-02" {
				return errors.New("sheets unavailable")
			}
			return nil
		},
	}
	w := NewJournalWorker(st, journal, 10)
	ctx := context.Background()

	for _, day := range []string{"2024-01-01", "2024-01-02"} {
		require.NoError(t, st.UpsertCompletion(ctx, core.CompletionRecord{ActionID: "a1", DateKey: day}))
	}

	require.NoError(t, w.ProcessPending(ctx))

	pending, err := st.ListUnjournaled(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "2024-01-02", pending[0].DateKey)
}
