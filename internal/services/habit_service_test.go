package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"habits/internal/core"
	"habits/internal/memorystore"
)

type publishedSync struct {
	actionID string
	dateKey  string
	removed  bool
}

type fakePublisher struct {
	published []publishedSync
	err       error
}

func (f *fakePublisher) PublishCompletionSync(ctx context.Context, actionID, dateKey string, removed bool) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, publishedSync{actionID, dateKey, removed})
	return nil
}

func TestUpsertTemplateGeneratesID(t *testing.T) {
	svc := NewHabitService(memorystore.New(), nil)

	saved, err := svc.UpsertTemplate(context.Background(), core.ActionTemplate{
		Name:      "Morning run",
		Category:  core.CategoryExercise,
		StartTime: "07:00",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, saved.ID)
	assert.Equal(t, "10:00", saved.EndTime)

	listed, err := svc.ListTemplates(context.Background())
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, saved.ID, listed[0].ID)
}

func TestUpsertTemplateKeepsGivenID(t *testing.T) {
	svc := NewHabitService(memorystore.New(), nil)

	saved, err := svc.UpsertTemplate(context.Background(), core.ActionTemplate{
		ID:   "tpl-1",
		Name: "Read a book",
	})
	require.NoError(t, err)
	assert.Equal(t, "tpl-1", saved.ID)
	assert.Equal(t, core.CategoryOther, saved.Category)
}

func TestUpsertTemplateRejectsEmptyName(t *testing.T) {
	svc := NewHabitService(memorystore.New(), nil)

	_, err := svc.UpsertTemplate(context.Background(), core.ActionTemplate{Name: "   "})
	assert.ErrorIs(t, err, core.ErrEmptyName)
}

func TestRecordCompletionIsIdempotent(t *testing.T) {
	st := memorystore.New()
	svc := NewHabitService(st, nil)
	ctx := context.Background()

	rec := core.CompletionRecord{ActionID: "a1", DateKey: "2024-01-02"}
	require.NoError(t, svc.RecordCompletion(ctx, rec))
	require.NoError(t, svc.RecordCompletion(ctx, rec))

	listed, err := svc.ListCompletions(ctx, "2024-01-02")
	require.NoError(t, err)
	assert.Len(t, listed, 1)
}

func TestRecordCompletionPublishesSync(t *testing.T) {
	pub := &fakePublisher{}
	svc := NewHabitService(memorystore.New(), pub)
	ctx := context.Background()

	rec := core.CompletionRecord{ActionID: "a1", DateKey: "2024-01-02"}
	require.NoError(t, svc.RecordCompletion(ctx, rec))
	require.NoError(t, svc.RemoveCompletion(ctx, rec))

	require.Len(t, pub.published, 2)
	assert.Equal(t, publishedSync{"a1", "2024-01-02", false}, pub.published[0])
	assert.Equal(t, publishedSync{"a1", "2024-01-02", true}, pub.published[1])
}

func TestRecordCompletionSurvivesPublishFailure(t *testing.T) {
	pub := &fakePublisher{err: errors.New("broker down")}
	svc := NewHabitService(memorystore.New(), pub)
	ctx := context.Background()

	rec := core.CompletionRecord{ActionID: "a1", DateKey: "2024-01-02"}
	require.NoError(t, svc.RecordCompletion(ctx, rec))

	listed, err := svc.ListCompletions(ctx, "2024-01-02")
	require.NoError(t, err)
	assert.Len(t, listed, 1)
}

func TestDeleteTemplateCascadesIntoStats(t *testing.T) {
	svc := NewHabitService(memorystore.New(), nil)
	ctx := context.Background()

	saved, err := svc.UpsertTemplate(ctx, core.ActionTemplate{
		Name:     "Gym",
		Category: core.CategoryExercise,
	})
	require.NoError(t, err)

	rec := core.CompletionRecord{ActionID: saved.ID, DateKey: "2024-01-02"}
	require.NoError(t, svc.RecordCompletion(ctx, rec))

	_, tallies, err := svc.WeekStats(ctx, "2024-01-02")
	require.NoError(t, err)
	assert.Equal(t, 1, tallies[core.CategoryExercise].Days)

	require.NoError(t, svc.DeleteTemplate(ctx, saved.ID))

	_, tallies, err = svc.WeekStats(ctx, "2024-01-02")
	require.NoError(t, err)
	assert.Equal(t, 0, tallies[core.CategoryExercise].Days)
}

func TestWeekStatsCountsDistinctDays(t *testing.T) {
	svc := NewHabitService(memorystore.New(), nil)
	ctx := context.Background()

	run, err := svc.UpsertTemplate(ctx, core.ActionTemplate{Name: "Run", Category: core.CategoryExercise})
	require.NoError(t, err)
	study, err := svc.UpsertTemplate(ctx, core.ActionTemplate{Name: "Study", Category: core.CategoryStudy})
	require.NoError(t, err)

	for _, rec := range []core.CompletionRecord{
		{ActionID: run.ID, DateKey: "2024-01-01"},
		{ActionID: run.ID, DateKey: "2024-01-02"},
		{ActionID: study.ID, DateKey: "2024-01-02"},
		{ActionID: "ghost", DateKey: "2024-01-03"},
		{ActionID: run.ID, DateKey: "2024-01-08"}, // next week, excluded
	} {
		require.NoError(t, svc.RecordCompletion(ctx, rec))
	}

	week, tallies, err := svc.WeekStats(ctx, "2024-01-04")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01", week.Start)
	assert.Equal(t, "2024-01-07", week.End)
	assert.Equal(t, core.CategoryTally{Days: 2, Total: core.WeekDays}, tallies[core.CategoryExercise])
	assert.Equal(t, core.CategoryTally{Days: 1, Total: core.WeekDays}, tallies[core.CategoryStudy])
	assert.Equal(t, core.CategoryTally{Days: 1, Total: core.WeekDays}, tallies[core.CategoryOther])
}

func TestWeekStatsRejectsBadDateKey(t *testing.T) {
	svc := NewHabitService(memorystore.New(), nil)

	_, _, err := svc.WeekStats(context.Background(), "not-a-date")
	assert.Error(t, err)
}
