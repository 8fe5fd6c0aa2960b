package checklist_test

import (
	"context"
	"errors"
	"testing"

	"github.com/fieldline/sitebook/internal/domain/activity"
	"github.com/fieldline/sitebook/internal/domain/checklist"
	"github.com/fieldline/sitebook/internal/repository/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestChecklistService_OpenCommitsThroughRepository(t *testing.T) {
	ctx := context.Background()
	items := &mocks.ItemRepository{}
	activities := &mocks.ActivityRepository{}

	items.On("ListItems", ctx, "proj1").Return(checklist.Collection{
		"item1": {"status": "NotStarted"},
	}, nil).Once()
	items.On("PatchItem", mock.Anything, "proj1", "item1", checklist.Fields{"status": "Done"}).Return(nil)
	activities.On("Log", mock.Anything, mock.Anything).Return(nil)

	svc := checklist.NewService(items, activities, nil)
	rec, err := svc.Open(ctx, "proj1")
	require.NoError(t, err)

	again, err := svc.Open(ctx, "proj1")
	require.NoError(t, err)
	require.Same(t, rec, again)
	require.True(t, rec.HasCommitAdapter())

	require.NoError(t, rec.ApplyLocalPatch("item1", checklist.Fields{"status": "Done"}))
	res, err := rec.CommitAllChanges(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"item1"}, res.Committed)
	require.False(t, rec.IsDirty())

	items.AssertExpectations(t)
	activities.AssertCalled(t, "Log", mock.Anything, mock.MatchedBy(func(e *activity.ActivityEntry) bool {
		return e.ActivityType == activity.TypeChecklistCommitted && e.RecordID != nil && *e.RecordID == "item1"
	}))
}

func TestChecklistService_CommitFailureKeepsDraft(t *testing.T) {
	ctx := context.Background()
	items := &mocks.ItemRepository{}
	activities := &mocks.ActivityRepository{}
	boom := errors.New("disk full")

	items.On("ListItems", ctx, "proj1").Return(checklist.Collection{"item1": {"status": "NotStarted"}}, nil)
	items.On("PatchItem", mock.Anything, "proj1", "item1", mock.Anything).Return(boom)
	activities.On("Log", mock.Anything, mock.Anything).Return(nil)

	svc := checklist.NewService(items, activities, nil)
	rec, err := svc.Open(ctx, "proj1")
	require.NoError(t, err)

	err = rec.CommitFieldPatch(ctx, "item1", checklist.Fields{"status": "Blocked"})
	require.ErrorIs(t, err, checklist.ErrCommitFailed)
	require.ErrorIs(t, err, boom)

	var commitErr *checklist.CommitError
	require.ErrorAs(t, err, &commitErr)
	require.Equal(t, "item1", commitErr.RecordID)

	require.True(t, rec.IsRecordDirty("item1"))
	require.Equal(t, "Blocked", rec.Draft()["item1"]["status"])
	activities.AssertCalled(t, "Log", mock.Anything, mock.MatchedBy(func(e *activity.ActivityEntry) bool {
		return e.ActivityType == activity.TypeChecklistCommitFailed
	}))
}

func TestChecklistService_Refresh(t *testing.T) {
	ctx := context.Background()
	items := &mocks.ItemRepository{}

	items.On("ListItems", ctx, "proj1").Return(checklist.Collection{"item1": {"status": "NotStarted"}}, nil).Once()
	items.On("ListItems", ctx, "proj1").Return(checklist.Collection{"item1": {"status": "Done"}}, nil).Once()

	svc := checklist.NewService(items, nil, nil)
	_, err := svc.Refresh(ctx, "proj1")
	require.ErrorIs(t, err, checklist.ErrNotOpen)

	rec, err := svc.Open(ctx, "proj1")
	require.NoError(t, err)

	ff, err := svc.Refresh(ctx, "proj1")
	require.NoError(t, err)
	require.True(t, ff)
	require.Equal(t, "Done", rec.Draft()["item1"]["status"])
}

func TestChecklistService_OpenAndClose(t *testing.T) {
	ctx := context.Background()
	items := &mocks.ItemRepository{}
	items.On("ListItems", ctx, "proj1").Return(checklist.Collection{"item1": {"status": "Done"}}, nil)
	items.On("ListItems", ctx, "broken").Return(nil, errors.New("db closed"))

	svc := checklist.NewService(items, nil, nil)

	_, err := svc.Open(ctx, "  ")
	require.ErrorIs(t, err, checklist.ErrInvalidInput)

	_, err = svc.Open(ctx, "broken")
	require.Error(t, err)
	require.Empty(t, svc.OpenProjects())

	rec, err := svc.Open(ctx, "proj1")
	require.NoError(t, err)
	require.Equal(t, []string{"proj1"}, svc.OpenProjects())

	require.NoError(t, svc.Close("proj1"))
	require.Empty(t, rec.Persisted())
	require.False(t, rec.HasCommitAdapter())
	require.ErrorIs(t, svc.Close("proj1"), checklist.ErrNotOpen)

	_, err = svc.Get("proj1")
	require.ErrorIs(t, err, checklist.ErrNotOpen)
}
