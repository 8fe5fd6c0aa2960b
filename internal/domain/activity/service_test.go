package activity_test

import (
	"context"
	"testing"
	"time"

	"github.com/fieldline/sitebook/internal/domain/activity"
	"github.com/fieldline/sitebook/internal/repository/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestActivityService_LogAndList(t *testing.T) {
	ctx := context.Background()

	repo := &mocks.ActivityRepository{}
	entry := &activity.ActivityEntry{
		ProjectID:    "proj1",
		ActivityType: activity.TypeChecklistCommitted,
		Summary:      "committed",
	}

	repo.On("Log", ctx, entry).Return(nil)
	repo.On("List", ctx, activity.ListActivityOptions{ProjectID: "proj1", Limit: 50}).Return([]activity.ActivityEntry{}, nil)

	svc := activity.NewService(repo, nil)
	require.NoError(t, svc.LogActivity(ctx, entry))
	require.False(t, entry.CreatedAt.IsZero())
	_, err := svc.GetRecentActivity(ctx, activity.ListActivityOptions{ProjectID: "proj1"})
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestActivityService_RejectsUntypedEntry(t *testing.T) {
	repo := &mocks.ActivityRepository{}
	svc := activity.NewService(repo, nil)

	err := svc.LogActivity(context.Background(), &activity.ActivityEntry{ProjectID: "proj1"})
	require.ErrorIs(t, err, activity.ErrInvalidInput)
	repo.AssertNotCalled(t, "Log", mock.Anything, mock.Anything)
}

func TestActivityService_Prune(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.ActivityRepository{}
	svc := activity.NewService(repo, nil)

	repo.On("Prune", ctx, mock.MatchedBy(func(before time.Time) bool {
		age := time.Since(before)
		return before.Location() == time.UTC && age > 23*time.Hour && age < 25*time.Hour
	})).Return(int64(3), nil)

	n, err := svc.Prune(ctx, 24*time.Hour)
	require.NoError(t, err)
	require.Equal(t, int64(3), n)
	repo.AssertExpectations(t)

	_, err = svc.Prune(ctx, 0)
	require.ErrorIs(t, err, activity.ErrInvalidInput)
}
