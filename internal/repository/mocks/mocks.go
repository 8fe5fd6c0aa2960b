package mocks

import (
	"context"
	"time"

	"github.com/fieldline/sitebook/internal/domain/activity"
	"github.com/fieldline/sitebook/internal/domain/checklist"
	"github.com/fieldline/sitebook/internal/domain/hierarchy"
	"github.com/stretchr/testify/mock"
)

// ItemRepository is a mock for checklist.ItemRepository.
type ItemRepository struct {
	mock.Mock
}

func (m *ItemRepository) ListItems(ctx context.Context, projectID string) (checklist.Collection, error) {
	args := m.Called(ctx, projectID)
	if items, ok := args.Get(0).(checklist.Collection); ok {
		return items, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ItemRepository) PatchItem(ctx context.Context, projectID, itemID string, patch checklist.Fields) error {
	args := m.Called(ctx, projectID, itemID, patch)
	return args.Error(0)
}

// TreeRepository is a mock for hierarchy.TreeRepository.
type TreeRepository struct {
	mock.Mock
}

func (m *TreeRepository) LoadTree(ctx context.Context, catalogID string) (hierarchy.Tree, int64, error) {
	args := m.Called(ctx, catalogID)
	tree, _ := args.Get(0).(hierarchy.Tree)
	return tree, args.Get(1).(int64), args.Error(2)
}

func (m *TreeRepository) SaveTree(ctx context.Context, catalogID string, tree hierarchy.Tree, expectedVersion int64) (int64, error) {
	args := m.Called(ctx, catalogID, tree, expectedVersion)
	return args.Get(0).(int64), args.Error(1)
}

// ActivityRepository is a mock for activity.Repository.
type ActivityRepository struct {
	mock.Mock
}

func (m *ActivityRepository) Log(ctx context.Context, entry *activity.ActivityEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *ActivityRepository) List(ctx context.Context, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error) {
	args := m.Called(ctx, opts)
	if list, ok := args.Get(0).([]activity.ActivityEntry); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ActivityRepository) Prune(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}
