package hierarchy

import (
	"context"

	"github.com/fieldline/sitebook/internal/domain/activity"
)

// TreeRepository persists catalog trees with a version for optimistic
// concurrency. SaveTree with expectedVersion 0 creates the catalog.
type TreeRepository interface {
	LoadTree(ctx context.Context, catalogID string) (Tree, int64, error)
	SaveTree(ctx context.Context, catalogID string, tree Tree, expectedVersion int64) (int64, error)
}

// ActivityRepository logs tree activities.
type ActivityRepository interface {
	Log(ctx context.Context, entry *activity.ActivityEntry) error
}
