package checklist

import (
	"context"

	"github.com/fieldline/sitebook/internal/domain/activity"
)

// ItemRepository provides persistence for checklist items.
type ItemRepository interface {
	ListItems(ctx context.Context, projectID string) (Collection, error)
	PatchItem(ctx context.Context, projectID, itemID string, patch Fields) error
}

// ActivityRepository logs checklist activities.
type ActivityRepository interface {
	Log(ctx context.Context, entry *activity.ActivityEntry) error
}
