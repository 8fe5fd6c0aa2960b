package activity

import "time"

// ListActivityOptions provides filtering options for listing activity.
type ListActivityOptions struct {
	ProjectID    string
	RecordID     *string
	ActivityType *ActivityType
	// Since drops entries created before it when non-zero.
	Since  time.Time
	Limit  int
	Offset int
}
