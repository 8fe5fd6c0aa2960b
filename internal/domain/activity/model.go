package activity

import "time"

// ActivityType represents the type of activity event
type ActivityType string

const (
	TypeChecklistOpened       ActivityType = "checklist_opened"
	TypeChecklistCommitted    ActivityType = "checklist_committed"
	TypeChecklistCommitFailed ActivityType = "checklist_commit_failed"
	TypeSnapshotIngested      ActivityType = "snapshot_ingested"
	TypeTreeNodeAdded         ActivityType = "tree_node_added"
	TypeTreeNodeDeleted       ActivityType = "tree_node_deleted"
	TypeProjectCopied         ActivityType = "project_copied"
	TypeProjectStatusChanged  ActivityType = "project_status_changed"
	TypeGuardViolation        ActivityType = "guard_violation"
)

// ActivityEntry represents an event in the activity log
type ActivityEntry struct {
	ID           int64        `json:"id"`
	ProjectID    string       `json:"project_id"`
	RecordID     *string      `json:"record_id,omitempty"`
	ActivityType ActivityType `json:"type"`
	Summary      string       `json:"summary"`
	Details      string       `json:"details,omitempty"` // JSON string
	CreatedAt    time.Time    `json:"created_at"`
}
