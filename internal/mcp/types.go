package mcp

import (
	"github.com/fieldline/sitebook/internal/domain/activity"
	"github.com/fieldline/sitebook/internal/domain/checklist"
	"github.com/fieldline/sitebook/internal/domain/hierarchy"
)

type ChecklistParams struct {
	ProjectID string `json:"project_id" jsonschema:"project number whose checklist to use"`
}

type PatchParams struct {
	ProjectID string         `json:"project_id" jsonschema:"project number"`
	RecordID  string         `json:"record_id" jsonschema:"checklist item ID"`
	Fields    map[string]any `json:"fields" jsonschema:"field values to set; {\"$removed\":true} deletes a field"`
}

// ChecklistView is the state of one project's checklist.
type ChecklistView struct {
	ProjectID      string               `json:"project_id"`
	Persisted      checklist.Collection `json:"persisted"`
	Draft          checklist.Collection `json:"draft"`
	Diff           checklist.Diff       `json:"diff"`
	Dirty          bool                 `json:"dirty"`
	DirtyRecordIDs []string             `json:"dirty_record_ids"`
	LocalOnly      bool                 `json:"local_only"`
}

type CommitAllResult struct {
	Result    checklist.CommitResult `json:"result"`
	Checklist ChecklistView          `json:"checklist"`
}

type RefreshResult struct {
	FastForwarded bool          `json:"fast_forwarded"`
	Checklist     ChecklistView `json:"checklist"`
}

type OpenChecklistsResult struct {
	ProjectIDs []string `json:"project_ids"`
}

type CloseResult struct {
	Closed bool `json:"closed"`
}

type TreeParams struct{}

// TreeResult is a catalog tree with its version.
type TreeResult struct {
	CatalogID string         `json:"catalog_id"`
	Version   int64          `json:"version"`
	Tree      hierarchy.Tree `json:"tree"`
}

type AddMainParams struct {
	ID   string `json:"id,omitempty" jsonschema:"main folder ID, generated when blank"`
	Name string `json:"name" jsonschema:"display name"`
}

type AddSubParams struct {
	MainID string `json:"main_id" jsonschema:"parent main folder ID"`
	ID     string `json:"id,omitempty" jsonschema:"sub folder ID, generated when blank"`
	Name   string `json:"name" jsonschema:"display name"`
}

type AddProjectParams struct {
	MainID     string         `json:"main_id" jsonschema:"main folder ID"`
	SubID      string         `json:"sub_id" jsonschema:"sub folder ID"`
	ProjectID  string         `json:"project_id" jsonschema:"project number, unique in the catalog"`
	Name       string         `json:"name" jsonschema:"project name"`
	Status     string         `json:"status,omitempty" jsonschema:"ongoing or completed, default ongoing"`
	Attributes map[string]any `json:"attributes,omitempty" jsonschema:"free-form project attributes"`
}

type CopyProjectParams struct {
	SourceID string `json:"source_id" jsonschema:"project number to copy"`
	MainID   string `json:"main_id,omitempty" jsonschema:"target main folder, defaults to the source's"`
	SubID    string `json:"sub_id,omitempty" jsonschema:"target sub folder, defaults to the source's"`
	NewID    string `json:"new_id" jsonschema:"project number for the copy"`
	NewName  string `json:"new_name" jsonschema:"name for the copy"`
}

type DeleteMainParams struct {
	MainID string `json:"main_id" jsonschema:"main folder to delete"`
}

type DeleteSubParams struct {
	MainID string `json:"main_id" jsonschema:"main folder ID"`
	SubID  string `json:"sub_id" jsonschema:"sub folder to delete"`
}

type DeleteProjectParams struct {
	MainID    string `json:"main_id" jsonschema:"main folder ID"`
	SubID     string `json:"sub_id" jsonschema:"sub folder ID"`
	ProjectID string `json:"project_id" jsonschema:"project number to delete"`
}

type SetStatusParams struct {
	ProjectID string `json:"project_id" jsonschema:"project number"`
	Status    string `json:"status" jsonschema:"ongoing or completed"`
}

type ProjectNumberParams struct {
	ProjectID string `json:"project_id" jsonschema:"candidate project number"`
}

type ProjectNumberResult struct {
	ProjectID string `json:"project_id"`
	Unique    bool   `json:"unique"`
}

type FindProjectResult struct {
	Location hierarchy.ProjectLocation `json:"location"`
}

type RecentActivityParams struct {
	ProjectID string `json:"project_id,omitempty" jsonschema:"project number or catalog ID to filter by"`
	RecordID  string `json:"record_id,omitempty" jsonschema:"item or node ID to filter by"`
	Type      string `json:"type,omitempty" jsonschema:"activity type to filter by"`
	Limit     int    `json:"limit,omitempty" jsonschema:"maximum entries, default 50"`
}

type RecentActivityResult struct {
	Entries []activity.ActivityEntry `json:"entries"`
}
