package mcp

import (
	"errors"
	"fmt"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/fieldline/sitebook/internal/domain/checklist"
	"github.com/fieldline/sitebook/internal/domain/hierarchy"
)

// APIError represents an MCP error response.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	Details      any    `json:"details,omitempty"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

func (e *APIError) Error() string {
	if e.RecoveryHint != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.RecoveryHint)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// MapError maps domain errors to MCP error codes.
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}
	var commitErr *checklist.CommitError
	switch {
	case errors.As(err, &commitErr):
		return &APIError{
			Code:         "COMMIT_FAILED",
			Message:      commitErr.Error(),
			Details:      map[string]string{"record_id": commitErr.RecordID},
			RecoveryHint: "Draft kept; retry the commit or reset the draft",
		}
	case errors.Is(err, checklist.ErrNotOpen):
		return &APIError{Code: "CHECKLIST_NOT_OPEN", Message: "checklist not open", RecoveryHint: "Call checklist_open first"}
	case errors.Is(err, checklist.ErrInvalidInput):
		return &APIError{Code: "INVALID_INPUT", Message: "project and record IDs are required"}
	case errors.Is(err, hierarchy.ErrDuplicateProjectID):
		return &APIError{Code: "DUPLICATE_PROJECT_ID", Message: "project number is blank or already in use", RecoveryHint: "Check with project_number_unique"}
	case errors.Is(err, hierarchy.ErrDuplicateNodeID):
		return &APIError{Code: "DUPLICATE_NODE_ID", Message: "folder ID already in use", RecoveryHint: "Omit the ID to generate one"}
	case errors.Is(err, hierarchy.ErrInvalidName):
		return &APIError{Code: "INVALID_NAME", Message: "name must not be blank"}
	case errors.Is(err, hierarchy.ErrGuardViolation):
		return &APIError{Code: "GUARD_VIOLATION", Message: "at least one main folder is required", RecoveryHint: "Add another main folder first"}
	case errors.Is(err, hierarchy.ErrNodeNotFound):
		return &APIError{Code: "NODE_NOT_FOUND", Message: "tree node not found", RecoveryHint: "Check IDs with tree_get"}
	case errors.Is(err, hierarchy.ErrInvalidStatus):
		return &APIError{Code: "INVALID_STATUS", Message: "status must be ongoing or completed"}
	case errors.Is(err, hierarchy.ErrConflict):
		return &APIError{Code: "CONFLICT", Message: "catalog modified concurrently", RecoveryHint: "Reload with tree_get and retry"}
	case errors.Is(err, hierarchy.ErrCatalogNotFound):
		return &APIError{Code: "CATALOG_NOT_FOUND", Message: "catalog not found"}
	default:
		return nil
	}
}

// toolError returns the mapped APIError for known domain errors and err
// otherwise.
func toolError(err error) error {
	if apiErr := MapError(err); apiErr != nil {
		return apiErr
	}
	return err
}

// commitAllError maps a failed commit-all and records which records were
// already written.
func commitAllError(err error, res checklist.CommitResult) *APIError {
	apiErr := MapError(err)
	if apiErr == nil {
		apiErr = &APIError{Code: "COMMIT_INCOMPLETE", Message: err.Error(), RecoveryHint: "Retry the commit"}
	}
	apiErr.Details = map[string]any{
		"record_id": res.FailedRecordID,
		"committed": res.Committed,
	}
	return apiErr
}

// errorResult marks a tool call as failed without dropping the structured
// output returned next to it.
func errorResult(apiErr *APIError) *sdkmcp.CallToolResult {
	return &sdkmcp.CallToolResult{
		IsError: true,
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: apiErr.Error()}},
	}
}
