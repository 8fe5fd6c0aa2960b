package hierarchy

import "errors"

var (
	// ErrDuplicateProjectID indicates a blank or already used project number.
	ErrDuplicateProjectID = errors.New("project number is blank or already in use")
	// ErrInvalidName indicates a blank node name.
	ErrInvalidName = errors.New("invalid node name")
	// ErrGuardViolation indicates an operation would remove the last main folder.
	ErrGuardViolation = errors.New("at least one main folder is required")
	// ErrDuplicateNodeID indicates a folder ID already used by a sibling.
	ErrDuplicateNodeID = errors.New("folder id already in use")
	// ErrNodeNotFound indicates the addressed main, sub or project doesn't exist.
	ErrNodeNotFound = errors.New("tree node not found")
	// ErrInvalidStatus indicates an unknown project status.
	ErrInvalidStatus = errors.New("invalid project status")
	// ErrCatalogNotFound indicates no tree is stored for the catalog.
	ErrCatalogNotFound = errors.New("catalog not found")
	// ErrConflict indicates the catalog was saved by someone else meanwhile.
	ErrConflict = errors.New("catalog modified concurrently")
)
