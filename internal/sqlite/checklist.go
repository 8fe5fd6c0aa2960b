package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fieldline/sitebook/internal/domain/checklist"
	"github.com/fieldline/sitebook/internal/repository"
)

// ChecklistRepository implements checklist.ItemRepository for SQLite
type ChecklistRepository struct {
	db *DB
}

// NewChecklistRepository creates a new ChecklistRepository
func NewChecklistRepository(db *DB) *ChecklistRepository {
	return &ChecklistRepository{db: db}
}

// ListItems returns every item of a project keyed by item ID
func (r *ChecklistRepository) ListItems(ctx context.Context, projectID string) (checklist.Collection, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT item_id, fields FROM checklist_items WHERE project_id = ?`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list checklist items: %w", err)
	}
	defer rows.Close()

	items := make(checklist.Collection)
	for rows.Next() {
		var itemID, raw string
		if err := rows.Scan(&itemID, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan checklist item: %w", err)
		}
		fields, err := decodeFields(raw)
		if err != nil {
			return nil, fmt.Errorf("item %s: %w", itemID, err)
		}
		items[itemID] = fields
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating checklist rows: %w", err)
	}
	return items, nil
}

// GetItem returns a single item
func (r *ChecklistRepository) GetItem(ctx context.Context, projectID, itemID string) (checklist.Fields, error) {
	var raw string
	err := r.db.QueryRowContext(ctx,
		`SELECT fields FROM checklist_items WHERE project_id = ? AND item_id = ?`,
		projectID, itemID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get checklist item: %w", err)
	}
	return decodeFields(raw)
}

// PatchItem merges patch into the stored item inside a transaction. Fields
// set to checklist.Removed are deleted; an item left with no fields is
// deleted.
func (r *ChecklistRepository) PatchItem(ctx context.Context, projectID, itemID string, patch checklist.Fields) error {
	if projectID == "" || itemID == "" {
		return repository.ErrInvalidInput
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	current := checklist.Collection{}
	var raw string
	err = tx.QueryRowContext(ctx,
		`SELECT fields FROM checklist_items WHERE project_id = ? AND item_id = ?`,
		projectID, itemID).Scan(&raw)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return fmt.Errorf("failed to read checklist item: %w", err)
	default:
		fields, err := decodeFields(raw)
		if err != nil {
			return err
		}
		current[itemID] = fields
	}

	checklist.ApplyPatch(current, itemID, patch)

	if fields, ok := current[itemID]; ok {
		if err := upsertItem(ctx, tx, projectID, itemID, fields); err != nil {
			return err
		}
	} else {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM checklist_items WHERE project_id = ? AND item_id = ?`,
			projectID, itemID); err != nil {
			return fmt.Errorf("failed to delete checklist item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// PutItem replaces an item's fields
func (r *ChecklistRepository) PutItem(ctx context.Context, projectID, itemID string, fields checklist.Fields) error {
	if projectID == "" || itemID == "" {
		return repository.ErrInvalidInput
	}
	return upsertItem(ctx, r.db, projectID, itemID, fields)
}

// DeleteItem removes an item
func (r *ChecklistRepository) DeleteItem(ctx context.Context, projectID, itemID string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM checklist_items WHERE project_id = ? AND item_id = ?`, projectID, itemID)
	if err != nil {
		return fmt.Errorf("failed to delete checklist item: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func upsertItem(ctx context.Context, ex execer, projectID, itemID string, fields checklist.Fields) error {
	if fields == nil {
		fields = checklist.Fields{}
	}
	data, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("failed to encode checklist item: %w", err)
	}

	_, err = ex.ExecContext(ctx, `
		INSERT INTO checklist_items (project_id, item_id, fields, version, updated_at)
		VALUES (?, ?, ?, 1, ?)
		ON CONFLICT (project_id, item_id) DO UPDATE SET
			fields = excluded.fields,
			version = checklist_items.version + 1,
			updated_at = excluded.updated_at
	`, projectID, itemID, string(data), time.Now())
	if err != nil {
		return fmt.Errorf("failed to write checklist item: %w", err)
	}
	return nil
}

func decodeFields(raw string) (checklist.Fields, error) {
	fields := checklist.Fields{}
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return nil, fmt.Errorf("failed to decode checklist item: %w", err)
	}
	return fields, nil
}
