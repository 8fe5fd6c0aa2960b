package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fieldline/sitebook/internal/domain/hierarchy"
	"github.com/fieldline/sitebook/internal/repository"
)

// TreeRepository implements hierarchy.TreeRepository for SQLite
type TreeRepository struct {
	db *DB
}

// NewTreeRepository creates a new TreeRepository
func NewTreeRepository(db *DB) *TreeRepository {
	return &TreeRepository{db: db}
}

// LoadTree returns the catalog's tree and its version
func (r *TreeRepository) LoadTree(ctx context.Context, catalogID string) (hierarchy.Tree, int64, error) {
	var raw string
	var version int64
	err := r.db.QueryRowContext(ctx,
		`SELECT tree, version FROM hierarchy_trees WHERE catalog_id = ?`, catalogID).Scan(&raw, &version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, 0, repository.ErrNotFound
	}
	if err != nil {
		return nil, 0, fmt.Errorf("failed to load tree: %w", err)
	}

	var tree hierarchy.Tree
	if err := json.Unmarshal([]byte(raw), &tree); err != nil {
		return nil, 0, fmt.Errorf("failed to decode tree: %w", err)
	}
	return tree, version, nil
}

// SaveTree stores the tree if the stored version still equals
// expectedVersion. Version 0 creates the catalog. It returns the new version.
func (r *TreeRepository) SaveTree(ctx context.Context, catalogID string, tree hierarchy.Tree, expectedVersion int64) (int64, error) {
	if tree == nil {
		tree = hierarchy.Tree{}
	}
	data, err := json.Marshal(tree)
	if err != nil {
		return 0, fmt.Errorf("failed to encode tree: %w", err)
	}

	if expectedVersion == 0 {
		_, err := r.db.ExecContext(ctx,
			`INSERT INTO hierarchy_trees (catalog_id, tree, version, updated_at) VALUES (?, ?, 1, ?)`,
			catalogID, string(data), time.Now())
		if err != nil {
			if isUniqueViolation(err) {
				return 0, repository.ErrConflict
			}
			return 0, fmt.Errorf("failed to create tree: %w", err)
		}
		return 1, nil
	}

	result, err := r.db.ExecContext(ctx, `
		UPDATE hierarchy_trees SET tree = ?, version = version + 1, updated_at = ?
		WHERE catalog_id = ? AND version = ?
	`, string(data), time.Now(), catalogID, expectedVersion)
	if err != nil {
		return 0, fmt.Errorf("failed to save tree: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check save result: %w", err)
	}
	if rows == 0 {
		return 0, repository.ErrConflict
	}
	return expectedVersion + 1, nil
}

// ListCatalogs returns the IDs of all stored catalogs
func (r *TreeRepository) ListCatalogs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT catalog_id FROM hierarchy_trees ORDER BY catalog_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list catalogs: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan catalog: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating catalog rows: %w", err)
	}
	return ids, nil
}
