package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/fieldline/sitebook/internal/domain/activity"
)

// ActivityRepository implements activity.Repository for SQLite.
// Timestamps are stored in UTC so they order and compare as text.
type ActivityRepository struct {
	db *DB
}

// NewActivityRepository creates a new ActivityRepository
func NewActivityRepository(db *DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// Log inserts a new activity entry
func (r *ActivityRepository) Log(ctx context.Context, entry *activity.ActivityEntry) error {
	createdAt := entry.CreatedAt.UTC()
	if entry.CreatedAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	var details sql.NullString
	if entry.Details != "" {
		details = sql.NullString{String: entry.Details, Valid: true}
	}

	result, err := r.db.ExecContext(ctx, `
		INSERT INTO activity_log (project_id, record_id, activity_type, summary, details, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		entry.ProjectID, entry.RecordID, entry.ActivityType, entry.Summary, details, createdAt,
	)
	if err != nil {
		return fmt.Errorf("failed to log activity: %w", err)
	}

	if id, err := result.LastInsertId(); err == nil {
		entry.ID = id
	}
	entry.CreatedAt = createdAt
	return nil
}

// List returns activity entries matching the given filters, newest first
func (r *ActivityRepository) List(ctx context.Context, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error) {
	where, args := activityFilter(opts)
	query := `SELECT id, project_id, record_id, activity_type, summary, details, created_at FROM activity_log` +
		where + ` ORDER BY created_at DESC, id DESC`

	// SQLite only accepts OFFSET after a LIMIT; -1 means unbounded.
	switch {
	case opts.Limit > 0:
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	case opts.Offset > 0:
		query += " LIMIT -1"
	}
	if opts.Offset > 0 {
		query += " OFFSET ?"
		args = append(args, opts.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity: %w", err)
	}
	defer rows.Close()

	entries := []activity.ActivityEntry{}
	for rows.Next() {
		entry, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating activity rows: %w", err)
	}
	return entries, nil
}

// Prune deletes entries created before the cutoff.
func (r *ActivityRepository) Prune(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM activity_log WHERE created_at < ?`, before.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to prune activity: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count pruned activity: %w", err)
	}
	return n, nil
}

func activityFilter(opts activity.ListActivityOptions) (string, []any) {
	var (
		conditions []string
		args       []any
	)
	if opts.ProjectID != "" {
		conditions = append(conditions, "project_id = ?")
		args = append(args, opts.ProjectID)
	}
	if opts.RecordID != nil {
		conditions = append(conditions, "record_id = ?")
		args = append(args, *opts.RecordID)
	}
	if opts.ActivityType != nil {
		conditions = append(conditions, "activity_type = ?")
		args = append(args, *opts.ActivityType)
	}
	if !opts.Since.IsZero() {
		conditions = append(conditions, "created_at >= ?")
		args = append(args, opts.Since.UTC())
	}
	if len(conditions) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

func scanActivity(rows *sql.Rows) (activity.ActivityEntry, error) {
	var (
		entry    activity.ActivityEntry
		recordID sql.NullString
		details  sql.NullString
	)
	if err := rows.Scan(
		&entry.ID,
		&entry.ProjectID,
		&recordID,
		&entry.ActivityType,
		&entry.Summary,
		&details,
		&entry.CreatedAt,
	); err != nil {
		return activity.ActivityEntry{}, fmt.Errorf("failed to scan activity entry: %w", err)
	}
	if recordID.Valid {
		entry.RecordID = &recordID.String
	}
	entry.Details = details.String
	return entry, nil
}
