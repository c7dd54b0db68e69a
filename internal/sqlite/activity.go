package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rpggio/taskdesk/internal/domain/activity"
)

// ActivityRepository implements activity.Repository for SQLite
type ActivityRepository struct {
	db *DB
}

// NewActivityRepository creates a new ActivityRepository
func NewActivityRepository(db *DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// Log appends entry and sets its ID
func (r *ActivityRepository) Log(ctx context.Context, entry *activity.Entry) error {
	query := `
		INSERT INTO console_activity (user_id, view, type, record_id, summary, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	res, err := r.db.ExecContext(ctx, query,
		entry.UserID, entry.View, string(entry.Type), entry.RecordID, entry.Summary,
		entry.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to log activity: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read activity id: %w", err)
	}
	entry.ID = id
	return nil
}

// List returns entries matching opts, newest first
func (r *ActivityRepository) List(ctx context.Context, opts activity.ListOptions) ([]activity.Entry, error) {
	var where []string
	var args []any
	if opts.UserID != "" {
		where = append(where, "user_id = ?")
		args = append(args, opts.UserID)
	}
	if opts.View != "" {
		where = append(where, "view = ?")
		args = append(args, opts.View)
	}

	query := `SELECT id, user_id, view, type, record_id, summary, created_at FROM console_activity`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY id DESC"
	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity: %w", err)
	}
	defer rows.Close()

	entries := []activity.Entry{}
	for rows.Next() {
		var (
			e       activity.Entry
			typ     string
			created string
		)
		if err := rows.Scan(&e.ID, &e.UserID, &e.View, &typ, &e.RecordID, &e.Summary, &created); err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		e.Type = activity.Type(typ)
		if e.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return nil, fmt.Errorf("failed to parse activity time: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list activity: %w", err)
	}
	return entries, nil
}
