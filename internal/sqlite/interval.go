package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/ajkarlsson/stint/internal/domain/interval"
	"github.com/ajkarlsson/stint/internal/repository"
)

// timeLayout is the stored timestamp format.
const timeLayout = "2006-01-02 15:04:05"

// IntervalRepository implements repository.IntervalStore for SQLite
type IntervalRepository struct {
	db *DB
}

// NewIntervalRepository creates a new IntervalRepository
func NewIntervalRepository(db *DB) *IntervalRepository {
	return &IntervalRepository{db: db}
}

// Open inserts a new open interval row for a known tag.
func (r *IntervalRepository) Open(ctx context.Context, tag string, start time.Time) (string, error) {
	taskID, err := r.taskID(ctx, tag)
	if err != nil {
		return "", err
	}

	result, err := r.db.ExecContext(ctx,
		`INSERT INTO time_logs (task_id, start_time, end_time, duration) VALUES (?, ?, NULL, NULL)`,
		taskID, start.Format(timeLayout),
	)
	if err != nil {
		return "", fmt.Errorf("failed to open interval: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return "", fmt.Errorf("failed to get interval id: %w", err)
	}
	return strconv.FormatInt(id, 10), nil
}

// Close ends the unique open interval matching (tag, start). Matching
// by end_time IS NULL makes a second close attempt a no-match instead
// of a duplicate update.
func (r *IntervalRepository) Close(ctx context.Context, tag string, start, end time.Time) (*interval.Interval, error) {
	if end.Before(start) {
		return nil, interval.ErrInvalidRange
	}

	taskID, err := r.taskID(ctx, tag)
	if err != nil {
		return nil, err
	}

	result, err := r.db.ExecContext(ctx,
		`UPDATE time_logs SET end_time = ?, duration = ?
		 WHERE task_id = ? AND start_time = ? AND end_time IS NULL`,
		end.Format(timeLayout),
		formatDuration(end.Sub(start)),
		taskID,
		start.Format(timeLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to close interval: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, repository.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx,
		`SELECT l.id, l.start_time, l.end_time, t.name
		 FROM time_logs l JOIN tasks t ON t.id = l.task_id
		 WHERE l.task_id = ? AND l.start_time = ? AND l.end_time = ?
		 ORDER BY l.id DESC LIMIT 1`,
		taskID, start.Format(timeLayout), end.Format(timeLayout),
	)
	iv, err := scanInterval(row)
	if err != nil {
		return nil, fmt.Errorf("failed to reload closed interval: %w", err)
	}
	return &iv, nil
}

// List returns intervals for the exact tag, ascending by start time.
func (r *IntervalRepository) List(ctx context.Context, tag string) ([]interval.Interval, error) {
	return r.query(ctx,
		`SELECT l.id, l.start_time, l.end_time, t.name
		 FROM time_logs l JOIN tasks t ON t.id = l.task_id
		 WHERE t.name = ?
		 ORDER BY l.start_time ASC, l.id ASC`,
		tag,
	)
}

// ListProject returns intervals for the bare project tag and every
// <project>-<task> child.
func (r *IntervalRepository) ListProject(ctx context.Context, project string) ([]interval.Interval, error) {
	return r.query(ctx,
		`SELECT l.id, l.start_time, l.end_time, t.name
		 FROM time_logs l JOIN tasks t ON t.id = l.task_id
		 WHERE t.name = ? OR t.name LIKE ?
		 ORDER BY l.start_time ASC, l.id ASC`,
		project, project+"-%",
	)
}

// Export returns every stored interval.
func (r *IntervalRepository) Export(ctx context.Context) ([]interval.Interval, error) {
	return r.query(ctx,
		`SELECT l.id, l.start_time, l.end_time, t.name
		 FROM time_logs l JOIN tasks t ON t.id = l.task_id
		 ORDER BY l.start_time ASC, l.id ASC`,
	)
}

// FindOpen returns the interval with no end time.
func (r *IntervalRepository) FindOpen(ctx context.Context) (*interval.Interval, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT l.id, l.start_time, l.end_time, t.name
		 FROM time_logs l JOIN tasks t ON t.id = l.task_id
		 WHERE l.end_time IS NULL
		 ORDER BY l.start_time ASC LIMIT 1`,
	)
	iv, err := scanInterval(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find open interval: %w", err)
	}
	return &iv, nil
}

// Delete physically removes an interval row.
func (r *IntervalRepository) Delete(ctx context.Context, id string) error {
	rowID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return repository.ErrNotFound
	}

	result, err := r.db.ExecContext(ctx, `DELETE FROM time_logs WHERE id = ?`, rowID)
	if err != nil {
		return fmt.Errorf("failed to delete interval: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// DeleteByTag removes every interval row for the exact tag.
func (r *IntervalRepository) DeleteByTag(ctx context.Context, tag string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM time_logs WHERE task_id IN (SELECT id FROM tasks WHERE name = ?)`,
		tag,
	)
	if err != nil {
		return fmt.Errorf("failed to delete intervals: %w", err)
	}
	return nil
}

// Modify rewrites start, end and tags of a closed interval. The first
// tag becomes the row's task; an empty tag list keeps the current one.
func (r *IntervalRepository) Modify(ctx context.Context, id string, start, end time.Time, tags []string) error {
	if end.Before(start) {
		return interval.ErrInvalidRange
	}

	rowID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return repository.ErrNotFound
	}

	args := []any{
		start.Format(timeLayout),
		end.Format(timeLayout),
		formatDuration(end.Sub(start)),
	}
	query := `UPDATE time_logs SET start_time = ?, end_time = ?, duration = ?`
	if len(tags) > 0 {
		taskID, err := r.taskID(ctx, tags[0])
		if err != nil {
			return err
		}
		query += `, task_id = ?`
		args = append(args, taskID)
	}
	query += ` WHERE id = ? AND end_time IS NOT NULL`
	args = append(args, rowID)

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to modify interval: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

func (r *IntervalRepository) query(ctx context.Context, query string, args ...any) ([]interval.Interval, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list intervals: %w", err)
	}
	defer rows.Close()

	var ivs []interval.Interval
	for rows.Next() {
		iv, err := scanInterval(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan interval: %w", err)
		}
		ivs = append(ivs, iv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating intervals: %w", err)
	}

	return ivs, nil
}

func (r *IntervalRepository) taskID(ctx context.Context, tag string) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `SELECT id FROM tasks WHERE name = ?`, tag).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("unknown task %q: %w", tag, repository.ErrValidation)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to resolve task: %w", err)
	}
	return id, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInterval(row rowScanner) (interval.Interval, error) {
	var (
		id       int64
		startStr string
		endStr   sql.NullString
		tag      string
	)
	if err := row.Scan(&id, &startStr, &endStr, &tag); err != nil {
		return interval.Interval{}, err
	}

	start, err := time.ParseInLocation(timeLayout, startStr, time.Local)
	if err != nil {
		return interval.Interval{}, fmt.Errorf("invalid start time %q: %w", startStr, err)
	}

	iv := interval.Interval{
		ID:    strconv.FormatInt(id, 10),
		Tags:  []string{tag},
		Start: start,
	}
	if endStr.Valid {
		end, err := time.ParseInLocation(timeLayout, endStr.String, time.Local)
		if err != nil {
			return interval.Interval{}, fmt.Errorf("invalid end time %q: %w", endStr.String, err)
		}
		iv.End = &end
	}
	return iv, nil
}

// formatDuration renders H:MM:SS, matching the stored duration column.
func formatDuration(d time.Duration) string {
	d = d.Truncate(time.Second)
	h := d / time.Hour
	m := (d % time.Hour) / time.Minute
	s := (d % time.Minute) / time.Second
	return fmt.Sprintf("%d:%02d:%02d", h, m, s)
}
