package sqlite

import (
	"context"
	"fmt"

	"github.com/ajkarlsson/stint/internal/repository"
)

// TaskRepository implements repository.TagStore for SQLite
type TaskRepository struct {
	db *DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// Tags returns every recorded tag, sorted.
func (r *TaskRepository) Tags(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name FROM tasks ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	var tags []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tags = append(tags, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tasks: %w", err)
	}

	return tags, nil
}

// Register records a new tag.
func (r *TaskRepository) Register(ctx context.Context, tag string) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO tasks (name) VALUES (?)`, tag)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("failed to register tag: %w", err)
	}
	return nil
}

// Rename changes a tag's string form; its interval rows keep their
// task_id and follow along.
func (r *TaskRepository) Rename(ctx context.Context, oldTag, newTag string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE tasks SET name = ? WHERE name = ?`, newTag, oldTag)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("failed to rename tag: %w", err)
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

// Remove deletes the task row for a tag.
func (r *TaskRepository) Remove(ctx context.Context, tag string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE name = ?`, tag)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("tag still has interval rows: %w", err)
		}
		return fmt.Errorf("failed to remove tag: %w", err)
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
