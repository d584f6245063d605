package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/alexanderramin/cronograma/internal/db"
	"github.com/alexanderramin/cronograma/internal/domain"
)

const sprintTaskColumns = `id, sprint_id, backlog_id, subtask_id, assigned_to, scheduled_for, executed_at,
		actual_start_time, actual_end_time, status, quantity_done, created_at, updated_at`

// SQLiteSprintTaskRepo implements SprintTaskRepo using a SQLite database.
type SQLiteSprintTaskRepo struct {
	db db.DBTX
}

// NewSQLiteSprintTaskRepo creates a new SQLiteSprintTaskRepo.
func NewSQLiteSprintTaskRepo(conn db.DBTX) *SQLiteSprintTaskRepo {
	return &SQLiteSprintTaskRepo{db: conn}
}

func (r *SQLiteSprintTaskRepo) Create(ctx context.Context, t *domain.SprintTask) error {
	query := `INSERT INTO sprint_tasks (` + sprintTaskColumns + `) VALUES (` + placeholders(13) + `)`
	_, err := r.db.ExecContext(ctx, query,
		t.ID,
		t.SprintID,
		t.BacklogID,
		nullableString(t.SubtaskID),
		t.AssignedTo,
		nullableTimeToString(t.ScheduledFor, dateLayout),
		nullableTimeToString(t.ExecutedAt, dateLayout),
		nullableTimeToString(t.ActualStartTime, timestampLayout),
		nullableTimeToString(t.ActualEndTime, timestampLayout),
		string(t.Status),
		nullableFloat(t.QuantityDone),
		formatTimestamp(t.CreatedAt),
		formatTimestamp(t.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting sprint task: %w", err)
	}
	return nil
}

func (r *SQLiteSprintTaskRepo) GetByID(ctx context.Context, id string) (*domain.SprintTask, error) {
	query := `SELECT ` + sprintTaskColumns + ` FROM sprint_tasks WHERE id = ?`
	t, err := r.scanTask(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("sprint task %s: %w", id, ErrNotFound)
	}
	return t, err
}

func (r *SQLiteSprintTaskRepo) ListBySprint(ctx context.Context, sprintID string) ([]*domain.SprintTask, error) {
	query := `SELECT ` + sprintTaskColumns + ` FROM sprint_tasks WHERE sprint_id = ? ORDER BY created_at, id`
	rows, err := r.db.QueryContext(ctx, query, sprintID)
	if err != nil {
		return nil, fmt.Errorf("listing sprint tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*domain.SprintTask
	for rows.Next() {
		t, err := r.scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sprint tasks: %w", err)
	}
	return tasks, nil
}

func (r *SQLiteSprintTaskRepo) Update(ctx context.Context, t *domain.SprintTask) error {
	query := `UPDATE sprint_tasks SET subtask_id = ?, assigned_to = ?, scheduled_for = ?, executed_at = ?,
		actual_start_time = ?, actual_end_time = ?, status = ?, quantity_done = ?, updated_at = ?
		WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query,
		nullableString(t.SubtaskID),
		t.AssignedTo,
		nullableTimeToString(t.ScheduledFor, dateLayout),
		nullableTimeToString(t.ExecutedAt, dateLayout),
		nullableTimeToString(t.ActualStartTime, timestampLayout),
		nullableTimeToString(t.ActualEndTime, timestampLayout),
		string(t.Status),
		nullableFloat(t.QuantityDone),
		formatTimestamp(t.UpdatedAt),
		t.ID,
	)
	if err != nil {
		return fmt.Errorf("updating sprint task: %w", err)
	}
	return nil
}

func (r *SQLiteSprintTaskRepo) CountByStatus(ctx context.Context, sprintID string) (int, int, error) {
	query := `SELECT COALESCE(SUM(CASE WHEN status = 'done' THEN 1 ELSE 0 END), 0), COUNT(*)
		FROM sprint_tasks WHERE sprint_id = ?`
	var done, total int
	if err := r.db.QueryRowContext(ctx, query, sprintID).Scan(&done, &total); err != nil {
		return 0, 0, fmt.Errorf("counting sprint tasks: %w", err)
	}
	return done, total, nil
}

func (r *SQLiteSprintTaskRepo) scanTask(row rowScanner) (*domain.SprintTask, error) {
	var t domain.SprintTask
	var subtaskID, scheduledFor, executedAt, startTime, endTime sql.NullString
	var quantityDone sql.NullFloat64
	var statusStr, createdAtStr, updatedAtStr string

	err := row.Scan(&t.ID, &t.SprintID, &t.BacklogID, &subtaskID, &t.AssignedTo, &scheduledFor, &executedAt,
		&startTime, &endTime, &statusStr, &quantityDone, &createdAtStr, &updatedAtStr)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning sprint task: %w", err)
	}

	t.SubtaskID = stringPtr(subtaskID)
	t.ScheduledFor = parseNullableTime(scheduledFor, dateLayout)
	t.ExecutedAt = parseNullableTime(executedAt, dateLayout)
	t.ActualStartTime = parseNullableTime(startTime, timestampLayout)
	t.ActualEndTime = parseNullableTime(endTime, timestampLayout)
	t.Status = domain.SprintTaskStatus(statusStr)
	t.QuantityDone = floatPtr(quantityDone)
	t.CreatedAt, t.UpdatedAt, err = parseTimestamps(createdAtStr, updatedAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing sprint task timestamps: %w", err)
	}
	return &t, nil
}
