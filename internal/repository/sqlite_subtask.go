package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/alexanderramin/cronograma/internal/db"
	"github.com/alexanderramin/cronograma/internal/domain"
)

const subtaskColumns = `id, backlog_id, name, weight, quantity, quantity_done, status, created_at, updated_at`

// SQLiteSubtaskRepo implements SubtaskRepo using a SQLite database.
type SQLiteSubtaskRepo struct {
	db db.DBTX
}

// NewSQLiteSubtaskRepo creates a new SQLiteSubtaskRepo.
func NewSQLiteSubtaskRepo(conn db.DBTX) *SQLiteSubtaskRepo {
	return &SQLiteSubtaskRepo{db: conn}
}

func (r *SQLiteSubtaskRepo) Create(ctx context.Context, s *domain.Subtask) error {
	query := `INSERT INTO subtasks (` + subtaskColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		s.ID, s.BacklogID, s.Name, s.Weight, s.Quantity, s.QuantityDone, string(s.Status),
		formatTimestamp(s.CreatedAt), formatTimestamp(s.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting subtask: %w", err)
	}
	return nil
}

func (r *SQLiteSubtaskRepo) GetByID(ctx context.Context, id string) (*domain.Subtask, error) {
	query := `SELECT ` + subtaskColumns + ` FROM subtasks WHERE id = ?`
	s, err := r.scanSubtask(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("subtask %s: %w", id, ErrNotFound)
	}
	return s, err
}

func (r *SQLiteSubtaskRepo) ListByNode(ctx context.Context, nodeID string) ([]*domain.Subtask, error) {
	query := `SELECT ` + subtaskColumns + ` FROM subtasks WHERE backlog_id = ? ORDER BY created_at, id`
	rows, err := r.db.QueryContext(ctx, query, nodeID)
	if err != nil {
		return nil, fmt.Errorf("listing subtasks by node: %w", err)
	}
	defer rows.Close()
	return r.scanSubtasks(rows)
}

func (r *SQLiteSubtaskRepo) ListByProject(ctx context.Context, projectID string) ([]*domain.Subtask, error) {
	query := `SELECT s.id, s.backlog_id, s.name, s.weight, s.quantity, s.quantity_done, s.status,
			s.created_at, s.updated_at
		FROM subtasks s
		JOIN wbs_nodes n ON s.backlog_id = n.id
		WHERE n.project_id = ?
		ORDER BY s.created_at, s.id`
	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing subtasks by project: %w", err)
	}
	defer rows.Close()
	return r.scanSubtasks(rows)
}

func (r *SQLiteSubtaskRepo) Update(ctx context.Context, s *domain.Subtask) error {
	query := `UPDATE subtasks SET name = ?, weight = ?, quantity = ?, quantity_done = ?, status = ?, updated_at = ?
		WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query,
		s.Name, s.Weight, s.Quantity, s.QuantityDone, string(s.Status), formatTimestamp(s.UpdatedAt), s.ID,
	)
	if err != nil {
		return fmt.Errorf("updating subtask: %w", err)
	}
	return nil
}

func (r *SQLiteSubtaskRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM subtasks WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting subtask: %w", err)
	}
	return nil
}

func (r *SQLiteSubtaskRepo) scanSubtask(row rowScanner) (*domain.Subtask, error) {
	var s domain.Subtask
	var statusStr, createdAtStr, updatedAtStr string
	err := row.Scan(&s.ID, &s.BacklogID, &s.Name, &s.Weight, &s.Quantity, &s.QuantityDone,
		&statusStr, &createdAtStr, &updatedAtStr)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning subtask: %w", err)
	}
	s.Status = domain.SubtaskStatus(statusStr)
	s.CreatedAt, s.UpdatedAt, err = parseTimestamps(createdAtStr, updatedAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing subtask timestamps: %w", err)
	}
	return &s, nil
}

func (r *SQLiteSubtaskRepo) scanSubtasks(rows *sql.Rows) ([]*domain.Subtask, error) {
	var out []*domain.Subtask
	for rows.Next() {
		s, err := r.scanSubtask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating subtasks: %w", err)
	}
	return out, nil
}
