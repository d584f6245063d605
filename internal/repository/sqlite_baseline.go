package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/alexanderramin/cronograma/internal/db"
	"github.com/alexanderramin/cronograma/internal/domain"
)

const baselineColumns = `id, project_id, baseline_number, description, status, created_by, created_at, snapshot_data`

// SQLiteBaselineRepo implements BaselineRepo using a SQLite database.
// created_at keeps sub-second precision so two baselines taken back to back
// stay distinguishable.
type SQLiteBaselineRepo struct {
	db db.DBTX
}

// NewSQLiteBaselineRepo creates a new SQLiteBaselineRepo.
func NewSQLiteBaselineRepo(conn db.DBTX) *SQLiteBaselineRepo {
	return &SQLiteBaselineRepo{db: conn}
}

func (r *SQLiteBaselineRepo) Create(ctx context.Context, b *domain.ScheduleBaseline) error {
	data, err := json.Marshal(b.SnapshotData)
	if err != nil {
		return fmt.Errorf("encoding baseline snapshot: %w", err)
	}
	query := `INSERT INTO schedule_baselines (` + baselineColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = r.db.ExecContext(ctx, query,
		b.ID, b.ProjectID, b.BaselineNumber, b.Description, string(b.Status), b.CreatedBy,
		b.CreatedAt.UTC().Format(time.RFC3339Nano), string(data),
	)
	if err != nil {
		return fmt.Errorf("inserting baseline: %w", err)
	}
	return nil
}

func (r *SQLiteBaselineRepo) GetByID(ctx context.Context, id string) (*domain.ScheduleBaseline, error) {
	query := `SELECT ` + baselineColumns + ` FROM schedule_baselines WHERE id = ?`
	b, err := r.scanBaseline(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("baseline %s: %w", id, ErrNotFound)
	}
	return b, err
}

func (r *SQLiteBaselineRepo) GetActive(ctx context.Context, projectID string) (*domain.ScheduleBaseline, error) {
	query := `SELECT ` + baselineColumns + ` FROM schedule_baselines WHERE project_id = ? AND status = 'active'`
	b, err := r.scanBaseline(r.db.QueryRowContext(ctx, query, projectID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("active baseline: %w", ErrNotFound)
	}
	return b, err
}

func (r *SQLiteBaselineRepo) ListByProject(ctx context.Context, projectID string) ([]*domain.ScheduleBaseline, error) {
	query := `SELECT ` + baselineColumns + ` FROM schedule_baselines WHERE project_id = ? ORDER BY baseline_number`
	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing baselines: %w", err)
	}
	defer rows.Close()

	var out []*domain.ScheduleBaseline
	for rows.Next() {
		b, err := r.scanBaseline(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating baselines: %w", err)
	}
	return out, nil
}

func (r *SQLiteBaselineRepo) MaxNumber(ctx context.Context, projectID string) (int, error) {
	var n int
	query := `SELECT COALESCE(MAX(baseline_number), 0) FROM schedule_baselines WHERE project_id = ?`
	if err := r.db.QueryRowContext(ctx, query, projectID).Scan(&n); err != nil {
		return 0, fmt.Errorf("reading max baseline number: %w", err)
	}
	return n, nil
}

func (r *SQLiteBaselineRepo) SupersedeActive(ctx context.Context, projectID string) error {
	query := `UPDATE schedule_baselines SET status = 'superseded' WHERE project_id = ? AND status = 'active'`
	if _, err := r.db.ExecContext(ctx, query, projectID); err != nil {
		return fmt.Errorf("superseding active baseline: %w", err)
	}
	return nil
}

func (r *SQLiteBaselineRepo) scanBaseline(row rowScanner) (*domain.ScheduleBaseline, error) {
	var b domain.ScheduleBaseline
	var statusStr, createdAtStr, data string
	err := row.Scan(&b.ID, &b.ProjectID, &b.BaselineNumber, &b.Description, &statusStr, &b.CreatedBy,
		&createdAtStr, &data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning baseline: %w", err)
	}
	b.Status = domain.BaselineStatus(statusStr)
	if b.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAtStr); err != nil {
		return nil, fmt.Errorf("parsing baseline created_at: %w", err)
	}
	if err := json.Unmarshal([]byte(data), &b.SnapshotData); err != nil {
		return nil, fmt.Errorf("decoding baseline snapshot: %w", err)
	}
	return &b, nil
}
