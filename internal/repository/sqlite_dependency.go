package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/alexanderramin/cronograma/internal/db"
	"github.com/alexanderramin/cronograma/internal/domain"
)

const dependencyColumns = `project_id, predecessor_id, successor_id, type, lag_days, created_at`

// SQLiteDependencyRepo implements DependencyRepo using a SQLite database.
// It performs no acyclicity check; callers go through the dependency
// graph guard or run the topological check after a bulk insert.
type SQLiteDependencyRepo struct {
	db db.DBTX
}

// NewSQLiteDependencyRepo creates a new SQLiteDependencyRepo.
func NewSQLiteDependencyRepo(conn db.DBTX) *SQLiteDependencyRepo {
	return &SQLiteDependencyRepo{db: conn}
}

func (r *SQLiteDependencyRepo) Create(ctx context.Context, d *domain.Dependency) error {
	query := `INSERT INTO dependencies (` + dependencyColumns + `) VALUES (?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		d.ProjectID, d.PredecessorID, d.SuccessorID, string(d.Type), d.LagDays, formatTimestamp(d.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting dependency: %w", err)
	}
	return nil
}

func (r *SQLiteDependencyRepo) Get(ctx context.Context, predecessorID, successorID string) (*domain.Dependency, error) {
	query := `SELECT ` + dependencyColumns + ` FROM dependencies WHERE predecessor_id = ? AND successor_id = ?`
	d, err := r.scanDependency(r.db.QueryRowContext(ctx, query, predecessorID, successorID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("dependency %s->%s: %w", predecessorID, successorID, ErrNotFound)
	}
	return d, err
}

func (r *SQLiteDependencyRepo) Delete(ctx context.Context, predecessorID, successorID string) error {
	query := `DELETE FROM dependencies WHERE predecessor_id = ? AND successor_id = ?`
	res, err := r.db.ExecContext(ctx, query, predecessorID, successorID)
	if err != nil {
		return fmt.Errorf("deleting dependency: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("dependency %s->%s: %w", predecessorID, successorID, ErrNotFound)
	}
	return nil
}

func (r *SQLiteDependencyRepo) ListByProject(ctx context.Context, projectID string) ([]*domain.Dependency, error) {
	query := `SELECT ` + dependencyColumns + ` FROM dependencies WHERE project_id = ?
		ORDER BY predecessor_id, successor_id`
	return r.list(ctx, "listing dependencies", query, projectID)
}

func (r *SQLiteDependencyRepo) ListPredecessors(ctx context.Context, nodeID string) ([]*domain.Dependency, error) {
	query := `SELECT ` + dependencyColumns + ` FROM dependencies WHERE successor_id = ? ORDER BY predecessor_id`
	return r.list(ctx, "listing predecessors", query, nodeID)
}

func (r *SQLiteDependencyRepo) ListSuccessors(ctx context.Context, nodeID string) ([]*domain.Dependency, error) {
	query := `SELECT ` + dependencyColumns + ` FROM dependencies WHERE predecessor_id = ? ORDER BY successor_id`
	return r.list(ctx, "listing successors", query, nodeID)
}

func (r *SQLiteDependencyRepo) list(ctx context.Context, what, query string, args ...any) ([]*domain.Dependency, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", what, err)
	}
	defer rows.Close()

	var deps []*domain.Dependency
	for rows.Next() {
		d, err := r.scanDependency(rows)
		if err != nil {
			return nil, err
		}
		deps = append(deps, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating dependencies: %w", err)
	}
	return deps, nil
}

func (r *SQLiteDependencyRepo) scanDependency(row rowScanner) (*domain.Dependency, error) {
	var d domain.Dependency
	var typeStr, createdAtStr string
	err := row.Scan(&d.ProjectID, &d.PredecessorID, &d.SuccessorID, &typeStr, &d.LagDays, &createdAtStr)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning dependency: %w", err)
	}
	d.Type = domain.DependencyType(typeStr)
	d.CreatedAt, err = time.Parse(timestampLayout, createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing dependency created_at: %w", err)
	}
	return &d, nil
}
