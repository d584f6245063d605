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

// wbsNodeColumns is the canonical SELECT column list for wbs_nodes.
const wbsNodeColumns = `id, project_id, parent_id, wbs_code, level, sort_order, name,
		planned_start, planned_end, planned_duration_days, actual_start, actual_end,
		planned_cost, actual_cost, weight, quantity, quantity_done, percent_complete,
		is_milestone, is_inspection, manual_override, manual_dates, date_locked,
		deleted_at, created_at, updated_at`

// SQLiteWbsNodeRepo implements WbsNodeRepo using a SQLite database.
type SQLiteWbsNodeRepo struct {
	db db.DBTX
}

// NewSQLiteWbsNodeRepo creates a new SQLiteWbsNodeRepo.
func NewSQLiteWbsNodeRepo(conn db.DBTX) *SQLiteWbsNodeRepo {
	return &SQLiteWbsNodeRepo{db: conn}
}

func (r *SQLiteWbsNodeRepo) Create(ctx context.Context, n *domain.WbsNode) error {
	query := `INSERT INTO wbs_nodes (` + wbsNodeColumns + `) VALUES (` + placeholders(26) + `)`
	_, err := r.db.ExecContext(ctx, query,
		n.ID,
		n.ProjectID,
		nullableString(n.ParentID),
		n.WbsCode,
		n.Level,
		n.SortOrder,
		n.Name,
		nullableTimeToString(n.PlannedStart, dateLayout),
		nullableTimeToString(n.PlannedEnd, dateLayout),
		n.PlannedDurationDays,
		nullableTimeToString(n.ActualStart, dateLayout),
		nullableTimeToString(n.ActualEnd, dateLayout),
		n.PlannedCost,
		n.ActualCost,
		n.Weight,
		n.Quantity,
		n.QuantityDone,
		n.PercentComplete,
		boolToInt(n.IsMilestone),
		boolToInt(n.IsInspection),
		boolToInt(n.ManualOverride),
		boolToInt(n.ManualDates),
		boolToInt(n.DateLocked),
		nullableTimeToString(n.DeletedAt, timestampLayout),
		formatTimestamp(n.CreatedAt),
		formatTimestamp(n.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting wbs node: %w", err)
	}
	return nil
}

func (r *SQLiteWbsNodeRepo) GetByID(ctx context.Context, id string) (*domain.WbsNode, error) {
	query := `SELECT ` + wbsNodeColumns + ` FROM wbs_nodes WHERE id = ?`
	n, err := r.scanNode(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("wbs node %s: %w", id, ErrNotFound)
	}
	return n, err
}

func (r *SQLiteWbsNodeRepo) ListByProject(ctx context.Context, projectID string, includeDeleted bool) ([]*domain.WbsNode, error) {
	query := `SELECT ` + wbsNodeColumns + ` FROM wbs_nodes WHERE project_id = ?`
	if !includeDeleted {
		query += ` AND deleted_at IS NULL`
	}
	query += ` ORDER BY sort_order, wbs_code`

	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing wbs nodes: %w", err)
	}
	defer rows.Close()

	var nodes []*domain.WbsNode
	for rows.Next() {
		n, err := r.scanNode(rows)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating wbs nodes: %w", err)
	}
	return nodes, nil
}

// Update writes every mutable column except deleted_at.
func (r *SQLiteWbsNodeRepo) Update(ctx context.Context, n *domain.WbsNode) error {
	query := `UPDATE wbs_nodes SET parent_id = ?, wbs_code = ?, level = ?, sort_order = ?, name = ?,
		planned_start = ?, planned_end = ?, planned_duration_days = ?, actual_start = ?, actual_end = ?,
		planned_cost = ?, actual_cost = ?, weight = ?, quantity = ?, quantity_done = ?, percent_complete = ?,
		is_milestone = ?, is_inspection = ?, manual_override = ?, manual_dates = ?, date_locked = ?,
		updated_at = ?
		WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query,
		nullableString(n.ParentID),
		n.WbsCode,
		n.Level,
		n.SortOrder,
		n.Name,
		nullableTimeToString(n.PlannedStart, dateLayout),
		nullableTimeToString(n.PlannedEnd, dateLayout),
		n.PlannedDurationDays,
		nullableTimeToString(n.ActualStart, dateLayout),
		nullableTimeToString(n.ActualEnd, dateLayout),
		n.PlannedCost,
		n.ActualCost,
		n.Weight,
		n.Quantity,
		n.QuantityDone,
		n.PercentComplete,
		boolToInt(n.IsMilestone),
		boolToInt(n.IsInspection),
		boolToInt(n.ManualOverride),
		boolToInt(n.ManualDates),
		boolToInt(n.DateLocked),
		formatTimestamp(n.UpdatedAt),
		n.ID,
	)
	if err != nil {
		return fmt.Errorf("updating wbs node: %w", err)
	}
	return nil
}

// UpdateSchedule writes only the planned dates and duration.
func (r *SQLiteWbsNodeRepo) UpdateSchedule(ctx context.Context, n *domain.WbsNode) error {
	query := `UPDATE wbs_nodes SET planned_start = ?, planned_end = ?, planned_duration_days = ?, updated_at = ?
		WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query,
		nullableTimeToString(n.PlannedStart, dateLayout),
		nullableTimeToString(n.PlannedEnd, dateLayout),
		n.PlannedDurationDays,
		formatTimestamp(n.UpdatedAt),
		n.ID,
	)
	if err != nil {
		return fmt.Errorf("updating wbs node schedule: %w", err)
	}
	return nil
}

func (r *SQLiteWbsNodeRepo) UpdateProgress(ctx context.Context, id string, percent float64, at time.Time) error {
	query := `UPDATE wbs_nodes SET percent_complete = ?, updated_at = ? WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, query, percent, formatTimestamp(at), id); err != nil {
		return fmt.Errorf("updating wbs node progress: %w", err)
	}
	return nil
}

// SoftDelete stamps deleted_at on the given nodes. Rows stay in place so
// dependencies, sprint tasks and baselines can still reference them.
func (r *SQLiteWbsNodeRepo) SoftDelete(ctx context.Context, ids []string, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	args := make([]any, 0, len(ids)+2)
	stamp := formatTimestamp(at)
	args = append(args, stamp, stamp)
	for _, id := range ids {
		args = append(args, id)
	}
	query := `UPDATE wbs_nodes SET deleted_at = ?, updated_at = ?
		WHERE deleted_at IS NULL AND id IN (` + placeholders(len(ids)) + `)`
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("soft-deleting wbs nodes: %w", err)
	}
	return nil
}

// scanNode returns sql.ErrNoRows unwrapped so GetByID can name the id.
func (r *SQLiteWbsNodeRepo) scanNode(row rowScanner) (*domain.WbsNode, error) {
	var n domain.WbsNode
	var parentID sql.NullString
	var plannedStart, plannedEnd, actualStart, actualEnd, deletedAt sql.NullString
	var milestone, inspection, manualOverride, manualDates, dateLocked int
	var createdAtStr, updatedAtStr string

	err := row.Scan(
		&n.ID, &n.ProjectID, &parentID, &n.WbsCode, &n.Level, &n.SortOrder, &n.Name,
		&plannedStart, &plannedEnd, &n.PlannedDurationDays, &actualStart, &actualEnd,
		&n.PlannedCost, &n.ActualCost, &n.Weight, &n.Quantity, &n.QuantityDone, &n.PercentComplete,
		&milestone, &inspection, &manualOverride, &manualDates, &dateLocked,
		&deletedAt, &createdAtStr, &updatedAtStr,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning wbs node: %w", err)
	}

	n.ParentID = stringPtr(parentID)
	n.PlannedStart = parseNullableTime(plannedStart, dateLayout)
	n.PlannedEnd = parseNullableTime(plannedEnd, dateLayout)
	n.ActualStart = parseNullableTime(actualStart, dateLayout)
	n.ActualEnd = parseNullableTime(actualEnd, dateLayout)
	n.DeletedAt = parseNullableTime(deletedAt, timestampLayout)
	n.IsMilestone = intToBool(milestone)
	n.IsInspection = intToBool(inspection)
	n.ManualOverride = intToBool(manualOverride)
	n.ManualDates = intToBool(manualDates)
	n.DateLocked = intToBool(dateLocked)

	n.CreatedAt, n.UpdatedAt, err = parseTimestamps(createdAtStr, updatedAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing wbs node timestamps: %w", err)
	}
	return &n, nil
}
