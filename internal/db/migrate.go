package db

import (
	"database/sql"
	"fmt"
)

// Migrate runs all schema migrations. Every statement is idempotent.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS projects (
		id          TEXT PRIMARY KEY,
		short_id    TEXT NOT NULL DEFAULT '',
		name        TEXT NOT NULL,
		start_date  TEXT NOT NULL,
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_projects_short_id ON projects(short_id) WHERE short_id != ''`,

	// WBS codes and levels are derived in Go; there are no triggers on this table.
	`CREATE TABLE IF NOT EXISTS wbs_nodes (
		id                    TEXT PRIMARY KEY,
		project_id            TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		parent_id             TEXT REFERENCES wbs_nodes(id) ON DELETE CASCADE,
		wbs_code              TEXT NOT NULL,
		level                 INTEGER NOT NULL CHECK(level >= 0),
		sort_order            INTEGER NOT NULL,
		name                  TEXT NOT NULL,
		planned_start         TEXT,
		planned_end           TEXT,
		planned_duration_days INTEGER NOT NULL DEFAULT 0 CHECK(planned_duration_days >= 0),
		actual_start          TEXT,
		actual_end            TEXT,
		planned_cost          REAL NOT NULL DEFAULT 0,
		actual_cost           REAL NOT NULL DEFAULT 0,
		weight                REAL NOT NULL DEFAULT 0 CHECK(weight >= 0),
		quantity              REAL NOT NULL DEFAULT 0,
		quantity_done         REAL NOT NULL DEFAULT 0,
		percent_complete      REAL NOT NULL DEFAULT 0 CHECK(percent_complete BETWEEN 0 AND 100),
		is_milestone          INTEGER NOT NULL DEFAULT 0,
		is_inspection         INTEGER NOT NULL DEFAULT 0,
		manual_override       INTEGER NOT NULL DEFAULT 0,
		manual_dates          INTEGER NOT NULL DEFAULT 0,
		date_locked           INTEGER NOT NULL DEFAULT 0,
		deleted_at            TEXT,
		created_at            TEXT NOT NULL,
		updated_at            TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_wbs_nodes_project ON wbs_nodes(project_id)`,
	`CREATE INDEX IF NOT EXISTS idx_wbs_nodes_parent ON wbs_nodes(parent_id)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_wbs_nodes_live_code ON wbs_nodes(project_id, wbs_code) WHERE deleted_at IS NULL`,

	`CREATE TABLE IF NOT EXISTS subtasks (
		id            TEXT PRIMARY KEY,
		backlog_id    TEXT NOT NULL REFERENCES wbs_nodes(id) ON DELETE CASCADE,
		name          TEXT NOT NULL,
		weight        REAL NOT NULL DEFAULT 0 CHECK(weight >= 0),
		quantity      REAL NOT NULL DEFAULT 0,
		quantity_done REAL NOT NULL DEFAULT 0,
		status        TEXT NOT NULL DEFAULT 'pending'
		              CHECK(status IN ('pending','in_progress','done')),
		created_at    TEXT NOT NULL,
		updated_at    TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_subtasks_backlog ON subtasks(backlog_id)`,

	`CREATE TABLE IF NOT EXISTS dependencies (
		project_id     TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		predecessor_id TEXT NOT NULL REFERENCES wbs_nodes(id) ON DELETE CASCADE,
		successor_id   TEXT NOT NULL REFERENCES wbs_nodes(id) ON DELETE CASCADE,
		type           TEXT NOT NULL DEFAULT 'FS' CHECK(type IN ('FS','SS','FF','SF')),
		lag_days       INTEGER NOT NULL DEFAULT 0,
		created_at     TEXT NOT NULL,
		PRIMARY KEY (predecessor_id, successor_id),
		CHECK(predecessor_id != successor_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_dependencies_project ON dependencies(project_id)`,
	`CREATE INDEX IF NOT EXISTS idx_dependencies_successor ON dependencies(successor_id)`,

	`CREATE TABLE IF NOT EXISTS sprints (
		id                  TEXT PRIMARY KEY,
		project_id          TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		name                TEXT NOT NULL,
		start_date          TEXT NOT NULL,
		end_date            TEXT NOT NULL,
		progress_percentage REAL NOT NULL DEFAULT 0,
		status              TEXT NOT NULL DEFAULT 'future'
		                    CHECK(status IN ('future','active','completed')),
		created_at          TEXT NOT NULL,
		updated_at          TEXT NOT NULL,
		CHECK(end_date >= start_date)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sprints_project ON sprints(project_id)`,

	`CREATE TABLE IF NOT EXISTS sprint_tasks (
		id                TEXT PRIMARY KEY,
		sprint_id         TEXT NOT NULL REFERENCES sprints(id) ON DELETE CASCADE,
		backlog_id        TEXT NOT NULL REFERENCES wbs_nodes(id) ON DELETE CASCADE,
		subtask_id        TEXT REFERENCES subtasks(id) ON DELETE SET NULL,
		assigned_to       TEXT NOT NULL DEFAULT '',
		scheduled_for     TEXT,
		executed_at       TEXT,
		actual_start_time TEXT,
		actual_end_time   TEXT,
		status            TEXT NOT NULL DEFAULT 'pending'
		                  CHECK(status IN ('pending','in_progress','blocked','done')),
		quantity_done     REAL,
		created_at        TEXT NOT NULL,
		updated_at        TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sprint_tasks_sprint ON sprint_tasks(sprint_id)`,
	`CREATE INDEX IF NOT EXISTS idx_sprint_tasks_backlog ON sprint_tasks(backlog_id)`,

	`CREATE TABLE IF NOT EXISTS schedule_baselines (
		id              TEXT PRIMARY KEY,
		project_id      TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		baseline_number INTEGER NOT NULL CHECK(baseline_number > 0),
		description     TEXT NOT NULL DEFAULT '',
		status          TEXT NOT NULL CHECK(status IN ('active','superseded')),
		created_by      TEXT NOT NULL DEFAULT '',
		created_at      TEXT NOT NULL,
		snapshot_data   TEXT NOT NULL,
		UNIQUE (project_id, baseline_number)
	)`,
	// At most one active baseline per project.
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_baselines_one_active ON schedule_baselines(project_id) WHERE status = 'active'`,
	`CREATE TRIGGER IF NOT EXISTS trg_baselines_immutable
		BEFORE UPDATE OF snapshot_data, baseline_number, created_at, project_id ON schedule_baselines
		BEGIN
			SELECT RAISE(ABORT, 'schedule baseline snapshot is immutable');
		END`,
}
