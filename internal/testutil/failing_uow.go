package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/alexanderramin/cronograma/internal/db"
)

// FailOnNthExecUoW returns Err from the FailOn-th write of a transaction, so
// tests can break a multi-write use case (import, baseline capture, sprint
// feedback) at a chosen point and check that it rolled back.
//
// Writes are counted from 1 and reads are never counted. When Match is set,
// only statements containing it count, e.g. "INSERT INTO wbs_nodes".
type FailOnNthExecUoW struct {
	DB     *sql.DB
	FailOn int
	Match  string
	Err    error
}

func (u *FailOnNthExecUoW) WithinTx(ctx context.Context, fn func(ctx context.Context, tx db.DBTX) error) error {
	tx, err := u.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	wrapped := &failingExec{DBTX: tx, failOn: u.FailOn, match: u.Match, err: u.Err}
	if err := fn(ctx, wrapped); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

type failingExec struct {
	db.DBTX
	seen   int
	failOn int
	match  string
	err    error
}

func (f *failingExec) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if f.match == "" || strings.Contains(query, f.match) {
		f.seen++
		if f.seen == f.failOn {
			return nil, f.err
		}
	}
	return f.DBTX.ExecContext(ctx, query, args...)
}
