// Copyright 2021-present The dbmigrator Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package driver

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dbmigrator/dbmigrator/changelog"
	"github.com/dbmigrator/dbmigrator/dbmerr"
	"github.com/dbmigrator/dbmigrator/migrator"
)

// Adapter implements migrator.Adapter over a database/sql connection pool,
// delegating dialect-specific SQL to Dialect. It assumes the underlying
// driver supports executing a multi-statement script in a single Exec
// call (lib/pq and go-sql-driver/mysql both do, the latter only with the
// "multiStatements=true" DSN parameter set).
type Adapter struct {
	DB      *sql.DB
	Dialect Dialect
}

var _ migrator.Adapter = (*Adapter)(nil)

// New wraps an already-open connection pool. Opening the connection (the
// DSN, credentials, TLS) is a caller concern, consistent with the
// "database driver proper... out of scope" boundary this adapter sits
// behind.
func New(db *sql.DB, dialect Dialect) *Adapter {
	return &Adapter{DB: db, Dialect: dialect}
}

func (a *Adapter) LastLogID(ctx context.Context, table string) (int32, error) {
	var id int32
	q := fmt.Sprintf("SELECT COALESCE(MAX(log_id), -1) FROM %s", table)
	err := a.DB.QueryRowContext(ctx, q).Scan(&id)
	if err != nil {
		if a.Dialect.IsUndefinedTable(err) {
			return 0, &dbmerr.Error{Code: dbmerr.NoLogTable, Message: "log table " + table + " does not exist"}
		}
		return 0, dbmerr.Wrap(dbmerr.DbError, err)
	}
	return id, nil
}

func (a *Adapter) GetChangelog(ctx context.Context, table string) ([]changelog.Entry, error) {
	tx, err := a.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, dbmerr.Wrap(dbmerr.DbError, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, a.Dialect.CreateTableSQL(table)); err != nil {
		return nil, dbmerr.Wrap(dbmerr.DbError, err)
	}

	q := fmt.Sprintf("SELECT log_id, version, name, kind, checksum, apply_by, start_ts, finish_ts, revert_ts FROM %s ORDER BY log_id ASC", table)
	rows, err := tx.QueryContext(ctx, q)
	if err != nil {
		return nil, dbmerr.Wrap(dbmerr.DbError, err)
	}
	defer rows.Close()

	var entries []changelog.Entry
	for rows.Next() {
		e, serr := scanEntry(rows)
		if serr != nil {
			return nil, dbmerr.Wrap(dbmerr.DbError, serr)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, dbmerr.Wrap(dbmerr.DbError, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, dbmerr.Wrap(dbmerr.DbError, err)
	}
	return entries, nil
}

func (a *Adapter) ApplyPlan(ctx context.Context, table string, unit migrator.Unit) error {
	tx, err := a.DB.BeginTx(ctx, nil)
	if err != nil {
		return dbmerr.Wrap(dbmerr.DbError, err)
	}
	defer tx.Rollback()

	startTS, err := clockNow(ctx, tx, a.Dialect)
	if err != nil {
		return dbmerr.Wrap(dbmerr.DbError, err)
	}

	if _, err := tx.ExecContext(ctx, unit.Recipe.SQL); err != nil {
		return dbmerr.Wrap(dbmerr.DbError, err)
	}

	if unit.LogIDToRevert != nil {
		q := fmt.Sprintf("UPDATE %s SET revert_ts = %s WHERE log_id = %s",
			table, a.Dialect.Placeholder(1), a.Dialect.Placeholder(2))
		if _, err := tx.ExecContext(ctx, q, startTS, *unit.LogIDToRevert); err != nil {
			return dbmerr.Wrap(dbmerr.DbError, err)
		}
	}

	finishTS, err := clockNow(ctx, tx, a.Dialect)
	if err != nil {
		return dbmerr.Wrap(dbmerr.DbError, err)
	}

	if unit.RevertLogToInsert != nil {
		if err := insertEntry(ctx, tx, a.Dialect, table, *unit.RevertLogToInsert, startTS, finishTS); err != nil {
			return err
		}
	}
	if unit.ApplyLogToInsert != nil {
		if err := insertEntry(ctx, tx, a.Dialect, table, *unit.ApplyLogToInsert, startTS, finishTS); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return dbmerr.Wrap(dbmerr.DbError, err)
	}
	return nil
}
