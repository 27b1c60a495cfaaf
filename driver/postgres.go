// Copyright 2021-present The dbmigrator Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package driver

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"
)

// Postgres is the lib/pq-backed Dialect. It uses clock_timestamp() (which,
// unlike now()/CURRENT_TIMESTAMP, advances within a transaction) and the
// "42P01" SQLSTATE for undefined_table.
type Postgres struct{}

func (Postgres) Name() string        { return "postgres" }
func (Postgres) ClockExpr() string   { return "clock_timestamp()" }
func (Postgres) Placeholder(i int) string { return fmt.Sprintf("$%d", i) }

func (Postgres) CreateTableSQL(table string) string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	log_id INTEGER PRIMARY KEY NOT NULL,
	version TEXT NOT NULL,
	name TEXT,
	kind TEXT NOT NULL,
	checksum TEXT,
	apply_by TEXT,
	start_ts TIMESTAMPTZ,
	finish_ts TIMESTAMPTZ,
	revert_ts TIMESTAMPTZ
)`, table)
}

func (Postgres) IsUndefinedTable(err error) bool {
	if err == nil {
		return false
	}
	var pqErr *pq.Error
	if ok := asPQError(err, &pqErr); ok {
		return pqErr.Code == "42P01"
	}
	// Fall back to a substring check for wrapped/mocked errors that don't
	// carry a *pq.Error (e.g. in unit tests against go-sqlmock).
	return strings.Contains(err.Error(), "42P01") || strings.Contains(strings.ToLower(err.Error()), "does not exist")
}

func asPQError(err error, target **pq.Error) bool {
	type unwrapper interface{ Unwrap() error }
	for e := err; e != nil; {
		if pqErr, ok := e.(*pq.Error); ok {
			*target = pqErr
			return true
		}
		u, ok := e.(unwrapper)
		if !ok {
			return false
		}
		e = u.Unwrap()
	}
	return false
}

// WithAdvisoryLock runs fn while holding a session-level Postgres advisory
// lock keyed by key on conn, released unconditionally afterward. The core
// engine intentionally never takes this lock itself (§5); this is the
// opt-in helper callers needing multi-host safety wrap a run in. conn must
// be a single held connection (e.g. *sql.Conn), since advisory locks are
// session-scoped and a pooled *sql.DB gives no guarantee two calls share a
// connection.
func WithAdvisoryLock(ctx context.Context, conn *sql.Conn, key int64, fn func() error) error {
	if _, err := conn.ExecContext(ctx, "SELECT pg_advisory_lock($1)", key); err != nil {
		return err
	}
	defer conn.ExecContext(ctx, "SELECT pg_advisory_unlock($1)", key)
	return fn()
}
