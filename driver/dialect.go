// Copyright 2021-present The dbmigrator Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

// Package driver implements migrator.Adapter over database/sql, delegating
// the handful of dialect-specific details (the server clock expression,
// parameter placeholders, the log table's DDL, and how "table does not
// exist" surfaces) to a small Dialect interface. Postgres, MySQL and SQLite implementations live
// in postgres.go, mysql.go and sqlite.go.
package driver

// Dialect isolates the four points where RDBMS engines disagree in a way
// that matters to the adapter protocol in §4.5: how to ask the server for
// "now", how placeholders are spelled, how the log table is created, and
// how to recognize the specific error a missing log table produces.
type Dialect interface {
	// Name identifies the dialect for error messages and logging.
	Name() string

	// ClockExpr is a SQL expression returning the server's current
	// timestamp, evaluated fresh on each call (not a constant folded once
	// per transaction), matching clock_timestamp() semantics rather than
	// now()/CURRENT_TIMESTAMP's transaction-start snapshot where the
	// engine offers a choice.
	ClockExpr() string

	// Placeholder returns the driver's parameter marker for the i-th
	// (1-indexed) bind variable in a query.
	Placeholder(i int) string

	// CreateTableSQL returns an idempotent CREATE TABLE IF NOT EXISTS
	// statement for the log table schema in §6.1.
	CreateTableSQL(table string) string

	// IsUndefinedTable reports whether err is the dialect's
	// undefined-relation error, so the adapter can translate it to
	// dbmerr.NoLogTable.
	IsUndefinedTable(err error) bool
}
