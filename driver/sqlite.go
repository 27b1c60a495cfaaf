// Copyright 2021-present The dbmigrator Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package driver

import (
	"fmt"
	"strings"
)

// SQLite is the mattn/go-sqlite3-backed Dialect. SQLite has no server
// clock distinct from the process clock, so STRFTIME(..., 'now') (UTC,
// millisecond precision) stands in for clock_timestamp(); "table does not
// exist" isn't a distinguishable error code in the driver, so it is
// recognized by substring, matching how the driver itself reports it.
type SQLite struct{}

func (SQLite) Name() string           { return "sqlite" }
func (SQLite) ClockExpr() string      { return "STRFTIME('%Y-%m-%d %H:%M:%f', 'now')" }
func (SQLite) Placeholder(int) string { return "?" }

func (SQLite) CreateTableSQL(table string) string {
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n"+
		"\tlog_id INTEGER PRIMARY KEY NOT NULL,\n"+
		"\tversion TEXT NOT NULL,\n"+
		"\tname TEXT,\n"+
		"\tkind TEXT NOT NULL,\n"+
		"\tchecksum TEXT,\n"+
		"\tapply_by TEXT,\n"+
		"\tstart_ts TEXT,\n"+
		"\tfinish_ts TEXT,\n"+
		"\trevert_ts TEXT\n"+
		")", table)
}

func (SQLite) IsUndefinedTable(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(strings.ToLower(err.Error()), "no such table")
}
