// Copyright 2021-present The dbmigrator Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package driver

import (
	"errors"
	"fmt"
	"strings"

	mysqldriver "github.com/go-sql-driver/mysql"
)

// MySQL is the go-sql-driver/mysql-backed Dialect. MySQL has no
// clock_timestamp() equivalent that advances mid-transaction the way
// Postgres does, so it uses UTC_TIMESTAMP(6) (microsecond precision,
// re-evaluated per call) and recognizes error 1146 (ER_NO_SUCH_TABLE).
type MySQL struct{}

func (MySQL) Name() string           { return "mysql" }
func (MySQL) ClockExpr() string      { return "UTC_TIMESTAMP(6)" }
func (MySQL) Placeholder(int) string { return "?" }

func (MySQL) CreateTableSQL(table string) string {
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n"+
		"\tlog_id INTEGER PRIMARY KEY NOT NULL,\n"+
		"\tversion VARCHAR(255) NOT NULL,\n"+
		"\tname VARCHAR(255),\n"+
		"\tkind VARCHAR(16) NOT NULL,\n"+
		"\tchecksum CHAR(64),\n"+
		"\tapply_by VARCHAR(255),\n"+
		"\tstart_ts DATETIME(6),\n"+
		"\tfinish_ts DATETIME(6),\n"+
		"\trevert_ts DATETIME(6)\n"+
		")", table)
}

func (MySQL) IsUndefinedTable(err error) bool {
	if err == nil {
		return false
	}
	var merr *mysqldriver.MySQLError
	if errors.As(err, &merr) {
		return merr.Number == 1146
	}
	return strings.Contains(err.Error(), "1146") || strings.Contains(strings.ToLower(err.Error()), "doesn't exist")
}
