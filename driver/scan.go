// Copyright 2021-present The dbmigrator Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package driver

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dbmigrator/dbmigrator/changelog"
)

// rowScanner is satisfied by both *sql.Rows and *sql.Row, so scanEntry can
// be shared (GetChangelog uses the former; nothing currently needs the
// latter, but keeping the narrower interface makes that substitution
// trivial later).
type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(r rowScanner) (changelog.Entry, error) {
	var (
		e                           changelog.Entry
		name, checksum, applyBy    sql.NullString
		startTS, finishTS, revertTS sql.NullTime
	)
	if err := r.Scan(&e.LogID, &e.Version, &name, &e.Kind, &checksum, &applyBy, &startTS, &finishTS, &revertTS); err != nil {
		return changelog.Entry{}, err
	}
	if name.Valid {
		e.Name = &name.String
	}
	if checksum.Valid {
		e.Checksum = &checksum.String
	}
	if applyBy.Valid {
		e.ApplyBy = &applyBy.String
	}
	if startTS.Valid {
		e.StartTS = &startTS.Time
	}
	if finishTS.Valid {
		e.FinishTS = &finishTS.Time
	}
	if revertTS.Valid {
		e.RevertTS = &revertTS.Time
	}
	return e, nil
}

func clockNow(ctx context.Context, tx *sql.Tx, d Dialect) (time.Time, error) {
	var t time.Time
	err := tx.QueryRowContext(ctx, "SELECT "+d.ClockExpr()).Scan(&t)
	return t, err
}

func insertEntry(ctx context.Context, tx *sql.Tx, d Dialect, table string, e changelog.Entry, start, finish time.Time) error {
	q := fmt.Sprintf("INSERT INTO %s (log_id, version, name, kind, checksum, apply_by, start_ts, finish_ts) VALUES (%s, %s, %s, %s, %s, %s, %s, %s)",
		table,
		d.Placeholder(1), d.Placeholder(2), d.Placeholder(3), d.Placeholder(4),
		d.Placeholder(5), d.Placeholder(6), d.Placeholder(7), d.Placeholder(8))
	_, err := tx.ExecContext(ctx, q, e.LogID, e.Version, e.Name, e.Kind, e.Checksum, e.ApplyBy, start, finish)
	return err
}
