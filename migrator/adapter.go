// Copyright 2021-present The dbmigrator Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package migrator

import (
	"context"

	"github.com/dbmigrator/dbmigrator/changelog"
)

// Adapter is the database collaborator a Migrator drives. Every method is
// atomic per call; ApplyPlan is the one that does real work against the
// schema and must follow a seven-step sequence: capture start_ts, execute
// the recipe's SQL as a batch, set revert_ts on the reverted row, capture
// finish_ts, insert the revert marker, insert the apply row, commit.
//
// Implementations live in the driver package; this interface is what lets
// Migrator stay free of any *sql.DB or dialect-specific type.
type Adapter interface {
	// LastLogID returns the maximum log_id in table, -1 if the table
	// exists but is empty, or a *dbmerr.Error with Code == dbmerr.NoLogTable
	// if the table does not exist.
	LastLogID(ctx context.Context, table string) (int32, error)

	// GetChangelog issues an idempotent CREATE TABLE IF NOT EXISTS followed
	// by a SELECT, all within one transaction, returning rows ordered by
	// log_id ascending.
	GetChangelog(ctx context.Context, table string) ([]changelog.Entry, error)

	// ApplyPlan executes one Unit as a single transaction.
	ApplyPlan(ctx context.Context, table string, unit Unit) error
}
