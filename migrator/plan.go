// Copyright 2021-present The dbmigrator Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package migrator

import (
	"github.com/dbmigrator/dbmigrator/changelog"
	"github.com/dbmigrator/dbmigrator/recipe"
)

// Unit is one atomic database transaction's worth of work: a recipe to
// execute plus the changelog bookkeeping the adapter must perform in the
// same transaction.
type Unit struct {
	Recipe *recipe.Recipe

	// LogIDToRevert, when non-nil, names an existing row whose revert_ts
	// must be set to the transaction's start_ts.
	LogIDToRevert *int32

	// RevertLogToInsert, when non-nil, is a checksum-less marker row to
	// insert (its StartTS/FinishTS are filled in by the adapter from the
	// database clock at apply time, not by the planner).
	RevertLogToInsert *changelog.Entry

	// ApplyLogToInsert, when non-nil, is the row recording that Recipe was
	// applied.
	ApplyLogToInsert *changelog.Entry
}

// Plan is the ordered sequence of Units a Migrator produced. Units execute
// strictly in order; each is exactly one database transaction.
type Plan struct {
	Units []Unit
}
