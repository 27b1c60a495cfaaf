// Copyright 2021-present The dbmigrator Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

// Package changelog models one row of the log table a migrator persists
// into the target database, and the fold that collapses raw rows into
// the effective, currently-installed state.
package changelog

import (
	"fmt"
	"time"

	"github.com/dbmigrator/dbmigrator/recipe"
)

// Entry is a single changelog row. A nil Checksum denotes a revert marker:
// the entry it refers to (same LogID-independent Version) no longer
// reflects the live schema.
type Entry struct {
	LogID     int32
	Version   string
	Name      *string
	Kind      string
	Checksum  *string
	ApplyBy   *string
	StartTS   *time.Time
	FinishTS  *time.Time
	RevertTS  *time.Time
}

// Checksum32 returns the first 8 characters of Checksum, or "" if Checksum
// is nil (a revert marker has no checksum to display).
func (e Entry) Checksum32() string {
	if e.Checksum == nil {
		return ""
	}
	return recipe.Checksum32(*e.Checksum)
}

// RecipeKind parses Kind into a recipe.Kind, reporting false if Kind isn't
// one of the four recognized values.
func (e Entry) RecipeKind() (recipe.Kind, bool) {
	return recipe.ParseKind(e.Kind)
}

// IsBaseline reports whether this entry records a Baseline application.
func (e Entry) IsBaseline() bool { return e.Kind == string(recipe.Baseline) }

// IsUpgrade reports whether this entry records an Upgrade application.
func (e Entry) IsUpgrade() bool { return e.Kind == string(recipe.Upgrade) }

// IsFix reports whether this entry records a Revert or Fixup application.
func (e Entry) IsFix() bool { return e.Kind == string(recipe.Revert) || e.Kind == string(recipe.Fixup) }

// String renders the entry the way the original changelog model does:
// "#log_id v: version name kind, (checksum)[, started: ...][, finished:
// ...][, reverted: ...]", with "-" standing in for an absent name or
// checksum.
func (e Entry) String() string {
	name := "-"
	if e.Name != nil {
		name = *e.Name
	}
	checksum := "-"
	if e.Checksum != nil {
		checksum = *e.Checksum
	}
	s := fmt.Sprintf("#%d v: %s %s %s, (%s)", e.LogID, e.Version, name, e.Kind, checksum)
	if e.StartTS != nil {
		s += fmt.Sprintf(", started: %s", e.StartTS.Format(time.RFC3339))
	}
	if e.FinishTS != nil {
		s += fmt.Sprintf(", finished: %s", e.FinishTS.Format(time.RFC3339))
	}
	if e.RevertTS != nil {
		s += fmt.Sprintf(", reverted: %s", e.RevertTS.Format(time.RFC3339))
	}
	return s
}
