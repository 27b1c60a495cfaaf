// Copyright 2021-present The dbmigrator Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package migrator_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/dbmigrator/dbmigrator/changelog"
	"github.com/dbmigrator/dbmigrator/dbmerr"
	"github.com/dbmigrator/dbmigrator/migrator"
	"github.com/dbmigrator/dbmigrator/recipe"
)

// fakeAdapter is an in-memory Adapter used to exercise the planner without
// a real database; it mimics the three-operation contract directly.
type fakeAdapter struct {
	exists  bool
	entries []changelog.Entry
	applied []migrator.Unit
}

func (f *fakeAdapter) LastLogID(ctx context.Context, table string) (int32, error) {
	if !f.exists {
		return 0, &dbmerr.Error{Code: dbmerr.NoLogTable}
	}
	if len(f.entries) == 0 {
		return -1, nil
	}
	max := f.entries[0].LogID
	for _, e := range f.entries {
		if e.LogID > max {
			max = e.LogID
		}
	}
	return max, nil
}

func (f *fakeAdapter) GetChangelog(ctx context.Context, table string) ([]changelog.Entry, error) {
	f.exists = true
	return append([]changelog.Entry(nil), f.entries...), nil
}

func (f *fakeAdapter) ApplyPlan(ctx context.Context, table string, unit migrator.Unit) error {
	f.applied = append(f.applied, unit)
	if unit.LogIDToRevert != nil {
		now := time.Now()
		for i := range f.entries {
			if f.entries[i].LogID == *unit.LogIDToRevert {
				f.entries[i].RevertTS = &now
			}
		}
	}
	if unit.RevertLogToInsert != nil {
		f.entries = append(f.entries, *unit.RevertLogToInsert)
	}
	if unit.ApplyLogToInsert != nil {
		f.entries = append(f.entries, *unit.ApplyLogToInsert)
	}
	return nil
}

func mustRecipe(t *testing.T, path, sql string) *recipe.Recipe {
	t.Helper()
	r, err := recipe.New(path, []byte(sql), nil, nil)
	require.NoError(t, err)
	return r
}

// Scenario 1: fresh init, single baseline.
func TestMigrator_FreshInitSingleBaseline(t *testing.T) {
	baseline := mustRecipe(t, "m/1.0.0_baseline_init.sql", "CREATE TABLE t(x int);")
	adapter := &fakeAdapter{}

	mig, err := migrator.New(adapter, []*recipe.Recipe{baseline}, recipe.Lexicographic,
		migrator.NewConfig(migrator.WithAutoInitialize(true)), nil)
	require.NoError(t, err)

	require.NoError(t, mig.ReadChangelog(context.Background()))
	require.NoError(t, mig.MakePlan())
	require.NoError(t, mig.CheckUpdatedLog())
	require.Len(t, mig.Plan().Units, 1)

	require.NoError(t, mig.Apply(context.Background()))
	require.Len(t, adapter.entries, 1)
	require.Equal(t, int32(1), adapter.entries[0].LogID)
	require.Equal(t, "1.0.0", adapter.entries[0].Version)
	require.Equal(t, baseline.Checksum, *adapter.entries[0].Checksum)
}

// Scenario 2: baseline then two upgrades, in order, in one plan.
func TestMigrator_BaselineThenTwoUpgrades(t *testing.T) {
	baseline := mustRecipe(t, "m/1.0.0_baseline_init.sql", "CREATE TABLE t(x int);")
	addY := mustRecipe(t, "m/1.0.1_add_y.sql", "ALTER TABLE t ADD y int;")
	addZ := mustRecipe(t, "m/1.0.2_add_z.sql", "ALTER TABLE t ADD z int;")
	adapter := &fakeAdapter{}

	mig, err := migrator.New(adapter, []*recipe.Recipe{baseline, addY, addZ}, recipe.Lexicographic,
		migrator.NewConfig(migrator.WithAutoInitialize(true)), nil)
	require.NoError(t, err)

	require.NoError(t, mig.ReadChangelog(context.Background()))
	require.NoError(t, mig.MakePlan())
	require.NoError(t, mig.CheckUpdatedLog())
	require.Len(t, mig.Plan().Units, 3)

	var gotVersions []string
	for _, u := range mig.Plan().Units {
		gotVersions = append(gotVersions, u.Recipe.Version)
	}
	wantVersions := []string{"1.0.0", "1.0.1", "1.0.2"}
	if diff := cmp.Diff(wantVersions, gotVersions); diff != "" {
		t.Fatalf("plan order mismatch (-want +got):\n%s", diff)
	}
}

// Scenario 3: target version caps the plan, and an unknown target reports
// the nearest lower available version.
func TestMigrator_TargetVersionCaps(t *testing.T) {
	baseline := mustRecipe(t, "m/1.0.0_baseline_init.sql", "CREATE TABLE t(x int);")
	addY := mustRecipe(t, "m/1.0.1_add_y.sql", "ALTER TABLE t ADD y int;")
	addZ := mustRecipe(t, "m/1.0.2_add_z.sql", "ALTER TABLE t ADD z int;")
	recipes := []*recipe.Recipe{baseline, addY, addZ}

	adapter := &fakeAdapter{}
	mig, err := migrator.New(adapter, recipes, recipe.Lexicographic,
		migrator.NewConfig(migrator.WithAutoInitialize(true), migrator.WithTargetVersion("1.0.1")), nil)
	require.NoError(t, err)
	require.NoError(t, mig.ReadChangelog(context.Background()))
	require.NoError(t, mig.MakePlan())
	require.NoError(t, mig.CheckUpdatedLog())
	require.Len(t, mig.Plan().Units, 2)

	adapter2 := &fakeAdapter{}
	mig2, err := migrator.New(adapter2, recipes, recipe.Lexicographic,
		migrator.NewConfig(migrator.WithAutoInitialize(true), migrator.WithTargetVersion("9")), nil)
	require.NoError(t, err)
	require.NoError(t, mig2.ReadChangelog(context.Background()))
	require.NoError(t, mig2.MakePlan())
	err = mig2.CheckUpdatedLog()
	require.Error(t, err)
	var derr *dbmerr.Error
	require.ErrorAs(t, err, &derr)
	require.Equal(t, dbmerr.UnknownTarget, derr.Code)
	require.Equal(t, "1.0.2", derr.Available)
}

// Scenario 4: a conflicted checksum between the log and the recipe set.
func TestMigrator_ConflictedChecksum(t *testing.T) {
	baseline := mustRecipe(t, "m/1.0.0_baseline_init.sql", "CREATE TABLE t(x int);")
	addY := mustRecipe(t, "m/1.0.1_add_y.sql", "ALTER TABLE t ADD y int;")
	loggedChecksum := "b" + strings.Repeat("0", 63)
	adapter := &fakeAdapter{exists: true, entries: []changelog.Entry{
		{LogID: 1, Version: "1.0.0", Kind: "baseline", Checksum: &baseline.Checksum},
		{LogID: 2, Version: "1.0.1", Kind: "upgrade", Checksum: &loggedChecksum},
	}}

	mig, err := migrator.New(adapter, []*recipe.Recipe{baseline, addY}, recipe.Lexicographic, migrator.NewConfig(), nil)
	require.NoError(t, err)
	require.NoError(t, mig.ReadChangelog(context.Background()))
	require.NoError(t, mig.MakePlan())
	err = mig.CheckUpdatedLog()
	require.Error(t, err)
	var derr *dbmerr.Error
	require.ErrorAs(t, err, &derr)
	require.Equal(t, dbmerr.ConflictedMigration, derr.Code)
}

// Scenario 5: a fixup pass reverts the old entry and installs the fixed
// upgrade in a single unit.
func TestMigrator_FixupPass(t *testing.T) {
	h1 := "1" + strings.Repeat("1", 62) + "c"
	baseline := mustRecipe(t, "m/1.0.0_baseline_init.sql", "CREATE TABLE t(x int);")
	fixedUpgrade := mustRecipe(t, "m/1.0.1_add_y_fixed.sql", "ALTER TABLE t ADD y int NOT NULL;")
	fixup := mustRecipe(t, "m/1.0.1_fixup_add_y.sql",
		"-- old_checksum: "+h1+"\n-- new_name: add_y_fixed\n-- new_checksum: "+fixedUpgrade.Checksum+"\nALTER TABLE t ADD y int NOT NULL;")

	adapter := &fakeAdapter{exists: true, entries: []changelog.Entry{
		{LogID: 1, Version: "1.0.0", Kind: "baseline", Checksum: &baseline.Checksum},
		{LogID: 2, Version: "1.0.1", Kind: "upgrade", Checksum: &h1},
	}}

	mig, err := migrator.New(adapter, []*recipe.Recipe{baseline, fixedUpgrade, fixup}, recipe.Lexicographic,
		migrator.NewConfig(migrator.WithAllowFixes(true)), nil)
	require.NoError(t, err)
	require.NoError(t, mig.ReadChangelog(context.Background()))
	require.NoError(t, mig.MakePlan())

	units := mig.Plan().Units
	require.Len(t, units, 1)
	unit := units[0]
	require.NotNil(t, unit.LogIDToRevert)
	require.Equal(t, int32(2), *unit.LogIDToRevert)
	require.NotNil(t, unit.RevertLogToInsert)
	require.Equal(t, int32(3), unit.RevertLogToInsert.LogID)
	require.Nil(t, unit.RevertLogToInsert.Checksum)
	require.NotNil(t, unit.ApplyLogToInsert)
	require.Equal(t, int32(4), unit.ApplyLogToInsert.LogID)
	require.Equal(t, fixedUpgrade.Checksum, *unit.ApplyLogToInsert.Checksum)
}

// Scenario 5b: a single Run call must plan and apply a fixup *and* a
// pending upgrade above it in the same pass, matching make_plan's
// Phase A -> B -> C fallthrough (the fixup loop's break only exits its
// own scan). Regression test for a fixup silently deferring a pending
// upgrade, and for baselineVersion never being set on the fixup path.
func TestMigrator_FixupPassAlsoPlansPendingUpgrade(t *testing.T) {
	h1 := "1" + strings.Repeat("1", 62) + "c"
	baseline := mustRecipe(t, "m/1.0.0_baseline_init.sql", "CREATE TABLE t(x int);")
	fixedUpgrade := mustRecipe(t, "m/1.0.1_add_y_fixed.sql", "ALTER TABLE t ADD y int NOT NULL;")
	fixup := mustRecipe(t, "m/1.0.1_fixup_add_y.sql",
		"-- old_checksum: "+h1+"\n-- new_name: add_y_fixed\n-- new_checksum: "+fixedUpgrade.Checksum+"\nALTER TABLE t ADD y int NOT NULL;")
	addZ := mustRecipe(t, "m/1.0.2_add_z.sql", "ALTER TABLE t ADD z int;")

	adapter := &fakeAdapter{exists: true, entries: []changelog.Entry{
		{LogID: 1, Version: "1.0.0", Kind: "baseline", Checksum: &baseline.Checksum},
		{LogID: 2, Version: "1.0.1", Kind: "upgrade", Checksum: &h1},
	}}

	mig, err := migrator.New(adapter, []*recipe.Recipe{baseline, fixedUpgrade, fixup, addZ}, recipe.Lexicographic,
		migrator.NewConfig(migrator.WithAllowFixes(true)), nil)
	require.NoError(t, err)

	require.NoError(t, mig.Run(context.Background()))

	units := mig.Plan().Units
	require.Len(t, units, 2)
	require.NotNil(t, units[0].LogIDToRevert, "first unit should be the fixup's revert+reapply")
	require.Equal(t, "1.0.2", units[1].Recipe.Version, "pending upgrade above the fixed version must be planned in the same run")
}

// Scenario 6: out-of-order rejection when allow_out_of_order is false.
func TestMigrator_OutOfOrderRejectedByDefault(t *testing.T) {
	baseline := mustRecipe(t, "m/1.0.0_baseline_init.sql", "CREATE TABLE t(x int);")
	addY := mustRecipe(t, "m/1.0.1_add_y.sql", "ALTER TABLE t ADD y int;")
	addW := mustRecipe(t, "m/1.0.2_add_w.sql", "ALTER TABLE t ADD w int;")

	adapter := &fakeAdapter{exists: true, entries: []changelog.Entry{
		{LogID: 1, Version: "1.0.0", Kind: "baseline", Checksum: &baseline.Checksum},
		{LogID: 2, Version: "1.0.2", Kind: "upgrade", Checksum: &addW.Checksum},
	}}

	mig, err := migrator.New(adapter, []*recipe.Recipe{baseline, addY, addW}, recipe.Lexicographic, migrator.NewConfig(), nil)
	require.NoError(t, err)
	require.NoError(t, mig.ReadChangelog(context.Background()))
	require.NoError(t, mig.MakePlan())
	err = mig.CheckUpdatedLog()
	require.Error(t, err)
	var derr *dbmerr.Error
	require.ErrorAs(t, err, &derr)
	require.Equal(t, dbmerr.MissingMigration, derr.Code)
	require.Equal(t, "1.0.1", derr.Version)
}

func TestMigrator_NoLogTableWithoutAutoInitialize(t *testing.T) {
	adapter := &fakeAdapter{}
	baseline := mustRecipe(t, "m/1.0.0_baseline_init.sql", "CREATE TABLE t(x int);")
	mig, err := migrator.New(adapter, []*recipe.Recipe{baseline}, recipe.Lexicographic, migrator.NewConfig(), nil)
	require.NoError(t, err)
	err = mig.ReadChangelog(context.Background())
	require.Error(t, err)
	var derr *dbmerr.Error
	require.ErrorAs(t, err, &derr)
	require.Equal(t, dbmerr.NoLogTable, derr.Code)
}
