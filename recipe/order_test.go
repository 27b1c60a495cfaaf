// Copyright 2021-present The dbmigrator Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package recipe_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dbmigrator/dbmigrator/dbmerr"
	"github.com/dbmigrator/dbmigrator/recipe"
)

func mustRecipe(t *testing.T, path string, sql string) *recipe.Recipe {
	t.Helper()
	r, err := recipe.New(path, []byte(sql), nil, nil)
	require.NoError(t, err)
	return r
}

func TestOrder_SortsByVersionThenKind(t *testing.T) {
	recipes := []*recipe.Recipe{
		mustRecipe(t, "m/1.0.1_add_y.sql", "ALTER TABLE t ADD y int;"),
		mustRecipe(t, "m/1.0.0_baseline_init.sql", "CREATE TABLE t(x int);"),
		mustRecipe(t, "m/1.0.0_add_initial.sql", "ALTER TABLE t ADD w int;"),
	}
	require.NoError(t, recipe.Order(recipes, recipe.Lexicographic))
	require.Equal(t, recipe.Baseline, recipes[0].Kind)
	require.Equal(t, "1.0.0", recipes[0].Version)
	require.Equal(t, recipe.Upgrade, recipes[1].Kind)
	require.Equal(t, "1.0.0", recipes[1].Version)
	require.Equal(t, "1.0.1", recipes[2].Version)
}

func TestOrder_RepeatedVersionFails(t *testing.T) {
	recipes := []*recipe.Recipe{
		mustRecipe(t, "m/1.0.0_baseline_init.sql", "CREATE TABLE t(x int);"),
		mustRecipe(t, "m/1.0.0_baseline_again.sql", "CREATE TABLE t(x int);\n-- noop"),
	}
	err := recipe.Order(recipes, recipe.Lexicographic)
	require.Error(t, err)
	var derr *dbmerr.Error
	require.ErrorAs(t, err, &derr)
	require.Equal(t, dbmerr.RepeatedVersion, derr.Code)
}

func TestOrder_ConflictedFixupAgainstLiveUpgrade(t *testing.T) {
	upgrade := mustRecipe(t, "m/1.0.1_add_y.sql", "ALTER TABLE t ADD y int;")
	fixup := mustRecipe(t, "m/1.0.1_fixup_add_y.sql",
		"-- old_checksum: "+upgrade.Checksum+"\n-- new_name: add_y\n-- new_checksum: "+upgrade.Checksum+"\nALTER TABLE t ADD y int;")

	err := recipe.Order([]*recipe.Recipe{upgrade, fixup}, recipe.Lexicographic)
	require.Error(t, err)
	var derr *dbmerr.Error
	require.ErrorAs(t, err, &derr)
	require.Equal(t, dbmerr.ConflictedFixup, derr.Code)
}

func TestOrder_InvalidFixupNewTarget(t *testing.T) {
	fixup := mustRecipe(t, "m/1.0.1_fixup_add_y.sql",
		"-- old_checksum: deadbeef00000000\n-- new_name: add_y_fixed\n-- new_checksum: cafebabe00000000\nALTER TABLE t ADD y int;")

	err := recipe.Order([]*recipe.Recipe{fixup}, recipe.Lexicographic)
	require.Error(t, err)
	var derr *dbmerr.Error
	require.ErrorAs(t, err, &derr)
	require.Equal(t, dbmerr.InvalidFixupNewTarget, derr.Code)
}

func TestOrder_ValidFixupMatchesUpgrade(t *testing.T) {
	upgrade := mustRecipe(t, "m/1.0.1_add_y_fixed.sql", "ALTER TABLE t ADD y int DEFAULT 0;")
	fixup := mustRecipe(t, "m/1.0.1_fixup_add_y.sql",
		"-- old_checksum: deadbeef00000000\n-- new_name: add_y_fixed\n-- new_checksum: "+upgrade.Checksum+"\nALTER TABLE t ADD y int DEFAULT 0;")

	err := recipe.Order([]*recipe.Recipe{upgrade, fixup}, recipe.Lexicographic)
	require.NoError(t, err)
}

func TestOrder_SemverComparatorOrdersNumerically(t *testing.T) {
	recipes := []*recipe.Recipe{
		mustRecipe(t, "m/10.0.1_add_b.sql", "ALTER TABLE t ADD b int;"),
		mustRecipe(t, "m/2.0.0_baseline_init.sql", "CREATE TABLE t(x int);"),
	}
	require.NoError(t, recipe.Order(recipes, recipe.Semver))
	require.Equal(t, "2.0.0", recipes[0].Version, "semver comparator must sort 2.0.0 before 10.0.1")
	require.Equal(t, "10.0.1", recipes[1].Version)
}
