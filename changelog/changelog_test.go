// Copyright 2021-present The dbmigrator Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package changelog_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/dbmigrator/dbmigrator/changelog"
	"github.com/dbmigrator/dbmigrator/recipe"
)

func ptr[T any](v T) *T { return &v }

func TestEntry_Accessors(t *testing.T) {
	e := changelog.Entry{
		LogID:    1,
		Version:  "1.0.0",
		Name:     ptr("init"),
		Kind:     "baseline",
		Checksum: ptr("cecabc122b1234567"),
		ApplyBy:  ptr("dbmigrator v1.2.3"),
	}
	require.Equal(t, "cecabc1", e.Checksum32()[:7])
	require.True(t, e.IsBaseline())
	require.False(t, e.IsFix())
	k, ok := e.RecipeKind()
	require.True(t, ok)
	require.Equal(t, recipe.Baseline, k)
}

func TestEntry_RevertMarkerHasNoChecksum(t *testing.T) {
	e := changelog.Entry{LogID: 2, Version: "1.0.1", Kind: "upgrade"}
	require.Equal(t, "", e.Checksum32())
	require.Contains(t, e.String(), "(-)")
}

func TestConsolidate_InsertsReplacesAndRemoves(t *testing.T) {
	raw := []changelog.Entry{
		{LogID: 1, Version: "1.0.0", Kind: "baseline", Checksum: ptr("h0")},
		{LogID: 2, Version: "1.0.1", Kind: "upgrade", Checksum: ptr("h1")},
		{LogID: 3, Version: "1.0.1", Kind: "revert", Checksum: nil}, // revert marker removes v1.0.1
		{LogID: 4, Version: "1.0.1", Kind: "upgrade", Checksum: ptr("h1b")},
	}
	out := changelog.Consolidate(raw, recipe.Lexicographic)
	require.Len(t, out, 2)
	require.Equal(t, "1.0.0", out[0].Version)
	require.Equal(t, "1.0.1", out[1].Version)
	require.Equal(t, "h1b", *out[1].Checksum)
}

func TestConsolidate_RevertMarkerWithNoPriorEntryIsIgnored(t *testing.T) {
	raw := []changelog.Entry{
		{LogID: 1, Version: "1.0.0", Kind: "revert", Checksum: nil},
	}
	out := changelog.Consolidate(raw, recipe.Lexicographic)
	require.Empty(t, out)
}

func TestConsolidate_SortsByVersion(t *testing.T) {
	raw := []changelog.Entry{
		{LogID: 1, Version: "1.0.2", Kind: "upgrade", Checksum: ptr("h2")},
		{LogID: 2, Version: "1.0.0", Kind: "baseline", Checksum: ptr("h0")},
		{LogID: 3, Version: "1.0.1", Kind: "upgrade", Checksum: ptr("h1")},
	}
	out := changelog.Consolidate(raw, recipe.Lexicographic)
	require.Equal(t, []string{"1.0.0", "1.0.1", "1.0.2"}, []string{out[0].Version, out[1].Version, out[2].Version})
}

func TestConsolidate_StructuralDiff(t *testing.T) {
	raw := []changelog.Entry{
		{LogID: 1, Version: "1.0.0", Kind: "baseline", Checksum: ptr("h0")},
		{LogID: 2, Version: "1.0.1", Kind: "upgrade", Checksum: ptr("h1")},
	}
	got := changelog.Consolidate(raw, recipe.Lexicographic)
	want := []changelog.Entry{
		{LogID: 1, Version: "1.0.0", Kind: "baseline", Checksum: ptr("h0")},
		{LogID: 2, Version: "1.0.1", Kind: "upgrade", Checksum: ptr("h1")},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("consolidated changelog mismatch (-want +got):\n%s", diff)
	}
}

func TestFind(t *testing.T) {
	entries := []changelog.Entry{{Version: "1.0.0"}, {Version: "1.0.1"}}
	e, ok := changelog.Find(entries, "1.0.1")
	require.True(t, ok)
	require.Equal(t, "1.0.1", e.Version)
	_, ok = changelog.Find(entries, "9.9.9")
	require.False(t, ok)
}
