// Copyright 2021-present The dbmigrator Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package recipe

import (
	"sort"

	"github.com/dbmigrator/dbmigrator/dbmerr"
)

// Order sorts recipes in place by (cmp(version), Kind) and enforces the
// cross-recipe integrity rules: at most one Baseline and one Upgrade per
// version, no Revert/Fixup colliding with a live Baseline/Upgrade at the
// same version, and every Fixup's new-target triple matching exactly one
// Upgrade recipe.
func Order(recipes []*Recipe, cmp Comparator) error {
	if cmp == nil {
		cmp = Lexicographic
	}

	sort.SliceStable(recipes, func(i, j int) bool {
		a, b := recipes[i], recipes[j]
		if c := cmp(a.Version, b.Version); c != 0 {
			return c < 0
		}
		return a.Kind.Less(b.Kind)
	})

	if err := checkRepeatedVersions(recipes); err != nil {
		return err
	}
	if err := checkConflictedFixups(recipes); err != nil {
		return err
	}
	return checkFixupTargets(recipes)
}

func checkRepeatedVersions(recipes []*Recipe) error {
	seenBaseline := make(map[string]bool)
	seenUpgrade := make(map[string]bool)
	for _, r := range recipes {
		switch r.Kind {
		case Baseline:
			if seenBaseline[r.Version] {
				return &dbmerr.Error{Code: dbmerr.RepeatedVersion, Version: r.Version,
					Message: "more than one baseline recipe at version " + r.Version}
			}
			seenBaseline[r.Version] = true
		case Upgrade:
			if seenUpgrade[r.Version] {
				return &dbmerr.Error{Code: dbmerr.RepeatedVersion, Version: r.Version,
					Message: "more than one upgrade recipe at version " + r.Version}
			}
			seenUpgrade[r.Version] = true
		}
	}
	return nil
}

func checkConflictedFixups(recipes []*Recipe) error {
	live := make(map[string][]*Recipe) // version -> baseline/upgrade recipes
	for _, r := range recipes {
		if r.Kind == Baseline || r.Kind == Upgrade {
			live[r.Version] = append(live[r.Version], r)
		}
	}
	for _, r := range recipes {
		var oldChecksum string
		switch m := r.Meta.(type) {
		case RevertMeta:
			oldChecksum = m.OldChecksum
		case FixupMeta:
			oldChecksum = m.OldChecksum
		default:
			continue
		}
		for _, other := range live[r.Version] {
			if MatchChecksum(other.Checksum, oldChecksum) {
				return &dbmerr.Error{Code: dbmerr.ConflictedFixup, Version: r.Version,
					Message: "recipe " + r.Path + " collides with live recipe " + other.Path + " at version " + r.Version}
			}
		}
	}
	return nil
}

func checkFixupTargets(recipes []*Recipe) error {
	type target struct{ version, name, checksum string }
	upgrades := make(map[target]bool)
	for _, r := range recipes {
		if r.Kind == Upgrade {
			upgrades[target{r.Version, r.Name, r.Checksum}] = true
		}
	}
	for _, r := range recipes {
		fm, ok := r.Meta.(FixupMeta)
		if !ok {
			continue
		}
		t := target{fm.NewVersion, fm.NewName, fm.NewChecksum}
		if !upgrades[t] {
			return &dbmerr.Error{Code: dbmerr.InvalidFixupNewTarget, Version: r.Version,
				Message: "fixup " + r.Path + " does not match exactly one upgrade recipe at version " + fm.NewVersion + " named " + fm.NewName}
		}
	}
	return nil
}
