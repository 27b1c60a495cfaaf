// Copyright 2021-present The dbmigrator Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package changelog

import (
	"sort"

	"github.com/dbmigrator/dbmigrator/recipe"
)

// Consolidate folds raw, insertion-ordered changelog rows into the ordered
// (by cmp) list of entries that are currently effective: an entry with a
// non-null checksum inserts or replaces the entry at its version; an entry
// with a null checksum (a revert marker) removes whatever entry exists at
// its version, or is ignored if none does.
func Consolidate(raw []Entry, cmp recipe.Comparator) []Entry {
	if cmp == nil {
		cmp = recipe.Lexicographic
	}

	byVersion := make(map[string]Entry)
	var order []string // insertion order of first-seen versions, re-sorted at the end

	for _, e := range raw {
		if e.Checksum != nil {
			if _, exists := byVersion[e.Version]; !exists {
				order = append(order, e.Version)
			}
			byVersion[e.Version] = e
			continue
		}
		if _, exists := byVersion[e.Version]; exists {
			delete(byVersion, e.Version)
		}
	}

	versions := make([]string, 0, len(byVersion))
	seen := make(map[string]bool, len(byVersion))
	for _, v := range order {
		if seen[v] {
			continue
		}
		if _, ok := byVersion[v]; ok {
			versions = append(versions, v)
			seen[v] = true
		}
	}
	sort.SliceStable(versions, func(i, j int) bool { return cmp(versions[i], versions[j]) < 0 })

	out := make([]Entry, 0, len(versions))
	for _, v := range versions {
		out = append(out, byVersion[v])
	}
	return out
}

// Find returns the consolidated entry at version, if any.
func Find(consolidated []Entry, version string) (Entry, bool) {
	for _, e := range consolidated {
		if e.Version == version {
			return e, true
		}
	}
	return Entry{}, false
}
