// Copyright 2021-present The dbmigrator Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package recipe

import (
	"strings"

	"golang.org/x/mod/semver"
)

// Comparator orders two version strings, returning <0, 0, or >0 the way
// strings.Compare does. It is a first-class function value so callers can
// inject their own ordering; Lexicographic and Semver are the two canonical
// comparators.
type Comparator func(a, b string) int

// Lexicographic compares versions byte-for-byte.
func Lexicographic(a, b string) int { return strings.Compare(a, b) }

// Semver compares versions using semantic-versioning rules (so "2.0.0" <
// "10.0.1"), via golang.org/x/mod/semver. Versions that don't carry the
// "v" prefix semver.Compare requires are given one internally; versions
// that still fail to parse as valid semver after that fall back to
// Lexicographic, so arbitrary non-semver version strings in the same
// recipe set don't make every comparison result in the package panicking
// or silently tied.
func Semver(a, b string) int {
	va, okA := normalizeSemver(a)
	vb, okB := normalizeSemver(b)
	if !okA || !okB {
		return Lexicographic(a, b)
	}
	return semver.Compare(va, vb)
}

func normalizeSemver(v string) (string, bool) {
	if v == "" {
		return "", false
	}
	if v[0] != 'v' {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return "", false
	}
	return v, true
}
