// Copyright 2021-present The dbmigrator Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package recipe

// Kind tags what a Recipe does to the schema. The zero value is not a valid
// Kind; always construct one through ParseKind or the exported constants.
type Kind string

const (
	Baseline Kind = "baseline"
	Upgrade  Kind = "upgrade"
	Revert   Kind = "revert"
	Fixup    Kind = "fixup"
)

// order fixes the sort position of a Kind within a single version, per the
// Baseline < Upgrade < Revert < Fixup rule.
var order = map[Kind]int{
	Baseline: 0,
	Upgrade:  1,
	Revert:   2,
	Fixup:    3,
}

// Less reports whether k sorts before other at the same version.
func (k Kind) Less(other Kind) bool { return order[k] < order[other] }

func (k Kind) String() string { return string(k) }

// Valid reports whether k is one of the four recognized kinds.
func (k Kind) Valid() bool {
	_, ok := order[k]
	return ok
}

// IsFix reports whether k undoes history (Revert or Fixup), matching
// Changelog.is_fix in the original changelog model.
func (k Kind) IsFix() bool { return k == Revert || k == Fixup }

// ParseKind validates a raw string against the known Kind set, reporting
// false when it doesn't match. The "did you mean upgrade?" hint in loader
// errors comes from suggestKind in recipe.go, not from ParseKind.
func ParseKind(s string) (Kind, bool) {
	k := Kind(s)
	return k, k.Valid()
}

// KnownKinds lists the recognized kinds in their sort order, used by
// suggestion logic.
func KnownKinds() []Kind { return []Kind{Baseline, Upgrade, Revert, Fixup} }
