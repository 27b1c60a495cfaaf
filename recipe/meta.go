// Copyright 2021-present The dbmigrator Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package recipe

// Meta carries the kind-dependent payload of a Recipe. Baseline and Upgrade
// recipes carry no extra fields (BaselineMeta/UpgradeMeta are empty
// markers); Revert and Fixup carry the fields below. The interface's method
// is unexported, so only the four payload types below satisfy it; New
// builds them and enforces the required-field rules in §4.1 of the spec
// this models, while a struct literal built elsewhere is not checked.
type Meta interface {
	isMeta()
}

// BaselineMeta is the (empty) payload of a Baseline recipe.
type BaselineMeta struct{}

func (BaselineMeta) isMeta() {}

// UpgradeMeta is the (empty) payload of an Upgrade recipe.
type UpgradeMeta struct{}

func (UpgradeMeta) isMeta() {}

// RevertMeta is the payload of a Revert recipe: what it undoes, and up to
// which schema version it still applies.
type RevertMeta struct {
	OldChecksum    string
	MaximumVersion string
}

func (RevertMeta) isMeta() {}

// FixupMeta is the payload of a Fixup recipe: the full retargeting of a
// prior logged entry onto a different Upgrade.
type FixupMeta struct {
	OldChecksum    string
	MaximumVersion string
	NewVersion     string
	NewName        string
	NewChecksum    string
}

func (FixupMeta) isMeta() {}
