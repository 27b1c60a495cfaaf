// Copyright 2021-present The dbmigrator Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package migrator

import (
	"github.com/dbmigrator/dbmigrator/changelog"
	"github.com/dbmigrator/dbmigrator/dbmerr"
	"github.com/dbmigrator/dbmigrator/recipe"
)

// CheckUpdatedLog implements §4.4.3: verifies a computed plan's projected
// log state against the loaded recipes before any unit is applied.
func (m *Migrator) CheckUpdatedLog() error {
	if err := m.checkTargetVersion(); err != nil {
		return err
	}
	if err := m.checkEntriesHaveUpgrades(); err != nil {
		return err
	}
	return m.checkNoMissingUpgrades()
}

func (m *Migrator) checkTargetVersion() error {
	if m.cfg.TargetVersion == "" {
		return nil
	}
	for _, r := range m.recipes {
		if r.Version == m.cfg.TargetVersion && (r.Kind == recipe.Baseline || r.Kind == recipe.Upgrade) {
			return nil
		}
	}
	return &dbmerr.Error{Code: dbmerr.UnknownTarget, Version: m.cfg.TargetVersion,
		Available: m.nearestLowerVersion(m.cfg.TargetVersion),
		Message:   "target version " + m.cfg.TargetVersion + " does not match any known recipe"}
}

// nearestLowerVersion returns the greatest known Baseline/Upgrade recipe
// version that sorts at or below target, for UnknownTarget's Available
// field.
func (m *Migrator) nearestLowerVersion(target string) string {
	best := ""
	for _, r := range m.recipes {
		if r.Kind != recipe.Baseline && r.Kind != recipe.Upgrade {
			continue
		}
		if m.cmp(r.Version, target) > 0 {
			continue
		}
		if best == "" || m.cmp(r.Version, best) > 0 {
			best = r.Version
		}
	}
	return best
}

// checkEntriesHaveUpgrades implements verification step 2: every
// updatedLogs entry past index 0 must correspond to an Upgrade recipe with
// an identical checksum.
func (m *Migrator) checkEntriesHaveUpgrades() error {
	for i, e := range m.updatedLogs {
		if i == 0 {
			continue
		}
		if e.Checksum == nil {
			continue
		}
		r := m.upgradeAt(e.Version)
		if r == nil {
			return &dbmerr.Error{Code: dbmerr.UnknownMigration, Version: e.Version,
				Logged: *e.Checksum, Message: "logged version " + e.Version + " has no matching upgrade recipe"}
		}
		if r.Checksum != *e.Checksum {
			return &dbmerr.Error{Code: dbmerr.ConflictedMigration, Version: e.Version,
				Logged: *e.Checksum, Script: r.Checksum,
				Message: "checksum mismatch at version " + e.Version}
		}
	}
	return nil
}

// checkNoMissingUpgrades implements verification step 3: every Upgrade
// recipe in (baselineVersion, targetVersion] must be present in
// updatedLogs with a matching checksum.
func (m *Migrator) checkNoMissingUpgrades() error {
	for _, r := range m.recipes {
		if r.Kind != recipe.Upgrade {
			continue
		}
		if m.cmp(r.Version, m.baselineVersion) <= 0 {
			continue
		}
		if m.cfg.TargetVersion != "" && m.cmp(r.Version, m.cfg.TargetVersion) > 0 {
			continue
		}
		entry, ok := changelog.Find(m.updatedLogs, r.Version)
		if !ok {
			return &dbmerr.Error{Code: dbmerr.MissingMigration, Version: r.Version, Script: r.Checksum,
				Message: "upgrade recipe at version " + r.Version + " is not reflected in the log"}
		}
		if entry.Checksum == nil || *entry.Checksum != r.Checksum {
			return &dbmerr.Error{Code: dbmerr.ConflictedMigration, Version: r.Version, Script: r.Checksum,
				Message: "checksum mismatch at version " + r.Version}
		}
	}
	return nil
}

func (m *Migrator) upgradeAt(version string) *recipe.Recipe {
	for _, r := range m.recipes {
		if r.Kind == recipe.Upgrade && r.Version == version {
			return r
		}
	}
	return nil
}
