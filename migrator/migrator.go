// Copyright 2021-present The dbmigrator Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

// Package migrator orchestrates the recipe and changelog packages: it
// reads the current state of the log table, plans the units of work
// needed to bring the schema up to date (bootstrapping a baseline,
// applying pending upgrades, rewriting history via fixups), verifies the
// plan against the loaded recipes, and drives an Adapter through applying
// it one transaction at a time.
package migrator

import (
	"context"
	"errors"

	"github.com/dbmigrator/dbmigrator/changelog"
	"github.com/dbmigrator/dbmigrator/dbmerr"
	"github.com/dbmigrator/dbmigrator/recipe"
)

// Migrator holds the state of a single planning/apply run: the sorted
// recipe set, the raw and consolidated changelog, the projected
// "updated" log the plan builds up, and the plan itself.
type Migrator struct {
	cfg     Config
	cmp     recipe.Comparator
	recipes []*recipe.Recipe
	adapter Adapter
	logger  Logger

	lastLogID int32
	nextLogID int32

	rawLogs          []changelog.Entry
	consolidatedLogs []changelog.Entry
	updatedLogs      []changelog.Entry

	baselineVersion string
	haveBaseline    bool

	plan Plan
}

// New validates and sorts recipes (via recipe.Order) and returns a
// Migrator ready to drive a single run against adapter.
func New(adapter Adapter, recipes []*recipe.Recipe, cmp recipe.Comparator, cfg Config, logger Logger) (*Migrator, error) {
	if cmp == nil {
		cmp = recipe.Lexicographic
	}
	if logger == nil {
		logger = NopLogger{}
	}
	sorted := make([]*recipe.Recipe, len(recipes))
	copy(sorted, recipes)
	if err := recipe.Order(sorted, cmp); err != nil {
		return nil, err
	}
	if cfg.LogTableName == "" {
		cfg.LogTableName = DefaultLogTableName
	}
	return &Migrator{cfg: cfg, cmp: cmp, recipes: sorted, adapter: adapter, logger: logger}, nil
}

// Plan returns the most recently computed Plan.
func (m *Migrator) Plan() Plan { return m.plan }

// UpdatedLogs returns the projected log state the current Plan would
// produce once applied.
func (m *Migrator) UpdatedLogs() []changelog.Entry { return append([]changelog.Entry(nil), m.updatedLogs...) }

// ReadChangelog implements §4.4.1: establish last_log_id, fetch raw rows,
// and fold them into the consolidated view.
func (m *Migrator) ReadChangelog(ctx context.Context) error {
	lastID, err := m.adapter.LastLogID(ctx, m.cfg.LogTableName)
	if err != nil {
		var derr *dbmerr.Error
		if errors.As(err, &derr) && derr.Code == dbmerr.NoLogTable {
			if !m.cfg.AutoInitialize {
				return err
			}
			lastID = 0
		} else {
			return err
		}
	}
	m.lastLogID = lastID
	if lastID <= 0 {
		m.nextLogID = 1
	} else {
		m.nextLogID = lastID + 1
	}

	raw, err := m.adapter.GetChangelog(ctx, m.cfg.LogTableName)
	if err != nil {
		return err
	}
	m.rawLogs = raw
	m.consolidatedLogs = changelog.Consolidate(raw, m.cmp)
	m.updatedLogs = append([]changelog.Entry(nil), m.consolidatedLogs...)
	m.plan = Plan{}
	m.baselineVersion = ""
	m.haveBaseline = false
	return nil
}

// MakePlan implements §4.4.2: Phase A (at most one fixup), Phase B
// (baseline bootstrap or existing-log bookkeeping), Phase C (sequential
// upgrades). Phase A only bounds itself to a single fixup match; B and C
// still run in the same call afterward, against the post-fixup
// updatedLogs, exactly as the original make_plan's single for/break only
// exits its own loop. It is deterministic given the current
// recipes/updatedLogs/config and may be called repeatedly (e.g. to drain
// further fixups) on the same Migrator, since updatedLogs persists
// between calls.
func (m *Migrator) MakePlan() error {
	if m.cfg.AllowFixes {
		if _, err := m.planFixup(); err != nil {
			return err
		}
	}

	if len(m.updatedLogs) == 0 {
		if err := m.planBaseline(); err != nil {
			return err
		}
		return m.planUpgrades(m.baselineVersion)
	}

	m.baselineVersion = m.updatedLogs[0].Version
	m.haveBaseline = true
	lastVersion := m.updatedLogs[len(m.updatedLogs)-1].Version
	return m.planUpgrades(lastVersion)
}

// planFixup implements Phase A. It returns applied=true if a unit was
// produced, stopping the scan after the first match per §4.4.2.
func (m *Migrator) planFixup() (bool, error) {
	if len(m.updatedLogs) == 0 {
		return false, nil
	}
	currentVersion := m.updatedLogs[len(m.updatedLogs)-1].Version

	for i := len(m.updatedLogs) - 1; i >= 0; i-- {
		entry := m.updatedLogs[i]
		if entry.Checksum == nil {
			continue
		}
		r, ok := m.findFixRecipe(entry, currentVersion)
		if !ok {
			continue
		}
		m.applyFixupUnit(entry, r)
		return true, nil
	}
	return false, nil
}

// findFixRecipe looks for a Revert/Fixup recipe at entry's version whose
// old_checksum matches entry's checksum and whose maximum_version has not
// been passed by currentVersion.
func (m *Migrator) findFixRecipe(entry changelog.Entry, currentVersion string) (*recipe.Recipe, bool) {
	for _, r := range m.recipes {
		if r.Version != entry.Version {
			continue
		}
		var oldChecksum, maxVersion string
		switch mm := r.Meta.(type) {
		case recipe.RevertMeta:
			oldChecksum, maxVersion = mm.OldChecksum, mm.MaximumVersion
		case recipe.FixupMeta:
			oldChecksum, maxVersion = mm.OldChecksum, mm.MaximumVersion
		default:
			continue
		}
		if !recipe.MatchChecksum(*entry.Checksum, oldChecksum) {
			continue
		}
		if m.cmp(currentVersion, maxVersion) > 0 {
			continue
		}
		return r, true
	}
	return nil, false
}

func (m *Migrator) applyFixupUnit(entry changelog.Entry, r *recipe.Recipe) {
	revertID := m.reserveLogID()
	revertMarker := changelog.Entry{
		LogID:   revertID,
		Version: entry.Version,
		Kind:    string(r.Kind),
	}
	if m.cfg.ApplyBy != "" {
		applyBy := m.cfg.ApplyBy
		revertMarker.ApplyBy = &applyBy
	}

	unit := Unit{
		Recipe:            r,
		LogIDToRevert:     &entry.LogID,
		RevertLogToInsert: &revertMarker,
	}
	m.projectEntry(revertMarker)

	if fm, ok := r.Meta.(recipe.FixupMeta); ok {
		applyID := m.reserveLogID()
		name := fm.NewName
		checksum := fm.NewChecksum
		applyRow := changelog.Entry{
			LogID:    applyID,
			Version:  fm.NewVersion,
			Name:     &name,
			Kind:     string(r.Kind),
			Checksum: &checksum,
		}
		if m.cfg.ApplyBy != "" {
			applyBy := m.cfg.ApplyBy
			applyRow.ApplyBy = &applyBy
		}
		unit.ApplyLogToInsert = &applyRow
		m.projectEntry(applyRow)
	}

	m.plan.Units = append(m.plan.Units, unit)
}

// planBaseline implements Phase B's bootstrap branch.
func (m *Migrator) planBaseline() error {
	var chosen *recipe.Recipe
	if m.cfg.SuggestedBaselineVersion != "" {
		for _, r := range m.recipes {
			if r.Kind == recipe.Baseline && r.Version == m.cfg.SuggestedBaselineVersion {
				chosen = r
				break
			}
		}
		if chosen == nil {
			return &dbmerr.Error{Code: dbmerr.UnknownBaseline, Version: m.cfg.SuggestedBaselineVersion,
				Message: "no baseline recipe at suggested version " + m.cfg.SuggestedBaselineVersion}
		}
	} else {
		for _, r := range m.recipes {
			if r.Kind == recipe.Baseline {
				chosen = r // sorted ascending; last wins
			}
		}
		if chosen == nil {
			return &dbmerr.Error{Code: dbmerr.NoBaseline, Message: "no baseline recipe available"}
		}
	}

	name := chosen.Name
	checksum := chosen.Checksum
	row := changelog.Entry{
		LogID:    m.reserveLogID(),
		Version:  chosen.Version,
		Name:     &name,
		Kind:     string(recipe.Baseline),
		Checksum: &checksum,
	}
	if m.cfg.ApplyBy != "" {
		applyBy := m.cfg.ApplyBy
		row.ApplyBy = &applyBy
	}

	m.plan.Units = append(m.plan.Units, Unit{Recipe: chosen, ApplyLogToInsert: &row})
	m.projectEntry(row)
	m.baselineVersion = chosen.Version
	m.haveBaseline = true
	return nil
}

// planUpgrades implements Phase C: every Upgrade recipe strictly after
// lastVersion, capped by TargetVersion if set. When AllowOutOfOrder is
// set, it additionally plans any Upgrade recipe at or before lastVersion
// that is absent from updatedLogs, per the "re-scan pre-last gaps"
// resolution in the design notes.
func (m *Migrator) planUpgrades(lastVersion string) error {
	for _, r := range m.recipes {
		if r.Kind != recipe.Upgrade {
			continue
		}
		if m.cmp(r.Version, lastVersion) <= 0 {
			continue
		}
		if m.cfg.TargetVersion != "" && m.cmp(r.Version, m.cfg.TargetVersion) > 0 {
			continue
		}
		m.planUpgradeUnit(r)
	}

	if m.cfg.AllowOutOfOrder {
		for _, r := range m.recipes {
			if r.Kind != recipe.Upgrade {
				continue
			}
			if m.cmp(r.Version, lastVersion) > 0 {
				continue
			}
			if _, present := changelog.Find(m.updatedLogs, r.Version); present {
				continue
			}
			if m.cfg.TargetVersion != "" && m.cmp(r.Version, m.cfg.TargetVersion) > 0 {
				continue
			}
			m.planUpgradeUnit(r)
		}
	}
	return nil
}

func (m *Migrator) planUpgradeUnit(r *recipe.Recipe) {
	name := r.Name
	checksum := r.Checksum
	row := changelog.Entry{
		LogID:    m.reserveLogID(),
		Version:  r.Version,
		Name:     &name,
		Kind:     string(recipe.Upgrade),
		Checksum: &checksum,
	}
	if m.cfg.ApplyBy != "" {
		applyBy := m.cfg.ApplyBy
		row.ApplyBy = &applyBy
	}
	m.plan.Units = append(m.plan.Units, Unit{Recipe: r, ApplyLogToInsert: &row})
	m.projectEntry(row)
}

// projectEntry folds one synthetic row into updatedLogs using the §4.3
// consolidation rule (checksum present -> insert/replace; absent ->
// remove), keeping updatedLogs sorted by the configured comparator.
func (m *Migrator) projectEntry(e changelog.Entry) {
	m.updatedLogs = changelog.Consolidate(append(append([]changelog.Entry(nil), m.updatedLogs...), e), m.cmp)
}

func (m *Migrator) reserveLogID() int32 {
	id := m.nextLogID
	m.nextLogID++
	return id
}
