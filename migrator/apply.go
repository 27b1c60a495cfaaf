// Copyright 2021-present The dbmigrator Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package migrator

import "context"

// Apply drives the Adapter through every unit of the current Plan, in
// order, stopping at the first failure; the committed prefix remains
// durable since each unit is its own transaction.
func (m *Migrator) Apply(ctx context.Context) error {
	m.logger.Log(PlanStarted{Units: len(m.plan.Units)})
	for _, unit := range m.plan.Units {
		if err := m.adapter.ApplyPlan(ctx, m.cfg.LogTableName, unit); err != nil {
			m.logger.Log(UnitFailed{Unit: unit, Err: err})
			return err
		}
		if unit.LogIDToRevert != nil {
			m.logger.Log(FixupApplied{Unit: unit})
		} else {
			m.logger.Log(UnitApplied{Unit: unit})
		}
	}
	return nil
}

// Run is the end-to-end convenience entry point: ReadChangelog, MakePlan
// (looped until dry when Config.DrainFixups is set), CheckUpdatedLog, then
// Apply.
func (m *Migrator) Run(ctx context.Context) error {
	if err := m.ReadChangelog(ctx); err != nil {
		return err
	}
	if err := m.planAll(); err != nil {
		return err
	}
	if err := m.CheckUpdatedLog(); err != nil {
		return err
	}
	m.logger.Log(Verified{})
	return m.Apply(ctx)
}

// planAll runs MakePlan once, or in a loop until a round adds no further
// fixup unit, when Config.DrainFixups is set.
func (m *Migrator) planAll() error {
	if !m.cfg.DrainFixups || !m.cfg.AllowFixes {
		return m.MakePlan()
	}
	for {
		before := len(m.plan.Units)
		if err := m.MakePlan(); err != nil {
			return err
		}
		if len(m.plan.Units) == before {
			return nil
		}
	}
}
