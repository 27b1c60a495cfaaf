// Copyright 2021-present The dbmigrator Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package migrator

import (
	"fmt"
	"io"
)

// Event is the sealed set of structured events a Migrator reports to a
// Logger. Following the teacher's approach to logging, there is no
// third-party structured-logging dependency here — a Logger is a one-method
// interface and the CLI is the only place that decides how to render
// events.
type Event interface{ isEvent() }

// PlanStarted reports how many units a Plan will execute, before the first
// one begins.
type PlanStarted struct{ Units int }

func (PlanStarted) isEvent() {}

// UnitApplied reports a successfully committed Unit.
type UnitApplied struct{ Unit Unit }

func (UnitApplied) isEvent() {}

// UnitFailed reports a Unit whose transaction was rolled back.
type UnitFailed struct {
	Unit Unit
	Err  error
}

func (UnitFailed) isEvent() {}

// FixupApplied reports a successfully committed Phase A fixup/revert unit.
// It is sent instead of the generic UnitApplied event for such a unit,
// since callers often want to highlight history rewrites distinctly from
// forward upgrades.
type FixupApplied struct{ Unit Unit }

func (FixupApplied) isEvent() {}

// Verified reports that check_updated_log passed with no errors.
type Verified struct{}

func (Verified) isEvent() {}

// Logger receives Migrator lifecycle events. The zero value of most
// implementations (like NopLogger) is usable directly.
type Logger interface {
	Log(Event)
}

// NopLogger discards every event.
type NopLogger struct{}

func (NopLogger) Log(Event) {}

// WriterLogger formats events as single lines written to W.
type WriterLogger struct {
	W io.Writer
}

func (l WriterLogger) Log(e Event) {
	switch ev := e.(type) {
	case PlanStarted:
		fmt.Fprintf(l.W, "plan: %d unit(s)\n", ev.Units)
	case UnitApplied:
		fmt.Fprintf(l.W, "applied %s %s (%s)\n", ev.Unit.Recipe.Kind, ev.Unit.Recipe.Version, ev.Unit.Recipe.Checksum32())
	case FixupApplied:
		fmt.Fprintf(l.W, "fixed up %s %s (%s)\n", ev.Unit.Recipe.Kind, ev.Unit.Recipe.Version, ev.Unit.Recipe.Checksum32())
	case UnitFailed:
		fmt.Fprintf(l.W, "failed %s %s: %v\n", ev.Unit.Recipe.Kind, ev.Unit.Recipe.Version, ev.Err)
	case Verified:
		fmt.Fprintln(l.W, "verified")
	}
}
