// Copyright 2021-present The dbmigrator Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package migrator

import "github.com/google/uuid"

// DefaultLogTableName is the table name used when Config.LogTableName is
// empty.
const DefaultLogTableName = "dbmigrator_log"

// Config mirrors the options in the engine's configuration surface:
// auto-initialization of the log table, an overridden table name, a
// suggested baseline for first init, an inclusive upper bound on applied
// upgrades, an identifier stamped into inserted rows, and the two planner
// policy knobs (allow_fixes, allow_out_of_order).
type Config struct {
	AutoInitialize           bool
	LogTableName             string
	SuggestedBaselineVersion string
	TargetVersion            string
	ApplyBy                  string
	AllowFixes               bool
	AllowOutOfOrder          bool

	// DrainFixups is an addition beyond the base config surface: when set,
	// Migrator.Run (together with AllowFixes) loops MakePlan until a round
	// adds no new unit, instead of requiring the caller to re-run by hand. It does not
	// change the single-match-per-call semantics of MakePlan itself.
	DrainFixups bool
}

// Option configures a Config, following the functional-options idiom used
// throughout this module.
type Option func(*Config)

func WithAutoInitialize(v bool) Option           { return func(c *Config) { c.AutoInitialize = v } }
func WithLogTableName(name string) Option        { return func(c *Config) { c.LogTableName = name } }
func WithSuggestedBaselineVersion(v string) Option {
	return func(c *Config) { c.SuggestedBaselineVersion = v }
}
func WithTargetVersion(v string) Option     { return func(c *Config) { c.TargetVersion = v } }
func WithApplyBy(v string) Option           { return func(c *Config) { c.ApplyBy = v } }
func WithAllowFixes(v bool) Option          { return func(c *Config) { c.AllowFixes = v } }
func WithAllowOutOfOrder(v bool) Option     { return func(c *Config) { c.AllowOutOfOrder = v } }
func WithDrainFixups(v bool) Option         { return func(c *Config) { c.DrainFixups = v } }

// NewConfig builds a Config with DefaultLogTableName applied, then runs
// opts in order. If no ApplyBy was set by an option, one is generated
// from a random UUID so every inserted row still carries a disambiguator
// identifying which process applied it.
func NewConfig(opts ...Option) Config {
	cfg := Config{LogTableName: DefaultLogTableName}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.LogTableName == "" {
		cfg.LogTableName = DefaultLogTableName
	}
	if cfg.ApplyBy == "" {
		cfg.ApplyBy = "dbmigrator/" + uuid.New().String()
	}
	return cfg
}
