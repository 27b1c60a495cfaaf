// Copyright 2021-present The dbmigrator Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

// Package config loads an optional dbmigrator.hcl project file describing
// a migration source and its per-environment targets, following the same
// hashicorp/hcl/v2 + gohcl decoding idiom the teacher's schemahcl package
// uses for its own HCL surface.
package config

import (
	"os"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"

	"github.com/dbmigrator/dbmigrator/migrator"
)

// Migration is the `migration "<name>" { ... }` block: where recipes live
// and the default Config fields for running against it.
type Migration struct {
	Name            string `hcl:"name,label"`
	Dir             string `hcl:"dir"`
	LogTable        string `hcl:"log_table,optional"`
	AutoInitialize  bool   `hcl:"auto_initialize,optional"`
	AllowFixes      bool   `hcl:"allow_fixes,optional"`
	AllowOutOfOrder bool   `hcl:"allow_out_of_order,optional"`
	DrainFixups     bool   `hcl:"drain_fixups,optional"`
}

// Environment is an `environment "<name>" { ... }` block: a named target
// (e.g. "prod", "staging") with its own connection URL and optional cap.
type Environment struct {
	Name   string  `hcl:"name,label"`
	URL    string  `hcl:"url"`
	Target *string `hcl:"target,optional"`
	ApplyBy *string `hcl:"apply_by,optional"`
}

// Project is the decoded contents of a dbmigrator.hcl file.
type Project struct {
	Migrations   []Migration   `hcl:"migration,block"`
	Environments []Environment `hcl:"environment,block"`
}

// Load parses path as HCL into a Project. getenv is exposed as an HCL
// function so environment blocks can read `url = getenv("DATABASE_URL")`
// without the file itself embedding a credential.
func Load(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	parser := hclparse.NewParser()
	f, diag := parser.ParseHCL(data, path)
	if diag.HasErrors() {
		return nil, diag
	}

	ctx := &hcl.EvalContext{
		Functions: map[string]function.Function{
			"getenv": getenvFunc,
		},
	}

	var proj Project
	if diag := gohcl.DecodeBody(f.Body, ctx, &proj); diag.HasErrors() {
		return nil, diag
	}
	return &proj, nil
}

var getenvFunc = function.New(&function.Spec{
	Params: []function.Parameter{{Name: "name", Type: cty.String}},
	Type:   function.StaticReturnType(cty.String),
	Impl: func(args []cty.Value, retType cty.Type) (cty.Value, error) {
		return cty.StringVal(os.Getenv(args[0].AsString())), nil
	},
})

// Environment looks up a named environment block.
func (p *Project) Environment(name string) (Environment, bool) {
	for _, e := range p.Environments {
		if e.Name == name {
			return e, true
		}
	}
	return Environment{}, false
}

// Migration looks up a named migration block.
func (p *Project) Migration(name string) (Migration, bool) {
	for _, m := range p.Migrations {
		if m.Name == name {
			return m, true
		}
	}
	return Migration{}, false
}

// ToConfig converts an HCL migration block plus an optional environment
// override into a migrator.Config, flags-then-file-then-env precedence is
// the caller's responsibility (it decides which of these three sources
// wins by calling ToConfig with the already-resolved values).
func (m Migration) ToConfig(env *Environment) migrator.Config {
	opts := []migrator.Option{
		migrator.WithAutoInitialize(m.AutoInitialize),
		migrator.WithAllowFixes(m.AllowFixes),
		migrator.WithAllowOutOfOrder(m.AllowOutOfOrder),
		migrator.WithDrainFixups(m.DrainFixups),
	}
	if m.LogTable != "" {
		opts = append(opts, migrator.WithLogTableName(m.LogTable))
	}
	if env != nil {
		if env.Target != nil {
			opts = append(opts, migrator.WithTargetVersion(*env.Target))
		}
		if env.ApplyBy != nil {
			opts = append(opts, migrator.WithApplyBy(*env.ApplyBy))
		}
	}
	return migrator.NewConfig(opts...)
}
