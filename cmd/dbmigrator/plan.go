// Copyright 2021-present The dbmigrator Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/dbmigrator/dbmigrator/driver"
	"github.com/dbmigrator/dbmigrator/migrator"
	"github.com/dbmigrator/dbmigrator/recipe"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Compute and print the plan without applying it.",
	RunE:  runPlan,
}

func init() {
	rootCmd.AddCommand(planCmd)
}

func setUpMigrator(ctx context.Context) (*migrator.Migrator, *driver.Adapter, error) {
	proj, err := loadProject()
	if err != nil {
		return nil, nil, err
	}
	mCfg, _ := proj.Migration("default")

	dir := flagDir
	if dir == "" {
		dir = mCfg.Dir
	}
	recipes, err := loadRecipes(dir)
	if err != nil {
		return nil, nil, err
	}

	envBlock := pickEnvironment(proj)

	dialect, err := dialectFor(flagDialect)
	if err != nil {
		return nil, nil, err
	}
	dsn := flagDSN
	if dsn == "" && envBlock != nil {
		dsn = envBlock.URL
	}
	db, err := openDB(dsn, flagDialect)
	if err != nil {
		return nil, nil, err
	}
	adapter := driver.New(db, dialect)

	cfg := mCfg.ToConfig(envBlock)
	m, err := migrator.New(adapter, recipes, recipe.Lexicographic, cfg, migrator.WriterLogger{W: os.Stdout})
	if err != nil {
		return nil, nil, err
	}
	return m, adapter, nil
}

func runPlan(cmd *cobra.Command, args []string) error {
	m, _, err := setUpMigrator(cmd.Context())
	if err != nil {
		return err
	}
	if err := m.ReadChangelog(cmd.Context()); err != nil {
		return err
	}
	if err := m.MakePlan(); err != nil {
		return err
	}
	if err := m.CheckUpdatedLog(); err != nil {
		return err
	}

	plan := m.Plan()
	if len(plan.Units) == 0 {
		fmt.Fprintln(os.Stdout, color.GreenString("database is up to date"))
		return nil
	}

	tw := tablewriter.NewWriter(os.Stdout)
	tw.SetHeader([]string{"version", "kind", "name"})
	for _, u := range plan.Units {
		tw.Append([]string{u.Recipe.Version, string(u.Recipe.Kind), u.Recipe.Name})
	}
	tw.Render()
	return nil
}
