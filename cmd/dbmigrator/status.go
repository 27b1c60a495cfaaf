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
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current changelog recorded in the database.",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	proj, err := loadProject()
	if err != nil {
		return err
	}
	mCfg, _ := proj.Migration("default")
	dialect, err := dialectFor(flagDialect)
	if err != nil {
		return err
	}
	db, err := openDB(flagDSN, flagDialect)
	if err != nil {
		return err
	}
	defer db.Close()

	adapter := driver.New(db, dialect)
	table := mCfg.LogTable
	if table == "" {
		table = migrator.DefaultLogTableName
	}

	entries, err := adapter.GetChangelog(context.Background(), table)
	if err != nil {
		return err
	}

	if len(entries) == 0 {
		fmt.Fprintln(os.Stdout, color.YellowString("no changelog entries recorded yet"))
		return nil
	}

	tw := tablewriter.NewWriter(os.Stdout)
	tw.SetHeader([]string{"log_id", "version", "name", "kind", "checksum", "reverted"})
	for _, e := range entries {
		name := "-"
		if e.Name != nil {
			name = *e.Name
		}
		checksum := "-"
		if e.Checksum != nil {
			checksum = e.Checksum32()
		}
		reverted := "no"
		if e.RevertTS != nil {
			reverted = color.RedString("yes")
		}
		tw.Append([]string{fmt.Sprint(e.LogID), e.Version, name, e.Kind, checksum, reverted})
	}
	tw.Render()
	return nil
}
