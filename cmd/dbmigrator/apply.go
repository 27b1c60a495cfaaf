// Copyright 2021-present The dbmigrator Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Apply the computed plan against the database.",
	RunE:  runApply,
}

func init() {
	rootCmd.AddCommand(applyCmd)
}

func runApply(cmd *cobra.Command, args []string) error {
	m, _, err := setUpMigrator(cmd.Context())
	if err != nil {
		return err
	}
	if err := m.Run(cmd.Context()); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("apply failed: %v", err))
		return err
	}
	fmt.Fprintln(os.Stdout, color.GreenString("applied %d unit(s)", len(m.Plan().Units)))
	return nil
}
