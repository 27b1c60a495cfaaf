// Copyright 2021-present The dbmigrator Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	newVersion string
	newKind    string
)

var newCmd = &cobra.Command{
	Use:   "new <name>",
	Short: "Scaffold a new recipe file in the recipe directory.",
	Args:  cobra.ExactArgs(1),
	RunE:  runNew,
}

func init() {
	newCmd.Flags().StringVar(&newVersion, "version", "", "recipe version (required)")
	newCmd.Flags().StringVar(&newKind, "kind", "upgrade", "baseline|upgrade|revert|fixup")
	rootCmd.AddCommand(newCmd)
}

func runNew(cmd *cobra.Command, args []string) error {
	if newVersion == "" {
		return fmt.Errorf("--version is required")
	}
	name := args[0]

	dir := flagDir
	if dir == "" {
		if proj, err := loadProject(); err == nil {
			if m, ok := proj.Migration("default"); ok {
				dir = m.Dir
			}
		}
	}
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	fileName := fmt.Sprintf("%s_%s.sql", newVersion, strings.ReplaceAll(name, " ", "_"))
	path := filepath.Join(dir, fileName)
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}

	var body strings.Builder
	if newKind != "upgrade" {
		fmt.Fprintf(&body, "-- kind: %s\n", newKind)
	}
	body.WriteString("\n-- write your SQL below\n")

	if err := os.WriteFile(path, []byte(body.String()), 0o644); err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, color.GreenString("created %s", path))
	return nil
}
