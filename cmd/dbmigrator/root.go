// Copyright 2021-present The dbmigrator Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package main

import (
	"database/sql"
	"fmt"
	"os"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"

	"github.com/dbmigrator/dbmigrator/config"
	"github.com/dbmigrator/dbmigrator/driver"
	"github.com/dbmigrator/dbmigrator/recipe"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

var (
	flagFile    string
	flagDir     string
	flagDSN     string
	flagEnv     string
	flagDialect string
)

var rootCmd = &cobra.Command{
	Use:   "dbmigrator",
	Short: "Plan and apply versioned SQL recipes against a database.",
	Long:  `dbmigrator tracks a directory of versioned SQL recipe files against a database-resident changelog table, computing and applying the plan needed to bring the database up to date.`,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagFile, "file", "f", "dbmigrator.hcl", "project config file")
	rootCmd.PersistentFlags().StringVarP(&flagDir, "dir", "d", "", "recipe directory (overrides the config file's migration.dir)")
	rootCmd.PersistentFlags().StringVar(&flagDSN, "dsn", "", "database connection string (overrides environment.url)")
	rootCmd.PersistentFlags().StringVarP(&flagEnv, "env", "e", "", "named environment block to use")
	rootCmd.PersistentFlags().StringVar(&flagDialect, "dialect", "postgres", "postgres|mysql|sqlite")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadProject reads flagFile, falling back to a user-level
// ~/.dbmigrator.hcl when it is absent in the working directory, matching
// the teacher's home-directory fallback for its own CLI config.
func loadProject() (*config.Project, error) {
	path := flagFile
	if _, err := os.Stat(path); err != nil {
		home, herr := homedir.Expand("~/.dbmigrator.hcl")
		if herr == nil {
			if _, serr := os.Stat(home); serr == nil {
				path = home
			}
		}
	}
	return config.Load(path)
}

func loadRecipes(dir string) ([]*recipe.Recipe, error) {
	if dir == "" {
		dir = "."
	}
	return recipe.Load(os.DirFS(dir), ".")
}

// pickEnvironment resolves flagEnv against the project's environment
// blocks, returning nil when no name was given or none matches (the flag
// and DSN-based overrides then carry the whole connection).
func pickEnvironment(proj *config.Project) *config.Environment {
	if flagEnv == "" {
		return nil
	}
	if env, ok := proj.Environment(flagEnv); ok {
		return &env
	}
	return nil
}

func dialectFor(name string) (driver.Dialect, error) {
	switch name {
	case "postgres":
		return driver.Postgres{}, nil
	case "mysql":
		return driver.MySQL{}, nil
	case "sqlite":
		return driver.SQLite{}, nil
	default:
		return nil, fmt.Errorf("unknown dialect %q", name)
	}
}

// sqlDriverNames maps a dialect name to the database/sql driver name
// registered by its blank import at the top of this file.
var sqlDriverNames = map[string]string{
	"postgres": "postgres",
	"mysql":    "mysql",
	"sqlite":   "sqlite3",
}

func openDB(dsn, dialectName string) (*sql.DB, error) {
	name, ok := sqlDriverNames[dialectName]
	if !ok {
		return nil, fmt.Errorf("unknown dialect %q", dialectName)
	}
	return sql.Open(name, dsn)
}
