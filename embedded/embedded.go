// Copyright 2021-present The dbmigrator Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

// Package embedded loads recipes from an embed.FS compiled into a binary,
// the Go analogue of embedding a migrations directory at build time rather
// than reading it off disk at runtime.
package embedded

import (
	"io/fs"

	"github.com/dbmigrator/dbmigrator/recipe"
)

// Source is an embed.FS (or any fs.FS) plus the subdirectory within it that
// holds the recipe files, e.g.:
//
//	//go:embed migrations/*.sql
//	var migrationsFS embed.FS
//
//	src := embedded.Source{FS: migrationsFS, Root: "migrations"}
type Source struct {
	FS   fs.FS
	Root string
}

// Load walks s.Root and parses every .sql file into a Recipe, applying opts
// the same way recipe.Load does against an on-disk directory. A program that
// wants a single binary with no external migrations directory calls this at
// startup instead of recipe.Load(os.DirFS(path), ".").
func (s Source) Load(opts ...recipe.LoadOption) ([]*recipe.Recipe, error) {
	root := s.Root
	if root == "" {
		root = "."
	}
	return recipe.Load(s.FS, root, opts...)
}
