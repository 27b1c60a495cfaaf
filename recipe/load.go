// Copyright 2021-present The dbmigrator Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package recipe

import (
	"io/fs"
	"regexp"
	"sort"

	"github.com/dbmigrator/dbmigrator/dbmerr"
	"github.com/dbmigrator/dbmigrator/internal/stmtscan"
)

// LoadOption configures Load. It follows the functional-options shape used
// throughout this module's packages.
type LoadOption func(*loadConfig)

type loadConfig struct {
	pattern  *regexp.Regexp
	detector KindDetector
}

// WithFilenamePattern overrides DefaultFilenamePattern.
func WithFilenamePattern(p *regexp.Regexp) LoadOption {
	return func(c *loadConfig) { c.pattern = p }
}

// WithKindDetector overrides DefaultKindDetector.
func WithKindDetector(d KindDetector) LoadOption {
	return func(c *loadConfig) { c.detector = d }
}

// Load walks root within fsys recursively, loading every regular file whose
// extension is exactly ".sql" into a Recipe. It works equally over an
// os.DirFS rooted at a migrations directory and an embed.FS produced by a
// //go:embed directive, since both satisfy fs.FS.
func Load(fsys fs.FS, root string, opts ...LoadOption) ([]*Recipe, error) {
	cfg := loadConfig{pattern: DefaultFilenamePattern, detector: DefaultKindDetector}
	for _, opt := range opts {
		opt(&cfg)
	}

	var recipes []*Recipe
	err := fs.WalkDir(fsys, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return &dbmerr.Error{Code: dbmerr.InvalidRecipePath, Path: p, Cause: err}
		}
		if d.IsDir() {
			return nil
		}
		if ext := extOf(p); ext != ".sql" {
			return nil
		}
		data, rerr := fs.ReadFile(fsys, p)
		if rerr != nil {
			return &dbmerr.Error{Code: dbmerr.InvalidRecipeFile, Path: p, Cause: rerr}
		}
		r, nerr := New(p, data, cfg.pattern, cfg.detector)
		if nerr != nil {
			return nerr
		}
		recipes = append(recipes, r)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(recipes, func(i, j int) bool { return recipes[i].Path < recipes[j].Path })
	return recipes, nil
}

func extOf(p string) string {
	for i := len(p) - 1; i >= 0; i-- {
		if p[i] == '.' {
			return p[i:]
		}
		if p[i] == '/' {
			break
		}
	}
	return ""
}

// Stmts returns a best-effort split of the recipe body into individual
// statements, for display purposes (e.g. a CLI "plan" preview showing a
// statement count). It is never used on the apply path: recipes are always
// executed as a single batch (see the migrator/driver packages), so a
// mis-split statement here can never corrupt an apply.
func (r *Recipe) Stmts() []string {
	return stmtscan.Split(r.SQL)
}
