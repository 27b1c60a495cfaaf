// Copyright 2021-present The dbmigrator Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

// Package dbmerr defines the uniform error taxonomy shared by the recipe,
// changelog, migrator and driver packages.
package dbmerr

import "fmt"

// Code identifies one failure condition in the shared taxonomy. Callers
// should compare against the exported Code constants, not the string
// value, which is not considered part of the API.
type Code string

const (
	InvalidRegex          Code = "invalid_regex"
	InvalidRecipePath     Code = "invalid_recipe_path"
	InvalidRecipeFile     Code = "invalid_recipe_file"
	InvalidFilename       Code = "invalid_filename"
	InvalidRecipeKind     Code = "invalid_recipe_kind"
	InvalidRevertMeta     Code = "invalid_revert_meta"
	InvalidFixupMeta      Code = "invalid_fixup_meta"
	RepeatedVersion       Code = "repeated_version"
	ConflictedFixup       Code = "conflicted_fixup"
	InvalidFixupNewTarget Code = "invalid_fixup_new_target"
	NoLogTable            Code = "no_log_table"
	NoBaseline            Code = "no_baseline"
	UnknownBaseline       Code = "unknown_baseline"
	UnknownTarget         Code = "unknown_target"
	UnknownMigration      Code = "unknown_migration"
	MissingMigration      Code = "missing_migration"
	ConflictedMigration   Code = "conflicted_migration"
	DbError               Code = "db_error"
)

// Error is the concrete error type returned across package boundaries.
// Code-specific detail lives in typed fields rather than being baked into
// the message, so callers that need the detail don't have to parse it back
// out of Error().
type Error struct {
	Code    Code
	Message string
	Cause   error

	// Populated by specific codes; zero value otherwise.
	Version   string // RepeatedVersion, ConflictedFixup, InvalidFixupNewTarget, UnknownBaseline
	Available string // UnknownTarget: nearest known version below the requested target
	Logged    string // ConflictedMigration/UnknownMigration: checksum recorded in the log
	Script    string // ConflictedMigration/MissingMigration: checksum of the on-disk recipe
	Path      string // InvalidRecipeFile, InvalidFilename, InvalidRecipePath
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Cause)
	}
	return string(e.Code)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is reports whether target carries the same Code, so errors.Is(err,
// &dbmerr.Error{Code: dbmerr.NoLogTable}) works without matching the other
// fields.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// New builds an *Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds an *Error carrying cause as its Unwrap() target.
func Wrap(code Code, cause error) *Error {
	return &Error{Code: code, Cause: cause}
}
