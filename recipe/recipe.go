// Copyright 2021-present The dbmigrator Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package recipe

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/agext/levenshtein"

	"github.com/dbmigrator/dbmigrator/dbmerr"
)

// DefaultFilenamePattern is the reference filename pattern: two capture
// groups, version and name, separated by an underscore.
var DefaultFilenamePattern = regexp.MustCompile(`^([[:alnum:].\-]+)_([[:alnum:]._\-]+)$`)

// KindDetector maps a recipe's path and name to a default Kind, used when
// no "-- kind:" header metadata is present. It returns ok=false when it has
// no opinion, which New treats as InvalidRecipeKind.
type KindDetector func(p, name string) (k Kind, ok bool)

// DefaultKindDetector matches the reference detector: a "baseline"/
// "revert"/"fixup" prefix on the name selects that kind; anything else is
// an Upgrade.
func DefaultKindDetector(_ string, name string) (Kind, bool) {
	switch {
	case strings.HasPrefix(name, "baseline"):
		return Baseline, true
	case strings.HasPrefix(name, "revert"):
		return Revert, true
	case strings.HasPrefix(name, "fixup"):
		return Fixup, true
	default:
		return Upgrade, true
	}
}

// Recipe is a single migration script: identity (version, name), kind, and
// content checksum. Recipes are immutable once built by New.
type Recipe struct {
	Path     string
	Version  string
	Name     string
	SQL      string
	Checksum string // 64 lowercase hex chars, SHA-256 of SQL
	Kind     Kind
	Meta     Meta
}

// Checksum32 returns the first 8 hex characters of the full checksum, the
// truncated form used for display and prefix matching.
func (r *Recipe) Checksum32() string { return Checksum32(r.Checksum) }

// Checksum32 truncates a full 64-char checksum to its display form.
func Checksum32(full string) string {
	if len(full) < 8 {
		return full
	}
	return full[:8]
}

// MatchChecksum reports whether prefix identifies full: prefix must be at
// least 8 hex characters and equal full's leading substring of that length.
func MatchChecksum(full, prefix string) bool {
	if len(prefix) < 8 || len(prefix) > len(full) {
		return false
	}
	return full[:len(prefix)] == prefix
}

// ParseHeaderMetadata reads the leading "-- key: value" comment block of a
// recipe body. It stops at the first line that isn't a "--" comment, splits
// the remainder of each comment line on the first ':', and trims both
// sides. Later duplicate keys overwrite earlier ones.
func ParseHeaderMetadata(sql string) map[string]string {
	meta := make(map[string]string)
	for _, line := range strings.Split(sql, "\n") {
		trimmed := strings.TrimRight(line, "\r")
		if !strings.HasPrefix(strings.TrimLeft(trimmed, " \t"), "--") {
			break
		}
		body := strings.TrimPrefix(strings.TrimLeft(trimmed, " \t"), "--")
		idx := strings.IndexByte(body, ':')
		if idx < 0 {
			continue
		}
		key := strings.TrimSpace(body[:idx])
		val := strings.TrimSpace(body[idx+1:])
		if key == "" {
			continue
		}
		meta[key] = val
	}
	return meta
}

// New parses a single recipe from its path and raw file contents. pattern
// must have exactly two capture groups (version, name); detector supplies
// the default kind when no "-- kind:" metadata overrides it.
func New(filePath string, sql []byte, pattern *regexp.Regexp, detector KindDetector) (*Recipe, error) {
	if pattern == nil {
		pattern = DefaultFilenamePattern
	}
	if detector == nil {
		detector = DefaultKindDetector
	}

	base := path.Base(filePath)
	ext := path.Ext(base)
	if ext != ".sql" {
		return nil, dbmerr.New(dbmerr.InvalidFilename, "recipe file %q does not have a .sql extension", filePath)
	}
	stem := strings.TrimSuffix(base, ext)

	m := pattern.FindStringSubmatch(stem)
	if m == nil || len(m) < 3 {
		return nil, &dbmerr.Error{Code: dbmerr.InvalidFilename, Path: filePath,
			Message: fmt.Sprintf("filename %q does not match the recipe naming pattern", stem)}
	}
	version, name := m[1], m[2]

	body := string(sql)
	meta := ParseHeaderMetadata(body)

	if v, ok := meta["version"]; ok && v != "" {
		version = v
	}
	if n, ok := meta["name"]; ok && n != "" {
		name = n
	}

	kind, err := resolveKind(filePath, meta, name, detector)
	if err != nil {
		return nil, err
	}

	sum := sha256.Sum256(sql)
	checksum := hex.EncodeToString(sum[:])

	kindMeta, err := buildMeta(filePath, kind, meta, version)
	if err != nil {
		return nil, err
	}

	return &Recipe{
		Path:     filePath,
		Version:  version,
		Name:     name,
		SQL:      body,
		Checksum: checksum,
		Kind:     kind,
		Meta:     kindMeta,
	}, nil
}

func resolveKind(filePath string, meta map[string]string, name string, detector KindDetector) (Kind, error) {
	if raw, ok := meta["kind"]; ok && raw != "" {
		k, valid := ParseKind(raw)
		if valid {
			return k, nil
		}
		return "", &dbmerr.Error{Code: dbmerr.InvalidRecipeKind, Path: filePath,
			Message: fmt.Sprintf("unrecognized kind %q%s", raw, suggestKind(raw))}
	}
	if k, ok := detector(filePath, name); ok {
		return k, nil
	}
	return "", &dbmerr.Error{Code: dbmerr.InvalidRecipeKind, Path: filePath,
		Message: "could not determine recipe kind from filename or metadata"}
}

// suggestKind offers a "did you mean" hint using Levenshtein distance
// against the known kind set, for CLI-friendly error messages when a
// "-- kind:" value is misspelled.
func suggestKind(raw string) string {
	best := ""
	bestDist := -1
	for _, k := range KnownKinds() {
		d := levenshtein.Distance(raw, string(k), nil)
		if bestDist == -1 || d < bestDist {
			bestDist = d
			best = string(k)
		}
	}
	if bestDist >= 0 && bestDist <= 3 {
		return fmt.Sprintf(" (did you mean %q?)", best)
	}
	return ""
}

func buildMeta(filePath string, kind Kind, meta map[string]string, version string) (Meta, error) {
	switch kind {
	case Baseline:
		return BaselineMeta{}, nil
	case Upgrade:
		return UpgradeMeta{}, nil
	case Revert:
		oldChecksum, ok := meta["old_checksum"]
		if !ok || oldChecksum == "" {
			return nil, &dbmerr.Error{Code: dbmerr.InvalidRevertMeta, Path: filePath,
				Message: "revert recipe is missing required \"old_checksum\" metadata"}
		}
		maxVersion := meta["maximum_version"]
		if maxVersion == "" {
			maxVersion = version
		}
		return RevertMeta{OldChecksum: oldChecksum, MaximumVersion: maxVersion}, nil
	case Fixup:
		oldChecksum, ok1 := meta["old_checksum"]
		newName, ok2 := meta["new_name"]
		newChecksum, ok3 := meta["new_checksum"]
		if !ok1 || oldChecksum == "" || !ok2 || newName == "" || !ok3 || newChecksum == "" {
			return nil, &dbmerr.Error{Code: dbmerr.InvalidFixupMeta, Path: filePath,
				Message: "fixup recipe requires \"old_checksum\", \"new_name\" and \"new_checksum\" metadata"}
		}
		maxVersion := meta["maximum_version"]
		if maxVersion == "" {
			maxVersion = version
		}
		newVersion := meta["new_version"]
		if newVersion == "" {
			newVersion = version
		}
		return FixupMeta{
			OldChecksum:    oldChecksum,
			MaximumVersion: maxVersion,
			NewVersion:     newVersion,
			NewName:        newName,
			NewChecksum:    newChecksum,
		}, nil
	default:
		return nil, &dbmerr.Error{Code: dbmerr.InvalidRecipeKind, Path: filePath,
			Message: fmt.Sprintf("unhandled kind %q", kind)}
	}
}
