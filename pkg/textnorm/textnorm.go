// Copyright (c) 2026 PixShare. All rights reserved.
// Author: pixshare.dev@gmail.com

// Package textnorm canonicalizes user-supplied identifiers.
//
// # Usage
//
// Usernames are unique handles, so two visually identical Unicode spellings
// must collapse to the same stored value before the uniqueness check runs.
// NFKC folds compatibility variants (full-width letters, ligatures) into
// their canonical forms.
package textnorm

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Username canonicalizes a handle for storage and comparison.
//
// # Transformation Pipeline
//
// 1. Trims surrounding whitespace.
// 2. Normalizes to NFKC (ﬁ → fi, Ａ → A).
// 3. Lowercases, so handles are case-insensitive unique.
func Username(raw string) string {
	trimmed := strings.TrimSpace(raw)
	normalized := norm.NFKC.String(trimmed)
	return strings.ToLower(normalized)
}

// Email canonicalizes an email address for storage and lookup.
//
// Only the surrounding whitespace and letter case are folded; the local part
// is otherwise preserved byte-for-byte, since providers differ on dot and
// plus semantics.
func Email(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}
