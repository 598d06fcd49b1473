// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Validation limits for record and upload inputs.
const (
	maxTitleLen    = 300
	maxSlugLen     = 300
	maxFilenameLen = 200
)

var (
	// unsafeFilenameChars matches anything outside the storage-key alphabet.
	unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)
	// dotRuns matches ".." and longer, which must never reach a key.
	dotRuns = regexp.MustCompile(`\.{2,}`)
)

// validateRecord checks the title and slug of a record being created and
// returns the first problem found.
func validateRecord(title, slug string) string {
	if utf8.RuneCountInString(title) > maxTitleLen {
		return "Title is too long (max 300 characters)"
	}
	if utf8.RuneCountInString(slug) > maxSlugLen {
		return "Slug is too long (max 300 characters)"
	}
	if strings.Contains(slug, "/") {
		return "Slug must not contain '/'"
	}
	return ""
}

// sanitizeFilename maps a client-supplied filename onto [A-Za-z0-9._-],
// replacing every other character and every run of dots with "_".
func sanitizeFilename(name string) string {
	name = unsafeFilenameChars.ReplaceAllString(name, "_")
	name = dotRuns.ReplaceAllString(name, "_")
	if len(name) > maxFilenameLen {
		name = name[len(name)-maxFilenameLen:]
	}
	return name
}

// requiredMessage formats the validation message for a missing attribute.
func requiredMessage(attr string) string {
	return capitalize(attr) + " is required"
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
