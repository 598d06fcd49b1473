// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package slug provides URL-friendly slug generation from arbitrary strings.
package slug

import (
	"regexp"
	"strings"
)

// nonAlphanumericRun matches one or more characters outside [a-z0-9].
var nonAlphanumericRun = regexp.MustCompile(`[^a-z0-9]+`)

// Generate creates a URL-friendly slug from the given string by lower-casing
// it and replacing every run of non-alphanumeric characters with a single
// hyphen. Leading and trailing hyphens are trimmed.
// Example: "Hello, World! 2026" → "hello-world-2026"
func Generate(s string) string {
	result := strings.ToLower(s)
	result = nonAlphanumericRun.ReplaceAllString(result, "-")
	return strings.Trim(result, "-")
}
