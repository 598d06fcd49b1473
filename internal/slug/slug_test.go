// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package slug

import (
	"regexp"
	"testing"
)

// TestGenerate exercises the slug generator with typical titles, punctuation,
// unicode and boundary conditions.
func TestGenerate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		// --- Normal titles ---
		{name: "simple two words", input: "Hello World", want: "hello-world"},
		{name: "title with year", input: "Hello World 2026", want: "hello-world-2026"},
		{name: "single word", input: "GoLang", want: "golang"},
		{name: "mixed case sentence", input: "Building a Serverless Portfolio", want: "building-a-serverless-portfolio"},

		// --- Punctuation runs collapse to one hyphen ---
		{name: "comma and bang", input: "Hello, World! 2026", want: "hello-world-2026"},
		{name: "apostrophe splits words", input: "How's it going?", want: "how-s-it-going"},
		{name: "ampersand", input: "Rock & Roll", want: "rock-roll"},
		{name: "dotted version", input: "Version 2.0 (Beta)", want: "version-2-0-beta"},
		{name: "slashes", input: "Frontend/Backend", want: "frontend-backend"},
		{name: "existing hyphens", input: "already-a--slug", want: "already-a-slug"},
		{name: "underscores", input: "snake_case_title", want: "snake-case-title"},

		// --- Whitespace ---
		{name: "leading and trailing spaces", input: "   padded title   ", want: "padded-title"},
		{name: "tabs and newlines", input: "line\tone\ntwo", want: "line-one-two"},

		// --- Unicode ---
		{name: "accented letters are separators", input: "Café Résumé", want: "caf-r-sum"},
		{name: "emoji", input: "Launch 🚀 Day", want: "launch-day"},

		// --- Edge cases ---
		{name: "empty string", input: "", want: ""},
		{name: "only punctuation", input: "!!! ???", want: ""},
		{name: "digits only", input: "2026", want: "2026"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Generate(tt.input); got != tt.want {
				t.Errorf("Generate(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// TestGenerate_Shape checks that output only ever contains the slug alphabet
// and never starts, ends, or doubles up on hyphens.
func TestGenerate_Shape(t *testing.T) {
	valid := regexp.MustCompile(`^([a-z0-9]+(-[a-z0-9]+)*)?$`)
	inputs := []string{
		"Hello World", "--a--b--", "  ", "ÄÖÜ mixed 123", "a/b\\c?d#e",
		"Test1", "../../etc/passwd", "Ünïcödé", "x",
	}
	for _, in := range inputs {
		if got := Generate(in); !valid.MatchString(got) {
			t.Errorf("Generate(%q) = %q, not a well-formed slug", in, got)
		}
	}
}

// TestGenerate_Idempotent verifies that a slug fed back in is unchanged.
func TestGenerate_Idempotent(t *testing.T) {
	for _, in := range []string{"Hello World", "My First Post!", "a  b  c"} {
		once := Generate(in)
		if twice := Generate(once); twice != once {
			t.Errorf("Generate(Generate(%q)) = %q, want %q", in, twice, once)
		}
	}
}
