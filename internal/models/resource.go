// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"slices"
	"strings"
)

// Resource describes one content collection: how it is named on the wire
// and which content attributes a caller may write.
type Resource struct {
	Name     string   // collection name, e.g. "projects"
	Plural   string   // list response key
	Singular string   // item response key
	Label    string   // human label used in messages
	Required []string // content attributes that must be non-empty on create
	Fields   []string // content attributes a caller may write
}

// Projects is the portfolio projects collection.
var Projects = Resource{
	Name:     "projects",
	Plural:   "projects",
	Singular: "project",
	Label:    "Project",
	Required: []string{"title"},
	Fields: []string{
		"title", "shortDescription", "fullDescription", "role", "timeline",
		"techStack", "gradientFrom", "gradientVia", "gradientTo",
		"logo", "icon", "links", "detailed",
	},
}

// BlogPosts is the blog posts collection.
var BlogPosts = Resource{
	Name:     "blog-posts",
	Plural:   "posts",
	Singular: "post",
	Label:    "Blog post",
	Required: []string{"title"},
	Fields: []string{
		"title", "excerpt", "content", "date", "readTime",
		"tags", "published", "coverImage", "author",
	},
}

// NotFoundMessage is the error text for a slug that resolves to nothing.
func (r Resource) NotFoundMessage() string {
	return r.Label + " not found"
}

// Allows reports whether key is a caller-writable content attribute.
func (r Resource) Allows(key string) bool {
	return slices.Contains(r.Fields, key)
}

// Updatable reports whether key may be changed by a partial update.
// The server-managed id, slug and timestamps never are; order is.
func (r Resource) Updatable(key string) bool {
	switch key {
	case AttrID, AttrSlug, AttrCreatedAt, AttrUpdatedAt:
		return false
	case AttrOrder:
		return true
	}
	return r.Allows(key)
}

// ContentFields picks the allow-listed content attributes out of input.
func (r Resource) ContentFields(input map[string]any) map[string]any {
	out := make(map[string]any, len(input))
	for k, v := range input {
		if r.Allows(k) {
			out[k] = v
		}
	}
	return out
}

// MissingRequired returns the first required attribute that is absent,
// null, or a blank string in input, or "" when all are present.
func (r Resource) MissingRequired(input map[string]any) string {
	for _, key := range r.Required {
		v, ok := input[key]
		if !ok || v == nil {
			return key
		}
		if s, isString := v.(string); isString && strings.TrimSpace(s) == "" {
			return key
		}
	}
	return ""
}
