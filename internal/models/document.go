// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package models defines the records stored by the content API and the
// resource definitions that describe each collection.
package models

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Reserved attribute names managed by the server. Everything else on a
// document is resource-specific content.
const (
	AttrID        = "id"
	AttrSlug      = "slug"
	AttrOrder     = "order"
	AttrCreatedAt = "createdAt"
	AttrUpdatedAt = "updatedAt"
)

// Document is a Project or BlogPost record. The server-managed attributes
// are typed; the remaining content is kept as an opaque attribute bag and
// serialized flat alongside them.
type Document struct {
	ID        string
	Slug      string
	Order     int64
	CreatedAt int64 // millisecond epoch
	UpdatedAt int64 // millisecond epoch
	Fields    map[string]any
}

// Map returns the flat attribute form of the document.
func (d *Document) Map() map[string]any {
	m := make(map[string]any, len(d.Fields)+5)
	for k, v := range d.Fields {
		m[k] = v
	}
	m[AttrID] = d.ID
	m[AttrSlug] = d.Slug
	m[AttrOrder] = d.Order
	m[AttrCreatedAt] = d.CreatedAt
	m[AttrUpdatedAt] = d.UpdatedAt
	return m
}

// Clone returns a deep-enough copy: the field map is copied, values are shared.
func (d *Document) Clone() *Document {
	c := *d
	c.Fields = make(map[string]any, len(d.Fields))
	for k, v := range d.Fields {
		c.Fields[k] = v
	}
	return &c
}

// Apply merges a set of attribute overwrites into the document. Reserved
// numeric attributes are converted; id and slug are never touched here.
func (d *Document) Apply(set map[string]any) {
	if d.Fields == nil {
		d.Fields = map[string]any{}
	}
	for k, v := range set {
		switch k {
		case AttrID, AttrSlug:
		case AttrOrder:
			d.Order, _ = ToInt64(v)
		case AttrCreatedAt:
			d.CreatedAt, _ = ToInt64(v)
		case AttrUpdatedAt:
			d.UpdatedAt, _ = ToInt64(v)
		default:
			d.Fields[k] = v
		}
	}
}

// DocumentFromMap builds a document from its flat attribute form. Missing
// numeric attributes are left at zero.
func DocumentFromMap(m map[string]any) (*Document, error) {
	d := &Document{Fields: make(map[string]any, len(m))}
	for k, v := range m {
		var err error
		switch k {
		case AttrID:
			d.ID, err = toString(k, v)
		case AttrSlug:
			d.Slug, err = toString(k, v)
		case AttrOrder:
			d.Order, err = ToInt64(v)
		case AttrCreatedAt:
			d.CreatedAt, err = ToInt64(v)
		case AttrUpdatedAt:
			d.UpdatedAt, err = ToInt64(v)
		default:
			d.Fields[k] = v
		}
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", k, err)
		}
	}
	return d, nil
}

// MarshalJSON writes the document as one flat JSON object.
func (d *Document) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Map())
}

// UnmarshalJSON reads a flat JSON object.
func (d *Document) UnmarshalJSON(data []byte) error {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	parsed, err := DocumentFromMap(m)
	if err != nil {
		return err
	}
	*d = *parsed
	return nil
}

// ToInt64 converts the numeric representations produced by JSON decoding,
// DynamoDB attribute decoding and hand-written maps into an int64. A nil
// value converts to zero.
func ToInt64(v any) (int64, error) {
	switch n := v.(type) {
	case nil:
		return 0, nil
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, fmt.Errorf("not a finite number: %v", n)
		}
		return int64(n), nil
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, nil
		}
		f, err := n.Float64()
		if err != nil {
			return 0, err
		}
		return int64(f), nil
	case string:
		i, err := strconv.ParseInt(n, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("not an integer: %q", n)
		}
		return i, nil
	default:
		return 0, fmt.Errorf("unsupported numeric type %T", v)
	}
}

func toString(key string, v any) (string, error) {
	switch s := v.(type) {
	case nil:
		return "", nil
	case string:
		return s, nil
	default:
		return "", fmt.Errorf("expected string, got %T", v)
	}
}
