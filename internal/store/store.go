// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package store defines the persistence contracts used by the content API.
// Implementations live in the dynamo, postgres and memory subpackages.
package store

import (
	"context"
	"errors"
	"sort"

	"portfolio/internal/models"
)

// ErrNotFound is returned by Update when the target id does not exist.
var ErrNotFound = errors.New("record not found")

// Documents is one content collection (projects or blog posts).
type Documents interface {
	// Scan returns every record in the collection, in no particular order.
	Scan(ctx context.Context) ([]*models.Document, error)
	// FindBySlug returns the first record whose slug matches, or nil if none.
	FindBySlug(ctx context.Context, slug string) (*models.Document, error)
	// Put writes a full record, replacing any record with the same id.
	Put(ctx context.Context, doc *models.Document) error
	// Update overwrites the given attributes on an existing record. It never
	// creates a record and returns ErrNotFound when id is unknown.
	Update(ctx context.Context, id string, set map[string]any) error
	// Delete removes a record by id. Deleting a missing id is not an error.
	Delete(ctx context.Context, id string) error
}

// Users holds admin accounts.
type Users interface {
	// FindByUsername returns the first user with the given username, or nil.
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	Create(ctx context.Context, u *models.User) error
}

// SortByOrder sorts docs ascending by order. Equal orders keep their
// relative position.
func SortByOrder(docs []*models.Document) {
	sort.SliceStable(docs, func(i, j int) bool {
		return docs[i].Order < docs[j].Order
	})
}

// MaxOrder returns the largest order in docs, or 0 for an empty slice.
func MaxOrder(docs []*models.Document) int64 {
	var maxOrder int64
	for _, d := range docs {
		if d.Order > maxOrder {
			maxOrder = d.Order
		}
	}
	return maxOrder
}
