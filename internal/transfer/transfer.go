// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package transfer moves whole collections between a document store and
// JSON files. It backs the export and import commands of contentctl.
package transfer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"portfolio/internal/models"
	"portfolio/internal/slug"
	"portfolio/internal/store"
)

// ErrNotEmpty is returned by Import when the target collection already has
// records and Force was not set.
var ErrNotEmpty = errors.New("collection is not empty")

// Collection pairs a resource definition with the store that holds it.
type Collection struct {
	Resource models.Resource
	Docs     store.Documents
}

// FileName is the export file name of the collection, e.g. "projects.json".
func (c Collection) FileName() string {
	return c.Resource.Name + ".json"
}

// Export writes every record of c to w as an indented JSON array sorted by
// order. It returns the number of records written.
func Export(ctx context.Context, c Collection, w io.Writer) (int, error) {
	docs, err := c.Docs.Scan(ctx)
	if err != nil {
		return 0, fmt.Errorf("scan %s: %w", c.Resource.Name, err)
	}
	store.SortByOrder(docs)
	if docs == nil {
		docs = []*models.Document{}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(docs); err != nil {
		return 0, fmt.Errorf("encode %s: %w", c.Resource.Name, err)
	}
	return len(docs), nil
}

// ExportFile writes the collection to dir/<name>.json and returns the path.
func ExportFile(ctx context.Context, c Collection, dir string) (string, int, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", 0, fmt.Errorf("create export dir: %w", err)
	}
	path := filepath.Join(dir, c.FileName())
	f, err := os.Create(path)
	if err != nil {
		return "", 0, fmt.Errorf("create %s: %w", path, err)
	}

	n, err := Export(ctx, c, f)
	if cerr := f.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("close %s: %w", path, cerr)
	}
	if err != nil {
		return "", 0, err
	}
	slog.Info("collection exported", "collection", c.Resource.Name, "records", n, "path", path)
	return path, n, nil
}

// ImportOptions controls Import.
type ImportOptions struct {
	// Force allows importing into a collection that already has records.
	Force bool
	Now   func() time.Time
	NewID func() string
}

// ImportResult counts what Import did.
type ImportResult struct {
	Created int
	Skipped int
}

// Import reads a JSON array of records from r and stores them in c.
//
// Records are completed the way the API completes a create: a missing id
// gets a fresh one, a missing slug is derived from the title, a missing
// order continues after the highest order present, and missing timestamps
// are set to now. Records whose slug already exists are skipped. Records
// without a title are rejected before anything is written.
func Import(ctx context.Context, c Collection, r io.Reader, opts ImportOptions) (ImportResult, error) {
	var res ImportResult
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}

	var raw []map[string]any
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return res, fmt.Errorf("decode %s: %w", c.Resource.Name, err)
	}

	type pending struct {
		doc      *models.Document
		hasOrder bool
	}
	docs := make([]pending, 0, len(raw))
	for i, m := range raw {
		if missing := c.Resource.MissingRequired(m); missing != "" {
			return res, fmt.Errorf("record %d: %s is required", i, missing)
		}
		d, err := models.DocumentFromMap(m)
		if err != nil {
			return res, fmt.Errorf("record %d: %w", i, err)
		}
		docs = append(docs, pending{doc: d, hasOrder: m[models.AttrOrder] != nil})
	}

	existing, err := c.Docs.Scan(ctx)
	if err != nil {
		return res, fmt.Errorf("scan %s: %w", c.Resource.Name, err)
	}
	if len(existing) > 0 && !opts.Force {
		return res, fmt.Errorf("%s has %d records: %w", c.Resource.Name, len(existing), ErrNotEmpty)
	}

	slugs := make(map[string]bool, len(existing))
	for _, d := range existing {
		slugs[d.Slug] = true
	}
	next := store.MaxOrder(existing) + 1
	for _, p := range docs {
		if p.hasOrder && p.doc.Order >= next {
			next = p.doc.Order + 1
		}
	}

	for _, p := range docs {
		d := p.doc
		now := opts.Now().UnixMilli()
		if d.ID == "" {
			d.ID = opts.NewID()
		}
		if d.Slug == "" {
			title, _ := d.Fields["title"].(string)
			d.Slug = slug.Generate(title)
		}
		if d.Slug == "" {
			d.Slug = d.ID
		}
		if slugs[d.Slug] {
			slog.Info("record skipped, slug exists", "collection", c.Resource.Name, "slug", d.Slug)
			res.Skipped++
			continue
		}
		if !p.hasOrder {
			d.Order = next
			next++
		}
		if d.CreatedAt == 0 {
			d.CreatedAt = now
		}
		if d.UpdatedAt == 0 {
			d.UpdatedAt = d.CreatedAt
		}
		d.Fields = c.Resource.ContentFields(d.Fields)

		if err := c.Docs.Put(ctx, d); err != nil {
			return res, fmt.Errorf("put %s %s: %w", c.Resource.Name, d.Slug, err)
		}
		slugs[d.Slug] = true
		res.Created++
		slog.Info("record imported", "collection", c.Resource.Name, "slug", d.Slug, "id", d.ID)
	}
	return res, nil
}

// ImportFile imports dir/<name>.json into c.
func ImportFile(ctx context.Context, c Collection, dir string, opts ImportOptions) (ImportResult, error) {
	path := filepath.Join(dir, c.FileName())
	f, err := os.Open(path)
	if err != nil {
		return ImportResult{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Import(ctx, c, f, opts)
}
