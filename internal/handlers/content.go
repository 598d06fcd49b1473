// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"portfolio/internal/apperr"
	"portfolio/internal/cache"
	"portfolio/internal/models"
	"portfolio/internal/slug"
	"portfolio/internal/store"
)

// ResponseCache stores serialized public responses. *cache.Responses
// implements it; a nil ResponseCache disables caching.
type ResponseCache interface {
	Generation(ctx context.Context, collection string) (int64, bool)
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, body []byte)
	Invalidate(ctx context.Context, collection string)
}

// Content serves the CRUD and reorder operations of one collection.
type Content struct {
	res   models.Resource
	docs  store.Documents
	cache ResponseCache
	now   func() time.Time
	newID func() string
}

// NewContent creates the handler group for res backed by docs. rc may be nil.
func NewContent(res models.Resource, docs store.Documents, rc ResponseCache) *Content {
	return &Content{
		res:   res,
		docs:  docs,
		cache: rc,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// List returns every record sorted ascending by order.
func (c *Content) List(w http.ResponseWriter, r *http.Request) error {
	key := c.cacheKey(r.Context(), func(gen int64) string {
		return cache.ListKey(c.res.Name, gen)
	})
	if c.serveCached(w, r, key) {
		return nil
	}

	docs, err := c.docs.Scan(r.Context())
	if err != nil {
		return apperr.Upstream(err)
	}
	store.SortByOrder(docs)
	if docs == nil {
		docs = []*models.Document{}
	}

	return c.writeCacheable(w, r, key, map[string]any{c.res.Plural: docs})
}

// Get returns the record with the slug in the URL.
func (c *Content) Get(w http.ResponseWriter, r *http.Request) error {
	s := chi.URLParam(r, "slug")
	key := c.cacheKey(r.Context(), func(gen int64) string {
		return cache.ItemKey(c.res.Name, gen, s)
	})
	if c.serveCached(w, r, key) {
		return nil
	}

	doc, err := c.resolve(r.Context(), s)
	if err != nil {
		return err
	}
	return c.writeCacheable(w, r, key, map[string]any{c.res.Singular: doc})
}

// Create stores a new record. The server assigns id, timestamps, and order
// and slug when the caller does not supply them.
func (c *Content) Create(w http.ResponseWriter, r *http.Request) error {
	input, err := decodeObject(r)
	if err != nil {
		return err
	}
	if missing := c.res.MissingRequired(input); missing != "" {
		return apperr.Validation(requiredMessage(missing))
	}

	title := titleOf(input)
	docSlug, err := stringAttr(input, models.AttrSlug)
	if err != nil {
		return err
	}
	if docSlug == "" {
		docSlug = slug.Generate(title)
	}
	if msg := validateRecord(title, docSlug); msg != "" {
		return apperr.Validation(msg)
	}

	ctx := r.Context()
	order, explicit, err := orderAttr(input)
	if err != nil {
		return err
	}
	if !explicit {
		existing, err := c.docs.Scan(ctx)
		if err != nil {
			return apperr.Upstream(err)
		}
		order = store.MaxOrder(existing) + 1
	}

	now := c.now().UnixMilli()
	doc := &models.Document{
		ID:        c.newID(),
		Slug:      docSlug,
		Order:     order,
		CreatedAt: now,
		UpdatedAt: now,
		Fields:    c.res.ContentFields(input),
	}
	if doc.Slug == "" {
		// Titles made only of punctuation yield no slug; fall back to the id.
		doc.Slug = doc.ID
	}

	if err := c.docs.Put(ctx, doc); err != nil {
		return apperr.Upstream(err)
	}
	c.invalidate(ctx)

	slog.Info("record created", "collection", c.res.Name, "id", doc.ID, "slug", doc.Slug)
	writeJSON(w, http.StatusCreated, map[string]any{
		"id":           doc.ID,
		"message":      c.res.Label + " created successfully",
		c.res.Singular: doc,
	})
	return nil
}

// Update applies a partial update to the record with the slug in the URL.
// Only allow-listed attributes and order are written; id, slug, createdAt
// and updatedAt from the caller are ignored. updatedAt is always advanced.
func (c *Content) Update(w http.ResponseWriter, r *http.Request) error {
	input, err := decodeObject(r)
	if err != nil {
		return err
	}

	ctx := r.Context()
	existing, err := c.resolve(ctx, chi.URLParam(r, "slug"))
	if err != nil {
		return err
	}

	set := make(map[string]any, len(input)+1)
	for k, v := range input {
		if c.res.Updatable(k) {
			set[k] = v
		}
	}
	if _, ok := set[models.AttrOrder]; ok {
		order, explicit, err := orderAttr(set)
		if err != nil {
			return err
		}
		if explicit {
			set[models.AttrOrder] = order
		} else {
			delete(set, models.AttrOrder)
		}
	}
	if len(set) == 0 {
		return apperr.Validation("No fields to update")
	}
	set[models.AttrUpdatedAt] = c.nextUpdatedAt(existing.UpdatedAt)

	if err := c.docs.Update(ctx, existing.ID, set); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperr.NotFound(c.res.NotFoundMessage())
		}
		return apperr.Upstream(err)
	}
	c.invalidate(ctx)

	writeJSON(w, http.StatusOK, map[string]any{
		"message": c.res.Label + " updated successfully",
		"id":      existing.ID,
	})
	return nil
}

// Delete removes the record with the slug in the URL.
func (c *Content) Delete(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	existing, err := c.resolve(ctx, chi.URLParam(r, "slug"))
	if err != nil {
		return err
	}

	if err := c.docs.Delete(ctx, existing.ID); err != nil {
		return apperr.Upstream(err)
	}
	c.invalidate(ctx)

	slog.Info("record deleted", "collection", c.res.Name, "id", existing.ID, "slug", existing.Slug)
	writeJSON(w, http.StatusOK, map[string]any{
		"message": c.res.Label + " deleted successfully",
		"id":      existing.ID,
	})
	return nil
}

// reorderItem is one entry of a reorder request.
type reorderItem struct {
	ID    string          `json:"id"`
	Order json.RawMessage `json:"order"`
}

// Reorder rewrites the order of several records. The whole request is
// validated, and every id checked against the collection, before the first
// write. Writes are applied one at a time; a failure stops the batch and
// earlier writes stay in place.
func (c *Content) Reorder(w http.ResponseWriter, r *http.Request) error {
	var body struct {
		Items []reorderItem `json:"items"`
	}
	if err := decodeBody(r, &body); err != nil {
		return err
	}
	if len(body.Items) == 0 {
		return apperr.Validation("Items array is required")
	}

	orders := make([]int64, len(body.Items))
	for i, item := range body.Items {
		if strings.TrimSpace(item.ID) == "" {
			return apperr.Validation(fmt.Sprintf("Item %d: id is required", i))
		}
		order, ok := rawInteger(item.Order)
		if !ok {
			return apperr.Validation(fmt.Sprintf("Item %d: order must be an integer", i))
		}
		orders[i] = order
	}

	ctx := r.Context()
	all, err := c.docs.Scan(ctx)
	if err != nil {
		return apperr.Upstream(err)
	}
	byID := make(map[string]*models.Document, len(all))
	for _, d := range all {
		byID[d.ID] = d
	}
	for _, item := range body.Items {
		if _, ok := byID[item.ID]; !ok {
			return &apperr.Error{
				Kind:    apperr.KindNotFound,
				Message: c.res.NotFoundMessage(),
				Detail:  "Unknown id " + item.ID,
			}
		}
	}

	total := len(body.Items)
	updated := 0
	for i, item := range body.Items {
		prev := byID[item.ID]
		updatedAt := c.nextUpdatedAt(prev.UpdatedAt)
		set := map[string]any{
			models.AttrOrder:     orders[i],
			models.AttrUpdatedAt: updatedAt,
		}
		if err := c.docs.Update(ctx, item.ID, set); err != nil {
			if updated > 0 {
				c.invalidate(ctx)
			}
			detail := fmt.Sprintf("Reorder stopped after %d of %d items", updated, total)
			slog.Error("reorder interrupted",
				"collection", c.res.Name, "id", item.ID,
				"updated", updated, "total", total, "error", err,
			)
			if errors.Is(err, store.ErrNotFound) {
				return &apperr.Error{Kind: apperr.KindNotFound, Message: c.res.NotFoundMessage(), Detail: detail, Err: err}
			}
			return apperr.Upstreamf(err, "%s: %v", detail, err)
		}
		// An id named twice in one batch must still advance on its second write.
		prev.UpdatedAt = updatedAt
		updated++
	}
	c.invalidate(ctx)

	writeJSON(w, http.StatusOK, map[string]any{
		"message": fmt.Sprintf("%s reordered successfully", c.res.Label+"s"),
		"updated": updated,
	})
	return nil
}

// resolve looks up a record by slug and maps absence to a 404.
func (c *Content) resolve(ctx context.Context, s string) (*models.Document, error) {
	doc, err := c.docs.FindBySlug(ctx, s)
	if err != nil {
		return nil, apperr.Upstream(err)
	}
	if doc == nil {
		return nil, apperr.NotFound(c.res.NotFoundMessage())
	}
	return doc, nil
}

// nextUpdatedAt returns the current time in milliseconds, bumped past prev
// so updatedAt strictly increases even within one millisecond.
func (c *Content) nextUpdatedAt(prev int64) int64 {
	now := c.now().UnixMilli()
	if now <= prev {
		return prev + 1
	}
	return now
}

// cacheKey returns the cache key for the current write generation, or ""
// when caching is off. It is called before the store is read.
func (c *Content) cacheKey(ctx context.Context, key func(gen int64) string) string {
	if c.cache == nil {
		return ""
	}
	gen, ok := c.cache.Generation(ctx, c.res.Name)
	if !ok {
		return ""
	}
	return key(gen)
}

func (c *Content) serveCached(w http.ResponseWriter, r *http.Request, key string) bool {
	if key == "" {
		return false
	}
	body, ok := c.cache.Get(r.Context(), key)
	if !ok {
		return false
	}
	writeRaw(w, http.StatusOK, body)
	return true
}

func (c *Content) writeCacheable(w http.ResponseWriter, r *http.Request, key string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return apperr.Upstream(fmt.Errorf("encode response: %w", err))
	}
	if key != "" {
		c.cache.Set(r.Context(), key, body)
	}
	writeRaw(w, http.StatusOK, body)
	return nil
}

func (c *Content) invalidate(ctx context.Context) {
	if c.cache != nil {
		c.cache.Invalidate(ctx, c.res.Name)
	}
}

// titleOf renders the title attribute as text for slug synthesis.
func titleOf(input map[string]any) string {
	switch t := input["title"].(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	default:
		return fmt.Sprint(t)
	}
}

// stringAttr returns input[key] as a trimmed string. Absent and null are "".
func stringAttr(input map[string]any, key string) (string, error) {
	switch v := input[key].(type) {
	case nil:
		return "", nil
	case string:
		return strings.TrimSpace(v), nil
	default:
		return "", apperr.Validation(capitalize(key) + " must be a string")
	}
}

// orderAttr extracts an explicit integer order. The second result reports
// whether the caller supplied one.
func orderAttr(input map[string]any) (int64, bool, error) {
	switch n := input[models.AttrOrder].(type) {
	case nil:
		return 0, false, nil
	case int64:
		return n, true, nil
	case float64:
		if n == math.Trunc(n) && math.Abs(n) < 1<<53 {
			return int64(n), true, nil
		}
	}
	return 0, false, apperr.Validation("Order must be an integer")
}

// rawInteger parses a JSON number literal holding an integer. Strings,
// null and fractions are rejected.
func rawInteger(raw json.RawMessage) (int64, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] == '"' {
		return 0, false
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil || n == "" {
		return 0, false
	}
	order, err := n.Int64()
	return order, err == nil
}
