// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package transfer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"portfolio/internal/models"
	"portfolio/internal/store/memory"
)

var fixedNow = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

func testOptions(force bool) ImportOptions {
	n := 0
	return ImportOptions{
		Force: force,
		Now:   func() time.Time { return fixedNow },
		NewID: func() string {
			n++
			return fmt.Sprintf("new-%d", n)
		},
	}
}

func put(t *testing.T, docs *memory.Documents, id, slug string, order int64) {
	t.Helper()
	d := &models.Document{ID: id, Slug: slug, Order: order, CreatedAt: 1, UpdatedAt: 2, Fields: map[string]any{"title": strings.ToUpper(slug)}}
	if err := docs.Put(context.Background(), d); err != nil {
		t.Fatal(err)
	}
}

func TestExport_SortedFlatArray(t *testing.T) {
	docs := memory.NewDocuments()
	put(t, docs, "b", "second", 2)
	put(t, docs, "a", "first", 1)

	var buf bytes.Buffer
	n, err := Export(context.Background(), Collection{models.Projects, docs}, &buf)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if n != 2 {
		t.Errorf("n = %d, want 2", n)
	}

	var out []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out[0]["slug"] != "first" || out[1]["slug"] != "second" {
		t.Errorf("order = %v, %v", out[0]["slug"], out[1]["slug"])
	}
	if out[0]["title"] != "FIRST" || out[0]["createdAt"] != float64(1) {
		t.Errorf("record not flat: %v", out[0])
	}
}

func TestExport_Empty(t *testing.T) {
	var buf bytes.Buffer
	if _, err := Export(context.Background(), Collection{models.BlogPosts, memory.NewDocuments()}, &buf); err != nil {
		t.Fatal(err)
	}
	if got := strings.TrimSpace(buf.String()); got != "[]" {
		t.Errorf("empty export = %q, want []", got)
	}
}

func TestExport_ScanError(t *testing.T) {
	docs := memory.NewDocuments()
	docs.ScanErr = errors.New("table missing")
	_, err := Export(context.Background(), Collection{models.Projects, docs}, &bytes.Buffer{})
	if err == nil || !strings.Contains(err.Error(), "table missing") {
		t.Errorf("err = %v", err)
	}
}

func TestImport_FillsServerFields(t *testing.T) {
	docs := memory.NewDocuments()
	input := `[
		{"title":"Hello World","role":"Lead","unknown":"dropped"},
		{"id":"keep-id","slug":"custom","title":"Other","order":10,"createdAt":5}
	]`

	res, err := Import(context.Background(), Collection{models.Projects, docs}, strings.NewReader(input), testOptions(false))
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if res.Created != 2 || res.Skipped != 0 {
		t.Errorf("result = %+v", res)
	}

	first := docs.Get("new-1")
	if first == nil {
		t.Fatal("generated id not used")
	}
	if first.Slug != "hello-world" || first.Order != 11 {
		t.Errorf("first = slug %q order %d", first.Slug, first.Order)
	}
	if first.CreatedAt != fixedNow.UnixMilli() || first.UpdatedAt != first.CreatedAt {
		t.Errorf("timestamps = %d/%d", first.CreatedAt, first.UpdatedAt)
	}
	if _, ok := first.Fields["unknown"]; ok {
		t.Error("unknown attribute imported")
	}

	second := docs.Get("keep-id")
	if second == nil || second.Slug != "custom" || second.Order != 10 || second.CreatedAt != 5 || second.UpdatedAt != 5 {
		t.Errorf("second = %+v", second)
	}
}

func TestImport_RefusesNonEmptyWithoutForce(t *testing.T) {
	docs := memory.NewDocuments()
	put(t, docs, "a", "existing", 1)

	_, err := Import(context.Background(), Collection{models.BlogPosts, docs}, strings.NewReader(`[{"title":"x"}]`), testOptions(false))
	if !errors.Is(err, ErrNotEmpty) {
		t.Fatalf("err = %v, want ErrNotEmpty", err)
	}
	if docs.Len() != 1 {
		t.Error("records written despite refusal")
	}
}

func TestImport_ForceSkipsExistingSlugs(t *testing.T) {
	docs := memory.NewDocuments()
	put(t, docs, "a", "existing", 3)

	input := `[{"title":"Existing"},{"title":"Fresh"},{"title":"Fresh"}]`
	res, err := Import(context.Background(), Collection{models.BlogPosts, docs}, strings.NewReader(input), testOptions(true))
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if res.Created != 1 || res.Skipped != 2 {
		t.Errorf("result = %+v, want 1 created 2 skipped", res)
	}
	if got := docs.Get("a").Fields["title"]; got != "EXISTING" {
		t.Errorf("existing record overwritten: %v", got)
	}
	if fresh := docs.Get("new-2"); fresh == nil || fresh.Order != 4 {
		t.Errorf("fresh = %+v, want order 4", fresh)
	}
}

func TestImport_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"not json", `{`, "decode"},
		{"not array", `{"title":"x"}`, "decode"},
		{"missing title", `[{"title":"ok"},{"role":"x"}]`, "record 1: title is required"},
		{"bad order", `[{"title":"x","order":"first"}]`, "record 0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			docs := memory.NewDocuments()
			_, err := Import(context.Background(), Collection{models.Projects, docs}, strings.NewReader(tt.input), testOptions(false))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want %q", err, tt.want)
			}
			if docs.Len() != 0 {
				t.Error("records written for invalid input")
			}
		})
	}
}

func TestExportImportFiles(t *testing.T) {
	dir := t.TempDir()
	src := memory.NewDocuments()
	put(t, src, "a", "alpha", 1)
	put(t, src, "b", "beta", 2)

	path, n, err := ExportFile(context.Background(), Collection{models.Projects, src}, filepath.Join(dir, "out"))
	if err != nil {
		t.Fatalf("ExportFile: %v", err)
	}
	if n != 2 || filepath.Base(path) != "projects.json" {
		t.Errorf("ExportFile = %q, %d", path, n)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("export file missing: %v", err)
	}

	dst := memory.NewDocuments()
	res, err := ImportFile(context.Background(), Collection{models.Projects, dst}, filepath.Join(dir, "out"), testOptions(false))
	if err != nil {
		t.Fatalf("ImportFile: %v", err)
	}
	if res.Created != 2 {
		t.Errorf("created = %d, want 2", res.Created)
	}
	for _, id := range []string{"a", "b"} {
		want, got := src.Get(id), dst.Get(id)
		if got == nil || got.Slug != want.Slug || got.Order != want.Order || got.UpdatedAt != want.UpdatedAt {
			t.Errorf("%s: got %+v, want %+v", id, got, want)
		}
	}
}

func TestImportFile_Missing(t *testing.T) {
	_, err := ImportFile(context.Background(), Collection{models.BlogPosts, memory.NewDocuments()}, t.TempDir(), ImportOptions{})
	if err == nil || !strings.Contains(err.Error(), "blog-posts.json") {
		t.Errorf("err = %v", err)
	}
}
