// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package router tests verify the route table, the authorization gate and
// the global middleware chain end to end against the in-memory store.
package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"portfolio/internal/auth"
	"portfolio/internal/handlers"
	"portfolio/internal/models"
	"portfolio/internal/store/memory"
)

type stubPresigner struct {
	calls int
}

func (s *stubPresigner) PresignUpload(_ context.Context, key, _ string, _ time.Duration) (string, error) {
	s.calls++
	return "https://signed.example.com/" + key, nil
}

func (s *stubPresigner) FileURL(key string) string {
	return "https://files.example.com/" + key
}

type testEnv struct {
	handler  http.Handler
	deps     Deps
	tokens   *auth.Tokens
	projects *memory.Documents
	posts    *memory.Documents
	users    *memory.Users
	signer   *stubPresigner
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	tokens, err := auth.NewTokens([]byte("router-secret"), time.Hour)
	if err != nil {
		t.Fatalf("NewTokens: %v", err)
	}
	env := &testEnv{
		tokens:   tokens,
		projects: memory.NewDocuments(),
		posts:    memory.NewDocuments(),
		users:    memory.NewUsers(),
		signer:   &stubPresigner{},
	}
	seed := func(docs *memory.Documents, id, slug string) {
		d := &models.Document{ID: id, Slug: slug, Order: 1, CreatedAt: 1, UpdatedAt: 1, Fields: map[string]any{"title": slug}}
		if err := docs.Put(context.Background(), d); err != nil {
			t.Fatal(err)
		}
	}
	seed(env.projects, "p1", "existing")
	seed(env.posts, "b1", "existing")

	env.deps = Deps{
		Tokens:         tokens,
		Auth:           handlers.NewAuth(env.users, tokens, ""),
		Projects:       handlers.NewContent(models.Projects, env.projects, nil),
		BlogPosts:      handlers.NewContent(models.BlogPosts, env.posts, nil),
		Upload:         handlers.NewUpload(env.signer, "uploads", 10<<20, 15*time.Minute),
		AllowedOrigins: []string{"https://site.example.com"},
	}
	env.handler = New(env.deps)
	return env
}

func (e *testEnv) token(t *testing.T) string {
	t.Helper()
	tok, err := e.tokens.Issue("user-42", "admin")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	return tok
}

func (e *testEnv) do(method, path, body, token string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) mutations() int {
	return e.projects.Mutations() + e.posts.Mutations()
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return out
}

// concrete turns a route pattern into a request path.
func concrete(pattern string) string {
	return strings.NewReplacer("{slug}", "existing", "{prefix}", "api").Replace(pattern)
}

func TestRoutes_Table(t *testing.T) {
	env := newTestEnv(t)
	public := map[string]bool{}
	protected := map[string]bool{}
	for _, rt := range Routes(env.deps) {
		if rt.Handler == nil {
			t.Errorf("%s %s has no handler", rt.Method, rt.Pattern)
		}
		key := rt.Method + " " + rt.Pattern
		if rt.Protected {
			protected[key] = true
		} else {
			public[key] = true
		}
	}

	for _, key := range []string{
		"GET /health", "POST /auth/login",
		"GET /projects", "GET /projects/{slug}",
		"GET /blog-posts", "GET /blog-posts/{slug}",
		"GET /blog", "GET /blog/{slug}",
	} {
		if !public[key] {
			t.Errorf("%s should be public", key)
		}
	}
	for _, key := range []string{
		"POST /upload", "POST /{prefix}/upload",
		"POST /projects", "PUT /projects/{slug}", "DELETE /projects/{slug}", "POST /projects/reorder",
		"POST /blog-posts", "PUT /blog-posts/{slug}", "DELETE /blog-posts/{slug}", "POST /blog-posts/reorder",
	} {
		if !protected[key] {
			t.Errorf("%s should be protected", key)
		}
	}
	for key := range public {
		if !strings.HasPrefix(key, http.MethodGet) && key != "POST /auth/login" {
			t.Errorf("%s is a public write", key)
		}
	}
}

// TestProtectedRoutes_RejectWithoutToken checks that no protected route
// touches the store unless the token check passed.
func TestProtectedRoutes_RejectWithoutToken(t *testing.T) {
	env := newTestEnv(t)

	tokens := []struct {
		name  string
		value string
	}{
		{"missing", ""},
		{"garbage", "not-a-jwt"},
	}

	for _, rt := range Routes(env.deps) {
		if !rt.Protected {
			continue
		}
		for _, tok := range tokens {
			t.Run(rt.Method+" "+rt.Pattern+"/"+tok.name, func(t *testing.T) {
				before := env.mutations()
				rec := env.do(rt.Method, concrete(rt.Pattern),
					`{"title":"x","items":[{"id":"p1","order":2}],"filename":"a.png","contentType":"image/png"}`, tok.value)

				if rec.Code != http.StatusUnauthorized {
					t.Fatalf("status = %d, want 401", rec.Code)
				}
				body := decode(t, rec)
				if body["error"] != "Unauthorized" || body["message"] != "Missing or invalid authentication token" {
					t.Errorf("body = %v", body)
				}
				if env.mutations() != before {
					t.Error("store mutated without a valid token")
				}
				if env.signer.calls != 0 {
					t.Error("upload signed without a valid token")
				}
			})
		}
	}
}

func TestProtectedRoutes_ExpiredToken(t *testing.T) {
	env := newTestEnv(t)
	past := time.Now().Add(-2 * time.Hour)
	old, err := auth.NewTokens([]byte("router-secret"), time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	tok, err := old.WithClock(func() time.Time { return past }).Issue("u", "admin")
	if err != nil {
		t.Fatal(err)
	}

	rec := env.do(http.MethodPost, "/projects", `{"title":"x"}`, tok)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestPublicRoutes_NoToken(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		path string
		key  string
	}{
		{"/projects", "projects"},
		{"/projects/existing", "project"},
		{"/blog-posts", "posts"},
		{"/blog-posts/existing", "post"},
		{"/blog", "posts"},
		{"/blog/existing", "post"},
		{"/projects/", "projects"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := env.do(http.MethodGet, tt.path, "", "")
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
			}
			if _, ok := decode(t, rec)[tt.key]; !ok {
				t.Errorf("response lacks %q: %s", tt.key, rec.Body.String())
			}
		})
	}
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(http.MethodGet, "/health", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content-type = %q", ct)
	}
	if decode(t, rec)["status"] != "ok" {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestUnmatchedRoutes(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		method, path string
	}{
		{http.MethodGet, "/nope"},
		{http.MethodPatch, "/projects/existing"},
		{http.MethodPost, "/projects/existing"},
		{http.MethodGet, "/projects/a/b"},
		{http.MethodGet, "/upload"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := env.do(tt.method, tt.path, "", "")
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("without token: status = %d, want 401", rec.Code)
			}

			rec = env.do(tt.method, tt.path, "", env.token(t))
			if rec.Code != http.StatusNotFound {
				t.Fatalf("with token: status = %d, want 404", rec.Code)
			}
			body := decode(t, rec)
			if body["error"] != "Not found" || body["message"] != tt.method+" "+tt.path {
				t.Errorf("body = %v", body)
			}
		})
	}
}

func TestOptions_AnyPath(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/projects", "/upload", "/does/not/exist"} {
		t.Run(path, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodOptions, path, nil)
			req.Header.Set("Origin", "https://evil.example.com")
			rec := httptest.NewRecorder()
			env.handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusOK {
				t.Errorf("status = %d, want 200", rec.Code)
			}
			if rec.Body.Len() != 0 {
				t.Errorf("body = %q, want empty", rec.Body.String())
			}
			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
				t.Errorf("allow-origin = %q, want *", got)
			}
			if rec.Header().Get("Access-Control-Allow-Credentials") != "" {
				t.Error("credentials allowed for an unlisted origin")
			}
		})
	}
}

func TestCORS_ListedOriginOnErrors(t *testing.T) {
	env := newTestEnv(t)
	req := httptest.NewRequest(http.MethodPost, "/projects", strings.NewReader(`{}`))
	req.Header.Set("Origin", "https://site.example.com")
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://site.example.com" {
		t.Errorf("allow-origin = %q", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Credentials"); got != "true" {
		t.Errorf("allow-credentials = %q", got)
	}
}

func TestAdminFlow(t *testing.T) {
	env := newTestEnv(t)
	tok := env.token(t)

	rec := env.do(http.MethodPost, "/blog", `{"title":"Via Alias","tags":["go"]}`, tok)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status = %d (body %s)", rec.Code, rec.Body.String())
	}
	created := decode(t, rec)["post"].(map[string]any)
	if created["slug"] != "via-alias" || created["order"] != float64(2) {
		t.Errorf("created = %v", created)
	}

	rec = env.do(http.MethodPut, "/blog-posts/via-alias", `{"published":true}`, tok)
	if rec.Code != http.StatusOK {
		t.Fatalf("update: status = %d (body %s)", rec.Code, rec.Body.String())
	}

	rec = env.do(http.MethodPost, "/blog-posts/reorder",
		`{"items":[{"id":"`+created["id"].(string)+`","order":0},{"id":"b1","order":1}]}`, tok)
	if rec.Code != http.StatusOK {
		t.Fatalf("reorder: status = %d (body %s)", rec.Code, rec.Body.String())
	}

	rec = env.do(http.MethodGet, "/blog-posts", "", "")
	posts := decode(t, rec)["posts"].([]any)
	if len(posts) != 2 || posts[0].(map[string]any)["slug"] != "via-alias" {
		t.Errorf("list after reorder = %v", posts)
	}
	if posts[0].(map[string]any)["published"] != true {
		t.Errorf("update not persisted: %v", posts[0])
	}

	rec = env.do(http.MethodDelete, "/blog-posts/via-alias", "", tok)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete: status = %d", rec.Code)
	}
	if env.posts.Len() != 1 {
		t.Errorf("posts after delete = %d, want 1", env.posts.Len())
	}
}

func TestUpload_UsesTokenUser(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(http.MethodPost, "/upload", `{"filename":"a b.png","contentType":"image/png"}`, env.token(t))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d (body %s)", rec.Code, rec.Body.String())
	}
	key := decode(t, rec)["key"].(string)
	if !strings.HasPrefix(key, "uploads/user-42/") || !strings.HasSuffix(key, "-a_b.png") {
		t.Errorf("key = %q", key)
	}
}

func TestUpload_PrefixedPath(t *testing.T) {
	env := newTestEnv(t)
	for _, path := range []string{"/api/upload", "/projects/upload"} {
		t.Run(path, func(t *testing.T) {
			rec := env.do(http.MethodPost, path, `{"filename":"a.png","contentType":"image/png"}`, "")
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("without token: status = %d, want 401", rec.Code)
			}

			rec = env.do(http.MethodPost, path, `{"filename":"a.png","contentType":"image/png"}`, env.token(t))
			if rec.Code != http.StatusOK {
				t.Fatalf("with token: status = %d (body %s)", rec.Code, rec.Body.String())
			}
			if key, _ := decode(t, rec)["key"].(string); !strings.HasPrefix(key, "uploads/user-42/") {
				t.Errorf("key = %q", key)
			}
		})
	}
}

func TestLogin_Public(t *testing.T) {
	env := newTestEnv(t)
	hash, err := auth.HashPassword("pw")
	if err != nil {
		t.Fatal(err)
	}
	env.users.Create(context.Background(), &models.User{ID: "u-1", Username: "editor", PasswordHash: hash})

	rec := env.do(http.MethodPost, "/auth/login", `{"username":"editor","password":"pw"}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d (body %s)", rec.Code, rec.Body.String())
	}
	tok := decode(t, rec)["token"].(string)

	rec = env.do(http.MethodPost, "/projects", `{"title":"With Login Token"}`, tok)
	if rec.Code != http.StatusCreated {
		t.Errorf("create with issued token: status = %d", rec.Code)
	}
}

func TestRecoverer_InChain(t *testing.T) {
	env := newTestEnv(t)
	// A nil store panics on the first read; the chain must answer 500.
	env.deps.Projects = handlers.NewContent(models.Projects, nil, nil)
	h := New(env.deps)

	req := httptest.NewRequest(http.MethodGet, "/projects", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}
