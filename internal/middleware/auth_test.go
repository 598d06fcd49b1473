// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"portfolio/internal/auth"
)

// fakeVerifier accepts exactly one token.
type fakeVerifier struct {
	valid string
}

func (f fakeVerifier) Verify(raw string) (*auth.Claims, error) {
	if raw != f.valid {
		return nil, auth.ErrInvalidToken
	}
	return &auth.Claims{UserID: "user-1", Username: "admin"}, nil
}

func TestRequireToken(t *testing.T) {
	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantCalled bool
	}{
		{"no header", "", http.StatusUnauthorized, false},
		{"wrong scheme", "Basic good", http.StatusUnauthorized, false},
		{"empty token", "Bearer ", http.StatusUnauthorized, false},
		{"bad token", "Bearer bad", http.StatusUnauthorized, false},
		{"good token", "Bearer good", http.StatusOK, true},
		{"lowercase scheme", "bearer good", http.StatusOK, true},
		{"padded token", "Bearer   good  ", http.StatusOK, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var called bool
			var gotClaims *auth.Claims
			inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				gotClaims = ClaimsFromCtx(r.Context())
				w.WriteHeader(http.StatusOK)
			})

			handler := RequireToken(fakeVerifier{valid: "good"})(inner)

			req := httptest.NewRequest(http.MethodPost, "/projects", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if rr.Code != tt.wantStatus {
				t.Errorf("status: got %d, want %d", rr.Code, tt.wantStatus)
			}
			if called != tt.wantCalled {
				t.Errorf("next called = %v, want %v", called, tt.wantCalled)
			}
			if tt.wantCalled && (gotClaims == nil || gotClaims.UserID != "user-1") {
				t.Errorf("claims in context = %+v", gotClaims)
			}
		})
	}
}

func TestRequireToken_ErrorBody(t *testing.T) {
	handler := RequireToken(fakeVerifier{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("next handler must not run")
	}))

	req := httptest.NewRequest(http.MethodDelete, "/projects/x", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	var body map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("body is not JSON: %v", err)
	}
	if body["error"] != "Unauthorized" || body["message"] != "Missing or invalid authentication token" {
		t.Errorf("body = %v", body)
	}
}

func TestClaimsFromCtx_Missing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if c := ClaimsFromCtx(req.Context()); c != nil {
		t.Errorf("got %+v, want nil", c)
	}
}

// Compile-time check that the real token issuer satisfies the gate.
var _ TokenVerifier = (*auth.Tokens)(nil)

