// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers contains the HTTP handlers of the content API. Handlers
// return errors; Handle is the single boundary that turns them into the
// {error, message?} JSON envelope.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"portfolio/internal/apperr"
)

// maxBodyBytes caps request bodies. Content records are small; file bytes
// never reach the API.
const maxBodyBytes = 1 << 20

// HandlerFunc is an HTTP handler that reports failures by returning them.
type HandlerFunc func(w http.ResponseWriter, r *http.Request) error

// errorBody is the error envelope returned for every failure.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// Handle adapts h to http.HandlerFunc. Classified errors become their
// status code; anything else is logged and answered with 500.
func Handle(h HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := h(w, r)
		if err == nil {
			return
		}

		ae := apperr.From(err)
		switch ae.Kind {
		case apperr.KindUpstream:
			slog.Error("request failed",
				"method", r.Method,
				"path", r.URL.Path,
				"error", err,
			)
		case apperr.KindAuth:
			slog.Warn("authentication failed", "method", r.Method, "path", r.URL.Path)
		}

		writeJSON(w, ae.Status(), errorBody{Error: ae.Message, Message: ae.Detail})
	}
}

// writeJSON writes v as the response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

// writeRaw writes an already-encoded JSON body.
func writeRaw(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(body)
}

// decodeBody reads a JSON request body into v. An empty body and malformed
// JSON are validation errors.
func decodeBody(r *http.Request, v any) error {
	if r.Body == nil {
		return apperr.Validation("Request body is required")
	}
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		return apperr.Validation("Could not read request body")
	}
	if len(data) > maxBodyBytes {
		return apperr.Validation("Request body is too large")
	}
	if strings.TrimSpace(string(data)) == "" {
		return apperr.Validation("Request body is required")
	}
	if err := json.Unmarshal(data, v); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return apperr.Validation("Invalid value for " + typeErr.Field)
		}
		return apperr.Validation("Invalid JSON body")
	}
	return nil
}

// decodeObject reads a JSON object body. Arrays, scalars and null are
// rejected.
func decodeObject(r *http.Request) (map[string]any, error) {
	var v any
	if err := decodeBody(r, &v); err != nil {
		return nil, err
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, apperr.Validation("Request body must be a JSON object")
	}
	return obj, nil
}
