// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package apperr defines the error taxonomy shared by handlers and the
// top-level HTTP error boundary. Every error carries a Kind that maps to
// exactly one HTTP status code.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for the HTTP boundary.
type Kind int

const (
	KindUpstream Kind = iota
	KindValidation
	KindAuth
	KindNotFound
	KindRouteNotFound
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuth:
		return "auth"
	case KindNotFound:
		return "not_found"
	case KindRouteNotFound:
		return "route_not_found"
	default:
		return "upstream"
	}
}

// Status returns the HTTP status code for the kind.
func (k Kind) Status() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuth:
		return http.StatusUnauthorized
	case KindNotFound, KindRouteNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Error is a classified application error. Message becomes the "error" field
// of the response body and Detail, when set, the "message" field.
type Error struct {
	Kind    Kind
	Message string
	Detail  string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *Error) Unwrap() error { return e.Err }

// Status returns the HTTP status code for the error.
func (e *Error) Status() int { return e.Kind.Status() }

// Validation reports a malformed request or a missing required field.
func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

// Unauthorized reports a missing, invalid or expired credential. The message
// must never reveal which part of a credential was wrong.
func Unauthorized(message, detail string) *Error {
	return &Error{Kind: KindAuth, Message: message, Detail: detail}
}

// NotFound reports that a slug resolved to no record.
func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

// RouteNotFound reports that no route matches the method and path.
func RouteNotFound(method, path string) *Error {
	return &Error{Kind: KindRouteNotFound, Message: "Not found", Detail: method + " " + path}
}

// Upstream wraps a store or signer failure. The underlying error text is
// exposed as the detail for operator diagnosis.
func Upstream(err error) *Error {
	e := &Error{Kind: KindUpstream, Message: "Internal server error", Err: err}
	if err != nil {
		e.Detail = err.Error()
	}
	return e
}

// Upstreamf is Upstream with a custom detail line; err is kept for unwrapping.
func Upstreamf(err error, format string, args ...any) *Error {
	return &Error{
		Kind:    KindUpstream,
		Message: "Internal server error",
		Detail:  fmt.Sprintf(format, args...),
		Err:     err,
	}
}

// From classifies any error. Errors that are not an *Error (anywhere in the
// chain) are treated as upstream failures.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return Upstream(err)
}
