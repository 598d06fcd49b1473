// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"net/http"
	"slices"
	"strings"

	"github.com/go-chi/cors"
)

var (
	corsHeaders = []string{"Content-Type", "Authorization"}
	corsMethods = []string{
		http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions,
	}
)

// CORS sets the cross-origin header set on every response and answers
// every OPTIONS request with an empty 200 before routing or authentication.
//
// An Origin that appears verbatim in allowed is echoed back with credentials
// enabled. Any other origin, including when allowed contains "*", gets the
// wildcard without credentials.
func CORS(allowed []string) func(http.Handler) http.Handler {
	listed := make([]string, 0, len(allowed))
	for _, o := range allowed {
		if o != "*" {
			listed = append(listed, o)
		}
	}

	// An origin func keeps the library from treating an empty list as "*".
	c := cors.New(cors.Options{
		AllowOriginFunc: func(_ *http.Request, origin string) bool {
			return slices.Contains(listed, origin)
		},
		AllowedMethods:     corsMethods,
		AllowedHeaders:     corsHeaders,
		AllowCredentials:   true,
		OptionsPassthrough: true,
	})

	allowHeaders := strings.Join(corsHeaders, ",")
	allowMethods := strings.Join(corsMethods, ",")

	return func(next http.Handler) http.Handler {
		return c.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			if h.Get("Access-Control-Allow-Origin") == "" {
				h.Set("Access-Control-Allow-Origin", "*")
				h.Del("Access-Control-Allow-Credentials")
			}
			h.Set("Access-Control-Allow-Headers", allowHeaders)
			h.Set("Access-Control-Allow-Methods", allowMethods)

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		}))
	}
}
