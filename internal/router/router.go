// Package router sets up the HTTP routes and middleware chain of the
// content API. Routes are declared in one table; each entry is either
// public or sits behind the bearer-token gate.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"portfolio/internal/apperr"
	"portfolio/internal/handlers"
	"portfolio/internal/middleware"
)

// Deps are the handlers and services the router dispatches to.
type Deps struct {
	Tokens         middleware.TokenVerifier
	Auth           *handlers.Auth
	Projects       *handlers.Content
	BlogPosts      *handlers.Content
	Upload         *handlers.Upload
	AllowedOrigins []string
}

// Route is one entry of the route table.
type Route struct {
	Method    string
	Pattern   string
	Protected bool
	Handler   http.HandlerFunc
}

// Routes returns the route table. Protected routes are only reachable with
// a valid bearer token.
func Routes(d Deps) []Route {
	upload := handlers.Handle(d.Upload.Create)
	routes := []Route{
		{http.MethodGet, "/health", false, handlers.Health},
		{http.MethodPost, "/auth/login", false, handlers.Handle(d.Auth.Login)},
		{http.MethodPost, "/upload", true, upload},
		// Clients that mount the API under a prefix post to /<prefix>/upload.
		{http.MethodPost, "/{prefix}/upload", true, upload},
	}
	routes = append(routes, contentRoutes("/projects", d.Projects)...)
	routes = append(routes, contentRoutes("/blog-posts", d.BlogPosts)...)
	// /blog is kept as an alias of /blog-posts.
	routes = append(routes, contentRoutes("/blog", d.BlogPosts)...)
	return routes
}

func contentRoutes(prefix string, c *handlers.Content) []Route {
	return []Route{
		{http.MethodGet, prefix, false, handlers.Handle(c.List)},
		{http.MethodGet, prefix + "/{slug}", false, handlers.Handle(c.Get)},
		{http.MethodPost, prefix, true, handlers.Handle(c.Create)},
		{http.MethodPost, prefix + "/reorder", true, handlers.Handle(c.Reorder)},
		{http.MethodPut, prefix + "/{slug}", true, handlers.Handle(c.Update)},
		{http.MethodDelete, prefix + "/{slug}", true, handlers.Handle(c.Delete)},
	}
}

// New creates the configured chi router.
func New(d Deps) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request including unmatched ones.
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.CORS(d.AllowedOrigins))
	r.Use(middleware.SecureHeaders)
	r.Use(chimw.StripSlashes)

	gate := middleware.RequireToken(d.Tokens)

	// Anything that matches no public route is treated as protected: the
	// token is checked first and only then is the miss reported.
	r.NotFound(gate(http.HandlerFunc(notFound)).ServeHTTP)
	r.MethodNotAllowed(gate(http.HandlerFunc(notFound)).ServeHTTP)

	routes := Routes(d)
	for _, rt := range routes {
		if !rt.Protected {
			r.Method(rt.Method, rt.Pattern, rt.Handler)
		}
	}

	r.Group(func(r chi.Router) {
		r.Use(gate)
		for _, rt := range routes {
			if rt.Protected {
				r.Method(rt.Method, rt.Pattern, rt.Handler)
			}
		}
	})

	return r
}

// notFound reports an unmatched method and path.
func notFound(w http.ResponseWriter, r *http.Request) {
	handlers.Handle(func(http.ResponseWriter, *http.Request) error {
		return apperr.RouteNotFound(r.Method, r.URL.Path)
	})(w, r)
}
