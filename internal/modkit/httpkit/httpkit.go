// Package httpkit is what api modules mount with: route helpers, the shared
// middleware stack and bearer auth over device tokens
package httpkit

import (
	"net/http"

	phttp "tagtime/internal/platform/net/http"
)

type (
	// Router is the platform router
	Router = phttp.Router

	// Handler is the platform handler
	Handler = phttp.Handler

	// Envelope is the JSON response wrapper, named in route docs
	Envelope = phttp.Envelope
)

// Get mounts a bodyless GET handler
func Get(r Router, path string, h func(*http.Request) (any, error)) { r.Get(path, phttp.Call(h)) }

// Post mounts a bodyless POST handler
func Post(r Router, path string, h func(*http.Request) (any, error)) { r.Post(path, phttp.Call(h)) }

// PostJSON mounts a POST handler whose body is bound and validated into T
func PostJSON[T any](r Router, path string, h func(*http.Request, T) (any, error)) {
	r.Post(path, phttp.JSONHandler(h))
}
