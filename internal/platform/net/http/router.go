package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Handler is the handler shape routes take
type Handler = func(http.ResponseWriter, *http.Request)

// Router is the routing surface modules mount against
type Router interface {
	Get(path string, h Handler)
	Post(path string, h Handler)
	Handle(path string, h http.Handler)
	Use(mw ...func(http.Handler) http.Handler)
	Group(fn func(Router))
	Route(pattern string, fn func(Router))
}

type chiRouter struct {
	r      chi.Router
	prefix string
}

// AdaptChi wraps a chi router; sub routers stay wrapped
func AdaptChi(r chi.Router) Router { return chiRouter{r: r} }

// MountPath is the absolute path r's routes hang from, "" at the root
func MountPath(r Router) string {
	if c, ok := r.(chiRouter); ok {
		return c.prefix
	}
	if p, ok := r.(interface{ MountPath() string }); ok {
		return p.MountPath()
	}
	return ""
}

func (c chiRouter) Get(p string, h Handler)  { c.r.Get(p, h) }
func (c chiRouter) Post(p string, h Handler) { c.r.Post(p, h) }

func (c chiRouter) Handle(p string, h http.Handler)           { c.r.Handle(p, h) }
func (c chiRouter) Use(mw ...func(http.Handler) http.Handler) { c.r.Use(mw...) }

func (c chiRouter) Group(fn func(Router)) {
	c.r.Group(func(sub chi.Router) { fn(chiRouter{r: sub, prefix: c.prefix}) })
}

func (c chiRouter) Route(pattern string, fn func(Router)) {
	c.r.Route(pattern, func(sub chi.Router) { fn(chiRouter{r: sub, prefix: c.prefix + pattern}) })
}
