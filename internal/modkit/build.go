package modkit

import (
	"fmt"
	"net/http"

	"tagtime/internal/modkit/httpkit"
)

// Module is what api.Mount needs from each http facing module
type Module interface {
	Name() string
	Ports() any
	MountRoutes(r httpkit.Router)
}

// Option adjusts how a module is built
type Option func(*Built)

// Built is the resolved module wiring
type Built struct {
	Name   string
	Prefix string
	Mw     []func(http.Handler) http.Handler

	// Ports carries the ports this module consumes, owned by another module
	Ports any

	// Register attaches extra routes after the module's own
	Register func(httpkit.Router)
}

// WithName names the module for logs and the port registry
func WithName(name string) Option { return func(b *Built) { b.Name = name } }

// WithPrefix mounts the module under prefix
func WithPrefix(prefix string) Option { return func(b *Built) { b.Prefix = prefix } }

// WithMiddlewares appends per module middleware
func WithMiddlewares(mw ...func(http.Handler) http.Handler) Option {
	return func(b *Built) { b.Mw = append(b.Mw, mw...) }
}

// WithPorts hands a module the ports it depends on
func WithPorts[T any](p T) Option { return func(b *Built) { b.Ports = p } }

// WithRegister adds routes next to the module's own, mostly for tests
func WithRegister(fn func(httpkit.Router)) Option { return func(b *Built) { b.Register = fn } }

// Build applies defaults then opts; later options win
func Build(defaults []Option, opts ...Option) Built {
	var b Built
	for _, o := range append(append([]Option(nil), defaults...), opts...) {
		o(&b)
	}
	b.Mw = append([]func(http.Handler) http.Handler(nil), b.Mw...)
	if b.Register == nil {
		b.Register = func(httpkit.Router) {}
	}
	return b
}

// PortsAs returns the consumed ports as T
func PortsAs[T any](b Built) (T, error) {
	p, ok := b.Ports.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("module %q: expected WithPorts(%T), got %T", b.Name, zero, b.Ports)
	}
	return p, nil
}

// MustPortsAs is PortsAs for constructors that cannot fail
func MustPortsAs[T any](b Built) T {
	p, err := PortsAs[T](b)
	if err != nil {
		panic(err)
	}
	return p
}

// Mount mounts register under the module prefix with its middleware
func (b Built) Mount(r httpkit.Router, register func(httpkit.Router)) {
	httpkit.MountUnder(r, b.Prefix, b.Mw, func(sub httpkit.Router) {
		register(sub)
		b.Register(sub)
	})
}
