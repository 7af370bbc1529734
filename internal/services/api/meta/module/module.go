// Package module mounts the meta endpoints
package module

import (
	"time"

	modkit "tagtime/internal/modkit"
	"tagtime/internal/modkit/httpkit"
	metahttp "tagtime/internal/services/api/meta/http"
)

// Module serves health, readiness and service info
type Module struct {
	b    modkit.Built
	deps metahttp.Deps
}

// New constructs the meta module
func New(deps modkit.Deps, opts ...modkit.Option) *Module {
	b := modkit.Build([]modkit.Option{modkit.WithName("meta"), modkit.WithPrefix("/meta")}, opts...)
	return &Module{
		b: b,
		deps: metahttp.Deps{
			ServiceName: "tagtime-api",
			StartedAt:   time.Now(),
			DB:          deps.DB,
			CH:          deps.CH,
		},
	}
}

// MountRoutes implements modkit.Module
func (m *Module) MountRoutes(r httpkit.Router) {
	m.b.Mount(r, func(sub httpkit.Router) { metahttp.Register(sub, m.deps) })
}

// Name implements modkit.Module
func (m *Module) Name() string { return m.b.Name }

// Ports implements modkit.Module; meta exports nothing
func (m *Module) Ports() any { return nil }
