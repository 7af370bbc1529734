// Package module mounts the schedule endpoints
package module

import (
	modkit "tagtime/internal/modkit"
	"tagtime/internal/modkit/httpkit"
	schedhttp "tagtime/internal/services/api/schedule/http"
	pmod "tagtime/internal/services/pings/module"
)

// Module serves /schedule
type Module struct {
	b     modkit.Built
	ports pmod.Ports
}

// New constructs the schedule module; it panics without WithPorts(pings module Ports)
func New(_ modkit.Deps, opts ...modkit.Option) *Module {
	b := modkit.Build([]modkit.Option{modkit.WithName("api.schedule"), modkit.WithPrefix("/schedule")}, opts...)
	ports := modkit.MustPortsAs[pmod.Ports](b)
	if ports.Schedule == nil || ports.Store == nil {
		panic("api schedule module: pings Ports need Schedule and Store")
	}
	return &Module{b: b, ports: ports}
}

// MountRoutes implements modkit.Module
func (m *Module) MountRoutes(r httpkit.Router) {
	m.b.Mount(r, func(sub httpkit.Router) {
		schedhttp.Register(sub, m.ports.Schedule, m.ports.Store.LastPing)
	})
}

// Name implements modkit.Module
func (m *Module) Name() string { return m.b.Name }

// Ports implements modkit.Module
func (m *Module) Ports() any { return nil }
