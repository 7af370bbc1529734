// Package module mounts the ping log api
package module

import (
	modkit "tagtime/internal/modkit"
	"tagtime/internal/modkit/httpkit"
	"tagtime/internal/platform/net/middleware"
	pingshttp "tagtime/internal/services/api/pings/http"
	pingssvc "tagtime/internal/services/api/pings/service"
	ledom "tagtime/internal/services/logexport/domain"
	pdom "tagtime/internal/services/pings/domain"
)

// Deps are the cross module ports this module needs, passed via modkit.WithPorts
type Deps struct {
	Store    pdom.Store
	Auditor  pdom.Auditor
	Exporter ledom.Exporter
	Auth     middleware.AuthPort
}

// Module serves /pings
type Module struct {
	b    modkit.Built
	auth middleware.AuthPort
	svc  *pingssvc.Svc
}

// New constructs the pings api module; it panics without WithPorts(Deps)
func New(_ modkit.Deps, opts ...modkit.Option) *Module {
	b := modkit.Build([]modkit.Option{modkit.WithName("api.pings"), modkit.WithPrefix("/pings")}, opts...)
	in := modkit.MustPortsAs[Deps](b)
	if in.Store == nil {
		panic("api pings module: Deps.Store is required")
	}
	return &Module{b: b, auth: in.Auth, svc: pingssvc.New(in.Store, in.Auditor, in.Exporter)}
}

// MountRoutes implements modkit.Module
func (m *Module) MountRoutes(r httpkit.Router) {
	m.b.Mount(r, func(sub httpkit.Router) { pingshttp.Register(sub, m.svc, m.auth) })
}

// Name implements modkit.Module
func (m *Module) Name() string { return m.b.Name }

// Ports exposes the api service
func (m *Module) Ports() any { return pingssvc.Service(m.svc) }
