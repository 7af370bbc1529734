// Package module wires up the ping log as a modkit.Module
package module

import (
	"context"
	"fmt"

	"tagtime/internal/core/schedule"
	"tagtime/internal/modkit"
	"tagtime/internal/modkit/httpkit"
	modreg "tagtime/internal/modkit/module"
	"tagtime/internal/modkit/repokit"
	"tagtime/internal/platform/store"

	pdom "tagtime/internal/services/pings/domain"
	prepo "tagtime/internal/services/pings/repo"
	psvc "tagtime/internal/services/pings/service"
)

// Ports exported by the pings module
type Ports struct {
	Store    pdom.Store
	Auditor  pdom.Auditor
	Schedule *schedule.Schedule
}

// Module implements modkit.Module for the ping log
type Module struct {
	deps  modkit.Deps
	ports Ports
}

// New constructs and wires the pings module
func New(deps modkit.Deps, opts Options) (*Module, error) {
	if deps.DB == nil {
		return nil, fmt.Errorf("pings: no database configured")
	}
	sched, err := opts.Schedule()
	if err != nil {
		return nil, err
	}

	db := deps.DB
	if deps.Dialect == store.DialectPostgres && opts.LockTimeout > 0 {
		db = repokit.WithBeginHooks(db, lockTimeout(opts.LockTimeout.Milliseconds()))
	}

	svc := psvc.New(db, prepo.NewSQL(), sched)
	return &Module{
		deps:  deps,
		ports: Ports{Store: svc, Auditor: svc, Schedule: sched},
	}, nil
}

// lockTimeout bounds lock waits for the current postgres transaction only
func lockTimeout(ms int64) repokit.BeginHook {
	return func(ctx context.Context, q repokit.Queryer) error {
		_, err := q.Exec(ctx, fmt.Sprintf("SET LOCAL lock_timeout = %d", ms))
		return err
	}
}

// Migrate brings the ping log schema up to date
func (m *Module) Migrate(ctx context.Context) (int, error) {
	return store.Migrate(ctx, m.deps.DB, prepo.Migrations)
}

// Name returns the module name
func (m *Module) Name() string { return "pings" }

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }

// Typed returns the ports without the type assertion
func (m *Module) Typed() Ports { return m.ports }

// MountRoutes is a no-op; the api module owns the routes
func (m *Module) MountRoutes(_ httpkit.Router) {}

// Register convenience: allow others to resolve our ports via registry
func Register(m *Module) {
	modreg.Register("pings", m.ports)
}
