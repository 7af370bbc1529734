// Package module wires up the prompter as a modkit.Module
package module

import (
	"fmt"

	"tagtime/internal/modkit"
	"tagtime/internal/modkit/httpkit"
	modreg "tagtime/internal/modkit/module"

	pmod "tagtime/internal/services/pings/module"
	"tagtime/internal/services/prompter/domain"
	"tagtime/internal/services/prompter/guardrails"
	"tagtime/internal/services/prompter/service"
)

// Ports exported by the prompter module
type Ports struct {
	Prompter domain.PrompterPort
}

// Module implements modkit.Module for the prompter
type Module struct {
	deps  modkit.Deps
	ports Ports
}

// New wires the prompter over the pings module ports
func New(deps modkit.Deps, pings pmod.Ports, notify domain.Notifier, opts Options) (*Module, error) {
	if pings.Store == nil || pings.Schedule == nil {
		return nil, fmt.Errorf("prompter: pings module ports are required")
	}
	if notify == nil {
		return nil, fmt.Errorf("prompter: no notifier configured")
	}

	var lease guardrails.LeaseFunc
	if opts.EnableLeases && deps.DB != nil {
		lease = guardrails.MakeWakeLease(deps.DB, "prompter", opts.LeaseTTL, nil)
	}

	svc := service.New(pings.Store, pings.Schedule, notify, service.Config{
		MaxRetries:   opts.MaxRetries,
		RetryBase:    opts.RetryBase,
		RetryIdle:    opts.RetryIdle,
		MaxSleep:     opts.MaxSleep,
		EnableLeases: lease != nil,
	}, lease)

	return &Module{deps: deps, ports: Ports{Prompter: svc}}, nil
}

// Name returns the module name
func (m *Module) Name() string { return "prompter" }

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }

// Typed returns the ports without the type assertion
func (m *Module) Typed() Ports { return m.ports }

// MountRoutes is a no-op: the prompter has no HTTP routes
func (m *Module) MountRoutes(_ httpkit.Router) {}

// Register convenience: allow others to resolve our ports via registry
func Register(m *Module) {
	modreg.Register("prompter", m.ports)
}
