// Package module wires the log exporter as a modkit.Module
package module

import (
	"fmt"
	"time"

	"tagtime/internal/modkit"
	"tagtime/internal/modkit/httpkit"
	modreg "tagtime/internal/modkit/module"
	"tagtime/internal/platform/config"

	ledom "tagtime/internal/services/logexport/domain"
	lerepo "tagtime/internal/services/logexport/repo"
	"tagtime/internal/services/logexport/service"
	pmod "tagtime/internal/services/pings/module"
)

// Options for the exporter
type Options struct {
	Location *time.Location
	PageSize int
}

// FromConfig fills options from environment
// TAGTIME_LOG_TZ (default local zone) renders the bracketed stamp of log lines
// CORE_LOGEXPORT_PAGE_SIZE (default 1000) bounds each read from the ping log
func FromConfig(cfg config.Conf) (Options, error) {
	o := Options{PageSize: cfg.Prefix("CORE_LOGEXPORT_").MayInt("PAGE_SIZE", 1000)}
	loc, err := cfg.Prefix("TAGTIME_LOG_").MayLocation("TZ")
	if err != nil {
		return o, fmt.Errorf("logexport: %w", err)
	}
	o.Location = loc
	return o, nil
}

// Ports exported by the module
type Ports struct {
	Exporter ledom.Exporter
}

// Module implements modkit.Module for the exporter
type Module struct {
	deps  modkit.Deps
	ports Ports
}

// New wires the exporter; the ClickHouse mirror is enabled when deps.CH is set
func New(deps modkit.Deps, pings pmod.Ports, opts Options) (*Module, error) {
	if pings.Store == nil {
		return nil, fmt.Errorf("logexport: pings module ports are required")
	}
	var mirror ledom.MirrorRepo
	if deps.HasAnalytics() {
		mirror = lerepo.NewCH(deps.CH)
	}
	svc := service.New(pings.Store, mirror, service.Config{Location: opts.Location, PageSize: opts.PageSize})
	return &Module{deps: deps, ports: Ports{Exporter: svc}}, nil
}

// Name returns the module name
func (m *Module) Name() string { return "logexport" }

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }

// Typed returns the ports without the type assertion
func (m *Module) Typed() Ports { return m.ports }

// MountRoutes is a no-op; the api module serves the log
func (m *Module) MountRoutes(_ httpkit.Router) {}

// Register convenience: allow others to resolve our ports via registry
func Register(m *Module) {
	modreg.Register("logexport", m.ports)
}
