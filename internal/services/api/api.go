// Package api provides the HTTP API for the application
package api

import (
	"sync"

	"tagtime/internal/platform/config"
	"tagtime/internal/platform/logger"
	phttp "tagtime/internal/platform/net/http"
	"tagtime/internal/platform/store"

	"tagtime/internal/modkit"
	"tagtime/internal/modkit/httpkit"
	"tagtime/internal/modkit/module"
	"tagtime/internal/modkit/swaggerkit"

	metamod "tagtime/internal/services/api/meta/module"
	pingsapi "tagtime/internal/services/api/pings/module"
	schedapi "tagtime/internal/services/api/schedule/module"

	lemod "tagtime/internal/services/logexport/module"
	pmod "tagtime/internal/services/pings/module"
)

// Options are the API options
type Options struct {
	Config         config.Conf
	Store          *store.Store
	Logger         *logger.Logger
	EnableSwagger  bool
	EnableProfiler bool

	// Pings and Export are the already migrated domain modules
	Pings  pmod.Ports
	Export lemod.Ports

	// Tokens are "device=secret" pairs allowed to answer pings
	Tokens []string
}

var docsOnce sync.Once

// describe registers the route summaries served in doc.json
func describe() {
	swaggerkit.Register(swaggerkit.Operations("/pings", map[string]string{
		"GET /last":        "Newest stored ping, the schedule frontier",
		"GET /tags":        "Tag usage counts",
		"GET /verify":      "Audit the stored log against the schedule",
		"POST /range":      "Pings in a time window",
		"POST /unanswered": "Due pings still waiting for tags",
		"POST /get":        "One ping by seed",
		"POST /log":        "Classic text log for a window",
		"POST /answer":     "Record tags for a ping or skip it",
		"POST /repair":     "Insert missing schedule points",
	}))
	swaggerkit.Register(swaggerkit.Operations("/meta", map[string]string{
		"GET /health":  "Liveness",
		"GET /ready":   "Readiness of the ping log and the clickhouse mirror",
		"GET /version": "Build info",
		"GET /service": "Uptime and mounted modules",
		"GET /secured": "Routes that need a device token",
	}))
	swaggerkit.Register(swaggerkit.Operations("/schedule", map[string]string{
		"GET /config":   "Schedule parameters",
		"POST /preview": "Upcoming ping times",
		"POST /at":      "Latest scheduled ping before an instant",
	}))
}

// Mount mounts the API service onto the given router
func Mount(r phttp.Router, opt Options) {
	docsOnce.Do(describe)

	deps := modkit.FromStore(logger.Logger{}, opt.Config, opt.Store)
	if opt.Logger != nil {
		deps.Log = *opt.Logger
	}

	if len(opt.Tokens) == 0 {
		deps.Log.Warn().Msg("api: CORE_API_TOKENS is empty; answering pings over http is disabled")
	}
	auth := httpkit.NewPortFunc(httpkit.DeviceTokens("owner", opt.Tokens))

	mods := []modkit.Module{
		metamod.New(deps),
		pingsapi.New(deps, modkit.WithPorts(pingsapi.Deps{
			Store:    opt.Pings.Store,
			Auditor:  opt.Pings.Auditor,
			Exporter: opt.Export.Exporter,
			Auth:     auth,
		})),
		schedapi.New(deps, modkit.WithPorts(opt.Pings)),
	}

	// versioned API with a common middleware stack
	httpkit.MountAPIV1(r, httpkit.CommonStack(), func(api httpkit.Router) {
		// Swagger + profiler
		swaggerkit.Mount(r, opt.EnableSwagger)
		phttp.MountProfiler(r, "/debug", opt.EnableProfiler)

		for _, m := range mods {
			// register each module's ports under its own name (for cross-module lookups)
			module.Register(m.Name(), m.Ports())

			// mount module routes under its Prefix()
			m.MountRoutes(api)
		}
	})
}
