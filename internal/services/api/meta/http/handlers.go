// Package http serves the meta endpoints: liveness, readiness, build and
// service info
package http

import (
	"context"
	"net/http"
	"time"

	"tagtime/internal/core/version"
	"tagtime/internal/modkit/httpkit"
	modreg "tagtime/internal/modkit/module"
)

// Pinger is a backend that can report readiness
type Pinger interface {
	Ping(context.Context) error
}

// Deps are what the meta endpoints report on. DB and CH are probed when
// they implement Pinger
type Deps struct {
	ServiceName string
	StartedAt   time.Time
	DB          any
	CH          any
}

// HealthResponse says the process is up
type HealthResponse struct {
	OK      bool   `json:"ok"`
	Service string `json:"service"`
	Started string `json:"started"`
	Now     string `json:"now"`
}

// ReadyCheck is one probed backend; Status is ok, fail, skipped or unknown
type ReadyCheck struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// ReadyResponse is ok, degraded when only the clickhouse mirror is down, or fail
type ReadyResponse struct {
	Status string       `json:"status"`
	Checks []ReadyCheck `json:"checks"`
	Now    string       `json:"now"`
}

// ServiceResponse is uptime plus the mounted modules
type ServiceResponse struct {
	Name    string   `json:"name"`
	Started string   `json:"started"`
	Uptime  int64    `json:"uptime"`
	Modules []string `json:"modules"`
}

// SecuredResponse lists "METHOD /path" for every route behind a device token
type SecuredResponse struct {
	Routes []string `json:"routes"`
}

const readyTimeout = 2 * time.Second

type handlers struct {
	Deps
	now func() time.Time
}

// Register mounts the meta routes on r
func Register(r httpkit.Router, d Deps) {
	h := &handlers{Deps: d, now: time.Now}
	httpkit.Get(r, "/health", h.health)
	httpkit.Get(r, "/ready", h.ready)
	httpkit.Get(r, "/version", func(*http.Request) (any, error) { return version.Info(), nil })
	httpkit.Get(r, "/service", h.service)
	httpkit.Get(r, "/secured", func(*http.Request) (any, error) {
		return SecuredResponse{Routes: httpkit.SecuredRoutes()}, nil
	})
}

func stamp(t time.Time) string { return t.UTC().Format(time.RFC3339) }

func (h *handlers) health(*http.Request) (any, error) {
	return HealthResponse{OK: true, Service: h.ServiceName, Started: stamp(h.StartedAt), Now: stamp(h.now())}, nil
}

func probe(ctx context.Context, name string, backend any) ReadyCheck {
	c := ReadyCheck{Name: name, Status: "unknown"}
	switch p := backend.(type) {
	case nil:
		c.Status = "skipped"
	case Pinger:
		c.Status = "ok"
		if err := p.Ping(ctx); err != nil {
			c.Status, c.Error = "fail", err.Error()
		}
	}
	return c
}

// ready fails without a working ping log; a broken mirror only degrades
func (h *handlers) ready(r *http.Request) (any, error) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	db, ch := probe(ctx, "db", h.DB), probe(ctx, "ch", h.CH)
	status := "ok"
	if db.Status != "ok" {
		status = "fail"
	} else if ch.Status == "fail" {
		status = "degraded"
	}
	return ReadyResponse{Status: status, Checks: []ReadyCheck{db, ch}, Now: stamp(h.now())}, nil
}

func (h *handlers) service(*http.Request) (any, error) {
	return ServiceResponse{
		Name:    h.ServiceName,
		Started: stamp(h.StartedAt),
		Uptime:  int64(h.now().Sub(h.StartedAt) / time.Second),
		Modules: modreg.Names(),
	}, nil
}
