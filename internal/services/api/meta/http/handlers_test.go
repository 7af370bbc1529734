package http

import (
	stdctx "context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"
	"time"

	"tagtime/internal/modkit/httpkit"
	phttp "tagtime/internal/platform/net/http"

	"github.com/go-chi/chi/v5"
)

type pinger struct{ err error }

func (p pinger) Ping(stdctx.Context) error { return p.err }

func getData[T any](t *testing.T, h http.Handler, path string) T {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("%s status %d", path, rec.Code)
	}
	var env struct {
		Data T `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode %s: %v", path, err)
	}
	return env.Data
}

func mount(d Deps) http.Handler {
	mux := chi.NewRouter()
	Register(phttp.AdaptChi(mux), d)
	return mux
}

func TestReady(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		db   any
		ch   any
		want string
	}{
		{"all ok", pinger{}, pinger{}, "ok"},
		{"no mirror", pinger{}, nil, "ok"},
		{"mirror down", pinger{}, pinger{errors.New("refused")}, "degraded"},
		{"db down", pinger{errors.New("refused")}, pinger{}, "fail"},
		{"no db", nil, nil, "fail"},
		{"db without ping", struct{}{}, nil, "fail"},
	}
	for _, tc := range cases {
		got := getData[ReadyResponse](t, mount(Deps{DB: tc.db, CH: tc.ch}), "/ready")
		if got.Status != tc.want {
			t.Fatalf("%s: status %q, want %q (%+v)", tc.name, got.Status, tc.want, got.Checks)
		}
	}
}

func TestHealthAndService(t *testing.T) {
	t.Parallel()

	started := time.Now().Add(-time.Minute)
	h := mount(Deps{ServiceName: "tagtime-api", StartedAt: started})

	hr := getData[HealthResponse](t, h, "/health")
	if !hr.OK || hr.Service != "tagtime-api" {
		t.Fatalf("health = %+v", hr)
	}
	sr := getData[ServiceResponse](t, h, "/service")
	if sr.Name != "tagtime-api" || sr.Uptime < 59 {
		t.Fatalf("service = %+v", sr)
	}
}

func TestSecured_ListsRoutes(t *testing.T) {
	t.Parallel()

	mux := chi.NewRouter()
	r := phttp.AdaptChi(mux)
	Register(r, Deps{})
	httpkit.Protected(r, nil, func(pr httpkit.Router) {
		httpkit.Post(pr, "/meta-test/answer", func(*http.Request) (any, error) { return nil, nil })
	})

	got := getData[SecuredResponse](t, mux, "/secured")
	if !slices.Contains(got.Routes, "POST /meta-test/answer") {
		t.Fatalf("routes = %v", got.Routes)
	}
}
