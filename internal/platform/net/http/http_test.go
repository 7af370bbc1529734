package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"tagtime/internal/platform/config"
	perr "tagtime/internal/platform/errors"
	phttp "tagtime/internal/platform/net/http"
)

type seedIn struct {
	Seed string `json:"seed" validate:"required,seed"`
}

func decode(t *testing.T, body io.Reader) phttp.Envelope {
	t.Helper()
	var env phttp.Envelope
	if err := json.NewDecoder(body).Decode(&env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return env
}

func newRouter() (*chi.Mux, phttp.Router) {
	m := chi.NewRouter()
	m.Use(chimw.RequestID)
	return m, phttp.AdaptChi(m)
}

func TestJSONHandler(t *testing.T) {
	t.Parallel()
	m, r := newRouter()
	r.Route("/pings", func(pr phttp.Router) {
		pr.Post("/get", phttp.JSONHandler(func(_ *stdhttp.Request, in seedIn) (any, error) {
			if in.Seed == "99" {
				return nil, perr.NotFoundf("ping %s", in.Seed)
			}
			return map[string]string{"seed": in.Seed}, nil
		}))
	})

	cases := []struct {
		name, body string
		status     int
		code       perr.ErrorCode
	}{
		{"ok", `{"seed":"1234"}`, 200, 0},
		{"not found", `{"seed":"99"}`, 404, perr.ErrorCodeNotFound},
		{"empty body", ``, 400, perr.ErrorCodeJSON},
		{"unknown field", `{"seed":"1","tags":[]}`, 400, perr.ErrorCodeJSON},
		{"bad seed", `{"seed":"-4"}`, 400, perr.ErrorCodeValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			m.ServeHTTP(rec, httptest.NewRequest(stdhttp.MethodPost, "/pings/get", strings.NewReader(tc.body)))
			if rec.Code != tc.status {
				t.Fatalf("status %d want %d: %s", rec.Code, tc.status, rec.Body)
			}
			env := decode(t, rec.Body)
			if env.StatusCode != tc.status || env.Code != tc.code || env.RequestID == "" {
				t.Fatalf("envelope %+v", env)
			}
		})
	}
}

func TestCall_PassesResponseThrough(t *testing.T) {
	t.Parallel()
	m, r := newRouter()
	r.Get("/created", phttp.Call(func(*stdhttp.Request) (any, error) {
		return phttp.Response{Status: stdhttp.StatusCreated, Body: "x"}, nil
	}))
	r.Get("/fail", phttp.Call(func(*stdhttp.Request) (any, error) {
		return nil, errors.New("disk gone")
	}))

	rec := httptest.NewRecorder()
	m.ServeHTTP(rec, httptest.NewRequest(stdhttp.MethodGet, "/created", nil))
	if rec.Code != stdhttp.StatusCreated || decode(t, rec.Body).Data != "x" {
		t.Fatalf("created: %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	m.ServeHTTP(rec, httptest.NewRequest(stdhttp.MethodGet, "/fail", nil))
	if rec.Code != stdhttp.StatusInternalServerError {
		t.Fatalf("plain error should be 500, got %d", rec.Code)
	}
}

func TestText(t *testing.T) {
	t.Parallel()
	rec := httptest.NewRecorder()
	phttp.Text(rec, []byte("1335000000 work [2012.04.21 09:20:00 Sat]\n"))
	if rec.Header().Get("Content-Type") != "text/plain; charset=utf-8" || !strings.HasPrefix(rec.Body.String(), "1335000000") {
		t.Fatalf("text: %v %q", rec.Header(), rec.Body)
	}
}

func TestGroupAndHandle(t *testing.T) {
	t.Parallel()
	m, r := newRouter()
	var hits int
	r.Group(func(g phttp.Router) {
		g.Use(func(next stdhttp.Handler) stdhttp.Handler {
			return stdhttp.HandlerFunc(func(w stdhttp.ResponseWriter, req *stdhttp.Request) {
				hits++
				next.ServeHTTP(w, req)
			})
		})
		g.Handle("/raw", stdhttp.HandlerFunc(func(w stdhttp.ResponseWriter, _ *stdhttp.Request) { w.WriteHeader(204) }))
	})
	r.Get("/open", func(w stdhttp.ResponseWriter, _ *stdhttp.Request) { w.WriteHeader(200) })

	for _, p := range []string{"/raw", "/open"} {
		m.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(stdhttp.MethodGet, p, nil))
	}
	if hits != 1 {
		t.Fatalf("group middleware ran %d times", hits)
	}
}

func TestMountProfiler(t *testing.T) {
	t.Parallel()
	m, r := newRouter()
	phttp.MountProfiler(r, "/debug", true)

	rec := httptest.NewRecorder()
	m.ServeHTTP(rec, httptest.NewRequest(stdhttp.MethodGet, "/debug/pprof/cmdline", nil))
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("pprof cmdline: %d", rec.Code)
	}

	off, ro := newRouter()
	phttp.MountProfiler(ro, "/debug", false)
	rec = httptest.NewRecorder()
	off.ServeHTTP(rec, httptest.NewRequest(stdhttp.MethodGet, "/debug/pprof/cmdline", nil))
	if rec.Code != stdhttp.StatusNotFound {
		t.Fatalf("disabled profiler should 404, got %d", rec.Code)
	}
}

func TestServer_ServeStopsWithContext(t *testing.T) {
	t.Setenv("CORE_API_SHUTDOWN_GRACE", "1s")
	srv := phttp.NewServer(config.New().Prefix("CORE_API_"))
	srv.Router().Get("/ping", func(w stdhttp.ResponseWriter, _ *stdhttp.Request) { _, _ = w.Write([]byte("pong")) })

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	resp, err := stdhttp.Get("http://" + ln.Addr().String() + "/ping")
	if err != nil {
		t.Fatal(err)
	}
	b, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if string(b) != "pong" {
		t.Fatalf("body %q", b)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Serve: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}
	if srv.Addr() != ":4000" {
		t.Fatalf("default addr %q", srv.Addr())
	}
}
