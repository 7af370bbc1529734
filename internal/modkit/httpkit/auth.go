package httpkit

import (
	"crypto/subtle"
	"net/http"
	"path"
	"slices"
	"strings"
	"sync"

	perr "tagtime/internal/platform/errors"
	phttp "tagtime/internal/platform/net/http"
	"tagtime/internal/platform/net/middleware"
)

// TokenFunc resolves a bearer token to its owner and device
type TokenFunc func(token string) (user, device string, err error)

// Port reads the Authorization header and resolves it with a TokenFunc
type Port struct{ parse TokenFunc }

var _ middleware.AuthPort = (*Port)(nil)

// NewPortFunc builds a Port over fn
func NewPortFunc(fn TokenFunc) *Port { return &Port{parse: fn} }

// Parse accepts "Bearer <token>" with any casing of the scheme
func (p *Port) Parse(r *http.Request) (string, string, error) {
	scheme, token, _ := strings.Cut(strings.TrimSpace(r.Header.Get("Authorization")), " ")
	token = strings.TrimSpace(token)
	if !strings.EqualFold(scheme, "bearer") || token == "" {
		return "", "", perr.Unauthorizedf("missing bearer token")
	}
	if p.parse == nil {
		return "", "", perr.Unauthorizedf("invalid bearer token")
	}
	user, dev, err := p.parse(token)
	if err != nil {
		return "", "", perr.Unauthorizedf("invalid bearer token")
	}
	return user, dev, nil
}

// DeviceTokens accepts "device=secret" pairs; each secret authenticates user
// from that device. Malformed pairs are ignored
func DeviceTokens(user string, pairs []string) TokenFunc {
	type cred struct{ dev, secret string }
	var creds []cred
	for _, p := range pairs {
		dev, secret, ok := strings.Cut(strings.TrimSpace(p), "=")
		if ok && dev != "" && secret != "" {
			creds = append(creds, cred{dev: dev, secret: secret})
		}
	}
	return func(token string) (string, string, error) {
		for _, c := range creds {
			if subtle.ConstantTimeCompare([]byte(c.secret), []byte(token)) == 1 {
				return user, c.dev, nil
			}
		}
		return "", "", perr.Unauthorizedf("unknown token")
	}
}

var (
	securedMu sync.Mutex
	secured   []string
)

// SecuredRoutes lists "METHOD /path" for every route mounted through Protected
func SecuredRoutes() []string {
	securedMu.Lock()
	defer securedMu.Unlock()
	return slices.Clone(secured)
}

// Protected mounts fn's routes behind bearer auth and records them
func Protected(r Router, p middleware.AuthPort, fn func(Router)) {
	r.Group(func(g Router) {
		g.Use(Auth(p))
		fn(securedRouter{Router: g, base: path.Join("/", phttp.MountPath(g))})
	})
}

type securedRouter struct {
	Router
	base string
}

func (s securedRouter) mark(method, p string) {
	rt := method + " " + path.Join(s.base, p)
	securedMu.Lock()
	defer securedMu.Unlock()
	if !slices.Contains(secured, rt) {
		secured = append(secured, rt)
	}
}

func (s securedRouter) Get(p string, h Handler) {
	s.mark(http.MethodGet, p)
	s.Router.Get(p, h)
}

func (s securedRouter) Post(p string, h Handler) {
	s.mark(http.MethodPost, p)
	s.Router.Post(p, h)
}

// MountPath keeps phttp.MountPath working through the wrapper
func (s securedRouter) MountPath() string { return s.base }

func (s securedRouter) Group(fn func(Router)) {
	s.Router.Group(func(g Router) { fn(securedRouter{Router: g, base: s.base}) })
}

func (s securedRouter) Route(prefix string, fn func(Router)) {
	s.Router.Route(prefix, func(sub Router) { fn(securedRouter{Router: sub, base: path.Join(s.base, prefix)}) })
}
