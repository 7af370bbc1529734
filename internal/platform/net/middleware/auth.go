package middleware

import (
	"net/http"

	pnet "tagtime/internal/platform/net"
)

// AuthPort resolves the caller of a request
type AuthPort interface {
	// Parse returns the owner and the device whose token was presented
	Parse(r *http.Request) (user, device string, err error)
}

// Auth rejects requests p cannot resolve and stores the caller on the context
// a nil port lets every request through
func Auth(p AuthPort, fail ErrorWriter) Middleware {
	return func(next http.Handler) http.Handler {
		if p == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, dev, err := p.Parse(r)
			if err != nil {
				fail(w, r, err)
				return
			}
			ctx := pnet.WithUser(r.Context(), user)
			ctx = pnet.WithRequest(ctx, "", dev)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
