package middleware

import (
	"net/http"
	"runtime/debug"

	perr "tagtime/internal/platform/errors"
	"tagtime/internal/platform/logger"
)

// Recover turns a handler panic into a logged 500 written by fail
func Recover(fail ErrorWriter) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				v := recover()
				if v == nil {
					return
				}
				if v == http.ErrAbortHandler {
					panic(v)
				}
				logger.C(r.Context()).Error().
					Interface("panic", v).
					Bytes("stack", debug.Stack()).
					Str("path", r.URL.Path).
					Msg("http: panic recovered")
				fail(w, r, perr.PanicErrf("internal error"))
			}()
			next.ServeHTTP(w, r)
		})
	}
}
