package middleware

import "net/http"

// ErrorWriter renders err as the api error envelope
type ErrorWriter func(w http.ResponseWriter, r *http.Request, err error)
