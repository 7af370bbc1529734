package swaggerkit

import (
	"encoding/json"
	"net/http"
	"strings"

	"tagtime/internal/core/version"
	"tagtime/internal/modkit/httpkit"
	perr "tagtime/internal/platform/errors"
)

// SpecMutator edits the decoded document before it is served
type SpecMutator func(map[string]any)

var mutators []SpecMutator

// apiBase is the server url every documented path is relative to
const apiBase = "/api/v1"

var docReader = skeleton

func skeleton() string {
	info := version.Info()
	raw, _ := json.Marshal(map[string]any{
		"openapi": "3.0.3",
		"info": map[string]any{
			"title":       info.Service,
			"version":     info.Version,
			"description": "random ping time tracker",
		},
		"servers": []any{map[string]any{"url": apiBase}},
		"paths":   map[string]any{},
	})
	return string(raw)
}

// Register adds m to every doc.json served from now on
func Register(m SpecMutator) {
	if m != nil {
		mutators = append(mutators, m)
	}
}

func serveDocJSON() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		var spec map[string]any
		if err := json.Unmarshal([]byte(docReader()), &spec); err != nil {
			http.Error(w, "spec parse error", http.StatusInternalServerError)
			return
		}
		for _, m := range mutators {
			m(spec)
		}
		addErrorResponses(spec)
		addSecuredRoutes(spec, httpkit.SecuredRoutes())

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		_ = json.NewEncoder(w).Encode(spec)
	}
}

// child returns m[key] as an object, creating it when missing
func child(m map[string]any, key string) map[string]any {
	c, ok := m[key].(map[string]any)
	if !ok {
		c = map[string]any{}
		m[key] = c
	}
	return c
}

// eachOperation calls fn for every method object under paths
func eachOperation(spec map[string]any, fn func(op map[string]any)) {
	paths, _ := spec["paths"].(map[string]any)
	for _, item := range paths {
		methods, _ := item.(map[string]any)
		for _, op := range methods {
			if o, ok := op.(map[string]any); ok {
				fn(o)
			}
		}
	}
}

// errorExample is the envelope RespondError writes for code
func errorExample(code perr.ErrorCode, msg string) map[string]any {
	status := perr.HTTPStatusCode(code)
	return map[string]any{
		"description": http.StatusText(status),
		"content": map[string]any{
			"application/json": map[string]any{
				"schema": map[string]any{"$ref": "#/components/schemas/ErrorResponse"},
				"example": map[string]any{
					"status_code": status,
					"status":      http.StatusText(status),
					"code":        code,
					"error":       msg,
					"request_id":  "tagtime/abc-000001",
				},
			},
		},
	}
}

// addErrorResponses declares the error envelope and gives every operation a
// 400 and a 500 unless it already documents them
func addErrorResponses(spec map[string]any) {
	schemas := child(child(spec, "components"), "schemas")
	if _, ok := schemas["ErrorResponse"]; !ok {
		schemas["ErrorResponse"] = map[string]any{
			"type": "object",
			"properties": map[string]any{
				"status_code": map[string]any{"type": "integer"},
				"status":      map[string]any{"type": "string"},
				"code":        map[string]any{"type": "integer"},
				"error":       map[string]any{"type": "string"},
				"request_id":  map[string]any{"type": "string"},
			},
			"required": []any{"status_code", "status"},
		}
	}
	defaults := map[string]any{
		"400": errorExample(perr.ErrorCodeValidation, "seed must be a decimal uint64"),
		"500": errorExample(perr.ErrorCodeUnknown, "internal error"),
	}
	eachOperation(spec, func(op map[string]any) {
		resps := child(op, "responses")
		for status, body := range defaults {
			if _, ok := resps[status]; !ok {
				resps[status] = body
			}
		}
	})
}

// addSecuredRoutes declares the bearer scheme, lists the secured routes and
// marks the matching operations as needing a device token
func addSecuredRoutes(spec map[string]any, routes []string) {
	if len(routes) == 0 {
		return
	}
	child(child(spec, "components"), "securitySchemes")["deviceToken"] = map[string]any{
		"type":   "http",
		"scheme": "bearer",
	}
	spec["x-secured-routes"] = routes

	paths, _ := spec["paths"].(map[string]any)
	for _, rt := range routes {
		method, p, _ := strings.Cut(rt, " ")
		item, _ := paths[strings.TrimPrefix(p, apiBase)].(map[string]any)
		if op, ok := item[strings.ToLower(method)].(map[string]any); ok {
			op["security"] = []any{map[string]any{"deviceToken": []any{}}}
		}
	}
}

// Operations documents each "METHOD /path": summary pair under prefix
func Operations(prefix string, ops map[string]string) SpecMutator {
	return func(spec map[string]any) {
		paths := child(spec, "paths")
		for key, summary := range ops {
			method, p, ok := strings.Cut(key, " ")
			if !ok {
				continue
			}
			child(paths, strings.TrimSuffix(prefix, "/")+p)[strings.ToLower(method)] = map[string]any{
				"summary":   summary,
				"responses": map[string]any{"200": map[string]any{"description": "OK"}},
			}
		}
	}
}
