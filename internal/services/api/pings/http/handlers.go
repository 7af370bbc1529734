// Package http provides http transport for the ping log
package http

import (
	"bytes"
	stdhttp "net/http"

	"tagtime/internal/modkit/httpkit"
	pnet "tagtime/internal/platform/net"
	phttp "tagtime/internal/platform/net/http"
	"tagtime/internal/platform/net/http/bind"
	"tagtime/internal/platform/net/middleware"
	"tagtime/internal/services/api/pings/domain"
	svc "tagtime/internal/services/api/pings/service"
)

// Register mounts the ping log routes; answers and repairs need a bearer token
func Register(r httpkit.Router, s svc.Service, auth middleware.AuthPort) {
	h := &handlers{svc: s}

	httpkit.Get(r, "/last", h.last)
	httpkit.Get(r, "/tags", h.tags)
	httpkit.Get(r, "/verify", h.verify)
	httpkit.PostJSON[domain.RangeInput](r, "/range", h.rangeOf)
	httpkit.PostJSON[domain.UnansweredInput](r, "/unanswered", h.unanswered)
	httpkit.PostJSON[domain.SeedInput](r, "/get", h.get)
	r.Post("/log", h.log)

	httpkit.Protected(r, auth, func(pr httpkit.Router) {
		httpkit.PostJSON[domain.AnswerInput](pr, "/answer", h.answer)
		httpkit.Post(pr, "/repair", h.repair)
	})
}

type handlers struct{ svc svc.Service }

// swagger:route GET /pings/last Pings pingsLast
// @Summary Newest stored ping (the schedule frontier)
// @Tags Pings
// @Produce json
// @Success 200 {object} pdom.Ping "ok"
// @Router /pings/last [get]
func (h *handlers) last(r *stdhttp.Request) (any, error) {
	return h.svc.Last(r.Context())
}

// swagger:route GET /pings/tags Pings pingsTags
// @Summary Tag vocabulary with usage counts
// @Tags Pings
// @Produce json
// @Success 200 {array} pdom.TagUse "ok"
// @Router /pings/tags [get]
func (h *handlers) tags(r *stdhttp.Request) (any, error) {
	return h.svc.Tags(r.Context())
}

// swagger:route GET /pings/verify Pings pingsVerify
// @Summary Compare the stored log with the ping schedule
// @Tags Pings
// @Produce json
// @Success 200 {object} pdom.VerifyReport "ok"
// @Router /pings/verify [get]
func (h *handlers) verify(r *stdhttp.Request) (any, error) {
	return h.svc.Verify(r.Context())
}

// swagger:route POST /pings/range Pings pingsRange
// @Summary Pings in [since, until), oldest first
// @Tags Pings
// @Accept json
// @Produce json
// @Param payload body domain.RangeInput true "Window"
// @Success 200 {array} pdom.Ping "ok"
// @Router /pings/range [post]
func (h *handlers) rangeOf(r *stdhttp.Request, in domain.RangeInput) (any, error) {
	return h.svc.Range(r.Context(), in)
}

// swagger:route POST /pings/unanswered Pings pingsUnanswered
// @Summary Pings still waiting for tags, newest first
// @Tags Pings
// @Accept json
// @Produce json
// @Param payload body domain.UnansweredInput true "Query"
// @Success 200 {array} pdom.Ping "ok"
// @Router /pings/unanswered [post]
func (h *handlers) unanswered(r *stdhttp.Request, in domain.UnansweredInput) (any, error) {
	return h.svc.Unanswered(r.Context(), in)
}

// swagger:route POST /pings/get Pings pingsGet
// @Summary One ping with its tags
// @Tags Pings
// @Accept json
// @Produce json
// @Param payload body domain.SeedInput true "Seed"
// @Success 200 {object} pdom.Ping "ok"
// @Failure 404 {object} httpkit.Envelope "not found"
// @Router /pings/get [post]
func (h *handlers) get(r *stdhttp.Request, in domain.SeedInput) (any, error) {
	return h.svc.Get(r.Context(), in)
}

// swagger:route POST /pings/answer Pings pingsAnswer
// @Summary Answer a ping with tags, or skip it
// @Tags Pings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body domain.AnswerInput true "Answer"
// @Success 200 {object} domain.AnswerOutput "ok"
// @Failure 404 {object} httpkit.Envelope "not found"
// @Failure 409 {object} httpkit.Envelope "already answered"
// @Router /pings/answer [post]
func (h *handlers) answer(r *stdhttp.Request, in domain.AnswerInput) (any, error) {
	out, err := h.svc.Answer(r.Context(), in)
	if err != nil {
		return nil, err
	}
	out.Device = pnet.Device(r.Context())
	return out, nil
}

// swagger:route POST /pings/repair Pings pingsRepair
// @Summary Insert scheduled pings missing from the log
// @Tags Pings
// @Produce json
// @Security BearerAuth
// @Success 200 {object} domain.RepairOutput "ok"
// @Router /pings/repair [post]
func (h *handlers) repair(r *stdhttp.Request) (any, error) {
	return h.svc.Repair(r.Context())
}

// swagger:route POST /pings/log Pings pingsLog
// @Summary Classic TagTime log lines for a window
// @Tags Pings
// @Accept json
// @Produce plain
// @Param payload body domain.RangeInput true "Window"
// @Success 200 {string} string "one line per ping"
// @Router /pings/log [post]
func (h *handlers) log(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	in, err := bind.ParseJSON[domain.RangeInput](r)
	if err != nil {
		phttp.RespondError(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := h.svc.WriteLog(r.Context(), &buf, in); err != nil {
		phttp.RespondError(w, r, err)
		return
	}
	phttp.Text(w, buf.Bytes())
}
