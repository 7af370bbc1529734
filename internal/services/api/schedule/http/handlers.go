// Package http exposes the ping schedule read-only
package http

import (
	"context"
	stdhttp "net/http"
	"strconv"
	"time"

	"tagtime/internal/core/schedule"
	"tagtime/internal/modkit/httpkit"
	perr "tagtime/internal/platform/errors"
	tim "tagtime/internal/platform/time"
	pdom "tagtime/internal/services/pings/domain"
)

// Frontier returns the newest stored ping
type Frontier func(ctx context.Context) (pdom.Ping, error)

// PreviewInput asks for the next n pings after the frontier
type PreviewInput struct {
	N int `json:"n" validate:"required,min=1,max=500" example:"10"`
}

// AtInput asks which ping was the last one scheduled before a time
type AtInput struct {
	Time string `json:"time" validate:"required,max=40" example:"2025-09-03T13:00:00Z"`
}

// PointDTO is a schedule point with a string seed
type PointDTO struct {
	Seed string    `json:"seed" example:"1234"`
	Time time.Time `json:"time"`
}

// ConfigResponse describes the schedule anchor
type ConfigResponse struct {
	Epoch       time.Time `json:"epoch"`
	InitialSeed string    `json:"initial_seed" example:"1234"`
	MeanSeconds float64   `json:"mean_seconds" example:"2700"`
}

type handlers struct {
	sched    *schedule.Schedule
	frontier Frontier
}

// Register mounts the schedule routes
func Register(r httpkit.Router, s *schedule.Schedule, f Frontier) {
	h := &handlers{sched: s, frontier: f}
	httpkit.Get(r, "/config", h.config)
	httpkit.PostJSON[PreviewInput](r, "/preview", h.preview)
	httpkit.PostJSON[AtInput](r, "/at", h.at)
}

func toDTO(p schedule.Point) PointDTO {
	return PointDTO{Seed: strconv.FormatUint(p.Seed, 10), Time: p.Time}
}

// swagger:route GET /schedule/config Schedule scheduleConfig
// @Summary Epoch, initial seed and mean gap of the schedule
// @Tags Schedule
// @Produce json
// @Success 200 {object} ConfigResponse "ok"
// @Router /schedule/config [get]
func (h *handlers) config(_ *stdhttp.Request) (any, error) {
	return ConfigResponse{
		Epoch:       h.sched.Epoch(),
		InitialSeed: strconv.FormatUint(h.sched.InitialSeed(), 10),
		MeanSeconds: h.sched.Clock().Mean().Seconds(),
	}, nil
}

// swagger:route POST /schedule/preview Schedule schedulePreview
// @Summary Next n ping times after the stored frontier
// @Tags Schedule
// @Accept json
// @Produce json
// @Param payload body PreviewInput true "Count"
// @Success 200 {array} PointDTO "ok"
// @Router /schedule/preview [post]
func (h *handlers) preview(r *stdhttp.Request, in PreviewInput) (any, error) {
	last, err := h.frontier(r.Context())
	if err != nil {
		return nil, err
	}
	pts := h.sched.Preview(last.Point(), in.N)
	out := make([]PointDTO, 0, len(pts))
	for _, p := range pts {
		out = append(out, toDTO(p))
	}
	return out, nil
}

// swagger:route POST /schedule/at Schedule scheduleAt
// @Summary Last ping scheduled strictly before a time
// @Tags Schedule
// @Accept json
// @Produce json
// @Param payload body AtInput true "Time"
// @Success 200 {object} PointDTO "ok"
// @Failure 404 {object} httpkit.Envelope "before the epoch"
// @Router /schedule/at [post]
func (h *handlers) at(_ *stdhttp.Request, in AtInput) (any, error) {
	t, err := tim.ParseInstant(in.Time, time.UTC)
	if err != nil {
		return nil, perr.WithField(perr.InvalidArgf("time: %v", err), "time")
	}
	p, err := h.sched.Before(t)
	if err != nil {
		return nil, err
	}
	return toDTO(p), nil
}
