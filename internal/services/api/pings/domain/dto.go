// Package domain holds DTOs for the pings http and service contracts
package domain

import (
	"context"
	"io"

	pdom "tagtime/internal/services/pings/domain"
)

// RangeInput selects pings with time in [since, until)
// times are unix seconds, RFC3339 or YYYY-MM-DD
type RangeInput struct {
	Since string `json:"since" validate:"required,max=40" example:"2025-09-01"`
	Until string `json:"until,omitempty" validate:"omitempty,max=40" example:"2025-09-08"`
	Limit int    `json:"limit,omitempty" validate:"omitempty,min=1,max=5000" example:"500"`
}

// UnansweredInput lists unanswered pings before a time, default now
type UnansweredInput struct {
	Before string `json:"before,omitempty" validate:"omitempty,max=40" example:"1756900000"`
	Limit  int    `json:"limit,omitempty" validate:"omitempty,min=1,max=500" example:"20"`
}

// SeedInput addresses one ping; seeds are decimal strings since they exceed 2^53
type SeedInput struct {
	Seed string `json:"seed" validate:"required,seed" example:"1234"`
}

// AnswerInput answers a ping; skip leaves it unanswered
type AnswerInput struct {
	Seed string   `json:"seed" validate:"required,seed" example:"1234"`
	Tags []string `json:"tags,omitempty" validate:"required_without=Skip,omitempty,max=32,dive,required,max=200" example:"deep work,email"`
	Skip bool     `json:"skip,omitempty" example:"false"`
}

// AnswerOutput reports what was stored
type AnswerOutput struct {
	Seed     string   `json:"seed" example:"1234"`
	Recorded bool     `json:"recorded" example:"true"`
	Tags     []string `json:"tags" example:"deep_work,email"`
	Device   string   `json:"device,omitempty" example:"phone"`
}

// RepairOutput reports how many missing pings were restored
type RepairOutput struct {
	Inserted int `json:"inserted" example:"3"`
}

// ServicePort is the api surface over the ping log
type ServicePort interface {
	Range(ctx context.Context, in RangeInput) ([]pdom.Ping, error)
	Unanswered(ctx context.Context, in UnansweredInput) ([]pdom.Ping, error)
	Get(ctx context.Context, in SeedInput) (pdom.Ping, error)
	Last(ctx context.Context) (pdom.Ping, error)
	Answer(ctx context.Context, in AnswerInput) (AnswerOutput, error)
	Tags(ctx context.Context) ([]pdom.TagUse, error)
	Verify(ctx context.Context) (pdom.VerifyReport, error)
	Repair(ctx context.Context) (RepairOutput, error)
	WriteLog(ctx context.Context, w io.Writer, in RangeInput) error
}
