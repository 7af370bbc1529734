// Package net carries request scoped identity through contexts
package net

import (
	"context"

	"tagtime/internal/platform/logger"

	chimw "github.com/go-chi/chi/v5/middleware"
)

type ctxKey uint8

const (
	keyDevice ctxKey = iota
	keyUser
)

// WithRequest stores the request id and the answering device, mirrored into the logger context
func WithRequest(ctx context.Context, reqID, device string) context.Context {
	if reqID != "" {
		ctx = context.WithValue(ctx, chimw.RequestIDKey, reqID)
	}
	if device != "" {
		ctx = context.WithValue(ctx, keyDevice, device)
	}
	return logger.WithRequest(ctx, reqID, device)
}

// WithUser stores the authenticated owner
func WithUser(ctx context.Context, user string) context.Context {
	if user == "" {
		return ctx
	}
	return context.WithValue(ctx, keyUser, user)
}

// RequestID is the chi request id, or ""
func RequestID(ctx context.Context) string { return chimw.GetReqID(ctx) }

// Device names the device whose token authenticated the request
func Device(ctx context.Context) string {
	s, _ := ctx.Value(keyDevice).(string)
	return s
}

// User is the authenticated owner, or ""
func User(ctx context.Context) string {
	s, _ := ctx.Value(keyUser).(string)
	return s
}
