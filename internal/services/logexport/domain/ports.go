// Package domain defines the ping log export ports
package domain

import (
	"context"
	"io"
	"time"

	pdom "tagtime/internal/services/pings/domain"
)

// Exporter writes the stored log out for reporting tools
type Exporter interface {
	// WriteLog writes pings in [since, until) as classic TagTime log lines
	WriteLog(ctx context.Context, w io.Writer, since, until time.Time) (int, error)

	// ExportRange mirrors pings in [since, until) into the analytics sink
	ExportRange(ctx context.Context, since, until time.Time) (int, error)
}

// MirrorRepo is the analytics side of the export
type MirrorRepo interface {
	EnsureSchema(ctx context.Context) error
	Upsert(ctx context.Context, ps []pdom.Ping, at time.Time) error
}
