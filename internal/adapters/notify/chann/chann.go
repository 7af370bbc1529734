// Package chann hands due pings to an in-process consumer
package chann

import (
	"context"
	"slices"
	"sync"

	"tagtime/internal/services/prompter/domain"
)

// Notifier keeps the newest undelivered pings in a bounded queue, at most
// one entry per seed
type Notifier struct {
	mu      sync.Mutex
	size    int
	pending []domain.Due
	ready   chan struct{}
}

// New returns a Notifier buffering up to size pings (min 1)
func New(size int) *Notifier {
	return &Notifier{size: max(size, 1), ready: make(chan struct{}, 1)}
}

// Notify never blocks the wake cycle. A seed already waiting is not queued
// twice; when the consumer lags the oldest pending ping is dropped for d
func (n *Notifier) Notify(ctx context.Context, d domain.Due) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if slices.ContainsFunc(n.pending, func(p domain.Due) bool { return p.Seed == d.Seed }) {
		return nil
	}
	if len(n.pending) == n.size {
		n.pending = slices.Delete(n.pending, 0, 1)
	}
	n.pending = append(n.pending, d)
	select {
	case n.ready <- struct{}{}:
	default:
	}
	return nil
}

// Next blocks until a ping is pending or ctx ends
func (n *Notifier) Next(ctx context.Context) (domain.Due, error) {
	for {
		n.mu.Lock()
		if len(n.pending) > 0 {
			d := n.pending[0]
			n.pending = slices.Delete(n.pending, 0, 1)
			n.mu.Unlock()
			return d, nil
		}
		n.mu.Unlock()

		select {
		case <-ctx.Done():
			return domain.Due{}, ctx.Err()
		case <-n.ready:
		}
	}
}

// Len is the number of pings waiting for the consumer
func (n *Notifier) Len() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.pending)
}
