package chann

import (
	"context"
	"errors"
	"testing"
	"time"

	"tagtime/internal/services/prompter/domain"
)

func TestNotify_KeepsNewestWhenFull(t *testing.T) {
	t.Parallel()

	n := New(2)
	ctx := context.Background()
	for seed := uint64(1); seed <= 4; seed++ {
		if err := n.Notify(ctx, domain.Due{Seed: seed}); err != nil {
			t.Fatalf("Notify(%d): %v", seed, err)
		}
	}
	var got []uint64
	for range 2 {
		d, err := n.Next(ctx)
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		got = append(got, d.Seed)
	}
	if got[0] != 3 || got[1] != 4 {
		t.Fatalf("want the two newest pings, got %v", got)
	}
}

func TestNotify_OneEntryPerSeed(t *testing.T) {
	t.Parallel()

	n := New(8)
	ctx := context.Background()
	for _, seed := range []uint64{5, 5, 6, 5} {
		_ = n.Notify(ctx, domain.Due{Seed: seed})
	}
	if n.Len() != 2 {
		t.Fatalf("pending = %d, want 2", n.Len())
	}
	d, _ := n.Next(ctx)
	if d.Seed != 5 {
		t.Fatalf("first = %d", d.Seed)
	}
	// delivered, so the same seed may be offered again
	_ = n.Notify(ctx, domain.Due{Seed: 5})
	if n.Len() != 2 {
		t.Fatalf("pending = %d after re-offer", n.Len())
	}
}

func TestNext_WaitsForNotify(t *testing.T) {
	t.Parallel()

	n := New(1)
	got := make(chan uint64, 1)
	go func() {
		d, err := n.Next(context.Background())
		if err == nil {
			got <- d.Seed
		}
	}()
	time.Sleep(10 * time.Millisecond)
	_ = n.Notify(context.Background(), domain.Due{Seed: 9})

	select {
	case s := <-got:
		if s != 9 {
			t.Fatalf("seed = %d", s)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Next never returned")
	}
}

func TestCancelledContext(t *testing.T) {
	t.Parallel()

	n := New(0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := n.Notify(ctx, domain.Due{Seed: 1}); !errors.Is(err, context.Canceled) {
		t.Fatalf("Notify err = %v", err)
	}
	if _, err := n.Next(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Next err = %v", err)
	}
}
