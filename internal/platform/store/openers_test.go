package store

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"tagtime/internal/platform/testkit"

	"github.com/rs/zerolog"
)

func instant(t *testing.T) *[]time.Duration {
	t.Helper()
	var pauses []time.Duration
	testkit.Swap(t, &after, func(d time.Duration) <-chan time.Time {
		pauses = append(pauses, d)
		ch := make(chan time.Time, 1)
		ch <- time.Time{}
		return ch
	})
	return &pauses
}

func TestWaitReady_RetriesWithBackoff(t *testing.T) {
	testkit.Serial(t)
	pauses := instant(t)

	calls := 0
	ping := func(ctx context.Context) error {
		calls++
		if _, ok := ctx.Deadline(); !ok {
			t.Fatalf("ping without deadline")
		}
		if calls < 6 {
			return errors.New("starting up")
		}
		return nil
	}
	if err := waitReady(context.Background(), zerolog.New(io.Discard), ping, 0, 0); err != nil {
		t.Fatalf("waitReady: %v", err)
	}
	want := []time.Duration{150 * time.Millisecond, 300 * time.Millisecond, 600 * time.Millisecond, 1200 * time.Millisecond, 2 * time.Second}
	if len(*pauses) != len(want) {
		t.Fatalf("pauses = %v", *pauses)
	}
	for i, d := range want {
		if (*pauses)[i] != d {
			t.Fatalf("pause %d = %v, want %v", i, (*pauses)[i], d)
		}
	}
}

func TestWaitReady_GivesUp(t *testing.T) {
	testkit.Serial(t)
	instant(t)

	down := errors.New("refused")
	err := waitReady(context.Background(), zerolog.New(io.Discard), func(context.Context) error { return down }, 3, time.Second)
	if !errors.Is(err, down) || !strings.Contains(err.Error(), "3 attempts") {
		t.Fatalf("err = %v", err)
	}
}

func TestWaitReady_Canceled(t *testing.T) {
	testkit.Serial(t)
	testkit.Swap(t, &after, func(time.Duration) <-chan time.Time { return nil })

	ctx, cancel := context.WithCancel(context.Background())
	err := waitReady(ctx, zerolog.New(io.Discard), func(context.Context) error {
		cancel()
		return errors.New("refused")
	}, 5, time.Second)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
}
