package guardrails

import (
	"context"
	"errors"
	"testing"
	"time"

	"tagtime/internal/platform/store"
	prepo "tagtime/internal/services/pings/repo"
)

func openDB(t *testing.T) *store.Store {
	t.Helper()
	ctx := context.Background()
	st, err := store.Open(ctx, store.Config{Driver: store.DialectSQLite, SQLite: store.SQLiteConfig{Path: store.MemoryPath}})
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { _ = st.Close(ctx) })
	if _, err := store.Migrate(ctx, st.DB, prepo.Migrations); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return st
}

func TestWakeLease_ExcludesSecondOwnerUntilReleased(t *testing.T) {
	st := openDB(t)
	ctx := context.Background()
	now := func() time.Time { return time.Unix(1700000000, 0) }

	a := MakeWakeLease(st.DB, "laptop", time.Minute, now)
	b := MakeWakeLease(st.DB, "phone", time.Minute, now)

	var inner error
	err := a(ctx, func(ctx context.Context) error {
		inner = b(ctx, func(context.Context) error { return nil })
		return nil
	})
	if err != nil {
		t.Fatalf("first claim: %v", err)
	}
	if !errors.Is(inner, ErrLeaseHeld) {
		t.Fatalf("second owner while held: %v", inner)
	}

	ran := false
	if err := b(ctx, func(context.Context) error { ran = true; return nil }); err != nil || !ran {
		t.Fatalf("claim after release: err=%v ran=%v", err, ran)
	}
}

func TestWakeLease_ReclaimsExpired(t *testing.T) {
	st := openDB(t)
	ctx := context.Background()
	t0 := time.Unix(1700000000, 0)

	a := MakeWakeLease(st.DB, "laptop", time.Minute, func() time.Time { return t0 })
	late := MakeWakeLease(st.DB, "phone", time.Minute, func() time.Time { return t0.Add(2 * time.Minute) })

	var inner error
	_ = a(ctx, func(ctx context.Context) error {
		inner = late(ctx, func(context.Context) error { return nil })
		return nil
	})
	if inner != nil {
		t.Fatalf("expired lease should be reclaimed, got %v", inner)
	}
}

func TestWakeLease_PropagatesWorkError(t *testing.T) {
	st := openDB(t)
	boom := errors.New("boom")
	l := MakeWakeLease(st.DB, "laptop", 0, nil)
	if err := l(context.Background(), func(context.Context) error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("want work error, got %v", err)
	}
}
