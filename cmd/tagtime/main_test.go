package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"tagtime/internal/modkit"
	"tagtime/internal/platform/config"
	perr "tagtime/internal/platform/errors"
	"tagtime/internal/platform/logger"
	"tagtime/internal/platform/store"
	lemod "tagtime/internal/services/logexport/module"
	pmod "tagtime/internal/services/pings/module"
)

func newApp(t *testing.T) (*app, *bytes.Buffer) {
	t.Helper()
	ctx := context.Background()
	st, err := store.Open(ctx, store.Config{Driver: store.DialectSQLite, SQLite: store.SQLiteConfig{Path: store.MemoryPath}})
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { _ = st.Close(context.Background()) })

	deps := modkit.FromStore(logger.Logger{}, config.New(), st)
	pings, err := pmod.New(deps, pmod.Options{Epoch: time.Unix(1335000000, 0), InitialSeed: 1234, Mean: 45 * time.Minute})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := pings.Migrate(ctx); err != nil {
		t.Fatal(err)
	}
	export, err := lemod.New(deps, pings.Typed(), lemod.Options{Location: time.UTC})
	if err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	return &app{pings: pings.Typed(), export: export.Typed(), loc: time.UTC, out: &out}, &out
}

func TestRun_PreviewAnswerLog(t *testing.T) {
	ctx := context.Background()
	a, out := newApp(t)

	if err := a.run(ctx, "preview", []string{"-n", "3"}); err != nil {
		t.Fatalf("preview: %v", err)
	}
	if got := strings.Count(out.String(), "\n"); got != 3 {
		t.Fatalf("preview lines = %d: %q", got, out.String())
	}

	out.Reset()
	if err := a.run(ctx, "answer", []string{"-seed", "1234", "Deep", "Work,email"}); err != nil {
		t.Fatalf("answer: %v", err)
	}
	if out.String() != "1234  deep email work\n" {
		t.Fatalf("answer output = %q", out.String())
	}
	err := a.run(ctx, "answer", []string{"-seed", "1234", "again"})
	if !perr.IsCode(err, perr.ErrorCodeAlreadyAnswered) {
		t.Fatalf("second answer err = %v", err)
	}

	out.Reset()
	if err := a.run(ctx, "log", []string{"-since", "2012-04-21", "-until", "2012-04-22"}); err != nil {
		t.Fatalf("log: %v", err)
	}
	if !strings.HasPrefix(out.String(), "1335000000 deep email work [2012.04.21 09:20:00 Sat]") {
		t.Fatalf("log = %q", out.String())
	}
}

func TestRun_VerifyAndErrors(t *testing.T) {
	ctx := context.Background()
	a, out := newApp(t)

	// preview bootstraps the first ping
	if err := a.run(ctx, "preview", []string{"-n", "1"}); err != nil {
		t.Fatalf("preview: %v", err)
	}
	out.Reset()
	if err := a.run(ctx, "verify", nil); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !strings.HasPrefix(out.String(), "checked 1") {
		t.Fatalf("verify output = %q", out.String())
	}

	for name, args := range map[string][]string{
		"answer": {"-seed", "zero"},
		"log":    {},
		"nope":   {},
	} {
		if err := a.run(ctx, name, args); !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
			t.Fatalf("%s: err = %v", name, err)
		}
	}

	if err := a.run(ctx, "export", []string{"-since", "2012-04-21"}); !perr.IsCode(err, perr.ErrorCodeConfig) {
		t.Fatalf("export without clickhouse err = %v", err)
	}
}
