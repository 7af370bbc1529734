// Package testkit holds helpers shared by package tests
package testkit

import (
	"bytes"
	"sync"
	"testing"
	"time"

	"tagtime/internal/platform/logger"

	"github.com/rs/zerolog"
)

var serial sync.Mutex

// Swap replaces *target for the rest of the test
func Swap[T any](t *testing.T, target *T, replacement T) {
	t.Helper()
	orig := *target
	*target = replacement
	t.Cleanup(func() { *target = orig })
}

// Serial holds a process wide lock until the test ends; use it around
// package level seams and registries
func Serial(t *testing.T) {
	t.Helper()
	serial.Lock()
	t.Cleanup(serial.Unlock)
}

// MustPanic fails the test unless fn panics
func MustPanic(t *testing.T, fn func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Fatalf("expected a panic")
		}
	}()
	fn()
}

// CaptureLogs routes the root logger into a JSON buffer until the test ends
// callers that share the root logger should also hold Serial
func CaptureLogs(t *testing.T) *syncBuffer {
	t.Helper()
	buf := &syncBuffer{}
	l := zerolog.New(buf).Level(zerolog.DebugLevel)
	prev := logger.Replace(&l)
	t.Cleanup(func() { logger.Replace(prev) })
	return buf
}

// Eventually polls cond every 5ms until it holds or within elapses
func Eventually(t *testing.T, within time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(within)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out after %s: %s", within, msg)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
