package errors

import (
	stderrs "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatusCode(t *testing.T) {
	t.Parallel()
	cases := map[ErrorCode]int{
		ErrorCodeNotFound:        http.StatusNotFound,
		ErrorCodeInvalidArgument: http.StatusUnprocessableEntity,
		ErrorCodeValidation:      http.StatusBadRequest,
		ErrorCodeJSON:            http.StatusBadRequest,
		ErrorCodeAlreadyAnswered: http.StatusConflict,
		ErrorCodeUnauthorized:    http.StatusUnauthorized,
		ErrorCodeUnavailable:     http.StatusServiceUnavailable,
		ErrorCodePanic:           http.StatusInternalServerError,
		ErrorCodeConsistency:     http.StatusInternalServerError,
		ErrorCodeUnknown:         http.StatusInternalServerError,
	}
	for code, want := range cases {
		if got := HTTPStatusCode(code); got != want {
			t.Errorf("%s: got %d want %d", code, got, want)
		}
	}
}

func TestCodeString(t *testing.T) {
	t.Parallel()
	if ErrorCodeAlreadyAnswered.String() != "already_answered" {
		t.Fatalf("got %q", ErrorCodeAlreadyAnswered.String())
	}
	if ErrorCode(999).String() != "code(999)" {
		t.Fatalf("got %q", ErrorCode(999).String())
	}
}

func TestWrapChain(t *testing.T) {
	t.Parallel()
	cause := stderrs.New("disk full")
	err := fmt.Errorf("outer: %w", Wrapf(cause, ErrorCodeUnavailable, "append ping %d", 7))

	if !IsCode(err, ErrorCodeUnavailable) || HTTPStatus(err) != http.StatusServiceUnavailable {
		t.Fatalf("code lost through fmt wrap: %v", CodeOf(err))
	}
	if !stderrs.Is(err, cause) {
		t.Fatal("cause not reachable")
	}
	if got := err.Error(); got != "outer: append ping 7: disk full" {
		t.Fatalf("message %q", got)
	}
	w := WireFrom(err)
	if w.Message != "append ping 7" || w.Code != ErrorCodeUnavailable {
		t.Fatalf("wire leaked cause: %+v", w)
	}
}

func TestWireFrom_Foreign(t *testing.T) {
	t.Parallel()
	if w := WireFrom(stderrs.New("secret dsn")); w.Message != "internal error" || w.Code != ErrorCodeUnknown {
		t.Fatalf("foreign not masked: %+v", w)
	}
	if w := WireFrom(nil); w != (Wire{}) {
		t.Fatalf("nil: %+v", w)
	}
	if IsCode(nil, ErrorCodeUnknown) {
		t.Fatal("nil has no code")
	}
}

func TestWithField(t *testing.T) {
	t.Parallel()
	base := InvalidArgf("bad seed")
	err := WithField(base, "seed")
	if WireFrom(err).Field != "seed" {
		t.Fatalf("field: %+v", WireFrom(err))
	}
	if WireFrom(base).Field != "" {
		t.Fatal("WithField mutated the original")
	}
	plain := stderrs.New("x")
	if WithField(plain, "seed") != plain {
		t.Fatal("foreign error should pass through")
	}
}

func TestErrNotFound_Is(t *testing.T) {
	t.Parallel()
	if !stderrs.Is(fmt.Errorf("get: %w", NotFoundf("not found")), ErrNotFound) {
		t.Fatal("equal code and message should match the sentinel")
	}
	if stderrs.Is(NotFoundf("seed 9 not found"), ErrNotFound) {
		t.Fatal("different message matched")
	}
}

func TestSugar(t *testing.T) {
	t.Parallel()
	cases := []struct {
		err  error
		code ErrorCode
	}{
		{NotFoundf("x"), ErrorCodeNotFound},
		{InvalidArgf("x"), ErrorCodeInvalidArgument},
		{JSONErrf("x"), ErrorCodeJSON},
		{PanicErrf("x"), ErrorCodePanic},
		{Unauthorizedf("x"), ErrorCodeUnauthorized},
		{Unavailablef("x"), ErrorCodeUnavailable},
		{Configf("x"), ErrorCodeConfig},
		{AlreadyAnsweredf("x"), ErrorCodeAlreadyAnswered},
		{Consistencyf("x"), ErrorCodeConsistency},
		{New(ErrorCodeValidation, "x"), ErrorCodeValidation},
	}
	for _, c := range cases {
		if CodeOf(c.err) != c.code {
			t.Errorf("%v: got %s want %s", c.err, CodeOf(c.err), c.code)
		}
	}
}
