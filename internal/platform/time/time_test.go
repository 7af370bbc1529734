package time

import (
	"testing"
	"time"
)

func TestPtr(t *testing.T) {
	t.Parallel()

	if Ptr(time.Time{}) != nil {
		t.Fatalf("zero time should be nil")
	}
	now := time.Unix(5, 0)
	if p := Ptr(now); p == nil || !p.Equal(now) {
		t.Fatalf("Ptr(%v) = %v", now, p)
	}
}

func TestParseInstant(t *testing.T) {
	t.Parallel()

	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("no tzdata: %v", err)
	}
	cases := []struct {
		in   string
		loc  *time.Location
		want int64
	}{
		{"1335000000", nil, 1335000000},
		{" 2012-04-21T09:20:00Z ", nil, 1335000000},
		{"2012-04-21 09:20:00", nil, 1335000000},
		{"2012-04-21", nil, 1334966400},
		{"2012-04-21", ny, 1334980800},
	}
	for _, c := range cases {
		got, err := ParseInstant(c.in, c.loc)
		if err != nil || got.Unix() != c.want {
			t.Fatalf("ParseInstant(%q) = %v (%d), %v; want %d", c.in, got, got.Unix(), err, c.want)
		}
	}
	for _, bad := range []string{"", "yesterday", "2012/04/21"} {
		if _, err := ParseInstant(bad, nil); err == nil {
			t.Fatalf("ParseInstant(%q) should fail", bad)
		}
	}
}
