package envutil

import (
	"testing"
	"time"
)

func TestBool(t *testing.T) {
	cases := []struct {
		raw  string
		def  bool
		want bool
	}{
		{"1", false, true},
		{"true", false, true},
		{"YES", false, true},
		{"on", false, true},
		{"0", true, false},
		{"false", true, false},
		{"off", true, false},
		{"", true, true},
		{"maybe", false, false},
	}
	for _, tc := range cases {
		t.Setenv("TEST_ENVUTIL_BOOL", tc.raw)
		if got := Bool("TEST_ENVUTIL_BOOL", tc.def); got != tc.want {
			t.Fatalf("Bool(%q, %v) = %v, want %v", tc.raw, tc.def, got, tc.want)
		}
	}
}

func TestDurationSec(t *testing.T) {
	def := 10 * time.Second
	cases := []struct {
		raw  string
		want time.Duration
	}{
		{"30", 30 * time.Second},
		{"1", time.Second},
		{"", def},
		{"0", def},
		{"-5", def},
		{"soon", def},
	}
	for _, tc := range cases {
		t.Setenv("TEST_ENVUTIL_DURATION", tc.raw)
		if got := DurationSec("TEST_ENVUTIL_DURATION", def); got != tc.want {
			t.Fatalf("DurationSec(%q) = %v, want %v", tc.raw, got, tc.want)
		}
	}
}
