package services_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"vidbits/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "encode", "ffmpeg", "failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"encode", "ffmpeg", "failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "run failure") {
		t.Fatalf("expected fallback detail, got %q", err.Error())
	}
}

func TestExitCodeMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{err: nil, want: services.ExitOK},
		{err: services.Wrap(services.ErrValidation, "plan", "", "bad capacity", nil), want: services.ExitUsage},
		{err: services.Wrap(services.ErrConfiguration, "config", "load", "", nil), want: services.ExitConfiguration},
		{err: services.Wrap(services.ErrExternalTool, "decode", "ffprobe", "", nil), want: services.ExitExternalTool},
		{err: fmt.Errorf("outer: %w", services.Wrap(services.ErrNotFound, "decode", "", "missing", nil)), want: services.ExitNotFound},
		{err: errors.New("plain"), want: services.ExitFailure},
	}
	for _, tc := range cases {
		if got := services.ExitCode(tc.err); got != tc.want {
			t.Fatalf("ExitCode(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}
