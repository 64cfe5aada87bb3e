package services_test

import (
	"errors"
	"strings"
	"testing"

	"autosort/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrMoveFailed, "mover", "copy", "cross-device fallback failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrMoveFailed) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"mover", "copy", "cross-device fallback failed", "boom"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapWithoutCauseOrDetail(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrStore) {
		t.Fatalf("expected default marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "autosort failure") {
		t.Fatalf("expected placeholder detail, got %q", err.Error())
	}
}

func TestKindClassifiesMarkers(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{services.Wrap(services.ErrAlreadyUndone, "history", "undo", "", nil), "already_undone"},
		{services.Wrap(services.ErrSourceMissing, "history", "undo", "", nil), "source_missing"},
		{services.Wrap(services.ErrDestinationOccupied, "mover", "restore", "", nil), "destination_occupied"},
		{services.Wrap(services.ErrWatchSetup, "watch", "add", "", errors.New("enoent")), "watch_setup"},
		{errors.New("plain"), "internal"},
	}
	for _, tc := range tests {
		if got := services.Kind(tc.err); got != tc.want {
			t.Fatalf("Kind(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}
