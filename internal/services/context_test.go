package services_test

import (
	"context"
	"testing"

	"autosort/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithPendingID(ctx, "abc")
	ctx = services.WithRequestID(ctx, "req-123")

	if id, ok := services.PendingIDFromContext(ctx); !ok || id != "abc" {
		t.Fatalf("unexpected pending id: %v %v", id, ok)
	}
	if rid, ok := services.RequestIDFromContext(ctx); !ok || rid != "req-123" {
		t.Fatalf("unexpected request id: %v %v", rid, ok)
	}
}

func TestBlankValuesPreserveContext(t *testing.T) {
	ctx := context.Background()
	if got := services.WithPendingID(ctx, ""); got != ctx {
		t.Fatal("expected blank pending id to return the same context")
	}
	if _, ok := services.RequestIDFromContext(services.WithRequestID(ctx, "")); ok {
		t.Fatal("expected no request id")
	}
}
