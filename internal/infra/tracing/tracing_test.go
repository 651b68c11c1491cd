//go:build !integration

package tracing

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"

	"telegram-automation/internal/config"
)

func TestInit(t *testing.T) {
	ctx := context.Background()

	t.Run("should be a no-op when disabled", func(t *testing.T) {
		shutdown, err := Init(ctx, config.TracingConfig{}, nil)
		if err != nil {
			t.Fatalf("Init: %v", err)
		}
		if err := shutdown(ctx); err != nil {
			t.Fatalf("shutdown: %v", err)
		}
	})

	t.Run("should export spans to the writer", func(t *testing.T) {
		var buf bytes.Buffer
		shutdown, err := Init(ctx, config.TracingConfig{Enabled: true, ServiceName: "tgauto-test"}, &buf)
		if err != nil {
			t.Fatalf("Init: %v", err)
		}
		_, span := otel.Tracer("test").Start(ctx, "task.run")
		span.End()
		if err := shutdown(ctx); err != nil {
			t.Fatalf("shutdown: %v", err)
		}
		out := buf.String()
		if !strings.Contains(out, "task.run") || !strings.Contains(out, "tgauto-test") {
			t.Fatalf("expected exported span, got %q", out)
		}
	})
}
