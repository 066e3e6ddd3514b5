package telemetry

import (
	"context"
	"io"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/gestalt/pkg/config"
	"github.com/matzehuels/gestalt/pkg/observability"
)

func TestInitDisabled(t *testing.T) {
	observability.Reset()
	shutdown, err := Init(context.Background(), config.TelemetryConfig{}, log.New(io.Discard))
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("shutdown: %v", err)
	}
	if _, ok := observability.Pipeline().(observability.NoopPipelineHooks); !ok {
		t.Error("disabled telemetry should not register hooks")
	}
}
