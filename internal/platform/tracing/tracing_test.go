package tracing

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestSetup(t *testing.T) {
	ctx := context.Background()

	t.Run("none keeps the no-op provider", func(t *testing.T) {
		shutdown, err := Setup(ctx, Config{Exporter: ExporterNone})
		require.NoError(t, err)
		assert.NoError(t, shutdown(ctx))
	})

	t.Run("unknown exporter", func(t *testing.T) {
		_, err := Setup(ctx, Config{Exporter: "jaeger"})
		assert.Error(t, err)
	})

	t.Run("stdout exports spans on shutdown", func(t *testing.T) {
		var buf bytes.Buffer
		shutdown, err := Setup(ctx, Config{Exporter: ExporterStdout, SampleRatio: 1, Writer: &buf})
		require.NoError(t, err)

		_, span := otel.Tracer("phasegarden/test").Start(ctx, "fulfillment.fulfill")
		span.End()

		require.NoError(t, shutdown(ctx))
		assert.Contains(t, buf.String(), "fulfillment.fulfill")
		assert.Contains(t, buf.String(), "phasegarden")
	})
}
