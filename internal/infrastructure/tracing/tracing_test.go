package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitTracer_Disabled(t *testing.T) {
	shutdown, err := InitTracer(Config{Enabled: false, Exporter: "bogus"})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestInitTracer_UnsupportedExporter(t *testing.T) {
	_, err := InitTracer(Config{Enabled: true, Exporter: "zipkin"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "zipkin")
}

func TestNewExporter(t *testing.T) {
	for _, exporter := range []string{ExporterOTLP, ExporterJaeger} {
		t.Run(exporter, func(t *testing.T) {
			exp, err := newExporter(Config{Exporter: exporter, Endpoint: "http://localhost:4318/v1/traces"})
			require.NoError(t, err)
			assert.NoError(t, exp.Shutdown(context.Background()))
		})
	}
}
