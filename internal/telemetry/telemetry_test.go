package telemetry

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitTracerExportsSpans(t *testing.T) {
	var buf bytes.Buffer
	shutdown, err := InitTracer("chronosec-test", &buf, nil)
	require.NoError(t, err)

	_, span := Tracer("test").Start(context.Background(), "generate")
	span.End()

	require.NoError(t, shutdown(context.Background()))
	assert.Contains(t, buf.String(), `"Name": "generate"`)
	assert.Contains(t, buf.String(), "chronosec-test")
}
