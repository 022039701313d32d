package otelhelper

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestStartSpanAndSetError(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	defer func() { _ = provider.Shutdown(context.Background()) }()

	tracer := provider.Tracer("test")

	_, span := StartSpan(t.Context(), tracer, "engine.start_process",
		attribute.String(ProcessIDKey, "proc-1"),
		attribute.String(InstanceIDKey, "inst-1"),
	)
	SetError(span, errors.New("no resolvable assignee"), attribute.String(StepIDKey, "step-1"))
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "engine.start_process", ended[0].Name())
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	assert.Contains(t, ended[0].Attributes(), attribute.String(ProcessIDKey, "proc-1"))
	require.NotEmpty(t, ended[0].Events())
}

func TestTracer_DefaultsToGlobal(t *testing.T) {
	tracer := Tracer("bizflow")

	_, span := StartSpan(t.Context(), tracer, "noop")
	span.End()

	assert.NotNil(t, tracer)
}
