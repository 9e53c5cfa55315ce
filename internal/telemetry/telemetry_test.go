package telemetry

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace/noop"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.False(t, cfg.Enabled)
	assert.Equal(t, "artifactguard", cfg.ServiceName)
	assert.Equal(t, "localhost:4317", cfg.Endpoint)
	assert.True(t, cfg.Insecure)
	assert.Equal(t, 1.0, cfg.SampleRate)
}

func TestInitDisabled(t *testing.T) {
	ctx := context.Background()

	shutdown, err := Init(ctx, DefaultConfig())
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(ctx))
	assert.False(t, IsEnabled())

	_, span := StartCycleSpan(ctx, "run-1")
	assert.False(t, span.SpanContext().IsValid())
	span.End()
}

func TestInitProfilingDisabled(t *testing.T) {
	stop, err := InitProfiling(ProfilingConfig{})
	require.NoError(t, err)
	assert.NoError(t, stop())
	assert.False(t, IsProfilingEnabled())
}

func TestParseProfileType(t *testing.T) {
	_, err := parseProfileType("cpu")
	assert.NoError(t, err)
	_, err = parseProfileType("heap")
	assert.Error(t, err)
}

func TestHelpersWithoutSpan(t *testing.T) {
	ctx := context.Background()

	require.NotPanics(t, func() {
		AddEvent(ctx, "purge.pass_done", Pass(1))
		RecordError(ctx, nil)
		RecordError(ctx, errors.New("probe failed"))
		SetAttributes(ctx, FreeBytes(10))
	})
	assert.Empty(t, TraceID(ctx))
	assert.Empty(t, SpanID(ctx))
}

func TestSpansAreRecorded(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	setTracer(provider.Tracer("test"), true)
	t.Cleanup(func() { setTracer(noop.NewTracerProvider().Tracer(instrumentationName), false) })

	ctx, cycle := StartCycleSpan(context.Background(), "run-7")
	assert.NotEmpty(t, TraceID(ctx))
	assert.NotEmpty(t, SpanID(ctx))

	evictCtx, evict := StartEvictSpan(ctx, "stage-3", Backend("filesystem"))
	RecordError(evictCtx, errors.New("permission denied"))
	evict.End()
	cycle.End()

	spans := rec.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, SpanPurgeEvict, spans[0].Name())
	assert.Equal(t, SpanPurgeCycle, spans[1].Name())
	assert.Equal(t, spans[1].SpanContext().SpanID(), spans[0].Parent().SpanID())
	assert.Contains(t, spans[0].Attributes(), attribute.String(AttrCandidateID, "stage-3"))
	assert.Len(t, spans[0].Events(), 1)
}

func TestAttributeHelpers(t *testing.T) {
	assert.Equal(t, int64(math.MaxInt64), FreeBytes(math.MaxUint64).Value.AsInt64())
	assert.Equal(t, int64(42), RequiredBytes(42).Value.AsInt64())
	assert.Equal(t, AttrUnitsPurged, string(UnitsPurged(3).Key))
	assert.True(t, Exhausted(true).Value.AsBool())
	assert.Equal(t, "artifacts", Bucket("artifacts").Value.AsString())
}
