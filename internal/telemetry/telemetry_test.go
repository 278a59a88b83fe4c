package telemetry

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

	"github.com/marmos91/dittoacl/internal/logger"
)

// recordSpans installs an in-memory recorder for the duration of the test.
func recordSpans(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	UseTracerProvider(tp)
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		mu.Lock()
		tracer, enabled = nil, false
		mu.Unlock()
	})
	return sr
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.False(t, cfg.Enabled)
	assert.Equal(t, "dittoacl", cfg.ServiceName)
	assert.Equal(t, "localhost:4317", cfg.Endpoint)
	assert.True(t, cfg.Insecure)
	assert.Equal(t, 1.0, cfg.SampleRate)

	prof := DefaultProfilingConfig()
	assert.False(t, prof.Enabled)
	assert.Equal(t, []string{"cpu", "alloc_space", "inuse_space"}, prof.ProfileTypes)
}

func TestInitDisabled(t *testing.T) {
	ctx := context.Background()
	shutdown, err := Init(ctx, DefaultConfig())
	require.NoError(t, err)
	assert.NoError(t, shutdown(ctx))
	assert.False(t, IsEnabled())

	_, span := StartSpan(ctx, "noop")
	assert.False(t, span.SpanContext().IsValid())
	span.End()
}

func TestStartOperationSpan(t *testing.T) {
	sr := recordSpans(t)

	ctx, span := StartOperationSpan(context.Background(), SpanSetACL, "/mnt/tank/share", Entries(3))
	lc := logger.FromContext(ctx)
	require.NotNil(t, lc)
	assert.Equal(t, TraceID(ctx), lc.TraceID)
	assert.Equal(t, SpanID(ctx), lc.SpanID)
	End(span, nil)

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, SpanSetACL, spans[0].Name())
	assert.Contains(t, spans[0].Attributes(), attribute.String(AttrPath, "/mnt/tank/share"))
	assert.Contains(t, spans[0].Attributes(), attribute.Int(AttrEntries, 3))
	assert.Equal(t, codes.Ok, spans[0].Status().Code)
}

func TestEnd_RecordsError(t *testing.T) {
	sr := recordSpans(t)

	_, span := StartSpan(context.Background(), SpanHelperPropagate)
	End(span, errors.New("helper exited 3"))

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "helper exited 3", spans[0].Status().Description)
	require.Len(t, spans[0].Events(), 1)
}

func TestRecordError_Nil(t *testing.T) {
	require.NotPanics(t, func() {
		RecordError(context.Background(), nil)
		AddEvent(context.Background(), "event")
	})
	assert.Empty(t, TraceID(context.Background()))
	assert.Empty(t, SpanID(context.Background()))
}

func TestAttributeHelpers(t *testing.T) {
	tests := []struct {
		attr attribute.KeyValue
		key  string
		want string
	}{
		{Mode(0o755), AttrMode, "0755"},
		{Template("HOME"), AttrTemplate, "HOME"},
		{Action("clone"), AttrAction, "clone"},
		{Lock("perm_change"), AttrLock, "perm_change"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, attribute.Key(tt.key), tt.attr.Key)
			assert.Equal(t, tt.want, tt.attr.Value.AsString())
		})
	}
	assert.Equal(t, int64(-1), UID(-1).Value.AsInt64())
}

func TestParseProfileType(t *testing.T) {
	_, err := parseProfileType("cpu")
	assert.NoError(t, err)
	_, err = parseProfileType("heap")
	assert.Error(t, err)

	assert.Contains(t, ProfileTypeNames(), "mutex_duration")
	assert.NoError(t, ValidateProfileTypes(DefaultProfilingConfig().ProfileTypes))
	assert.EqualError(t, ValidateProfileTypes([]string{"cpu", "heap"}), `invalid profile type "heap"`)

	shutdown, err := InitProfiling(ProfilingConfig{Enabled: false})
	require.NoError(t, err)
	assert.NoError(t, shutdown())
	assert.False(t, IsProfilingEnabled())

	_, err = InitProfiling(ProfilingConfig{Enabled: true, ProfileTypes: []string{"heap"}})
	assert.Error(t, err)
}
