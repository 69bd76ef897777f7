package tracing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// useRecorder 安装内存Span记录器，测试结束后恢复原Provider
func useRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))

	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})
	return rec
}

// TestInitTracer exporter惰性连接，无需启动collector
func TestInitTracer(t *testing.T) {
	prev := otel.GetTracerProvider()
	defer otel.SetTracerProvider(prev)

	shutdown, err := InitTracer(Config{ServiceName: "test-service", Endpoint: "localhost:4317", SampleRatio: 0.5})
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	_ = shutdown(context.Background())
}

func TestStartSpan_ChildSharesTraceID(t *testing.T) {
	useRecorder(t)

	ctx, root := StartSpan(context.Background(), "test", "Root")
	defer root.End()
	ctx, child := StartSpan(ctx, "test", "Child")
	defer child.End()

	assert.Equal(t, root.SpanContext().TraceID(), child.SpanContext().TraceID())
	assert.NotEqual(t, root.SpanContext().SpanID(), child.SpanContext().SpanID())
	assert.Equal(t, child.SpanContext().TraceID().String(), ExtractTraceID(ctx))
	assert.Len(t, ExtractSpanID(ctx), 16)
}

func TestEndSpan_SetsStatus(t *testing.T) {
	rec := useRecorder(t)

	_, ok := StartSpan(context.Background(), "test", "Ok")
	EndSpan(ok, nil)
	_, failed := StartSpan(context.Background(), "test", "Failed")
	EndSpan(failed, errors.New("库存不足"))

	ended := rec.Ended()
	require.Len(t, ended, 2)
	assert.Equal(t, codes.Ok, ended[0].Status().Code)
	assert.Equal(t, codes.Error, ended[1].Status().Code)
	assert.Equal(t, "库存不足", ended[1].Status().Description)
}

func TestExtract_NoSpan(t *testing.T) {
	assert.Empty(t, ExtractTraceID(context.Background()))
	assert.Empty(t, ExtractSpanID(context.Background()))
}
