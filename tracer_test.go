package scopedauth

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
	oteltrace "go.opentelemetry.io/otel/trace"
)

func TestNoopTracer(t *testing.T) {
	ctx := context.Background()
	gotCtx, span := NoopTracer{}.StartSpan(ctx, "test_span")

	assert.Equal(t, ctx, gotCtx)
	assert.IsType(t, NoopSpan{}, span)

	span.SetTag("tag", "value")
	span.RecordError(errors.New("x"))
	span.Finish()
}

func newRecordingTracer(t *testing.T) (*OpenTelemetryTracer, *tracetest.SpanRecorder) {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })
	return NewOpenTelemetryTracer(provider.Tracer("scopedauth-test")), recorder
}

func TestOpenTelemetryTracer(t *testing.T) {
	tracer, recorder := newRecordingTracer(t)

	ctx, parent := tracer.StartSpan(context.Background(), "parent")
	assert.True(t, oteltrace.SpanContextFromContext(ctx).IsValid())

	_, child := tracer.StartSpan(ctx, "child")
	child.SetTag("string", "value")
	child.SetTag("bool", true)
	child.SetTag("int", 7)
	child.SetTag("other", 1.5)
	child.RecordError(errors.New("failed"))
	child.RecordError(nil)
	child.Finish()
	parent.Finish()

	ended := recorder.Ended()
	require.Len(t, ended, 2)

	childSpan := ended[0]
	assert.Equal(t, "child", childSpan.Name())
	assert.Equal(t, ended[1].SpanContext().SpanID(), childSpan.Parent().SpanID())
	assert.Contains(t, childSpan.Attributes(), attribute.String("string", "value"))
	assert.Contains(t, childSpan.Attributes(), attribute.Bool("bool", true))
	assert.Contains(t, childSpan.Attributes(), attribute.Int("int", 7))
	assert.Contains(t, childSpan.Attributes(), attribute.String("other", "1.5"))
	assert.Equal(t, codes.Error, childSpan.Status().Code)
	assert.Len(t, childSpan.Events(), 1)
}
