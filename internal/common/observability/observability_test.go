package observability

import (
	"context"
	"testing"
	"time"

	"ev-finance-workers/internal/common/config"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestObservability_RecordsSpansAndMetrics(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	reg := promclient.NewRegistry()

	o := New("ev-finance-workers-test", reg, tp)
	defer o.Shutdown()

	ctx, span := o.StartSpan(context.Background(), "evaluate", attribute.String("policy", "standard"))
	o.RecordJobProcessed(ctx, "evaluate-creditworthiness", "success")
	o.RecordJobDuration(ctx, "evaluate-creditworthiness", 12*time.Millisecond, "success")
	o.RecordEvaluation(ctx, "Approve", "standard")
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "evaluate", spans[0].Name())

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "credit_evaluations_total")
}

func TestNewNoop(t *testing.T) {
	o := NewNoop()
	assert.NotPanics(t, func() {
		_, span := o.StartSpan(context.Background(), "noop")
		span.End()
		o.RecordEvaluation(context.Background(), "Reject", "standard")
		o.Shutdown()
	})
}

func TestNewTracerProvider_Disabled(t *testing.T) {
	tp, err := NewTracerProvider(config.TracingConfig{Enabled: false}, "1.0.0")
	assert.NoError(t, err)
	assert.Nil(t, tp)
}
