// Package observability exposes OpenTelemetry instruments for the dispatch
// queue, exported through the Prometheus registry.
package observability

import (
	"context"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/sdk/metric"
)

const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
	StatusTimedOut  = "timed_out"
)

type Observability struct {
	meterProvider *metric.MeterProvider
	meter         otelmetric.Meter
	taskCounter   otelmetric.Int64Counter
	taskDuration  otelmetric.Float64Histogram
}

// New registers a Prometheus exporter on the default registry. Call it once
// per process; tests should use NewNoop.
func New(serviceName string) *Observability {
	exporter, err := prometheus.New()
	if err != nil {
		log.Printf("Failed to create Prometheus exporter: %v", err)
		return NewNoop()
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	o := fromMeter(provider.Meter(serviceName))
	o.meterProvider = provider
	return o
}

// NewNoop returns instruments that record nothing.
func NewNoop() *Observability {
	return fromMeter(noop.NewMeterProvider().Meter("noop"))
}

func fromMeter(meter otelmetric.Meter) *Observability {
	taskCounter, _ := meter.Int64Counter(
		"dispatch.tasks",
		otelmetric.WithDescription("Number of post-response tasks processed"),
	)

	taskDuration, _ := meter.Float64Histogram(
		"dispatch.task.duration",
		otelmetric.WithDescription("Post-response task duration"),
		otelmetric.WithUnit("ms"),
	)

	return &Observability{
		meter:        meter,
		taskCounter:  taskCounter,
		taskDuration: taskDuration,
	}
}

func (o *Observability) RecordTask(ctx context.Context, name, status string, duration time.Duration) {
	attrs := otelmetric.WithAttributes(
		attribute.String("task", name),
		attribute.String("status", status),
	)
	if o.taskCounter != nil {
		o.taskCounter.Add(ctx, 1, attrs)
	}
	if o.taskDuration != nil {
		o.taskDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
	}
}

func (o *Observability) Shutdown() {
	if o.meterProvider != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = o.meterProvider.Shutdown(ctx)
	}
}
