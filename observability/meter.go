package observability

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

func initMeter(ctx context.Context, cfg Config, res *resource.Resource) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}
	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("observability: metric exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(cfg.MetricInterval))),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)
	return mp, nil
}

// Meter returns the vidscribe meter from the global provider.
func Meter() metric.Meter {
	return otel.Meter(tracerName)
}

// Metrics holds the vidscribe metric instruments.
type Metrics struct {
	operationTotal    metric.Int64Counter
	operationDuration metric.Float64Histogram
	errorTotal        metric.Int64Counter
	jobsActive        metric.Int64UpDownCounter
	jobsTotal         metric.Int64Counter
	requestTotal      metric.Int64Counter
	requestDuration   metric.Float64Histogram
}

// NewMetrics creates the instruments on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	var (
		m   Metrics
		err error
	)
	if m.operationTotal, err = meter.Int64Counter("vidscribe.operation.total",
		metric.WithDescription("Provider executions by component, operation and status")); err != nil {
		return nil, fmt.Errorf("creating operation.total: %w", err)
	}
	if m.operationDuration, err = meter.Float64Histogram("vidscribe.operation.duration",
		metric.WithDescription("Provider execution duration"), metric.WithUnit("s")); err != nil {
		return nil, fmt.Errorf("creating operation.duration: %w", err)
	}
	if m.errorTotal, err = meter.Int64Counter("vidscribe.error.total",
		metric.WithDescription("Errors by type and component")); err != nil {
		return nil, fmt.Errorf("creating error.total: %w", err)
	}
	if m.jobsActive, err = meter.Int64UpDownCounter("vidscribe.jobs.active",
		metric.WithDescription("Pipeline jobs currently running")); err != nil {
		return nil, fmt.Errorf("creating jobs.active: %w", err)
	}
	if m.jobsTotal, err = meter.Int64Counter("vidscribe.jobs.total",
		metric.WithDescription("Finished pipeline jobs by terminal state and reason")); err != nil {
		return nil, fmt.Errorf("creating jobs.total: %w", err)
	}
	if m.requestTotal, err = meter.Int64Counter("vidscribe.http.requests",
		metric.WithDescription("HTTP requests by method, route and status")); err != nil {
		return nil, fmt.Errorf("creating http.requests: %w", err)
	}
	if m.requestDuration, err = meter.Float64Histogram("vidscribe.http.duration",
		metric.WithDescription("HTTP request duration"), metric.WithUnit("s")); err != nil {
		return nil, fmt.Errorf("creating http.duration: %w", err)
	}
	return &m, nil
}

// RecordOperation records one provider execution.
func (m *Metrics) RecordOperation(ctx context.Context, component, operation, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.operationTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("component", component),
		attribute.String("operation", operation),
		attribute.String("status", status),
	))
	m.operationDuration.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String("component", component),
		attribute.String("operation", operation),
	))
}

// RecordError records an error by type and component.
func (m *Metrics) RecordError(ctx context.Context, errType, component string) {
	if m == nil {
		return
	}
	m.errorTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("type", errType),
		attribute.String("component", component),
	))
}

// JobStarted increments the active job gauge.
func (m *Metrics) JobStarted(ctx context.Context) {
	if m == nil {
		return
	}
	m.jobsActive.Add(ctx, 1)
}

// JobFinished decrements the active job gauge and counts the terminal state.
// reason is empty for successful jobs.
func (m *Metrics) JobFinished(ctx context.Context, state, reason string) {
	if m == nil {
		return
	}
	m.jobsActive.Add(ctx, -1)
	m.jobsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("state", state),
		attribute.String("reason", reason),
	))
}

// RecordRequest records a served HTTP request.
func (m *Metrics) RecordRequest(ctx context.Context, method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("route", route),
		attribute.String("status", strconv.Itoa(status)),
	)
	m.requestTotal.Add(ctx, 1, attrs)
	m.requestDuration.Record(ctx, d.Seconds(), attrs)
}
