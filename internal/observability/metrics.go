package observability

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"stabbench/internal/engine"
)

// Metrics holds all application metrics. Remote predictors are slow, so
// the interesting signals are job throughput and outcome mix, poll-cycle
// traffic, and queue saturation.
type Metrics struct {
	meter metric.Meter

	// Job metrics (Latency, Traffic, Errors, Saturation)
	JobDuration    metric.Float64Histogram
	JobsTotal      metric.Int64Counter
	JobErrorsTotal metric.Int64Counter
	JobsActive     metric.Int64UpDownCounter

	// Protocol metrics
	PollCyclesTotal metric.Int64Counter
	ProbesTotal     metric.Int64Counter
	QueueDepth      metric.Int64Gauge

	// Snapshot metrics
	SnapshotsTotal metric.Int64Counter
}

// NewMetrics creates and registers all metrics with a Prometheus exporter.
func NewMetrics(ctx context.Context) (*Metrics, http.Handler, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, nil, err
	}

	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter("stabbench")
	m := &Metrics{meter: meter}

	// Remote jobs routinely take minutes; bucket accordingly.
	m.JobDuration, err = meter.Float64Histogram(
		"job_duration_seconds",
		metric.WithDescription("Wall-clock duration of one prediction job in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(1, 5, 10, 30, 60, 120, 300, 600, 1800, 3600),
	)
	if err != nil {
		return nil, nil, err
	}

	m.JobsTotal, err = meter.Int64Counter(
		"jobs_total",
		metric.WithDescription("Total number of jobs dispatched"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.JobErrorsTotal, err = meter.Int64Counter(
		"job_errors_total",
		metric.WithDescription("Total number of jobs ending in a failure state"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.JobsActive, err = meter.Int64UpDownCounter(
		"jobs_active",
		metric.WithDescription("Number of currently running jobs (saturation)"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.PollCyclesTotal, err = meter.Int64Counter(
		"poll_cycles_total",
		metric.WithDescription("Total number of poll requests issued"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.ProbesTotal, err = meter.Int64Counter(
		"probes_total",
		metric.WithDescription("Total number of availability probes"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.QueueDepth, err = meter.Int64Gauge(
		"queue_depth",
		metric.WithDescription("Current number of jobs waiting in the feed queue (saturation)"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.SnapshotsTotal, err = meter.Int64Counter(
		"snapshots_total",
		metric.WithDescription("Total number of result snapshots written"),
	)
	if err != nil {
		return nil, nil, err
	}

	return m, promhttp.Handler(), nil
}

// RecordJobStarted records a job being handed to a worker.
func (m *Metrics) RecordJobStarted(ctx context.Context, predictor string) {
	attrs := metric.WithAttributes(predictorAttr(predictor))
	m.JobsTotal.Add(ctx, 1, attrs)
	m.JobsActive.Add(ctx, 1, attrs)
}

// RecordJobFinished records a job leaving its worker. A cancelled job
// arrives with a blocking state; it releases the saturation gauge but
// records no outcome.
func (m *Metrics) RecordJobFinished(ctx context.Context, predictor string, state engine.State, elapsed time.Duration) {
	m.JobsActive.Add(ctx, -1, metric.WithAttributes(predictorAttr(predictor)))
	if !state.IsTerminal() {
		return
	}

	attrs := metric.WithAttributes(predictorAttr(predictor), stateAttr(state))
	m.JobDuration.Record(ctx, elapsed.Seconds(), attrs)
	if state != engine.StateFinished {
		m.JobErrorsTotal.Add(ctx, 1, attrs)
	}
}

// RecordPollCycle records one poll request against a predictor.
func (m *Metrics) RecordPollCycle(ctx context.Context, predictor string) {
	m.PollCyclesTotal.Add(ctx, 1, metric.WithAttributes(predictorAttr(predictor)))
}

// RecordProbe records an availability probe outcome.
func (m *Metrics) RecordProbe(ctx context.Context, predictor string, available bool) {
	m.ProbesTotal.Add(ctx, 1, metric.WithAttributes(
		predictorAttr(predictor),
		availableAttr(available),
	))
}

// RecordQueueDepth records the current feed queue depth.
func (m *Metrics) RecordQueueDepth(ctx context.Context, predictor string, depth int64) {
	m.QueueDepth.Record(ctx, depth, metric.WithAttributes(predictorAttr(predictor)))
}

// RecordSnapshot records a periodic results snapshot being written.
func (m *Metrics) RecordSnapshot(ctx context.Context) {
	m.SnapshotsTotal.Add(ctx, 1)
}
