package engine

import (
	"context"
	"time"
)

// MetricsRecorder receives engine events. The concrete implementation lives
// elsewhere so the engine does not depend on an exporter.
//
// RecordJobFinished pairs with every RecordJobStarted; on a cancelled run
// the state it receives may still be blocking.
type MetricsRecorder interface {
	RecordJobStarted(ctx context.Context, predictor string)
	RecordJobFinished(ctx context.Context, predictor string, state State, elapsed time.Duration)
	RecordPollCycle(ctx context.Context, predictor string)
	RecordProbe(ctx context.Context, predictor string, available bool)
	RecordQueueDepth(ctx context.Context, predictor string, depth int64)
}

// NopMetrics discards all events.
type NopMetrics struct{}

func (NopMetrics) RecordJobStarted(context.Context, string)                        {}
func (NopMetrics) RecordJobFinished(context.Context, string, State, time.Duration) {}
func (NopMetrics) RecordPollCycle(context.Context, string)                         {}
func (NopMetrics) RecordProbe(context.Context, string, bool)                       {}
func (NopMetrics) RecordQueueDepth(context.Context, string, int64)                 {}
