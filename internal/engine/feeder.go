package engine

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"stabbench/pkg/backoff"
)

// enqueuePace spaces successive enqueues so a burst of jobs does not hammer
// the remote service the instant the batch starts.
const enqueuePace = 100 * time.Millisecond

// feed pushes job indexes into the queue in table order, closing it when
// every dispatchable job has been handed to a worker. A full queue is
// retried after the wait interval.
func (e *Engine) feed(ctx context.Context, queue chan<- int) error {
	defer close(queue)

	name := e.adapter.Header().Name
	limiter := rate.NewLimiter(rate.Every(enqueuePace), 1)
	for idx := range e.table.Len() {
		if e.table.Job(idx).State().IsTerminal() {
			continue
		}
		if err := limiter.Wait(ctx); err != nil {
			return err
		}
	enqueue:
		for {
			select {
			case queue <- idx:
				break enqueue
			case <-ctx.Done():
				return ctx.Err()
			default:
				e.log.Debug("queue full, waiting", slog.Int("job", idx))
				if err := backoff.Sleep(ctx, e.opts.Settings.WaitInterval); err != nil {
					return err
				}
			}
		}
		e.metrics.RecordQueueDepth(ctx, name, int64(len(queue)))
	}
	return nil
}
