package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"stabbench/internal/apperrors"
	"stabbench/internal/session"
	"stabbench/pkg/backoff"
)

// worker consumes job indexes until the queue is closed or the context
// ends. Jobs that reached a terminal state before being dequeued are
// skipped.
func (e *Engine) worker(ctx context.Context, queue <-chan int) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case idx, ok := <-queue:
			if !ok {
				return ctx.Err()
			}
			job := e.table.Job(idx)
			if job.State().IsTerminal() {
				continue
			}
			e.runJob(ctx, job)
			if err := ctx.Err(); err != nil {
				return err
			}
		}
	}
}

// runJob drives a single job through login, submit and the poll loop. Each
// job gets a fresh session so cookies never leak between jobs.
func (e *Engine) runJob(ctx context.Context, job *Job) {
	hdr := e.adapter.Header()
	e.metrics.RecordJobStarted(ctx, hdr.Name)
	defer e.recordFinished(ctx, job)
	defer func() {
		if r := recover(); r != nil {
			e.log.Error("job panicked", slog.Int("job", job.Index()), slog.Any("panic", r))
			job.SetState(StateFailed, fmt.Sprintf("internal error: %v", r))
		}
	}()

	sess := session.New(session.Config{Breakers: e.opts.Breakers})
	job.StartTimer()

	if e.adapter.Flags().RequiresLogin {
		job.SetState(StateAuthentication, "")
		if err := e.adapter.Login(ctx, sess, job); err != nil {
			state, msg := Classify(err)
			if state == StateFailed {
				state = StateAuthFailed
			}
			job.SetState(state, msg)
			return
		}
	}

	if err := e.adapter.Submit(ctx, sess, job); err != nil {
		job.Fail(err)
		return
	}
	if s := job.State(); s == StateNotStarted || s == StateAuthentication {
		job.SetState(StateWaiting, "")
	}

	// The first poll follows the submit immediately; only an unresolved
	// cycle costs a retry and a wait interval.
	for job.State().IsBlocking() {
		e.metrics.RecordPollCycle(ctx, hdr.Name)
		outcome, err := e.adapter.Poll(ctx, sess, job)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if !e.retryable(err) {
				job.Fail(err)
				break
			}
			e.log.Warn("poll cycle failed, retrying",
				slog.Int("job", job.Index()),
				slog.String("error", err.Error()))
		} else if outcome == Done {
			if job.State().IsBlocking() {
				job.SetState(StateFinished, "")
			}
			break
		}

		if !e.table.ConsumeBudget(job.Index()) {
			job.SetState(StateTimeout, "")
			break
		}
		if err := backoff.Sleep(ctx, e.opts.Settings.WaitInterval); err != nil {
			// Cancelled mid-run; the snapshot keeps the last state.
			return
		}
	}
}

// retryable reports whether a poll error should cost a cycle instead of the
// whole job. Parse misses flagged permissive always retry; in permissive
// mode every parse error does.
func (e *Engine) retryable(err error) bool {
	if apperrors.IsPermissive(err) {
		return true
	}
	return e.opts.Permissive && errors.Is(err, apperrors.ErrParse)
}

// recordFinished runs once per dequeued job. A cancelled job hands back a
// blocking state so the recorder can release its saturation slot without
// counting an outcome.
func (e *Engine) recordFinished(ctx context.Context, job *Job) {
	e.metrics.RecordJobFinished(ctx, e.adapter.Header().Name, job.State(), job.Elapsed())
}
