// Package ratelimit admits outbound provider calls through one FIFO queue per
// provider, bounding both concurrency and request rate.
package ratelimit

import (
	"container/list"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/guiperry/promptinspector/config"
	"github.com/guiperry/promptinspector/llm"
	"github.com/guiperry/promptinspector/utils"
)

var (
	// ErrRateLimitExhausted is wrapped by every rejection.
	ErrRateLimitExhausted = errors.New("rate limit exhausted")
	ErrQueueFull          = fmt.Errorf("%w: queue full", ErrRateLimitExhausted)
)

// Queue serializes admission to one provider. A ticket is admitted only when
// it is at the head of the queue, fewer than MaxConcurrency tickets are
// admitted, and MinInterval has passed since the previous admission.
type Queue struct {
	provider string
	limits   config.RateLimitConfig
	logger   utils.Logger
	metrics  *Metrics

	mu      sync.Mutex
	waiting *list.List
	active  int
	pacer   *rate.Limiter
	wake    *time.Timer
}

// Stats is a snapshot of a queue.
type Stats struct {
	Provider string                 `json:"provider"`
	Queued   int                    `json:"queued"`
	Active   int                    `json:"active"`
	Limits   config.RateLimitConfig `json:"-"`
}

// NewQueue builds an empty queue. A nil logger or metrics is replaced by a
// no-op one.
func NewQueue(provider string, limits config.RateLimitConfig, logger utils.Logger, metrics *Metrics) *Queue {
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	if limits.MaxConcurrency < 1 {
		limits.MaxConcurrency = 1
	}
	if limits.MaxQueue < 1 {
		limits.MaxQueue = 1
	}
	every := rate.Inf
	if limits.MinInterval > 0 {
		every = rate.Every(limits.MinInterval)
	}
	return &Queue{
		provider: provider,
		limits:   limits,
		logger:   logger,
		metrics:  metrics,
		waiting:  list.New(),
		pacer:    rate.NewLimiter(every, 1),
	}
}

func (q *Queue) Provider() string { return q.provider }

func (q *Queue) Limits() config.RateLimitConfig { return q.limits }

// Enqueue appends a new ticket, or fails with ErrQueueFull when MaxQueue
// tickets are already waiting. The ticket may be admitted before Enqueue
// returns.
func (q *Queue) Enqueue() (*Ticket, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.waiting.Len() >= q.limits.MaxQueue {
		q.metrics.Rejected.WithLabelValues(q.provider, ReasonQueueFull).Inc()
		q.logger.Warn("Request rejected", "provider", q.provider, "reason", ReasonQueueFull, "queued", q.waiting.Len())
		return nil, llm.NewLLMError(llm.ErrorTypeRateLimit,
			fmt.Sprintf("%s: %d requests already waiting", q.provider, q.waiting.Len()), ErrQueueFull)
	}

	t := &Ticket{
		ID:         uuid.New(),
		Provider:   q.provider,
		EnqueuedAt: time.Now(),
		queue:      q,
		state:      Queued,
		admitted:   make(chan struct{}),
	}
	t.elem = q.waiting.PushBack(t)
	q.metrics.QueueDepth.WithLabelValues(q.provider).Set(float64(q.waiting.Len()))
	q.logger.Debug("Request queued", "provider", q.provider, "ticket", t.ID.String(), "queued", q.waiting.Len())

	q.dispatchLocked()
	return t, nil
}

// Wait blocks until t is admitted. It fails with ErrRateLimitExhausted once
// MaxWait has passed since t was enqueued, and with ctx.Err() if the caller
// gives up first. Either way t leaves the queue without being admitted.
func (q *Queue) Wait(ctx context.Context, t *Ticket) error {
	timer := time.NewTimer(q.limits.MaxWait - time.Since(t.EnqueuedAt))
	defer timer.Stop()

	select {
	case <-t.admitted:
		return nil
	case <-timer.C:
		if !q.withdraw(t, ReasonMaxWait) {
			return nil
		}
		q.logger.Warn("Request rejected", "provider", q.provider, "reason", ReasonMaxWait, "ticket", t.ID.String(), "max_wait", q.limits.MaxWait)
		return llm.NewLLMError(llm.ErrorTypeRateLimit,
			fmt.Sprintf("%s: not admitted within %s", q.provider, q.limits.MaxWait), ErrRateLimitExhausted)
	case <-ctx.Done():
		if !q.withdraw(t, ReasonCancelled) {
			// Admitted while we were giving up; hand the slot back.
			q.Complete(t)
		}
		return ctx.Err()
	}
}

// Complete moves an admitted ticket to Completed and frees its slot. A ticket
// still queued is withdrawn instead. Terminal tickets are left alone.
func (q *Queue) Complete(t *Ticket) {
	q.mu.Lock()
	defer q.mu.Unlock()

	switch t.state {
	case Admitted:
		t.state = Completed
		q.active--
		q.metrics.InFlight.WithLabelValues(q.provider).Set(float64(q.active))
		q.logger.Debug("Request completed", "provider", q.provider, "ticket", t.ID.String(), "held", time.Since(t.admittedAt))
		q.dispatchLocked()
	case Queued:
		q.removeLocked(t, ReasonCancelled)
	}
}

// Stats returns a snapshot of the queue.
func (q *Queue) Stats() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()
	return Stats{Provider: q.provider, Queued: q.waiting.Len(), Active: q.active, Limits: q.limits}
}

// withdraw removes a queued ticket and reports whether it was still queued.
func (q *Queue) withdraw(t *Ticket, reason string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if t.state != Queued {
		return false
	}
	q.removeLocked(t, reason)
	return true
}

func (q *Queue) removeLocked(t *Ticket, reason string) {
	q.waiting.Remove(t.elem)
	t.elem = nil
	t.state = Rejected
	q.metrics.Rejected.WithLabelValues(q.provider, reason).Inc()
	q.metrics.QueueDepth.WithLabelValues(q.provider).Set(float64(q.waiting.Len()))
	q.dispatchLocked()
}

// dispatchLocked admits tickets from the head of the queue while a slot is
// free and the pacer allows. When only pacing blocks the head, a timer
// retries at the moment the pacer will allow it.
func (q *Queue) dispatchLocked() {
	for q.waiting.Len() > 0 && q.active < q.limits.MaxConcurrency {
		now := time.Now()
		r := q.pacer.ReserveN(now, 1)
		if delay := r.DelayFrom(now); delay > 0 {
			r.CancelAt(now)
			q.scheduleLocked(delay)
			return
		}

		t := q.waiting.Remove(q.waiting.Front()).(*Ticket)
		t.elem = nil
		t.state = Admitted
		t.admittedAt = now
		q.active++
		close(t.admitted)

		q.metrics.Admitted.WithLabelValues(q.provider).Inc()
		q.metrics.WaitDuration.WithLabelValues(q.provider).Observe(now.Sub(t.EnqueuedAt).Seconds())
		q.metrics.InFlight.WithLabelValues(q.provider).Set(float64(q.active))
		q.metrics.QueueDepth.WithLabelValues(q.provider).Set(float64(q.waiting.Len()))
		q.logger.Debug("Request admitted", "provider", q.provider, "ticket", t.ID.String(), "waited", now.Sub(t.EnqueuedAt), "active", q.active)
	}
}

func (q *Queue) scheduleLocked(delay time.Duration) {
	if q.wake != nil {
		return
	}
	q.wake = time.AfterFunc(delay, func() {
		q.mu.Lock()
		defer q.mu.Unlock()
		q.wake = nil
		q.dispatchLocked()
	})
}
