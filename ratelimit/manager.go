package ratelimit

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/guiperry/promptinspector/config"
	"github.com/guiperry/promptinspector/utils"
)

// Manager owns one Queue per provider, created on first use with the limits
// the configuration gives that provider.
type Manager struct {
	cfg     *config.Config
	logger  utils.Logger
	metrics *Metrics

	mu     sync.Mutex
	queues map[string]*Queue
}

type ManagerOption func(*Manager)

func WithLogger(logger utils.Logger) ManagerOption {
	return func(m *Manager) { m.logger = logger }
}

func WithMetrics(metrics *Metrics) ManagerOption {
	return func(m *Manager) { m.metrics = metrics }
}

func NewManager(cfg *config.Config, opts ...ManagerOption) *Manager {
	m := &Manager{
		cfg:    cfg,
		logger: utils.NewNopLogger(),
		queues: make(map[string]*Queue),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.metrics == nil {
		m.metrics = NewMetrics(nil)
	}
	return m
}

// Queue returns the queue for provider, creating it if needed.
func (m *Manager) Queue(provider string) *Queue {
	provider = strings.ToLower(provider)
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.queues[provider]
	if !ok {
		limits := m.cfg.LimitsFor(provider)
		q = NewQueue(provider, limits, m.logger, m.metrics)
		m.queues[provider] = q
		m.logger.Debug("Queue created", "provider", provider,
			"max_concurrency", limits.MaxConcurrency, "min_interval", limits.MinInterval,
			"max_wait", limits.MaxWait, "max_queue", limits.MaxQueue)
	}
	return q
}

// Acquire enqueues a ticket for provider and waits for its admission. The
// caller must Complete the returned ticket once the outbound call is over.
func (m *Manager) Acquire(ctx context.Context, provider string) (*Ticket, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	q := m.Queue(provider)
	t, err := q.Enqueue()
	if err != nil {
		return nil, err
	}
	if err := q.Wait(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Stats snapshots every queue created so far, ordered by provider.
func (m *Manager) Stats() []Stats {
	m.mu.Lock()
	queues := make([]*Queue, 0, len(m.queues))
	for _, q := range m.queues {
		queues = append(queues, q)
	}
	m.mu.Unlock()

	out := make([]Stats, 0, len(queues))
	for _, q := range queues {
		out = append(out, q.Stats())
	}
	slices.SortFunc(out, func(a, b Stats) int { return strings.Compare(a.Provider, b.Provider) })
	return out
}
