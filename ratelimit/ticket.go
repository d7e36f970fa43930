package ratelimit

import (
	"container/list"
	"time"

	"github.com/google/uuid"
)

// State is a ticket's position in its lifecycle. Completed and Rejected are
// terminal.
type State int

const (
	Queued State = iota
	Admitted
	Completed
	Rejected
)

func (s State) String() string {
	switch s {
	case Queued:
		return "queued"
	case Admitted:
		return "admitted"
	case Completed:
		return "completed"
	case Rejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Ticket is one caller's claim on a provider queue. Its mutable fields are
// guarded by the owning queue's mutex.
type Ticket struct {
	ID         uuid.UUID
	Provider   string
	EnqueuedAt time.Time

	queue      *Queue
	state      State
	admittedAt time.Time
	admitted   chan struct{}
	elem       *list.Element
}

func (t *Ticket) State() State {
	t.queue.mu.Lock()
	defer t.queue.mu.Unlock()
	return t.state
}

// AdmittedAt is the zero time until the ticket is admitted.
func (t *Ticket) AdmittedAt() time.Time {
	t.queue.mu.Lock()
	defer t.queue.mu.Unlock()
	return t.admittedAt
}

// Complete releases the ticket's concurrency slot. It is safe to call more
// than once and on tickets that were never admitted.
func (t *Ticket) Complete() {
	t.queue.Complete(t)
}
