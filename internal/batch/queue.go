package batch

import (
	"context"
	"sync"
	"time"

	"github.com/Viru154/SEIRA/internal/domain"
)

// UnitState enumerates the per-ticket work-unit state machine:
// PENDING → DISPATCHED → (SUCCEEDED | FAILED_RETRYABLE → DISPATCHED |
// FAILED_TERMINAL).
type UnitState string

const (
	UnitPending         UnitState = "PENDING"
	UnitDispatched      UnitState = "DISPATCHED"
	UnitSucceeded       UnitState = "SUCCEEDED"
	UnitFailedRetryable UnitState = "FAILED_RETRYABLE"
	UnitFailedTerminal  UnitState = "FAILED_TERMINAL"
)

// Unit is one ticket-processing work item. Attempt starts at 1 and
// increments on every re-dispatch; retry policy lives in the orchestrator,
// not in the unit.
type Unit struct {
	ID       string `json:"id"`
	RunID    string `json:"run_id"`
	TicketID int64  `json:"ticket_id"`
	Attempt  int    `json:"attempt"`
}

// Outcome is the terminal record of one dispatch of a unit. Successful
// outcomes carry the analysis highlights so event subscribers never need a
// second repository read.
type Outcome struct {
	Unit       Unit           `json:"unit"`
	State      UnitState      `json:"state"`
	Error      string         `json:"error,omitempty"`
	Degraded   bool           `json:"degraded"`
	Valid      bool           `json:"valid"`
	Urgency    domain.Urgency `json:"urgency,omitempty"`
	Complexity float64        `json:"complexity,omitempty"`
	DurationMS float64        `json:"duration_ms,omitempty"`
}

// Queue is the opaque task-queue abstraction between the orchestrator and
// its workers. Submit/Status/Result serve the producer side; Next/Complete
// serve the consumer side.
type Queue interface {
	// Submit enqueues the unit and returns its handle.
	Submit(ctx context.Context, unit Unit) (string, error)
	// Status reports the unit's current state.
	Status(ctx context.Context, handle string) (UnitState, error)
	// Result returns the terminal outcome, or nil while in flight.
	Result(ctx context.Context, handle string) (*Outcome, error)
	// Next blocks until a unit is available or the context ends.
	Next(ctx context.Context) (*Unit, error)
	// Complete records the terminal outcome of one dispatch.
	Complete(ctx context.Context, outcome Outcome) error
}

// MemoryQueue is the in-process Queue used by tests and broker-less runs.
type MemoryQueue struct {
	mu       sync.Mutex
	backlog  []Unit
	states   map[string]UnitState
	outcomes map[string]Outcome
}

// NewMemoryQueue creates an empty queue.
func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{
		states:   make(map[string]UnitState),
		outcomes: make(map[string]Outcome),
	}
}

func (q *MemoryQueue) Submit(_ context.Context, unit Unit) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.backlog = append(q.backlog, unit)
	q.states[unit.ID] = UnitPending
	delete(q.outcomes, unit.ID)
	return unit.ID, nil
}

func (q *MemoryQueue) Status(_ context.Context, handle string) (UnitState, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	state, ok := q.states[handle]
	if !ok {
		return "", ErrUnknownUnit
	}
	return state, nil
}

func (q *MemoryQueue) Result(_ context.Context, handle string) (*Outcome, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, ok := q.states[handle]; !ok {
		return nil, ErrUnknownUnit
	}
	outcome, ok := q.outcomes[handle]
	if !ok {
		return nil, nil
	}
	return &outcome, nil
}

func (q *MemoryQueue) Next(ctx context.Context) (*Unit, error) {
	for {
		q.mu.Lock()
		if len(q.backlog) > 0 {
			unit := q.backlog[0]
			q.backlog = q.backlog[1:]
			q.states[unit.ID] = UnitDispatched
			q.mu.Unlock()
			return &unit, nil
		}
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func (q *MemoryQueue) Complete(_ context.Context, outcome Outcome) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.states[outcome.Unit.ID] = outcome.State
	q.outcomes[outcome.Unit.ID] = outcome
	return nil
}
