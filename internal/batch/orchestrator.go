package batch

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Viru154/SEIRA/internal/config"
	"github.com/Viru154/SEIRA/internal/domain"
	"github.com/Viru154/SEIRA/internal/events"
	"github.com/Viru154/SEIRA/internal/nlp"
	"github.com/Viru154/SEIRA/internal/observability"
	"github.com/Viru154/SEIRA/internal/repository"
	"github.com/Viru154/SEIRA/pkg/util"
)

// maxSummaryErrors caps how many per-ticket failures the summary carries
// verbatim; the counters always hold the full totals.
const maxSummaryErrors = 100

// Orchestrator drives feature extraction over the pending ticket set with a
// pool of workers. Retry counters are orchestrator state, units never
// requeue themselves, and a unit is acknowledged only after its analysis is
// durably persisted.
type Orchestrator struct {
	cfg        config.BatchConfig
	tickets    repository.TicketRepository
	analyses   repository.AnalysisRepository
	extractor  *nlp.Extractor
	queue      Queue
	dispatcher events.Dispatcher
	metrics    *observability.PipelineMetrics
	logger     *zap.Logger

	stopOnce sync.Once
	stopCh   chan struct{}

	mu             sync.Mutex
	runID          string
	total          int
	succeeded      int
	failed         int
	invalid        int
	degradedUsed   bool
	stopping       bool
	inFlight       map[int64]struct{}
	terminalFailed map[int64]struct{}
	submitted      map[int64]struct{}
	errs           []domain.UnitError
}

// Dependencies bundles collaborators for the orchestrator.
type Dependencies struct {
	Tickets    repository.TicketRepository
	Analyses   repository.AnalysisRepository
	Extractor  *nlp.Extractor
	Queue      Queue
	Dispatcher events.Dispatcher
	Metrics    *observability.PipelineMetrics
	Logger     *zap.Logger
}

// NewOrchestrator constructs the orchestrator.
func NewOrchestrator(cfg config.BatchConfig, deps Dependencies) *Orchestrator {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics := deps.Metrics
	if metrics == nil {
		metrics = observability.NewPipelineMetrics()
	}
	return &Orchestrator{
		cfg:            cfg,
		tickets:        deps.Tickets,
		analyses:       deps.Analyses,
		extractor:      deps.Extractor,
		queue:          deps.Queue,
		dispatcher:     deps.Dispatcher,
		metrics:        metrics,
		logger:         logger,
		stopCh:         make(chan struct{}),
		inFlight:       make(map[int64]struct{}),
		terminalFailed: make(map[int64]struct{}),
		submitted:      make(map[int64]struct{}),
	}
}

// Run processes every pending ticket to a terminal state and returns the
// batch summary. Committed processed flags survive interruption, so a rerun
// resumes without duplicate work.
func (o *Orchestrator) Run(ctx context.Context, runID string) (domain.RunSummary, error) {
	pending, err := o.tickets.CountPending(ctx)
	if err != nil {
		return domain.RunSummary{}, util.NewPersistenceError("count pending tickets", err)
	}

	// Reset per-run state; tickets that failed terminally in a previous run
	// are still pending and get a fresh retry budget.
	o.mu.Lock()
	o.runID = runID
	o.total = pending
	o.succeeded = 0
	o.failed = 0
	o.invalid = 0
	o.degradedUsed = o.extractor.Degraded()
	o.inFlight = make(map[int64]struct{})
	o.terminalFailed = make(map[int64]struct{})
	o.submitted = make(map[int64]struct{})
	o.errs = nil
	o.mu.Unlock()

	o.publish(events.Event{
		Type:  events.EventRunStarted,
		RunID: runID,
		Payload: events.RunStartedPayload{
			PendingTickets: pending,
			Backend:        o.extractor.BackendName(),
		},
	})
	if o.extractor.Degraded() {
		o.logger.Warn("language backend unavailable; running in degraded mode",
			zap.String("run_id", runID))
		o.publish(events.Event{Type: events.EventDegradedMode, RunID: runID})
	}
	if pending == 0 {
		return o.summary(), nil
	}

	// Propagate caller cancellation into the stop path: no new dispatch,
	// in-flight units run to completion or timeout.
	watchDone := make(chan struct{})
	defer close(watchDone)
	go func() {
		select {
		case <-ctx.Done():
			o.Stop()
		case <-watchDone:
		}
	}()

	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	concurrency := o.cfg.WorkerConcurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				if done := o.worker(workerCtx); done {
					return
				}
				// Recycled after WorkerMaxTasks units; loop spawns a
				// fresh pass to bound per-worker memory growth.
			}
		}()
	}

	o.produce(ctx)

	// Let in-flight units finish; each is bounded by the hard timeout.
	for o.inFlightCount() > 0 {
		time.Sleep(10 * time.Millisecond)
	}
	cancelWorkers()
	wg.Wait()

	summary := o.summary()
	o.publish(events.Event{
		Type:    events.EventRunCompleted,
		RunID:   runID,
		Payload: events.RunCompletedPayload{Summary: summary},
	})
	o.logger.Info("batch run finished",
		zap.String("run_id", runID),
		zap.Int("total", summary.Total),
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("failed", summary.Failed),
		zap.Int("invalid", summary.Invalid),
		zap.Bool("degraded_used", summary.DegradedUsed))
	return summary, nil
}

// produce submits pending tickets in batches until none remain or the
// orchestrator is stopping.
func (o *Orchestrator) produce(ctx context.Context) {
	batchSize := o.cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}
	for {
		if o.isStopping() {
			return
		}
		tickets, err := o.tickets.ListPending(ctx, batchSize)
		if err != nil {
			o.logger.Error("list pending tickets", zap.Error(err))
			return
		}

		fresh := 0
		for _, ticket := range tickets {
			o.mu.Lock()
			_, submitted := o.submitted[ticket.ID]
			_, terminal := o.terminalFailed[ticket.ID]
			if submitted || terminal {
				o.mu.Unlock()
				continue
			}
			o.submitted[ticket.ID] = struct{}{}
			o.inFlight[ticket.ID] = struct{}{}
			runID := o.runID
			o.mu.Unlock()

			unit := Unit{
				ID:       uuid.NewString(),
				RunID:    runID,
				TicketID: ticket.ID,
				Attempt:  1,
			}
			if _, err := o.queue.Submit(ctx, unit); err != nil {
				o.logger.Error("submit unit", zap.Int64("ticket_id", ticket.ID), zap.Error(err))
				o.clearInFlight(ticket.ID)
				continue
			}
			fresh++
		}

		if fresh == 0 && o.inFlightCount() == 0 {
			return
		}

		select {
		case <-o.stopCh:
			return
		case <-time.After(20 * time.Millisecond):
		}
	}
}

// worker consumes units until recycled or the context ends. It returns true
// when the pool should not respawn it.
func (o *Orchestrator) worker(ctx context.Context) bool {
	maxTasks := o.cfg.WorkerMaxTasks
	if maxTasks <= 0 {
		maxTasks = 1000
	}
	for processed := 0; processed < maxTasks; processed++ {
		unit, err := o.queue.Next(ctx)
		if err != nil {
			return true
		}
		outcome := o.processUnit(*unit)
		// Completion is recorded against the background context so the
		// acknowledgement survives caller cancellation.
		if err := o.queue.Complete(context.Background(), outcome); err != nil {
			o.logger.Error("record unit outcome", zap.String("unit_id", unit.ID), zap.Error(err))
		}
		o.handleOutcome(outcome)
	}
	return false
}

// processUnit runs one dispatch of one ticket under the hard time limit.
// The unit is acknowledged as succeeded only after the analysis upsert and
// the processed flag are durable; duplicate delivery just overwrites.
func (o *Orchestrator) processUnit(unit Unit) Outcome {
	hardCtx, cancel := context.WithTimeout(context.Background(), o.cfg.HardTimeout)
	defer cancel()

	if o.cfg.SoftTimeout > 0 {
		soft := time.AfterFunc(o.cfg.SoftTimeout, func() {
			o.logger.Warn("soft time limit exceeded",
				zap.Int64("ticket_id", unit.TicketID),
				zap.Duration("soft_timeout", o.cfg.SoftTimeout))
		})
		defer soft.Stop()
	}

	type result struct {
		analysis domain.Analysis
		err      error
	}
	resultCh := make(chan result, 1)
	start := time.Now()

	go func() {
		ticket, err := o.tickets.GetByID(hardCtx, unit.TicketID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				resultCh <- result{err: util.NewInputError("ticket not found", map[string]any{"ticket_id": unit.TicketID})}
				return
			}
			resultCh <- result{err: util.NewPersistenceError("load ticket", err)}
			return
		}

		analysis := o.extractor.Extract(*ticket)

		if err := o.analyses.Upsert(hardCtx, &analysis); err != nil {
			resultCh <- result{err: util.NewPersistenceError("persist analysis", err)}
			return
		}
		if err := o.tickets.MarkProcessed(hardCtx, unit.TicketID, time.Now().UTC()); err != nil {
			resultCh <- result{err: util.NewPersistenceError("mark ticket processed", err)}
			return
		}
		resultCh <- result{analysis: analysis}
	}()

	select {
	case <-hardCtx.Done():
		o.logger.Warn("hard time limit exceeded; unit killed",
			zap.Int64("ticket_id", unit.TicketID),
			zap.Duration("hard_timeout", o.cfg.HardTimeout))
		return Outcome{Unit: unit, State: UnitFailedRetryable, Error: "hard time limit exceeded"}
	case r := <-resultCh:
		if r.err != nil {
			state := UnitFailedTerminal
			if util.Retryable(r.err) {
				state = UnitFailedRetryable
			}
			return Outcome{Unit: unit, State: state, Error: r.err.Error()}
		}
		elapsed := time.Since(start)
		o.metrics.RecordProcessed(elapsed, r.analysis.Degraded, r.analysis.Valid)
		return Outcome{
			Unit:       unit,
			State:      UnitSucceeded,
			Degraded:   r.analysis.Degraded,
			Valid:      r.analysis.Valid,
			Urgency:    r.analysis.Urgency,
			Complexity: r.analysis.ComplexityScore,
			DurationMS: float64(elapsed.Microseconds()) / 1000,
		}
	}
}

// handleOutcome applies retry policy and advances the run counters.
func (o *Orchestrator) handleOutcome(outcome Outcome) {
	switch outcome.State {
	case UnitSucceeded:
		o.mu.Lock()
		o.succeeded++
		if !outcome.Valid {
			o.invalid++
		}
		if outcome.Degraded {
			o.degradedUsed = true
		}
		runID := o.runID
		delete(o.inFlight, outcome.Unit.TicketID)
		o.mu.Unlock()

		o.publish(events.Event{
			Type:     events.EventTicketProcessed,
			RunID:    runID,
			TicketID: outcome.Unit.TicketID,
			Payload: events.TicketProcessedPayload{
				Urgency:    outcome.Urgency,
				Complexity: outcome.Complexity,
				Valid:      outcome.Valid,
				DurationMS: outcome.DurationMS,
			},
		})

	case UnitFailedRetryable:
		if outcome.Unit.Attempt <= o.cfg.MaxRetries && !o.isStopping() {
			o.metrics.RecordRetry()
			o.logger.Warn("unit failed; scheduling retry",
				zap.Int64("ticket_id", outcome.Unit.TicketID),
				zap.Int("attempt", outcome.Unit.Attempt),
				zap.String("error", outcome.Error))
			next := outcome.Unit
			next.ID = uuid.NewString()
			next.Attempt++
			go o.redispatch(next)
			return
		}
		if o.isStopping() && outcome.Unit.Attempt <= o.cfg.MaxRetries {
			// Shutdown interrupted the retry budget; the ticket stays
			// unprocessed and the next run picks it up.
			o.clearInFlight(outcome.Unit.TicketID)
			return
		}
		o.recordTerminalFailure(outcome)

	default:
		o.recordTerminalFailure(outcome)
	}
}

func (o *Orchestrator) redispatch(unit Unit) {
	select {
	case <-o.stopCh:
		o.clearInFlight(unit.TicketID)
		return
	case <-time.After(o.cfg.RetryDelay):
	}
	if _, err := o.queue.Submit(context.Background(), unit); err != nil {
		o.logger.Error("redispatch unit", zap.Int64("ticket_id", unit.TicketID), zap.Error(err))
		o.recordTerminalFailure(Outcome{Unit: unit, State: UnitFailedTerminal, Error: err.Error()})
	}
}

func (o *Orchestrator) recordTerminalFailure(outcome Outcome) {
	o.metrics.RecordFailed()
	o.mu.Lock()
	o.failed++
	o.terminalFailed[outcome.Unit.TicketID] = struct{}{}
	delete(o.inFlight, outcome.Unit.TicketID)
	if len(o.errs) < maxSummaryErrors {
		o.errs = append(o.errs, domain.UnitError{
			TicketID: outcome.Unit.TicketID,
			Message:  outcome.Error,
			Attempts: outcome.Unit.Attempt,
		})
	}
	runID := o.runID
	o.mu.Unlock()

	o.logger.Error("unit failed terminally",
		zap.Int64("ticket_id", outcome.Unit.TicketID),
		zap.Int("attempts", outcome.Unit.Attempt),
		zap.String("error", outcome.Error))
	o.publish(events.Event{
		Type:     events.EventTicketFailed,
		RunID:    runID,
		TicketID: outcome.Unit.TicketID,
		Payload: events.TicketFailedPayload{
			Attempts: outcome.Unit.Attempt,
			Reason:   outcome.Error,
		},
	})
}

// Stop halts dispatch of new units. In-flight units run to completion or
// their hard timeout; committed processed flags stay durable.
func (o *Orchestrator) Stop() {
	o.stopOnce.Do(func() {
		o.mu.Lock()
		o.stopping = true
		o.mu.Unlock()
		close(o.stopCh)
	})
}

// Progress returns a snapshot without blocking the run.
func (o *Orchestrator) Progress() domain.Progress {
	o.mu.Lock()
	defer o.mu.Unlock()
	done := o.succeeded + o.failed
	progress := domain.Progress{
		RunID:     o.runID,
		Total:     o.total,
		Succeeded: o.succeeded,
		Failed:    o.failed,
		Pending:   o.total - done,
	}
	if progress.Pending < 0 {
		progress.Pending = 0
	}
	if o.total > 0 {
		progress.PercentComplete = float64(done) / float64(o.total) * 100
	}
	return progress
}

func (o *Orchestrator) summary() domain.RunSummary {
	o.mu.Lock()
	defer o.mu.Unlock()
	errs := make([]domain.UnitError, len(o.errs))
	copy(errs, o.errs)
	return domain.RunSummary{
		Total:        o.total,
		Succeeded:    o.succeeded,
		Failed:       o.failed,
		Invalid:      o.invalid,
		DegradedUsed: o.degradedUsed,
		Errors:       errs,
	}
}

func (o *Orchestrator) isStopping() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.stopping
}

func (o *Orchestrator) inFlightCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.inFlight)
}

func (o *Orchestrator) clearInFlight(ticketID int64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.inFlight, ticketID)
}

func (o *Orchestrator) publish(event events.Event) {
	if o.dispatcher == nil {
		return
	}
	event.ID = uuid.NewString()
	event.Timestamp = time.Now().UTC()
	if err := o.dispatcher.Publish(context.Background(), event); err != nil {
		o.logger.Warn("event subscriber failed",
			zap.String("event", string(event.Type)), zap.Error(err))
	}
}
