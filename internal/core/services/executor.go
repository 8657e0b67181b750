package services

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/docfold/docfold/internal/core/domain"
	"github.com/docfold/docfold/internal/core/ports/driven"
	"github.com/docfold/docfold/internal/logger"
)

// Executor applies a validated move set. The batch is
// partial-failure tolerant: filesystems are not transactional across
// arbitrary paths, so per-item failures are recorded and the batch
// continues rather than attempting a two-phase commit. Completed
// moves are journaled so the caller can request a best-effort
// rollback.
type Executor struct {
	mover   driven.FileMover
	metrics *domain.MetricsLedger

	mu      sync.Mutex
	journal []domain.MoveOp
}

// NewExecutor creates an executor over the given mover.
func NewExecutor(mover driven.FileMover, metrics *domain.MetricsLedger) *Executor {
	return &Executor{mover: mover, metrics: metrics}
}

// Execute applies the move set in order. confirmed is the human
// confirmation gate: without it the executor performs no filesystem
// mutation whatsoever and returns an empty report. Consent is never
// inferred.
func (e *Executor) Execute(ctx context.Context, set domain.MoveSet, confirmed bool) (*domain.ExecutionReport, error) {
	report := &domain.ExecutionReport{}
	if !confirmed {
		logger.Warn("Execution not confirmed, nothing moved")
		return report, nil
	}

	e.mu.Lock()
	e.journal = e.journal[:0]
	e.mu.Unlock()

	for i, op := range set.Ops {
		if ctx.Err() != nil {
			report.Skipped = len(set.Ops) - i
			break
		}
		e.executeOne(op, report)
	}

	if e.metrics != nil {
		e.metrics.Add(domain.CounterMovesSucceeded, int64(report.Succeeded))
		e.metrics.Add(domain.CounterMovesFailed, int64(len(report.Failed)))
		e.metrics.Add(domain.CounterMovesSkipped, int64(report.Skipped))
	}
	return report, nil
}

// executeOne applies a single move. Failures are recorded on the
// report; they never abort the batch.
func (e *Executor) executeOne(op domain.MoveOp, report *domain.ExecutionReport) {
	srcOK, err := e.mover.IsRegular(op.Source)
	if err != nil {
		e.fail(report, op, fmt.Errorf("stat source: %w", err))
		return
	}
	if !srcOK {
		e.fail(report, op, domain.ErrSourceVanished)
		return
	}

	// Never overwrite: a destination that appeared after validation
	// is a race, not a target.
	dstExists, err := e.mover.Exists(op.ResolvedDestination)
	if err != nil {
		e.fail(report, op, fmt.Errorf("stat destination: %w", err))
		return
	}
	if dstExists {
		e.fail(report, op, domain.ErrDestinationRace)
		return
	}

	dir := filepath.Dir(op.ResolvedDestination)
	dirExisted, err := e.mover.Exists(dir)
	if err != nil {
		e.fail(report, op, fmt.Errorf("stat directory: %w", err))
		return
	}
	if err := e.mover.MkdirAll(dir); err != nil {
		e.fail(report, op, fmt.Errorf("create directory: %w", err))
		return
	}
	if !dirExisted && e.metrics != nil {
		e.metrics.Add(domain.CounterDirsCreated, 1)
	}

	if err := e.mover.Move(op.Source, op.ResolvedDestination); err != nil {
		e.fail(report, op, fmt.Errorf("move: %w", err))
		return
	}

	report.Succeeded++
	e.mu.Lock()
	e.journal = append(e.journal, op)
	e.mu.Unlock()
	logger.Debug("Moved %s -> %s", op.Source, op.ResolvedDestination)
}

func (e *Executor) fail(report *domain.ExecutionReport, op domain.MoveOp, err error) {
	report.Failed = append(report.Failed, domain.MoveFailure{Op: op, Err: err})
	logger.Warn("Skipping %s: %v", op.Source, err)
}

// Rollback replays the journal in reverse, moving each completed file
// back to its original source. Best effort, with the same per-item
// failure handling as Execute. Successfully reverted entries are
// dropped from the journal; failures remain so rollback can be
// retried.
func (e *Executor) Rollback(ctx context.Context) (*domain.ExecutionReport, error) {
	e.mu.Lock()
	journal := make([]domain.MoveOp, len(e.journal))
	copy(journal, e.journal)
	e.mu.Unlock()

	report := &domain.ExecutionReport{}
	var remaining []domain.MoveOp

	for i := len(journal) - 1; i >= 0; i-- {
		op := journal[i]
		if ctx.Err() != nil {
			report.Skipped++
			remaining = append(remaining, op)
			continue
		}

		reverse := domain.MoveOp{
			Source:              op.ResolvedDestination,
			Destination:         op.Source,
			ResolvedDestination: op.Source,
		}
		before := report.Succeeded
		e.executeOne(reverse, report)
		if report.Succeeded == before {
			remaining = append(remaining, op)
		}
	}

	// remaining was collected newest-first; restore journal order.
	for i, j := 0, len(remaining)-1; i < j; i, j = i+1, j-1 {
		remaining[i], remaining[j] = remaining[j], remaining[i]
	}
	e.mu.Lock()
	e.journal = remaining
	e.mu.Unlock()
	return report, nil
}

// Journal returns a copy of the completed moves from the last
// Execute that have not been rolled back.
func (e *Executor) Journal() []domain.MoveOp {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]domain.MoveOp, len(e.journal))
	copy(out, e.journal)
	return out
}
