package domain

import (
	"sync"
	"time"
)

// Stage identifies a pipeline stage for timing purposes.
type Stage string

// Pipeline stages tracked by the ledger.
const (
	StageScan     Stage = "scan"
	StageExtract  Stage = "extract"
	StageEmbed    Stage = "embed"
	StagePlan     Stage = "plan"
	StageValidate Stage = "validate"
	StageExecute  Stage = "execute"
)

// Counter names recorded by the ledger.
const (
	CounterFilesDiscovered   = "files_discovered"
	CounterExtracted         = "extracted"
	CounterExtractFailed     = "extract_failed"
	CounterSummarised        = "summarised"
	CounterSummariseFailed   = "summarise_failed"
	CounterMovesPlanned      = "moves_planned"
	CounterMovesSucceeded    = "moves_succeeded"
	CounterMovesFailed       = "moves_failed"
	CounterMovesSkipped      = "moves_skipped"
	CounterDirsCreated       = "dirs_created"
	CounterUnmappedRecords   = "unmapped_records"
	CounterCollisionsRenamed = "collisions_renamed"
	CounterPlanRetries       = "plan_retries"
)

// MetricsLedger accumulates counters and timers across pipeline
// stages. It is created at run start and passed explicitly into each
// stage; there is no ambient global state. Safe for concurrent use so
// parallel summarisation workers can record into it.
type MetricsLedger struct {
	mu         sync.Mutex
	start      time.Time
	counters   map[string]int64
	stages     map[Stage]time.Duration
	apiLatency time.Duration
	apiCalls   int64
	tokens     int64
}

// NewMetricsLedger creates a ledger with the run clock started.
func NewMetricsLedger() *MetricsLedger {
	return &MetricsLedger{
		start:    time.Now(),
		counters: make(map[string]int64),
		stages:   make(map[Stage]time.Duration),
	}
}

// Add increments a named counter.
func (l *MetricsLedger) Add(counter string, n int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.counters[counter] += n
}

// ObserveStage accumulates elapsed time for a stage.
func (l *MetricsLedger) ObserveStage(stage Stage, d time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stages[stage] += d
}

// TimeStage runs fn and records its elapsed time against the stage.
func (l *MetricsLedger) TimeStage(stage Stage, fn func() error) error {
	started := time.Now()
	err := fn()
	l.ObserveStage(stage, time.Since(started))
	return err
}

// ObserveAPICall records one external service call with its latency
// and estimated token usage.
func (l *MetricsLedger) ObserveAPICall(latency time.Duration, tokens int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.apiCalls++
	l.apiLatency += latency
	l.tokens += tokens
}

// Report takes a read-only snapshot of the ledger. The run is
// considered finished at snapshot time.
func (l *MetricsLedger) Report() MetricsReport {
	l.mu.Lock()
	defer l.mu.Unlock()

	r := MetricsReport{
		Elapsed:    time.Since(l.start),
		Counters:   make(map[string]int64, len(l.counters)),
		Stages:     make(map[Stage]time.Duration, len(l.stages)),
		APICalls:   l.apiCalls,
		APILatency: l.apiLatency,
		Tokens:     l.tokens,
	}
	for k, v := range l.counters {
		r.Counters[k] = v
	}
	for k, v := range l.stages {
		r.Stages[k] = v
	}
	return r
}

// MetricsReport is an immutable snapshot of the ledger, emitted at end
// of run. Not consumed by any other component.
type MetricsReport struct {
	Elapsed    time.Duration
	Counters   map[string]int64
	Stages     map[Stage]time.Duration
	APICalls   int64
	APILatency time.Duration
	Tokens     int64
}

// Count returns a counter value, zero when never recorded.
func (r MetricsReport) Count(counter string) int64 {
	return r.Counters[counter]
}

// Rate returns hits/total as a percentage, zero when total is zero.
func (r MetricsReport) Rate(hits, total string) float64 {
	t := r.Counters[total]
	if t == 0 {
		return 0
	}
	return float64(r.Counters[hits]) / float64(t) * 100
}
