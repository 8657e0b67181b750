package domain

// MoveOp is a single validated file relocation.
type MoveOp struct {
	// Source is the absolute path of the file to move.
	Source string

	// Destination is the plan's proposed absolute destination.
	Destination string

	// ResolvedDestination is the absolute destination after collision
	// resolution. Equal to Destination when no collision occurred.
	ResolvedDestination string
}

// Renamed reports whether collision resolution changed the destination.
func (op MoveOp) Renamed() bool {
	return op.ResolvedDestination != op.Destination
}

// MoveSet is the validated, executable form of an organisation plan.
// Ops are ordered by destination depth ascending so parent directories
// are created before their children. Resolved destinations are
// pairwise distinct and none pre-exists as a regular file.
// A move set is consumed exactly once by the executor.
type MoveSet struct {
	Ops []MoveOp
}

// ValidationReport is the outcome of plan validation: the executable
// move set plus the best-effort repairs made along the way, surfaced
// for user review before confirmation.
type ValidationReport struct {
	// MoveSet is the executable result.
	MoveSet MoveSet

	// Unmapped lists records the plan failed to cover. They are left
	// in place; this does not fail validation.
	Unmapped []string

	// Renamed lists operations whose destination was rewritten to
	// resolve a collision.
	Renamed []MoveOp

	// Elided counts self-moves dropped as no-ops.
	Elided int
}

// MoveFailure records one per-item execution failure.
type MoveFailure struct {
	// Op is the operation that failed.
	Op MoveOp

	// Err classifies the failure (ErrSourceVanished,
	// ErrDestinationRace, or a wrapped I/O error).
	Err error
}

// ExecutionReport summarises one executor batch. The executor is
// partial-failure tolerant: a single item's failure never aborts the
// batch, so succeeded and failed counts can both be non-zero.
type ExecutionReport struct {
	// Succeeded is the number of completed moves.
	Succeeded int

	// Failed lists per-item failures in execution order.
	Failed []MoveFailure

	// Skipped is the number of operations not attempted, either
	// because confirmation was withheld or the run was cancelled.
	Skipped int
}
