package substrate

import "errors"

// Error kinds per spec.md §7. NotFound and ResourceExhausted are recovered
// locally by callers (substituted heuristics, degraded results); the rest
// propagate to the top-level request handler.
var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrPersistence       = errors.New("persistence error")
	ErrResourceExhausted = errors.New("resource exhausted")
	ErrCorruption        = errors.New("corruption")
)

// IngestStage names the phase of the Merkle-DAG flush protocol a failure
// occurred in, so callers can report which bulk-copy stage aborted.
type IngestStage string

const (
	StagePhysicality      IngestStage = "physicality"
	StageComposition      IngestStage = "composition"
	StageRelation         IngestStage = "relation"
	StageRelationSeq      IngestStage = "relation_sequence"
	StageRelationRating   IngestStage = "relation_rating"
	StageRelationEvidence IngestStage = "relation_evidence"
)

// IngestError describes a failure of a single flush, naming the stage that
// aborted and wrapping the underlying cause.
type IngestError struct {
	Stage IngestStage
	Err   error
}

func (e *IngestError) Error() string {
	return "ingest: stage " + string(e.Stage) + ": " + e.Err.Error()
}

func (e *IngestError) Unwrap() error { return e.Err }
