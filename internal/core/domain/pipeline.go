package domain

import "time"

// RunOptions configures one ingestion run.
type RunOptions struct {
	// Root is the directory to ingest.
	Root string

	// Force reprocesses files that are already stored or whose text
	// matches a stored document.
	Force bool

	// SkipEmbedding disables embedding generation and near-duplicate detection.
	SkipEmbedding bool

	// Paths, if set, are ingested instead of scanning Root.
	Paths []string
}

// EventKind identifies a pipeline state transition.
type EventKind string

// Pipeline events. Skipped, Deferred, Failed and Stored are terminal for a document.
const (
	EventDiscovered EventKind = "discovered"
	EventExtracted  EventKind = "extracted"
	EventAnalyzed   EventKind = "analyzed"
	EventDuplicate  EventKind = "duplicate"
	EventStored     EventKind = "stored"
	EventSkipped    EventKind = "skipped"
	EventDeferred   EventKind = "deferred"
	EventFailed     EventKind = "failed"
	EventFinished   EventKind = "finished"
)

// IsTerminal returns true if no further events follow for the document.
func (k EventKind) IsTerminal() bool {
	switch k {
	case EventStored, EventSkipped, EventDeferred, EventFailed:
		return true
	default:
		return false
	}
}

// SkipReason explains why a document was skipped.
type SkipReason string

// Skip reasons.
const (
	SkipAlreadyIngested  SkipReason = "already_ingested"
	SkipExactDuplicate   SkipReason = "exact_duplicate"
	SkipEmptyText        SkipReason = "empty_text"
	SkipUnsupported      SkipReason = "unsupported"
	SkipExtractionFailed SkipReason = "extraction_failed"
)

// Event reports progress of a run. Consumers drain them from a channel.
type Event struct {
	Kind EventKind
	Path string

	// Reason is set for skipped events, and for analyzed events when
	// duplicate detection was skipped.
	Reason string

	// DocumentID is set once the document is stored.
	DocumentID int64

	// DuplicateOf and Similarity are set for duplicate events.
	DuplicateOf int64
	Similarity  float64

	// Err is set for deferred and failed events.
	Err error

	// Summary is set for the finished event.
	Summary *RunSummary

	Time time.Time
}

// Stage names the pipeline step a failure happened in.
type Stage string

// Pipeline stages.
const (
	StageScan     Stage = "scan"
	StageExtract  Stage = "extract"
	StageDedup    Stage = "dedup"
	StageAnalyze  Stage = "analyze"
	StageStore    Stage = "store"
	StageEmbed    Stage = "embed"
	StageValidate Stage = "validate"
)

// Failure is one persisted failure-log entry.
type Failure struct {
	RunID    string    `json:"run_id"`
	Time     time.Time `json:"time"`
	Path     string    `json:"path"`
	Stage    Stage     `json:"stage"`
	Category string    `json:"category"`
	Message  string    `json:"message"`
}

// RunSummary holds the counts of one run.
type RunSummary struct {
	RunID    string
	Root     string
	Started  time.Time
	Finished time.Time

	Processed  int
	Skipped    int
	Failed     int
	Deferred   int
	Duplicates int

	// Cancelled is true if the run stopped before the scan was exhausted.
	Cancelled bool
}

// HasFailures returns true if any document failed or was deferred.
// Deferred documents count as errors for the run that deferred them.
func (s *RunSummary) HasFailures() bool {
	return s.Failed > 0 || s.Deferred > 0
}

// Duration returns the wall time of the run.
func (s *RunSummary) Duration() time.Duration {
	if s.Finished.IsZero() {
		return 0
	}
	return s.Finished.Sub(s.Started)
}
