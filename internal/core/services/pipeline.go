package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/archaeologist/internal/core/domain"
	"github.com/custodia-labs/archaeologist/internal/core/ports/driven"
	"github.com/custodia-labs/archaeologist/internal/core/ports/driving"
	"github.com/custodia-labs/archaeologist/internal/logger"
)

// Ensure Pipeline implements the interface.
var _ driving.IngestService = (*Pipeline)(nil)

// PipelineConfig holds tunables of the ingestion pipeline.
type PipelineConfig struct {
	// SimilarityThreshold is the near-duplicate cutoff.
	// Zero uses DefaultSimilarityThreshold.
	SimilarityThreshold float64
}

// extensionSupporter is implemented by extractors that can report whether
// they read an extension.
type extensionSupporter interface {
	Supports(ext string) bool
}

// Pipeline ingests a directory tree one document at a time:
// scan, extract, exact dedup, analyze, near dedup, store.
//
// Documents are processed sequentially so every near-duplicate comparison
// sees all embeddings stored before it. Only one Run may be active
// against a store at a time.
type Pipeline struct {
	scanner      driven.FileScanner
	extractor    driven.TextExtractor
	store        driven.DocumentStore
	orchestrator *ProviderOrchestrator
	failures     driven.FailureLog
	cfg          PipelineConfig

	now func() time.Time
}

// NewPipeline creates a pipeline. The failure log is optional (can be nil).
func NewPipeline(
	scanner driven.FileScanner,
	extractor driven.TextExtractor,
	store driven.DocumentStore,
	orchestrator *ProviderOrchestrator,
	failures driven.FailureLog,
	cfg PipelineConfig,
) *Pipeline {
	if cfg.SimilarityThreshold <= 0 {
		cfg.SimilarityThreshold = DefaultSimilarityThreshold
	}
	return &Pipeline{
		scanner:      scanner,
		extractor:    extractor,
		store:        store,
		orchestrator: orchestrator,
		failures:     failures,
		cfg:          cfg,
		now:          time.Now,
	}
}

// run carries the state of one Run call.
type run struct {
	opts          domain.RunOptions
	summary       *domain.RunSummary
	events        chan<- domain.Event
	done          <-chan struct{}
	detector      *DuplicateDetector
	wantEmbedding bool
}

// Run ingests every supported file under opts.Root.
//
// Per-document errors never abort the run; they are counted in the summary.
// The returned error is non-nil only for fatal conditions such as a missing
// root or an unreadable store. Cancelling ctx stops the run after the
// document in flight.
func (p *Pipeline) Run(
	ctx context.Context, opts domain.RunOptions, events chan<- domain.Event,
) (*domain.RunSummary, error) {
	r := &run{
		opts:   opts,
		events: events,
		done:   ctx.Done(),
		summary: &domain.RunSummary{
			RunID:   uuid.NewString(),
			Root:    opts.Root,
			Started: p.now(),
		},
		wantEmbedding: !opts.SkipEmbedding && p.orchestrator.HasEmbedding(),
	}

	logger.Section("Ingest")
	logger.Info("Run %s: %s (force=%t, embeddings=%t)", r.summary.RunID, opts.Root, opts.Force, r.wantEmbedding)

	if r.wantEmbedding {
		existing, err := p.store.AllEmbeddings(ctx)
		if err != nil {
			return nil, fmt.Errorf("loading embeddings: %w", err)
		}
		r.detector = NewDuplicateDetector(p.cfg.SimilarityThreshold, existing)
		logger.Debug("Loaded %d embeddings for near-duplicate detection", len(existing))
	}

	paths, errs := p.sources(ctx, opts)

	for path := range paths {
		if ctx.Err() != nil {
			r.summary.Cancelled = true
			break
		}
		// The document in flight finishes even if ctx is cancelled meanwhile.
		p.processOne(context.WithoutCancel(ctx), r, path)
	}
	if ctx.Err() != nil {
		r.summary.Cancelled = true
	}

	// Drain so the scanner goroutine can exit after a cancelled run.
	for range paths {
	}

	if err := <-errs; err != nil {
		return nil, fmt.Errorf("scanning %s: %w", opts.Root, err)
	}

	r.summary.Finished = p.now()
	logger.Info("Run %s finished: %d processed, %d skipped, %d failed, %d deferred, %d duplicates",
		r.summary.RunID, r.summary.Processed, r.summary.Skipped, r.summary.Failed,
		r.summary.Deferred, r.summary.Duplicates)

	p.emit(r, domain.Event{Kind: domain.EventFinished, Path: opts.Root, Summary: r.summary})
	return r.summary, nil
}

// sources streams opts.Paths when set, otherwise a scan of opts.Root.
func (p *Pipeline) sources(ctx context.Context, opts domain.RunOptions) (<-chan string, <-chan error) {
	if len(opts.Paths) == 0 {
		return p.scanner.Scan(ctx, opts.Root)
	}
	paths := make(chan string)
	errs := make(chan error, 1)
	go func() {
		defer close(paths)
		defer close(errs)
		for _, path := range opts.Paths {
			select {
			case paths <- path:
			case <-ctx.Done():
				return
			}
		}
	}()
	return paths, errs
}

// processOne drives one document to a terminal state.
//
//nolint:gocognit,gocyclo // Pipeline state machine with sequential steps
func (p *Pipeline) processOne(ctx context.Context, r *run, path string) {
	logger.Debug("Processing: %s", path)
	p.emit(r, domain.Event{Kind: domain.EventDiscovered, Path: path})

	// 1. Already ingested
	var replacedID int64
	existingID, err := p.store.FindByPath(ctx, path)
	switch {
	case err == nil && !r.opts.Force:
		p.skip(r, path, domain.SkipAlreadyIngested, 0)
		return
	case err == nil:
		replacedID = existingID
	case !errors.Is(err, domain.ErrNotFound):
		p.fail(ctx, r, path, domain.StageDedup, err)
		return
	}

	// 2. Extract
	text, err := p.extractor.Extract(ctx, path)
	if err != nil {
		p.recordFailure(ctx, r, path, domain.StageExtract, err)
		p.skip(r, path, domain.SkipExtractionFailed, 0)
		return
	}

	ext := domain.ExtensionOf(path)
	if strings.TrimSpace(text) == "" {
		reason := domain.SkipEmptyText
		if s, ok := p.extractor.(extensionSupporter); ok && !s.Supports(ext) {
			reason = domain.SkipUnsupported
		}
		p.skip(r, path, reason, 0)
		return
	}
	p.emit(r, domain.Event{Kind: domain.EventExtracted, Path: path})

	// 3. Exact duplicate
	hash := ContentHash(text)
	if !r.opts.Force {
		origID, err := p.store.FindByHash(ctx, hash)
		switch {
		case err == nil:
			p.skip(r, path, domain.SkipExactDuplicate, origID)
			return
		case !errors.Is(err, domain.ErrNotFound):
			p.fail(ctx, r, path, domain.StageDedup, err)
			return
		}
	}

	// 4. Analyze
	meta, vec, err := p.orchestrator.Analyze(ctx, AnalysisInput{
		Text:       text,
		Filename:   filepath.Base(path),
		Extension:  ext,
		SourceType: domain.SourceTypeForExtension(ext),
	}, r.wantEmbedding)
	if err != nil {
		if domain.IsRateLimited(err) {
			p.deferDoc(ctx, r, path, err)
			return
		}
		p.fail(ctx, r, path, domain.StageAnalyze, err)
		return
	}

	// 5. Near duplicate
	record := &domain.IngestRecord{
		Document: domain.Document{
			Filename:      filepath.Base(path),
			Filepath:      path,
			Extension:     ext,
			SourceType:    domain.SourceTypeForExtension(ext),
			Content:       text,
			ContentHash:   hash,
			WordCount:     len(strings.Fields(text)),
			FileCreatedAt: fileTime(path),
			ProcessedAt:   p.now(),
		},
		Metadata: *meta,
		Replace:  replacedID != 0,
	}

	analyzed := domain.Event{Kind: domain.EventAnalyzed, Path: path}
	var dup *domain.Duplicate
	if len(vec) > 0 {
		record.Embedding = &domain.Embedding{
			Vector:     vec,
			Dimensions: len(vec),
			Model:      p.orchestrator.EmbeddingModel(),
			CreatedAt:  p.now(),
		}
		if r.detector != nil {
			dup = r.detector.CheckExcluding(vec, replacedID)
		}
	} else {
		analyzed.Reason = domain.ErrDuplicateDetectionSkipped.Error()
		logger.Debug("%s: %v", path, domain.ErrDuplicateDetectionSkipped)
	}
	p.emit(r, analyzed)

	if dup != nil {
		record.Duplicates = []domain.Duplicate{*dup}
		p.emit(r, domain.Event{
			Kind: domain.EventDuplicate, Path: path,
			DuplicateOf: dup.DuplicateOfID, Similarity: dup.Similarity,
		})
	}

	// 6. Store
	id, err := p.store.Insert(ctx, record)
	if err != nil {
		p.fail(ctx, r, path, domain.StageStore, err)
		return
	}

	if r.detector != nil {
		// A replaced document keeps its id; its old vector leaves the set.
		if replacedID != 0 {
			r.detector.Remove(replacedID)
		}
		if len(vec) > 0 {
			r.detector.Add(id, vec)
		}
	}

	r.summary.Processed++
	if dup != nil {
		r.summary.Duplicates++
		logger.Debug("Stored %s as document %d (duplicate of %d, %.3f)", path, id, dup.DuplicateOfID, dup.Similarity)
	} else {
		logger.Debug("Stored %s as document %d", path, id)
	}
	p.emit(r, domain.Event{Kind: domain.EventStored, Path: path, DocumentID: id})
}

// ==================== Terminal transitions ====================

func (p *Pipeline) skip(r *run, path string, reason domain.SkipReason, origID int64) {
	logger.Debug("Skipping %s: %s", path, reason)
	r.summary.Skipped++
	p.emit(r, domain.Event{
		Kind: domain.EventSkipped, Path: path, Reason: string(reason), DuplicateOf: origID,
	})
}

func (p *Pipeline) deferDoc(ctx context.Context, r *run, path string, err error) {
	logger.Warn("Deferring %s: %v", path, err)
	r.summary.Deferred++
	p.recordFailure(ctx, r, path, domain.StageAnalyze, err)
	p.emit(r, domain.Event{Kind: domain.EventDeferred, Path: path, Err: err})
}

func (p *Pipeline) fail(ctx context.Context, r *run, path string, stage domain.Stage, err error) {
	logger.Warn("Failed to process %s: %v", path, err)
	r.summary.Failed++
	p.recordFailure(ctx, r, path, stage, err)
	p.emit(r, domain.Event{Kind: domain.EventFailed, Path: path, Err: err})
}

func (p *Pipeline) recordFailure(ctx context.Context, r *run, path string, stage domain.Stage, err error) {
	if p.failures == nil {
		return
	}
	failure := domain.Failure{
		RunID:    r.summary.RunID,
		Time:     p.now(),
		Path:     path,
		Stage:    stage,
		Category: domain.ErrorCategory(err),
		Message:  err.Error(),
	}
	if logErr := p.failures.Record(ctx, failure); logErr != nil {
		logger.Error("writing failure log: %v", logErr)
	}
}

// emit sends an event if a channel was given. An event that fits is always
// delivered. Otherwise the send blocks until the consumer reads or the run's
// context is cancelled, which also covers the document in flight.
func (p *Pipeline) emit(r *run, ev domain.Event) {
	if r.events == nil {
		return
	}
	if ev.Time.IsZero() {
		ev.Time = p.now()
	}
	select {
	case r.events <- ev:
		return
	default:
	}
	select {
	case r.events <- ev:
	case <-r.done:
	}
}

// ContentHash returns the hex SHA-256 digest of text.
func ContentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// fileTime returns the modification time of path, zero if unavailable.
func fileTime(path string) time.Time {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}
	}
	return info.ModTime()
}
