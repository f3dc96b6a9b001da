package cli

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/archaeologist/internal/core/domain"
	"github.com/custodia-labs/archaeologist/internal/core/ports/driving"
	"github.com/custodia-labs/archaeologist/internal/scanner"
)

// mockSearchService implements driving.SearchService.
type mockSearchService struct {
	results  []domain.SearchResult
	err      error
	lastOpts domain.SearchOptions
}

func (m *mockSearchService) Search(_ context.Context, _ string, opts domain.SearchOptions) ([]domain.SearchResult, error) {
	m.lastOpts = opts
	return m.results, m.err
}

// mockDocumentService implements driving.DocumentService.
type mockDocumentService struct {
	details    *domain.DocumentDetails
	documents  []domain.Document
	duplicates []domain.Duplicate
	stats      *domain.Statistics
	failures   []domain.Failure
	err        error
}

func (m *mockDocumentService) Get(_ context.Context, _ int64) (*domain.DocumentDetails, error) {
	return m.details, m.err
}

func (m *mockDocumentService) List(_ context.Context, _, _ int) ([]domain.Document, error) {
	return m.documents, m.err
}

func (m *mockDocumentService) Duplicates(_ context.Context, _ int) ([]domain.Duplicate, error) {
	return m.duplicates, m.err
}

func (m *mockDocumentService) Statistics(_ context.Context) (*domain.Statistics, error) {
	return m.stats, m.err
}

func (m *mockDocumentService) Failures(_ context.Context, _ int) ([]domain.Failure, error) {
	return m.failures, m.err
}

// mockSettingsService implements driving.SettingsService.
type mockSettingsService struct {
	settings    domain.AppSettings
	err         error
	validateErr error
	setKey      string
	setValue    string
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	if m.err != nil {
		return nil, m.err
	}
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Set(key, value string) error {
	m.setKey, m.setValue = key, value
	return m.err
}

func (m *mockSettingsService) Validate() error {
	return m.validateErr
}

func (m *mockSettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

func (m *mockSettingsService) ConfigPath() string {
	return "/home/test/.archaeologist/config.toml"
}

// mockIngestService implements driving.IngestService. It emits events and
// returns summary.
type mockIngestService struct {
	events  []domain.Event
	summary domain.RunSummary
	err     error
	opts    []domain.RunOptions
}

func (m *mockIngestService) Run(ctx context.Context, opts domain.RunOptions, events chan<- domain.Event) (*domain.RunSummary, error) {
	m.opts = append(m.opts, opts)
	if m.err != nil {
		return nil, m.err
	}
	for _, ev := range m.events {
		select {
		case events <- ev:
		case <-ctx.Done():
		}
	}
	s := m.summary
	s.Root = opts.Root
	return &s, nil
}

// mockBackfill implements driving.EmbeddingBackfill.
type mockBackfill struct {
	result driving.BackfillResult
	err    error
	limit  int
}

func (m *mockBackfill) Backfill(_ context.Context, limit int) (*driving.BackfillResult, error) {
	m.limit = limit
	if m.err != nil {
		return nil, m.err
	}
	r := m.result
	return &r, nil
}

// testServices are the mocks installed by setupTestServices.
type testServices struct {
	search   *mockSearchService
	document *mockDocumentService
	settings *mockSettingsService
	ingest   *mockIngestService
	backfill *mockBackfill

	runtimeErr    error
	quota         *domain.QuotaUsage
	withEmbedding []bool
	closed        int
}

func sampleDetails() *domain.DocumentDetails {
	return &domain.DocumentDetails{
		Document: domain.Document{
			ID:          1,
			Filename:    "notes.md",
			Filepath:    "/archive/notes.md",
			Extension:   ".md",
			SourceType:  domain.SourceTypeMarkdown,
			Content:     "Quarterly roadmap notes",
			WordCount:   3,
			ProcessedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		},
		Metadata: &domain.Metadata{
			Language:    "en",
			Topic:       "roadmap",
			Keywords:    []string{"roadmap", "planning"},
			ContentType: domain.ContentTypeNotes,
			Summary:     "Planning notes for the quarter.",
			Confidence:  0.9,
		},
		EmbeddingModel: "text-embedding-3-small",
		EmbeddingDims:  1536,
	}
}

// setupTestServices installs mocks for every service and resets command
// flags. The returned func restores the previous state.
func setupTestServices() (*testServices, func()) {
	ts := &testServices{
		search: &mockSearchService{
			results: []domain.SearchResult{{
				Document: domain.Document{ID: 1, Filename: "notes.md", Filepath: "/archive/notes.md"},
				Metadata: &domain.Metadata{Topic: "roadmap", Language: "en"},
				Rank:     -1.25,
				Snippet:  "quarterly [roadmap]\nnotes",
			}},
		},
		document: &mockDocumentService{
			details:   sampleDetails(),
			documents: []domain.Document{sampleDetails().Document},
			stats: &domain.Statistics{
				TotalDocuments:  3,
				TotalEmbeddings: 2,
				TotalDuplicates: 1,
				BySourceType:    map[string]int{"markdown": 2, "pdf": 1},
				ByLanguage:      map[string]int{"en": 3},
			},
		},
		settings: &mockSettingsService{settings: domain.DefaultAppSettings()},
		ingest: &mockIngestService{
			summary: domain.RunSummary{RunID: "run-1", Processed: 1},
		},
		backfill: &mockBackfill{},
	}

	prev := Services{
		Search:         searchService,
		Document:       documentService,
		Settings:       settingsService,
		Runtime:        runtimeFactory,
		FailureLogPath: failureLogPath,
	}

	SetServices(Services{
		Search:   ts.search,
		Document: ts.document,
		Settings: ts.settings,
		Runtime: func(_ context.Context, withEmbedding bool) (*Runtime, error) {
			ts.withEmbedding = append(ts.withEmbedding, withEmbedding)
			if ts.runtimeErr != nil {
				return nil, ts.runtimeErr
			}
			rt := &Runtime{
				Ingest:   ts.ingest,
				Backfill: ts.backfill,
				Close:    func() { ts.closed++ },
			}
			if ts.quota != nil {
				rt.Quota = func() (domain.QuotaUsage, bool) { return *ts.quota, true }
			}
			return rt, nil
		},
		FailureLogPath: "/home/test/.archaeologist/failures.jsonl",
	})
	resetFlags()

	return ts, func() {
		SetServices(prev)
		resetFlags()
	}
}

// resetFlags restores every command flag to its default.
func resetFlags() {
	ingestForce, ingestNoEmbed, ingestProgress = false, false, progressAuto
	searchLimit, searchJSON, searchRaw = domain.DefaultSearchLimit, false, false
	showContent = false
	listOffset, listLimit, duplicatesLimit, failuresLimit = 0, 50, 50, 20
	embedBackfill, embedLimit = false, 0
	browseLimit = domain.DefaultSearchLimit
	watchDebounce, watchForce, watchNoEmbed = scanner.DefaultDebounce, false, false
}

// execute runs the root command with args and returns the output, the
// mapped exit code and the command error.
func execute(t *testing.T, args ...string) (out string, code int, err error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err = rootCmd.Execute()
	code = exitCode(rootCmd, err)
	return buf.String(), code, err
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil", err: nil, want: ExitOK},
		{name: "plain error", err: errors.New("boom"), want: ExitFailure},
		{name: "fatal", err: fatal(errors.New("no store")), want: ExitFatal},
		{name: "wrapped exit error", err: &ExitError{Code: ExitFailure}, want: ExitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := new(bytes.Buffer)
			rootCmd.SetErr(buf)
			assert.Equal(t, tt.want, exitCode(rootCmd, tt.err))
			if tt.err != nil && tt.name != "wrapped exit error" {
				assert.Contains(t, buf.String(), "Error:")
			}
		})
	}
}

func TestExitError(t *testing.T) {
	inner := errors.New("inner")
	err := &ExitError{Code: ExitFatal, Err: inner}

	assert.Equal(t, "inner", err.Error())
	assert.ErrorIs(t, err, inner)
	assert.Equal(t, "exit status 1", (&ExitError{Code: 1}).Error())
}

func TestSetVersion_IgnoresEmpty(t *testing.T) {
	original := version
	defer func() { version = original }()

	SetVersion("1.2.3")
	SetVersion("")

	assert.Equal(t, "1.2.3", version)
}

func TestNewRuntime_NotConfigured(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	runtimeFactory = nil

	_, code, err := execute(t, "embed", "--backfill")

	assert.Error(t, err)
	assert.Equal(t, ExitFatal, code)
	assert.Contains(t, err.Error(), "ingestion not configured")
}

func TestNewRuntime_PrintsWarnings(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	runtimeFactory = func(_ context.Context, _ bool) (*Runtime, error) {
		return &Runtime{Backfill: ts.backfill, Warnings: []string{"embedding provider unreachable"}}, nil
	}

	out, _, err := execute(t, "embed", "--backfill")

	assert.NoError(t, err)
	assert.Contains(t, out, "Warning: embedding provider unreachable")
}

func TestRuntime_PrintQuota(t *testing.T) {
	tests := []struct {
		name  string
		quota func() (domain.QuotaUsage, bool)
		want  string
	}{
		{name: "no reporter", quota: nil, want: ""},
		{
			name:  "untracked provider",
			quota: func() (domain.QuotaUsage, bool) { return domain.QuotaUsage{}, false },
			want:  "",
		},
		{
			name: "nothing used",
			quota: func() (domain.QuotaUsage, bool) {
				return domain.QuotaUsage{Provider: "gemini", TokensPerDay: 100}, true
			},
			want: "",
		},
		{
			name: "daily ceiling",
			quota: func() (domain.QuotaUsage, bool) {
				return domain.QuotaUsage{Provider: "gemini", TokensToday: 30, TokensPerDay: 100}, true
			},
			want: "Embedding quota (gemini): 30 tokens used, 70 remaining today\n",
		},
		{
			name: "no ceiling",
			quota: func() (domain.QuotaUsage, bool) {
				return domain.QuotaUsage{Provider: "gemini", TokensToday: 30}, true
			},
			want: "Embedding quota (gemini): 30 tokens used\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := new(bytes.Buffer)
			rootCmd.SetOut(buf)
			defer rootCmd.SetOut(nil)

			rt := &Runtime{Quota: tt.quota}
			rt.printQuota(rootCmd)
			assert.Equal(t, tt.want, buf.String())
		})
	}
}
