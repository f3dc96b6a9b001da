package domain

const unknownDescription = "Unknown"

// Default analysis and ingestion values.
const (
	DefaultSimilarityThreshold = 0.95
	DefaultRequestsPerMinute   = 15
	DefaultTokensPerDay        = 1_500_000
	DefaultEmbeddingDimensions = 768
)

// AIProvider identifies an AI service provider for analysis or embeddings.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"

	// AIProviderGemini is the Google Gemini API.
	AIProviderGemini AIProvider = "gemini"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic, AIProviderGemini:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic || p == AIProviderGemini
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// SupportsAnalysis returns true if the provider can extract metadata.
func (p AIProvider) SupportsAnalysis() bool {
	return p == AIProviderOllama || p == AIProviderOpenAI || p == AIProviderAnthropic
}

// SupportsEmbedding returns true if the provider can produce embeddings.
func (p AIProvider) SupportsEmbedding() bool {
	return p == AIProviderOllama || p == AIProviderOpenAI || p == AIProviderGemini
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	case AIProviderGemini:
		return "Google Gemini (cloud)"
	default:
		return unknownDescription
	}
}

// AnalysisSettings holds analysis provider configuration.
type AnalysisSettings struct {
	// Provider is the metadata extraction provider.
	Provider AIProvider

	// Model is the model name.
	Model string

	// BaseURL is the API endpoint override.
	BaseURL string

	// APIKey is the API key for cloud providers.
	APIKey string
}

// IsConfigured returns true if the analysis provider is set up.
func (a AnalysisSettings) IsConfigured() bool {
	if !a.Provider.SupportsAnalysis() {
		return false
	}
	if a.Provider.RequiresAPIKey() && a.APIKey == "" {
		return false
	}
	return true
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Enabled turns embedding generation on. Near-duplicate detection needs it.
	Enabled bool

	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint override.
	BaseURL string

	// APIKey is the API key for cloud providers.
	APIKey string

	// Dimensions is the requested output dimensionality.
	Dimensions int
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Enabled || !e.Provider.SupportsEmbedding() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// RateLimitSettings bounds calls to quota-limited providers.
type RateLimitSettings struct {
	// RequestsPerMinute is the per-minute request ceiling.
	RequestsPerMinute int

	// TokensPerDay is the daily estimated-token ceiling.
	TokensPerDay int
}

// QuotaUsage is a snapshot of a limited provider's counters.
type QuotaUsage struct {
	Provider           string
	RequestsThisMinute int
	TokensToday        int
	TokensPerDay       int
}

// RemainingTokens returns the tokens left today, or -1 without a daily ceiling.
func (u QuotaUsage) RemainingTokens() int {
	if u.TokensPerDay <= 0 {
		return -1
	}
	return max(u.TokensPerDay-u.TokensToday, 0)
}

// IngestSettings holds pipeline policy.
type IngestSettings struct {
	// SimilarityThreshold is the cosine score at or above which a
	// document is recorded as a near-duplicate.
	SimilarityThreshold float64
}

// StorageSettings holds store location.
type StorageSettings struct {
	// DataDir holds the database. Empty means ~/.archaeologist/data.
	DataDir string
}

// AppSettings is the complete application configuration.
type AppSettings struct {
	Analysis  AnalysisSettings
	Embedding EmbeddingSettings
	RateLimit RateLimitSettings
	Ingest    IngestSettings
	Storage   StorageSettings
}

// DefaultAppSettings returns the default configuration.
// API keys are left empty and must be supplied through config or environment.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Analysis: AnalysisSettings{
			Provider: AIProviderAnthropic,
			Model:    DefaultAnalysisModels()[AIProviderAnthropic],
		},
		Embedding: EmbeddingSettings{
			Enabled:    true,
			Provider:   AIProviderGemini,
			Model:      DefaultEmbeddingModels()[AIProviderGemini],
			Dimensions: DefaultEmbeddingDimensions,
		},
		RateLimit: RateLimitSettings{
			RequestsPerMinute: DefaultRequestsPerMinute,
			TokensPerDay:      DefaultTokensPerDay,
		},
		Ingest: IngestSettings{
			SimilarityThreshold: DefaultSimilarityThreshold,
		},
	}
}

// AllAnalysisProviders returns providers that support analysis.
func AllAnalysisProviders() []AIProvider {
	return []AIProvider{
		AIProviderAnthropic,
		AIProviderOpenAI,
		AIProviderOllama,
	}
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderGemini,
		AIProviderOpenAI,
		AIProviderOllama,
	}
}

// DefaultAnalysisModels returns default models for each analysis provider.
func DefaultAnalysisModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderAnthropic: "claude-3-5-haiku-latest",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderOllama:    "llama3.2",
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderGemini: "gemini-embedding-001",
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-3-small",
	}
}

// EmbeddingDimensions returns the native vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Gemini models
		"gemini-embedding-001": 768,
		"text-embedding-004":   768,
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}
