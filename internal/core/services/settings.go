package services

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/custodia-labs/archaeologist/internal/core/domain"
	"github.com/custodia-labs/archaeologist/internal/core/ports/driven"
	"github.com/custodia-labs/archaeologist/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	KeyAnalysisProvider    = "analysis.provider"
	KeyAnalysisModel       = "analysis.model"
	KeyAnalysisBaseURL     = "analysis.base_url"
	KeyAnalysisAPIKey      = "analysis.api_key"
	KeyEmbedEnabled        = "embedding.enabled"
	KeyEmbedProvider       = "embedding.provider"
	KeyEmbedModel          = "embedding.model"
	KeyEmbedBaseURL        = "embedding.base_url"
	KeyEmbedAPIKey         = "embedding.api_key"
	KeyEmbedDimensions     = "embedding.dimensions"
	KeyRequestsPerMinute   = "ratelimit.requests_per_minute"
	KeyTokensPerDay        = "ratelimit.tokens_per_day"
	KeySimilarityThreshold = "ingest.similarity_threshold"
	KeyDataDir             = "storage.data_dir"
)

type keyKind int

const (
	kindString keyKind = iota
	kindProvider
	kindInt
	kindFloat
	kindBool
)

var settingKeys = map[string]keyKind{
	KeyAnalysisProvider:    kindProvider,
	KeyAnalysisModel:       kindString,
	KeyAnalysisBaseURL:     kindString,
	KeyAnalysisAPIKey:      kindString,
	KeyEmbedEnabled:        kindBool,
	KeyEmbedProvider:       kindProvider,
	KeyEmbedModel:          kindString,
	KeyEmbedBaseURL:        kindString,
	KeyEmbedAPIKey:         kindString,
	KeyEmbedDimensions:     kindInt,
	KeyRequestsPerMinute:   kindInt,
	KeyTokensPerDay:        kindInt,
	KeySimilarityThreshold: kindFloat,
	KeyDataDir:             kindString,
}

// SettingKeys returns every writable configuration key, sorted.
func SettingKeys() []string {
	keys := make([]string, 0, len(settingKeys))
	for k := range settingKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
}

// NewSettingsService creates a new settings service.
// The validator is optional; without it Validate only checks values.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
	}
}

// Get retrieves current application settings.
// A provider change without a model picks that provider's default model.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	analysisProvider := s.getProvider(KeyAnalysisProvider, defaults.Analysis.Provider)
	embedProvider := s.getProvider(KeyEmbedProvider, defaults.Embedding.Provider)
	embedModel := s.getString(KeyEmbedModel, domain.DefaultEmbeddingModels()[embedProvider])

	dims := s.getInt(KeyEmbedDimensions, 0)
	if dims == 0 {
		dims = domain.EmbeddingDimensions()[embedModel]
	}

	settings := &domain.AppSettings{
		Analysis: domain.AnalysisSettings{
			Provider: analysisProvider,
			Model:    s.getString(KeyAnalysisModel, domain.DefaultAnalysisModels()[analysisProvider]),
			BaseURL:  s.configStore.GetString(KeyAnalysisBaseURL), // No default - empty is valid for cloud providers
			APIKey:   s.configStore.GetString(KeyAnalysisAPIKey),
		},
		Embedding: domain.EmbeddingSettings{
			Enabled:    s.getBool(KeyEmbedEnabled, defaults.Embedding.Enabled),
			Provider:   embedProvider,
			Model:      embedModel,
			BaseURL:    s.configStore.GetString(KeyEmbedBaseURL),
			APIKey:     s.configStore.GetString(KeyEmbedAPIKey),
			Dimensions: dims,
		},
		RateLimit: domain.RateLimitSettings{
			RequestsPerMinute: s.getInt(KeyRequestsPerMinute, defaults.RateLimit.RequestsPerMinute),
			TokensPerDay:      s.getInt(KeyTokensPerDay, defaults.RateLimit.TokensPerDay),
		},
		Ingest: domain.IngestSettings{
			SimilarityThreshold: s.getFloat(KeySimilarityThreshold, defaults.Ingest.SimilarityThreshold),
		},
		Storage: domain.StorageSettings{
			DataDir: s.configStore.GetString(KeyDataDir),
		},
	}

	return settings, nil
}

// Set parses value for key and persists it.
func (s *SettingsService) Set(key, value string) error {
	kind, ok := settingKeys[key]
	if !ok {
		return fmt.Errorf("unknown setting %q: %w", key, domain.ErrInvalidInput)
	}
	value = strings.TrimSpace(value)

	var parsed any
	switch kind {
	case kindProvider:
		p := domain.AIProvider(strings.ToLower(value))
		if !p.IsValid() {
			return fmt.Errorf("unknown provider %q: %w", value, domain.ErrUnsupportedType)
		}
		if key == KeyAnalysisProvider && !p.SupportsAnalysis() {
			return fmt.Errorf("%s does not support analysis: %w", p, domain.ErrUnsupportedType)
		}
		if key == KeyEmbedProvider && !p.SupportsEmbedding() {
			return fmt.Errorf("%s does not support embeddings: %w", p, domain.ErrUnsupportedType)
		}
		parsed = p.String()
	case kindInt:
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("%s must be a non-negative integer: %w", key, domain.ErrInvalidInput)
		}
		parsed = n
	case kindFloat:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f <= 0 || f > 1 {
			return fmt.Errorf("%s must be in (0, 1]: %w", key, domain.ErrInvalidInput)
		}
		parsed = f
	case kindBool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s must be true or false: %w", key, domain.ErrInvalidInput)
		}
		parsed = b
	default:
		parsed = value
	}

	if err := s.configStore.Set(key, parsed); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Validate checks current settings and pings the configured providers.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	if !settings.Analysis.IsConfigured() {
		return fmt.Errorf("analysis provider %q is not configured: %w",
			settings.Analysis.Provider, domain.ErrAnalysisUnavailable)
	}
	if settings.Embedding.Enabled && !settings.Embedding.IsConfigured() {
		return fmt.Errorf("embedding provider %q is not configured: %w",
			settings.Embedding.Provider, domain.ErrEmbeddingUnavailable)
	}
	if t := settings.Ingest.SimilarityThreshold; t <= 0 || t > 1 {
		return fmt.Errorf("similarity threshold %v must be in (0, 1]: %w", t, domain.ErrInvalidInput)
	}

	if s.aiValidator == nil {
		return nil
	}
	if err := s.aiValidator.ValidateAnalysis(&settings.Analysis); err != nil {
		return fmt.Errorf("analysis: %w", err)
	}
	if err := s.aiValidator.ValidateEmbedding(&settings.Embedding); err != nil {
		return fmt.Errorf("embedding: %w", err)
	}
	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ConfigPath returns the location of the configuration file.
func (s *SettingsService) ConfigPath() string {
	return s.configStore.Path()
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	val := s.configStore.GetFloat(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

// MaskKey hides all but the last four characters of an API key.
func MaskKey(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 4 {
		return "****"
	}
	return strings.Repeat("*", 8) + key[len(key)-4:]
}
