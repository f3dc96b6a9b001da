package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/archaeologist/internal/core/services"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and change the analysis provider, embedding provider, rate limits
and ingestion options.

Settings live in ~/.archaeologist/config.toml. API keys can also be supplied
through ANTHROPIC_API_KEY, OPENAI_API_KEY, GEMINI_API_KEY or GOOGLE_API_KEY,
which take precedence over the file.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	Args:  cobra.NoArgs,
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set one setting",
	Long:  "Set one setting. Valid keys:\n  " + strings.Join(services.SettingKeys(), "\n  "),
	Args:  cobra.ExactArgs(2),
	RunE:  runSettingsSet,
}

var settingsValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check that the configured providers are reachable",
	Args:  cobra.NoArgs,
	RunE:  runSettingsValidate,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsValidateCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Printf("Config file: %s\n", settingsService.ConfigPath())
	cmd.Println()

	a := settings.Analysis
	cmd.Println("[Analysis]")
	cmd.Printf("  Provider: %s\n", a.Provider.Description())
	cmd.Printf("  Model: %s\n", a.Model)
	if a.BaseURL != "" || a.Provider.IsLocal() {
		cmd.Printf("  Base URL: %s\n", orDefault(a.BaseURL))
	}
	if a.Provider.RequiresAPIKey() {
		cmd.Printf("  API Key: %s\n", maskedOrUnset(a.APIKey))
	}
	cmd.Printf("  Status: %s\n", configuredStatus(a.IsConfigured()))
	cmd.Println()

	e := settings.Embedding
	cmd.Println("[Embedding]")
	if !e.Enabled {
		cmd.Println("  Enabled: no")
	} else {
		cmd.Printf("  Provider: %s\n", e.Provider.Description())
		cmd.Printf("  Model: %s\n", e.Model)
		cmd.Printf("  Dimensions: %d\n", e.Dimensions)
		if e.BaseURL != "" || e.Provider.IsLocal() {
			cmd.Printf("  Base URL: %s\n", orDefault(e.BaseURL))
		}
		if e.Provider.RequiresAPIKey() {
			cmd.Printf("  API Key: %s\n", maskedOrUnset(e.APIKey))
		}
		cmd.Printf("  Status: %s\n", configuredStatus(e.IsConfigured()))
	}
	cmd.Println()

	cmd.Println("[Rate Limit]")
	cmd.Printf("  Requests per minute: %d\n", settings.RateLimit.RequestsPerMinute)
	cmd.Printf("  Tokens per day: %d\n", settings.RateLimit.TokensPerDay)
	cmd.Println()

	cmd.Println("[Ingest]")
	cmd.Printf("  Similarity threshold: %.2f\n", settings.Ingest.SimilarityThreshold)
	if settings.Storage.DataDir != "" {
		cmd.Printf("  Data directory: %s\n", settings.Storage.DataDir)
	}

	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	key, value := args[0], args[1]
	if err := settingsService.Set(key, value); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}

	shown := value
	if strings.HasSuffix(key, ".api_key") {
		shown = services.MaskKey(value)
	}
	cmd.Printf("Set %s = %s\n", key, shown)
	return nil
}

func runSettingsValidate(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	if err := settingsService.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	cmd.Println("Configuration is valid.")
	return nil
}

func maskedOrUnset(key string) string {
	if key == "" {
		return "(not set)"
	}
	return services.MaskKey(key)
}

func configuredStatus(ok bool) string {
	if ok {
		return "configured"
	}
	return "not configured"
}

func orDefault(s string) string {
	if s == "" {
		return "(default)"
	}
	return s
}
