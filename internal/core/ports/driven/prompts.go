package driven

// PromptStore provides access to analysis prompt templates.
// Implementations may load prompts from files or embed them in the binary.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// If the prompt is not customised, implementations return the built-in default.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	// This is useful when prompts may have been edited on disk.
	Reload()
}

// Well-known prompt names used throughout the application.
const (
	// PromptAnalysisSystem is the system prompt for metadata extraction.
	// This prompt has no format placeholders.
	PromptAnalysisSystem = "analysis_system"

	// PromptAnalysisUser frames one document for analysis.
	// The template expects %s placeholders for filename, extension,
	// source type and content, in that order.
	PromptAnalysisUser = "analysis_user"
)

// PromptStoreAware is an optional interface for providers that can use custom prompts.
type PromptStoreAware interface {
	// SetPromptStore sets the prompt store for loading customisable prompts.
	// If not set, the provider uses built-in default prompts.
	SetPromptStore(store PromptStore)
}
