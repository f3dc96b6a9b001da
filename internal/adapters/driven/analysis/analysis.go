// Package analysis holds what the analysis provider adapters share: the
// default prompts, the metadata schema and the response decoding.
//
// Provider implementations live in the sub-packages anthropic, openai and ollama.
package analysis

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/custodia-labs/archaeologist/internal/core/domain"
	"github.com/custodia-labs/archaeologist/internal/core/ports/driven"
)

// ToolName is the name of the structured-output tool the providers request.
const ToolName = "extract_metadata"

// MaxOutputTokens caps the response size of an analysis call.
const MaxOutputTokens = 2048

//nolint:lll // Prompt content is intentionally long and should not be wrapped.
var defaultPrompts = map[string]string{
	driven.PromptAnalysisSystem: `You are a precise document analyst for the archaeologist document archive.
Your task is to extract metadata from unstructured texts.
Analyze the content, context, and technical nature of the document.

Guidelines:
- Detect the primary language (ISO 639-1 code)
- Identify the main topic concisely
- Extract meaningful keywords (avoid generic terms)
- Classify content type accurately
- Determine if text is a prompt, LLM output, code, documentation, etc.
- If the document references a git project, extract its name
- Provide a confidence score (0.0-1.0) for your analysis`,

	driven.PromptAnalysisUser: `Analyze the following document:

Filename: %s
Extension: %s
Type: %s

Content:
%s
`,
}

// jsonInstruction is appended to the system prompt for providers without tool use.
const jsonInstruction = `

Respond with a single JSON object with exactly these fields:
language (string), topic (string), keywords (array of strings, at most 10),
summary (string, at most 3 sentences), content_type (one of system_prompt,
llm_output, code, documentation, email, notes, other), is_prompt (boolean),
is_llm_output (boolean), git_project (string, empty if none),
confidence (number between 0 and 1).`

// DefaultPrompts returns a copy of the built-in prompt templates by name.
func DefaultPrompts() map[string]string {
	out := make(map[string]string, len(defaultPrompts))
	for k, v := range defaultPrompts {
		out[k] = v
	}
	return out
}

// LoadPrompt returns the named prompt from store, or the built-in default
// when store is nil or fails.
func LoadPrompt(store driven.PromptStore, name string) string {
	if store != nil {
		if prompt, err := store.Load(name); err == nil && strings.TrimSpace(prompt) != "" {
			return prompt
		}
	}
	return defaultPrompts[name]
}

// SystemPrompt returns the analysis system prompt.
func SystemPrompt(store driven.PromptStore) string {
	return LoadPrompt(store, driven.PromptAnalysisSystem)
}

// JSONSystemPrompt returns the system prompt extended with the JSON field list.
func JSONSystemPrompt(store driven.PromptStore) string {
	return SystemPrompt(store) + jsonInstruction
}

// UserPrompt frames one document for analysis.
func UserPrompt(store driven.PromptStore, req driven.AnalysisRequest) string {
	tmpl := LoadPrompt(store, driven.PromptAnalysisUser)
	if strings.Count(tmpl, "%s") != 4 {
		tmpl = defaultPrompts[driven.PromptAnalysisUser]
	}
	return fmt.Sprintf(tmpl, req.Filename, req.Extension, req.SourceType, req.Text)
}

// Schema returns the JSON schema of the metadata object.
func Schema() map[string]any {
	contentTypes := make([]string, 0, len(domain.AllContentTypes()))
	for _, ct := range domain.AllContentTypes() {
		contentTypes = append(contentTypes, string(ct))
	}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"language": map[string]any{
				"type": "string", "description": "ISO 639-1 language code (e.g., 'de', 'en', 'fr')",
			},
			"topic": map[string]any{
				"type": "string", "description": "Main topic in 3-5 keywords",
			},
			"keywords": map[string]any{
				"type": "array", "items": map[string]any{"type": "string"},
				"maxItems": domain.MaxKeywords, "description": "Key entities or concepts",
			},
			"summary": map[string]any{
				"type": "string", "description": "Concise summary (max 3 sentences)",
			},
			"content_type": map[string]any{
				"type": "string", "enum": contentTypes, "description": "Classification of content type",
			},
			"is_prompt": map[string]any{
				"type": "boolean", "description": "Is this a system prompt or instruction?",
			},
			"is_llm_output": map[string]any{
				"type": "boolean", "description": "Is this output from an LLM?",
			},
			"git_project": map[string]any{
				"type": "string", "description": "Related git project name (or empty string)",
			},
			"confidence": map[string]any{
				"type": "number", "minimum": 0.0, "maximum": 1.0, "description": "Confidence score of analysis",
			},
		},
		"required": []string{
			"language", "topic", "keywords", "summary", "content_type",
			"is_prompt", "is_llm_output", "git_project", "confidence",
		},
	}
}

// wireMetadata is the metadata object as providers emit it.
type wireMetadata struct {
	Language    string   `json:"language"`
	Topic       string   `json:"topic"`
	Keywords    []string `json:"keywords"`
	Summary     string   `json:"summary"`
	ContentType string   `json:"content_type"`
	IsPrompt    bool     `json:"is_prompt"`
	IsLLMOutput bool     `json:"is_llm_output"`
	GitProject  string   `json:"git_project"`
	Confidence  float64  `json:"confidence"`
}

// ParseMetadata decodes a metadata object. Text around the outermost JSON
// object (such as a markdown code fence) is ignored.
func ParseMetadata(raw []byte) (*domain.Metadata, error) {
	text := strings.TrimSpace(string(raw))
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return nil, fmt.Errorf("no JSON object in response")
	}

	var w wireMetadata
	if err := json.Unmarshal([]byte(text[start:end+1]), &w); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}

	return &domain.Metadata{
		Language:    w.Language,
		Topic:       w.Topic,
		Keywords:    w.Keywords,
		ContentType: domain.ContentType(w.ContentType),
		Summary:     w.Summary,
		IsPrompt:    w.IsPrompt,
		IsLLMOutput: w.IsLLMOutput,
		Project:     w.GitProject,
		Confidence:  w.Confidence,
	}, nil
}
