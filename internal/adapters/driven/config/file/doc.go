// Package file provides file-based implementations of driven port interfaces.
// These adapters persist data under ~/.archaeologist.
//
// Adapters:
//   - ConfigStore: TOML configuration with environment overrides
//   - PromptStore: user-editable analysis prompts
//   - FailureLog: append-only JSON Lines failure log
package file
