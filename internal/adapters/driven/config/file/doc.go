// Package file provides file-based implementations of driven port interfaces.
// These adapters persist data to the local filesystem.
//
// Adapters:
//   - ConfigStore: TOML-based configuration storage (~/.docuquery/config.toml)
//   - PromptStore: user-editable answer prompts (~/.docuquery/prompts/)
package file
