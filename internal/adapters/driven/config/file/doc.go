// Package file provides file-based implementations of driven port interfaces.
// These adapters read and write the local filesystem.
//
// Adapters:
//   - Loader: TOML configuration with environment overrides and validation
//   - PromptStore: user-editable LLM prompt templates
package file
