// Package file provides file-based implementations of driven port interfaces.
// These adapters persist data under ~/.justask.
//
// Adapters:
//   - ConfigStore: TOML-based configuration storage
//   - PromptStore: user-editable prompt templates, one .txt file per prompt
//   - Watcher: reloads both when their files change on disk
package file
