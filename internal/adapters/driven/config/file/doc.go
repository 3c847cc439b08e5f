// Package file provides file-based implementations of driven port interfaces.
// These adapters persist data to the local filesystem.
//
// Adapters:
//   - ConfigStore: TOML-based configuration storage
//   - PromptStore: user-editable agent prompts with embedded defaults
//   - Watcher: fsnotify-based reload of the above while a command runs
package file
