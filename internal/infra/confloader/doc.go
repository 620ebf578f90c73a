// Package confloader loads layered configuration with koanf.
//
// Priority (highest to lowest):
//
//  1. Command-line flags (LoadMap)
//  2. Environment variables (UICOLLECTOR_SECTION_KEY)
//  3. Configuration file (YAML)
//  4. Values already present in the target struct
//
// Watcher reports edits of the configuration file through fsnotify so
// long-running commands can re-apply settings such as the log level.
package confloader
