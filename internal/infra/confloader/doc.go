// Package confloader loads configuration with koanf and watches files for
// changes with fsnotify.
//
// Priority (highest to lowest):
//
//  1. Command-line flags (via LoadMap)
//  2. Environment variables (GATECAM_ prefix)
//  3. Configuration file (YAML)
//  4. Values already present in the target struct
package confloader
