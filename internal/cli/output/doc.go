// Package output renders command results for the uicollector CLI.
//
// Results are rendered as an aligned table (default), JSON or YAML.
// Struct fields use their json tag as column name; a `table:"-"` tag
// hides a field and `table:"wide"` shows it only with --wide.
package output
