// Package dataset provides the cumulative on-disk annotation datasets.
//
// Each dataset is a single JSON array file (<name>.json) whose element
// order is the commit order. Appends rewrite the whole array into a
// temporary file in the same directory, fsync it and rename it over the
// target, so a crash leaves either the old or the new array in place.
package dataset
