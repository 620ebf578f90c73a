// Package storage provides the storage engine for the collector.
//
// The engine combines the cumulative datasets, the screenshot directory
// and the commit outbox under one data directory:
//
//	<data_dir>/cube_annotations.json
//	<data_dir>/center_points.json
//	<data_dir>/images/screenshot_<unix>.png
//	<data_dir>/outbox/            (Badger)
//
// All file writes go through a temporary file and an atomic rename.
package storage
