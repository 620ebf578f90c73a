// Package main provides the entry point for uicollector.
//
// uicollector captures screenshots from an Android device, lets the
// operator outline a UI element with four corners plus a center point,
// and records both annotations in the local datasets before sending
// them to the upload sink.
//
// Usage:
//
//	uicollector annotate --serial emulator-5554
//	uicollector annotate --file screen.png --no-upload
//	uicollector datasets list
//	uicollector upload retry
package main
