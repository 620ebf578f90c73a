// Package handler implements the sink endpoints and the uploads
// directory they write to.
package handler
