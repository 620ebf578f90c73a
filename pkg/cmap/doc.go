// Package cmap provides a string-keyed map split into independently
// locked shards.
//
// The sink keeps one rate limiter per client address in a Map; lookups
// for different clients rarely contend on the same lock.
package cmap
