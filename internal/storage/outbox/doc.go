// Package outbox journals commits and their upload status in Badger.
//
// Every commit that reached the local datasets gets a Record keyed by its
// commit ID. Commit IDs are ULIDs, so key order is submission order and
// List returns records oldest first. Records still pending after a failed
// upload are picked up by "uicollector upload retry".
package outbox
