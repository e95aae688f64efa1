// Package ledger implements the persisted record of completed work
// items. The ledger is the only authority on "already processed":
// absence of a key means not done, never unknown.
package ledger

import (
	"time"

	"github.com/melodyhei/handwriten2md/constants"
)

// Ledger maps a work-item id to its human-readable completion time.
type Ledger map[string]string

// Contains reports whether id has been recorded as processed.
func (l Ledger) Contains(id string) bool {
	_, ok := l[id]
	return ok
}

// Set inserts or overwrites the entry for id. A later write for the
// same id replaces the timestamp, not the existence.
func (l Ledger) Set(id string, at time.Time) {
	l[id] = at.Format(constants.TimestampLayout)
}

// Store persists a Ledger across process restarts.
//
// Load returns an empty ledger (not an error) when no persisted state
// exists; malformed persisted state is a hard error. Record inserts or
// overwrites one entry and persists the entire ledger back to storage.
// Clear deletes the persisted ledger, resetting to nothing processed.
type Store interface {
	Load() (Ledger, error)
	Record(id string, at time.Time) error
	Clear() error
}
