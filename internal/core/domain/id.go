package domain

import (
	"crypto/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// ID prefixes.
const (
	DraftIDPrefix  = "ucdr-"
	CommitIDPrefix = "uccm-"
)

// entropy is shared so IDs created within the same millisecond still
// sort in creation order.
var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// NewDraftID generates the identifier of one annotation cycle.
// Format: ucdr-{ulid_lowercase}.
func NewDraftID() (string, error) {
	return newPrefixedULID(DraftIDPrefix)
}

// NewCommitID generates the identifier of one committed pair.
// Commit IDs sort in submission order; the outbox relies on it.
func NewCommitID() (string, error) {
	return newPrefixedULID(CommitIDPrefix)
}

func newPrefixedULID(prefix string) (string, error) {
	entropyMu.Lock()
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	entropyMu.Unlock()
	if err != nil {
		return "", ErrInternal.WithCause(err)
	}
	return prefix + strings.ToLower(id.String()), nil
}
