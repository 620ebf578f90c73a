package domain

import "time"

// CommitStatus is the user-visible outcome of one commit.
type CommitStatus string

const (
	// CommitSuccess means both datasets were appended and the upload succeeded.
	CommitSuccess CommitStatus = "success"

	// CommitLocalOnly means both datasets were appended but the upload failed
	// or is disabled. Local data is intact.
	CommitLocalOnly CommitStatus = "local_only"

	// CommitPartial means only the first dataset was appended.
	CommitPartial CommitStatus = "partial"

	// CommitFailed means nothing was appended. The draft is kept for retry.
	CommitFailed CommitStatus = "failed"
)

// CommitRequest is a finalized draft handed to the commit pipeline.
type CommitRequest struct {
	ID          string
	DraftID     string
	Pair        AnnotationPair
	Image       []byte // PNG encoded
	SubmittedAt time.Time
}

// CommitResult reports the outcome of one CommitRequest.
type CommitResult struct {
	ID      string
	DraftID string
	Status  CommitStatus

	// Appended lists the datasets that now contain the pair, in append order.
	Appended []string

	// StoredPaths are the paths reported by the sink on upload success.
	StoredPaths map[string]string

	// Err is the failure behind a non-success status.
	Err error

	Duration time.Duration
}

// Committed reports whether the pair reached at least one dataset.
func (r *CommitResult) Committed() bool {
	return len(r.Appended) > 0
}
