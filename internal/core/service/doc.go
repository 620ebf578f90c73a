// Package service runs committed annotation pairs through persistence
// and upload.
//
// CommitService owns a single worker goroutine. Commits are processed
// strictly in submission order:
//
//  1. save the screenshot
//  2. append the cube annotation, then the center point
//  3. record the commit in the upload journal
//  4. upload the screenshot with both full datasets
//
// Each commit yields exactly one domain.CommitResult on Results(). An
// upload failure never rolls back local data; the journal keeps the
// record pending so RetryPending can resend it later.
package service
