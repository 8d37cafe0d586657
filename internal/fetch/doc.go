// Package fetch loads pages of records from a record source and owns the
// fetch-side state: the current records, the loading flag, the last error
// and the collection total.
//
// A Loader serializes nothing but its own bookkeeping. Each Load gets a new
// generation and request id; starting a Load cancels the previous request's
// context, and a result arriving for an older generation is dropped with
// ErrSuperseded. Retry re-issues the last request under a new generation.
//
// Failures are classified into a *Error with a Kind and a user-facing
// message. Every kind is retryable.
package fetch
