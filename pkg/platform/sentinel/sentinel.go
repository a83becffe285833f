package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and clients return these
// (optionally wrapped) so callers can branch with errors.Is:
// - ErrNotFound: the record or remote resource does not exist
// - ErrConflict: the resource already exists (create of an existing user or thread)
// - ErrUnavailable: the dependency timed out, refused, or is short-circuited
// - ErrUnsupported: the backing store lacks the requested capability (e.g. a stored function)
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrUnavailable = errors.New("unavailable")
	ErrUnsupported = errors.New("unsupported")
)
