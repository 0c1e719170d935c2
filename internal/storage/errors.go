package storage

import "errors"

// Storage errors shared by all backends. Backend-specific failures are
// wrapped with fmt.Errorf("%w: ...") so errors.Is still matches.
var (
	// ErrDuplicateURL is returned when saving a document whose URL is
	// already stored. Documents are write-once: a duplicate save is
	// rejected, never turned into an update.
	ErrDuplicateURL = errors.New("document URL already stored")

	// ErrNotFound is returned when no document matches the requested ID.
	ErrNotFound = errors.New("document not found")
)
