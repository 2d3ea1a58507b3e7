package storage

import "errors"

var (
	// ErrCorruptPage is returned when a serialised page fails to
	// deserialise into a structurally valid slot directory.
	ErrCorruptPage = errors.New("storage: corrupt page")

	// ErrPageNotFound is returned by HeapFile reads past the current
	// page count.
	ErrPageNotFound = errors.New("storage: page not found")

	// ErrContainerNotFound is returned when an operation names a
	// container the manager has no record of.
	ErrContainerNotFound = errors.New("storage: container not found")

	// ErrContainerExists is returned by CreateContainer when the
	// container already exists with a conflicting identity.
	ErrContainerExists = errors.New("storage: container already exists")

	// ErrValueNotFound is returned when a ValueId names a slot that is
	// not currently live.
	ErrValueNotFound = errors.New("storage: value not found")

	// ErrValueTooLarge is returned when a value can never fit on a
	// fresh page, regardless of compaction.
	ErrValueTooLarge = errors.New("storage: value exceeds page capacity")

	// ErrIteratorClosed is returned by Next on an iterator that has
	// already been closed.
	ErrIteratorClosed = errors.New("storage: iterator closed")
)
