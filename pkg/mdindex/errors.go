// Package mdindex implements the multidimensional secondary indexes built
// over scans of a container's tuples: a static-array k-d tree for point,
// range and k-NN lookups on arbitrary-arity projections, and an R-tree for
// point and k-NN lookups on 2-D or 3-D integer coordinates.
package mdindex

import "errors"

var (
	// ErrUnsupportedDimension is returned constructing an R-tree whose
	// dimensionality is not 2 or 3.
	ErrUnsupportedDimension = errors.New("mdindex: unsupported dimension, want 2 or 3")

	// ErrFieldNotFound is returned when a named field does not resolve
	// to a position in the schema supplied to createIndex.
	ErrFieldNotFound = errors.New("mdindex: field not found in schema")

	// ErrIndexNotFound is returned by useIndex on an unregistered index
	// name.
	ErrIndexNotFound = errors.New("mdindex: index not found")

	// ErrIndexExists is returned when createIndex names an index that
	// is already registered under a different kind.
	ErrIndexExists = errors.New("mdindex: index already exists")

	// ErrUnknownKind is returned for an index kind outside {KD, R}.
	ErrUnknownKind = errors.New("mdindex: unknown index kind")

	// ErrUnknownQueryKind is returned for a query kind outside
	// {EQ, RANGE, KNN}.
	ErrUnknownQueryKind = errors.New("mdindex: unknown query kind")

	// ErrBadCommand is returned when a createIndex/useIndex command
	// string cannot be parsed.
	ErrBadCommand = errors.New("mdindex: malformed command")
)
