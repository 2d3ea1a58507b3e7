package mdindex

import (
	"fmt"
	"sort"

	"github.com/mnohosten/heapindex/pkg/storage"
	"github.com/mnohosten/heapindex/pkg/tuple"
)

// Kind names the structure backing one named index.
type Kind string

const (
	KindKD Kind = "KD"
	KindR  Kind = "R"
)

// QueryKind names the lookup a useIndex command dispatches to.
type QueryKind string

const (
	QueryEQ    QueryKind = "EQ"
	QueryRANGE QueryKind = "RANGE"
	QueryKNN   QueryKind = "KNN"
)

// namedIndex is the registry entry for one created index: exactly one of
// kd/r is populated, matching Kind.
type namedIndex struct {
	kind      Kind
	fieldPos  []int
	container storage.ContainerID
	kd        *KdTree
	r         *RTree
}

// Directory is a container's registry of named k-d and R-tree indexes,
// dispatching createIndex and useIndex commands to the right structure.
type Directory struct {
	indexes map[string]*namedIndex
}

// NewDirectory constructs an empty index registry.
func NewDirectory() *Directory {
	return &Directory{indexes: make(map[string]*namedIndex)}
}

// ParseLiteral coerces the string values of one literal group produced by
// ParseUseIndex into a tuple, one value per position in fieldTypes.
func ParseLiteral(fieldTypes []tuple.FieldType, values []string) (tuple.Tuple, error) {
	if len(values) != len(fieldTypes) {
		return nil, fmt.Errorf("%w: expected %d values, got %d", tuple.ErrSchemaMismatch, len(fieldTypes), len(values))
	}
	out := make(tuple.Tuple, len(values))
	for i, v := range values {
		f, err := tuple.CoerceCSVField(fieldTypes[i], v)
		if err != nil {
			return nil, err
		}
		out[i] = f
	}
	return out, nil
}

// resolvePositions maps field names to their positions in schema.
func resolvePositions(schema map[string]int, fieldNames []string) ([]int, error) {
	positions := make([]int, len(fieldNames))
	for i, name := range fieldNames {
		pos, ok := schema[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrFieldNotFound, name)
		}
		positions[i] = pos
	}
	return positions, nil
}

// CreateIndex resolves fieldNames against schema, instantiates an index
// of the requested kind and dimensionality, scans containerID via mgr to
// materialise every live tuple, and bulk-loads the index.
func (d *Directory) CreateIndex(
	kind Kind,
	name string,
	containerID storage.ContainerID,
	fieldNames []string,
	schema map[string]int,
	totalDim int,
	mgr *storage.Manager,
	tid string,
) error {
	if existing, ok := d.indexes[name]; ok && existing.kind != kind {
		return fmt.Errorf("%w: %s", ErrIndexExists, name)
	}

	positions, err := resolvePositions(schema, fieldNames)
	if err != nil {
		return err
	}

	tuples, err := scanTuples(mgr, containerID, tid)
	if err != nil {
		return err
	}

	entry := &namedIndex{kind: kind, fieldPos: positions, container: containerID}
	switch kind {
	case KindKD:
		kd := NewKdTree(positions, totalDim)
		kd.DataIntoTree(tuples)
		entry.kd = kd
	case KindR:
		r, err := NewRTree(len(positions), positions, totalDim)
		if err != nil {
			return err
		}
		r.DataIntoTree(tuples)
		entry.r = r
	default:
		return fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}

	d.indexes[name] = entry
	return nil
}

func scanTuples(mgr *storage.Manager, containerID storage.ContainerID, tid string) ([]tuple.Tuple, error) {
	it, err := mgr.GetIterator(containerID, tid)
	if err != nil {
		return nil, err
	}
	if err := it.Open(); err != nil {
		return nil, err
	}
	defer it.Close()

	var tuples []tuple.Tuple
	for {
		raw, ok, err := it.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		tup, err := tuple.Decode(raw)
		if err != nil {
			return nil, err
		}
		tuples = append(tuples, tup)
	}
	return tuples, nil
}

// UseIndex dispatches literal against the named index per queryKind.
// Range queries intentionally bypass the R-tree and fall back to a full
// container scan filtered by the box.
func (d *Directory) UseIndex(
	kind Kind,
	queryKind QueryKind,
	name string,
	literal []tuple.Tuple,
	k int,
	mgr *storage.Manager,
	tid string,
) ([]tuple.Tuple, error) {
	entry, ok := d.indexes[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrIndexNotFound, name)
	}
	if entry.kind != kind {
		return nil, fmt.Errorf("%w: %s was created as %s, not %s", ErrIndexExists, name, entry.kind, kind)
	}

	switch queryKind {
	case QueryEQ:
		if entry.kind == KindKD {
			return entry.kd.Get(literal[0]), nil
		}
		return entry.r.Get(literal[0]), nil

	case QueryRANGE:
		if entry.kind == KindKD {
			return entry.kd.RangeQuery(literal[0], literal[1]), nil
		}
		return rangeFallbackScan(mgr, entry.container, entry.fieldPos, literal[0], literal[1], tid)

	case QueryKNN:
		if entry.kind == KindKD {
			return entry.kd.Knn(literal[0], k), nil
		}
		return entry.r.Knn(literal[0], k), nil

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownQueryKind, queryKind)
	}
}

// IndexStats is a point-in-time snapshot of one named index, reported by
// the observability endpoint.
type IndexStats struct {
	Name      string
	Kind      Kind
	Dimension int
	Entries   int
	Container storage.ContainerID
}

// Stats returns a snapshot of every registered index, ordered by name for
// deterministic output.
func (d *Directory) Stats() []IndexStats {
	names := make([]string, 0, len(d.indexes))
	for name := range d.indexes {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]IndexStats, 0, len(names))
	for _, name := range names {
		entry := d.indexes[name]
		stats := IndexStats{Name: name, Kind: entry.kind, Dimension: len(entry.fieldPos), Container: entry.container}
		if entry.kind == KindKD {
			stats.Entries = entry.kd.Len()
		} else {
			stats.Entries = entry.r.Len()
		}
		out = append(out, stats)
	}
	return out
}

// rangeFallbackScan serves a RANGE query against an R-tree index by
// scanning the container directly and filtering on the axis-aligned box,
// since the R-tree path is intentionally not used for range queries.
func rangeFallbackScan(mgr *storage.Manager, containerID storage.ContainerID, fieldPos []int, lo, hi tuple.Tuple, tid string) ([]tuple.Tuple, error) {
	tuples, err := scanTuples(mgr, containerID, tid)
	if err != nil {
		return nil, err
	}
	var res []tuple.Tuple
	for _, t := range tuples {
		inRange := true
		for i, pos := range fieldPos {
			if t[pos].Less(lo[i]) || hi[i].Less(t[pos]) {
				inRange = false
				break
			}
		}
		if inRange {
			res = append(res, t)
		}
	}
	return res, nil
}
