package mdindex

import (
	"container/heap"
	"fmt"

	"github.com/mnohosten/heapindex/pkg/tuple"
)

const rtreeMaxEntries = 8

type point []int32

type box struct {
	min, max point
}

func pointBox(p point) box {
	min := append(point(nil), p...)
	max := append(point(nil), p...)
	return box{min: min, max: max}
}

func (b box) enlarge(other box) box {
	out := box{min: append(point(nil), b.min...), max: append(point(nil), b.max...)}
	for i := range out.min {
		if other.min[i] < out.min[i] {
			out.min[i] = other.min[i]
		}
		if other.max[i] > out.max[i] {
			out.max[i] = other.max[i]
		}
	}
	return out
}

func (b box) area() int64 {
	var a int64 = 1
	for i := range b.min {
		a *= int64(b.max[i]-b.min[i]) + 1
	}
	return a
}

func (b box) containsPoint(p point) bool {
	for i := range p {
		if p[i] < b.min[i] || p[i] > b.max[i] {
			return false
		}
	}
	return true
}

func (b box) intersects(other box) bool {
	for i := range b.min {
		if b.max[i] < other.min[i] || other.max[i] < b.min[i] {
			return false
		}
	}
	return true
}

// minDist2 is the squared distance from p to the nearest point of b,
// zero if p lies inside b. Used as the admissible lower bound for
// best-first k-NN traversal.
func (b box) minDist2(p point) int64 {
	var sum int64
	for i := range p {
		var d int64
		if p[i] < b.min[i] {
			d = int64(b.min[i]) - int64(p[i])
		} else if p[i] > b.max[i] {
			d = int64(p[i]) - int64(b.max[i])
		}
		sum += d * d
	}
	return sum
}

type rentry struct {
	box   box
	child *rnode
	val   tuple.Tuple // only set on leaf entries
}

type rnode struct {
	leaf    bool
	entries []rentry
}

func nodeBox(n *rnode) box {
	b := n.entries[0].box
	for _, e := range n.entries[1:] {
		b = b.enlarge(e.box)
	}
	return b
}

// RTree is a bounding-box spatial index over 2-D or 3-D integer points
// extracted from tuples at IdxFields. Range queries are intentionally not
// served here; callers fall back to a full container scan for those.
type RTree struct {
	Dim       int
	IdxFields []int
	TotalDim  int

	root *rnode
}

// NewRTree constructs an empty R-tree. dim must be 2 or 3.
func NewRTree(dim int, idxFields []int, totalDim int) (*RTree, error) {
	if dim != 2 && dim != 3 {
		return nil, fmt.Errorf("%w: got %d", ErrUnsupportedDimension, dim)
	}
	return &RTree{Dim: dim, IdxFields: idxFields, TotalDim: totalDim}, nil
}

func (t *RTree) point(val tuple.Tuple) point {
	p := make(point, t.Dim)
	for i, pos := range t.IdxFields {
		p[i] = val[pos].IntVal
	}
	return p
}

// Insert adds val, indexed by the integer point at IdxFields.
func (t *RTree) Insert(val tuple.Tuple) {
	e := rentry{box: pointBox(t.point(val)), val: val.Clone()}
	if t.root == nil {
		t.root = &rnode{leaf: true}
	}
	if split := t.insertEntry(t.root, e); split != nil {
		t.root = &rnode{
			leaf: false,
			entries: []rentry{
				{box: nodeBox(t.root), child: t.root},
				{box: nodeBox(split), child: split},
			},
		}
	}
}

func (t *RTree) insertEntry(n *rnode, e rentry) *rnode {
	if n.leaf {
		n.entries = append(n.entries, e)
	} else {
		best := chooseBestChild(n, e.box)
		split := t.insertEntry(n.entries[best].child, e)
		n.entries[best].box = nodeBox(n.entries[best].child)
		if split != nil {
			n.entries = append(n.entries, rentry{box: nodeBox(split), child: split})
		}
	}
	if len(n.entries) > rtreeMaxEntries {
		return splitNode(n)
	}
	return nil
}

// chooseBestChild returns the index of the child entry whose box needs
// the least area enlargement to cover eb, ties broken by smaller area.
func chooseBestChild(n *rnode, eb box) int {
	best := 0
	bestEnlargement := int64(-1)
	bestArea := int64(-1)
	for i, e := range n.entries {
		enlarged := e.box.enlarge(eb)
		enlargement := enlarged.area() - e.box.area()
		if bestEnlargement < 0 || enlargement < bestEnlargement ||
			(enlargement == bestEnlargement && enlarged.area() < bestArea) {
			best = i
			bestEnlargement = enlargement
			bestArea = enlarged.area()
		}
	}
	return best
}

// splitNode divides an overflowing node's entries into two using a
// seed pick over every pair of entries (the pair whose combined box
// wastes the most area) followed by least-enlargement assignment of the
// rest.
func splitNode(n *rnode) *rnode {
	entries := n.entries
	s1, s2 := pickSeeds(entries)

	groupA := &rnode{leaf: n.leaf, entries: []rentry{entries[s1]}}
	groupB := &rnode{leaf: n.leaf, entries: []rentry{entries[s2]}}
	boxA := entries[s1].box
	boxB := entries[s2].box

	for i, e := range entries {
		if i == s1 || i == s2 {
			continue
		}
		enlargeA := boxA.enlarge(e.box).area() - boxA.area()
		enlargeB := boxB.enlarge(e.box).area() - boxB.area()
		if enlargeA < enlargeB || (enlargeA == enlargeB && len(groupA.entries) <= len(groupB.entries)) {
			groupA.entries = append(groupA.entries, e)
			boxA = boxA.enlarge(e.box)
		} else {
			groupB.entries = append(groupB.entries, e)
			boxB = boxB.enlarge(e.box)
		}
	}

	n.entries = groupA.entries
	return groupB
}

func pickSeeds(entries []rentry) (int, int) {
	bestI, bestJ := 0, 1
	var bestWaste int64 = -1
	for i := 0; i < len(entries); i++ {
		for j := i + 1; j < len(entries); j++ {
			combined := entries[i].box.enlarge(entries[j].box)
			waste := combined.area() - entries[i].box.area() - entries[j].box.area()
			if waste > bestWaste {
				bestWaste = waste
				bestI, bestJ = i, j
			}
		}
	}
	return bestI, bestJ
}

// Search reports whether any stored tuple sits at val's projected point.
func (t *RTree) Search(val tuple.Tuple) bool {
	return len(t.Get(val)) > 0
}

// Get returns every stored tuple whose projected point equals val's.
func (t *RTree) Get(val tuple.Tuple) []tuple.Tuple {
	if t.root == nil {
		return nil
	}
	p := t.point(val)
	var res []tuple.Tuple
	t.getHelper(t.root, p, &res)
	return res
}

func (t *RTree) getHelper(n *rnode, p point, res *[]tuple.Tuple) {
	for _, e := range n.entries {
		if !e.box.containsPoint(p) {
			continue
		}
		if n.leaf {
			*res = append(*res, e.val.Clone())
		} else {
			t.getHelper(e.child, p, res)
		}
	}
}

// Delete removes one tuple matching val's projected point, if present.
func (t *RTree) Delete(val tuple.Tuple) {
	if t.root == nil {
		return
	}
	p := t.point(val)
	t.deleteHelper(t.root, p)
}

func (t *RTree) deleteHelper(n *rnode, p point) bool {
	for i, e := range n.entries {
		if !e.box.containsPoint(p) {
			continue
		}
		if n.leaf {
			n.entries = append(n.entries[:i], n.entries[i+1:]...)
			return true
		}
		if t.deleteHelper(e.child, p) {
			if len(e.child.entries) == 0 {
				n.entries = append(n.entries[:i], n.entries[i+1:]...)
			} else {
				n.entries[i].box = nodeBox(e.child)
			}
			return true
		}
	}
	return false
}

// DataIntoTree bulk-loads arr by inserting every tuple; the tree rebuilds
// fresh, discarding any prior contents.
func (t *RTree) DataIntoTree(arr []tuple.Tuple) {
	t.root = nil
	for _, v := range arr {
		t.Insert(v)
	}
}

type knnCandidate struct {
	dist int64
	node *rnode
	val  tuple.Tuple
	leaf bool
}

type knnHeap []knnCandidate

func (h knnHeap) Len() int            { return len(h) }
func (h knnHeap) Less(i, j int) bool  { return h[i].dist < h[j].dist }
func (h knnHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *knnHeap) Push(x interface{}) { *h = append(*h, x.(knnCandidate)) }
func (h *knnHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// Knn returns up to k stored tuples nearest to query by squared Euclidean
// distance, using a best-first search ordered by each candidate's
// admissible lower-bound distance.
func (t *RTree) Knn(query tuple.Tuple, k int) []tuple.Tuple {
	if t.root == nil || k <= 0 {
		return nil
	}
	p := t.point(query)

	h := &knnHeap{{dist: 0, node: t.root}}
	heap.Init(h)

	var res []tuple.Tuple
	for h.Len() > 0 && len(res) < k {
		cand := heap.Pop(h).(knnCandidate)
		if cand.leaf {
			res = append(res, cand.val)
			continue
		}
		for _, e := range cand.node.entries {
			if e.child != nil {
				heap.Push(h, knnCandidate{dist: e.box.minDist2(p), node: e.child})
			} else {
				heap.Push(h, knnCandidate{dist: pointDist2(p, t.point(e.val)), val: e.val.Clone(), leaf: true})
			}
		}
	}
	return res
}

// Len reports the number of live tuples stored in the tree.
func (t *RTree) Len() int {
	if t.root == nil {
		return 0
	}
	return countEntries(t.root)
}

func countEntries(n *rnode) int {
	if n.leaf {
		return len(n.entries)
	}
	sum := 0
	for _, e := range n.entries {
		sum += countEntries(e.child)
	}
	return sum
}

func pointDist2(a, b point) int64 {
	var sum int64
	for i := range a {
		d := int64(a[i]) - int64(b[i])
		sum += d * d
	}
	return sum
}
