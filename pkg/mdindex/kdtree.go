package mdindex

import (
	"sort"

	"github.com/mnohosten/heapindex/pkg/tuple"
)

// KdTree is a static-array k-d tree: node i's children live at 2i+1 and
// 2i+2, so the whole structure is one resizable slice with no pointers.
// Each populated slot holds a full tuple; comparisons during descent
// consult only the positions named by IdxFields.
type KdTree struct {
	Dim       int
	IdxFields []int
	TotalDim  int

	arr []tuple.Tuple // nil entry means the slot is empty
}

// NewKdTree constructs an empty k-d tree over idxFields, the tuple
// positions it compares on, cycling through them depth-by-depth.
func NewKdTree(idxFields []int, totalDim int) *KdTree {
	return &KdTree{
		Dim:       len(idxFields),
		IdxFields: append([]int(nil), idxFields...),
		TotalDim:  totalDim,
	}
}

// pad extends a short query vector (only the indexed fields) out to the
// tuple's full arity, filling unindexed positions with integer zero.
func (t *KdTree) pad(val tuple.Tuple) tuple.Tuple {
	if len(val) == t.TotalDim {
		return val
	}
	res := make(tuple.Tuple, t.TotalDim)
	for i := range res {
		res[i] = tuple.IntField(0)
	}
	for i, pos := range t.IdxFields {
		res[pos] = val[i]
	}
	return res
}

// equalOnIndex reports whether v1 and v2 agree on every indexed field.
func (t *KdTree) equalOnIndex(v1, v2 tuple.Tuple) bool {
	if len(v1) == 0 || len(v2) == 0 {
		return len(v1) == len(v2)
	}
	for _, pos := range t.IdxFields {
		if !v1[pos].Equal(v2[pos]) {
			return false
		}
	}
	return true
}

// compareAt returns -1, 0 or 1 comparing v1 and v2 on the axis-th indexed
// field, cycling axis = depth mod Dim.
func (t *KdTree) compareAt(v1, v2 tuple.Tuple, axis int) int {
	pos := t.IdxFields[axis]
	a, b := v1[pos], v2[pos]
	switch {
	case a.Less(b):
		return -1
	case b.Less(a):
		return 1
	default:
		return 0
	}
}

func ensureLen(arr []tuple.Tuple, n int) []tuple.Tuple {
	for len(arr) < n {
		arr = append(arr, nil)
	}
	return arr
}

// Insert places val into the tree, descending from the root comparing on
// axis = depth mod Dim at every occupied node.
func (t *KdTree) Insert(val tuple.Tuple) {
	t.insertHelper(val, 0, 0)
}

func (t *KdTree) insertHelper(val tuple.Tuple, nodeIdx, depth int) {
	if nodeIdx >= len(t.arr) {
		t.arr = ensureLen(t.arr, nodeIdx+1)
	}
	if t.arr[nodeIdx] == nil {
		t.arr[nodeIdx] = val.Clone()
		return
	}
	axis := depth % t.Dim
	if t.compareAt(val, t.arr[nodeIdx], axis) < 0 {
		t.insertHelper(val, nodeIdx*2+1, depth+1)
	} else {
		t.insertHelper(val, nodeIdx*2+2, depth+1)
	}
}

// Search reports whether any stored tuple agrees with val on every
// indexed field. val may carry only the indexed positions.
func (t *KdTree) Search(val tuple.Tuple) bool {
	return t.searchHelper(t.pad(val), 0, 0)
}

func (t *KdTree) searchHelper(val tuple.Tuple, nodeIdx, depth int) bool {
	if nodeIdx >= len(t.arr) || t.arr[nodeIdx] == nil {
		return false
	}
	if t.equalOnIndex(t.arr[nodeIdx], val) {
		return true
	}
	axis := depth % t.Dim
	if t.compareAt(val, t.arr[nodeIdx], axis) < 0 {
		return t.searchHelper(val, nodeIdx*2+1, depth+1)
	}
	return t.searchHelper(val, nodeIdx*2+2, depth+1)
}

// Get returns every stored tuple that agrees with val on every indexed
// field, continuing the descent past a match since duplicates can live
// deeper in the tree.
func (t *KdTree) Get(val tuple.Tuple) []tuple.Tuple {
	var res []tuple.Tuple
	t.getHelper(t.pad(val), 0, 0, &res)
	return res
}

func (t *KdTree) getHelper(val tuple.Tuple, nodeIdx, depth int, res *[]tuple.Tuple) {
	if nodeIdx >= len(t.arr) || t.arr[nodeIdx] == nil {
		return
	}
	if t.equalOnIndex(t.arr[nodeIdx], val) {
		*res = append(*res, t.arr[nodeIdx].Clone())
	}
	axis := depth % t.Dim
	if t.compareAt(val, t.arr[nodeIdx], axis) < 0 {
		t.getHelper(val, nodeIdx*2+1, depth+1, res)
	} else {
		t.getHelper(val, nodeIdx*2+2, depth+1, res)
	}
}

func (t *KdTree) withinRange(val, lo, hi tuple.Tuple) bool {
	for _, pos := range t.IdxFields {
		if val[pos].Less(lo[pos]) || hi[pos].Less(val[pos]) {
			return false
		}
	}
	return true
}

// RangeQuery returns every stored tuple whose indexed fields fall within
// the closed box [lo, hi].
func (t *KdTree) RangeQuery(lo, hi tuple.Tuple) []tuple.Tuple {
	var res []tuple.Tuple
	t.rangeQueryHelper(t.pad(lo), t.pad(hi), 0, 0, &res)
	return res
}

func (t *KdTree) rangeQueryHelper(lo, hi tuple.Tuple, nodeIdx, depth int, res *[]tuple.Tuple) {
	if nodeIdx >= len(t.arr) || t.arr[nodeIdx] == nil {
		return
	}
	if t.withinRange(t.arr[nodeIdx], lo, hi) {
		*res = append(*res, t.arr[nodeIdx].Clone())
	}
	axis := depth % t.Dim
	if t.compareAt(lo, t.arr[nodeIdx], axis) < 0 {
		t.rangeQueryHelper(lo, hi, nodeIdx*2+1, depth+1, res)
	}
	if t.compareAt(t.arr[nodeIdx], hi, axis) <= 0 {
		t.rangeQueryHelper(lo, hi, nodeIdx*2+2, depth+1, res)
	}
}

// DataIntoTree bulk-loads arr by repeated median-of-axis splitting: sort
// on the current axis, insert the median, recurse on both halves with
// depth+1. Produces a balanced implicit tree when axis values are
// distinct.
func (t *KdTree) DataIntoTree(arr []tuple.Tuple) {
	if len(arr) == 0 {
		return
	}
	t.dataIntoTreeHelper(arr, 0)
}

func (t *KdTree) dataIntoTreeHelper(arr []tuple.Tuple, depth int) {
	if len(arr) == 0 {
		return
	}
	axis := depth % t.Dim
	sort.Slice(arr, func(i, j int) bool { return t.compareAt(arr[i], arr[j], axis) < 0 })
	median := len(arr) / 2
	t.Insert(arr[median])
	t.dataIntoTreeHelper(arr[:median], depth+1)
	t.dataIntoTreeHelper(arr[median+1:], depth+1)
}

// findMin locates the index of the minimum node on curr_dim within the
// subtree rooted at nodeIdx, per the standard k-d-tree min-finding rule:
// descend only the left child when the current axis matches curr_dim
// (the right subtree is guaranteed not to contain a smaller value on
// that axis), otherwise compare the node against both children's minima.
func (t *KdTree) findMin(nodeIdx, currDim, depth int) (int, bool) {
	if nodeIdx >= len(t.arr) || t.arr[nodeIdx] == nil {
		return 0, false
	}
	axis := depth % t.Dim
	if axis == currDim {
		left := nodeIdx*2 + 1
		if left >= len(t.arr) || t.arr[left] == nil {
			return nodeIdx, true
		}
		return t.findMin(left, currDim, depth+1)
	}
	best := nodeIdx
	if li, ok := t.findMin(nodeIdx*2+1, currDim, depth+1); ok && t.compareAt(t.arr[li], t.arr[best], currDim) < 0 {
		best = li
	}
	if ri, ok := t.findMin(nodeIdx*2+2, currDim, depth+1); ok && t.compareAt(t.arr[ri], t.arr[best], currDim) < 0 {
		best = ri
	}
	return best, true
}

// copyAndDelete moves the subtree rooted at oldIdx to newIdx, recursively
// relocating children, then clears the vacated slots.
func (t *KdTree) copyAndDelete(oldIdx, newIdx int) {
	if oldIdx >= len(t.arr) || t.arr[oldIdx] == nil {
		return
	}
	t.arr = ensureLen(t.arr, newIdx+1)
	t.arr[newIdx] = t.arr[oldIdx]
	t.arr[oldIdx] = nil
	t.copyAndDelete(oldIdx*2+1, newIdx*2+1)
	t.copyAndDelete(oldIdx*2+2, newIdx*2+2)
}

// convertLeftToRightTree rotates the subtree rooted at a left child
// (node_idx) into its parent's right-child slot, preserving substructure,
// an index remapping rather than a pointer rewrite.
func (t *KdTree) convertLeftToRightTree(nodeIdx int) {
	if nodeIdx >= len(t.arr) || t.arr[nodeIdx] == nil {
		return
	}
	direction := 1
	if nodeIdx%2 == 0 {
		direction = 2
	}
	parentIdx := (nodeIdx - direction) / 2
	newIdx := parentIdx*2 + 2

	t.copyAndDelete(nodeIdx*2+1, newIdx*2+1)
	t.copyAndDelete(nodeIdx*2+2, newIdx*2+2)

	t.arr = ensureLen(t.arr, newIdx+1)
	t.arr[newIdx] = t.arr[nodeIdx]
	t.arr[nodeIdx] = nil
}

// Delete removes one tuple matching val on the indexed fields, preserving
// the left-strictly-less invariant via the subtree-minimum substitution
// and rotation described for convertLeftToRightTree.
func (t *KdTree) Delete(val tuple.Tuple) {
	t.deleteHelper(t.pad(val), 0, 0)
}

func (t *KdTree) deleteHelper(val tuple.Tuple, nodeIdx, depth int) {
	if nodeIdx >= len(t.arr) || t.arr[nodeIdx] == nil {
		return
	}
	axis := depth % t.Dim
	if !t.equalOnIndex(t.arr[nodeIdx], val) {
		if t.compareAt(val, t.arr[nodeIdx], axis) < 0 {
			t.deleteHelper(val, nodeIdx*2+1, depth+1)
		} else {
			t.deleteHelper(val, nodeIdx*2+2, depth+1)
		}
		return
	}

	rightIdx := nodeIdx*2 + 2
	leftIdx := nodeIdx*2 + 1
	switch {
	case rightIdx < len(t.arr) && t.arr[rightIdx] != nil:
		minIdx, ok := t.findMin(rightIdx, axis, depth+1)
		if !ok {
			return
		}
		t.arr[nodeIdx] = t.arr[minIdx].Clone()
		t.deleteHelper(t.arr[minIdx].Clone(), rightIdx, depth+1)
	case leftIdx < len(t.arr) && t.arr[leftIdx] != nil:
		minIdx, ok := t.findMin(leftIdx, axis, depth+1)
		if !ok {
			return
		}
		t.arr[nodeIdx] = t.arr[minIdx].Clone()
		t.deleteHelper(t.arr[minIdx].Clone(), leftIdx, depth+1)
		t.convertLeftToRightTree(leftIdx)
	default:
		t.arr[nodeIdx] = nil
	}
}

// Len reports the number of live tuples stored in the tree.
func (t *KdTree) Len() int {
	n := 0
	for _, v := range t.arr {
		if v != nil {
			n++
		}
	}
	return n
}

// squaredDistance sums squared per-axis distances on the indexed integer
// fields only; non-integer indexed fields contribute zero.
func (t *KdTree) squaredDistance(a, b tuple.Tuple) int64 {
	var sum int64
	for _, pos := range t.IdxFields {
		if a[pos].Type != tuple.FieldTypeInt || b[pos].Type != tuple.FieldTypeInt {
			continue
		}
		d := int64(a[pos].IntVal) - int64(b[pos].IntVal)
		sum += d * d
	}
	return sum
}

// Knn returns up to k stored tuples nearest to query by squared Euclidean
// distance on the indexed fields.
func (t *KdTree) Knn(query tuple.Tuple, k int) []tuple.Tuple {
	padded := t.pad(query)
	type scored struct {
		val  tuple.Tuple
		dist int64
	}
	var all []scored
	for _, v := range t.arr {
		if v == nil {
			continue
		}
		all = append(all, scored{val: v, dist: t.squaredDistance(v, padded)})
	}
	sort.Slice(all, func(i, j int) bool { return all[i].dist < all[j].dist })
	if k > len(all) {
		k = len(all)
	}
	res := make([]tuple.Tuple, k)
	for i := 0; i < k; i++ {
		res[i] = all[i].val.Clone()
	}
	return res
}
