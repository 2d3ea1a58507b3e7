package mdindex

import (
	"testing"

	"github.com/mnohosten/heapindex/pkg/tuple"
)

// S6: k-NN on R-tree 2-D.
func TestRTreeKnn(t *testing.T) {
	rt, err := NewRTree(2, []int{0, 1}, 2)
	if err != nil {
		t.Fatalf("NewRTree failed: %v", err)
	}

	pts := [][2]int32{{5, 4}, {2, 6}, {13, 3}, {3, 1}, {10, 2}, {8, 7}}
	for _, p := range pts {
		rt.Insert(pt2(p[0], p[1]))
	}

	got := rt.Knn(pt2(9, 4), 3)
	if len(got) != 3 {
		t.Fatalf("expected 3 neighbours, got %d", len(got))
	}

	want := [][2]int32{{10, 2}, {8, 7}, {5, 4}}
	for _, w := range want {
		if !containsTuple(got, pt2(w[0], w[1])) {
			t.Errorf("expected nearest-3 to include (%d,%d), got %v", w[0], w[1], got)
		}
	}
}

func TestRTreeInsertSearchDelete(t *testing.T) {
	rt, err := NewRTree(2, []int{0, 1}, 2)
	if err != nil {
		t.Fatalf("NewRTree failed: %v", err)
	}

	for _, p := range [][2]int32{{1, 1}, {2, 2}, {3, 3}, {1, 1}} {
		rt.Insert(pt2(p[0], p[1]))
	}

	if !rt.Search(pt2(2, 2)) {
		t.Error("expected search((2,2)) to be true")
	}
	if rt.Search(pt2(99, 99)) {
		t.Error("expected search of an absent point to be false")
	}

	got := rt.Get(pt2(1, 1))
	if len(got) != 2 {
		t.Fatalf("expected 2 matches for duplicate point (1,1), got %d", len(got))
	}

	rt.Delete(pt2(1, 1))
	got = rt.Get(pt2(1, 1))
	if len(got) != 1 {
		t.Fatalf("expected 1 remaining match after deleting one duplicate, got %d", len(got))
	}

	rt.Delete(pt2(1, 1))
	if rt.Search(pt2(1, 1)) {
		t.Error("expected no match after deleting both duplicates")
	}
	if !rt.Search(pt2(2, 2)) || !rt.Search(pt2(3, 3)) {
		t.Error("expected unrelated points to remain searchable")
	}
}

func TestRTreeBulkLoadManyPoints(t *testing.T) {
	rt, err := NewRTree(2, []int{0, 1}, 2)
	if err != nil {
		t.Fatalf("NewRTree failed: %v", err)
	}

	var pts []tuple.Tuple
	for i := int32(0); i < 50; i++ {
		pts = append(pts, pt2(i, 50-i))
	}
	rt.DataIntoTree(pts)

	for _, p := range pts {
		if !rt.Search(p) {
			t.Fatalf("expected bulk-loaded point %v to be searchable", p)
		}
	}
}

func TestRTree3DInsertAndSearch(t *testing.T) {
	rt, err := NewRTree(3, []int{0, 1, 2}, 3)
	if err != nil {
		t.Fatalf("NewRTree failed: %v", err)
	}

	pt3 := func(x, y, z int32) tuple.Tuple {
		return tuple.Tuple{tuple.IntField(x), tuple.IntField(y), tuple.IntField(z)}
	}

	rt.Insert(pt3(1, 2, 3))
	rt.Insert(pt3(4, 5, 6))

	if !rt.Search(pt3(1, 2, 3)) {
		t.Error("expected search((1,2,3)) to be true")
	}
	if rt.Search(pt3(9, 9, 9)) {
		t.Error("expected search of an absent 3-D point to be false")
	}
}

func TestRTreeRejectsUnsupportedDimension(t *testing.T) {
	if _, err := NewRTree(4, []int{0, 1, 2, 3}, 4); err == nil {
		t.Error("expected an error constructing a 4-dimensional R-tree")
	}
}
