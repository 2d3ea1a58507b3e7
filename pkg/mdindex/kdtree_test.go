package mdindex

import (
	"testing"

	"github.com/mnohosten/heapindex/pkg/tuple"
)

func pt2(x, y int32) tuple.Tuple {
	return tuple.Tuple{tuple.IntField(x), tuple.IntField(y)}
}

func containsTuple(tuples []tuple.Tuple, want tuple.Tuple) bool {
	for _, t := range tuples {
		if len(t) != len(want) {
			continue
		}
		match := true
		for i := range want {
			if !t[i].Equal(want[i]) {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

// S5: k-d 2-D tree bulk-load.
func TestKdTreeBulkLoadAndSearch(t *testing.T) {
	pts := [][2]int32{{4, 7}, {3, 8}, {5, 2}, {5, 6}, {2, 9}, {10, 1}, {11, 3}}
	tuples := make([]tuple.Tuple, len(pts))
	for i, p := range pts {
		tuples[i] = pt2(p[0], p[1])
	}

	kd := NewKdTree([]int{0, 1}, 2)
	kd.DataIntoTree(tuples)

	if !kd.Search(pt2(5, 2)) {
		t.Error("expected search((5,2)) to be true")
	}
	if kd.Search(pt2(99, 99)) {
		t.Error("expected search of an absent point to be false")
	}

	got := kd.RangeQuery(pt2(3, 2), pt2(10, 8))
	want := [][2]int32{{4, 7}, {3, 8}, {5, 2}, {5, 6}}
	if len(got) != len(want) {
		t.Fatalf("expected %d tuples in range, got %d: %v", len(want), len(got), got)
	}
	for _, w := range want {
		if !containsTuple(got, pt2(w[0], w[1])) {
			t.Errorf("expected range query to include (%d,%d)", w[0], w[1])
		}
	}
}

func TestKdTreeGetReturnsDuplicates(t *testing.T) {
	kd := NewKdTree([]int{0}, 1)
	kd.Insert(tuple.Tuple{tuple.IntField(5)})
	kd.Insert(tuple.Tuple{tuple.IntField(3)})
	kd.Insert(tuple.Tuple{tuple.IntField(5)})
	kd.Insert(tuple.Tuple{tuple.IntField(7)})

	got := kd.Get(tuple.Tuple{tuple.IntField(5)})
	if len(got) != 2 {
		t.Fatalf("expected 2 matches for duplicate key 5, got %d: %v", len(got), got)
	}
}

func TestKdTreeDeleteRemovesOneMatch(t *testing.T) {
	kd := NewKdTree([]int{0}, 1)
	for _, v := range []int32{5, 3, 5, 7, 1, 9} {
		kd.Insert(tuple.Tuple{tuple.IntField(v)})
	}

	if !kd.Search(tuple.Tuple{tuple.IntField(5)}) {
		t.Fatal("expected search(5) to be true before delete")
	}

	kd.Delete(tuple.Tuple{tuple.IntField(5)})

	got := kd.Get(tuple.Tuple{tuple.IntField(5)})
	if len(got) != 1 {
		t.Fatalf("expected 1 remaining match for 5 after deleting one of two, got %d", len(got))
	}

	kd.Delete(tuple.Tuple{tuple.IntField(5)})
	if kd.Search(tuple.Tuple{tuple.IntField(5)}) {
		t.Error("expected search(5) to be false after deleting both copies")
	}

	for _, v := range []int32{3, 7, 1, 9} {
		if !kd.Search(tuple.Tuple{tuple.IntField(v)}) {
			t.Errorf("expected %d to remain searchable after unrelated deletes", v)
		}
	}
}

func TestKdTreeDeleteOnEmptyTreeIsNoOp(t *testing.T) {
	kd := NewKdTree([]int{0}, 1)
	kd.Delete(tuple.Tuple{tuple.IntField(1)}) // must not panic
	if kd.Search(tuple.Tuple{tuple.IntField(1)}) {
		t.Error("expected empty tree to report no match")
	}
}

func TestKdTreeKnn(t *testing.T) {
	kd := NewKdTree([]int{0, 1}, 2)
	for _, p := range [][2]int32{{0, 0}, {1, 1}, {10, 10}, {2, 2}} {
		kd.Insert(pt2(p[0], p[1]))
	}

	got := kd.Knn(pt2(0, 0), 2)
	if len(got) != 2 {
		t.Fatalf("expected 2 neighbours, got %d", len(got))
	}
	if !containsTuple(got, pt2(0, 0)) || !containsTuple(got, pt2(1, 1)) {
		t.Errorf("expected the two nearest points to (0,0), got %v", got)
	}
}
