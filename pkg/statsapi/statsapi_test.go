package statsapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mnohosten/heapindex/pkg/mdindex"
	"github.com/mnohosten/heapindex/pkg/storage"
	"github.com/mnohosten/heapindex/pkg/tuple"
)

func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	mgr, err := storage.NewManager(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	if err := mgr.CreateTable("points", "t1"); err != nil {
		t.Fatalf("CreateTable failed: %v", err)
	}

	schema := map[string]int{"x": 0, "y": 1}
	for _, p := range [][2]int32{{1, 1}, {2, 2}, {3, 3}} {
		val := tuple.Tuple{tuple.IntField(p[0]), tuple.IntField(p[1])}
		raw, err := tuple.Encode(val)
		if err != nil {
			t.Fatalf("Encode failed: %v", err)
		}
		if _, err := mgr.InsertValue("points", raw, "t1"); err != nil {
			t.Fatalf("InsertValue failed: %v", err)
		}
	}

	dir := mdindex.NewDirectory()
	if err := dir.CreateIndex(mdindex.KindKD, "kdxy", "points", []string{"x", "y"}, schema, 2, mgr, "t1"); err != nil {
		t.Fatalf("CreateIndex failed: %v", err)
	}

	return New(mgr, dir, "t1", nil)
}

func TestStatsSnapshotReportsContainersAndIndexes(t *testing.T) {
	h := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var snap Snapshot
	if err := json.NewDecoder(w.Body).Decode(&snap); err != nil {
		t.Fatalf("failed to decode snapshot: %v", err)
	}

	if len(snap.Containers) != 1 || snap.Containers[0].ContainerID != "points" {
		t.Fatalf("expected one 'points' container, got %+v", snap.Containers)
	}
	if len(snap.Indexes) != 1 || snap.Indexes[0].Name != "kdxy" || snap.Indexes[0].Entries != 3 {
		t.Fatalf("expected one kdxy index with 3 entries, got %+v", snap.Indexes)
	}
}

func TestStatsStreamPushesSnapshots(t *testing.T) {
	h := newTestHandler(t)
	h.SetStreamInterval(20 * time.Millisecond)

	server := httptest.NewServer(h)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/stats/stream"
	ws, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("failed to dial websocket: %v", err)
	}
	defer ws.Close()

	var first, second Snapshot
	if err := ws.ReadJSON(&first); err != nil {
		t.Fatalf("failed to read first push: %v", err)
	}
	if err := ws.ReadJSON(&second); err != nil {
		t.Fatalf("failed to read second push: %v", err)
	}

	if len(first.Containers) != 1 || len(second.Containers) != 1 {
		t.Errorf("expected both pushes to report one container, got %+v / %+v", first, second)
	}
}
