// Package statsapi exposes a read-only HTTP view over a storage.Manager
// and an mdindex.Directory: a JSON snapshot and a WebSocket stream of the
// same snapshot pushed on an interval. It is a composition root a caller
// mounts on its own router; neither pkg/storage nor pkg/mdindex import it.
package statsapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/mnohosten/heapindex/pkg/mdindex"
	"github.com/mnohosten/heapindex/pkg/storage"
)

// DefaultStreamInterval is how often GET /stats/stream pushes a fresh
// snapshot when the caller doesn't override it.
const DefaultStreamInterval = 2 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Snapshot is the JSON shape served by GET /stats and pushed by
// GET /stats/stream.
type Snapshot struct {
	Containers []storage.ContainerStats `json:"containers"`
	Indexes    []mdindex.IndexStats     `json:"indexes"`
}

// Handler serves the observability endpoints over a storage manager and
// an index directory it does not own.
type Handler struct {
	mgr            *storage.Manager
	dir            *mdindex.Directory
	tid            string
	streamInterval time.Duration
	log            *slog.Logger
	router         *chi.Mux
}

// New constructs a Handler. tid is the transaction id used for the scans
// a snapshot requires (this package has no transaction model of its own).
func New(mgr *storage.Manager, dir *mdindex.Directory, tid string, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{
		mgr:            mgr,
		dir:            dir,
		tid:            tid,
		streamInterval: DefaultStreamInterval,
		log:            logger,
	}
	h.router = chi.NewRouter()
	h.router.Get("/stats", h.handleSnapshot)
	h.router.Get("/stats/stream", h.handleStream)
	return h
}

// SetStreamInterval overrides the push interval used by /stats/stream.
func (h *Handler) SetStreamInterval(d time.Duration) {
	h.streamInterval = d
}

// ServeHTTP lets Handler be mounted directly on a parent chi.Router via
// r.Mount("/", h) or used standalone with http.ListenAndServe.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) snapshot() (Snapshot, error) {
	containers, err := h.mgr.Stats()
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Containers: containers, Indexes: h.dir.Stats()}, nil
}

func (h *Handler) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := h.snapshot()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(snap); err != nil {
		h.log.Error("statsapi: failed to encode snapshot", "error", err)
	}
}

func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("statsapi: websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ticker := time.NewTicker(h.streamInterval)
	defer ticker.Stop()

	ctx := r.Context()
	for {
		snap, err := h.snapshot()
		if err != nil {
			h.log.Error("statsapi: failed to build snapshot", "error", err)
			return
		}
		if err := conn.WriteJSON(snap); err != nil {
			h.log.Warn("statsapi: client disconnected", "error", err)
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
