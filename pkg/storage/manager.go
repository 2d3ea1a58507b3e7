// Package storage implements the on-disk heap-file and slotted-page
// storage core: fixed-size pages with a slot directory, heap files built
// from a sequence of those pages, and a manager that maps named
// containers to their heap files.
package storage

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"golang.org/x/crypto/blake2b"
)

// ContainerID names an independent stream of byte values: one heap file
// per table, or per persisted index state.
type ContainerID string

// ValueID identifies a live value by the container, page and slot that
// hold it.
type ValueID struct {
	ContainerID ContainerID
	PageID      PageID
	SlotID      SlotID
}

func (v ValueID) String() string {
	return fmt.Sprintf("%s/%d/%d", v.ContainerID, v.PageID, v.SlotID)
}

// ContainerConfig is the identity a container was created with. Two
// CreateContainer calls for the same ContainerID are only idempotent when
// their configs agree on Name and Type.
type ContainerConfig struct {
	Name string
	Type string
	Deps []ContainerID
}

type container struct {
	id     ContainerID
	config ContainerConfig
	hf     *HeapFile
	mu     sync.RWMutex
}

type locationEntry struct {
	HFPath string `json:"hf_path"`
}

// Manager implements the StorageManager component: container lifecycle,
// byte-level insert/get/delete/update, iteration, and shutdown/restart.
type Manager struct {
	root string
	log  *slog.Logger

	mu         sync.RWMutex
	containers map[ContainerID]*container
}

// NewManager opens (or creates) the storage root and rehydrates any
// containers recorded by a previous Shutdown.
func NewManager(root string, logger *slog.Logger) (*Manager, error) {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Manager{
		root:       root,
		log:        logger,
		containers: make(map[ContainerID]*container),
	}

	if err := os.MkdirAll(m.containersDir(), 0755); err != nil {
		return nil, fmt.Errorf("storage: create containers dir: %w", err)
	}
	if err := os.MkdirAll(m.locationsDir(), 0755); err != nil {
		return nil, fmt.Errorf("storage: create containers_location dir: %w", err)
	}

	if err := m.rehydrate(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Manager) containersDir() string { return filepath.Join(m.root, "containers") }
func (m *Manager) locationsDir() string  { return filepath.Join(m.root, "containers_location") }

func (m *Manager) containerFilePath(id ContainerID) string {
	return filepath.Join(m.containersDir(), string(id))
}

// rehydrate replays the containers_location side index written by a
// prior Shutdown. An entry whose checksum sidecar does not match is
// logged and treated as absent rather than failing the whole restart.
func (m *Manager) rehydrate() error {
	entries, err := os.ReadDir(m.locationsDir())
	if err != nil {
		return fmt.Errorf("storage: read containers_location: %w", err)
	}

	for _, entry := range entries {
		name := entry.Name()
		if filepath.Ext(name) == ".sum" {
			continue
		}
		id := ContainerID(name)

		raw, err := os.ReadFile(filepath.Join(m.locationsDir(), name))
		if err != nil {
			m.log.Warn("storage: skip container during rehydrate: unreadable side-index entry", "container", id, "error", err)
			continue
		}

		sum, err := os.ReadFile(filepath.Join(m.locationsDir(), name+".sum"))
		if err != nil || !checksumMatches(raw, sum) {
			m.log.Warn("storage: skip container during rehydrate: checksum mismatch", "container", id)
			continue
		}

		var loc locationEntry
		if err := json.Unmarshal(raw, &loc); err != nil {
			m.log.Warn("storage: skip container during rehydrate: malformed side-index entry", "container", id, "error", err)
			continue
		}

		hf, err := NewHeapFile(loc.HFPath)
		if err != nil {
			m.log.Warn("storage: skip container during rehydrate: cannot open heap file", "container", id, "path", loc.HFPath, "error", err)
			continue
		}
		m.containers[id] = &container{id: id, hf: hf, config: ContainerConfig{Name: string(id)}}
	}
	return nil
}

func checksumMatches(data, wantHex []byte) bool {
	sum := blake2b.Sum256(data)
	got := fmt.Sprintf("%x", sum)
	return got == string(wantHex)
}

// CreateContainer registers a new container and its backing heap file.
// Idempotent when an existing container shares the same Name and Type.
func (m *Manager) CreateContainer(id ContainerID, config ContainerConfig, tid string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if c, exists := m.containers[id]; exists {
		if c.config.Name == config.Name && c.config.Type == config.Type {
			return nil
		}
		return fmt.Errorf("%w: %s", ErrContainerExists, id)
	}

	hf, err := NewHeapFile(m.containerFilePath(id))
	if err != nil {
		return err
	}
	m.containers[id] = &container{id: id, hf: hf, config: config}
	return nil
}

// CreateTable is a convenience wrapper supplying a default container
// config for a table-backed heap file.
func (m *Manager) CreateTable(id ContainerID, tid string) error {
	return m.CreateContainer(id, ContainerConfig{Name: string(id), Type: "table"}, tid)
}

// RemoveContainer closes and deletes a container's backing heap file.
func (m *Manager) RemoveContainer(id ContainerID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.containers[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrContainerNotFound, id)
	}
	path := c.hf.Path()
	if err := c.hf.Close(); err != nil {
		return fmt.Errorf("storage: close heap file for %s: %w", id, err)
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("storage: remove heap file for %s: %w", id, err)
	}
	delete(m.containers, id)
	return nil
}

func (m *Manager) getContainer(id ContainerID) (*container, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.containers[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrContainerNotFound, id)
	}
	return c, nil
}

// InsertValue finds the first page, in ascending page id order, where the
// value fits; failing that, it appends a new page. It panics if value is
// longer than PageSize, a precondition violation rather than a
// recoverable error; a shorter value that still cannot fit on an empty
// page is reported as ErrValueTooLarge.
func (m *Manager) InsertValue(id ContainerID, value []byte, tid string) (ValueID, error) {
	if len(value) > PageSize {
		panic(fmt.Sprintf("storage: insert value of %d bytes exceeds PageSize %d", len(value), PageSize))
	}

	c, err := m.getContainer(id)
	if err != nil {
		return ValueID{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	numPages, err := c.hf.NumPages()
	if err != nil {
		return ValueID{}, err
	}

	for pid := PageID(0); pid < numPages; pid++ {
		page, err := c.hf.ReadPageFromFile(pid)
		if err != nil {
			return ValueID{}, err
		}
		if slotID, ok := page.AddValue(value); ok {
			if err := c.hf.WriteUpdatedPageToFile(page, pid); err != nil {
				return ValueID{}, err
			}
			return ValueID{ContainerID: id, PageID: pid, SlotID: slotID}, nil
		}
	}

	page := NewPage(numPages)
	slotID, ok := page.AddValue(value)
	if !ok {
		return ValueID{}, fmt.Errorf("%w: %d bytes", ErrValueTooLarge, len(value))
	}
	pid, err := c.hf.WritePageToFile(page)
	if err != nil {
		return ValueID{}, err
	}
	return ValueID{ContainerID: id, PageID: pid, SlotID: slotID}, nil
}

// InsertValues inserts each value in order, returning their assigned
// ValueIDs in the same order.
func (m *Manager) InsertValues(id ContainerID, values [][]byte, tid string) ([]ValueID, error) {
	out := make([]ValueID, len(values))
	for i, v := range values {
		vid, err := m.InsertValue(id, v, tid)
		if err != nil {
			return nil, err
		}
		out[i] = vid
	}
	return out, nil
}

// DeleteValue removes the slot named by vid. It succeeds quietly if the
// slot was already absent.
func (m *Manager) DeleteValue(vid ValueID, tid string) error {
	c, err := m.getContainer(vid.ContainerID)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	page, err := c.hf.ReadPageFromFile(vid.PageID)
	if err != nil {
		return err
	}
	page.DeleteValue(vid.SlotID)
	return c.hf.WriteUpdatedPageToFile(page, vid.PageID)
}

// UpdateValue inserts the new bytes before deleting vid, so the insert's
// first-fit scan can never land on vid's own (still-occupied) slot and
// the returned ValueID is always distinct from it. The old ValueID is
// dead once UpdateValue returns: a get against it reports NotFound.
func (m *Manager) UpdateValue(value []byte, vid ValueID, tid string) (ValueID, error) {
	newVid, err := m.InsertValue(vid.ContainerID, value, tid)
	if err != nil {
		return ValueID{}, err
	}
	if err := m.DeleteValue(vid, tid); err != nil {
		return ValueID{}, err
	}
	return newVid, nil
}

// GetValue returns the value's bytes, failing if the container, page or
// slot does not exist.
func (m *Manager) GetValue(vid ValueID, tid string) ([]byte, error) {
	c, err := m.getContainer(vid.ContainerID)
	if err != nil {
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	page, err := c.hf.ReadPageFromFile(vid.PageID)
	if err != nil {
		return nil, err
	}
	v, ok := page.GetValue(vid.SlotID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrValueNotFound, vid)
	}
	return v, nil
}

// GetIterator returns an unopened HeapFileIterator over the container's
// current contents.
func (m *Manager) GetIterator(id ContainerID, tid string) (*HeapFileIterator, error) {
	c, err := m.getContainer(id)
	if err != nil {
		return nil, err
	}
	return NewHeapFileIterator(c.hf), nil
}

// Shutdown persists every container's id-to-heap-file-path mapping under
// containers_location, each with an independent BLAKE2b-256 checksum
// sidecar. A failure writing one entry does not abort the others.
func (m *Manager) Shutdown() error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var firstErr error
	for id, c := range m.containers {
		if err := m.persistLocation(id, c); err != nil {
			m.log.Error("storage: failed to persist container location", "container", id, "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (m *Manager) persistLocation(id ContainerID, c *container) error {
	raw, err := json.Marshal(locationEntry{HFPath: c.hf.Path()})
	if err != nil {
		return fmt.Errorf("storage: marshal location for %s: %w", id, err)
	}
	sum := blake2b.Sum256(raw)

	entryPath := filepath.Join(m.locationsDir(), string(id))
	if err := os.WriteFile(entryPath, raw, 0644); err != nil {
		return fmt.Errorf("storage: write location for %s: %w", id, err)
	}
	if err := os.WriteFile(entryPath+".sum", []byte(fmt.Sprintf("%x", sum)), 0644); err != nil {
		return fmt.Errorf("storage: write location checksum for %s: %w", id, err)
	}
	return nil
}

// ContainerStats is a point-in-time snapshot of one container's size and
// I/O activity, reported by the observability endpoint.
type ContainerStats struct {
	ContainerID ContainerID
	Type        string
	NumPages    PageID
	ReadCount   int64
	WriteCount  int64
}

// Stats returns a snapshot of every registered container, ordered by
// ContainerID for deterministic output.
func (m *Manager) Stats() ([]ContainerStats, error) {
	m.mu.RLock()
	ids := make([]ContainerID, 0, len(m.containers))
	snap := make(map[ContainerID]*container, len(m.containers))
	for id, c := range m.containers {
		ids = append(ids, id)
		snap[id] = c
	}
	m.mu.RUnlock()

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]ContainerStats, 0, len(ids))
	for _, id := range ids {
		c := snap[id]
		numPages, err := c.hf.NumPages()
		if err != nil {
			return nil, err
		}
		out = append(out, ContainerStats{
			ContainerID: id,
			Type:        c.config.Type,
			NumPages:    numPages,
			ReadCount:   c.hf.ReadCount(),
			WriteCount:  c.hf.WriteCount(),
		})
	}
	return out, nil
}

// Reset removes every file under the storage root and clears in-memory
// state. Used by tests.
func (m *Manager) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, c := range m.containers {
		_ = c.hf.Close()
	}
	m.containers = make(map[ContainerID]*container)

	if err := os.RemoveAll(m.root); err != nil {
		return fmt.Errorf("storage: reset storage root: %w", err)
	}
	if err := os.MkdirAll(m.containersDir(), 0755); err != nil {
		return err
	}
	return os.MkdirAll(m.locationsDir(), 0755)
}
