package storage

import (
	"encoding/binary"
	"fmt"
	"sort"
)

const (
	// PageSize is the fixed size of every on-disk page.
	PageSize = 4096

	// pageHeaderSize is the fixed prefix: page_id (2) + slot_count (2) +
	// reserved (4).
	pageHeaderSize = 8

	// slotEntrySize is the on-disk width of one slot directory entry:
	// slot_id (2) + start (2) + end (2).
	slotEntrySize = 6
)

// PageID identifies a page's position within a HeapFile.
type PageID uint16

// SlotID identifies a value's directory entry within a single page. Stable
// across other slots' lifetimes, but may be reassigned to a new value once
// its previous occupant is deleted.
type SlotID uint16

type slotRange struct {
	start uint16
	end   uint16
}

// Page is a fixed-size slotted block. It stores opaque byte values, each
// addressed by a SlotID, in a directory-plus-payload layout: the directory
// maps slot ids to byte ranges, and payload bytes are packed from the
// highest page offset downward as values are inserted.
type Page struct {
	id      PageID
	slots   map[SlotID]slotRange
	payload []byte // PageSize bytes; only the ranges named by slots are meaningful
}

// NewPage constructs an empty page with no live slots.
func NewPage(id PageID) *Page {
	return &Page{
		id:      id,
		slots:   make(map[SlotID]slotRange),
		payload: make([]byte, PageSize),
	}
}

// GetPageID returns the page's identifier.
func (p *Page) GetPageID() PageID {
	return p.id
}

// headerSize is the combined size of the fixed prefix and the current
// slot directory. It grows by slotEntrySize with every live slot.
func (p *Page) headerSize() int {
	return pageHeaderSize + slotEntrySize*len(p.slots)
}

// GetHeaderSize reports the current header-plus-directory overhead.
func (p *Page) GetHeaderSize() int {
	return p.headerSize()
}

// payloadTop returns the lowest start offset among live slots, or PageSize
// if the page holds no values, i.e. the current boundary between free
// space and the packed payload region.
func (p *Page) payloadTop() int {
	top := PageSize
	for _, r := range p.slots {
		if int(r.start) < top {
			top = int(r.start)
		}
	}
	return top
}

func (p *Page) liveBytes() int {
	total := 0
	for _, r := range p.slots {
		total += int(r.end - r.start)
	}
	return total
}

func (p *Page) nextSlotID() SlotID {
	var id SlotID
	for {
		if _, used := p.slots[id]; !used {
			return id
		}
		id++
	}
}

// GetLargestFreeContiguousSpace returns the longest run of bytes in
// [headerSize, PageSize) not covered by any live slot's range.
func (p *Page) GetLargestFreeContiguousSpace() int {
	ranges := make([]slotRange, 0, len(p.slots))
	for _, r := range p.slots {
		ranges = append(ranges, r)
	}
	sort.Slice(ranges, func(i, j int) bool { return ranges[i].start < ranges[j].start })

	largest := 0
	cursor := p.headerSize()
	for _, r := range ranges {
		if int(r.start) > cursor {
			if gap := int(r.start) - cursor; gap > largest {
				largest = gap
			}
		}
		if int(r.end) > cursor {
			cursor = int(r.end)
		}
	}
	if gap := PageSize - cursor; gap > largest {
		largest = gap
	}
	return largest
}

// compact repacks every live payload contiguously from the top of the
// page downward, preserving slot ids but rewriting their byte ranges.
func (p *Page) compact() {
	ids := make([]SlotID, 0, len(p.slots))
	for id := range p.slots {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	cursor := PageSize
	newPayload := make([]byte, PageSize)
	for _, id := range ids {
		r := p.slots[id]
		n := int(r.end - r.start)
		cursor -= n
		copy(newPayload[cursor:cursor+n], p.payload[r.start:r.end])
		p.slots[id] = slotRange{start: uint16(cursor), end: uint16(cursor + n)}
	}
	p.payload = newPayload
}

// AddValue attempts to place value into the page, returning the assigned
// slot id and true on success. It fails (ok=false) when value cannot fit
// even after compaction, including when value is larger than the page can
// ever hold.
func (p *Page) AddValue(value []byte) (SlotID, bool) {
	n := len(value)
	if n == 0 {
		return 0, false
	}

	requiredHeader := p.headerSize() + slotEntrySize
	if top := p.payloadTop(); top-requiredHeader >= n {
		return p.place(value, top-n)
	}

	totalFree := PageSize - requiredHeader - p.liveBytes()
	if totalFree < n {
		return 0, false
	}
	p.compact()
	top := p.payloadTop()
	return p.place(value, top-n)
}

func (p *Page) place(value []byte, start int) (SlotID, bool) {
	id := p.nextSlotID()
	end := start + len(value)
	copy(p.payload[start:end], value)
	p.slots[id] = slotRange{start: uint16(start), end: uint16(end)}
	return id, true
}

// GetValue returns a copy of the slot's payload, or ok=false if the slot
// is not live.
func (p *Page) GetValue(id SlotID) ([]byte, bool) {
	r, ok := p.slots[id]
	if !ok {
		return nil, false
	}
	out := make([]byte, r.end-r.start)
	copy(out, p.payload[r.start:r.end])
	return out, true
}

// DeleteValue removes the slot's directory entry, returning ok=false if
// the slot was already absent. The slot id is not reused by any
// currently-live set member but may be assigned to a future insert.
func (p *Page) DeleteValue(id SlotID) bool {
	if _, ok := p.slots[id]; !ok {
		return false
	}
	delete(p.slots, id)
	return true
}

// LiveSlotIDs returns every currently-live slot id in ascending order.
func (p *Page) LiveSlotIDs() []SlotID {
	ids := make([]SlotID, 0, len(p.slots))
	for id := range p.slots {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Values returns the payload bytes of every live slot in ascending
// slot-id order.
func (p *Page) Values() [][]byte {
	ids := p.LiveSlotIDs()
	out := make([][]byte, len(ids))
	for i, id := range ids {
		v, _ := p.GetValue(id)
		out[i] = v
	}
	return out
}

// GetBytes serialises the page to its fixed PageSize on-disk form.
func (p *Page) GetBytes() []byte {
	buf := make([]byte, PageSize)
	binary.LittleEndian.PutUint16(buf[0:2], uint16(p.id))
	binary.LittleEndian.PutUint16(buf[2:4], uint16(len(p.slots)))
	// bytes [4:8) reserved, left zero

	ids := p.LiveSlotIDs()
	off := pageHeaderSize
	for _, id := range ids {
		r := p.slots[id]
		binary.LittleEndian.PutUint16(buf[off:off+2], uint16(id))
		binary.LittleEndian.PutUint16(buf[off+2:off+4], r.start)
		binary.LittleEndian.PutUint16(buf[off+4:off+6], r.end)
		off += slotEntrySize
	}

	for _, id := range ids {
		r := p.slots[id]
		copy(buf[r.start:r.end], p.payload[r.start:r.end])
	}

	return buf
}

// PageFromBytes deserialises a page previously produced by GetBytes.
func PageFromBytes(buf []byte) (*Page, error) {
	if len(buf) != PageSize {
		return nil, fmt.Errorf("storage: invalid page size: expected %d, got %d", PageSize, len(buf))
	}

	id := PageID(binary.LittleEndian.Uint16(buf[0:2]))
	slotCount := binary.LittleEndian.Uint16(buf[2:4])

	p := NewPage(id)
	off := pageHeaderSize
	for i := uint16(0); i < slotCount; i++ {
		if off+slotEntrySize > PageSize {
			return nil, fmt.Errorf("storage: %w: slot directory overruns page", ErrCorruptPage)
		}
		slotID := SlotID(binary.LittleEndian.Uint16(buf[off : off+2]))
		start := binary.LittleEndian.Uint16(buf[off+2 : off+4])
		end := binary.LittleEndian.Uint16(buf[off+4 : off+6])
		if start > end || int(end) > PageSize {
			return nil, fmt.Errorf("storage: %w: slot %d has invalid range [%d,%d)", ErrCorruptPage, slotID, start, end)
		}
		p.slots[slotID] = slotRange{start: start, end: end}
		off += slotEntrySize
	}
	copy(p.payload, buf)

	return p, nil
}
