package storage

import "fmt"

// HeapFileIterator is a lazy, finite, non-restartable sequence of value
// bytes produced by walking pages in ascending page id order and, within
// each page, yielding live payloads in ascending slot-id order.
type HeapFileIterator struct {
	hf       *HeapFile
	numPages PageID

	opened bool
	closed bool

	curPage   PageID
	curValues [][]byte
	curIdx    int
}

// NewHeapFileIterator constructs an iterator snapshotted to hf's current
// page count at the time it is opened.
func NewHeapFileIterator(hf *HeapFile) *HeapFileIterator {
	return &HeapFileIterator{hf: hf}
}

// Open snapshots the file's current page count and positions the
// iterator before the first page.
func (it *HeapFileIterator) Open() error {
	if it.closed {
		return fmt.Errorf("storage: %w", ErrIteratorClosed)
	}
	n, err := it.hf.NumPages()
	if err != nil {
		return err
	}
	it.numPages = n
	it.opened = true
	it.curPage = 0
	it.curValues = nil
	it.curIdx = 0
	return nil
}

// Next returns the next value's bytes, or ok=false once every live slot
// across every snapshotted page has been yielded.
func (it *HeapFileIterator) Next() ([]byte, bool, error) {
	if it.closed {
		return nil, false, fmt.Errorf("storage: %w", ErrIteratorClosed)
	}
	if !it.opened {
		return nil, false, fmt.Errorf("storage: iterator not opened")
	}

	for {
		if it.curIdx < len(it.curValues) {
			v := it.curValues[it.curIdx]
			it.curIdx++
			return v, true, nil
		}
		if it.curPage >= it.numPages {
			return nil, false, nil
		}

		page, err := it.hf.ReadPageFromFile(it.curPage)
		if err != nil {
			return nil, false, err
		}
		it.curValues = page.Values()
		it.curIdx = 0
		it.curPage++
	}
}

// Close marks the iterator closed; closed iterators must not be polled.
func (it *HeapFileIterator) Close() error {
	it.closed = true
	it.curValues = nil
	return nil
}
