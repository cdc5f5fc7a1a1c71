package core

import "sync"

// Handle is the in-memory state of one open file — §4.6 C6. Reads and
// writes land in Buffer; nothing touches the blob pipeline until Flush.
// O_APPEND is rejected at open time (§4.6 edge case), so Buffer always
// represents the full intended body, not an appended tail.
type Handle struct {
	ID       int64
	InodeID  int64
	Buffer   []byte
	Dirty    bool
	Flags    int
	RefCount int
}

// Grow extends Buffer to at least size bytes, zero-filling the gap, as
// required when a write lands past the current end or setattr truncates
// upward.
func (h *Handle) Grow(size int64) {
	if int64(len(h.Buffer)) >= size {
		return
	}
	grown := make([]byte, size)
	copy(grown, h.Buffer)
	h.Buffer = grown
}

// WriteAt writes data at off, growing the buffer as needed, and marks the
// handle dirty. It never interprets O_APPEND — callers already rejected it.
func (h *Handle) WriteAt(data []byte, off int64) int {
	end := off + int64(len(data))
	h.Grow(end)
	copy(h.Buffer[off:end], data)
	h.Dirty = true
	return len(data)
}

// ReadAt copies up to len(dst) bytes starting at off into dst, returning
// the number of bytes copied (0 at or past end-of-buffer).
func (h *Handle) ReadAt(dst []byte, off int64) int {
	if off >= int64(len(h.Buffer)) {
		return 0
	}
	n := copy(dst, h.Buffer[off:])
	return n
}

// Truncate resizes Buffer to size, zero-filling on growth, and marks the
// handle dirty so the new size is persisted on the next flush.
func (h *Handle) Truncate(size int64) {
	switch {
	case int64(len(h.Buffer)) == size:
	case int64(len(h.Buffer)) < size:
		h.Grow(size)
	default:
		h.Buffer = h.Buffer[:size]
	}
	h.Dirty = true
}

// HandleTable assigns and tracks open Handles. The façade's cooperative
// single-threaded model means most callers never contend on mu, but it
// guards the table against the rare case of a FUSE adapter dispatching
// release concurrently with a new open.
type HandleTable struct {
	mu     sync.Mutex
	next   int64
	open   map[int64]*Handle
}

func NewHandleTable() *HandleTable {
	return &HandleTable{open: make(map[int64]*Handle)}
}

// Open creates a new handle for inodeID, preloaded with body, and returns
// its id.
func (t *HandleTable) Open(inodeID int64, body []byte, flags int) int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.next++
	id := t.next
	buf := make([]byte, len(body))
	copy(buf, body)
	t.open[id] = &Handle{ID: id, InodeID: inodeID, Buffer: buf, Flags: flags, RefCount: 1}
	return id
}

// Get returns the handle for id, or nil if it is not open.
func (t *HandleTable) Get(id int64) *Handle {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.open[id]
}

// Release drops one reference to handle id, removing it from the table
// once the refcount reaches zero. Returns the handle so the caller can
// flush it first if still dirty.
func (t *HandleTable) Release(id int64) *Handle {
	t.mu.Lock()
	defer t.mu.Unlock()
	h, ok := t.open[id]
	if !ok {
		return nil
	}
	h.RefCount--
	if h.RefCount <= 0 {
		delete(t.open, id)
	}
	return h
}

// Retain increments the refcount of an already-open handle, used when the
// same inode is opened twice concurrently under §4.6's dedup-by-inode rule.
func (t *HandleTable) Retain(id int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if h, ok := t.open[id]; ok {
		h.RefCount++
	}
}

// ByInode finds an already-open handle for inodeID, if any, so that a
// second open can share the same buffer instead of reloading the body.
func (t *HandleTable) ByInode(inodeID int64) *Handle {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, h := range t.open {
		if h.InodeID == inodeID {
			return h
		}
	}
	return nil
}
