package sftpsession

import "github.com/pkg/errors"

// MaxHandles is the fixed capacity of a session's handle table (§3). OPEN
// and OPENDIR requests beyond this many simultaneously open handles fail
// with SSH_FX_FAILURE.
const MaxHandles = 512

// ErrHandleTableFull is returned by the handle table when all MaxHandles
// slots are in use.
var ErrHandleTableFull = errors.New("sftpsession: handle table full")

// ErrBadHandle is returned when a request names a handle string the table
// does not recognize, or that has since been closed.
var ErrBadHandle = errors.New("sftpsession: invalid handle")

// task is one backend call queued against a handle, waiting for the handle
// to become free (§3 per-handle FIFO ordering).
type task func()

// slot is one entry of the handle table. A slot is live from the moment
// OPEN/OPENDIR hands its handle string to the client until the matching
// CLOSE completes; after that it is tombstoned and its index is eligible
// for reuse.
type slot struct {
	generation uint32 // bumped on every reuse, woven into the handle string
	live       bool

	file FileHandle // set iff this slot holds a regular file
	dir  DirHandle  // set iff this slot holds a directory stream

	// pending items left over from a READDIR response that hit
	// wire.ReaddirSoftBudget; returned before the backend is consulted
	// again (§4.4).
	pending []DirEntry

	locked bool   // a backend call is currently in flight for this handle
	queue  []task // FIFO of calls waiting for the in-flight call to finish
}

// handleTable assigns and tracks the handle strings a Session hands out for
// OPEN and OPENDIR. Allocation advances a rolling cursor through the table
// rather than always reusing the lowest free index, so a stale handle from
// a misbehaving client is less likely to collide with a freshly issued one
// bearing the same numeric index (§3).
type handleTable struct {
	slots []slot
	next  int // next index to probe, wraps mod len(slots)
}

func newHandleTable() *handleTable {
	return &handleTable{slots: make([]slot, MaxHandles)}
}

// alloc reserves a slot and returns its handle string. The returned slot
// index can be recovered with lookup.
func (t *handleTable) alloc() (string, *slot, error) {
	for i := 0; i < len(t.slots); i++ {
		idx := (t.next + i) % len(t.slots)
		s := &t.slots[idx]
		if !s.live {
			s.live = true
			s.generation++
			s.file = nil
			s.dir = nil
			s.pending = nil
			s.locked = false
			s.queue = nil
			t.next = (idx + 1) % len(t.slots)
			return encodeHandle(idx, s.generation), s, nil
		}
	}
	return "", nil, ErrHandleTableFull
}

// lookup resolves a handle string to its live slot.
func (t *handleTable) lookup(handle string) (*slot, error) {
	idx, gen, ok := decodeHandle(handle)
	if !ok || idx < 0 || idx >= len(t.slots) {
		return nil, ErrBadHandle
	}
	s := &t.slots[idx]
	if !s.live || s.generation != gen {
		return nil, ErrBadHandle
	}
	return s, nil
}

// free tombstones the slot backing handle, rejecting further lookups
// against it until alloc recycles the index with a new generation.
func (t *handleTable) free(handle string) error {
	s, err := t.lookup(handle)
	if err != nil {
		return err
	}
	s.live = false
	s.file = nil
	s.dir = nil
	s.pending = nil
	s.queue = nil
	return nil
}

// encodeHandle packs a slot index and generation into the opaque handle
// string returned to the client. The client must treat this as opaque
// (§3); it is never parsed back out except by decodeHandle.
func encodeHandle(idx int, generation uint32) string {
	b := make([]byte, 8)
	putUint32(b[0:4], uint32(idx))
	putUint32(b[4:8], generation)
	return string(b)
}

func decodeHandle(handle string) (idx int, generation uint32, ok bool) {
	if len(handle) != 8 {
		return 0, 0, false
	}
	b := []byte(handle)
	return int(getUint32(b[0:4])), getUint32(b[4:8]), true
}

func putUint32(b []byte, v uint32) {
	b[0] = byte(v >> 24)
	b[1] = byte(v >> 16)
	b[2] = byte(v >> 8)
	b[3] = byte(v)
}

func getUint32(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

// enqueue schedules fn to run against s's handle. If no call is currently
// in flight for this handle, fn runs immediately; otherwise it joins the
// FIFO and runs once every earlier call has called processNext (§3).
func (s *slot) enqueue(fn task) {
	if s.locked {
		s.queue = append(s.queue, fn)
		return
	}
	s.locked = true
	fn()
}

// processNext releases the current in-flight call and starts the next
// queued one, if any. Every enqueue'd task must call this exactly once
// when its backend work completes, including on error.
func (s *slot) processNext() {
	if len(s.queue) == 0 {
		s.locked = false
		return
	}
	next := s.queue[0]
	s.queue = s.queue[1:]
	next() // still locked; next() must itself call processNext when done
}
