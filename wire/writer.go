package wire

import "encoding/binary"

// MaxPacketLength is the largest inbound request the dispatcher accepts
// (§3). A request whose length prefix is larger ends the session as fatal
// before it is parsed; no BAD_MESSAGE status is sent for it.
const MaxPacketLength = 66000

// WriterCapacity is the fixed capacity of a response packet buffer (§4.1).
// READ (capped at MaxReadLength) and READDIR (capped at ReaddirSoftBudget)
// are sized so that a single response never needs more than this.
const WriterCapacity = 34000

// MaxReadLength is the largest READ response payload the engine will ever
// produce, regardless of the client-requested length (§4.4).
const MaxReadLength = 0x8000

// ReaddirSoftBudget is the soft byte budget for a single READDIR response
// (§4.4); once exceeded, remaining items are stashed on the handle for the
// next READDIR.
const ReaddirSoftBudget = 0x7000

// Writer builds one outbound packet into a buffer preallocated with
// WriterCapacity bytes. The write methods append past that capacity rather
// than failing; check reports whether n more bytes would fit. The zero
// value is not usable; construct with NewWriter.
type Writer struct {
	b []byte
}

// NewWriter allocates a Writer with WriterCapacity of backing storage.
func NewWriter() *Writer {
	return &Writer{b: make([]byte, 0, WriterCapacity)}
}

// Start resets the Writer and reserves the 4-byte length prefix, then writes
// the packet type and, when hasID is set, the request id (every type but
// INIT and VERSION). Later writeByte/writeUint32/etc. calls append after
// this header.
func (w *Writer) Start(typ PacketType, hasID bool, id uint32) {
	w.b = w.b[:0]
	w.b = append(w.b, 0, 0, 0, 0) // length placeholder
	w.b = append(w.b, byte(typ))
	if hasID {
		w.writeUint32(id)
	}
}

// Finish patches the length prefix with the number of bytes written since
// Start, and returns the complete wire packet.
func (w *Writer) Finish() []byte {
	binary.BigEndian.PutUint32(w.b, uint32(len(w.b)-4))
	return w.b
}

// Len returns the number of bytes written since Start, including the header.
func (w *Writer) Len() int { return len(w.b) }

// check asserts that n additional bytes fit within WriterCapacity.
func (w *Writer) check(n int) error {
	if len(w.b)+n > WriterCapacity {
		return ErrLongPacket
	}
	return nil
}

func (w *Writer) writeByte(v byte) {
	w.b = append(w.b, v)
}

func (w *Writer) writeUint32(v uint32) {
	w.b = append(w.b, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}

func (w *Writer) writeUint64(v uint64) {
	w.b = append(w.b,
		byte(v>>56), byte(v>>48), byte(v>>40), byte(v>>32),
		byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}

func (w *Writer) writeInt64(v int64) {
	w.writeUint64(uint64(v))
}

func (w *Writer) writeString(s string) {
	w.writeUint32(uint32(len(s)))
	w.b = append(w.b, s...)
}

func (w *Writer) writeBytes(b []byte) {
	w.writeUint32(uint32(len(b)))
	w.b = append(w.b, b...)
}

// reserveUint32 appends a placeholder uint32 and returns its offset, so the
// caller can patch it later with patchUint32. The READDIR handler does not
// use it: it picks its items first and writes the count directly.
func (w *Writer) reserveUint32() int {
	off := len(w.b)
	w.b = append(w.b, 0, 0, 0, 0)
	return off
}

func (w *Writer) patchUint32(off int, v uint32) {
	binary.BigEndian.PutUint32(w.b[off:], v)
}

// reserve grows the buffer by n zero bytes and returns a slice aliasing
// that region directly, so a caller can fill it with no intermediate copy.
// The READ handler does not use it: the backend reads into a separate
// buffer, which is then copied into the packet with WriteBytes.
func (w *Writer) reserve(n int) []byte {
	off := len(w.b)
	w.b = append(w.b, make([]byte, n)...)
	return w.b[off : off+n]
}

// truncate drops the last n bytes written, for trimming a reserved region
// that turns out to be larger than what was actually used.
func (w *Writer) truncate(n int) {
	w.b = w.b[:len(w.b)-n]
}

// Exported wrappers used by request handlers outside the wire package.

// WriteByte appends a single byte.
func (w *Writer) WriteByte(v byte) error { w.writeByte(v); return nil }

// WriteUint32 appends a big-endian uint32.
func (w *Writer) WriteUint32(v uint32) { w.writeUint32(v) }

// WriteUint64 appends a big-endian uint64.
func (w *Writer) WriteUint64(v uint64) { w.writeUint64(v) }

// WriteInt64 appends a big-endian int64.
func (w *Writer) WriteInt64(v int64) { w.writeInt64(v) }

// WriteString appends a length-prefixed string.
func (w *Writer) WriteString(s string) { w.writeString(s) }

// WriteBytes appends a length-prefixed byte slice.
func (w *Writer) WriteBytes(b []byte) { w.writeBytes(b) }

// ReserveUint32 appends a placeholder uint32 and returns its offset for a
// later PatchUint32 call.
func (w *Writer) ReserveUint32() int { return w.reserveUint32() }

// PatchUint32 overwrites the uint32 at off, previously reserved with
// ReserveUint32.
func (w *Writer) PatchUint32(off int, v uint32) { w.patchUint32(off, v) }

// Reserve grows the buffer by n zero bytes and returns a slice aliasing
// that region, for zero-copy reads into the response buffer.
func (w *Writer) Reserve(n int) []byte { return w.reserve(n) }

// Truncate drops the last n bytes written.
func (w *Writer) Truncate(n int) { w.truncate(n) }

// Remaining returns how many more bytes can be written before WriterCapacity
// is reached.
func (w *Writer) Remaining() int { return WriterCapacity - len(w.b) }
