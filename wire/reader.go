package wire

import (
	"encoding/binary"
	"errors"
)

// ErrShortPacket is returned when a Reader runs out of bytes mid-field.
var ErrShortPacket = errors.New("wire: packet too short")

// ErrLongPacket is returned by a Writer's capacity check when the requested
// bytes would exceed WriterCapacity.
var ErrLongPacket = errors.New("wire: packet too long")

// Reader parses the fields of a single request payload. readByteString and
// buffer alias the backing array handed to NewReader, so the caller must not
// reuse that array while those fields are in use; readString copies.
type Reader struct {
	b   []byte
	off int
}

// NewReader wraps buf for field-at-a-time parsing. NewReader takes ownership
// of buf; the caller must not modify it afterwards.
func NewReader(buf []byte) *Reader {
	return &Reader{b: buf}
}

// Len returns the number of unconsumed bytes.
func (r *Reader) Len() int { return len(r.b) - r.off }

// check asserts that at least n unconsumed bytes remain.
func (r *Reader) check(n int) error {
	if r.Len() < n {
		return ErrShortPacket
	}
	return nil
}

// skip discards the next n bytes.
func (r *Reader) skip(n int) error {
	if err := r.check(n); err != nil {
		return err
	}
	r.off += n
	return nil
}

// position returns the current read offset into the original buffer.
func (r *Reader) position() int { return r.off }

// buffer gives direct, zero-copy access to the unconsumed tail of the
// original buffer.
func (r *Reader) buffer() []byte { return r.b[r.off:] }

func (r *Reader) readByte() (byte, error) {
	if err := r.check(1); err != nil {
		return 0, err
	}
	v := r.b[r.off]
	r.off++
	return v, nil
}

func (r *Reader) readUint32() (uint32, error) {
	if err := r.check(4); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint32(r.b[r.off:])
	r.off += 4
	return v, nil
}

func (r *Reader) readUint64() (uint64, error) {
	if err := r.check(8); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint64(r.b[r.off:])
	r.off += 8
	return v, nil
}

func (r *Reader) readInt64() (int64, error) {
	v, err := r.readUint64()
	return int64(v), err
}

func (r *Reader) readString() (string, error) {
	n, err := r.readUint32()
	if err != nil {
		return "", err
	}
	if err := r.check(int(n)); err != nil {
		return "", err
	}
	s := string(r.b[r.off : r.off+int(n)])
	r.off += int(n)
	return s, nil
}

// readByteString reads a length-prefixed field without a string conversion,
// aliasing the underlying buffer.
func (r *Reader) readByteString() ([]byte, error) {
	n, err := r.readUint32()
	if err != nil {
		return nil, err
	}
	if err := r.check(int(n)); err != nil {
		return nil, err
	}
	v := r.b[r.off : r.off+int(n)]
	r.off += int(n)
	return v, nil
}

// Exported wrappers used by request handlers outside the wire package.

// ReadByte consumes and returns the next byte.
func (r *Reader) ReadByte() (byte, error) { return r.readByte() }

// ReadUint32 consumes and returns the next big-endian uint32.
func (r *Reader) ReadUint32() (uint32, error) { return r.readUint32() }

// ReadUint64 consumes and returns the next big-endian uint64.
func (r *Reader) ReadUint64() (uint64, error) { return r.readUint64() }

// ReadInt64 consumes and returns the next big-endian int64.
func (r *Reader) ReadInt64() (int64, error) { return r.readInt64() }

// ReadString consumes and returns the next length-prefixed string.
func (r *Reader) ReadString() (string, error) { return r.readString() }

// ReadByteString consumes and returns the next length-prefixed field
// without a string conversion, aliasing the underlying buffer.
func (r *Reader) ReadByteString() ([]byte, error) { return r.readByteString() }

// Remaining gives direct, zero-copy access to the unconsumed tail of the
// original buffer (§4.4 WRITE).
func (r *Reader) Remaining() []byte { return r.buffer() }

// Skip discards the next n bytes.
func (r *Reader) Skip(n int) error { return r.skip(n) }
