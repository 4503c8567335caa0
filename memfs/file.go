package memfs

import (
	"io"
	"time"

	"github.com/randomminds/sftpsession"
	"github.com/randomminds/sftpsession/wire"
)

// File is a handle onto one regular-file node of a Backend.
type File struct {
	b *Backend
	n *node
}

func (f *File) ReadAt(p []byte, off int64) (int, error) {
	f.b.mu.Lock()
	defer f.b.mu.Unlock()

	if off >= int64(len(f.n.data)) {
		return 0, io.EOF
	}
	n := copy(p, f.n.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (f *File) WriteAt(p []byte, off int64) (int, error) {
	f.b.mu.Lock()
	defer f.b.mu.Unlock()

	end := off + int64(len(p))
	if end > int64(len(f.n.data)) {
		grown := make([]byte, end)
		copy(grown, f.n.data)
		f.n.data = grown
	}
	copy(f.n.data[off:], p)
	f.n.mtime = time.Now()
	return len(p), nil
}

func (f *File) Stat() (wire.Attributes, error) {
	f.b.mu.Lock()
	defer f.b.mu.Unlock()
	return attrsOf(f.n), nil
}

func (f *File) SetStat(attrs wire.Attributes) error {
	f.b.mu.Lock()
	defer f.b.mu.Unlock()
	applySetStat(f.n, attrs)
	return nil
}

func (f *File) Close() error { return nil }

// Dir is a handle onto a pre-rendered directory listing: memfs builds the
// whole listing up front under OpenDir's lock, so Read just paginates the
// slice without needing to touch the Backend again.
type Dir struct {
	entries []sftpsession.DirEntry
	pos     int
}

const dirBatch = 128

func (d *Dir) Read() ([]sftpsession.DirEntry, error) {
	if d.pos >= len(d.entries) {
		return nil, io.EOF
	}
	end := d.pos + dirBatch
	if end > len(d.entries) {
		end = len(d.entries)
	}
	batch := d.entries[d.pos:end]
	d.pos = end
	return batch, nil
}

func (d *Dir) Close() error { return nil }
