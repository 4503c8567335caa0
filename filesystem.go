package sftpsession

import "github.com/randomminds/sftpsession/wire"

// OpenFlags are the SSH_FXF_* bits carried in an OPEN request, describing
// the access mode and creation semantics requested for the handle (§4.3).
type OpenFlags uint32

const (
	FlagRead OpenFlags = 1 << iota
	FlagWrite
	FlagAppend
	FlagCreate
	FlagTruncate
	FlagExcl
)

// FileSystem is the abstract backend a Session dispatches requests against.
// A concrete backend (localfs, memfs, or any other store) need only
// implement this capability; the session engine owns all wire framing,
// handle bookkeeping and per-handle ordering (§6).
//
// Every method may block; the session engine runs each call on its own
// goroutine so a slow backend call never stalls unrelated handles.
type FileSystem interface {
	// Open returns a handle for path under the given flags, trying each
	// entry of flags in order and keeping the first that succeeds (§4.3).
	// Implementations that only support one mode per call still receive
	// a single-element slice.
	Open(path string, flags []OpenFlags, attrs wire.Attributes) (FileHandle, error)

	OpenDir(path string) (DirHandle, error)

	Lstat(path string) (wire.Attributes, error)
	Stat(path string) (wire.Attributes, error)
	SetStat(path string, attrs wire.Attributes) error

	Remove(path string) error
	Rmdir(path string) error
	Mkdir(path string, attrs wire.Attributes) error
	Rename(oldPath, newPath string) error

	Symlink(target, linkPath string) error
	Hardlink(oldPath, newPath string) error
	Readlink(path string) (string, error)
	Realpath(path string) (string, error)
}

// FileHandle is a backend's representation of an open regular file. The
// session engine serializes calls per-handle (§3), so implementations need
// not be safe for concurrent use by themselves, but must tolerate
// interleaved calls across different handles.
type FileHandle interface {
	ReadAt(p []byte, off int64) (n int, err error)
	WriteAt(p []byte, off int64) (n int, err error)

	Stat() (wire.Attributes, error)
	SetStat(attrs wire.Attributes) error

	Close() error
}

// DirEntry is one entry of a directory listing (§4.4 READDIR).
type DirEntry struct {
	// Name is the bare filename, as it would appear in the directory.
	Name string
	// Longname is the ls -l style rendering of this entry (§4.4); callers
	// that don't care about a specific rendering may leave it empty and
	// let the session engine format one from Attrs.
	Longname string
	Attrs    wire.Attributes
}

// DirHandle is a backend's representation of an open directory stream.
// Read returns the next batch of entries; io.EOF signals the stream is
// exhausted (§4.4), replacing the protocol's native end-of-list behavior
// with Go's usual reader convention.
type DirHandle interface {
	Read() ([]DirEntry, error)
	Close() error
}
