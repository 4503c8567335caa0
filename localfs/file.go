package localfs

import (
	"os"

	"github.com/randomminds/sftpsession"
	"github.com/randomminds/sftpsession/wire"
)

// File adapts an *os.File to sftpsession.FileHandle.
type File struct {
	*os.File
	filename string
	handle   string
}

func (f *File) Stat() (wire.Attributes, error) {
	fi, err := f.File.Stat()
	if err != nil {
		return wire.Attributes{}, err
	}
	return attrsFromFileInfo(fi), nil
}

func (f *File) SetStat(attrs wire.Attributes) error {
	return applySetStat(f.filename, attrs)
}

// Dir adapts an *os.File opened on a directory to sftpsession.DirHandle.
// It reads in small batches so a single READDIR call never pulls an
// unbounded listing into memory.
type Dir struct {
	f *os.File
}

const dirBatchSize = 128

func (d *Dir) Read() ([]sftpsession.DirEntry, error) {
	fis, err := d.f.Readdir(dirBatchSize)
	if len(fis) == 0 {
		return nil, err
	}

	entries := make([]sftpsession.DirEntry, len(fis))
	for i, fi := range fis {
		attrs := attrsFromFileInfo(fi)
		entries[i] = sftpsession.DirEntry{
			Name:  fi.Name(),
			Attrs: attrs,
		}
		entries[i].Longname = sftpsession.FormatLongname(entries[i])
	}
	// A non-EOF error alongside a non-empty batch is reported on the next
	// Read call, once the caller has consumed what we already have.
	return entries, nil
}

func (d *Dir) Close() error {
	return d.f.Close()
}
