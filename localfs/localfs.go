// Package localfs implements the sftpsession.FileSystem capability against
// the local operating system's filesystem.
package localfs

import (
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/randomminds/sftpsession"
	"github.com/randomminds/sftpsession/wire"
)

// Backend implements sftpsession.FileSystem over the local OS filesystem.
// A Backend is not chrooted: paths are resolved relative to WorkDir (or the
// process cwd if empty) the same way a shell would resolve a relative path,
// so exposing one directly to an untrusted client is unsafe without an
// additional jailing layer.
type Backend struct {
	ReadOnly bool
	WorkDir  string

	handles atomic.Uint64
}

func (b *Backend) resolve(p string) (string, error) {
	if b.WorkDir != "" && !path.IsAbs(p) {
		p = path.Join(b.WorkDir, p)
	} else {
		p = path.Clean(p)
	}
	if p == "" {
		return "", sftpsession.NewStatusError(wire.StatusNoSuchFile)
	}
	return filepath.FromSlash(p), nil
}

func attrsFromFileInfo(fi fs.FileInfo) wire.Attributes {
	var a wire.Attributes
	a.Flags = wire.AttrSize | wire.AttrPermissions | wire.AttrACModTime
	a.Size = uint64(fi.Size())
	a.Permissions = uint32(fi.Mode().Perm())
	if fi.IsDir() {
		a.Permissions |= 0040000
	}
	mtime := uint32(fi.ModTime().Unix())
	a.ATime, a.MTime = mtime, mtime

	fileStatFromInfoOs(fi, &a)
	return a
}

func (b *Backend) Open(path string, flags []sftpsession.OpenFlags, attrs wire.Attributes) (sftpsession.FileHandle, error) {
	lpath, err := b.resolve(path)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for _, mode := range flags {
		osFlags, ok := b.translateFlags(mode)
		if !ok {
			lastErr = fs.ErrPermission
			continue
		}

		perm := os.FileMode(0666)
		if attrs.HasPermissions() {
			perm = os.FileMode(attrs.Permissions).Perm()
		}

		f, err := os.OpenFile(lpath, osFlags, perm)
		if err == nil {
			return &File{File: f, filename: lpath, handle: b.nextHandle()}, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

func (b *Backend) translateFlags(mode sftpsession.OpenFlags) (int, bool) {
	var osFlags int
	switch {
	case mode&sftpsession.FlagWrite != 0:
		if b.ReadOnly {
			return 0, false
		}
		if mode&sftpsession.FlagRead != 0 {
			osFlags = os.O_RDWR
		} else {
			osFlags = os.O_WRONLY
		}
	case mode&sftpsession.FlagRead != 0:
		osFlags = os.O_RDONLY
	default:
		return 0, false
	}

	if mode&sftpsession.FlagCreate != 0 {
		osFlags |= os.O_CREATE
	}
	if mode&sftpsession.FlagTruncate != 0 {
		osFlags |= os.O_TRUNC
	}
	if mode&sftpsession.FlagExcl != 0 {
		osFlags |= os.O_EXCL
	}
	return osFlags, true
}

func (b *Backend) nextHandle() string {
	return itoa(b.handles.Add(1))
}

func itoa(v uint64) string {
	if v == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}

func (b *Backend) OpenDir(path string) (sftpsession.DirHandle, error) {
	lpath, err := b.resolve(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(lpath)
	if err != nil {
		return nil, err
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if !fi.IsDir() {
		f.Close()
		return nil, &fs.PathError{Op: "opendir", Path: lpath, Err: os.ErrInvalid}
	}
	return &Dir{f: f}, nil
}

func (b *Backend) Lstat(path string) (wire.Attributes, error) {
	lpath, err := b.resolve(path)
	if err != nil {
		return wire.Attributes{}, err
	}
	fi, err := os.Lstat(lpath)
	if err != nil {
		return wire.Attributes{}, err
	}
	return attrsFromFileInfo(fi), nil
}

func (b *Backend) Stat(path string) (wire.Attributes, error) {
	lpath, err := b.resolve(path)
	if err != nil {
		return wire.Attributes{}, err
	}
	fi, err := os.Stat(lpath)
	if err != nil {
		return wire.Attributes{}, err
	}
	return attrsFromFileInfo(fi), nil
}

func (b *Backend) SetStat(path string, attrs wire.Attributes) error {
	lpath, err := b.resolve(path)
	if err != nil {
		return err
	}
	return applySetStat(lpath, attrs)
}

func applySetStat(lpath string, attrs wire.Attributes) error {
	if attrs.HasSize() {
		if err := os.Truncate(lpath, int64(attrs.Size)); err != nil {
			return err
		}
	}
	if attrs.HasUIDGID() {
		if err := os.Chown(lpath, int(attrs.UID), int(attrs.GID)); err != nil {
			return err
		}
	}
	if attrs.HasPermissions() {
		if err := os.Chmod(lpath, os.FileMode(attrs.Permissions).Perm()); err != nil {
			return err
		}
	}
	if attrs.HasACModTime() {
		if err := os.Chtimes(lpath, time.Unix(int64(attrs.ATime), 0), time.Unix(int64(attrs.MTime), 0)); err != nil {
			return err
		}
	}
	return nil
}

func (b *Backend) Remove(path string) error {
	lpath, err := b.resolve(path)
	if err != nil {
		return err
	}
	fi, err := os.Lstat(lpath)
	if err != nil {
		return err
	}
	if fi.IsDir() {
		return &fs.PathError{Op: "remove", Path: lpath, Err: os.ErrInvalid}
	}
	return os.Remove(lpath)
}

func (b *Backend) Rmdir(path string) error {
	lpath, err := b.resolve(path)
	if err != nil {
		return err
	}
	fi, err := os.Stat(lpath)
	if err != nil {
		return err
	}
	if !fi.IsDir() {
		return &fs.PathError{Op: "rmdir", Path: lpath, Err: os.ErrInvalid}
	}
	return os.Remove(lpath)
}

func (b *Backend) Mkdir(path string, attrs wire.Attributes) error {
	lpath, err := b.resolve(path)
	if err != nil {
		return err
	}
	perm := os.FileMode(0755)
	if attrs.HasPermissions() {
		perm = os.FileMode(attrs.Permissions).Perm()
	}
	return os.Mkdir(lpath, perm)
}

func (b *Backend) Rename(oldPath, newPath string) error {
	from, err := b.resolve(oldPath)
	if err != nil {
		return err
	}
	to, err := b.resolve(newPath)
	if err != nil {
		return err
	}
	if _, err := os.Stat(to); err == nil {
		return fs.ErrExist
	}
	return os.Rename(from, to)
}

func (b *Backend) Symlink(target, linkPath string) error {
	link, err := b.resolve(linkPath)
	if err != nil {
		return err
	}
	// target is a client-supplied string, not necessarily rooted under
	// WorkDir; symlinks are allowed to point anywhere, same as a shell's
	// ln -s would allow.
	return os.Symlink(target, link)
}

func (b *Backend) Hardlink(oldPath, newPath string) error {
	from, err := b.resolve(oldPath)
	if err != nil {
		return err
	}
	to, err := b.resolve(newPath)
	if err != nil {
		return err
	}
	return os.Link(from, to)
}

func (b *Backend) Readlink(path string) (string, error) {
	lpath, err := b.resolve(path)
	if err != nil {
		return "", err
	}
	return os.Readlink(lpath)
}

func (b *Backend) Realpath(p string) (string, error) {
	lpath, err := b.resolve(p)
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(lpath)
	if err != nil {
		return "", err
	}
	return path.Join("/", filepath.ToSlash(abs)), nil
}
