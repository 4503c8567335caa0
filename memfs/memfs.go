// Package memfs implements the sftpsession.FileSystem capability entirely
// in memory, for tests and for serving ephemeral content without touching
// disk.
package memfs

import (
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/randomminds/sftpsession"
	"github.com/randomminds/sftpsession/wire"
)

type node struct {
	name    string
	isDir   bool
	mode    uint32
	mtime   time.Time
	data    []byte
	target  string // symlink target, valid iff isLink
	isLink  bool
	entries map[string]*node
}

func newDir(name string) *node {
	return &node{name: name, isDir: true, mode: 0755, mtime: time.Now(), entries: map[string]*node{}}
}

// Backend is an in-memory FileSystem rooted at a single synthetic "/".
type Backend struct {
	mu   sync.Mutex
	root *node
}

// New returns an empty Backend containing only the root directory.
func New() *Backend {
	return &Backend{root: newDir("/")}
}

func clean(p string) string {
	return path.Clean("/" + p)
}

func split(p string) []string {
	p = clean(p)
	if p == "/" {
		return nil
	}
	return strings.Split(strings.TrimPrefix(p, "/"), "/")
}

// walk resolves p to its node and parent, without following the final
// symlink component.
func (b *Backend) walk(p string) (parent, n *node, name string, err error) {
	parts := split(p)
	cur := b.root
	if len(parts) == 0 {
		return nil, cur, "/", nil
	}
	for i, part := range parts {
		if !cur.isDir {
			return nil, nil, "", sftpsession.NewStatusError(wire.StatusNoSuchFile)
		}
		child, ok := cur.entries[part]
		if i == len(parts)-1 {
			if !ok {
				return cur, nil, part, fs.ErrNotExist
			}
			return cur, child, part, nil
		}
		if !ok {
			return nil, nil, "", sftpsession.NewStatusError(wire.StatusNoSuchFile)
		}
		cur = child
	}
	return nil, nil, "", sftpsession.NewStatusError(wire.StatusNoSuchFile)
}

func attrsOf(n *node) wire.Attributes {
	var a wire.Attributes
	a.Flags = wire.AttrSize | wire.AttrPermissions | wire.AttrACModTime
	perm := n.mode
	if n.isDir {
		perm |= 0040000
	}
	if n.isLink {
		perm |= 0120000
	}
	a.Permissions = perm
	a.Size = uint64(len(n.data))
	mt := uint32(n.mtime.Unix())
	a.ATime, a.MTime = mt, mt
	return a
}

func (b *Backend) Open(p string, flags []sftpsession.OpenFlags, attrs wire.Attributes) (sftpsession.FileHandle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var lastErr error
	for _, mode := range flags {
		parent, n, name, err := b.walk(p)
		switch {
		case err == nil && mode&sftpsession.FlagExcl != 0:
			lastErr = fs.ErrExist
			continue
		case err != nil && mode&sftpsession.FlagCreate == 0:
			lastErr = err
			continue
		case err != nil:
			if parent == nil {
				lastErr = err
				continue
			}
			perm := uint32(0644)
			if attrs.HasPermissions() {
				perm = attrs.Permissions
			}
			n = &node{name: name, mode: perm, mtime: time.Now()}
			parent.entries[name] = n
		}
		if n.isDir {
			lastErr = sftpsession.NewStatusError(wire.StatusFailure)
			continue
		}
		if mode&sftpsession.FlagTruncate != 0 {
			n.data = nil
		}
		return &File{b: b, n: n}, nil
	}
	return nil, lastErr
}

func (b *Backend) OpenDir(p string) (sftpsession.DirHandle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	_, n, _, err := b.walk(p)
	if err != nil {
		return nil, err
	}
	if !n.isDir {
		return nil, sftpsession.NewStatusError(wire.StatusFailure)
	}

	names := make([]string, 0, len(n.entries))
	for name := range n.entries {
		names = append(names, name)
	}
	sort.Strings(names)

	entries := make([]sftpsession.DirEntry, len(names))
	for i, name := range names {
		child := n.entries[name]
		e := sftpsession.DirEntry{Name: name, Attrs: attrsOf(child)}
		e.Longname = sftpsession.FormatLongname(e)
		entries[i] = e
	}
	return &Dir{entries: entries}, nil
}

func (b *Backend) Lstat(p string) (wire.Attributes, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, n, _, err := b.walk(p)
	if err != nil {
		return wire.Attributes{}, err
	}
	return attrsOf(n), nil
}

func (b *Backend) Stat(p string) (wire.Attributes, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, n, _, err := b.walk(p)
	if err != nil {
		return wire.Attributes{}, err
	}
	for n.isLink {
		_, target, _, err := b.walk(n.target)
		if err != nil {
			return wire.Attributes{}, err
		}
		n = target
	}
	return attrsOf(n), nil
}

func (b *Backend) SetStat(p string, attrs wire.Attributes) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, n, _, err := b.walk(p)
	if err != nil {
		return err
	}
	applySetStat(n, attrs)
	return nil
}

func applySetStat(n *node, attrs wire.Attributes) {
	if attrs.HasSize() {
		sz := int(attrs.Size)
		if sz < len(n.data) {
			n.data = n.data[:sz]
		} else {
			grown := make([]byte, sz)
			copy(grown, n.data)
			n.data = grown
		}
	}
	if attrs.HasPermissions() {
		n.mode = attrs.Permissions &^ 0170000
	}
	if attrs.HasACModTime() {
		n.mtime = time.Unix(int64(attrs.MTime), 0)
	}
}

func (b *Backend) Remove(p string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	parent, n, name, err := b.walk(p)
	if err != nil {
		return err
	}
	if n.isDir {
		return sftpsession.NewStatusError(wire.StatusFailure)
	}
	delete(parent.entries, name)
	return nil
}

func (b *Backend) Rmdir(p string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	parent, n, name, err := b.walk(p)
	if err != nil {
		return err
	}
	if !n.isDir {
		return sftpsession.NewStatusError(wire.StatusFailure)
	}
	if len(n.entries) > 0 {
		return sftpsession.NewStatusError(wire.StatusFailure)
	}
	delete(parent.entries, name)
	return nil
}

func (b *Backend) Mkdir(p string, attrs wire.Attributes) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	parent, _, name, err := b.walk(p)
	if err == nil {
		return fs.ErrExist
	}
	if parent == nil {
		return err
	}
	perm := uint32(0755)
	if attrs.HasPermissions() {
		perm = attrs.Permissions
	}
	d := newDir(name)
	d.mode = perm
	parent.entries[name] = d
	return nil
}

func (b *Backend) Rename(oldPath, newPath string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	oldParent, n, oldName, err := b.walk(oldPath)
	if err != nil {
		return err
	}
	newParent, existing, newName, err := b.walk(newPath)
	if err == nil && existing != nil {
		return fs.ErrExist
	}
	if newParent == nil {
		return err
	}
	delete(oldParent.entries, oldName)
	n.name = newName
	newParent.entries[newName] = n
	return nil
}

func (b *Backend) Symlink(target, linkPath string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	parent, _, name, err := b.walk(linkPath)
	if err == nil {
		return fs.ErrExist
	}
	if parent == nil {
		return err
	}
	parent.entries[name] = &node{name: name, isLink: true, target: target, mode: 0777, mtime: time.Now()}
	return nil
}

func (b *Backend) Hardlink(oldPath, newPath string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, n, _, err := b.walk(oldPath)
	if err != nil {
		return err
	}
	if n.isDir {
		return sftpsession.NewStatusError(wire.StatusFailure)
	}
	newParent, existing, newName, err := b.walk(newPath)
	if err == nil && existing != nil {
		return fs.ErrExist
	}
	if newParent == nil {
		return err
	}
	// The in-memory tree has no inode-sharing representation, so a
	// hardlink is approximated by aliasing the same node pointer under
	// a second name: writes through either name observe each other.
	newParent.entries[newName] = n
	return nil
}

func (b *Backend) Readlink(p string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, n, _, err := b.walk(p)
	if err != nil {
		return "", err
	}
	if !n.isLink {
		return "", sftpsession.NewStatusError(wire.StatusFailure)
	}
	return n.target, nil
}

func (b *Backend) Realpath(p string) (string, error) {
	return clean(p), nil
}
