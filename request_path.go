package sftpsession

import "github.com/randomminds/sftpsession/wire"

// Handlers in this file operate purely on paths: they never touch the
// handle table, so they need no per-handle serialization (§3) and run
// concurrently with everything else.

func (s *Session) handleLstat(id uint32, r *wire.Reader) {
	path, err := r.ReadString()
	if err != nil {
		s.fail(err)
		return
	}
	s.spawn(func() func() {
		attrs, err := s.fs.Lstat(path)
		return func() { s.writeAttrsOrStatus(id, attrs, err) }
	})
}

func (s *Session) handleStat(id uint32, r *wire.Reader) {
	path, err := r.ReadString()
	if err != nil {
		s.fail(err)
		return
	}
	s.spawn(func() func() {
		attrs, err := s.fs.Stat(path)
		return func() { s.writeAttrsOrStatus(id, attrs, err) }
	})
}

func (s *Session) handleSetstat(id uint32, r *wire.Reader) {
	path, err := r.ReadString()
	if err != nil {
		s.fail(err)
		return
	}
	attrs, err := wire.ReadAttributes(r)
	if err != nil {
		s.fail(err)
		return
	}
	s.spawn(func() func() {
		err := s.fs.SetStat(path, attrs)
		return func() { s.writeStatus(id, err) }
	})
}

func (s *Session) handleRemove(id uint32, r *wire.Reader) {
	path, err := r.ReadString()
	if err != nil {
		s.fail(err)
		return
	}
	s.spawn(func() func() {
		err := s.fs.Remove(path)
		return func() { s.writeStatus(id, err) }
	})
}

func (s *Session) handleRmdir(id uint32, r *wire.Reader) {
	path, err := r.ReadString()
	if err != nil {
		s.fail(err)
		return
	}
	s.spawn(func() func() {
		err := s.fs.Rmdir(path)
		return func() { s.writeStatus(id, err) }
	})
}

func (s *Session) handleMkdir(id uint32, r *wire.Reader) {
	path, err := r.ReadString()
	if err != nil {
		s.fail(err)
		return
	}
	attrs, err := wire.ReadAttributes(r)
	if err != nil {
		s.fail(err)
		return
	}
	s.spawn(func() func() {
		err := s.fs.Mkdir(path, attrs)
		return func() { s.writeStatus(id, err) }
	})
}

func (s *Session) handleRename(id uint32, r *wire.Reader) {
	oldPath, err := r.ReadString()
	if err != nil {
		s.fail(err)
		return
	}
	newPath, err := r.ReadString()
	if err != nil {
		s.fail(err)
		return
	}
	s.spawn(func() func() {
		err := s.fs.Rename(oldPath, newPath)
		return func() { s.writeStatus(id, err) }
	})
}

func (s *Session) handleSymlink(id uint32, r *wire.Reader) {
	// SFTP v3 swaps the usual (target, linkpath) order: the linkpath
	// comes first on the wire, target second (§4.3 SYMLINK, a
	// longstanding protocol quirk every implementation must match).
	linkPath, err := r.ReadString()
	if err != nil {
		s.fail(err)
		return
	}
	target, err := r.ReadString()
	if err != nil {
		s.fail(err)
		return
	}
	s.spawn(func() func() {
		err := s.fs.Symlink(target, linkPath)
		return func() { s.writeStatus(id, err) }
	})
}

func (s *Session) handleReadlink(id uint32, r *wire.Reader) {
	path, err := r.ReadString()
	if err != nil {
		s.fail(err)
		return
	}
	s.spawn(func() func() {
		target, err := s.fs.Readlink(path)
		return func() { s.writeNameOrStatus(id, target, err) }
	})
}

func (s *Session) handleRealpath(id uint32, r *wire.Reader) {
	path, err := r.ReadString()
	if err != nil {
		s.fail(err)
		return
	}
	s.spawn(func() func() {
		resolved, err := s.fs.Realpath(path)
		return func() { s.writeNameOrStatus(id, resolved, err) }
	})
}

// handleExtended dispatches a vendor extension request (§6). The only
// extension advertised in VERSION is hardlink@openssh.com.
func (s *Session) handleExtended(id uint32, r *wire.Reader) {
	name, err := r.ReadString()
	if err != nil {
		s.fail(err)
		return
	}
	if name != wire.ExtHardlink {
		s.writeStatus(id, ErrUnsupported)
		return
	}
	oldPath, err := r.ReadString()
	if err != nil {
		s.fail(err)
		return
	}
	newPath, err := r.ReadString()
	if err != nil {
		s.fail(err)
		return
	}
	s.spawn(func() func() {
		err := s.fs.Hardlink(oldPath, newPath)
		return func() { s.writeStatus(id, err) }
	})
}

// writeAttrsOrStatus writes an ATTRS response on success, or a STATUS on
// error (§4.2).
func (s *Session) writeAttrsOrStatus(id uint32, attrs wire.Attributes, err error) {
	if err != nil {
		s.writeStatus(id, err)
		return
	}
	s.writer.Start(wire.PacketTypeAttrs, true, id)
	wire.WriteAttributes(s.writer, &attrs)
	s.writeFrame()
}

// writeNameOrStatus writes a single-entry NAME response on success, or a
// STATUS on error (§4.4 REALPATH/READLINK).
func (s *Session) writeNameOrStatus(id uint32, name string, err error) {
	if err != nil {
		s.writeStatus(id, err)
		return
	}
	s.writer.Start(wire.PacketTypeName, true, id)
	s.writer.WriteUint32(1)
	s.writer.WriteString(name)
	s.writer.WriteString("") // longname: REALPATH/READLINK carry no attrs, so none to render
	var empty wire.Attributes
	wire.WriteAttributes(s.writer, &empty)
	s.writeFrame()
}
