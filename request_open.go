package sftpsession

import "github.com/randomminds/sftpsession/wire"

// sftpFlagsToModes expands the wire SSH_FXF_* bitmask into the ordered
// fallback list of OpenFlags the backend should try in turn (§4.3). A
// client that asks for create but neither excl nor trunc is, in effect,
// asking "open if it exists, else create" — two distinct attempts a naive
// single-mode Open can't express, so the whole list goes to
// FileSystem.Open, which tries the entries in order and keeps the first
// that succeeds.
func sftpFlagsToModes(pflags uint32) []OpenFlags {
	const (
		sshFxfRead   = 0x00000001
		sshFxfWrite  = 0x00000002
		sshFxfAppend = 0x00000004
		sshFxfCreat  = 0x00000008
		sshFxfTrunc  = 0x00000010
		sshFxfExcl   = 0x00000020
	)

	var base OpenFlags
	if pflags&sshFxfRead != 0 {
		base |= FlagRead
	}
	if pflags&sshFxfWrite != 0 {
		base |= FlagWrite
	}
	if pflags&sshFxfAppend != 0 {
		base |= FlagAppend
	}

	if pflags&sshFxfCreat == 0 {
		// No creation requested: a single open-existing attempt.
		return []OpenFlags{base}
	}

	if pflags&sshFxfExcl != 0 {
		// Must not already exist: a single create-exclusive attempt.
		return []OpenFlags{base | FlagCreate | FlagExcl}
	}

	if pflags&sshFxfTrunc != 0 {
		// Create-or-truncate: truncate if present, else create fresh.
		return []OpenFlags{base | FlagCreate | FlagTruncate}
	}

	// Create-if-missing, preserve if present: try opening the existing
	// file first, and only create it if that fails.
	return []OpenFlags{base, base | FlagCreate | FlagExcl}
}

func (s *Session) handleOpen(id uint32, r *wire.Reader) {
	path, err := r.ReadString()
	if err != nil {
		s.fail(err)
		return
	}
	pflags, err := r.ReadUint32()
	if err != nil {
		s.fail(err)
		return
	}
	attrs, err := wire.ReadAttributes(r)
	if err != nil {
		s.fail(err)
		return
	}

	modes := sftpFlagsToModes(pflags)

	handle, sl, allocErr := s.handles.alloc()
	if allocErr != nil {
		s.writeStatus(id, allocErr)
		return
	}

	s.spawn(func() func() {
		fh, err := s.fs.Open(path, modes, attrs)
		return func() {
			if err != nil {
				_ = s.handles.free(handle)
				s.writeStatus(id, err)
				return
			}
			sl.file = fh
			s.writeHandle(id, handle)
		}
	})
}

func (s *Session) handleOpendir(id uint32, r *wire.Reader) {
	path, err := r.ReadString()
	if err != nil {
		s.fail(err)
		return
	}

	handle, sl, allocErr := s.handles.alloc()
	if allocErr != nil {
		s.writeStatus(id, allocErr)
		return
	}

	s.spawn(func() func() {
		dh, err := s.fs.OpenDir(path)
		return func() {
			if err != nil {
				_ = s.handles.free(handle)
				s.writeStatus(id, err)
				return
			}
			sl.dir = dh
			s.writeHandle(id, handle)
		}
	})
}

func (s *Session) writeHandle(id uint32, handle string) {
	s.writer.Start(wire.PacketTypeHandle, true, id)
	s.writer.WriteString(handle)
	s.writeFrame()
}
