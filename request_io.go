package sftpsession

import "github.com/randomminds/sftpsession/wire"

// lookupHandle resolves a request's handle field, failing the request with
// an SSH_FX_FAILURE STATUS if it's unknown (§4.2).
func (s *Session) lookupHandle(id uint32, r *wire.Reader) (*slot, string, bool) {
	handle, err := r.ReadString()
	if err != nil {
		s.fail(err)
		return nil, "", false
	}
	sl, err := s.handles.lookup(handle)
	if err != nil {
		s.writeStatus(id, err)
		return nil, "", false
	}
	return sl, handle, true
}

func (s *Session) handleClose(id uint32, r *wire.Reader) {
	sl, handle, ok := s.lookupHandle(id, r)
	if !ok {
		return
	}
	s.runOnHandle(sl, func() func() {
		var err error
		switch {
		case sl.file != nil:
			err = sl.file.Close()
		case sl.dir != nil:
			err = sl.dir.Close()
		}
		return func() {
			_ = s.handles.free(handle)
			s.writeStatus(id, err)
		}
	})
}

func (s *Session) handleRead(id uint32, r *wire.Reader) {
	sl, _, ok := s.lookupHandle(id, r)
	if !ok {
		return
	}
	offset, err := r.ReadUint64()
	if err != nil {
		s.fail(err)
		return
	}
	length, err := r.ReadUint32()
	if err != nil {
		s.fail(err)
		return
	}
	if length > wire.MaxReadLength {
		length = wire.MaxReadLength
	}

	if sl.file == nil {
		s.writeStatus(id, ErrBadHandle)
		return
	}

	s.runOnHandle(sl, func() func() {
		buf := make([]byte, length)
		n, err := sl.file.ReadAt(buf, int64(offset))
		return func() {
			if err != nil && n == 0 {
				s.writeStatus(id, err)
				return
			}
			s.writer.Start(wire.PacketTypeData, true, id)
			s.writer.WriteBytes(buf[:n])
			s.writeFrame()
		}
	})
}

func (s *Session) handleWrite(id uint32, r *wire.Reader) {
	sl, _, ok := s.lookupHandle(id, r)
	if !ok {
		return
	}
	offset, err := r.ReadUint64()
	if err != nil {
		s.fail(err)
		return
	}
	// Alias the request payload directly; WRITE never copies its data
	// into a fresh buffer before handing it to the backend (§4.4).
	data, err := r.ReadByteString()
	if err != nil {
		s.fail(err)
		return
	}

	if sl.file == nil {
		s.writeStatus(id, ErrBadHandle)
		return
	}

	s.runOnHandle(sl, func() func() {
		_, err := sl.file.WriteAt(data, int64(offset))
		return func() { s.writeStatus(id, err) }
	})
}
