package sftpsession

import "github.com/randomminds/sftpsession/wire"

func (s *Session) handleFstat(id uint32, r *wire.Reader) {
	sl, _, ok := s.lookupHandle(id, r)
	if !ok {
		return
	}
	if sl.file == nil {
		s.writeStatus(id, ErrBadHandle)
		return
	}
	s.runOnHandle(sl, func() func() {
		attrs, err := sl.file.Stat()
		return func() { s.writeAttrsOrStatus(id, attrs, err) }
	})
}

func (s *Session) handleFsetstat(id uint32, r *wire.Reader) {
	sl, _, ok := s.lookupHandle(id, r)
	if !ok {
		return
	}
	attrs, err := wire.ReadAttributes(r)
	if err != nil {
		s.fail(err)
		return
	}
	if sl.file == nil {
		s.writeStatus(id, ErrBadHandle)
		return
	}
	s.runOnHandle(sl, func() func() {
		err := sl.file.SetStat(attrs)
		return func() { s.writeStatus(id, err) }
	})
}
