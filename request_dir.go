package sftpsession

import "github.com/randomminds/sftpsession/wire"

// readdirEntrySize estimates the wire cost of one NAME entry, used against
// wire.ReaddirSoftBudget (§4.4). It need not be exact: going slightly over
// budget on the last entry just means a marginally larger packet, still
// well inside wire.WriterCapacity.
func readdirEntrySize(e DirEntry) int {
	return 4 + len(e.Name) + 4 + len(e.Longname) + e.Attrs.Len()
}

func (s *Session) handleReaddir(id uint32, r *wire.Reader) {
	sl, _, ok := s.lookupHandle(id, r)
	if !ok {
		return
	}
	if sl.dir == nil {
		s.writeStatus(id, ErrBadHandle)
		return
	}

	s.runOnHandle(sl, func() func() {
		batch := sl.pending
		sl.pending = nil

		var fetchErr error
		if len(batch) == 0 {
			batch, fetchErr = sl.dir.Read()
		}

		return func() {
			if len(batch) == 0 {
				if fetchErr != nil {
					s.writeStatus(id, fetchErr)
					return
				}
				s.writeStatus(id, NewStatusError(wire.StatusEOF))
				return
			}

			for i := range batch {
				if batch[i].Longname == "" {
					batch[i].Longname = FormatLongname(batch[i])
				}
			}

			budget := wire.ReaddirSoftBudget
			n := 0
			for n < len(batch) && budget > 0 {
				budget -= readdirEntrySize(batch[n])
				n++
				if budget <= 0 {
					break
				}
			}
			if n == 0 {
				n = 1 // always make forward progress, even over budget
			}

			send := batch[:n]
			sl.pending = batch[n:]

			s.writer.Start(wire.PacketTypeName, true, id)
			s.writer.WriteUint32(uint32(len(send)))
			for _, e := range send {
				s.writer.WriteString(e.Name)
				s.writer.WriteString(e.Longname)
				attrs := e.Attrs
				wire.WriteAttributes(s.writer, &attrs)
			}
			s.writeFrame()
		}
	})
}
