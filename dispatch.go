package sftpsession

import (
	"github.com/pkg/errors"

	"github.com/randomminds/sftpsession/wire"
)

// dispatch decodes one frame and routes it to its handler. Framing errors
// that make the payload itself illegible are session-fatal (§6); errors
// from a well-formed request are reported back to the client as a STATUS
// packet by the handler itself.
func (s *Session) dispatch(f frame) {
	if f.typ == wire.PacketTypeInit {
		s.handleInit(f.payload)
		return
	}

	r := wire.NewReader(f.payload)
	id, err := r.ReadUint32()
	if err != nil {
		s.fail(errors.Wrap(err, "request missing id"))
		return
	}

	switch f.typ {
	case wire.PacketTypeOpen:
		s.handleOpen(id, r)
	case wire.PacketTypeOpendir:
		s.handleOpendir(id, r)
	case wire.PacketTypeClose:
		s.handleClose(id, r)
	case wire.PacketTypeRead:
		s.handleRead(id, r)
	case wire.PacketTypeWrite:
		s.handleWrite(id, r)
	case wire.PacketTypeReaddir:
		s.handleReaddir(id, r)
	case wire.PacketTypeFstat:
		s.handleFstat(id, r)
	case wire.PacketTypeFsetstat:
		s.handleFsetstat(id, r)
	case wire.PacketTypeLstat:
		s.handleLstat(id, r)
	case wire.PacketTypeStat:
		s.handleStat(id, r)
	case wire.PacketTypeSetstat:
		s.handleSetstat(id, r)
	case wire.PacketTypeRemove:
		s.handleRemove(id, r)
	case wire.PacketTypeRmdir:
		s.handleRmdir(id, r)
	case wire.PacketTypeMkdir:
		s.handleMkdir(id, r)
	case wire.PacketTypeRename:
		s.handleRename(id, r)
	case wire.PacketTypeSymlink:
		s.handleSymlink(id, r)
	case wire.PacketTypeReadlink:
		s.handleReadlink(id, r)
	case wire.PacketTypeRealpath:
		s.handleRealpath(id, r)
	case wire.PacketTypeExtended:
		s.handleExtended(id, r)
	default:
		s.writeStatus(id, NewStatusError(wire.StatusOPUnsupported))
	}
}

// handleInit negotiates the protocol version (§4.1). This is the one
// exchange with no request id on either side.
func (s *Session) handleInit(payload []byte) {
	r := wire.NewReader(payload)
	if _, err := r.ReadUint32(); err != nil {
		s.fail(err)
		return
	}

	s.writer.Start(wire.PacketTypeVersion, false, 0)
	s.writer.WriteUint32(ProtocolVersion)
	wire.WriteExtensionPair(s.writer, wire.ExtensionPair{Name: wire.ExtHardlink, Data: "1"})
	s.writeFrame()
}
