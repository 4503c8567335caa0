package wire

// Attribute flag bits (§3 Attribute block), as defined in
// draft-ietf-secsh-filexfer-02 section 5.
const (
	AttrSize        = 1 << 0
	AttrUIDGID      = 1 << 1
	AttrPermissions = 1 << 2
	AttrACModTime   = 1 << 3
)

// Attributes is the flags-gated bundle of optional stat fields shared by
// many request and response types (§3). A zero Attributes with Flags == 0
// is the empty attribute block used by REALPATH/READLINK responses.
type Attributes struct {
	Flags uint32

	Size uint64 // valid iff Flags&AttrSize != 0

	UID uint32 // valid iff Flags&AttrUIDGID != 0
	GID uint32

	Permissions uint32 // valid iff Flags&AttrPermissions != 0

	ATime uint32 // valid iff Flags&AttrACModTime != 0
	MTime uint32
}

// HasSize reports whether the size field was present on decode.
func (a *Attributes) HasSize() bool { return a.Flags&AttrSize != 0 }

// HasUIDGID reports whether the uid/gid fields were present on decode.
func (a *Attributes) HasUIDGID() bool { return a.Flags&AttrUIDGID != 0 }

// HasPermissions reports whether the permissions field was present on decode.
func (a *Attributes) HasPermissions() bool { return a.Flags&AttrPermissions != 0 }

// HasACModTime reports whether the atime/mtime fields were present on decode.
func (a *Attributes) HasACModTime() bool { return a.Flags&AttrACModTime != 0 }

// marshal appends the attribute block onto w, writing only the fields whose
// flag bit is set (§4.1).
func (a *Attributes) marshal(w *Writer) {
	w.writeUint32(a.Flags)

	if a.Flags&AttrSize != 0 {
		w.writeUint64(a.Size)
	}
	if a.Flags&AttrUIDGID != 0 {
		w.writeUint32(a.UID)
		w.writeUint32(a.GID)
	}
	if a.Flags&AttrPermissions != 0 {
		w.writeUint32(a.Permissions)
	}
	if a.Flags&AttrACModTime != 0 {
		w.writeUint32(a.ATime)
		w.writeUint32(a.MTime)
	}
}

// unmarshalAttributes reads an attribute block from r, mirroring marshal
// field for field (§4.1).
func unmarshalAttributes(r *Reader) (Attributes, error) {
	var a Attributes

	flags, err := r.readUint32()
	if err != nil {
		return a, err
	}
	a.Flags = flags

	if a.Flags&AttrSize != 0 {
		if a.Size, err = r.readUint64(); err != nil {
			return a, err
		}
	}
	if a.Flags&AttrUIDGID != 0 {
		if a.UID, err = r.readUint32(); err != nil {
			return a, err
		}
		if a.GID, err = r.readUint32(); err != nil {
			return a, err
		}
	}
	if a.Flags&AttrPermissions != 0 {
		if a.Permissions, err = r.readUint32(); err != nil {
			return a, err
		}
	}
	if a.Flags&AttrACModTime != 0 {
		if a.ATime, err = r.readUint32(); err != nil {
			return a, err
		}
		if a.MTime, err = r.readUint32(); err != nil {
			return a, err
		}
	}

	return a, nil
}

// ReadAttributes parses an attribute block from the front of r. It is the
// exported entry point request handlers use when a request carries an
// attribute block (OPEN, SETSTAT, FSETSTAT, MKDIR).
func ReadAttributes(r *Reader) (Attributes, error) {
	return unmarshalAttributes(r)
}

// WriteAttributes appends an attribute block to w. Exported so request
// handlers can build ATTRS responses.
func WriteAttributes(w *Writer, a *Attributes) {
	a.marshal(w)
}

// Len returns the number of bytes a.marshal would append, used to estimate
// the wire size of READDIR entries.
func (a *Attributes) Len() int {
	n := 4
	if a.Flags&AttrSize != 0 {
		n += 8
	}
	if a.Flags&AttrUIDGID != 0 {
		n += 8
	}
	if a.Flags&AttrPermissions != 0 {
		n += 4
	}
	if a.Flags&AttrACModTime != 0 {
		n += 8
	}
	return n
}
