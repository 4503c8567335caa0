package wire

// ExtHardlink is the extension name carried in an EXTENDED request's
// extended-request field to invoke the hardlink operation (§6). The SFTP v3
// base protocol has no HARDLINK packet type; vendor extensions are
// identified by this string instead of a dedicated PacketType.
const ExtHardlink = "hardlink@openssh.com"

// ExtensionPair is a (name, data) advertisement sent in the VERSION
// response's extension list (§4.1 INIT/VERSION exchange). The session
// engine advertises ExtHardlink so clients know HARDLINK is available.
type ExtensionPair struct {
	Name string
	Data string
}

// marshal appends the extension pair onto w as two length-prefixed strings.
func (e ExtensionPair) marshal(w *Writer) {
	w.writeString(e.Name)
	w.writeString(e.Data)
}

// WriteExtensionPair appends an extension pair to w. Exported for the
// VERSION response builder.
func WriteExtensionPair(w *Writer, e ExtensionPair) {
	e.marshal(w)
}

// unmarshalExtensionPair reads one extension pair from r, in the layout
// marshal writes for the VERSION response's extension list.
func unmarshalExtensionPair(r *Reader) (ExtensionPair, error) {
	var e ExtensionPair
	var err error

	if e.Name, err = r.readString(); err != nil {
		return e, err
	}
	if e.Data, err = r.readString(); err != nil {
		return e, err
	}
	return e, nil
}

// ReadExtensionPair parses an extension pair from the front of r. The
// EXTENDED request handler does not use it; it reads the extension name
// and the request's own fields one string at a time.
func ReadExtensionPair(r *Reader) (ExtensionPair, error) {
	return unmarshalExtensionPair(r)
}
