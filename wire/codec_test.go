package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriterReaderRoundTrip(t *testing.T) {
	w := NewWriter()
	w.Start(PacketTypeOpen, true, 42)
	w.WriteString("/tmp/foo")
	w.WriteUint32(0x0000000f)
	w.WriteUint64(123456789)
	buf := w.Finish()

	// length prefix covers everything after itself
	assert.Equal(t, len(buf)-4, int(uint32(buf[0])<<24|uint32(buf[1])<<16|uint32(buf[2])<<8|uint32(buf[3])))
	assert.Equal(t, byte(PacketTypeOpen), buf[4])

	r := NewReader(buf[5:])
	id, err := r.ReadUint32()
	require.NoError(t, err)
	assert.Equal(t, uint32(42), id)

	path, err := r.ReadString()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/foo", path)

	flags, err := r.ReadUint32()
	require.NoError(t, err)
	assert.Equal(t, uint32(0x0000000f), flags)

	size, err := r.ReadUint64()
	require.NoError(t, err)
	assert.Equal(t, uint64(123456789), size)
}

func TestReaderShortPacket(t *testing.T) {
	r := NewReader([]byte{0, 0})
	_, err := r.ReadUint32()
	assert.ErrorIs(t, err, ErrShortPacket)
}

func TestWriterCapacityExceeded(t *testing.T) {
	w := NewWriter()
	w.Start(PacketTypeData, true, 1)
	err := w.check(WriterCapacity)
	assert.ErrorIs(t, err, ErrLongPacket)
}

func TestAttributesRoundTrip(t *testing.T) {
	want := Attributes{
		Flags:       AttrSize | AttrUIDGID | AttrPermissions | AttrACModTime,
		Size:        4096,
		UID:         1000,
		GID:         1000,
		Permissions: 0644,
		ATime:       1700000000,
		MTime:       1700000001,
	}

	w := NewWriter()
	w.Start(PacketTypeAttrs, true, 7)
	WriteAttributes(w, &want)
	buf := w.Finish()

	r := NewReader(buf[5:])
	_, err := r.ReadUint32() // id
	require.NoError(t, err)

	got, err := ReadAttributes(r)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestAttributesEmptyFlags(t *testing.T) {
	var want Attributes

	w := NewWriter()
	WriteAttributes(w, &want)
	r := NewReader(w.b)
	got, err := ReadAttributes(r)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, 0, r.Len())
}

func TestExtensionPairRoundTrip(t *testing.T) {
	want := ExtensionPair{Name: ExtHardlink, Data: "1"}

	w := NewWriter()
	WriteExtensionPair(w, want)
	r := NewReader(w.b)
	got, err := ReadExtensionPair(r)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestPacketTypeString(t *testing.T) {
	assert.Equal(t, "SSH_FXP_OPEN", PacketTypeOpen.String())
	assert.Equal(t, "SSH_FXP_UNKNOWN(255)", PacketType(255).String())
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "SSH_FX_OK", StatusOK.String())
	assert.Equal(t, "SSH_FX_UNKNOWN(99)", Status(99).String())
}
