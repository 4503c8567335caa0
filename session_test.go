package sftpsession

import (
	"encoding/binary"
	"io"
	"net"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/randomminds/sftpsession/memfs"
	"github.com/randomminds/sftpsession/wire"
)

// testClient is a minimal hand-rolled SFTP v3 client used only to drive a
// Session through its paces; it has no ambitions beyond this test file.
type testClient struct {
	t    *testing.T
	conn net.Conn
	id   uint32
}

func newTestClient(t *testing.T, conn net.Conn) *testClient {
	return &testClient{t: t, conn: conn}
}

func (c *testClient) send(typ wire.PacketType, hasID bool, build func(w *wire.Writer)) uint32 {
	c.t.Helper()
	w := wire.NewWriter()
	id := c.id
	c.id++
	w.Start(typ, hasID, id)
	build(w)
	_, err := c.conn.Write(w.Finish())
	require.NoError(c.t, err)
	return id
}

func (c *testClient) recv() (wire.PacketType, *wire.Reader) {
	c.t.Helper()
	var lenBuf [4]byte
	_, err := io.ReadFull(c.conn, lenBuf[:])
	require.NoError(c.t, err)
	length := binary.BigEndian.Uint32(lenBuf[:])
	body := make([]byte, length)
	_, err = io.ReadFull(c.conn, body)
	require.NoError(c.t, err)
	return wire.PacketType(body[0]), wire.NewReader(body[1:])
}

func (c *testClient) init() {
	c.t.Helper()
	w := wire.NewWriter()
	w.Start(wire.PacketTypeInit, false, 0)
	w.WriteUint32(ProtocolVersion)
	_, err := c.conn.Write(w.Finish())
	require.NoError(c.t, err)

	typ, _ := c.recv()
	require.Equal(c.t, wire.PacketTypeVersion, typ)
}

func startTestSession(t *testing.T) *testClient {
	t.Helper()
	client, server := net.Pipe()
	t.Cleanup(func() { client.Close() })

	sess := New(server, memfs.New())
	go sess.Run()

	c := newTestClient(t, client)
	c.init()
	return c
}

func TestSessionInitNegotiatesVersion(t *testing.T) {
	startTestSession(t)
}

func TestSessionWriteReadRoundTrip(t *testing.T) {
	c := startTestSession(t)

	id := c.send(wire.PacketTypeOpen, true, func(w *wire.Writer) {
		w.WriteString("/hello.txt")
		w.WriteUint32(0x0000001b) // read|write|create|trunc
		var attrs wire.Attributes
		wire.WriteAttributes(w, &attrs)
	})
	typ, r := c.recv()
	require.Equal(t, wire.PacketTypeHandle, typ)
	gotID, _ := r.ReadUint32()
	require.Equal(t, id, gotID)
	handle, err := r.ReadString()
	require.NoError(t, err)

	payload := []byte("hello, sftp")
	id = c.send(wire.PacketTypeWrite, true, func(w *wire.Writer) {
		w.WriteString(handle)
		w.WriteUint64(0)
		w.WriteBytes(payload)
	})
	typ, r = c.recv()
	require.Equal(t, wire.PacketTypeStatus, typ)
	gotID, _ = r.ReadUint32()
	require.Equal(t, id, gotID)
	status, _ := r.ReadUint32()
	require.Equal(t, uint32(wire.StatusOK), status)

	id = c.send(wire.PacketTypeRead, true, func(w *wire.Writer) {
		w.WriteString(handle)
		w.WriteUint64(0)
		w.WriteUint32(1024)
	})
	typ, r = c.recv()
	require.Equal(t, wire.PacketTypeData, typ)
	gotID, _ = r.ReadUint32()
	require.Equal(t, id, gotID)
	data, err := r.ReadByteString()
	require.NoError(t, err)
	require.Equal(t, payload, data)

	c.send(wire.PacketTypeClose, true, func(w *wire.Writer) {
		w.WriteString(handle)
	})
	typ, r = c.recv()
	require.Equal(t, wire.PacketTypeStatus, typ)
	status, _ = r.ReadUint32()
	require.Equal(t, uint32(wire.StatusOK), status)
}

func TestSessionReaddirPagination(t *testing.T) {
	c := startTestSession(t)

	for _, name := range []string{"/a", "/b", "/c"} {
		id := c.send(wire.PacketTypeMkdir, true, func(w *wire.Writer) {
			w.WriteString(name)
			var attrs wire.Attributes
			wire.WriteAttributes(w, &attrs)
		})
		typ, r := c.recv()
		require.Equal(t, wire.PacketTypeStatus, typ)
		gotID, _ := r.ReadUint32()
		require.Equal(t, id, gotID)
	}

	id := c.send(wire.PacketTypeOpendir, true, func(w *wire.Writer) {
		w.WriteString("/")
	})
	typ, r := c.recv()
	require.Equal(t, wire.PacketTypeHandle, typ)
	gotID, _ := r.ReadUint32()
	require.Equal(t, id, gotID)
	handle, err := r.ReadString()
	require.NoError(t, err)

	seen := map[string]bool{}
	for {
		c.send(wire.PacketTypeReaddir, true, func(w *wire.Writer) {
			w.WriteString(handle)
		})
		typ, r := c.recv()
		if typ == wire.PacketTypeStatus {
			status, _ := r.ReadUint32()
			require.Equal(t, uint32(wire.StatusEOF), status)
			break
		}
		require.Equal(t, wire.PacketTypeName, typ)
		count, _ := r.ReadUint32()
		for i := uint32(0); i < count; i++ {
			name, err := r.ReadString()
			require.NoError(t, err)
			_, err = r.ReadString() // longname
			require.NoError(t, err)
			_, err = wire.ReadAttributes(r)
			require.NoError(t, err)
			seen[name] = true
		}
	}

	require.True(t, seen["a"] && seen["b"] && seen["c"])
}
