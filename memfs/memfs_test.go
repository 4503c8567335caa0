package memfs

import (
	"io"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randomminds/sftpsession"
	"github.com/randomminds/sftpsession/wire"
)

func TestBackendMkdirAndStat(t *testing.T) {
	b := New()

	require.NoError(t, b.Mkdir("/dir", wire.Attributes{}))

	attrs, err := b.Stat("/dir")
	require.NoError(t, err)
	assert.True(t, attrs.Permissions&0040000 != 0)

	err = b.Mkdir("/dir", wire.Attributes{})
	assert.ErrorIs(t, err, fs.ErrExist)
}

func TestBackendOpenCreateThenReadWrite(t *testing.T) {
	b := New()

	fh, err := b.Open("/file.txt", []sftpsession.OpenFlags{
		sftpsession.FlagRead | sftpsession.FlagWrite | sftpsession.FlagCreate | sftpsession.FlagExcl,
	}, wire.Attributes{})
	require.NoError(t, err)

	n, err := fh.WriteAt([]byte("abc"), 0)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	buf := make([]byte, 8)
	n, err = fh.ReadAt(buf, 0)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, "abc", string(buf[:n]))

	require.NoError(t, fh.Close())
}

func TestBackendOpenExclFailsWhenExists(t *testing.T) {
	b := New()
	require.NoError(t, b.Mkdir("/d", wire.Attributes{}))

	_, err := b.Open("/d/file", []sftpsession.OpenFlags{sftpsession.FlagCreate | sftpsession.FlagExcl}, wire.Attributes{})
	require.NoError(t, err)

	_, err = b.Open("/d/file", []sftpsession.OpenFlags{sftpsession.FlagCreate | sftpsession.FlagExcl}, wire.Attributes{})
	assert.Error(t, err)
}

func TestBackendRenameAndRemove(t *testing.T) {
	b := New()
	_, err := b.Open("/a", []sftpsession.OpenFlags{sftpsession.FlagCreate | sftpsession.FlagExcl}, wire.Attributes{})
	require.NoError(t, err)

	require.NoError(t, b.Rename("/a", "/b"))
	_, err = b.Stat("/a")
	assert.Error(t, err)
	_, err = b.Stat("/b")
	require.NoError(t, err)

	require.NoError(t, b.Remove("/b"))
	_, err = b.Stat("/b")
	assert.Error(t, err)
}

func TestBackendSymlinkAndReadlink(t *testing.T) {
	b := New()
	_, err := b.Open("/target", []sftpsession.OpenFlags{sftpsession.FlagCreate | sftpsession.FlagExcl}, wire.Attributes{})
	require.NoError(t, err)

	require.NoError(t, b.Symlink("/target", "/link"))

	got, err := b.Readlink("/link")
	require.NoError(t, err)
	assert.Equal(t, "/target", got)

	attrs, err := b.Stat("/link")
	require.NoError(t, err)
	assert.Equal(t, uint64(0), attrs.Size)
}
