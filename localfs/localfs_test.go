package localfs

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randomminds/sftpsession"
	"github.com/randomminds/sftpsession/wire"
)

func TestBackendOpenCreateWriteStatRead(t *testing.T) {
	dir := t.TempDir()
	b := &Backend{WorkDir: dir}

	fh, err := b.Open("/note.txt", []sftpsession.OpenFlags{
		sftpsession.FlagRead | sftpsession.FlagWrite | sftpsession.FlagCreate | sftpsession.FlagTruncate,
	}, wire.Attributes{})
	require.NoError(t, err)

	_, err = fh.WriteAt([]byte("local backend"), 0)
	require.NoError(t, err)

	attrs, err := fh.Stat()
	require.NoError(t, err)
	assert.Equal(t, uint64(len("local backend")), attrs.Size)

	require.NoError(t, fh.Close())

	stat, err := b.Stat("/note.txt")
	require.NoError(t, err)
	assert.Equal(t, uint64(len("local backend")), stat.Size)
}

func TestBackendReadOnlyRejectsWrite(t *testing.T) {
	dir := t.TempDir()
	b := &Backend{WorkDir: dir, ReadOnly: true}

	_, err := b.Open("/note.txt", []sftpsession.OpenFlags{
		sftpsession.FlagWrite | sftpsession.FlagCreate,
	}, wire.Attributes{})
	assert.Error(t, err)
}

func TestBackendMkdirRmdir(t *testing.T) {
	dir := t.TempDir()
	b := &Backend{WorkDir: dir}

	require.NoError(t, b.Mkdir("/sub", wire.Attributes{}))
	_, err := b.Stat("/sub")
	require.NoError(t, err)

	require.NoError(t, b.Rmdir("/sub"))
	_, err = b.Stat("/sub")
	assert.Error(t, err)
}

func TestResolveJoinsWorkDir(t *testing.T) {
	b := &Backend{WorkDir: "/srv/data"}
	got, err := b.resolve("relative/path")
	require.NoError(t, err)
	assert.Equal(t, filepath.FromSlash("/srv/data/relative/path"), got)
}
