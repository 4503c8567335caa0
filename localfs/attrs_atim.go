//go:build dragonfly || (!android && linux) || openbsd || solaris || aix
// +build dragonfly !android,linux openbsd solaris aix

package localfs

import (
	"io/fs"
	"syscall"

	"github.com/randomminds/sftpsession/wire"
)

func fileStatFromInfoOs(fi fs.FileInfo, attrs *wire.Attributes) {
	statt, ok := fi.Sys().(*syscall.Stat_t)
	if !ok {
		return
	}
	attrs.Flags |= wire.AttrUIDGID
	attrs.UID, attrs.GID = statt.Uid, statt.Gid
	attrs.Flags |= wire.AttrACModTime
	attrs.ATime, attrs.MTime = uint32(statt.Atim.Sec), uint32(statt.Mtim.Sec)
}
