//go:build (!linux && !dragonfly && !openbsd && !solaris && !aix) || android
// +build !linux,!dragonfly,!openbsd,!solaris,!aix android

package localfs

import (
	"io/fs"

	"github.com/randomminds/sftpsession/wire"
)

func fileStatFromInfoOs(fi fs.FileInfo, attrs *wire.Attributes) {}
