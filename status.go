package sftpsession

import (
	"syscall"

	"github.com/randomminds/sftpsession/wire"
)

// translateErrno maps a POSIX errno to the closest SFTP v3 status code
// (§4.2). Codes with no close POSIX analogue (OP_UNSUPPORTED aside) fall
// back to a generic failure; the human-readable errno text still reaches
// the client in the STATUS packet's error message field.
func translateErrno(errno syscall.Errno) wire.Status {
	switch errno {
	case 0:
		return wire.StatusOK
	case syscall.ENOENT, syscall.ENODEV:
		return wire.StatusNoSuchFile
	case syscall.EACCES, syscall.EPERM:
		return wire.StatusPermissionDenied
	case syscall.ENOTSUP, syscall.ENOSYS:
		return wire.StatusOPUnsupported
	default:
		return wire.StatusFailure
	}
}
