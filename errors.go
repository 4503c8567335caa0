package sftpsession

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"syscall"

	"github.com/randomminds/sftpsession/wire"
)

// StatusError carries an explicit wire.Status a backend wants reported
// verbatim, bypassing errno translation. Backends that already think in
// terms of SFTP status codes (memfs, or a backend fronting a non-POSIX
// store) return a *StatusError instead of a syscall.Errno.
type StatusError struct {
	Status  wire.Status
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Status.String()
}

// NewStatusError builds a StatusError with the status's default message.
func NewStatusError(status wire.Status) *StatusError {
	return &StatusError{Status: status, Message: status.String()}
}

// ErrUnsupported marks an operation the backend declines to implement.
// Handlers map it to SSH_FX_OP_UNSUPPORTED (§4.2).
var ErrUnsupported = NewStatusError(wire.StatusOPUnsupported)

// statusFromError maps a backend error to the wire status and message a
// STATUS response should carry (§4.2). Recoverable errors translate to a
// specific code; anything unrecognized becomes a generic failure.
func statusFromError(err error) (wire.Status, string) {
	if err == nil {
		return wire.StatusOK, ""
	}
	if errors.Is(err, io.EOF) {
		return wire.StatusEOF, "EOF"
	}

	var se *StatusError
	if errors.As(err, &se) {
		return se.Status, se.Error()
	}

	if errors.Is(err, fs.ErrNotExist) {
		return wire.StatusNoSuchFile, err.Error()
	}
	if errors.Is(err, fs.ErrPermission) {
		return wire.StatusPermissionDenied, err.Error()
	}
	if errors.Is(err, fs.ErrExist) {
		return wire.StatusFailure, err.Error()
	}

	msg := err.Error()

	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		msg = pathErr.Err.Error()
	}
	var linkErr *os.LinkError
	if errors.As(err, &linkErr) {
		msg = linkErr.Err.Error()
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		return translateErrno(errno), msg
	}

	return wire.StatusFailure, msg
}
