package sftpsession

import "io"

// Channel is the byte-stream transport a Session reads requests from and
// writes responses to. An *ssh.Channel (golang.org/x/crypto/ssh) satisfies
// this directly, matching the "sftp" subsystem channel a server hands the
// session on accepting it; tests substitute a plain net.Pipe or io.Pipe
// pair.
type Channel interface {
	io.Reader
	io.WriteCloser
}
