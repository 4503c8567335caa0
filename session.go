package sftpsession

import (
	"encoding/binary"
	"io"
	"log"

	"github.com/pkg/errors"

	"github.com/randomminds/sftpsession/wire"
)

// ProtocolVersion is the only SSH_FXP_VERSION value this engine speaks.
const ProtocolVersion = 3

// Logger is the minimal logging capability Session needs. The standard
// *log.Logger satisfies it; callers wanting structured logging can adapt
// any logger that exposes a Printf method.
type Logger interface {
	Printf(format string, v ...interface{})
}

// Option configures a Session at construction time.
type Option func(*Session)

// WithLogger overrides the session's default logger, which otherwise
// writes to log.Default().
func WithLogger(l Logger) Option {
	return func(s *Session) { s.log = l }
}

// state is the session's lifecycle, advanced only by the event loop
// goroutine.
type state int

const (
	stateActive state = iota
	stateEnded
)

// Session is the per-connection SFTP v3 engine: it reads framed requests
// off a Channel, dispatches them against a FileSystem backend, and writes
// framed responses back, enforcing per-handle ordering and handle table
// limits along the way (§3).
//
// A Session is not safe for concurrent use by multiple goroutines calling
// its exported methods; Run owns the connection for its entire lifetime.
type Session struct {
	ch Channel
	fs FileSystem
	log Logger

	handles *handleTable

	writer *wire.Writer

	// results carries completions from backend-call goroutines back to
	// the single event loop goroutine, which is the only goroutine that
	// ever writes to ch or mutates handle state (§3, §6).
	results chan func()

	state state

	// fatalErr is set once a session-fatal condition occurs (§6); Run
	// returns it after tearing the connection down.
	fatalErr error
}

// New constructs a Session bound to ch and fs. The returned Session does
// no I/O until Run is called.
func New(ch Channel, fs FileSystem, opts ...Option) *Session {
	s := &Session{
		ch:      ch,
		fs:      fs,
		log:     log.Default(),
		handles: newHandleTable(),
		writer:  wire.NewWriter(),
		results: make(chan func(), 16),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// frame is one parsed-but-not-yet-decoded request read off the wire.
type frame struct {
	typ     wire.PacketType
	payload []byte
	err     error
}

// Run drives the session until the channel closes or a session-fatal
// error occurs (§6). It blocks until the connection ends.
func (s *Session) Run() error {
	frames := make(chan frame, 16)
	go s.readLoop(frames)

	for s.state == stateActive {
		select {
		case f, ok := <-frames:
			if !ok {
				s.end()
				return s.fatalErr
			}
			if f.err != nil {
				s.fail(errors.Wrap(f.err, "read request"))
				continue
			}
			s.dispatch(f)
		case cb := <-s.results:
			cb()
		}
	}
	return s.fatalErr
}

// end tears down session state once the connection is finished, win or
// lose (§4.5, §8): every still-live handle is submitted to its backend
// Close exactly once, and the FileSystem reference is dropped so nothing
// can call into it afterward. Safe to call more than once; only the
// first call does anything.
func (s *Session) end() {
	if s.handles == nil {
		return
	}
	for i := range s.handles.slots {
		sl := &s.handles.slots[i]
		if !sl.live {
			continue
		}
		switch {
		case sl.file != nil:
			_ = sl.file.Close()
		case sl.dir != nil:
			_ = sl.dir.Close()
		}
		sl.live = false
		sl.file = nil
		sl.dir = nil
		sl.pending = nil
		sl.queue = nil
	}
	s.handles = nil
	s.fs = nil
}

// readLoop parses length-prefixed frames off the channel and posts them to
// out, until a read error ends the stream (§3 wire framing). It never
// touches session state directly; all framing mutation happens back on
// the event loop via the frame it sends.
func (s *Session) readLoop(out chan<- frame) {
	defer close(out)

	var lenBuf [4]byte
	for {
		if _, err := io.ReadFull(s.ch, lenBuf[:]); err != nil {
			if err != io.EOF {
				out <- frame{err: err}
			}
			return
		}
		length := binary.BigEndian.Uint32(lenBuf[:])
		if length == 0 || length > wire.MaxPacketLength {
			out <- frame{err: errors.Errorf("sftpsession: request length %d out of range", length)}
			return
		}

		body := make([]byte, length)
		if _, err := io.ReadFull(s.ch, body); err != nil {
			out <- frame{err: err}
			return
		}

		out <- frame{typ: wire.PacketType(body[0]), payload: body[1:]}
	}
}

// fail tears the session down as session-fatal (§6): the error is recorded
// and the channel is closed so Run returns promptly.
func (s *Session) fail(err error) {
	s.fatalErr = err
	s.state = stateEnded
	s.log.Printf("sftpsession: session fatal: %v", err)
	_ = s.ch.Close()
	s.end()
}

// writeStatus builds and writes a STATUS response for id (§4.2).
func (s *Session) writeStatus(id uint32, err error) {
	status, msg := statusFromError(err)
	s.writer.Start(wire.PacketTypeStatus, true, id)
	s.writeStatusBody(status, msg)
	s.writeFrame()
}

func (s *Session) writeStatusBody(status wire.Status, msg string) {
	s.writer.WriteUint32(uint32(status))
	s.writer.WriteString(msg)
	s.writer.WriteString("en")
}

// writeFrame flushes the writer's current packet to the channel. Only the
// event loop goroutine ever calls this (§6).
func (s *Session) writeFrame() {
	buf := s.writer.Finish()
	if _, err := s.ch.Write(buf); err != nil {
		s.fail(errors.Wrap(err, "write response"))
	}
}

// spawn runs fn on its own goroutine and posts its result-handling closure
// back through s.results, so the event loop applies it serially (§6).
func (s *Session) spawn(fn func() func()) {
	go func() {
		cb := fn()
		s.results <- cb
	}()
}

// runOnHandle serializes fn against the handle owning slot, per the
// per-handle FIFO ordering invariant (§3): at most one backend call is
// ever in flight for a given handle, and calls queued behind it run in
// submission order.
func (s *Session) runOnHandle(sl *slot, fn func() func()) {
	sl.enqueue(func() {
		s.spawn(func() func() {
			cb := fn()
			return func() {
				cb()
				sl.processNext()
			}
		})
	})
}

