package sercom

import (
	"bytes"
	"runtime"
	"sync"
)

// hostPort is the per-platform binding to one open serial device. A
// read or write observes the timeouts most recently committed through
// applyTimeouts; a bounded read that runs out of budget returns (0, nil).
type hostPort interface {
	applyLine(cfg Config) error
	applyTimeouts(t Timeouts) error
	read(p []byte) (int, error)
	write(p []byte) (int, error)
	close() error
}

// openHost acquires an exclusive handle to the named device. It is a
// variable so session tests can substitute a scripted driver.
var openHost = openHostPort

// Session owns at most one open serial-port handle together with the
// line and timeout configuration shaping its I/O. A zero-value Session
// is closed and ready to use. A Session is safe to share between
// goroutines only in the sense that concurrent calls do not corrupt its
// state; operations on the same handle still serialize against each
// other. Distinct Sessions are fully independent.
type Session struct {
	mu       sync.Mutex
	dev      hostPort
	config   Config
	timeouts Timeouts
	acc      []byte
}

// NewSession returns a closed Session
func NewSession() *Session {
	return &Session{}
}

// Open acquires an exclusive read/write handle to the named device,
// commits the requested line configuration on top of the driver's
// current state and installs the default timeout profile. Any failure
// releases the handle and leaves the Session closed.
func (s *Session) Open(name string, opts ...Option) error {
	if name == "" {
		return ErrEmptyPortName
	}

	config := DefaultConfig()
	for _, opt := range opts {
		if err := opt(&config); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dev != nil {
		return ErrAlreadyOpen
	}

	dev, err := openHost(name)
	if err != nil {
		return err
	}

	if err := dev.applyLine(config); err != nil {
		dev.close()
		return err
	}

	timeouts := DefaultTimeouts()
	if err := dev.applyTimeouts(timeouts); err != nil {
		dev.close()
		return err
	}

	s.dev = dev
	s.config = config
	s.timeouts = timeouts

	// A Session dropped while open must still release the handle.
	runtime.SetFinalizer(s, (*Session).Close)
	return nil
}

// Close releases the handle. The Session is logically closed afterwards
// even when the driver refuses the release; the handle is not retried.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dev == nil {
		return ErrInvalidHandle
	}

	dev := s.dev
	s.dev = nil
	runtime.SetFinalizer(s, nil)

	return dev.close()
}

// Config returns the line configuration committed on open
func (s *Session) Config() Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.config
}

// IsOpen reports whether the Session currently holds a handle
func (s *Session) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dev != nil
}

// Read performs one bounded driver read into buf. The inter-byte
// interval and total constant are set to timeout (milliseconds), the
// per-byte multiplier to multiplier (milliseconds per byte). Partial
// fulfillment is normal: a return of (0, nil) means the budget expired
// before any byte arrived.
func (s *Session) Read(buf []byte, timeout, multiplier int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dev == nil {
		return 0, ErrInvalidHandle
	}
	if err := s.commitReadTimeouts(timeout, multiplier); err != nil {
		return 0, err
	}

	return s.dev.read(buf)
}

// ReadUntil reads single bytes until the accumulated data contains
// delim, the budget for a byte expires, or len(buf)-1 bytes have been
// collected. The collected bytes (including the delimiter, when found)
// are copied into buf followed by one zero terminator; the returned
// length does not count the terminator. The whole accumulation is
// searched after each byte, so a delimiter straddling two reads is
// still found.
func (s *Session) ReadUntil(buf []byte, timeout, multiplier int, delim []byte) (int, error) {
	if len(delim) == 0 {
		return 0, ErrEmptyDelimiter
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dev == nil {
		return 0, ErrInvalidHandle
	}
	if err := s.commitReadTimeouts(timeout, multiplier); err != nil {
		return 0, err
	}

	// One byte is reserved for the terminator.
	limit := len(buf) - 1
	if limit < 0 {
		return 0, ErrBufferTooSmall
	}

	s.acc = s.acc[:0]
	var one [1]byte
	for len(s.acc) < limit && !bytes.Contains(s.acc, delim) {
		n, err := s.dev.read(one[:])
		if err != nil {
			return 0, err
		}
		if n == 0 {
			// Budget expired, a normal exit.
			break
		}
		s.acc = append(s.acc, one[0])
	}

	n := copy(buf, s.acc)
	buf[n] = 0
	return n, nil
}

// Write performs one bounded driver write from buf. The total constant
// is set to timeout (milliseconds), the per-byte multiplier to
// multiplier (milliseconds per byte). Fewer bytes than len(buf) may be
// written when the budget expires; that is a normal outcome.
func (s *Session) Write(buf []byte, timeout, multiplier int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dev == nil {
		return 0, ErrInvalidHandle
	}

	s.timeouts.WriteConstant = timeout
	s.timeouts.WriteMultiplier = multiplier
	if err := s.dev.applyTimeouts(s.timeouts); err != nil {
		return 0, err
	}

	return s.dev.write(buf)
}

// commitReadTimeouts overwrites the read side of the timeout profile
// and pushes the whole profile to the driver. Callers hold s.mu.
func (s *Session) commitReadTimeouts(timeout, multiplier int) error {
	s.timeouts.ReadInterval = timeout
	s.timeouts.ReadConstant = timeout
	s.timeouts.ReadMultiplier = multiplier
	return s.dev.applyTimeouts(s.timeouts)
}
