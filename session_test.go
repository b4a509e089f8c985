package sercom

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
	"testing"
)

// fakeHost scripts the platform driver so session behavior can be
// verified without hardware.
type fakeHost struct {
	data []byte
	pos  int

	lineErr     error
	timeoutsErr error
	readErr     error
	writeErr    error
	closeErr    error

	applied    []Timeouts
	written    []byte
	writeLimit int
	closed     bool
}

func (f *fakeHost) applyLine(cfg Config) error { return f.lineErr }

func (f *fakeHost) applyTimeouts(t Timeouts) error {
	if f.timeoutsErr != nil {
		return f.timeoutsErr
	}
	f.applied = append(f.applied, t)
	return nil
}

func (f *fakeHost) read(p []byte) (int, error) {
	if f.readErr != nil {
		return 0, f.readErr
	}
	n := copy(p, f.data[f.pos:])
	f.pos += n
	return n, nil
}

func (f *fakeHost) write(p []byte) (int, error) {
	if f.writeErr != nil {
		return 0, f.writeErr
	}
	n := len(p)
	if f.writeLimit > 0 && n > f.writeLimit {
		n = f.writeLimit
	}
	f.written = append(f.written, p[:n]...)
	return n, nil
}

func (f *fakeHost) close() error {
	f.closed = true
	return f.closeErr
}

// useHost routes Session.Open to the given fake for the duration of a test
func useHost(t *testing.T, f *fakeHost) {
	t.Helper()
	prev := openHost
	openHost = func(name string) (hostPort, error) {
		return f, nil
	}
	t.Cleanup(func() { openHost = prev })
}

// useHostErr makes handle acquisition fail
func useHostErr(t *testing.T, err error) {
	t.Helper()
	prev := openHost
	openHost = func(name string) (hostPort, error) {
		return nil, err
	}
	t.Cleanup(func() { openHost = prev })
}

func openedSession(t *testing.T, f *fakeHost) *Session {
	t.Helper()
	useHost(t, f)
	s := NewSession()
	if err := s.Open("/dev/ttyUSB0"); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	return s
}

func TestOpenCloseLifecycle(t *testing.T) {
	f := &fakeHost{}
	s := openedSession(t, f)

	if !s.IsOpen() {
		t.Error("Session not open after successful Open")
	}

	if err := s.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
	if s.IsOpen() {
		t.Error("Session still open after Close")
	}
	if !f.closed {
		t.Error("Close did not release the handle")
	}

	if err := s.Close(); !errors.Is(err, ErrInvalidHandle) {
		t.Errorf("second Close = %v, want ErrInvalidHandle", err)
	}
}

func TestOperationsOnClosedSession(t *testing.T) {
	s := NewSession()
	buf := make([]byte, 16)

	if _, err := s.Read(buf, 50, 10); !errors.Is(err, ErrInvalidHandle) {
		t.Errorf("Read on closed session = %v, want ErrInvalidHandle", err)
	}
	if _, err := s.ReadUntil(buf, 50, 10, []byte("\n")); !errors.Is(err, ErrInvalidHandle) {
		t.Errorf("ReadUntil on closed session = %v, want ErrInvalidHandle", err)
	}
	if _, err := s.Write([]byte("x"), 50, 10); !errors.Is(err, ErrInvalidHandle) {
		t.Errorf("Write on closed session = %v, want ErrInvalidHandle", err)
	}
}

func TestOpenValidation(t *testing.T) {
	f := &fakeHost{}
	useHost(t, f)
	s := NewSession()

	if err := s.Open(""); !errors.Is(err, ErrEmptyPortName) {
		t.Errorf("Open with empty name = %v, want ErrEmptyPortName", err)
	}
	if err := s.Open("/dev/ttyUSB0", WithDataBits(9)); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Open with 9 data bits = %v, want ErrInvalidConfig", err)
	}
	if s.IsOpen() {
		t.Error("Session open after failed Open")
	}

	if err := s.Open("/dev/ttyUSB0"); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := s.Open("/dev/ttyUSB1"); !errors.Is(err, ErrAlreadyOpen) {
		t.Errorf("Open on open session = %v, want ErrAlreadyOpen", err)
	}
}

func TestOpenFailuresReleaseHandle(t *testing.T) {
	tests := []struct {
		name string
		fake *fakeHost
		want error
	}{
		{"line state get/set refused", &fakeHost{lineErr: fmt.Errorf("%w: denied", ErrGetState)}, ErrGetState},
		{"line state commit refused", &fakeHost{lineErr: fmt.Errorf("%w: denied", ErrSetState)}, ErrSetState},
		{"timeout commit refused", &fakeHost{timeoutsErr: fmt.Errorf("%w: denied", ErrSetTimeouts)}, ErrSetTimeouts},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			useHost(t, tt.fake)
			s := NewSession()
			err := s.Open("/dev/ttyUSB0")
			if !errors.Is(err, tt.want) {
				t.Errorf("Open = %v, want %v", err, tt.want)
			}
			if !tt.fake.closed {
				t.Error("failed Open did not release the handle")
			}
			if s.IsOpen() {
				t.Error("Session open after failed Open")
			}
		})
	}
}

func TestOpenAcquisitionFailure(t *testing.T) {
	useHostErr(t, fmt.Errorf("%w: no such device", ErrInvalidHandle))
	s := NewSession()
	if err := s.Open("COM99"); !errors.Is(err, ErrInvalidHandle) {
		t.Errorf("Open = %v, want ErrInvalidHandle", err)
	}
	if s.IsOpen() {
		t.Error("Session open after acquisition failure")
	}
}

func TestOpenInstallsDefaultTimeouts(t *testing.T) {
	f := &fakeHost{}
	openedSession(t, f)

	if len(f.applied) != 1 {
		t.Fatalf("expected 1 timeout commit on open, got %d", len(f.applied))
	}
	if f.applied[0] != DefaultTimeouts() {
		t.Errorf("open committed %+v, want %+v", f.applied[0], DefaultTimeouts())
	}
}

func TestReadShort(t *testing.T) {
	f := &fakeHost{data: []byte("HELLO")}
	s := openedSession(t, f)

	buf := make([]byte, 16)
	n, err := s.Read(buf, 20, 1)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if n != 5 || string(buf[:n]) != "HELLO" {
		t.Errorf("Read = %d %q, want 5 %q", n, buf[:n], "HELLO")
	}
	if n > len(buf) {
		t.Errorf("Read count %d exceeds buffer size %d", n, len(buf))
	}

	// Drained stream: a zero-byte read is a normal outcome.
	n, err = s.Read(buf, 20, 1)
	if n != 0 || err != nil {
		t.Errorf("Read on drained stream = %d, %v, want 0, nil", n, err)
	}
}

func TestReadCommitsTimeouts(t *testing.T) {
	f := &fakeHost{data: []byte("x")}
	s := openedSession(t, f)

	if _, err := s.Read(make([]byte, 4), 20, 1); err != nil {
		t.Fatalf("Read failed: %v", err)
	}

	got := f.applied[len(f.applied)-1]
	want := Timeouts{ReadInterval: 20, ReadConstant: 20, ReadMultiplier: 1, WriteConstant: 50, WriteMultiplier: 10}
	if got != want {
		t.Errorf("Read committed %+v, want %+v", got, want)
	}
}

func TestReadTimeoutCommitFailure(t *testing.T) {
	f := &fakeHost{data: []byte("x")}
	s := openedSession(t, f)
	f.timeoutsErr = fmt.Errorf("%w: refused", ErrSetTimeouts)

	if _, err := s.Read(make([]byte, 4), 20, 1); !errors.Is(err, ErrSetTimeouts) {
		t.Errorf("Read = %v, want ErrSetTimeouts", err)
	}
	if f.pos != 0 {
		t.Error("Read transferred data after failed timeout commit")
	}
	if !s.IsOpen() {
		t.Error("failed Read closed the session")
	}
}

func TestReadDriverFailure(t *testing.T) {
	f := &fakeHost{readErr: fmt.Errorf("%w: io error", ErrRead)}
	s := openedSession(t, f)

	if _, err := s.Read(make([]byte, 4), 20, 1); !errors.Is(err, ErrRead) {
		t.Errorf("Read = %v, want ErrRead", err)
	}
	if !s.IsOpen() {
		t.Error("failed Read closed the session")
	}
}

func TestReadUntilDelimiter(t *testing.T) {
	f := &fakeHost{data: []byte("HELLO\r\nWORLD")}
	s := openedSession(t, f)

	buf := make([]byte, 32)
	n, err := s.ReadUntil(buf, 100, 2, []byte("\r\n"))
	if err != nil {
		t.Fatalf("ReadUntil failed: %v", err)
	}
	if n != 7 {
		t.Errorf("ReadUntil = %d, want 7", n)
	}
	if string(buf[:n]) != "HELLO\r\n" {
		t.Errorf("buffer = %q, want %q", buf[:n], "HELLO\r\n")
	}
	if buf[n] != 0 {
		t.Errorf("buf[%d] = %d, want zero terminator", n, buf[n])
	}
}

func TestReadUntilExhausted(t *testing.T) {
	f := &fakeHost{data: []byte("ABCDE")}
	s := openedSession(t, f)

	buf := make([]byte, 32)
	n, err := s.ReadUntil(buf, 50, 1, []byte("Z"))
	if err != nil {
		t.Fatalf("ReadUntil failed: %v", err)
	}
	if n != 5 || string(buf[:n]) != "ABCDE" {
		t.Errorf("ReadUntil = %d %q, want 5 %q", n, buf[:n], "ABCDE")
	}
	if buf[n] != 0 {
		t.Errorf("buf[%d] = %d, want zero terminator", n, buf[n])
	}
}

func TestReadUntilBounded(t *testing.T) {
	f := &fakeHost{data: bytes.Repeat([]byte("A"), 100)}
	s := openedSession(t, f)

	buf := make([]byte, 8)
	n, err := s.ReadUntil(buf, 50, 1, []byte("Z"))
	if err != nil {
		t.Fatalf("ReadUntil failed: %v", err)
	}
	if n != 7 {
		t.Errorf("ReadUntil = %d, want 7 (one byte reserved for terminator)", n)
	}
	if buf[7] != 0 {
		t.Errorf("buf[7] = %d, want zero terminator", buf[7])
	}
}

func TestReadUntilDelimiterIncluded(t *testing.T) {
	// The delimiter spans the last appended byte; the whole
	// accumulation is searched, so it must still terminate the loop.
	f := &fakeHost{data: []byte("key=value;;rest")}
	s := openedSession(t, f)

	buf := make([]byte, 32)
	n, err := s.ReadUntil(buf, 50, 1, []byte(";;"))
	if err != nil {
		t.Fatalf("ReadUntil failed: %v", err)
	}
	if string(buf[:n]) != "key=value;;" {
		t.Errorf("buffer = %q, want %q", buf[:n], "key=value;;")
	}
}

func TestReadUntilArgumentErrors(t *testing.T) {
	f := &fakeHost{data: []byte("data")}
	s := openedSession(t, f)

	if _, err := s.ReadUntil(make([]byte, 8), 50, 1, nil); !errors.Is(err, ErrEmptyDelimiter) {
		t.Errorf("ReadUntil with empty delimiter = %v, want ErrEmptyDelimiter", err)
	}
	if _, err := s.ReadUntil(nil, 50, 1, []byte("\n")); !errors.Is(err, ErrBufferTooSmall) {
		t.Errorf("ReadUntil with nil buffer = %v, want ErrBufferTooSmall", err)
	}
}

func TestReadUntilDriverFailure(t *testing.T) {
	f := &fakeHost{readErr: fmt.Errorf("%w: io error", ErrRead)}
	s := openedSession(t, f)

	if _, err := s.ReadUntil(make([]byte, 8), 50, 1, []byte("\n")); !errors.Is(err, ErrRead) {
		t.Errorf("ReadUntil = %v, want ErrRead", err)
	}
}

func TestWrite(t *testing.T) {
	f := &fakeHost{}
	s := openedSession(t, f)

	n, err := s.Write([]byte("PING"), 30, 2)
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if n != 4 || string(f.written) != "PING" {
		t.Errorf("Write = %d, driver got %q", n, f.written)
	}

	got := f.applied[len(f.applied)-1]
	want := Timeouts{ReadInterval: 50, ReadConstant: 50, ReadMultiplier: 10, WriteConstant: 30, WriteMultiplier: 2}
	if got != want {
		t.Errorf("Write committed %+v, want %+v", got, want)
	}
}

func TestWriteShort(t *testing.T) {
	f := &fakeHost{writeLimit: 3}
	s := openedSession(t, f)

	n, err := s.Write([]byte("LONGER"), 30, 2)
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if n != 3 {
		t.Errorf("short Write = %d, want 3", n)
	}
}

func TestWriteFailures(t *testing.T) {
	f := &fakeHost{}
	s := openedSession(t, f)

	f.timeoutsErr = fmt.Errorf("%w: refused", ErrSetTimeouts)
	if _, err := s.Write([]byte("x"), 30, 2); !errors.Is(err, ErrSetTimeouts) {
		t.Errorf("Write = %v, want ErrSetTimeouts", err)
	}
	if len(f.written) != 0 {
		t.Error("Write transferred data after failed timeout commit")
	}

	f.timeoutsErr = nil
	f.writeErr = fmt.Errorf("%w: io error", ErrWrite)
	if _, err := s.Write([]byte("x"), 30, 2); !errors.Is(err, ErrWrite) {
		t.Errorf("Write = %v, want ErrWrite", err)
	}
}

func TestCloseHandleFailure(t *testing.T) {
	f := &fakeHost{closeErr: fmt.Errorf("%w: busy", ErrCloseHandle)}
	s := openedSession(t, f)

	if err := s.Close(); !errors.Is(err, ErrCloseHandle) {
		t.Errorf("Close = %v, want ErrCloseHandle", err)
	}
	// The handle is not retried; the session is logically closed.
	if s.IsOpen() {
		t.Error("Session still open after failed Close")
	}
	if _, err := s.Read(make([]byte, 4), 50, 10); !errors.Is(err, ErrInvalidHandle) {
		t.Errorf("Read after failed Close = %v, want ErrInvalidHandle", err)
	}
}

func TestParallelSessions(t *testing.T) {
	fakes := []*fakeHost{
		{data: bytes.Repeat([]byte("A"), 256)},
		{data: bytes.Repeat([]byte("B"), 256)},
	}
	next := 0
	prev := openHost
	openHost = func(name string) (hostPort, error) {
		f := fakes[next]
		next++
		return f, nil
	}
	t.Cleanup(func() { openHost = prev })

	sessions := make([]*Session, 2)
	for i := range sessions {
		sessions[i] = NewSession()
		if err := sessions[i].Open(fmt.Sprintf("/dev/ttyUSB%d", i)); err != nil {
			t.Fatalf("Open session %d failed: %v", i, err)
		}
	}

	var wg sync.WaitGroup
	results := make([][]byte, 2)
	for i, s := range sessions {
		wg.Add(1)
		go func(i int, s *Session) {
			defer wg.Done()
			buf := make([]byte, 16)
			for {
				n, err := s.Read(buf, 20, 1)
				if err != nil || n == 0 {
					return
				}
				results[i] = append(results[i], buf[:n]...)
				if _, err := s.Write(buf[:n], 20, 1); err != nil {
					return
				}
			}
		}(i, s)
	}
	wg.Wait()

	for i, want := range []byte{'A', 'B'} {
		if len(results[i]) != 256 {
			t.Errorf("session %d read %d bytes, want 256", i, len(results[i]))
		}
		for _, b := range results[i] {
			if b != want {
				t.Fatalf("session %d saw byte %q, want %q: sessions interfered", i, b, want)
			}
		}
	}
}
