// Package sercom provides a uniform, timeout-bounded interface to
// operating-system serial (UART / virtual COM) devices on Linux and
// Windows.
//
// The central type is the Session, which owns at most one open port
// handle together with its line configuration (baud rate, data bits,
// parity, stop bits) and timeout profile. Every I/O call carries its
// own timeout parameters, so a Session never blocks past the budget
// the caller granted it.
//
// # Basic Usage
//
// Open a session with the default configuration (9600 8N1):
//
//	s := sercom.NewSession()
//	if err := s.Open("/dev/ttyUSB0"); err != nil {
//	    log.Fatal(err)
//	}
//	defer s.Close()
//
//	buf := make([]byte, 64)
//	n, err := s.Read(buf, 50, 10) // 50 ms constant + 10 ms/byte
//	n, err = s.Write([]byte("AT\r\n"), 50, 10)
//
// # Configuration Options
//
// Use functional options for a custom line configuration:
//
//	err := s.Open("/dev/ttyUSB0",
//	    sercom.WithBaudRate(115200),
//	    sercom.WithDataBits(8),
//	    sercom.WithParity(sercom.ParityEven),
//	    sercom.WithStopBits(sercom.StopBitsTwo),
//	)
//
// # Bounded Reads
//
// Reads and writes may return short: the effective budget for an
// N-byte transfer is constant + multiplier*N milliseconds, and an
// operation that moves fewer bytes than requested (or none at all)
// within that budget has still succeeded. ReadUntil collects single
// bytes until a delimiter appears in the accumulated data:
//
//	buf := make([]byte, 32)
//	n, err := s.ReadUntil(buf, 100, 2, []byte("\r\n"))
//	// buf[:n] holds the payload including the delimiter,
//	// buf[n] is a zero terminator.
//
// # Port Discovery
//
// ListPorts probes the platform's candidate device space (COM1..COM256
// on Windows, /dev/tty* families on Linux) and reports the names that
// are currently openable:
//
//	ports, err := sercom.ListPorts()
//
// AvailablePorts joins the same names into a caller-owned buffer with a
// separator and zero terminator, for callers that work with flat byte
// regions.
//
// # Error Handling
//
// Failures are reported through sentinel errors (ErrInvalidHandle,
// ErrRead, ErrSetTimeouts, ...) that wrap the driver detail; use
// errors.Is to test for a kind. StatusOf and Code translate errors to
// the dense signed status code set for callers that consume the
// single-signed-return convention, where any negative value is an
// error and a non-negative value is a byte or port count.
//
// # Concurrency
//
// A Session is not intended for concurrent operations on one handle;
// calls on the same Session serialize. Distinct Sessions are fully
// independent and may run in parallel.
package sercom
