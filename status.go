package sercom

import "errors"

// Status is the signed code a session operation reports on the wire.
// Negative values are errors; non-negative values returned from read,
// write and enumeration calls are byte or port counts, so callers can
// discriminate with a single `result < 0` test.
type Status int

const (
	StatusSuccess       Status = 0
	StatusInvalidHandle Status = -1
	StatusGetProperty   Status = -2
	StatusSetProperty   Status = -3
	StatusSetTimeout    Status = -4
	StatusCloseHandle   Status = -5
	StatusRead          Status = -6
	StatusWrite         Status = -7
	StatusBuffer        Status = -8
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusInvalidHandle:
		return "invalid handle"
	case StatusGetProperty:
		return "get property failed"
	case StatusSetProperty:
		return "set property failed"
	case StatusSetTimeout:
		return "set timeout failed"
	case StatusCloseHandle:
		return "close handle failed"
	case StatusRead:
		return "read failed"
	case StatusWrite:
		return "write failed"
	case StatusBuffer:
		return "buffer too small"
	default:
		return "unknown status"
	}
}

// StatusOf maps an error returned by this package to its status code.
// A nil error maps to StatusSuccess. Errors are matched through their
// wrap chain, so wrapped driver failures resolve to the right code.
// An error that wraps no known sentinel reports as StatusInvalidHandle.
func StatusOf(err error) Status {
	switch {
	case err == nil:
		return StatusSuccess
	case errors.Is(err, ErrInvalidHandle),
		errors.Is(err, ErrAlreadyOpen):
		return StatusInvalidHandle
	case errors.Is(err, ErrGetState):
		return StatusGetProperty
	case errors.Is(err, ErrSetState),
		errors.Is(err, ErrInvalidConfig),
		errors.Is(err, ErrInvalidBaudRate):
		return StatusSetProperty
	case errors.Is(err, ErrSetTimeouts):
		return StatusSetTimeout
	case errors.Is(err, ErrCloseHandle):
		return StatusCloseHandle
	case errors.Is(err, ErrRead):
		return StatusRead
	case errors.Is(err, ErrWrite):
		return StatusWrite
	case errors.Is(err, ErrBufferTooSmall):
		return StatusBuffer
	default:
		return StatusInvalidHandle
	}
}

// Code collapses a (count, error) pair into the single signed return
// value used on the wire: the status code when err is non-nil, the
// count otherwise.
func Code(n int, err error) int {
	if err != nil {
		return int(StatusOf(err))
	}
	return n
}
