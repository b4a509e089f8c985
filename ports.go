package sercom

import "strings"

// ListPorts returns the serial devices that are currently openable on
// this system. Every candidate is probed with a non-blocking exclusive
// open that is released immediately; candidates that fail to open for
// any reason (busy, missing, permission denied) are silently skipped.
func ListPorts() ([]string, error) {
	return availablePortNames()
}

// AvailablePorts probes the candidate device space and joins the
// openable names into buf, separated by sep with no trailing separator
// and followed by one zero terminator. When the joined string plus the
// terminator does not fit, it returns ErrBufferTooSmall and leaves buf
// untouched. On success it returns the number of openable ports.
func AvailablePorts(buf []byte, sep string) (int, error) {
	names, err := availablePortNames()
	if err != nil {
		return 0, err
	}
	return joinPorts(names, buf, sep)
}

func joinPorts(names []string, buf []byte, sep string) (int, error) {
	joined := strings.Join(names, sep)
	if len(joined)+1 > len(buf) {
		return 0, ErrBufferTooSmall
	}
	n := copy(buf, joined)
	buf[n] = 0
	return len(names), nil
}
