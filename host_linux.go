//go:build linux

package sercom

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"time"

	"golang.org/x/sys/unix"
)

// unixPort binds a Session to a tty through termios. Timeout budgets
// are enforced with poll(2) because termios offers no total-timeout or
// per-byte-multiplier controls; the descriptor stays non-blocking so a
// read after a successful poll can still come back empty without
// stalling the caller.
type unixPort struct {
	fd       int
	timeouts Timeouts
}

// baudRates maps integer baud rates to their termios constants
var baudRates = map[int]uint32{
	50:      unix.B50,
	75:      unix.B75,
	110:     unix.B110,
	134:     unix.B134,
	150:     unix.B150,
	200:     unix.B200,
	300:     unix.B300,
	600:     unix.B600,
	1200:    unix.B1200,
	1800:    unix.B1800,
	2400:    unix.B2400,
	4800:    unix.B4800,
	9600:    unix.B9600,
	19200:   unix.B19200,
	38400:   unix.B38400,
	57600:   unix.B57600,
	115200:  unix.B115200,
	230400:  unix.B230400,
	460800:  unix.B460800,
	500000:  unix.B500000,
	576000:  unix.B576000,
	921600:  unix.B921600,
	1000000: unix.B1000000,
	1152000: unix.B1152000,
	1500000: unix.B1500000,
	2000000: unix.B2000000,
	2500000: unix.B2500000,
	3000000: unix.B3000000,
	3500000: unix.B3500000,
	4000000: unix.B4000000,
}

func openHostPort(name string) (hostPort, error) {
	fd, err := unix.Open(name, unix.O_RDWR|unix.O_NOCTTY|unix.O_NONBLOCK, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrInvalidHandle, name, err)
	}
	return &unixPort{fd: fd, timeouts: DefaultTimeouts()}, nil
}

func (p *unixPort) applyLine(cfg Config) error {
	termios, err := unix.IoctlGetTermios(p.fd, unix.TCGETS)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrGetState, err)
	}

	baud, ok := baudRates[cfg.BaudRate]
	if !ok {
		return fmt.Errorf("%w: %d", ErrInvalidBaudRate, cfg.BaudRate)
	}

	// Raw mode: no input, output or line processing.
	termios.Cflag = unix.CREAD | unix.CLOCAL
	termios.Iflag = 0
	termios.Oflag = 0
	termios.Lflag = 0

	termios.Cflag = (termios.Cflag &^ unix.CBAUD) | baud
	termios.Ispeed = baud
	termios.Ospeed = baud

	switch cfg.DataBits {
	case 5:
		termios.Cflag |= unix.CS5
	case 6:
		termios.Cflag |= unix.CS6
	case 7:
		termios.Cflag |= unix.CS7
	case 8:
		termios.Cflag |= unix.CS8
	default:
		return fmt.Errorf("%w: %d data bits", ErrSetState, cfg.DataBits)
	}

	switch cfg.StopBits {
	case StopBitsOne:
	case StopBitsTwo:
		termios.Cflag |= unix.CSTOPB
	default:
		// termios has no 1.5 stop bit setting.
		return fmt.Errorf("%w: %s stop bits not supported by termios", ErrSetState, cfg.StopBits)
	}

	switch cfg.Parity {
	case ParityNone:
	case ParityOdd:
		termios.Cflag |= unix.PARENB | unix.PARODD
	case ParityEven:
		termios.Cflag |= unix.PARENB
	case ParityMark:
		termios.Cflag |= unix.PARENB | unix.CMSPAR | unix.PARODD
	case ParitySpace:
		termios.Cflag |= unix.PARENB | unix.CMSPAR
	}

	switch cfg.FlowControl {
	case FlowControlRTSCTS:
		termios.Cflag |= unix.CRTSCTS
	case FlowControlXONXOFF:
		termios.Iflag |= unix.IXON | unix.IXOFF
	}

	// Timeout budgets are enforced with poll, not VMIN/VTIME.
	termios.Cc[unix.VMIN] = 0
	termios.Cc[unix.VTIME] = 0

	if err := unix.IoctlSetTermios(p.fd, unix.TCSETS, termios); err != nil {
		return fmt.Errorf("%w: %v", ErrSetState, err)
	}
	return nil
}

func (p *unixPort) applyTimeouts(t Timeouts) error {
	// No driver call is needed; budgets are applied per read/write.
	p.timeouts = t
	return nil
}

func (p *unixPort) read(buf []byte) (int, error) {
	if len(buf) == 0 {
		return 0, nil
	}

	budget := p.timeouts.ReadConstant + p.timeouts.ReadMultiplier*len(buf)
	ready, err := p.wait(unix.POLLIN, budget)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRead, err)
	}
	if !ready {
		return 0, nil
	}

	n, err := unix.Read(p.fd, buf)
	if err == unix.EAGAIN {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRead, err)
	}
	return n, nil
}

func (p *unixPort) write(buf []byte) (int, error) {
	if len(buf) == 0 {
		return 0, nil
	}

	budget := p.timeouts.WriteConstant + p.timeouts.WriteMultiplier*len(buf)
	ready, err := p.wait(unix.POLLOUT, budget)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrWrite, err)
	}
	if !ready {
		return 0, nil
	}

	n, err := unix.Write(p.fd, buf)
	if err == unix.EAGAIN {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrWrite, err)
	}
	return n, nil
}

func (p *unixPort) close() error {
	if err := unix.Close(p.fd); err != nil {
		return fmt.Errorf("%w: %v", ErrCloseHandle, err)
	}
	return nil
}

// wait polls the descriptor for events within budget milliseconds,
// restarting after EINTR with the remaining budget. It reports whether
// the descriptor became ready before the budget expired.
func (p *unixPort) wait(events int16, budget int) (bool, error) {
	deadline := time.Now().Add(time.Duration(budget) * time.Millisecond)
	for {
		remaining := int(time.Until(deadline).Milliseconds())
		if remaining < 0 {
			remaining = 0
		}
		fds := []unix.PollFd{{Fd: int32(p.fd), Events: events}}
		n, err := unix.Poll(fds, remaining)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return false, err
		}
		return n > 0 && fds[0].Revents&events != 0, nil
	}
}

// portNamePatterns matches communication-capable tty devices and skips
// virtual terminals and pseudo-terminals.
var portNamePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^ttyUSB\d+$`), // USB serial adapters
	regexp.MustCompile(`^ttyACM\d+$`), // USB CDC/ACM devices
	regexp.MustCompile(`^ttyS\d+$`),   // Standard serial ports
	regexp.MustCompile(`^ttyAMA\d+$`), // ARM/Raspberry Pi serial
	regexp.MustCompile(`^ttymxc\d+$`), // i.MX serial ports
	regexp.MustCompile(`^ttyO\d+$`),   // OMAP serial ports
	regexp.MustCompile(`^ttySAC\d+$`), // Samsung serial ports
	regexp.MustCompile(`^ttyTHS\d+$`), // Tegra serial ports
}

// availablePortNames scans /dev for serial character devices and keeps
// the ones that can actually be opened right now.
func availablePortNames() ([]string, error) {
	entries, err := os.ReadDir("/dev")
	if err != nil {
		return nil, err
	}

	var ports []string
	for _, entry := range entries {
		name := entry.Name()

		matched := false
		for _, pattern := range portNamePatterns {
			if pattern.MatchString(name) {
				matched = true
				break
			}
		}
		if !matched {
			continue
		}

		path := filepath.Join("/dev", name)
		if !isCharacterDevice(path) {
			continue
		}
		if !probePort(path) {
			continue
		}
		ports = append(ports, path)
	}

	sort.Strings(ports)
	return ports, nil
}

// probePort attempts a non-blocking exclusive open and releases the
// descriptor immediately. Failures of any kind disqualify the candidate.
func probePort(path string) bool {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_NOCTTY|unix.O_NONBLOCK, 0)
	if err != nil {
		return false
	}
	unix.Close(fd)
	return true
}

// isCharacterDevice checks if the given path is a character device
func isCharacterDevice(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
