//go:build windows

package sercom

import (
	"fmt"
	"regexp"
	"sort"
	"unsafe"

	"golang.org/x/sys/windows"
	"golang.org/x/sys/windows/registry"
)

// https://learn.microsoft.com/en-us/windows/win32/devio/communications-resources

var (
	modkernel32 = windows.NewLazySystemDLL("kernel32.dll")

	procGetCommState    = modkernel32.NewProc("GetCommState")
	procSetCommState    = modkernel32.NewProc("SetCommState")
	procSetCommTimeouts = modkernel32.NewProc("SetCommTimeouts")
)

// Bits for Flags in winDCB.
const (
	fBinary              = 1 << 0
	fParity              = 1 << 1
	fOutxCtsFlow         = 1 << 2
	fDtrControlEnable    = 0x01 << 4
	fOutX                = 1 << 8
	fInX                 = 1 << 9
	fRtsControlEnable    = 0x01 << 12
	fRtsControlHandshake = 0x02 << 12
)

// Default XON/XOFF characters.
const (
	xON  = 17
	xOFF = 19
)

type winDCB struct {
	DCBlength uint32
	BaudRate  uint32
	Flags     uint32
	reserved  uint16
	XonLim    uint16
	XoffLim   uint16
	ByteSize  uint8
	Parity    uint8
	StopBits  uint8
	XonChar   byte
	XoffChar  byte
	ErrorChar byte
	EofChar   byte
	EvtChar   byte
	reserved1 uint16
}

type commTimeouts struct {
	ReadIntervalTimeout         uint32
	ReadTotalTimeoutMultiplier  uint32
	ReadTotalTimeoutConstant    uint32
	WriteTotalTimeoutMultiplier uint32
	WriteTotalTimeoutConstant   uint32
}

// winPort binds a Session to a COM device. I/O is synchronous; the
// bounded-read semantics come straight from COMMTIMEOUTS, which the
// driver applies to every ReadFile/WriteFile on the handle.
type winPort struct {
	h windows.Handle
}

var shortComName = regexp.MustCompile(`^COM[1-9]$`)

// formatPortName prepares a port name for CreateFile. Names beyond
// COM9 need the \\.\ device namespace prefix.
func formatPortName(name string) string {
	if shortComName.MatchString(name) {
		return name
	}
	return `\\.\` + name
}

func openHostPort(name string) (hostPort, error) {
	ptr, err := windows.UTF16PtrFromString(formatPortName(name))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidHandle, name, err)
	}

	h, err := windows.CreateFile(ptr,
		windows.GENERIC_READ|windows.GENERIC_WRITE,
		0,
		nil,
		windows.OPEN_EXISTING,
		windows.FILE_ATTRIBUTE_NORMAL,
		0)
	if err != nil || h == windows.InvalidHandle {
		return nil, fmt.Errorf("%w: open %s: %v", ErrInvalidHandle, name, err)
	}
	return &winPort{h: h}, nil
}

func (p *winPort) applyLine(cfg Config) error {
	var dcb winDCB
	dcb.DCBlength = uint32(unsafe.Sizeof(dcb))

	r, _, err := procGetCommState.Call(uintptr(p.h), uintptr(unsafe.Pointer(&dcb)))
	if r == 0 {
		return fmt.Errorf("%w: %v", ErrGetState, err)
	}

	dcb.Flags |= fBinary
	dcb.BaudRate = uint32(cfg.BaudRate)
	dcb.ByteSize = uint8(cfg.DataBits)

	// Parity and stop-bit integer encodings are the DCB byte values.
	dcb.Parity = uint8(cfg.Parity)
	if cfg.Parity == ParityNone {
		dcb.Flags &^= fParity
	} else {
		dcb.Flags |= fParity
	}
	dcb.StopBits = uint8(cfg.StopBits)

	dcb.Flags &^= fOutxCtsFlow | fRtsControlHandshake | fInX | fOutX
	switch cfg.FlowControl {
	case FlowControlRTSCTS:
		dcb.Flags |= fOutxCtsFlow | fRtsControlHandshake
	case FlowControlXONXOFF:
		dcb.XonChar = xON
		dcb.XoffChar = xOFF
		dcb.Flags |= fInX | fOutX
	}

	r, _, err = procSetCommState.Call(uintptr(p.h), uintptr(unsafe.Pointer(&dcb)))
	if r == 0 {
		return fmt.Errorf("%w: %v", ErrSetState, err)
	}
	return nil
}

func (p *winPort) applyTimeouts(t Timeouts) error {
	timeouts := commTimeouts{
		ReadIntervalTimeout:         uint32(t.ReadInterval),
		ReadTotalTimeoutMultiplier:  uint32(t.ReadMultiplier),
		ReadTotalTimeoutConstant:    uint32(t.ReadConstant),
		WriteTotalTimeoutMultiplier: uint32(t.WriteMultiplier),
		WriteTotalTimeoutConstant:   uint32(t.WriteConstant),
	}
	r, _, err := procSetCommTimeouts.Call(uintptr(p.h), uintptr(unsafe.Pointer(&timeouts)))
	if r == 0 {
		return fmt.Errorf("%w: %v", ErrSetTimeouts, err)
	}
	return nil
}

func (p *winPort) read(buf []byte) (int, error) {
	if len(buf) == 0 {
		return 0, nil
	}
	var n uint32
	if err := windows.ReadFile(p.h, buf, &n, nil); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRead, err)
	}
	return int(n), nil
}

func (p *winPort) write(buf []byte) (int, error) {
	if len(buf) == 0 {
		return 0, nil
	}
	var n uint32
	if err := windows.WriteFile(p.h, buf, &n, nil); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrWrite, err)
	}
	return int(n), nil
}

func (p *winPort) close() error {
	if err := windows.CloseHandle(p.h); err != nil {
		return fmt.Errorf("%w: %v", ErrCloseHandle, err)
	}
	return nil
}

// availablePortNames probes COM1 through COM256 and keeps the names
// that open. A candidate busy or missing is silently skipped; this
// reports currently openable ports, not installed ones.
func availablePortNames() ([]string, error) {
	var ports []string
	for i := 1; i <= 256; i++ {
		name := fmt.Sprintf("COM%d", i)
		ptr, err := windows.UTF16PtrFromString(formatPortName(name))
		if err != nil {
			continue
		}
		h, err := windows.CreateFile(ptr,
			windows.GENERIC_READ|windows.GENERIC_WRITE,
			0,
			nil,
			windows.OPEN_EXISTING,
			0,
			0)
		if err != nil || h == windows.InvalidHandle {
			continue
		}
		windows.CloseHandle(h)
		ports = append(ports, name)
	}
	return ports, nil
}

// InstalledPorts lists the COM devices the system knows about from the
// SERIALCOMM registry key, whether or not they are currently openable.
func InstalledPorts() ([]string, error) {
	k, err := registry.OpenKey(registry.LOCAL_MACHINE, `HARDWARE\DEVICEMAP\SERIALCOMM`, registry.READ)
	if err != nil {
		return nil, err
	}
	defer k.Close()

	valueNames, err := k.ReadValueNames(-1)
	if err != nil {
		return nil, err
	}

	var ports []string
	for _, valueName := range valueNames {
		name, _, err := k.GetStringValue(valueName)
		if err != nil {
			continue
		}
		ports = append(ports, name)
	}
	sort.Strings(ports)
	return ports, nil
}
