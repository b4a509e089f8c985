package sercom

// Parity represents the parity mode
type Parity int

const (
	ParityNone Parity = iota
	ParityOdd
	ParityEven
	ParityMark
	ParitySpace
)

func (p Parity) String() string {
	switch p {
	case ParityNone:
		return "none"
	case ParityOdd:
		return "odd"
	case ParityEven:
		return "even"
	case ParityMark:
		return "mark"
	case ParitySpace:
		return "space"
	default:
		return "unknown"
	}
}

// StopBits represents the stop bit count. The integer encoding matches
// the host driver convention: 0 = one, 1 = one and a half, 2 = two.
type StopBits int

const (
	StopBitsOne StopBits = iota
	StopBitsOnePointFive
	StopBitsTwo
)

func (s StopBits) String() string {
	switch s {
	case StopBitsOne:
		return "1"
	case StopBitsOnePointFive:
		return "1.5"
	case StopBitsTwo:
		return "2"
	default:
		return "unknown"
	}
}

// FlowControl represents the flow control flags committed with the line
// state. Only flag setting is supported; negotiation is the driver's job.
type FlowControl int

const (
	FlowControlNone FlowControl = iota
	FlowControlRTSCTS
	FlowControlXONXOFF
)

func (f FlowControl) String() string {
	switch f {
	case FlowControlNone:
		return "none"
	case FlowControlRTSCTS:
		return "rts/cts"
	case FlowControlXONXOFF:
		return "xon/xoff"
	default:
		return "unknown"
	}
}

// Config holds the line configuration committed to the driver on open
type Config struct {
	BaudRate    int
	DataBits    int
	Parity      Parity
	StopBits    StopBits
	FlowControl FlowControl
}

// Timeouts holds the five timing parameters governing bounded I/O.
// Constants and the inter-byte interval are milliseconds, multipliers
// are milliseconds per byte. The effective bound for an N-byte transfer
// is constant + multiplier*N.
type Timeouts struct {
	ReadInterval    int
	ReadConstant    int
	ReadMultiplier  int
	WriteConstant   int
	WriteMultiplier int
}

// Option is a functional option for configuring a serial session
type Option func(*Config) error

// DefaultConfig returns a configuration with sensible defaults (9600 8N1)
func DefaultConfig() Config {
	return Config{
		BaudRate:    9600,
		DataBits:    8,
		Parity:      ParityNone,
		StopBits:    StopBitsOne,
		FlowControl: FlowControlNone,
	}
}

// DefaultTimeouts returns the timeout profile installed on open
func DefaultTimeouts() Timeouts {
	return Timeouts{
		ReadInterval:    50,
		ReadConstant:    50,
		ReadMultiplier:  10,
		WriteConstant:   50,
		WriteMultiplier: 10,
	}
}

// WithBaudRate sets the baud rate
func WithBaudRate(rate int) Option {
	return func(c *Config) error {
		if rate <= 0 {
			return ErrInvalidBaudRate
		}
		c.BaudRate = rate
		return nil
	}
}

// WithDataBits sets the number of data bits (5, 6, 7, or 8)
func WithDataBits(bits int) Option {
	return func(c *Config) error {
		if bits < 5 || bits > 8 {
			return ErrInvalidConfig
		}
		c.DataBits = bits
		return nil
	}
}

// WithParity sets the parity mode
func WithParity(parity Parity) Option {
	return func(c *Config) error {
		if parity < ParityNone || parity > ParitySpace {
			return ErrInvalidConfig
		}
		c.Parity = parity
		return nil
	}
}

// WithStopBits sets the number of stop bits
func WithStopBits(bits StopBits) Option {
	return func(c *Config) error {
		if bits < StopBitsOne || bits > StopBitsTwo {
			return ErrInvalidConfig
		}
		c.StopBits = bits
		return nil
	}
}

// WithFlowControl sets the flow control flags
func WithFlowControl(fc FlowControl) Option {
	return func(c *Config) error {
		if fc < FlowControlNone || fc > FlowControlXONXOFF {
			return ErrInvalidConfig
		}
		c.FlowControl = fc
		return nil
	}
}
