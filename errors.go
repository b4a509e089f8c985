package sercom

import "errors"

// Predefined error types for robust error handling
var (
	ErrInvalidHandle  = errors.New("no open serial handle")
	ErrAlreadyOpen    = errors.New("session already holds an open handle")
	ErrGetState       = errors.New("failed to read driver line state")
	ErrSetState       = errors.New("failed to commit driver line state")
	ErrSetTimeouts    = errors.New("failed to commit driver timeouts")
	ErrCloseHandle    = errors.New("failed to release serial handle")
	ErrRead           = errors.New("serial read failed")
	ErrWrite          = errors.New("serial write failed")
	ErrBufferTooSmall = errors.New("buffer too small for payload")

	// Configuration validation errors
	ErrInvalidBaudRate = errors.New("invalid baud rate")
	ErrInvalidConfig   = errors.New("invalid serial configuration")

	// Argument validation errors
	ErrEmptyDelimiter = errors.New("delimiter must not be empty")
	ErrEmptyPortName  = errors.New("port name must not be empty")
)
