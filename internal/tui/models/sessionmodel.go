package models

import (
	"context"
	"sync"

	"github.com/allbin/sercom"
	"github.com/allbin/sercom/internal/tui/components"
)

// InputMode is the vim-like input state of the interactive terminal
type InputMode int

const (
	InputModeNormal InputMode = iota
	InputModeInsert
)

func (m InputMode) String() string {
	if m == InputModeInsert {
		return "INSERT"
	}
	return "NORMAL"
}

// ConnectionStatusMsg reports the outcome of the background open
type ConnectionStatusMsg struct {
	Connected bool
	Err       error
}

// SessionModel holds the shared state between the TUI and the
// goroutines pumping data in and out of the serial session.
type SessionModel struct {
	mu        sync.RWMutex
	session   *sercom.Session
	portName  string
	connected bool
	ready     bool
	history   []components.DataMsg
	inputMode InputMode

	ctx    context.Context
	cancel context.CancelFunc
}

func NewSessionModel(portName string) *SessionModel {
	ctx, cancel := context.WithCancel(context.Background())
	return &SessionModel{
		portName: portName,
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (m *SessionModel) Session() *sercom.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session
}

func (m *SessionModel) SetSession(s *sercom.Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = s
}

func (m *SessionModel) PortName() string { return m.portName }

func (m *SessionModel) IsConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connected
}

func (m *SessionModel) SetConnected(connected bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connected = connected
}

func (m *SessionModel) IsReady() bool { return m.ready }

func (m *SessionModel) SetReady(ready bool) { m.ready = ready }

func (m *SessionModel) History() []components.DataMsg {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.history
}

func (m *SessionModel) AddMessage(msg components.DataMsg) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.history = append(m.history, msg)
}

func (m *SessionModel) ClearHistory() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.history = nil
}

func (m *SessionModel) InputMode() InputMode {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.inputMode
}

func (m *SessionModel) SetInputMode(mode InputMode) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inputMode = mode
}

func (m *SessionModel) Context() context.Context { return m.ctx }

// Cleanup stops the pump goroutines and closes the session
func (m *SessionModel) Cleanup() {
	m.cancel()

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session != nil {
		m.session.Close()
		m.session = nil
	}
}
