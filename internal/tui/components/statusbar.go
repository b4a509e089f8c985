package components

import (
	"fmt"

	"github.com/allbin/sercom"
	"github.com/allbin/sercom/internal/tui/styles"
	"github.com/charmbracelet/lipgloss"
)

// StatusBar is the single-line footer of the interactive session
type StatusBar struct {
	portName string
	config   sercom.Config
	status   string
	style    lipgloss.Style
	width    int
}

func NewStatusBar(portName string) *StatusBar {
	return &StatusBar{
		portName: portName,
		status:   "connecting",
		style:    styles.StatusConnectingStyle,
	}
}

func (sb *StatusBar) SetWidth(width int) {
	sb.width = width
}

func (sb *StatusBar) SetConnected(config sercom.Config) {
	sb.config = config
	sb.status = "connected"
	sb.style = styles.StatusConnectedStyle
}

func (sb *StatusBar) SetDisconnected(err error) {
	if err != nil {
		sb.status = fmt.Sprintf("error: %v", err)
	} else {
		sb.status = "disconnected"
	}
	sb.style = styles.StatusDisconnectedStyle
}

// View renders the bar: port and line config on the left, mode and
// connection state on the right, padded to the full width.
func (sb *StatusBar) View(mode string) string {
	left := fmt.Sprintf(" %s", sb.portName)
	if sb.status == "connected" {
		left = fmt.Sprintf(" %s │ %d baud %d-%s-%s", sb.portName,
			sb.config.BaudRate, sb.config.DataBits, sb.config.Parity, sb.config.StopBits)
	}
	right := fmt.Sprintf("%s │ %s ", mode, sb.style.Render(sb.status))

	gap := sb.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}

	return styles.StatusBarStyle.Render(
		left + lipgloss.NewStyle().Width(gap).Render("") + right)
}
