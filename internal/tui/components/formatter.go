package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/allbin/sercom/internal/tui/styles"
)

// DataMsg carries one received or transmitted chunk into the TUI
type DataMsg struct {
	Timestamp time.Time
	Data      []byte
	IsTX      bool
}

// DataFormatter renders chunks as timestamped hex/ASCII lines
type DataFormatter struct {
	showHex   bool
	showASCII bool
}

func NewDataFormatter(showHex, showASCII bool) *DataFormatter {
	return &DataFormatter{showHex: showHex, showASCII: showASCII}
}

func (df *DataFormatter) ToggleHex() { df.showHex = !df.showHex }

func (df *DataFormatter) ToggleASCII() { df.showASCII = !df.showASCII }

func (df *DataFormatter) FormatMessage(msg DataMsg) string {
	indicator := styles.RXStyle.Render("↙ RX")
	if msg.IsTX {
		indicator = styles.TXStyle.Render("↗ TX")
	}

	var parts []string
	if df.showHex {
		parts = append(parts, fmt.Sprintf("HEX: % X", msg.Data))
	}
	if df.showASCII {
		parts = append(parts, fmt.Sprintf("ASCII: %s", printable(msg.Data)))
	}
	if len(parts) == 0 {
		parts = append(parts, fmt.Sprintf("BYTES: %d", len(msg.Data)))
	}

	timestamp := styles.TimestampStyle.Render(
		fmt.Sprintf("[%s]", msg.Timestamp.Format("15:04:05.000")))

	return fmt.Sprintf("%s %s: %s", timestamp, indicator, strings.Join(parts, "  "))
}

func (df *DataFormatter) FormatMessages(messages []DataMsg) []string {
	formatted := make([]string, len(messages))
	for i, msg := range messages {
		formatted[i] = df.FormatMessage(msg)
	}
	return formatted
}

// printable replaces non-printable bytes with dots so terminal control
// sequences never leak into the viewport
func printable(data []byte) string {
	var b strings.Builder
	for _, c := range data {
		if c >= 32 && c <= 126 {
			b.WriteByte(c)
		} else {
			b.WriteByte('.')
		}
	}
	return b.String()
}
