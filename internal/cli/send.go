package cli

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/allbin/sercom"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	successStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
)

// sendCmd represents the send command
var sendCmd = &cobra.Command{
	Use:   "send [data] <port>",
	Short: "Send data to a serial port",
	Long: `Send data to a serial port within a bounded time budget.

Data can be provided as a command line argument or piped on stdin:
  sercom send "AT+GMR" /dev/ttyUSB0 --newline
  echo "test" | sercom send /dev/ttyUSB0
  sercom send "0206000300" COM7 --hex

The write budget is timeout + multiplier per byte; a short write within
the budget is reported, not treated as an error.`,
	Args: cobra.RangeArgs(1, 2),
	Run: func(cmd *cobra.Command, args []string) {
		var data, portName string

		if len(args) == 1 {
			portName = args[0]
			stdinData, err := io.ReadAll(os.Stdin)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error reading from stdin: %v\n", err)
				os.Exit(1)
			}
			data = strings.TrimRight(string(stdinData), "\r\n")
		} else {
			data = args[0]
			portName = args[1]
		}

		timeout, _ := cmd.Flags().GetInt("timeout")
		multiplier, _ := cmd.Flags().GetInt("multiplier")
		addNewline, _ := cmd.Flags().GetBool("newline")
		hexMode, _ := cmd.Flags().GetBool("hex")

		payload := []byte(data)
		if hexMode {
			decoded, err := hex.DecodeString(strings.ReplaceAll(data, " ", ""))
			if err != nil {
				fmt.Fprintf(os.Stderr, "Invalid hex data: %v\n", err)
				os.Exit(1)
			}
			payload = decoded
		} else if addNewline {
			payload = append(payload, '\n')
		}

		opts, err := sessionOptions()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		s := sercom.NewSession()
		if err := s.Open(portName, opts...); err != nil {
			fmt.Fprintln(os.Stderr, errorStyle.Render(fmt.Sprintf("✗ open %s: %v", portName, err)))
			os.Exit(1)
		}
		defer s.Close()

		n, err := s.Write(payload, timeout, multiplier)
		if err != nil {
			fmt.Fprintln(os.Stderr, errorStyle.Render(fmt.Sprintf("✗ write: %v", err)))
			os.Exit(1)
		}

		if n < len(payload) {
			fmt.Println(successStyle.Render(fmt.Sprintf("✓ sent %d of %d bytes to %s (budget expired)", n, len(payload), portName)))
		} else {
			fmt.Println(successStyle.Render(fmt.Sprintf("✓ sent %d bytes to %s", n, portName)))
		}
	},
}

func init() {
	rootCmd.AddCommand(sendCmd)

	sendCmd.Flags().Int("timeout", 50, "write timeout constant in milliseconds")
	sendCmd.Flags().Int("multiplier", 10, "write timeout in milliseconds per byte")
	sendCmd.Flags().BoolP("newline", "n", false, "append a newline to the data")
	sendCmd.Flags().Bool("hex", false, "interpret data as hex bytes")
}
