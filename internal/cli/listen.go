package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/allbin/sercom"
	"github.com/spf13/cobra"
)

// listenCmd represents the listen command
var listenCmd = &cobra.Command{
	Use:   "listen <port>",
	Short: "Print incoming data from a serial port, line by line",
	Long: `Listen on a serial port and print each delimited chunk as it arrives.

Reads are collected up to the delimiter (default "\n") or until the
per-read budget expires, whichever comes first, so the command stays
responsive on quiet lines. Press Ctrl+C to stop.

Example usage:
  sercom listen /dev/ttyUSB0
  sercom listen /dev/ttyUSB0 --delimiter "\r\n" --timeout 200
  sercom listen COM7 --baud 115200`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		portName := args[0]

		timeout, _ := cmd.Flags().GetInt("timeout")
		multiplier, _ := cmd.Flags().GetInt("multiplier")
		delimiter, _ := cmd.Flags().GetString("delimiter")
		bufferSize, _ := cmd.Flags().GetInt("buffer-size")
		stripDelim, _ := cmd.Flags().GetBool("strip")

		delim := []byte(unescapeDelimiter(delimiter))

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

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		fmt.Fprintf(os.Stderr, "Listening on %s (%s), Ctrl+C to stop\n", portName, describeConfig(s.Config()))

		buf := make([]byte, bufferSize+1)
		for ctx.Err() == nil {
			n, err := s.ReadUntil(buf, timeout, multiplier, delim)
			if err != nil {
				fmt.Fprintln(os.Stderr, errorStyle.Render(fmt.Sprintf("✗ read: %v", err)))
				os.Exit(1)
			}
			if n == 0 {
				continue
			}
			chunk := buf[:n]
			if stripDelim {
				chunk = []byte(strings.TrimSuffix(string(chunk), string(delim)))
			}
			fmt.Printf("%s\n", chunk)
		}
	},
}

func init() {
	rootCmd.AddCommand(listenCmd)

	listenCmd.Flags().Int("timeout", 100, "read timeout constant and inter-byte interval in milliseconds")
	listenCmd.Flags().Int("multiplier", 2, "read timeout in milliseconds per byte")
	listenCmd.Flags().String("delimiter", "\\n", "byte string terminating each chunk")
	listenCmd.Flags().Int("buffer-size", 4096, "maximum chunk size in bytes")
	listenCmd.Flags().Bool("strip", true, "strip the delimiter from printed chunks")
}

// unescapeDelimiter resolves the escape sequences users type in shells
func unescapeDelimiter(s string) string {
	r := strings.NewReplacer(`\r`, "\r", `\n`, "\n", `\t`, "\t", `\0`, "\x00")
	return r.Replace(s)
}

func describeConfig(c sercom.Config) string {
	return fmt.Sprintf("%d baud, %d%s%s", c.BaudRate, c.DataBits,
		strings.ToUpper(c.Parity.String()[:1]), c.StopBits)
}
