package cli

import (
	"fmt"
	"os"

	"github.com/allbin/sercom"
	"github.com/charmbracelet/lipgloss"
	"github.com/evertras/bubble-table/table"
	"github.com/spf13/cobra"
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List currently openable serial ports",
	Long: `List the serial ports that can be opened right now.

Every candidate device is probed with a non-blocking exclusive open
that is released immediately. Ports that are busy, missing or not
accessible are skipped, so the listing reflects ports you can actually
use, not every port the system knows about.`,
	Run: func(cmd *cobra.Command, args []string) {
		ports, err := sercom.ListPorts()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error listing ports: %v\n", err)
			os.Exit(1)
		}

		if len(ports) == 0 {
			fmt.Println("No openable serial ports found")
			return
		}

		tableFormat, _ := cmd.Flags().GetBool("table")
		if tableFormat {
			renderPortTable(ports)
		} else {
			for _, port := range ports {
				fmt.Println(port)
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().BoolP("table", "t", false, "Display output in a styled table format")
}

// renderPortTable renders the port list as a styled static table
func renderPortTable(ports []string) {
	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("99"))

	columns := []table.Column{
		table.NewColumn("index", "#", 4),
		table.NewColumn("port", "Port", 28),
	}

	rows := make([]table.Row, 0, len(ports))
	for i, port := range ports {
		rows = append(rows, table.NewRow(table.RowData{
			"index": i + 1,
			"port":  port,
		}))
	}

	t := table.New(columns).
		WithRows(rows).
		BorderRounded().
		WithBaseStyle(lipgloss.NewStyle().Align(lipgloss.Left))

	fmt.Println(headerStyle.Render(fmt.Sprintf("Found %d openable serial port(s)", len(ports))))
	fmt.Println(t.View())
}
