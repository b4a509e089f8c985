package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/allbin/sercom"
	"github.com/allbin/sercom/internal/tui/components"
	"github.com/allbin/sercom/internal/tui/keys"
	"github.com/allbin/sercom/internal/tui/models"
	"github.com/allbin/sercom/internal/tui/styles"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

// connectCmd represents the connect command
var connectCmd = &cobra.Command{
	Use:   "connect <port>",
	Short: "Attach an interactive terminal to a serial port",
	Long: `Attach a real-time terminal to a serial port.

Incoming data is displayed with timestamps in hex and ASCII. Press i to
enter insert mode, type data and press enter to transmit it; press esc
to return to normal mode. In normal mode, c clears the buffer, h and a
toggle the hex and ASCII columns, ? shows all bindings, q quits.

Example usage:
  sercom connect /dev/ttyUSB0
  sercom connect COM7 --baud 115200`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		portName := args[0]

		timeout, _ := cmd.Flags().GetInt("timeout")
		multiplier, _ := cmd.Flags().GetInt("multiplier")

		opts, err := sessionOptions()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if err := runConnectTUI(portName, timeout, multiplier, opts...); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(connectCmd)

	connectCmd.Flags().Int("timeout", 50, "read timeout constant and inter-byte interval in milliseconds")
	connectCmd.Flags().Int("multiplier", 1, "read timeout in milliseconds per byte")
}

// connectModel is the Bubble Tea model for the connect command
type connectModel struct {
	*models.SessionModel
	terminal  *components.Terminal
	statusBar *components.StatusBar
	input     textinput.Model
	help      help.Model
	keys      keys.TerminalKeys

	writeTimeout    int
	writeMultiplier int
}

func runConnectTUI(portName string, timeout, multiplier int, opts ...sercom.Option) error {
	input := textinput.New()
	input.Placeholder = "type data, enter to send"
	input.CharLimit = 256
	input.Prompt = "> "

	m := &connectModel{
		SessionModel:    models.NewSessionModel(portName),
		terminal:        components.NewTerminal(80, 20),
		statusBar:       components.NewStatusBar(portName),
		input:           input,
		help:            help.New(),
		keys:            keys.NewTerminalKeys(),
		writeTimeout:    50,
		writeMultiplier: 10,
	}

	p := tea.NewProgram(m, tea.WithAltScreen())

	// Open the session and pump reads in the background so the UI
	// comes up immediately.
	go func() {
		s := sercom.NewSession()
		if err := s.Open(portName, opts...); err != nil {
			p.Send(models.ConnectionStatusMsg{Connected: false, Err: err})
			return
		}
		m.SetSession(s)
		p.Send(models.ConnectionStatusMsg{Connected: true})

		buf := make([]byte, 4096)
		for {
			select {
			case <-m.Context().Done():
				return
			default:
			}

			n, err := s.Read(buf, timeout, multiplier)
			if err != nil {
				if m.Context().Err() != nil {
					return
				}
				p.Send(models.ConnectionStatusMsg{Connected: false, Err: err})
				return
			}
			if n == 0 {
				continue
			}
			data := make([]byte, n)
			copy(data, buf[:n])
			p.Send(components.DataMsg{Timestamp: time.Now(), Data: data})
		}
	}()

	_, err := p.Run()
	m.Cleanup()
	return err
}

func (m *connectModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *connectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		// One line for the input, one for the status bar.
		m.terminal.SetSize(msg.Width, msg.Height-4)
		m.statusBar.SetWidth(msg.Width)
		m.input.Width = msg.Width - 6
		m.SetReady(true)

		_, cmd := m.terminal.Update(msg)
		cmds = append(cmds, cmd)

	case models.ConnectionStatusMsg:
		m.SetConnected(msg.Connected)
		if msg.Connected {
			m.statusBar.SetConnected(m.Session().Config())
		} else {
			m.statusBar.SetDisconnected(msg.Err)
		}

	case components.DataMsg:
		m.AddMessage(msg)
		m.terminal.AddMessage(msg)

	case tea.KeyMsg:
		if m.InputMode() == models.InputModeInsert {
			switch {
			case key.Matches(msg, m.keys.Escape):
				m.SetInputMode(models.InputModeNormal)
				m.input.Blur()
			case key.Matches(msg, m.keys.Send):
				cmds = append(cmds, m.transmit(m.input.Value()))
				m.input.SetValue("")
			default:
				var cmd tea.Cmd
				m.input, cmd = m.input.Update(msg)
				cmds = append(cmds, cmd)
			}
			break
		}

		switch {
		case key.Matches(msg, m.keys.Quit):
			m.Cleanup()
			return m, tea.Quit
		case key.Matches(msg, m.keys.InsertMode):
			m.SetInputMode(models.InputModeInsert)
			cmds = append(cmds, m.input.Focus())
		case key.Matches(msg, m.keys.Clear):
			m.ClearHistory()
			m.terminal.Clear()
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		case key.Matches(msg, m.keys.ToggleHex):
			m.terminal.ToggleHex()
			m.terminal.Refresh(m.History())
		case key.Matches(msg, m.keys.ToggleASCII):
			m.terminal.ToggleASCII()
			m.terminal.Refresh(m.History())
		}
	}

	return m, tea.Batch(cmds...)
}

// transmit writes the typed data followed by a newline and reports the
// echo locally so the user sees what went out.
func (m *connectModel) transmit(data string) tea.Cmd {
	s := m.Session()
	if s == nil || data == "" {
		return nil
	}
	payload := append([]byte(data), '\n')
	return func() tea.Msg {
		if _, err := s.Write(payload, m.writeTimeout, m.writeMultiplier); err != nil {
			return models.ConnectionStatusMsg{Connected: true, Err: err}
		}
		return components.DataMsg{Timestamp: time.Now(), Data: payload, IsTX: true}
	}
}

func (m *connectModel) View() string {
	content := "Initializing..."
	if m.IsReady() {
		content = m.terminal.View()
	}

	sections := []string{
		styles.ContentBorderStyle.Render(content),
		styles.InputStyle.Render(m.input.View()),
	}

	if m.help.ShowAll {
		sections = append(sections, styles.HelpBoxStyle.Render(m.help.View(m.keys)))
	}

	sections = append(sections, m.statusBar.View(m.InputMode().String()))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}
