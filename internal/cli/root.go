package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/allbin/sercom"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "sercom",
	Short: "Serial port sessions from the command line",
	Long: `sercom opens timeout-bounded sessions to serial (UART / virtual COM)
devices. It can list openable ports, send data, print incoming lines
and attach an interactive terminal to a port.

Line configuration defaults can be set per flag, in the config file
(~/.sercom.yaml) or via SERCOM_* environment variables.`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.sercom.yaml)")
	rootCmd.PersistentFlags().IntP("baud", "b", 9600, "baud rate")
	rootCmd.PersistentFlags().Int("data-bits", 8, "data bits (5-8)")
	rootCmd.PersistentFlags().String("parity", "none", "parity: none, odd, even, mark, space")
	rootCmd.PersistentFlags().String("stop-bits", "1", "stop bits: 1, 1.5, 2")
	rootCmd.PersistentFlags().String("flow-control", "none", "flow control flags: none, rtscts, xonxoff")

	viper.BindPFlag("baud", rootCmd.PersistentFlags().Lookup("baud"))
	viper.BindPFlag("data-bits", rootCmd.PersistentFlags().Lookup("data-bits"))
	viper.BindPFlag("parity", rootCmd.PersistentFlags().Lookup("parity"))
	viper.BindPFlag("stop-bits", rootCmd.PersistentFlags().Lookup("stop-bits"))
	viper.BindPFlag("flow-control", rootCmd.PersistentFlags().Lookup("flow-control"))
}

// initConfig reads in config file and ENV variables if set
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".sercom")
	}

	viper.SetEnvPrefix("sercom")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// sessionOptions translates the resolved settings into session options
func sessionOptions() ([]sercom.Option, error) {
	opts := []sercom.Option{
		sercom.WithBaudRate(viper.GetInt("baud")),
		sercom.WithDataBits(viper.GetInt("data-bits")),
	}

	switch strings.ToLower(viper.GetString("parity")) {
	case "", "none":
		opts = append(opts, sercom.WithParity(sercom.ParityNone))
	case "odd":
		opts = append(opts, sercom.WithParity(sercom.ParityOdd))
	case "even":
		opts = append(opts, sercom.WithParity(sercom.ParityEven))
	case "mark":
		opts = append(opts, sercom.WithParity(sercom.ParityMark))
	case "space":
		opts = append(opts, sercom.WithParity(sercom.ParitySpace))
	default:
		return nil, fmt.Errorf("unknown parity %q", viper.GetString("parity"))
	}

	switch viper.GetString("stop-bits") {
	case "", "1":
		opts = append(opts, sercom.WithStopBits(sercom.StopBitsOne))
	case "1.5":
		opts = append(opts, sercom.WithStopBits(sercom.StopBitsOnePointFive))
	case "2":
		opts = append(opts, sercom.WithStopBits(sercom.StopBitsTwo))
	default:
		return nil, fmt.Errorf("unknown stop bits %q", viper.GetString("stop-bits"))
	}

	switch strings.ToLower(viper.GetString("flow-control")) {
	case "", "none":
		opts = append(opts, sercom.WithFlowControl(sercom.FlowControlNone))
	case "rtscts":
		opts = append(opts, sercom.WithFlowControl(sercom.FlowControlRTSCTS))
	case "xonxoff":
		opts = append(opts, sercom.WithFlowControl(sercom.FlowControlXONXOFF))
	default:
		return nil, fmt.Errorf("unknown flow control %q", viper.GetString("flow-control"))
	}

	return opts, nil
}
