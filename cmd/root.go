/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/allbin/go-sttyserial/internal/logging"
	"github.com/allbin/go-sttyserial/internal/tui/styles"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile   string
	configErr error
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "serialctl",
	Short: "Configure and talk to serial devices through stty and mode",
	Long: `serialctl configures serial devices with the platform's own tool
(stty on Linux and macOS, mode on Windows) and reads and writes them directly.

Settings come from flags, SERIALCTL_* environment variables, or a
serialctl.yaml file in the current directory (or $HOME/.serialctl.yaml):

  port: /dev/ttyUSB0
  baud: 115200
  parity: none
  data-bits: 8
  stop-bits: 1
  flow-control: rtscts

Example usage:
  serialctl configure /dev/ttyUSB0 --baud 115200
  serialctl send "AT" /dev/ttyUSB0 --newline --read-line
  serialctl read /dev/ttyUSB0 --line
  serialctl monitor COM3
  serialctl profile --platform windows`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if configErr != nil {
			return configErr
		}
		if err := viper.BindPFlags(cmd.Flags()); err != nil {
			return err
		}

		level, err := logging.ParseLevel(viper.GetString("log-level"))
		if err != nil {
			return err
		}
		logging.Setup(os.Stderr, logging.Options{Level: level})
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", styles.ErrorStyle.Render("✗"), err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ./serialctl.yaml or $HOME/.serialctl.yaml)")
	rootCmd.PersistentFlags().String("log-level", "warn", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("platform", "", "Override host platform: linux, macos, windows")
	rootCmd.PersistentFlags().Bool("dry-run", false, "Print configuration commands instead of running them")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	viper.SetEnvPrefix("SERIALCTL")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	path := cfgFile
	if path == "" {
		path = findConfig()
	}
	if path == "" {
		return
	}

	viper.SetConfigFile(path)
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return
		}
		configErr = fmt.Errorf("reading config %s: %w", path, err)
	}
}

func findConfig() string {
	candidates := []string{"serialctl.yaml"}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".serialctl.yaml"))
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	return ""
}
