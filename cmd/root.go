package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/elewis787/boa"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	errUtils "github.com/cloudposse/flopen/errors"
	log "github.com/cloudposse/flopen/pkg/logger"
)

// RootCmd represents the base command when called without any subcommands.
var RootCmd = &cobra.Command{
	Use:   "flopen",
	Short: "Reliably open and lock files from the command line",
	Long: `Flopen serializes commands and daemons on exclusively locked files, the way
the BSD flopen(3) function does: after the lock is granted, the handle is
verified to still be the file its path names, so a lock file that was
deleted and recreated while waiting is never mistaken for the live one.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Determine if the command is a help command or if the help flag is set
		isHelpRequested := cmd.Name() == "help" || cmd.Flags().Changed("help")

		if isHelpRequested {
			// Do not silence usage or errors when help is invoked
			cmd.SilenceUsage = false
			cmd.SilenceErrors = false
		} else {
			cmd.SilenceUsage = true
			cmd.SilenceErrors = true
		}

		return setupLogger()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() error {
	return RootCmd.Execute()
}

func init() {
	RootCmd.PersistentFlags().String("logs-level", "Info", "Logs level. Supported log levels are Trace, Debug, Info, Warning, Off. If the log level is set to Off, flopen will not log any messages")
	RootCmd.PersistentFlags().String("logs-file", "/dev/stderr", "The file to write flopen logs to. Logs can be written to any file or any standard file descriptor, including '/dev/stdout', '/dev/stderr' and '/dev/null'")

	// Flags can also be set through FLOPEN_LOGS_LEVEL and FLOPEN_LOGS_FILE.
	viper.SetEnvPrefix("FLOPEN")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	errUtils.CheckErrorPrintAndExit(viper.BindPFlag("logs-level", RootCmd.PersistentFlags().Lookup("logs-level")))
	errUtils.CheckErrorPrintAndExit(viper.BindPFlag("logs-file", RootCmd.PersistentFlags().Lookup("logs-file")))

	cobra.OnInitialize(initStyles)
}

// initStyles applies the styled usage and help renderer.
func initStyles() {
	styles := boa.DefaultStyles()
	b := boa.New(boa.WithStyles(styles))

	RootCmd.SetUsageFunc(b.UsageFunc)
	RootCmd.SetHelpFunc(b.HelpFunc)
}

// setupLogger configures the default logger from flags and environment.
func setupLogger() error {
	level, err := log.ParseLogLevel(viper.GetString("logs-level"))
	if err != nil {
		return err
	}
	log.Default().SetLogLevel(level)

	w, err := logWriter(viper.GetString("logs-file"))
	if err != nil {
		return err
	}
	log.SetOutput(w)

	return nil
}

// logWriter resolves a --logs-file value to a writer. The standard stream
// pseudo-paths map to the process's own streams so they work on systems
// without /dev.
func logWriter(path string) (*os.File, error) {
	switch path {
	case "", "/dev/stderr":
		return os.Stderr, nil
	case "/dev/stdout":
		return os.Stdout, nil
	case "/dev/null":
		return os.OpenFile(os.DevNull, os.O_WRONLY, 0)
	default:
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file %s: %w", path, err)
		}
		return f, nil
	}
}
