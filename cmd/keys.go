package cmd

import (
	logger "github.com/PolarWolf314/hush/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	verbose bool
	debug   bool
	Logger  logger.Logger

	KeysCmd = &cobra.Command{
		Use:   "keys",
		Short: "Manage your messaging key pair",
		Long: `Provides creation, inspection, export and import of the key pair used to
read and send encrypted messages.

Your private key never leaves this machine. Your public key is published to
the configured public key directory so other users can address messages to you.

Examples:
  # Make sure you have a usable key pair
  hush keys ensure

  # Check whether your local and published keys agree
  hush keys status

  # Print your public key
  hush keys export-public`,
		PersistentPreRun: initLogger,
	}
)

func init() {
	registerLogFlags(KeysCmd)

	KeysCmd.AddCommand(keysEnsureCmd)
	KeysCmd.AddCommand(keysStatusCmd)
	KeysCmd.AddCommand(keysExportPublicCmd)
	KeysCmd.AddCommand(keysImportCmd)
}

// registerLogFlags adds the shared verbose and debug flags to a command group.
func registerLogFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	cmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug output")
}

func initLogger(cmd *cobra.Command, args []string) {
	Logger = logger.Logger{
		Verbose: verbose,
		Debug:   debug,
	}
	Logger.Debugf("Initializing %s command with verbose=%t, debug=%t", cmd.Name(), verbose, debug)
}

// Helper functions for testing

// GetKeysCmd returns the KeysCmd for testing.
func GetKeysCmd() *cobra.Command {
	return KeysCmd
}

// ResetGlobalState resets all global variables to their default values for testing.
func ResetGlobalState() {
	verbose = false
	debug = false
	resetKeysEnsureState()
	resetKeysImportState()
	resetMessageEncryptState()
	resetMessageSendDirectState()
	resetMessageDecryptState()
	resetLogCommandState()
	ResetConfigState()
	for _, group := range []*cobra.Command{KeysCmd, MessageCmd, LogCmd} {
		resetCobraFlagState(group)
	}
}

// SetVerbose sets the verbose flag for testing.
func SetVerbose(v bool) {
	verbose = v
}

// SetDebug sets the debug flag for testing.
func SetDebug(d bool) {
	debug = d
}

// SetLogger sets the logger for testing.
func SetLogger(l logger.Logger) {
	Logger = l
}

// resetCobraFlagState clears the Changed marker on a command tree's flags to prevent test pollution.
func resetCobraFlagState(cmd *cobra.Command) {
	reset := func(flag *pflag.Flag) {
		flag.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetCobraFlagState(sub)
	}
}
