package main

import (
	"fmt"
	"os"

	"github.com/PolarWolf314/hush/cmd"
	"github.com/common-nighthawk/go-figure"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "hush",
	Short: "hush - end-to-end encrypted messages with published RSA keys.",
	Long: `hush encrypts messages so that only the people they are addressed to can
read them.

Each user holds an RSA key pair. The private key stays on the user's machine,
the public key is published to a shared directory. A message is encrypted
once with a fresh AES-256-GCM key, and that key is wrapped for every recipient.

Usage:
  hush <command> [flags]

Available Commands:
  keys       Manage your messaging key pair
  message    Encrypt and decrypt messages
  config     Manage your identity and directory settings
  log        View the audit log

Run 'hush help <command>' for more details on a specific command.
`,
	SilenceUsage: true,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println()
		banner := figure.NewColorFigure("hush", "alligator2", "cyan", true)
		banner.Print()
		fmt.Println()
		fmt.Printf("%s Run %s to see available commands.\n", color.CyanString("→"), color.YellowString("hush --help"))
	},
}

func init() {
	rootCmd.AddCommand(cmd.KeysCmd)
	rootCmd.AddCommand(cmd.MessageCmd)
	rootCmd.AddCommand(cmd.ConfigCmd)
	rootCmd.AddCommand(cmd.LogCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
