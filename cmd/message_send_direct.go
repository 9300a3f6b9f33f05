package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/PolarWolf314/hush/internal/ui"
	"github.com/PolarWolf314/hush/internal/workflows"
	"github.com/spf13/cobra"
)

var (
	sendDirectTo   string
	sendDirectFile string
)

func init() {
	messageSendDirectCmd.Flags().StringVarP(&sendDirectTo, "to", "t", "", "user id of the conversation partner")
	messageSendDirectCmd.Flags().StringVarP(&sendDirectFile, "file", "f", "", "read the message from a file")
}

// resetMessageSendDirectState resets the send-direct command's global state for testing.
func resetMessageSendDirectState() {
	sendDirectTo = ""
	sendDirectFile = ""
}

var messageSendDirectCmd = &cobra.Command{
	Use:   "send-direct [message]",
	Short: "Encrypt a one-to-one message",
	Long: `Encrypts a message for you and one conversation partner.

If either of you has no usable published key, the message is printed
unencrypted and a warning explains who is missing a key. Direct messages are
never sent as envelopes that only one side can read.

Examples:
  hush message send-direct --to bob "running late"
  echo "call me" | hush message send-direct --to bob`,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting message send-direct command")

		partner := strings.TrimSpace(sendDirectTo)
		if partner == "" {
			return Logger.ErrorfAndReturn("No conversation partner given, use --to")
		}

		plaintext, err := readMessageInput(args, sendDirectFile)
		if err != nil {
			return Logger.ErrorfAndReturn("Failed to read message: %v", err)
		}

		spinner, cleanup := startSpinner("Encrypting direct message...", verbose)
		defer cleanup()

		env, err := loadEnvironment()
		if err != nil {
			spinner.FinalMSG = formatError(err)
			if isUnexpectedError(err) {
				return err
			}
			return nil
		}

		result, err := workflows.SendDirect(context.Background(), env, workflows.SendDirectOptions{
			Plaintext: plaintext,
			Partner:   partner,
		})
		if err != nil {
			spinner.FinalMSG = formatError(err)
			if isUnexpectedError(err) {
				return err
			}
			return nil
		}

		if result.Encrypted {
			spinner.FinalMSG = ui.Success.Sprint("✓") + " Encrypted for you and " + ui.Identity.Sprint(partner)
		} else {
			spinner.FinalMSG = ui.Warning.Sprint("⚠") + " Not encrypted, missing usable key for: " +
				strings.Join(result.Missing, ", ")
		}
		fmt.Println(result.Message)
		return nil
	},
}
