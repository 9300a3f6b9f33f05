package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/PolarWolf314/hush/internal/ui"
	"github.com/PolarWolf314/hush/internal/utils"
	"github.com/PolarWolf314/hush/internal/workflows"
	"github.com/spf13/cobra"
)

var (
	encryptTo          string
	encryptFile        string
	encryptIncludeSelf bool
	encryptOut         string
)

func init() {
	messageEncryptCmd.Flags().StringVarP(&encryptTo, "to", "t", "", "comma-separated recipient user ids")
	messageEncryptCmd.Flags().StringVarP(&encryptFile, "file", "f", "", "read the message from a file")
	messageEncryptCmd.Flags().BoolVar(&encryptIncludeSelf, "include-self", true, "also address the envelope to yourself")
	messageEncryptCmd.Flags().StringVarP(&encryptOut, "out", "o", "", "write the envelope to a file instead of stdout")
}

// resetMessageEncryptState resets the encrypt command's global state for testing.
func resetMessageEncryptState() {
	encryptTo = ""
	encryptFile = ""
	encryptIncludeSelf = true
	encryptOut = ""
}

var messageEncryptCmd = &cobra.Command{
	Use:   "encrypt [message]",
	Short: "Encrypt a message for one or more recipients",
	Long: `Encrypts a message into an envelope addressed to every recipient with a
published public key.

The message is taken from the arguments, from --file, or from stdin.
Recipients without a published key, or whose key cannot be used, are left
out of the envelope and reported as warnings. By default the envelope is also
addressed to you so you can read your own sent messages.

Examples:
  hush message encrypt --to alice "the door code is 4711"
  cat notes.txt | hush message encrypt --to alice,bob --out notes.hush
  hush message encrypt --to alice --include-self=false --file draft.txt`,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting message encrypt command")
		Logger.Debugf("Flags: to=%q, file=%q, include-self=%t, out=%q", encryptTo, encryptFile, encryptIncludeSelf, encryptOut)

		recipients := splitRecipients(encryptTo)
		if len(recipients) == 0 && !encryptIncludeSelf {
			return Logger.ErrorfAndReturn("No recipients given, use --to")
		}

		plaintext, err := readMessageInput(args, encryptFile)
		if err != nil {
			return Logger.ErrorfAndReturn("Failed to read message: %v", err)
		}

		spinner, cleanup := startSpinner("Encrypting message...", verbose)
		defer cleanup()

		env, err := loadEnvironment()
		if err != nil {
			spinner.FinalMSG = formatError(err)
			if isUnexpectedError(err) {
				return err
			}
			return nil
		}

		result, err := workflows.Send(context.Background(), env, workflows.SendOptions{
			Plaintext:   plaintext,
			Recipients:  recipients,
			IncludeSelf: encryptIncludeSelf,
		})
		if err != nil {
			spinner.FinalMSG = formatError(err)
			if isUnexpectedError(err) {
				return err
			}
			return nil
		}

		if encryptOut != "" {
			path, err := writeEnvelopeFile(encryptOut, result.Envelope)
			if err != nil {
				spinner.FinalMSG = formatError(err)
				return err
			}
			spinner.FinalMSG = formatSendResult(result) + "\n" +
				ui.Info.Sprint("→") + " Envelope written to " + ui.Path.Sprint(path)
			return nil
		}

		spinner.FinalMSG = formatSendResult(result)
		fmt.Println(result.Envelope)
		return nil
	},
}

func formatSendResult(result *workflows.SendResult) string {
	var msg string
	if len(result.Recipients) == 0 {
		msg = ui.Warning.Sprint("⚠") + " Envelope has no recipients and cannot be opened by anyone"
	} else {
		msg = ui.Success.Sprint("✓") + fmt.Sprintf(" Encrypted for %d recipient(s): ", len(result.Recipients)) +
			ui.Identity.Sprint(strings.Join(result.Recipients, ", "))
	}

	if len(result.Unresolved) > 0 {
		msg += "\n" + ui.Warning.Sprint("⚠") + " No published key: " + strings.Join(result.Unresolved, ", ")
	}
	if len(result.Omitted) > 0 {
		msg += "\n" + ui.Warning.Sprint("⚠") + " Unusable key, skipped: " + strings.Join(result.Omitted, ", ")
	}
	return msg
}

// writeEnvelopeFile writes an envelope to path with a trailing newline,
// adding the envelope extension if it is missing.
func writeEnvelopeFile(path, envelope string) (string, error) {
	if !utils.IsEnvelopeFile(path) {
		Logger.Debugf("Adding %s extension to %s", utils.EnvelopeExtension, path)
		path += utils.EnvelopeExtension
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return "", fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, []byte(envelope+"\n"), 0600); err != nil {
		return "", fmt.Errorf("writing envelope to %s: %w", path, err)
	}
	return path, nil
}
