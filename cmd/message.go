package cmd

import (
	"github.com/spf13/cobra"
)

// MessageCmd groups the envelope encryption and decryption commands.
var MessageCmd = &cobra.Command{
	Use:   "message",
	Short: "Encrypt and decrypt messages",
	Long: `Encrypts messages into envelopes that only the named recipients can open,
and opens envelopes addressed to you.

Every message is encrypted once with a fresh AES-256-GCM key. That key is
wrapped separately for each recipient with their published RSA public key.

Examples:
  # Encrypt a message for two users
  echo "lunch at noon?" | hush message encrypt --to alice,bob

  # Send a direct message, falling back to plaintext if keys are missing
  hush message send-direct --to bob "see you soon"

  # Decrypt envelopes from files
  hush message decrypt inbox/*.hush`,
	PersistentPreRun: initLogger,
}

func init() {
	registerLogFlags(MessageCmd)

	MessageCmd.AddCommand(messageEncryptCmd)
	MessageCmd.AddCommand(messageSendDirectCmd)
	MessageCmd.AddCommand(messageDecryptCmd)
}
