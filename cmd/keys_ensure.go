package cmd

import (
	"context"

	"github.com/PolarWolf314/hush/internal/secrets"
	"github.com/PolarWolf314/hush/internal/ui"
	"github.com/PolarWolf314/hush/internal/utils"
	"github.com/PolarWolf314/hush/internal/workflows"
	"github.com/spf13/cobra"
)

var keysEnsureForce bool

func init() {
	keysEnsureCmd.Flags().BoolVarP(&keysEnsureForce, "force", "f", false, "replace a lost key pair without asking")
}

// resetKeysEnsureState resets the ensure command's global state for testing.
func resetKeysEnsureState() {
	keysEnsureForce = false
}

var keysEnsureCmd = &cobra.Command{
	Use:   "ensure",
	Short: "Make sure you have a usable key pair",
	Long: `Loads your key pair, or creates one if you have none.

  - If a private key exists locally it is used, and its public key is
    published if the directory does not have it yet.
  - If no private key exists but a public key is published, your private key
    was lost. A new pair is generated and replaces the published key. Messages
    encrypted to the old key can no longer be read.
  - If neither exists, a first key pair is generated and published.

When run from a terminal you are asked before a lost key pair is replaced.
Use --force to skip the question.

Examples:
  hush keys ensure
  hush keys ensure --force`,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting keys ensure command")
		spinner, cleanup := startSpinner("Checking your key pair...", verbose)
		defer cleanup()

		env, err := loadEnvironment()
		if err != nil {
			spinner.FinalMSG = formatError(err)
			if isUnexpectedError(err) {
				return err
			}
			return nil
		}

		if !keysEnsureForce && utils.IsTerminal() {
			env.Keys.ConfirmRegenerate = confirmRegenerate(spinner)
		}

		result, err := workflows.EnsureKeys(context.Background(), env)
		if err != nil {
			spinner.FinalMSG = formatError(err)
			if isUnexpectedError(err) {
				return err
			}
			return nil
		}

		Logger.Debugf("Key outcome for %s: %s", result.UserID, result.Outcome)
		spinner.FinalMSG = formatKeysResult(result)
		return nil
	},
}

func formatKeysResult(result *workflows.KeysResult) string {
	var msg string
	switch result.Outcome {
	case secrets.KeysGenerated:
		msg = ui.Success.Sprint("✓") + " Generated a new key pair for " + ui.Identity.Sprint(result.UserID)
	case secrets.KeysRegenerated:
		msg = ui.Success.Sprint("✓") + " Replaced the lost key pair for " + ui.Identity.Sprint(result.UserID) + "\n" +
			ui.Warning.Sprint("⚠") + " Messages encrypted to the previous key can no longer be read"
	case secrets.KeysImported:
		msg = ui.Success.Sprint("✓") + " Imported key pair for " + ui.Identity.Sprint(result.UserID)
	default:
		msg = ui.Success.Sprint("✓") + " Key pair ready for " + ui.Identity.Sprint(result.UserID)
	}

	msg += "\n  Fingerprint: " + ui.Fingerprint.Sprint(result.Fingerprint)
	if result.Published {
		msg += "\n" + ui.Info.Sprint("→") + " Public key published to the directory"
	}
	return msg
}
