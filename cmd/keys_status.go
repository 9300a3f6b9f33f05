package cmd

import (
	"context"
	"fmt"

	"github.com/PolarWolf314/hush/internal/secrets"
	"github.com/PolarWolf314/hush/internal/ui"
	"github.com/PolarWolf314/hush/internal/workflows"
	"github.com/spf13/cobra"
)

var keysStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the state of your key pair",
	Long: `Compares your local private key with the public key published for you.

States:
  no-key         no local key and nothing published
  has-key        local key matches the published key
  has-key-stale  a public key is published but the local private key is missing
  unpublished    local key exists but no public key is published
  mismatch       local key does not match the published key

Nothing is changed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting keys status command")
		spinner, cleanup := startSpinner("Checking key status...", verbose)
		defer cleanup()

		env, err := loadEnvironment()
		if err != nil {
			spinner.FinalMSG = formatError(err)
			if isUnexpectedError(err) {
				return err
			}
			return nil
		}

		result, err := workflows.KeyStatus(context.Background(), env)
		if err != nil {
			spinner.FinalMSG = formatError(err)
			return err
		}

		spinner.FinalMSG = ""
		fmt.Println(formatKeyStatus(result))
		return nil
	},
}

func formatKeyStatus(result *workflows.KeyStatusResult) string {
	var icon string
	switch result.Status {
	case secrets.HasKey:
		icon = ui.Success.Sprint("✓")
	case secrets.Unpublished, secrets.HasKeyStale:
		icon = ui.Warning.Sprint("⚠")
	default:
		icon = ui.Error.Sprint("✗")
	}

	msg := fmt.Sprintf("%s %s %s", icon, ui.Identity.Sprint(result.UserID), result.Status)
	if result.LocalFingerprint != "" {
		msg += "\n  Local:     " + ui.Fingerprint.Sprint(result.LocalFingerprint)
	}
	if result.PublishedFingerprint != "" {
		msg += "\n  Published: " + ui.Fingerprint.Sprint(result.PublishedFingerprint)
	}
	switch result.Status {
	case secrets.HasKey:
	case secrets.Mismatch:
		msg += "\n" + ui.Info.Sprint("→") + " Another key is published for you. Run " + ui.Code.Sprint("hush keys import") + " with the matching private key"
	default:
		msg += "\n" + ui.Info.Sprint("→") + " Run " + ui.Code.Sprint("hush keys ensure") + " to repair"
	}
	return msg
}
