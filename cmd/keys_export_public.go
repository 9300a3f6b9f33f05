package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/PolarWolf314/hush/internal/workflows"
	"github.com/spf13/cobra"
)

var keysExportPublicCmd = &cobra.Command{
	Use:   "export-public",
	Short: "Print your public key",
	Long: `Prints your public key as base64 SubjectPublicKeyInfo, the form published
to the directory. Nothing is generated; run 'hush keys ensure' first if you
have no key pair.

Examples:
  hush keys export-public > me.pub`,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting keys export-public command")

		env, err := loadEnvironment()
		if err != nil {
			fmt.Fprintln(os.Stderr, formatError(err))
			if isUnexpectedError(err) {
				return err
			}
			return nil
		}

		result, err := workflows.ExportPublicKey(context.Background(), env)
		if err != nil {
			fmt.Fprintln(os.Stderr, formatError(err))
			if isUnexpectedError(err) {
				return err
			}
			return nil
		}

		Logger.Debugf("Exporting public key with fingerprint %s", result.Fingerprint)
		fmt.Println(result.PublicKey)
		return nil
	},
}
