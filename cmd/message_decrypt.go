package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/PolarWolf314/hush/internal/secrets"
	"github.com/PolarWolf314/hush/internal/ui"
	"github.com/PolarWolf314/hush/internal/utils"
	"github.com/PolarWolf314/hush/internal/workflows"
	"github.com/spf13/cobra"
)

var decryptStrict bool

func init() {
	messageDecryptCmd.Flags().BoolVar(&decryptStrict, "strict", false, "fail unless every message is decrypted")
}

// resetMessageDecryptState resets the decrypt command's global state for testing.
func resetMessageDecryptState() {
	decryptStrict = false
}

var messageDecryptCmd = &cobra.Command{
	Use:   "decrypt [files...]",
	Short: "Decrypt messages addressed to you",
	Long: `Opens envelopes with your private key.

With no arguments a single message is read from stdin. Arguments may be
envelope files, directories (every .hush file below them) or glob patterns
such as "inbox/**/*.hush".

Input that is not an envelope is shown unchanged, so plaintext from older
clients stays readable. Envelopes not addressed to you, or that fail
authentication, are also shown unchanged with a warning. Use --strict to
exit with an error in those cases.

Examples:
  hush message decrypt < message.hush
  hush message decrypt inbox/
  hush message decrypt "inbox/**/*.hush" --strict`,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting message decrypt command")
		Logger.Debugf("Args: %v, strict=%t", args, decryptStrict)

		var stdinMessage string
		if len(args) == 0 {
			message, err := readMessageInput(nil, "")
			if err != nil {
				return Logger.ErrorfAndReturn("Failed to read message: %v", err)
			}
			stdinMessage = strings.TrimSuffix(message, "\n")
		}

		spinner, cleanup := startSpinner("Decrypting...", verbose)
		defer cleanup()

		env, err := loadEnvironment()
		if err != nil {
			spinner.FinalMSG = formatError(err)
			if isUnexpectedError(err) {
				return err
			}
			return nil
		}

		ctx := context.Background()
		var files []workflows.FileResult
		if len(args) == 0 {
			result, err := workflows.Read(ctx, env, workflows.ReadOptions{Messages: []string{stdinMessage}})
			if err != nil {
				spinner.FinalMSG = formatError(err)
				if isUnexpectedError(err) {
					return err
				}
				return nil
			}
			files = []workflows.FileResult{{Path: "stdin", Result: result.Results[0]}}
		} else {
			result, err := workflows.ReadFiles(ctx, env, workflows.ReadFilesOptions{Patterns: args})
			if err != nil {
				spinner.FinalMSG = formatError(err)
				if isUnexpectedError(err) {
					return err
				}
				return nil
			}
			files = result.Files

			paths := make([]string, 0, len(files))
			for _, f := range files {
				paths = append(paths, f.Path)
			}
			Logger.Infof("Opened %d file(s):%s", len(paths), utils.FormatPaths(paths))
		}

		failed := 0
		var warnings []string
		for _, f := range files {
			if !f.Result.OK() {
				failed++
				Logger.Debugf("%s: %s (%v)", f.Path, f.Result.Status, f.Result.Err)
				if f.Result.Status != secrets.NotAnEnvelope {
					warnings = append(warnings, formatReadWarning(f))
				}
			}
		}

		spinner.FinalMSG = formatReadSummary(len(files), failed, warnings)
		printReadResults(files, len(args) > 0)

		if decryptStrict && failed > 0 {
			return fmt.Errorf("%d of %d message(s) could not be decrypted", failed, len(files))
		}
		return nil
	},
}

func formatReadWarning(f workflows.FileResult) string {
	switch f.Result.Status {
	case secrets.NotAddressed:
		return ui.Warning.Sprint("⚠") + " " + ui.Path.Sprint(f.Path) + " is not addressed to you"
	default:
		return ui.Warning.Sprint("⚠") + " " + ui.Path.Sprint(f.Path) + " could not be decrypted " +
			ui.Muted.Sprint("tampered or encrypted to an older key")
	}
}

func formatReadSummary(total, failed int, warnings []string) string {
	var msg string
	if failed == 0 {
		msg = ui.Success.Sprint("✓") + fmt.Sprintf(" Decrypted %d message(s)", total)
	} else {
		msg = ui.Info.Sprint("ℹ") + fmt.Sprintf(" Decrypted %d of %d message(s)", total-failed, total)
	}
	for _, w := range warnings {
		msg += "\n" + w
	}
	return msg
}

// printReadResults writes the readable text of each message to stdout. When
// reading files each body is preceded by its path.
func printReadResults(files []workflows.FileResult, withHeaders bool) {
	for i, f := range files {
		if withHeaders {
			if i > 0 {
				fmt.Println()
			}
			fmt.Println("==> " + f.Path + " <==")
		}
		fmt.Println(f.Result.Display())
	}
}
