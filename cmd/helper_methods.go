package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	kerrors "github.com/PolarWolf314/hush/internal/errors"
	"github.com/PolarWolf314/hush/internal/ui"
	"github.com/PolarWolf314/hush/internal/utils"
	"github.com/PolarWolf314/hush/internal/workflows"
	"github.com/briandowns/spinner"
)

// startSpinner creates and starts a spinner with the given message when not in verbose or debug mode.
// Returns the spinner and a function that should be deferred to clean up.
//
// The spinner and its final message are written to stderr so that envelopes
// and plaintext on stdout stay pipeable.
//
// IMPORTANT: spinner.FinalMSG values do NOT need trailing newlines. The cleanup function
// automatically calls ui.EnsureNewline() on the final message before printing it.
func startSpinner(message string, verbose bool) (*spinner.Spinner, func()) {
	return startSpinnerWithFlags(message, verbose, debug)
}

// startSpinnerWithFlags creates and starts a spinner with explicit verbose and debug flags.
// This is useful for commands that have their own flag variables (e.g., config commands).
func startSpinnerWithFlags(message string, verboseFlag, debugFlag bool) (*spinner.Spinner, func()) {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriterFile(os.Stderr))
	s.Suffix = " " + message

	if err := s.Color("cyan"); err != nil {
		// If we can't set spinner color, just continue without it.
		Logger.Warnf("Failed to set spinner color: %v", err)
	}

	quiet := !verboseFlag && !debugFlag
	if quiet {
		s.Start()
		// Ensure log output is discarded unless in verbose mode.
		log.SetOutput(io.Discard)
	} else {
		Logger.Infof("Running in verbose or debug mode: %s", message)
	}

	cleanup := func() {
		if quiet {
			log.SetOutput(os.Stderr)
		}

		finalMsg := ""
		if s.FinalMSG != "" {
			finalMsg = ui.EnsureNewline(s.FinalMSG)
			// Clear FinalMSG so s.Stop() doesn't print it.
			s.FinalMSG = ""
		}

		if quiet {
			s.Stop()
		}

		if finalMsg != "" {
			fmt.Fprint(os.Stderr, finalMsg)
		}
	}

	return s, cleanup
}

// loadEnvironment builds the workflow environment for the local user.
func loadEnvironment() (*workflows.Environment, error) {
	Logger.Debugf("Loading user environment")
	env, err := workflows.NewEnvironment(Logger)
	if err != nil {
		return nil, err
	}
	Logger.Debugf("Acting as user %s", env.UserID())
	return env, nil
}

// confirmRegenerate asks before a published key pair is replaced. The spinner
// is paused while waiting for an answer.
func confirmRegenerate(s *spinner.Spinner) func(userID string) bool {
	return func(userID string) bool {
		defer pauseSpinner(s)()

		fmt.Fprintf(os.Stderr, "\n%s No private key was found for %s, but a public key is published.\n",
			ui.Warning.Sprint("Warning:"), ui.Identity.Sprint(userID))
		fmt.Fprintln(os.Stderr, "  Generating a new key pair makes messages sent to the old key unreadable.")
		fmt.Fprintln(os.Stderr)

		return confirm("Do you want to continue? [y/N]: ")
	}
}

// pauseSpinner stops a running spinner and returns a function that restarts it.
func pauseSpinner(s *spinner.Spinner) func() {
	if !s.Active() {
		return func() {}
	}
	s.Stop()
	return s.Restart
}

// confirm prompts on stderr and reads a yes/no answer from stdin.
func confirm(prompt string) bool {
	reader := bufio.NewReader(os.Stdin)
	fmt.Fprint(os.Stderr, prompt)
	response, err := reader.ReadString('\n')
	if err != nil {
		Logger.Errorf("Failed to read response: %v", err)
		return false
	}
	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}

// readMessageInput returns the message body from positional args, a file, or stdin, in that order.
func readMessageInput(args []string, file string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}

	if file != "" {
		Logger.Debugf("Reading message from %s", file)
		data, err := os.ReadFile(file)
		if err != nil {
			if os.IsNotExist(err) {
				return "", fmt.Errorf("%w: %s", kerrors.ErrFileNotFound, file)
			}
			return "", fmt.Errorf("reading %s: %w", file, err)
		}
		return string(data), nil
	}

	Logger.Debugf("Reading message from stdin")
	data, err := utils.ReadStdin()
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// splitRecipients turns a comma-separated --to value into normalized ids.
func splitRecipients(value string) []string {
	return utils.NormalizeIDs(strings.Split(value, ","))
}

// formatError maps workflow errors to user-facing messages.
func formatError(err error) string {
	switch {
	case errors.Is(err, kerrors.ErrUserNotConfigured):
		return ui.Error.Sprint("✗") + " Your identity has not been configured\n" +
			ui.Info.Sprint("→") + " Run " + ui.Code.Sprint("hush config init") + " first"

	case errors.Is(err, kerrors.ErrRegenerateDeclined):
		return ui.Error.Sprint("✗") + " Key regeneration cancelled\n" +
			ui.Info.Sprint("→") + " Restore your private key, or run " + ui.Code.Sprint("hush keys import") + " to install it"

	case errors.Is(err, kerrors.ErrDirectoryUnavailable):
		return ui.Error.Sprint("✗") + " Public key directory unavailable: " + err.Error() + "\n" +
			ui.Info.Sprint("→") + " Check the directory settings with " + ui.Code.Sprint("hush config show")

	case errors.Is(err, kerrors.ErrPrivateKeyNotFound):
		return ui.Error.Sprint("✗") + " No private key found\n" +
			ui.Info.Sprint("→") + " Run " + ui.Code.Sprint("hush keys ensure") + " to create one"

	case errors.Is(err, kerrors.ErrPassphraseRequired):
		return ui.Error.Sprint("✗") + " The private key is passphrase protected\n" +
			ui.Info.Sprint("→") + " Run the command from a terminal to be prompted for the passphrase"

	case errors.Is(err, kerrors.ErrKeyTooSmall):
		return ui.Error.Sprint("✗") + " " + err.Error()

	case errors.Is(err, kerrors.ErrInvalidPrivateKey):
		return ui.Error.Sprint("✗") + " The key could not be read: " + err.Error()

	case errors.Is(err, kerrors.ErrInvalidPartner):
		return ui.Error.Sprint("✗") + " A direct message needs a partner other than yourself\n" +
			ui.Info.Sprint("→") + " Use " + ui.Code.Sprint("hush message encrypt") + " for notes to yourself"

	case errors.Is(err, kerrors.ErrNoFilesFound):
		return ui.Error.Sprint("✗") + " No envelope files matched"

	case errors.Is(err, kerrors.ErrFileNotFound):
		return ui.Error.Sprint("✗") + " " + err.Error()

	case errors.Is(err, kerrors.ErrEncryptFailed):
		return ui.Error.Sprint("✗") + " Failed to encrypt message: " + err.Error()

	default:
		return ui.Error.Sprint("✗") + " " + err.Error()
	}
}

// isUnexpectedError returns true if the error should cause a non-zero exit
// without a friendlier explanation being enough.
func isUnexpectedError(err error) bool {
	switch {
	case errors.Is(err, kerrors.ErrUserNotConfigured),
		errors.Is(err, kerrors.ErrRegenerateDeclined),
		errors.Is(err, kerrors.ErrPrivateKeyNotFound),
		errors.Is(err, kerrors.ErrNoFilesFound):
		return false
	default:
		return true
	}
}
