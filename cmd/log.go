package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PolarWolf314/hush/internal/audit"
	kerrors "github.com/PolarWolf314/hush/internal/errors"
	"github.com/PolarWolf314/hush/internal/ui"
	"github.com/PolarWolf314/hush/internal/workflows"
	"github.com/spf13/cobra"
)

var (
	logLimit     int
	logReverse   bool
	logOperation string
	logSince     string
	logUntil     string
	logOneline   bool
	logJSON      bool
)

func init() {
	registerLogFlags(LogCmd)

	LogCmd.Flags().IntVarP(&logLimit, "number", "n", 0, "limit number of entries shown")
	LogCmd.Flags().BoolVar(&logReverse, "reverse", false, "show most recent entries first")
	LogCmd.Flags().StringVar(&logOperation, "operation", "", "filter by operation type (comma-separated)")
	LogCmd.Flags().StringVar(&logSince, "since", "", "show entries after date (YYYY-MM-DD)")
	LogCmd.Flags().StringVar(&logUntil, "until", "", "show entries before date (YYYY-MM-DD)")
	LogCmd.Flags().BoolVar(&logOneline, "oneline", false, "compact one-line format")
	LogCmd.Flags().BoolVar(&logJSON, "json", false, "output as JSON array")
}

// resetLogCommandState resets the log command's global state for testing.
func resetLogCommandState() {
	logLimit = 0
	logReverse = false
	logOperation = ""
	logSince = ""
	logUntil = ""
	logOneline = false
	logJSON = false
}

// LogCmd shows the local audit log.
var LogCmd = &cobra.Command{
	Use:   "log",
	Short: "View the audit log",
	Long: `Displays the local audit log of key and message operations.

Entries record who did what and when, never message content or key material.

Operations:
  keys-generate, keys-self-heal, keys-publish, keys-import, encrypt, decrypt

Examples:
  hush log
  hush log -n 10 --reverse
  hush log --operation keys-self-heal,keys-import
  hush log --since 2024-01-01 --json`,
	PersistentPreRun: initLogger,
	RunE:             runLog,
}

func runLog(cmd *cobra.Command, args []string) error {
	Logger.Infof("Starting log command")
	spinner, cleanup := startSpinner("Reading audit log...", verbose)
	defer cleanup()

	opts := workflows.LogOptions{
		Limit:      logLimit,
		Reverse:    logReverse,
		Operations: logOperation,
		Since:      logSince,
		Until:      logUntil,
	}

	result, err := workflows.Log(context.Background(), opts)
	if err != nil {
		spinner.FinalMSG = formatLogError(err)
		if isLogUnexpectedError(err) {
			return err
		}
		return nil
	}

	Logger.Debugf("Parsed %d entries from audit log", result.TotalEntriesBeforeFilter)
	Logger.Debugf("After filtering: %d entries", len(result.Entries))

	spinner.FinalMSG = ""
	if len(result.Entries) == 0 {
		if result.TotalEntriesBeforeFilter == 0 {
			fmt.Println("No audit log entries found.")
		} else {
			fmt.Println("No audit log entries found matching the filters.")
		}
		return nil
	}

	if logJSON {
		return outputLogJSON(result.Entries)
	}

	if logOneline {
		outputLogOneline(result.Entries)
		return nil
	}

	outputLogDefault(result.Entries)
	return nil
}

// formatLogError formats a log error for display to the user.
func formatLogError(err error) string {
	switch {
	case errors.Is(err, kerrors.ErrNoFilesFound):
		return ui.Info.Sprint("ℹ") + " No audit log found. Operations will be logged after running any keys or message command.\n"

	case errors.Is(err, kerrors.ErrInvalidDateFormat):
		return ui.Error.Sprint("✗") + " " + err.Error()

	default:
		return ui.Error.Sprint("✗") + " Failed to read audit log: " + err.Error()
	}
}

// isLogUnexpectedError returns true if the error is unexpected and should cause a non-zero exit.
func isLogUnexpectedError(err error) bool {
	switch {
	case errors.Is(err, kerrors.ErrNoFilesFound),
		errors.Is(err, kerrors.ErrInvalidDateFormat):
		return false
	default:
		return true
	}
}

func outputLogJSON(entries []audit.Entry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal entries to JSON: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func outputLogOneline(entries []audit.Entry) {
	for _, e := range entries {
		fmt.Printf("%s %s %s %s\n", formatLogTime(e.Timestamp, "2006-01-02"), logActor(e), e.Operation, formatLogDetails(e))
	}
}

func outputLogDefault(entries []audit.Entry) {
	for _, e := range entries {
		fmt.Printf("%-19s  %-25s  %-15s  %s\n", formatLogTime(e.Timestamp, "2006-01-02 15:04:05"), logActor(e), e.Operation, formatLogDetails(e))
	}
}

// logActor prefers the email recorded with an entry, falling back to the user id.
func logActor(e audit.Entry) string {
	if e.User != "" {
		return e.User
	}
	return e.UserID
}

func formatLogTime(ts, layout string) string {
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return ts
	}
	return t.Local().Format(layout)
}

// formatLogDetails renders the operation specific fields of an entry.
func formatLogDetails(e audit.Entry) string {
	var parts []string
	switch e.Operation {
	case audit.OpEncrypt:
		parts = append(parts, fmt.Sprintf("to %s", strings.Join(e.Recipients, ", ")))
		if len(e.Omitted) > 0 {
			parts = append(parts, fmt.Sprintf("skipped %s", strings.Join(e.Omitted, ", ")))
		}
	case audit.OpDecrypt:
		parts = append(parts, e.Outcome)
		if len(e.Files) > 0 {
			parts = append(parts, fmt.Sprintf("%d file(s)", len(e.Files)))
		}
	default:
		if e.Outcome != "" {
			parts = append(parts, e.Outcome)
		}
		if e.Fingerprint != "" {
			parts = append(parts, e.Fingerprint)
		}
	}
	return strings.Join(parts, "  ")
}
