package cmd

import (
	"bytes"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/PolarWolf314/hush/internal/configs"
	"github.com/spf13/cobra"
)

// setupTestEnvironment points the user settings at fresh temporary directories,
// moves into a temporary working directory, and restores both on cleanup.
// Returns the working directory and the user directory.
func setupTestEnvironment(t *testing.T) (string, string) {
	t.Helper()

	originalWd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get original working directory: %v", err)
	}
	originalUserSettings := configs.UserHushSettings

	tempDir := t.TempDir()
	tempUserDir := t.TempDir()

	if err := os.Chdir(tempDir); err != nil {
		t.Fatalf("Failed to change to temp directory: %v", err)
	}

	t.Cleanup(func() {
		if err := os.Chdir(originalWd); err != nil {
			t.Fatalf("Failed to change to original directory: %v", err)
		}
		configs.UserHushSettings = originalUserSettings
		ResetGlobalState()
	})

	configs.UserHushSettings = &configs.UserSettings{
		UserKeysPath:    filepath.Join(tempUserDir, "keys"),
		UserConfigsPath: filepath.Join(tempUserDir, "config"),
		UserDataPath:    filepath.Join(tempUserDir, "data"),
		Username:        "testuser",
	}

	return tempDir, tempUserDir
}

// captureOutput captures both stdout and stderr during function execution.
func captureOutput(fn func() error) (string, error) {
	originalStdout := os.Stdout
	originalStderr := os.Stderr

	stdoutReader, stdoutWriter, _ := os.Pipe()
	stderrReader, stderrWriter, _ := os.Pipe()

	os.Stdout = stdoutWriter
	os.Stderr = stderrWriter

	stdoutChan := make(chan string, 1)
	stderrChan := make(chan string, 1)

	go func() {
		var buf bytes.Buffer
		if _, err := io.Copy(&buf, stdoutReader); err != nil {
			log.Fatalf("Failed to run copy command: %s", err)
		}
		stdoutChan <- buf.String()
	}()

	go func() {
		var buf bytes.Buffer
		if _, err := io.Copy(&buf, stderrReader); err != nil {
			log.Fatalf("Failed to run copy command: %s", err)
		}
		stderrChan <- buf.String()
	}()

	err := fn()

	stdoutWriter.Close()
	stderrWriter.Close()

	os.Stdout = originalStdout
	os.Stderr = originalStderr

	return <-stdoutChan + <-stderrChan, err
}

// captureStdout runs fn and returns stdout and stderr separately.
func captureStdout(fn func() error) (string, string, error) {
	originalStdout := os.Stdout
	originalStderr := os.Stderr

	stdoutReader, stdoutWriter, _ := os.Pipe()
	stderrReader, stderrWriter, _ := os.Pipe()

	os.Stdout = stdoutWriter
	os.Stderr = stderrWriter

	stdoutChan := make(chan string, 1)
	stderrChan := make(chan string, 1)

	drain := func(r io.Reader, out chan<- string) {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, r)
		out <- buf.String()
	}
	go drain(stdoutReader, stdoutChan)
	go drain(stderrReader, stderrChan)

	err := fn()

	stdoutWriter.Close()
	stderrWriter.Close()

	os.Stdout = originalStdout
	os.Stderr = originalStderr

	return <-stdoutChan, <-stderrChan, err
}

// createTestCLI creates a complete CLI instance with fresh flag state for the given arguments.
func createTestCLI(args ...string) *cobra.Command {
	ResetGlobalState()

	rootCmd := &cobra.Command{
		Use:           "hush",
		Short:         "hush - end-to-end encrypted messages with published RSA keys.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(KeysCmd)
	rootCmd.AddCommand(MessageCmd)
	rootCmd.AddCommand(ConfigCmd)
	rootCmd.AddCommand(LogCmd)

	rootCmd.SetArgs(args)
	return rootCmd
}

// runCLI executes the CLI with args and returns the combined output.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return captureOutput(func() error {
		return createTestCLI(args...).Execute()
	})
}

// mustRunCLI executes the CLI and fails the test if the command returns an error.
func mustRunCLI(t *testing.T, args ...string) string {
	t.Helper()
	output, err := runCLI(t, args...)
	if err != nil {
		t.Fatalf("hush %v failed: %v\nOutput: %s", args, err, output)
	}
	return output
}
