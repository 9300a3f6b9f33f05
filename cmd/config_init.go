package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/PolarWolf314/hush/internal/configs"
	"github.com/PolarWolf314/hush/internal/utils"
	"github.com/PolarWolf314/hush/internal/workflows"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	configInitEmail          string
	configInitDirectoryPath  string
	configInitDirectoryURL   string
	configInitDirectoryToken string
	configInitRSABits        int
)

func init() {
	configInitCmd.Flags().StringVarP(&configInitEmail, "email", "e", "", "your email address")
	configInitCmd.Flags().StringVar(&configInitDirectoryPath, "directory-path", "", "use a shared TOML file as the public key directory")
	configInitCmd.Flags().StringVar(&configInitDirectoryURL, "directory-url", "", "use an HTTP profile service as the public key directory")
	configInitCmd.Flags().StringVar(&configInitDirectoryToken, "token", "", "bearer token for the HTTP directory")
	configInitCmd.Flags().IntVar(&configInitRSABits, "rsa-bits", 0, "RSA key size for newly generated key pairs")
}

// resetConfigInitState resets the config init command's global state for testing.
func resetConfigInitState() {
	configInitEmail = ""
	configInitDirectoryPath = ""
	configInitDirectoryURL = ""
	configInitDirectoryToken = ""
	configInitRSABits = 0
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize your user identity",
	Long: `Creates or updates ~/.config/hush/config.toml.

A stable user id is generated the first time. Your email is only used to
label audit log entries. When run from a terminal without --email you are
prompted for it.

Examples:
  hush config init
  hush config init --email alice@example.com
  hush config init --directory-url https://profiles.example.com/api --token $TOKEN`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ConfigLogger.Infof("Starting config init command")

		email := configInitEmail
		if email == "" && utils.IsTerminal() {
			current, err := configs.LoadUserConfig()
			if err != nil {
				return ConfigLogger.ErrorfAndReturn("Failed to load user config: %v", err)
			}
			fmt.Println(color.CyanString("Welcome to hush!") + " Let's set up your identity.\n")
			email, err = promptForInput(bufio.NewReader(os.Stdin), "Email address (optional)", current.User.Email)
			if err != nil {
				return ConfigLogger.ErrorfAndReturn("Failed to read email: %v", err)
			}
		}

		result, err := workflows.InitConfig(context.Background(), workflows.InitConfigOptions{
			Email:          email,
			DirectoryPath:  configInitDirectoryPath,
			DirectoryURL:   configInitDirectoryURL,
			DirectoryToken: configInitDirectoryToken,
			RSABits:        configInitRSABits,
		})
		if err != nil {
			fmt.Println(color.RedString("✗") + " " + err.Error())
			return err
		}

		ConfigLogger.Debugf("Saved config to %s", result.Path)
		fmt.Println(color.GreenString("✓") + " Configuration saved to " + color.YellowString(result.Path))
		printUserConfig(result.Config)
		fmt.Println(color.CyanString("→") + " Run " + color.YellowString("hush keys ensure") + " to create and publish your key pair")
		return nil
	},
}

// promptForInput prompts the user for input with an optional default value.
func promptForInput(reader *bufio.Reader, prompt, defaultValue string) (string, error) {
	if defaultValue != "" {
		fmt.Printf("%s [%s]: ", prompt, defaultValue)
	} else {
		fmt.Printf("%s: ", prompt)
	}

	input, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}

	input = strings.TrimSpace(input)
	if input == "" && defaultValue != "" {
		return defaultValue, nil
	}
	return input, nil
}
