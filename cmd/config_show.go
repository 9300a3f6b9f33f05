package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/PolarWolf314/hush/internal/configs"
	"github.com/PolarWolf314/hush/internal/workflows"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var configShowJSON bool

func init() {
	configShowCmd.Flags().BoolVar(&configShowJSON, "json", false, "output in JSON format")
}

// resetConfigShowState resets the config show command's global state for testing.
func resetConfigShowState() {
	configShowJSON = false
}

// configView is the JSON shape of config show. The directory token is never printed.
type configView struct {
	UserID        string `json:"user_id"`
	Email         string `json:"email"`
	DirectoryKind string `json:"directory_kind"`
	DirectoryPath string `json:"directory_path,omitempty"`
	DirectoryURL  string `json:"directory_url,omitempty"`
	HasToken      bool   `json:"has_token"`
	RSABits       int    `json:"rsa_bits"`
	ConfigPath    string `json:"config_path"`
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Display current configuration",
	Long: `Displays the current hush configuration from ~/.config/hush/config.toml.

Examples:
  hush config show
  hush config show --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ConfigLogger.Infof("Starting config show command")

		result, err := workflows.ShowConfig(context.Background())
		if err != nil {
			return ConfigLogger.ErrorfAndReturn("Failed to load user config: %v", err)
		}

		if configShowJSON {
			view := configView{
				UserID:        result.Config.User.ID,
				Email:         result.Config.User.Email,
				DirectoryKind: result.Config.Directory.Kind,
				DirectoryPath: result.Config.Directory.Path,
				DirectoryURL:  result.Config.Directory.URL,
				HasToken:      result.Config.Directory.Token != "",
				RSABits:       result.Config.Crypto.RSABits,
				ConfigPath:    result.Path,
			}
			data, err := json.MarshalIndent(view, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal config to JSON: %w", err)
			}
			fmt.Println(string(data))
			return nil
		}

		if result.Config.User.ID == "" {
			fmt.Println(color.YellowString("⚠") + " No user configuration found")
			fmt.Println(color.CyanString("→") + " Run " + color.YellowString("hush config init") + " to set up your identity")
			return nil
		}

		fmt.Println(color.CyanString("User Configuration") + " " + color.HiBlackString("("+result.Path+")"))
		printUserConfig(result.Config)
		return nil
	},
}

func printUserConfig(config *configs.UserConfig) {
	email := config.User.Email
	if email == "" {
		email = color.HiBlackString("(not set)")
	}

	fmt.Printf("  User ID:    %s\n", config.User.ID)
	fmt.Printf("  Email:      %s\n", email)
	switch config.Directory.Kind {
	case configs.DirectoryKindHTTP:
		token := "no"
		if config.Directory.Token != "" {
			token = "yes"
		}
		fmt.Printf("  Directory:  %s %s\n", config.Directory.URL, color.HiBlackString("(http, token: "+token+")"))
	default:
		fmt.Printf("  Directory:  %s %s\n", config.Directory.Path, color.HiBlackString("(file)"))
	}
	fmt.Printf("  RSA bits:   %d\n", config.Crypto.RSABits)
}
