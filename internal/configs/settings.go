package configs

import (
	"log"
	"os"
	"path/filepath"

	"github.com/PolarWolf314/hush/internal/utils"
)

type UserSettings struct {
	UserKeysPath    string
	UserConfigsPath string
	UserDataPath    string
	Username        string
}

var UserHushSettings *UserSettings

func init() {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Fatalf("error getting home directory: %s", err)
	}

	configDir, err := os.UserConfigDir()
	if err != nil {
		log.Fatalf("error getting config directory: %s", err)
	}

	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		dataDir = filepath.Join(homeDir, ".local", "share")
	}

	username, err := utils.GetUsername()
	if err != nil {
		log.Fatalf("error getting username: %s", err)
	}

	UserHushSettings = &UserSettings{
		UserKeysPath:    filepath.Join(dataDir, "hush", "keys"),
		UserConfigsPath: filepath.Join(configDir, "hush"),
		UserDataPath:    filepath.Join(dataDir, "hush"),
		Username:        username,
	}
}

// ConfigFilePath returns the path of the user config file.
func ConfigFilePath() string {
	return filepath.Join(UserHushSettings.UserConfigsPath, "config.toml")
}

// DefaultDirectoryPath returns the location of the file-backed public key directory.
func DefaultDirectoryPath() string {
	return filepath.Join(UserHushSettings.UserDataPath, "directory.toml")
}
