package configs

import (
	"fmt"
	"os"

	"github.com/google/uuid"
)

// Directory kinds understood by the public key directory factory.
const (
	DirectoryKindFile = "file"
	DirectoryKindHTTP = "http"
)

// DefaultRSABits is the RSA modulus size used for newly generated key pairs.
const DefaultRSABits = 2048

type UserConfig struct {
	User      User            `toml:"user"`
	Directory DirectoryConfig `toml:"directory"`
	Crypto    CryptoConfig    `toml:"crypto"`
}

type User struct {
	ID    string `toml:"user_id"`
	Email string `toml:"email"`
}

// DirectoryConfig selects where public keys are published and looked up.
type DirectoryConfig struct {
	Kind  string `toml:"kind"`
	Path  string `toml:"path,omitempty"`
	URL   string `toml:"url,omitempty"`
	Token string `toml:"token,omitempty"`
}

type CryptoConfig struct {
	RSABits int `toml:"rsa_bits"`
}

// LoadUserConfig loads the user configuration from the config file.
// A missing file yields a config populated with defaults.
func LoadUserConfig() (*UserConfig, error) {
	configPath := ConfigFilePath()

	config := &UserConfig{}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		config.applyDefaults()
		return config, nil
	}

	if err := LoadTOML(configPath, config); err != nil {
		return nil, fmt.Errorf("failed to load user config: %w", err)
	}

	config.applyDefaults()
	return config, nil
}

// SaveUserConfig saves the user configuration to the config file.
func SaveUserConfig(config *UserConfig) error {
	if err := SaveTOML(ConfigFilePath(), config); err != nil {
		return fmt.Errorf("failed to save user config: %w", err)
	}

	return nil
}

// GenerateUserID generates a new identity for the local user.
func GenerateUserID() string {
	return uuid.New().String()
}

// EnsureUserConfig ensures the user configuration exists and has an identity.
func EnsureUserConfig() (*UserConfig, error) {
	config, err := LoadUserConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load user config: %w", err)
	}

	if config.User.ID == "" {
		config.User.ID = GenerateUserID()
		if err := SaveUserConfig(config); err != nil {
			return nil, fmt.Errorf("failed to save user config: %w", err)
		}
	}

	return config, nil
}

func (c *UserConfig) applyDefaults() {
	if c.Directory.Kind == "" {
		c.Directory.Kind = DirectoryKindFile
	}
	if c.Directory.Kind == DirectoryKindFile && c.Directory.Path == "" {
		c.Directory.Path = DefaultDirectoryPath()
	}
	if c.Crypto.RSABits == 0 {
		c.Crypto.RSABits = DefaultRSABits
	}
}

// Validate reports configuration values that cannot be used.
func (c *UserConfig) Validate() error {
	switch c.Directory.Kind {
	case DirectoryKindFile:
		if c.Directory.Path == "" {
			return fmt.Errorf("directory kind %q requires a path", c.Directory.Kind)
		}
	case DirectoryKindHTTP:
		if c.Directory.URL == "" {
			return fmt.Errorf("directory kind %q requires a url", c.Directory.Kind)
		}
	default:
		return fmt.Errorf("unknown directory kind %q", c.Directory.Kind)
	}

	if c.Crypto.RSABits < DefaultRSABits {
		return fmt.Errorf("rsa_bits must be at least %d, got %d", DefaultRSABits, c.Crypto.RSABits)
	}

	return nil
}
