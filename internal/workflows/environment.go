package workflows

import (
	"fmt"

	"github.com/PolarWolf314/hush/internal/configs"
	kerrors "github.com/PolarWolf314/hush/internal/errors"
	logger "github.com/PolarWolf314/hush/internal/logging"
	"github.com/PolarWolf314/hush/internal/secrets"
)

// Environment bundles the collaborators every workflow needs for the local user.
type Environment struct {
	// Config is the local user's configuration.
	Config *configs.UserConfig

	Keys      *secrets.KeyManager
	Codec     *secrets.Codec
	Directory secrets.PublicKeyDirectory
	Log       logger.Logger
}

// UserID returns the local user's identity.
func (e *Environment) UserID() string {
	return e.Config.User.ID
}

// NewEnvironment loads the user config, creating an identity if none exists,
// and wires the key store, public key directory and codec it describes.
//
// Returns ErrUserNotConfigured if the config cannot be loaded.
func NewEnvironment(log logger.Logger) (*Environment, error) {
	config, err := configs.EnsureUserConfig()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", kerrors.ErrUserNotConfigured, err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", configs.ConfigFilePath(), err)
	}

	directory, err := NewDirectory(config.Directory)
	if err != nil {
		return nil, err
	}

	store := secrets.NewFileKeyStore(configs.UserHushSettings.UserKeysPath, log)
	return NewEnvironmentWith(config, store, directory, secrets.NewNativeProvider(config.Crypto.RSABits), log), nil
}

// NewEnvironmentWith builds an environment from explicit collaborators.
// A nil provider selects the native provider.
func NewEnvironmentWith(config *configs.UserConfig, store secrets.PrivateKeyStore, directory secrets.PublicKeyDirectory, provider secrets.CryptoProvider, log logger.Logger) *Environment {
	return &Environment{
		Config:    config,
		Keys:      secrets.NewKeyManager(store, directory, provider, log),
		Codec:     secrets.NewCodec(provider, log),
		Directory: directory,
		Log:       log,
	}
}

// NewDirectory returns the public key directory described by cfg.
func NewDirectory(cfg configs.DirectoryConfig) (secrets.PublicKeyDirectory, error) {
	switch cfg.Kind {
	case configs.DirectoryKindFile, "":
		path := cfg.Path
		if path == "" {
			path = configs.DefaultDirectoryPath()
		}
		return secrets.NewFileDirectory(path), nil
	case configs.DirectoryKindHTTP:
		if cfg.URL == "" {
			return nil, fmt.Errorf("directory kind %q requires a url", cfg.Kind)
		}
		return secrets.NewHTTPDirectory(cfg.URL, cfg.Token, nil), nil
	default:
		return nil, fmt.Errorf("unknown directory kind %q", cfg.Kind)
	}
}
