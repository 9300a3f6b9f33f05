package workflows

import (
	"context"
	"fmt"

	"github.com/PolarWolf314/hush/internal/configs"
	"github.com/PolarWolf314/hush/internal/utils"
)

// InitConfigOptions configures the config init workflow. Empty fields keep
// their current value.
type InitConfigOptions struct {
	Email string

	// DirectoryPath selects a file-backed public key directory.
	DirectoryPath string

	// DirectoryURL selects an HTTP public key directory.
	DirectoryURL string

	// DirectoryToken is the bearer token for an HTTP directory.
	DirectoryToken string

	// RSABits sets the size of newly generated keys.
	RSABits int
}

// InitConfigResult contains the outcome of a config init operation.
type InitConfigResult struct {
	Config *configs.UserConfig

	// Path is where the config was written.
	Path string
}

// InitConfig creates or updates the local user config, generating an identity
// if the user has none.
func InitConfig(ctx context.Context, opts InitConfigOptions) (*InitConfigResult, error) {
	if opts.DirectoryPath != "" && opts.DirectoryURL != "" {
		return nil, fmt.Errorf("choose either a directory path or a directory url, not both")
	}
	if opts.Email != "" && !utils.IsValidEmail(opts.Email) {
		return nil, fmt.Errorf("invalid email address %q", opts.Email)
	}

	config, err := configs.EnsureUserConfig()
	if err != nil {
		return nil, err
	}

	if opts.Email != "" {
		config.User.Email = opts.Email
	}
	switch {
	case opts.DirectoryPath != "":
		config.Directory = configs.DirectoryConfig{Kind: configs.DirectoryKindFile, Path: opts.DirectoryPath}
	case opts.DirectoryURL != "":
		config.Directory = configs.DirectoryConfig{Kind: configs.DirectoryKindHTTP, URL: opts.DirectoryURL, Token: opts.DirectoryToken}
	case opts.DirectoryToken != "":
		config.Directory.Token = opts.DirectoryToken
	}
	if opts.RSABits != 0 {
		config.Crypto.RSABits = opts.RSABits
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	if err := configs.SaveUserConfig(config); err != nil {
		return nil, err
	}

	return &InitConfigResult{Config: config, Path: configs.ConfigFilePath()}, nil
}

// ShowConfig returns the local user config without modifying it.
func ShowConfig(ctx context.Context) (*InitConfigResult, error) {
	config, err := configs.LoadUserConfig()
	if err != nil {
		return nil, err
	}
	return &InitConfigResult{Config: config, Path: configs.ConfigFilePath()}, nil
}
