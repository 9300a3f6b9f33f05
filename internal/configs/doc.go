// Package configs manages the local user configuration for hush.
//
// Configuration is stored in TOML at os.UserConfigDir()/hush/config.toml:
//
//	[user]
//	user_id = "3c1f…"          # generated on first use
//	email = "alice@example.com"
//
//	[directory]
//	kind = "file"              # or "http"
//	path = "~/.local/share/hush/directory.toml"
//	url = "https://app.example.com/api"
//	token = "…"
//
//	[crypto]
//	rsa_bits = 2048
//
// # Settings
//
// UserHushSettings is initialised at startup from the XDG data and config
// directories. Private keys live under UserKeysPath, one file per user id.
// Tests override UserHushSettings with temporary directories.
package configs
