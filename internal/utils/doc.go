// Package utils provides shared helpers for hush.
//
// # System Utilities
//   - GetUsername: default identity label for the settings
//
// # File Utilities
//   - ResolveEnvelopeFiles: expands paths, directories and ** globs to envelope files
//   - FormatPaths: formats file paths for human-readable output
//
// # String Utilities
//   - IsValidEmail, NormalizeIDs
//
// # I/O and Terminal Utilities
//   - ReadStdin: reads piped message bodies
//   - ReadPassphrase, IsTerminal: hidden passphrase input for imported keys
package utils
