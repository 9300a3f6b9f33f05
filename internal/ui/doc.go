// Package ui provides semantic text formatting for CLI output.
//
// Formatters colorize content when the terminal supports it. When NO_COLOR
// is set or colors are unavailable, text decorations are used instead:
//
//	ui.Code.Sprint("hush keys ensure")        // `hush keys ensure`
//	ui.Identity.Sprint("alice")               // 'alice'
//	ui.Fingerprint.Sprint("3f9a…")            // [3f9a…]
//	ui.Muted.Sprint("legacy")                 // (legacy)
//	ui.Success.Sprint("✓"), ui.Error.Sprint("✗"), ui.Path.Sprint(p)
package ui
