// Package logger provides leveled logging for hush commands and libraries.
//
// # Verbosity Levels
//
// Logging behavior is controlled by two flags:
//
//   - --verbose: Shows info messages
//   - --debug: Shows all messages including debug details
//
// Warnings and errors are always shown, on stderr.
//
// # Log Methods
//
//	Logger.Infof()          // Shown with --verbose or --debug
//	Logger.Debugf()         // Shown only with --debug
//	Logger.Warnf()          // Always shown
//	Logger.Errorf()         // Always shown
//	Logger.ErrorfAndReturn() // Errorf, then returns the message as an error
//
// # Usage
//
//	log := Logger{Verbose: verbose, Debug: debug}
//	log.Infof("Wrapping content key for %d recipients", count)
//
// The zero value is usable. Library types such as the envelope codec take a
// Logger by value so tests can point Out and Err at a buffer.
package logger
