package audit

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/PolarWolf314/hush/internal/configs"
)

// Operation names recorded in the audit log.
const (
	OpKeysGenerate = "keys-generate"
	OpKeysSelfHeal = "keys-self-heal"
	OpKeysPublish  = "keys-publish"
	OpKeysImport   = "keys-import"
	OpEncrypt      = "encrypt"
	OpDecrypt      = "decrypt"
)

// Entry represents a single audit log entry. Entries never carry message
// content or key material.
type Entry struct {
	Timestamp string `json:"ts"`      // RFC3339 with microseconds.
	User      string `json:"user"`    // Email of user performing action.
	UserID    string `json:"user_id"` // ID of user performing action.
	Operation string `json:"op"`      // Operation name.

	// Optional fields depending on operation.
	Recipients  []string `json:"recipients,omitempty"`  // For encrypt.
	Omitted     []string `json:"omitted,omitempty"`     // For encrypt.
	Count       int      `json:"count,omitempty"`       // For decrypt.
	Outcome     string   `json:"outcome,omitempty"`     // For keys and decrypt.
	Fingerprint string   `json:"fingerprint,omitempty"` // For keys operations.
	Files       []string `json:"files,omitempty"`       // For decrypt.
}

var mu sync.Mutex

// Log appends an entry to the audit log.
// If logging fails, the entry is dropped without returning an error.
// Operations should not fail just because audit logging failed.
func Log(entry Entry) {
	if entry.Timestamp == "" {
		entry.Timestamp = time.Now().UTC().Format("2006-01-02T15:04:05.000000Z")
	}

	logPath := LogPath()
	if logPath == "" {
		return
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return
	}

	mu.Lock()
	defer mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(logPath), 0700); err != nil {
		return
	}

	f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return
	}
	defer f.Close()

	_, _ = f.Write(append(data, '\n'))
}

// LogWithUser is a convenience function that populates user fields from config.
func LogWithUser(op string) Entry {
	entry := Entry{Operation: op}

	userConfig, err := configs.LoadUserConfig()
	if err != nil {
		return entry
	}

	entry.User = userConfig.User.Email
	entry.UserID = userConfig.User.ID

	return entry
}

// LogPath returns the path to the audit log file.
// Returns empty string if no config directory is known.
func LogPath() string {
	if configs.UserHushSettings == nil || configs.UserHushSettings.UserConfigsPath == "" {
		return ""
	}
	return filepath.Join(configs.UserHushSettings.UserConfigsPath, "audit.jsonl")
}

// ReadEntries reads all entries from the audit log.
// Returns an empty slice if the log doesn't exist.
func ReadEntries() ([]Entry, error) {
	logPath := LogPath()
	if logPath == "" {
		return nil, nil
	}

	data, err := os.ReadFile(logPath)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return ParseEntries(data)
}

// ParseEntries parses JSON Lines data into audit entries.
// Malformed lines are silently skipped.
func ParseEntries(data []byte) ([]Entry, error) {
	if len(data) == 0 {
		return nil, nil
	}

	var entries []Entry
	start := 0

	for i := 0; i <= len(data); i++ {
		if i == len(data) || data[i] == '\n' {
			line := data[start:i]
			start = i + 1

			if len(line) == 0 {
				continue
			}

			var entry Entry
			if err := json.Unmarshal(line, &entry); err != nil {
				// Skip malformed entries.
				continue
			}
			entries = append(entries, entry)
		}
	}

	return entries, nil
}

// Filter returns the entries whose operation is one of ops. With no ops every
// entry is returned.
func Filter(entries []Entry, ops ...string) []Entry {
	if len(ops) == 0 {
		return entries
	}

	wanted := make(map[string]bool, len(ops))
	for _, op := range ops {
		wanted[op] = true
	}

	var filtered []Entry
	for _, entry := range entries {
		if wanted[entry.Operation] {
			filtered = append(filtered, entry)
		}
	}
	return filtered
}
