// Package audit provides audit trail logging for hush operations.
//
// Key lifecycle events and message encryption and decryption are recorded in
// a per-user audit log, so a user can see when their key pair was replaced
// and which identities their messages were addressed to.
//
// # Log Format
//
// The audit log is stored as JSON Lines (one JSON object per line) at:
//
//	<config dir>/hush/audit.jsonl
//
// Each entry contains:
//   - Timestamp (RFC3339 with microseconds, UTC)
//   - User email and ID
//   - Operation name (keys-generate, keys-self-heal, keys-publish, keys-import, encrypt, decrypt)
//   - Operation-specific details (recipients, outcome, key fingerprint)
//
// Entries never contain plaintext or key material.
//
// # Usage
//
//	entry := audit.LogWithUser(audit.OpEncrypt)
//	entry.Recipients = result.Recipients
//	audit.Log(entry)
//
// # Failure Handling
//
// Audit logging is best-effort. If logging fails (permissions, disk full,
// etc.), the operation continues without error.
//
// # Reading Logs
//
// Use ReadEntries() to parse the audit log for display or analysis.
// Malformed entries are silently skipped to handle partial writes.
package audit
