// Package session serializes access to persisted run state. A Manager
// guards each session ID with a reference-counted local mutex and,
// optionally, a distributed lock, so concurrent steps against the same
// exercise cannot interleave.
package session
