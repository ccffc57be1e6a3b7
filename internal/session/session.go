// Package session derives deterministic session identifiers and keeps
// the in-memory per-session checkpoint of the last terminal turn.
//
// The session id is a one-way keyed hash of (user id, shared secret salt):
// the same user always maps to the same session within a fixed salt, but
// the id cannot be reversed into the user id. Session ids scope only the
// in-memory checkpoint layer; durable continuity memory is scoped by
// recipient key, never by session.
package session

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

// ErrEmptySalt is returned when the manager is constructed without a salt.
// The salt is process-wide configuration validated at startup.
var ErrEmptySalt = errors.New("session salt must not be empty")

const idPrefix = "session_"

// Manager derives session ids with a fixed secret salt.
type Manager struct {
	salt []byte
}

// NewManager creates a session manager. It fails fast when the salt is
// absent rather than lazily defaulting it.
func NewManager(salt string) (*Manager, error) {
	if salt == "" {
		return nil, ErrEmptySalt
	}
	return &Manager{salt: []byte(salt)}, nil
}

// DeriveID returns the session identifier for a user id.
func (m *Manager) DeriveID(userID string) string {
	mac := hmac.New(sha256.New, m.salt)
	mac.Write([]byte(userID))
	return idPrefix + hex.EncodeToString(mac.Sum(nil))[:16]
}
