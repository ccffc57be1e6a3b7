// Package recipient derives stable identity keys for email recipients.
// The key partitions continuity memory per (user, recipient) pair and is
// always paired with a user id for storage, so sentinel keys from
// different users never collide with each other.
package recipient

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// UnknownKey is the sentinel key used when no recipient is resolvable.
// It is distinct from any derived key (derived keys carry a prefix).
const UnknownKey = "unknown"

const (
	emailKeyPrefix = "email:"
	nameKeyPrefix  = "name:"
)

// Normalize derives the normalized display name and stable recipient key
// from a free-text recipient mention and an optional relationship hint.
//
// Keying is case- and whitespace-insensitive: "Alice", " alice " and
// "ALICE" collapse to one key. The function is pure and never fails;
// an unresolvable mention yields UnknownKey.
func Normalize(mention, relationship string) (displayName, key string) {
	displayName = collapseWhitespace(mention)
	canonical := strings.ToLower(displayName)

	if canonical == "" {
		return "", UnknownKey
	}

	if strings.Contains(canonical, "@") {
		return displayName, emailKeyPrefix + canonical
	}
	return displayName, nameKeyPrefix + digest(canonical)
}

// Key returns just the recipient key for a mention. Convenience wrapper
// used where the display form is not needed.
func Key(mention string) string {
	_, key := Normalize(mention, "")
	return key
}

func digest(canonical string) string {
	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:8])
}

// collapseWhitespace trims the string and collapses interior whitespace
// runs to single spaces.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
