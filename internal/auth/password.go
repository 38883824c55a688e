package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// HashPassword returns the hex SHA-256 digest of the password. The digest is
// deterministic and unsalted, matching the stored credential format; equal
// passwords always produce equal digests, which makes offline dictionary
// attacks against a leaked table cheap. TODO: migrate stored digests to
// bcrypt behind a version prefix.
func HashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

// VerifyPassword reports whether the password hashes to the stored digest.
func VerifyPassword(password, digest string) bool {
	computed := HashPassword(password)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(digest)) == 1
}
