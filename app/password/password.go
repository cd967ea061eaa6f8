// Package password provides one-way hashing and verification of user
// credentials. Hashes are bcrypt with a per-call random salt, so the same
// plaintext never produces the same stored value twice.
package password

import "golang.org/x/crypto/bcrypt"

// Hash returns a salted bcrypt hash of plaintext. It fails only when the
// underlying primitive does (entropy exhaustion, oversized input).
func Hash(plaintext string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Verify reports whether plaintext matches hash. A mismatch is never an
// error, just false.
func Verify(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}
