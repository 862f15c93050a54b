// Package cryptox implements the credential derivation used for device
// authentication. The device never sends its secret to the server: it derives
// an Argon2id key from the secret and a per-device salt, and the server stores
// only a SHA-256 verifier of that key.
package cryptox

import (
	"crypto/sha256"

	"golang.org/x/crypto/argon2"
)

// MakeVerifier returns the value the server stores (and later compares)
// for the given derived authentication key.
func MakeVerifier(authKey []byte) []byte {
	hash := sha256.Sum256(authKey)
	return hash[:]
}

// DeriveAuthKey stretches the device secret with Argon2id.
//
// Parameters follow the Argon2id recommendation for interactive logins:
// 1 pass, 64 MiB memory, 4 lanes, 32-byte output.
func DeriveAuthKey(secret []byte, salt []byte) []byte {
	return argon2.IDKey(secret, salt, 1, 64*1024, 4, 32)
}
