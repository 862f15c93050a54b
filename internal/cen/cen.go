// Package cen implements the contact event number (CEN) scheme: deriving
// anonymous broadcast identifiers from a rolling secret key, and matching
// locally observed identifiers against disclosed keys.
//
// Derivation is one-way: an identifier never reveals its source key, so
// matching always re-derives candidates from the disclosed key instead of
// trying to reverse observations.
package cen

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"io"
	"time"

	"golang.org/x/crypto/hkdf"
)

const (
	// SecretLength is the rolling key secret size in bytes.
	SecretLength = 32

	// IdentifierLength is the derived identifier size in bytes.
	IdentifierLength = 16

	// WindowLength is the duration of one derivation window. Every window
	// inside a key's validity period yields exactly one identifier.
	WindowLength = 15 * time.Minute
)

// Identifier is a derived, non-reversible broadcast token. Equality is
// byte-exact.
type Identifier []byte

// Key is a rolling secret with its validity metadata. Immutable once issued.
type Key struct {
	Secret  []byte
	Issued  time.Time
	Windows int
}

// ValidFrom returns the start of the key's validity interval.
func (k Key) ValidFrom() time.Time { return k.Issued }

// ValidUntil returns the end of the key's validity interval (exclusive).
func (k Key) ValidUntil() time.Time {
	return k.Issued.Add(time.Duration(k.Windows) * WindowLength)
}

// WindowIndex returns the global derivation window index containing t.
func WindowIndex(t time.Time) uint64 {
	return uint64(t.Unix()) / uint64(WindowLength/time.Second)
}

// Derive computes the identifier for the given global window index.
// It is pure and deterministic. A secret of the wrong length is a caller
// bug and panics.
func Derive(k Key, windowIndex uint64) Identifier {
	if len(k.Secret) != SecretLength {
		panic(fmt.Sprintf("cen: secret must be %d bytes, got %d", SecretLength, len(k.Secret)))
	}

	info := make([]byte, 3+8)
	copy(info, "cen")
	binary.BigEndian.PutUint64(info[3:], windowIndex)

	id := make(Identifier, IdentifierLength)
	r := hkdf.New(sha256.New, k.Secret, nil, info)
	if _, err := io.ReadFull(r, id); err != nil {
		// HKDF-SHA256 cannot fail for a 16-byte read.
		panic(err)
	}
	return id
}

// DeriveAll returns the identifiers for every window the key is valid for,
// in window order. A key with zero valid windows yields an empty slice.
func DeriveAll(k Key) []Identifier {
	if k.Windows <= 0 {
		return nil
	}

	first := WindowIndex(k.Issued)
	ids := make([]Identifier, 0, k.Windows)
	for i := 0; i < k.Windows; i++ {
		ids = append(ids, Derive(k, first+uint64(i)))
	}
	return ids
}
