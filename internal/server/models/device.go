// Package models defines the server-side database entities.
package models

// Device is a registered device account. Salt and Verifier come from the
// device at registration; the server never sees the device secret.
type Device struct {
	ID       string
	Name     string
	Salt     []byte
	Verifier []byte
}
