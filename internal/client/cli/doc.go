// Package cli implements the interactive device console: registration,
// login, exposure checks, symptom report submission, and a debug command
// for recording observed identifiers.
package cli
