// Package models defines the device-side domain types: observed contact
// event numbers, the device's own rolling keys, and symptom reports.
package models

import (
	"time"

	"github.com/dmitrijs2005/cenkeeper/internal/cen"
)

// ObservedCEN is an identifier picked up by the radio layer, with the local
// time of observation. Read-only once recorded.
type ObservedCEN struct {
	Value  []byte
	SeenAt time.Time
}

// OwnKey is one of this device's rolling keys.
type OwnKey struct {
	Secret []byte
	Issued time.Time
}

// DisclosedKey is a rolling key fetched from the server, stamped with the
// local time it was first seen. The stamp anchors the validity window used
// for matching.
type DisclosedKey struct {
	Value     []byte
	Seq       uint64
	StampedAt time.Time
}

// Key converts the disclosed key into a cen.Key whose validity interval
// covers the lookback period ending at the stamp.
func (k DisclosedKey) Key(lookback time.Duration) cen.Key {
	windows := int(lookback / cen.WindowLength)
	return cen.Key{
		Secret:  k.Value,
		Issued:  k.StampedAt.Add(-time.Duration(windows) * cen.WindowLength),
		Windows: windows,
	}
}

// SymptomReport is the user-authored outbound payload.
type SymptomReport struct {
	ID         string
	Symptoms   []string
	AuthoredAt time.Time
	Attachment []byte // optional, stored via presigned upload
}

// ReceivedReport is a report fetched for a matched disclosed key.
type ReceivedReport struct {
	KeyValue      []byte
	Report        SymptomReport
	AttachmentURL string
}
