package models

import "time"

// Report is a submitted symptom report. StorageKey names the attachment
// object in the S3-compatible backend; empty when there is no attachment.
type Report struct {
	ID         string
	DeviceID   string
	Symptoms   []string
	AuthoredAt time.Time
	StorageKey string
}
