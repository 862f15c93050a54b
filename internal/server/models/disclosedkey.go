package models

// DisclosedKey is one published rolling key. Seq is assigned by the
// database on insert and orders the disclosure feed.
type DisclosedKey struct {
	Seq      uint64
	Value    []byte
	ReportID string
}
