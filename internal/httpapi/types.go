// Package httpapi defines the JSON wire types shared by the CENKeeper
// server and the device API client.
package httpapi

// RegisterRequest creates a device account. Salt and verifier are produced
// on the device; the secret itself never crosses the wire.
type RegisterRequest struct {
	Name     string `json:"name"`
	Salt     []byte `json:"salt"`
	Verifier []byte `json:"verifier"`
}

type SaltRequest struct {
	Name string `json:"name"`
}

type SaltResponse struct {
	Salt []byte `json:"salt"`
}

type LoginRequest struct {
	Name     string `json:"name"`
	Verifier []byte `json:"verifier"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// DisclosedKey is one published rolling key. Value is hex-encoded;
// Seq is the server-assigned sequence number used for checkpointing.
type DisclosedKey struct {
	Seq   uint64 `json:"seq"`
	Value string `json:"value"`
}

// KeyListResponse returns keys with Seq greater than the requested
// checkpoint, plus the new checkpoint to resume from.
type KeyListResponse struct {
	Keys       []DisclosedKey `json:"keys"`
	Checkpoint uint64         `json:"checkpoint"`
}

// SymptomReport is the user-authored payload attached to a disclosure.
type SymptomReport struct {
	ID         string   `json:"id"`
	Symptoms   []string `json:"symptoms"`
	AuthoredAt int64    `json:"authored_at"` // unix seconds
}

// SubmitReportRequest binds a symptom report to the device's recent
// rolling keys (hex-encoded, most recent first).
type SubmitReportRequest struct {
	Report         SymptomReport `json:"report"`
	Keys           []string      `json:"keys"`
	WithAttachment bool          `json:"with_attachment,omitempty"`
}

// SubmitReportResponse optionally carries a presigned PUT URL when the
// submission asked for attachment storage.
type SubmitReportResponse struct {
	AttachmentPutURL string `json:"attachment_put_url,omitempty"`
}

// ReportResponse is returned when a disclosed key is resolved to its report.
type ReportResponse struct {
	Report        SymptomReport `json:"report"`
	AttachmentURL string        `json:"attachment_url,omitempty"`
}

// ErrorResponse is the uniform error body for non-2xx responses.
type ErrorResponse struct {
	Error string `json:"error"`
}
