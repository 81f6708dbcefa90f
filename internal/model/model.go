package model

import (
	"time"

	"github.com/google/uuid"
)

// Role tags the author of a transcript message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single transcript entry. It is never modified after creation.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// NewMessage stamps a message with a fresh id and the current time.
func NewMessage(role Role, content string) Message {
	return Message{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UTC(),
	}
}

// Outcome classifies the result of one conversation turn.
type Outcome string

const (
	OutcomeSuccess           Outcome = "success"
	OutcomeTransportFailure  Outcome = "transport_failure"
	OutcomeHTTPError         Outcome = "http_error"
	OutcomeRemoteError       Outcome = "remote_error"
	OutcomeMalformedResponse Outcome = "malformed_response"
)

// TurnResult is the fully formed result of one turn. Every failure branch
// carries its own status and body; nothing is read back from an earlier call.
type TurnResult struct {
	Outcome Outcome `json:"outcome"`
	// Text is the string to display: the reply on success, the
	// user-facing error message otherwise.
	Text string `json:"text"`
	// Status is the HTTP status code, zero when no response was received.
	Status int `json:"status,omitempty"`
	// RawBody is the unparsed response body, if one was read.
	RawBody string `json:"-"`
	// Err wraps one of the turn sentinels; nil on success.
	Err error `json:"-"`
}

// AppendsReply reports whether Text belongs in the transcript as an
// assistant message rather than in an error banner.
func (r TurnResult) AppendsReply() bool {
	return r.Outcome == OutcomeSuccess || r.Outcome == OutcomeRemoteError
}

// DebugEntry is a troubleshooting record for one turn. Secrets in Headers
// are redacted before the entry is built.
type DebugEntry struct {
	ID        string            `json:"id"`
	SessionID string            `json:"session_id"`
	Endpoint  string            `json:"endpoint"`
	Headers   map[string]string `json:"headers"`
	Payload   string            `json:"payload"`
	Status    int               `json:"status,omitempty"`
	Body      string            `json:"body,omitempty"`
	Outcome   Outcome           `json:"outcome"`
	Error     string            `json:"error,omitempty"`
	Latency   time.Duration     `json:"latency"`
	CreatedAt time.Time         `json:"created_at"`
}
