// Package chat implements the session-scoped conversation loop: turn
// history, the exchange cycle against an answering backend, and
// citation formatting.
package chat

import "context"

// Role identifies the author of a turn.
type Role string

const (
	RoleHuman Role = "human"
	RoleAI    Role = "ai"
)

// Turn is one half of an exchange. Turns are appended strictly
// human-then-ai and never mutated; the backend receives them verbatim
// on the next call.
type Turn struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// ContextItem is a piece of supporting material returned by the
// backend alongside an answer. Source is nil when the backend did not
// attach one; an explicitly empty source is kept as the empty string
// rather than treated as absent.
type ContextItem struct {
	Source *string `json:"source,omitempty"`
}

// Response is the canonical answering-backend result consumed by a
// Session. Answer is deliberately untyped: backends have been observed
// returning numbers and nested structures where a string belongs, and
// the session coerces rather than failing.
type Response struct {
	Answer  any           `json:"answer"`
	Context []ContextItem `json:"context,omitempty"`
}

// Answerer is the answering backend. Implementations must treat the
// history slice as read-only.
type Answerer interface {
	Answer(ctx context.Context, query string, history []Turn) (*Response, error)
}
