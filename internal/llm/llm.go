package llm

import (
	"context"
	"errors"
)

// ErrNotConfigured is returned when no API key was supplied at startup.
var ErrNotConfigured = errors.New("text generation is not configured: OPENAI_API_KEY is empty")

// Role values accepted by chat completion endpoints.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one role-tagged entry in a chat request.
type Message struct {
	Role    string
	Content string
}

// Request is a single completion call.
type Request struct {
	// Purpose labels log lines, e.g. "classify".
	Purpose     string
	Messages    []Message
	Temperature float64
	MaxTokens   int
}

// Completer is the external text-generation capability used for
// classification, query generation and answer synthesis. Implementations
// make exactly one attempt per call and honor ctx cancellation.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// System and User build messages for the common two-message prompt.
func System(content string) Message { return Message{Role: RoleSystem, Content: content} }

func User(content string) Message { return Message{Role: RoleUser, Content: content} }
