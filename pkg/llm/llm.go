// Package llm defines the text-generation boundary used by the
// orchestrator. Callers build a dialog and receive a string; the model
// and provider behind the call are never inspected.
package llm

import "context"

// Message is a single turn in a dialog.
type Message struct {
	Role    string `json:"role"` // "system", "user" or "assistant"
	Content string `json:"content"`
}

// Dialog is an ordered conversation sent to the generator.
type Dialog []Message

// System builds a system-role message.
func System(content string) Message {
	return Message{Role: "system", Content: content}
}

// User builds a user-role message.
func User(content string) Message {
	return Message{Role: "user", Content: content}
}

// Assistant builds an assistant-role message.
func Assistant(content string) Message {
	return Message{Role: "assistant", Content: content}
}

// Generator performs one request/response text generation round-trip.
// Implementations own their own timeout and retry behavior; callers treat
// a returned error as a recoverable collaborator fault.
type Generator interface {
	GenerateText(ctx context.Context, dialog Dialog) (string, error)
}
