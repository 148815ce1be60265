package interfaces

import (
	"context"
)

// Message represents a single message in a chat conversation
type Message struct {
	// Role identifies the message sender: "user", "assistant", or "system"
	Role string

	// Content contains the text content of the message
	Content string
}

// ContentRequest is a provider-agnostic content generation request
type ContentRequest struct {
	Messages          []Message
	Model             string // Optional, may carry a provider prefix such as "openai/"
	Temperature       float32
	MaxTokens         int
	SystemInstruction string
	WebSearch         bool // Ask the provider to ground the reply with web search when it supports it
}

// ContentResponse is a provider-agnostic content generation response
type ContentResponse struct {
	Text     string
	Provider string
	Model    string
}

// ContentGenerator produces free text from a language model.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, request *ContentRequest) (*ContentResponse, error)
	Close() error
}
