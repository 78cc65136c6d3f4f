// Package llm talks to chat completion models.
package llm

import (
	"context"
	"errors"
)

// ErrEmptyResponse is returned when the model answered without any content
var ErrEmptyResponse = errors.New("empty response from model")

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of a chat
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is a single chat completion call
type Request struct {
	Model       string
	Messages    []Message
	Temperature float64
	MaxTokens   int
}

// ChatModel returns the assistant's reply to a chat
type ChatModel interface {
	Chat(ctx context.Context, req Request) (string, error)
}

// WithSystem builds the common system + user message pair
func WithSystem(system, user string) []Message {
	return []Message{
		{Role: RoleSystem, Content: system},
		{Role: RoleUser, Content: user},
	}
}
