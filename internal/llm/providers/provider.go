// File path: internal/llm/providers/provider.go
package providers

import (
	"context"
	"errors"
)

// Message is one turn of a conversation sent to a provider.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// StreamFunc receives each text delta as it arrives. Returning an error
// stops the stream and surfaces the error to the caller.
type StreamFunc func(delta string) error

// ErrRateLimited marks upstream throttling. The compilation engine never
// retries it automatically; it is surfaced verbatim to the caller.
var ErrRateLimited = errors.New("provider rate limited")

// Provider is the contract every text generator backend satisfies.
type Provider interface {
	Chat(ctx context.Context, messages []Message) (string, error)
	ChatStream(ctx context.Context, messages []Message, fn StreamFunc) error
	Embed(ctx context.Context, input []string) ([][]float32, error)
	Name() string
}
