// File path: internal/llm/providers/local.go
package providers

import (
	"context"
	"fmt"
	"strings"
)

// LocalProvider is the offline fallback used when no API key is configured.
// It echoes the last user message so the pipeline stays exercisable.
type LocalProvider struct{}

func NewLocalProvider() *LocalProvider {
	return &LocalProvider{}
}

func (l *LocalProvider) Chat(ctx context.Context, messages []Message) (string, error) {
	if len(messages) == 0 {
		return "", fmt.Errorf("no messages provided")
	}
	last := messages[len(messages)-1].Content
	return "[local-stub] " + strings.TrimSpace(last), nil
}

func (l *LocalProvider) ChatStream(ctx context.Context, messages []Message, fn StreamFunc) error {
	text, err := l.Chat(ctx, messages)
	if err != nil {
		return err
	}
	// Emit in small pieces so stream consumers see more than one chunk.
	const piece = 16
	for len(text) > 0 {
		n := piece
		if n > len(text) {
			n = len(text)
		}
		if err := fn(text[:n]); err != nil {
			return err
		}
		text = text[n:]
	}
	return nil
}

func (l *LocalProvider) Embed(ctx context.Context, input []string) ([][]float32, error) {
	vectors := make([][]float32, len(input))
	for i := range input {
		vectors[i] = []float32{0, 0, 0}
	}
	return vectors, nil
}

func (l *LocalProvider) Name() string {
	return "local"
}
