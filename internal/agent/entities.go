// File path: internal/agent/entities.go
package agent

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langgraphgo/graph"

	"github.com/fillora/fillora/internal/common"
	"github.com/fillora/fillora/internal/llm"
	"github.com/fillora/fillora/internal/store"
)

// Extractor mines {entity_type, entity_name, attributes} records from an
// uploaded template so the compilation prompt can carry them as context.
// The records are opaque to the engine; only the attribute values are
// normalized to the closed scalar union at this boundary.
type Extractor struct {
	provider llm.Provider
}

func NewExtractor(provider llm.Provider) *Extractor {
	return &Extractor{provider: provider}
}

const extractionPrompt = "Identify the entities referenced by the following document template: " +
	"people, organizations, places, dates, monetary amounts. Respond with one entity per line in " +
	"the exact form: type|name|key=value;key=value. Use no other text.\n\nTemplate:\n"

// Extract runs the extraction graph over the template text. The graph has
// a single generation node delegating to the configured provider, so the
// flow can grow validation or enrichment nodes without touching callers.
func (e *Extractor) Extract(ctx context.Context, template string) ([]store.Entity, error) {
	if e == nil || e.provider == nil {
		return nil, fmt.Errorf("no extraction provider available")
	}
	if strings.TrimSpace(template) == "" {
		return nil, nil
	}
	g := graph.NewMessageGraph()
	g.AddNode("extract", func(ctx context.Context, state []llms.MessageContent) ([]llms.MessageContent, error) {
		messages := make([]llm.Message, 0, len(state))
		for _, msg := range state {
			messages = append(messages, llm.Message{
				Role:    roleFor(msg.Role),
				Content: textOf(msg),
			})
		}
		answer, err := e.provider.Chat(ctx, messages)
		if err != nil {
			return nil, err
		}
		return append(state, llms.TextParts(llms.ChatMessageTypeAI, answer)), nil
	})
	g.AddEdge("extract", graph.END)
	g.SetEntryPoint("extract")
	runnable, err := g.Compile()
	if err != nil {
		return nil, fmt.Errorf("compile extraction graph: %w", err)
	}
	state, err := runnable.Invoke(ctx, []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, extractionPrompt+template),
	})
	if err != nil {
		return nil, fmt.Errorf("run extraction graph: %w", err)
	}
	if len(state) == 0 {
		return nil, nil
	}
	entities := ParseEntities(textOf(state[len(state)-1]))
	common.Logger().Debug("agent: entities extracted", "count", len(entities))
	return entities, nil
}

// ParseEntities decodes "type|name|key=value;key=value" lines. Malformed
// lines are dropped; attribute values are normalized to string, number, or
// boolean scalars.
func ParseEntities(text string) []store.Entity {
	var entities []store.Entity
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, "|", 3)
		if len(parts) < 2 {
			continue
		}
		entity := store.Entity{
			EntityType: strings.ToLower(strings.TrimSpace(parts[0])),
			EntityName: strings.TrimSpace(parts[1]),
		}
		if entity.EntityType == "" || entity.EntityName == "" {
			continue
		}
		if len(parts) == 3 {
			entity.Attributes = parseAttributes(parts[2])
		}
		entities = append(entities, entity)
	}
	return entities
}

func parseAttributes(raw string) map[string]interface{} {
	attrs := make(map[string]interface{})
	for _, pair := range strings.Split(raw, ";") {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if !ok || key == "" {
			continue
		}
		attrs[key] = normalizeScalar(value)
	}
	if len(attrs) == 0 {
		return nil
	}
	return attrs
}

// normalizeScalar reduces a textual attribute to the closed scalar union
// {string, float64, bool}. Nested structures cannot be expressed in the
// line format, so rejection happens by construction.
func normalizeScalar(value string) interface{} {
	if b, err := strconv.ParseBool(value); err == nil {
		return b
	}
	if f, err := strconv.ParseFloat(value, 64); err == nil {
		return f
	}
	return value
}

// FormatEntities renders the registry as the opaque context block injected
// into the compilation prompt.
func FormatEntities(entities []store.Entity) string {
	if len(entities) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Known entities:\n")
	for _, entity := range entities {
		b.WriteString("- ")
		b.WriteString(entity.EntityType)
		b.WriteString(": ")
		b.WriteString(entity.EntityName)
		if len(entity.Attributes) > 0 {
			b.WriteString(" (")
			first := true
			for _, key := range sortedKeys(entity.Attributes) {
				if !first {
					b.WriteString(", ")
				}
				first = false
				fmt.Fprintf(&b, "%s=%v", key, entity.Attributes[key])
			}
			b.WriteString(")")
		}
		b.WriteString("\n")
	}
	return b.String()
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func roleFor(role llms.ChatMessageType) string {
	switch role {
	case llms.ChatMessageTypeAI:
		return "assistant"
	case llms.ChatMessageTypeSystem:
		return "system"
	default:
		return "user"
	}
}

func textOf(msg llms.MessageContent) string {
	var b strings.Builder
	for _, part := range msg.Parts {
		if text, ok := part.(llms.TextContent); ok {
			b.WriteString(text.Text)
		}
	}
	return b.String()
}
