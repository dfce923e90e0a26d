// File path: internal/agent/entities_test.go
package agent

import (
	"context"
	"strings"
	"testing"

	"github.com/fillora/fillora/internal/llm"
	"github.com/fillora/fillora/internal/store"
)

type fixedProvider struct {
	answer   string
	lastSeen []llm.Message
}

func (p *fixedProvider) Chat(ctx context.Context, messages []llm.Message) (string, error) {
	p.lastSeen = messages
	return p.answer, nil
}

func (p *fixedProvider) ChatStream(ctx context.Context, messages []llm.Message, fn llm.StreamFunc) error {
	answer, err := p.Chat(ctx, messages)
	if err != nil {
		return err
	}
	return fn(answer)
}

func (p *fixedProvider) Embed(ctx context.Context, input []string) ([][]float32, error) {
	return nil, nil
}

func (p *fixedProvider) Name() string { return "fixed" }

func TestExtractRunsGraphAndParsesAnswer(t *testing.T) {
	provider := &fixedProvider{answer: "person|Mario Rossi|age=42\norganization|ACME"}
	extractor := NewExtractor(provider)
	entities, err := extractor.Extract(context.Background(), "Contratto tra Mario Rossi e ACME")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(entities) != 2 {
		t.Fatalf("expected 2 entities, got %d", len(entities))
	}
	if entities[0].EntityType != "person" || entities[0].EntityName != "Mario Rossi" {
		t.Fatalf("unexpected first entity: %+v", entities[0])
	}
	if entities[0].Attributes["age"] != float64(42) {
		t.Fatalf("attribute not normalized to number: %+v", entities[0].Attributes)
	}
	if len(provider.lastSeen) == 0 || !strings.Contains(provider.lastSeen[0].Content, "Contratto") {
		t.Fatalf("template not forwarded to provider: %+v", provider.lastSeen)
	}
}

func TestExtractEmptyTemplateSkipsProvider(t *testing.T) {
	extractor := NewExtractor(&fixedProvider{answer: "person|ghost"})
	entities, err := extractor.Extract(context.Background(), "   \n")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if entities != nil {
		t.Fatalf("blank template must yield no entities, got %+v", entities)
	}
}

func TestParseEntities(t *testing.T) {
	entities := ParseEntities(strings.Join([]string{
		"Person|Mario Rossi|age=42;active=true;city=Roma",
		"organization|ACME",
		"",
		"garbage line without pipes",
		"|missing type",
		"date|2026-01-15",
	}, "\n"))
	if len(entities) != 3 {
		t.Fatalf("expected 3 entities, got %d: %+v", len(entities), entities)
	}
	first := entities[0]
	if first.EntityType != "person" {
		t.Fatalf("type not lowercased: %q", first.EntityType)
	}
	if first.Attributes["age"] != float64(42) {
		t.Fatalf("numeric attribute not normalized: %v", first.Attributes["age"])
	}
	if first.Attributes["active"] != true {
		t.Fatalf("boolean attribute not normalized: %v", first.Attributes["active"])
	}
	if first.Attributes["city"] != "Roma" {
		t.Fatalf("string attribute mangled: %v", first.Attributes["city"])
	}
	if entities[1].Attributes != nil {
		t.Fatalf("attribute-free entity must carry nil attributes: %+v", entities[1])
	}
}

func TestFormatEntities(t *testing.T) {
	text := FormatEntities([]store.Entity{
		{EntityType: "person", EntityName: "Mario Rossi", Attributes: map[string]interface{}{
			"b": "second", "a": "first",
		}},
		{EntityType: "organization", EntityName: "ACME"},
	})
	if !strings.HasPrefix(text, "Known entities:\n") {
		t.Fatalf("missing heading: %q", text)
	}
	if !strings.Contains(text, "- person: Mario Rossi (a=first, b=second)") {
		t.Fatalf("attributes not rendered in key order: %q", text)
	}
	if !strings.Contains(text, "- organization: ACME\n") {
		t.Fatalf("plain entity not rendered: %q", text)
	}
	if FormatEntities(nil) != "" {
		t.Fatalf("empty registry must render as empty string")
	}
}
