// File path: internal/prompt/window_test.go
package prompt

import (
	"strings"
	"testing"

	"github.com/fillora/fillora/internal/llm"
)

func TestEstimateTokens(t *testing.T) {
	if got := EstimateTokens(""); got != 0 {
		t.Fatalf("empty text: expected 0, got %d", got)
	}
	if got := EstimateTokens("abcd"); got != 1 {
		t.Fatalf("four bytes: expected 1, got %d", got)
	}
	if got := EstimateTokens("abcde"); got != 2 {
		t.Fatalf("five bytes: expected ceil(5/4)=2, got %d", got)
	}
}

func TestSelectRelevantMessagesEmptyHistory(t *testing.T) {
	if got := SelectRelevantMessages(nil, "query", DefaultConfig()); len(got) != 0 {
		t.Fatalf("expected empty selection, got %d messages", len(got))
	}
}

func TestSelectRelevantMessagesKeepsMandatoryTailAndPrependsOlder(t *testing.T) {
	history := make([]llm.Message, 12)
	for i := range history {
		history[i] = llm.Message{Role: "user", Content: strings.Repeat("x", 40)} // 10 tokens each
	}
	cfg := Config{MinExchanges: 5, TokenBudget: 4000}
	got := SelectRelevantMessages(history, "", cfg)
	if len(got) != 12 {
		t.Fatalf("budget fits everything: expected 12 messages, got %d", len(got))
	}
	assertContiguousSuffix(t, history, got)
}

func TestSelectRelevantMessagesStopsAtFirstOverflow(t *testing.T) {
	// Tail of 10 small messages plus older messages too large to all fit.
	history := []llm.Message{
		{Role: "user", Content: strings.Repeat("a", 4000)}, // 1000 tokens, overflows
		{Role: "assistant", Content: strings.Repeat("b", 40)},
	}
	for i := 0; i < 10; i++ {
		history = append(history, llm.Message{Role: "user", Content: strings.Repeat("c", 40)})
	}
	cfg := Config{MinExchanges: 5, TokenBudget: 200}
	got := SelectRelevantMessages(history, "", cfg)
	// 10-message tail costs 100 tokens; one older message (10 tokens) fits,
	// the 1000-token message does not and stops the walk.
	if len(got) != 11 {
		t.Fatalf("expected 11 messages, got %d", len(got))
	}
	assertContiguousSuffix(t, history, got)
}

func TestSelectRelevantMessagesDegradesToRecencyWhenTailOverflows(t *testing.T) {
	history := []llm.Message{
		{Role: "user", Content: strings.Repeat("a", 400)},      // 100 tokens
		{Role: "assistant", Content: strings.Repeat("b", 400)}, // 100 tokens
		{Role: "user", Content: strings.Repeat("c", 120)},      // 30 tokens
		{Role: "assistant", Content: strings.Repeat("d", 120)}, // 30 tokens
	}
	cfg := Config{MinExchanges: 5, TokenBudget: 100}
	got := SelectRelevantMessages(history, "", cfg)
	// The mandatory tail is the whole history (260 tokens) and overflows, so
	// the selector keeps only the newest suffix that fits: the last two.
	if len(got) != 2 {
		t.Fatalf("expected 2 messages from recency fallback, got %d", len(got))
	}
	if got[0].Content != history[2].Content || got[1].Content != history[3].Content {
		t.Fatalf("fallback selected wrong messages")
	}
	assertContiguousSuffix(t, history, got)
}

func TestSelectRelevantMessagesNeverMutatesSource(t *testing.T) {
	history := []llm.Message{
		{Role: "user", Content: "one"},
		{Role: "assistant", Content: "two"},
	}
	snapshot := append([]llm.Message(nil), history...)
	_ = SelectRelevantMessages(history, "q", Config{MinExchanges: 1, TokenBudget: 1})
	for i := range history {
		if history[i] != snapshot[i] {
			t.Fatalf("source history mutated at index %d", i)
		}
	}
}

// assertContiguousSuffix verifies the selection is the input's tail in
// original order with no holes.
func assertContiguousSuffix(t *testing.T, history, got []llm.Message) {
	t.Helper()
	if len(got) > len(history) {
		t.Fatalf("selection longer than input: %d > %d", len(got), len(history))
	}
	offset := len(history) - len(got)
	for i := range got {
		if got[i] != history[offset+i] {
			t.Fatalf("selection diverges from input suffix at index %d", i)
		}
	}
}
