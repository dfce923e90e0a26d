// File path: internal/prompt/window.go
package prompt

import (
	"github.com/fillora/fillora/internal/llm"
)

// Config controls how much history the selector admits.
type Config struct {
	// MinExchanges is the number of recent user/assistant exchanges that are
	// always retained (two messages each).
	MinExchanges int
	// TokenBudget bounds the estimated size of the selection.
	TokenBudget int
}

// DefaultConfig returns the baseline selection budget.
func DefaultConfig() Config {
	return Config{MinExchanges: 5, TokenBudget: 4000}
}

// SelectRelevantMessages chooses the portion of history to send to the
// model. The query parameter is reserved for a future relevance ranker and
// does not influence the selection yet.
//
// The result is always a contiguous suffix of history in original order:
// the selector never reorders, never duplicates, and never mutates the
// source slice. An empty history yields an empty selection.
func SelectRelevantMessages(history []llm.Message, query string, cfg Config) []llm.Message {
	_ = query
	if cfg.MinExchanges <= 0 {
		cfg.MinExchanges = DefaultConfig().MinExchanges
	}
	if cfg.TokenBudget <= 0 {
		cfg.TokenBudget = DefaultConfig().TokenBudget
	}
	if len(history) == 0 {
		return nil
	}
	tail := cfg.MinExchanges * 2
	if tail > len(history) {
		tail = len(history)
	}
	start := len(history) - tail
	total := 0
	for _, msg := range history[start:] {
		total += EstimateTokens(msg.Content)
	}
	if total > cfg.TokenBudget {
		// Even the mandatory tail overflows: degrade to pure recency.
		return selectByRecency(history, cfg.TokenBudget)
	}
	// Greedily admit older messages while the running total fits. The first
	// message that would overflow stops the walk.
	for start > 0 {
		cost := EstimateTokens(history[start-1].Content)
		if total+cost > cfg.TokenBudget {
			break
		}
		total += cost
		start--
	}
	return history[start:]
}

// selectByRecency walks backward from the newest message accumulating
// tokens and returns the contiguous suffix that fits the budget, in
// original chronological order.
func selectByRecency(history []llm.Message, budget int) []llm.Message {
	total := 0
	start := len(history)
	for start > 0 {
		cost := EstimateTokens(history[start-1].Content)
		if total+cost > budget {
			break
		}
		total += cost
		start--
	}
	return history[start:]
}
