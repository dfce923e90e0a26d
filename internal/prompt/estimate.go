// File path: internal/prompt/estimate.go
package prompt

// bytesPerToken is the rough size model shared by every budget in this
// package: tokens ~ ceil(bytes/4). Downstream budgets tolerate large error,
// so exactness is explicitly not a goal.
const bytesPerToken = 4

// EstimateTokens converts text to the integer cost unit used by the context
// window selector. Deterministic and pure.
func EstimateTokens(text string) int {
	n := len(text)
	if n == 0 {
		return 0
	}
	return (n + bytesPerToken - 1) / bytesPerToken
}
