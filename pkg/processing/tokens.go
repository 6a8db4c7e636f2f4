package processing

import "unicode/utf8"

// charsPerToken is the average English characters-per-token ratio shared by
// the supported model families.
const charsPerToken = 4.0

// EstimateTokens estimates the token count of text. Non-empty text is at
// least one token.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	n := float64(utf8.RuneCountInString(text)) / charsPerToken
	if n < 1 {
		return 1
	}
	return int(n + 0.5)
}

// EstimateExchange estimates total usage for a prompt and its answer.
func EstimateExchange(prompt, answer string) int {
	return EstimateTokens(prompt) + EstimateTokens(answer)
}
