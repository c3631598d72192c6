// Package classify wraps the LLM in two single-call classifiers: a command
// router for fresh user requests and an intent classifier for replies to
// approval prompts. Classifier output is an untrusted suggestion; callers
// validate before acting.
package classify

import "strings"

// matchToken returns the first candidate appearing as a whole token in the
// model output. Tokens are whitespace-delimited and stripped to letters, so
// "revise." matches but "not revising now" does not match "revise".
func matchToken(raw string, candidates []string) (string, bool) {
	for _, field := range strings.Fields(strings.ToLower(raw)) {
		token := keepLetters(field)
		if token == "" {
			continue
		}
		for _, cand := range candidates {
			if token == cand {
				return cand, true
			}
		}
	}
	return "", false
}

func keepLetters(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= 'a' && r <= 'z' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
