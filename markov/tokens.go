package markov

import (
	"strings"
	"unicode"
)

// Marker tokens padding every trained sentence. They never appear in
// generated output.
const (
	startToken = "___BEGIN__"
	endToken   = "___END__"
)

// stateSeparator joins context tokens into a transition table key.
// Tokens come from whitespace splitting, so a single space is unambiguous.
const stateSeparator = " "

// SplitSentences breaks raw message text into sentences. A newline always
// ends a sentence. Terminal punctuation (. ! ?) ends one when followed by
// whitespace or the end of the line, and stays attached to its word, so
// "v1.2 shipped!" is one sentence and "Done! Next question?" is two.
func SplitSentences(text string) []string {
	var sentences []string
	for _, line := range strings.Split(text, "\n") {
		runes := []rune(line)
		start := 0
		for i := 0; i < len(runes); i++ {
			if !isTerminal(runes[i]) {
				continue
			}
			for i+1 < len(runes) && isTerminal(runes[i+1]) {
				i++
			}
			if i+1 < len(runes) && !unicode.IsSpace(runes[i+1]) {
				// mid-word punctuation, e.g. "3.14" or "v1.2"
				continue
			}
			if s := strings.TrimSpace(string(runes[start : i+1])); s != "" {
				sentences = append(sentences, s)
			}
			start = i + 1
		}
		if s := strings.TrimSpace(string(runes[start:])); s != "" {
			sentences = append(sentences, s)
		}
	}
	return sentences
}

func isTerminal(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

// Tokenize splits a sentence into word tokens on whitespace. Punctuation
// stays attached to its word; the chain treats "go!" and "go" as
// different tokens on purpose, since that is how people type them.
func Tokenize(sentence string) []string {
	return strings.Fields(sentence)
}

func stateKey(tokens []string) string {
	return strings.Join(tokens, stateSeparator)
}

func stateTokens(key string) []string {
	return strings.Split(key, stateSeparator)
}

func startState(order int) []string {
	state := make([]string, order)
	for i := range state {
		state[i] = startToken
	}
	return state
}
