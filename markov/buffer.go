package markov

import (
	"strings"
	"sync"
	"unicode/utf8"
)

// commandPrefixes is every character the surfaces treat as a command or
// markup prefix. Messages starting with one of these are bot commands,
// not conversation, and never train the chain.
const commandPrefixes = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

// TrainingBuffer accumulates candidate training text from observed chat,
// keyed by platform message id so deleted messages can be withdrawn
// before the next update learns them.
type TrainingBuffer struct {
	mu      sync.Mutex
	entries map[string]string
	drained []string
}

// NewTrainingBuffer returns an empty buffer.
func NewTrainingBuffer() *TrainingBuffer {
	return &TrainingBuffer{
		entries: make(map[string]string),
	}
}

// Record stores a message until the next chain update. Recording the
// same id again replaces the text, which covers message edits.
func (b *TrainingBuffer) Record(messageID, text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries[messageID] = text
}

// Discard drops a recorded message, typically because it was deleted.
// Unknown ids are a no-op.
func (b *TrainingBuffer) Discard(messageID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.entries, messageID)
}

// Len returns the number of buffered messages.
func (b *TrainingBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}

// DrainForTraining returns a snapshot of the learnable buffered text and
// remembers which ids it covered. The entries stay in the buffer until
// CommitDrain confirms the update landed; an update that fails leaves
// everything in place for the next try.
func (b *TrainingBuffer) DrainForTraining() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.drained = b.drained[:0]
	texts := make([]string, 0, len(b.entries))
	for id, text := range b.entries {
		b.drained = append(b.drained, id)
		if !learnable(text) {
			continue
		}
		texts = append(texts, text)
	}
	return texts
}

// CommitDrain removes every entry the last drain covered, learnable or
// not, and returns how many were removed. Messages recorded after the
// drain are untouched and wait for the next update.
func (b *TrainingBuffer) CommitDrain() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	removed := 0
	for _, id := range b.drained {
		if _, ok := b.entries[id]; ok {
			delete(b.entries, id)
			removed++
		}
	}
	b.drained = b.drained[:0]
	return removed
}

// learnable reports whether a message should train the chain. Empty
// text, command-prefixed text, and anything carrying a mention are out;
// learning mentions would let the bot ping people on its own.
func learnable(text string) bool {
	if text == "" {
		return false
	}
	first, _ := utf8.DecodeRuneInString(text)
	if strings.ContainsRune(commandPrefixes, first) {
		return false
	}
	if strings.Contains(text, "@") {
		return false
	}
	return true
}
