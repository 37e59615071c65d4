// Package markov implements the text model behind the bot's generated
// sentences: a word-level markov chain trained on chat, plus the
// buffering, updating, persistence, and pregeneration built around it.
package markov

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"strings"
)

// DefaultOrder is the context length used when nothing else is
// configured. Two words of context keeps chat-sized corpora coherent
// without turning the bot into a parrot.
const DefaultOrder = 2

// Chain is a word-level markov chain. The transition table maps a
// context of the last order tokens to the tokens observed to follow it,
// with occurrence counts. A Chain is immutable once built; learning new
// text produces a new Chain through Build and Merge.
type Chain struct {
	order       int
	transitions map[string]map[string]int

	// Derived lookups rebuilt by reindex after every build, merge, and
	// load. Never persisted.
	totals        map[string]int
	reverse       map[string]map[string]int
	reverseTotals map[string]int
	byWord        map[string][]string
}

// chainArtifact is the persisted form of a Chain. Only the order and the
// forward transition table go to disk; everything else is derivable.
type chainArtifact struct {
	Order       int                       `json:"order"`
	Transitions map[string]map[string]int `json:"transitions"`
}

// NewChain returns an empty chain of the given order. Build is the
// normal constructor; an empty chain is only good as a merge target.
func NewChain(order int) *Chain {
	if order < 1 {
		order = DefaultOrder
	}
	chain := &Chain{
		order:       order,
		transitions: make(map[string]map[string]int),
	}
	chain.reindex()
	return chain
}

// Build trains a new chain on a batch of raw texts. Each text is split
// into sentences, padded with marker tokens, and folded into the
// transition table. Texts with no usable sentences are skipped; a batch
// with nothing usable at all returns a TrainingError.
func Build(texts []string, order int) (*Chain, error) {
	if order < 1 {
		order = DefaultOrder
	}
	chain := &Chain{
		order:       order,
		transitions: make(map[string]map[string]int),
	}
	sentences := 0
	for _, text := range texts {
		for _, sentence := range SplitSentences(text) {
			if chain.addSentence(sentence) {
				sentences++
			}
		}
	}
	if sentences == 0 {
		return nil, &TrainingError{Err: errors.New("no usable sentences in batch")}
	}
	chain.reindex()
	return chain, nil
}

// Merge combines chains by summing their transition counts. Merging is
// commutative and associative, and the inputs are left untouched, so an
// interim chain trained on fresh chat can be folded into the live one
// without disturbing either. Chains of different orders cannot merge.
func Merge(chains ...*Chain) (*Chain, error) {
	if len(chains) == 0 {
		return nil, &TrainingError{Err: errors.New("no chains to merge")}
	}
	merged := &Chain{
		order:       chains[0].order,
		transitions: make(map[string]map[string]int),
	}
	for _, chain := range chains {
		if chain.order != merged.order {
			return nil, fmt.Errorf("merging order %d into order %d: %w", chain.order, merged.order, ErrIncompatibleModel)
		}
		for key, row := range chain.transitions {
			dst, ok := merged.transitions[key]
			if !ok {
				dst = make(map[string]int, len(row))
				merged.transitions[key] = dst
			}
			for token, count := range row {
				dst[token] += count
			}
		}
	}
	merged.reindex()
	return merged, nil
}

func (c *Chain) addSentence(sentence string) bool {
	tokens := Tokenize(sentence)
	if len(tokens) == 0 {
		return false
	}
	padded := make([]string, 0, len(tokens)+c.order+1)
	for i := 0; i < c.order; i++ {
		padded = append(padded, startToken)
	}
	padded = append(padded, tokens...)
	padded = append(padded, endToken)

	for i := 0; i+c.order < len(padded); i++ {
		key := stateKey(padded[i : i+c.order])
		next := padded[i+c.order]
		row, ok := c.transitions[key]
		if !ok {
			row = make(map[string]int)
			c.transitions[key] = row
		}
		row[next]++
	}
	return true
}

// reindex rebuilds the derived lookups: per-state totals for weighted
// sampling, the reverse table for walking backwards out of a seed state,
// and the word index for finding states that contain a seed word.
func (c *Chain) reindex() {
	c.totals = make(map[string]int, len(c.transitions))
	c.reverse = make(map[string]map[string]int, len(c.transitions))
	c.reverseTotals = make(map[string]int, len(c.transitions))
	c.byWord = make(map[string][]string)

	for key, row := range c.transitions {
		tokens := stateTokens(key)

		total := 0
		for next, count := range row {
			total += count

			rtokens := make([]string, 0, c.order)
			rtokens = append(rtokens, tokens[1:]...)
			rtokens = append(rtokens, next)
			rkey := stateKey(rtokens)
			rrow, ok := c.reverse[rkey]
			if !ok {
				rrow = make(map[string]int)
				c.reverse[rkey] = rrow
			}
			rrow[tokens[0]] += count
			c.reverseTotals[rkey] += count
		}
		c.totals[key] = total

		for i, token := range tokens {
			if token == startToken || token == endToken {
				continue
			}
			lower := strings.ToLower(token)
			dup := false
			for _, prev := range tokens[:i] {
				if strings.EqualFold(prev, token) {
					dup = true
					break
				}
			}
			if !dup {
				c.byWord[lower] = append(c.byWord[lower], key)
			}
		}
	}
}

// Order returns the number of context tokens per state.
func (c *Chain) Order() int {
	return c.order
}

// StateCount returns the number of states in the transition table.
func (c *Chain) StateCount() int {
	return len(c.transitions)
}

func (c *Chain) hasState(key string) bool {
	_, ok := c.transitions[key]
	return ok
}

// statesContaining returns the keys of every state featuring word as one
// of its tokens. Matching ignores case.
func (c *Chain) statesContaining(word string) []string {
	return c.byWord[strings.ToLower(word)]
}

// SampleNext draws a token observed to follow state, weighted by its
// occurrence count.
func (c *Chain) SampleNext(state []string) (string, error) {
	key := stateKey(state)
	return sample(c.transitions[key], c.totals[key], key)
}

// SamplePrev draws a token observed to precede state, weighted by its
// occurrence count. It reads the derived reverse table.
func (c *Chain) SamplePrev(state []string) (string, error) {
	key := stateKey(state)
	return sample(c.reverse[key], c.reverseTotals[key], key)
}

func sample(row map[string]int, total int, key string) (string, error) {
	if len(row) == 0 || total <= 0 {
		return "", fmt.Errorf("state %q: %w", key, ErrUnknownState)
	}
	n := rand.Intn(total)
	for token, count := range row {
		n -= count
		if n < 0 {
			return token, nil
		}
	}
	return "", fmt.Errorf("state %q: %w", key, ErrUnknownState)
}

// MarshalJSON encodes the chain as its persistable artifact.
func (c *Chain) MarshalJSON() ([]byte, error) {
	return json.Marshal(chainArtifact{
		Order:       c.order,
		Transitions: c.transitions,
	})
}

// UnmarshalJSON decodes a persisted artifact and rebuilds the derived
// lookups. The artifact's order wins over whatever the caller expected;
// a declared order below one fails as incompatible.
func (c *Chain) UnmarshalJSON(data []byte) error {
	var artifact chainArtifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		return err
	}
	if artifact.Order < 1 {
		return fmt.Errorf("artifact declares order %d: %w", artifact.Order, ErrIncompatibleModel)
	}
	c.order = artifact.Order
	c.transitions = artifact.Transitions
	if c.transitions == nil {
		c.transitions = make(map[string]map[string]int)
	}
	c.reindex()
	return nil
}
