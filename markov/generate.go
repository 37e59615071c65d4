package markov

import (
	"fmt"
	"math/rand"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Soypete/discord-markov-bot/logging"
	"github.com/Soypete/discord-markov-bot/metrics"
)

// fallbackSentence is what the bot says when the chain cannot produce
// anything presentable. Generate never returns an empty string.
const fallbackSentence = "My Markov chain isn't working properly!"

// maxSentenceLength caps generated output. Anything longer is cut and
// given a trailing ellipsis so it still reads like a sentence.
const maxSentenceLength = 1024

// Broadcast mentions must never survive into posted output, no matter
// what the chain learned.
const (
	mentionEveryone = "@everyone"
	mentionHere     = "@here"
)

const (
	defaultAttempts = 10
	defaultMaxWords = 200
)

// GeneratorOptions tune sentence generation. Zero values fall back to
// the defaults.
type GeneratorOptions struct {
	// Attempts is the budget of generation retries per request.
	Attempts int
	// MaxWords caps a generated sentence's length in words.
	MaxWords int
	// Disabled makes every request return the canned fallback.
	Disabled bool
}

// Generator produces sentences from the live chain. It only ever reads
// the chain, so any number of handlers can call it concurrently.
type Generator struct {
	model    *Model
	attempts int
	maxWords int
	enabled  bool
	logger   *logging.Logger
}

// NewGenerator wires a generator to the shared model.
func NewGenerator(model *Model, opts GeneratorOptions, logger *logging.Logger) *Generator {
	if opts.Attempts < 1 {
		opts.Attempts = defaultAttempts
	}
	if opts.MaxWords < 1 {
		opts.MaxWords = defaultMaxWords
	}
	return &Generator{
		model:    model,
		attempts: opts.Attempts,
		maxWords: opts.MaxWords,
		enabled:  !opts.Disabled,
		logger:   logger,
	}
}

// Enabled reports whether generation is on. When off, Generate returns
// the canned fallback without touching the chain.
func (g *Generator) Enabled() bool {
	return g.enabled
}

// Generate returns a sentence from the model, optionally steered by
// seed. A single seed word appears somewhere in the sentence; a
// multi-word seed becomes the start of it. When the chain cannot manage
// that, the result degrades through an unseeded sentence, then the seed
// itself, then the canned fallback, so the caller always has something
// to post. Attempts that contain a broadcast mention are thrown away and
// retried; if the budget runs out the mentions are stripped instead.
func (g *Generator) Generate(seed string) string {
	if !g.enabled {
		return fallbackSentence
	}

	seed = strings.TrimSpace(seed)
	words := strings.Fields(seed)
	mode := "none"
	switch {
	case len(words) > 1:
		mode = "phrase"
	case len(words) == 1:
		mode = "word"
	}
	start := time.Now()
	defer func() {
		metrics.SentenceGenerationDuration.WithLabelValues(mode).Observe(time.Since(start).Seconds())
	}()

	chain := g.model.Chain()
	var sentence string
	for attempt := 0; attempt < g.attempts; attempt++ {
		sentence = g.attempt(chain, seed, words)
		if !containsBroadcastMention(sentence) {
			break
		}
	}
	if containsBroadcastMention(sentence) {
		g.logger.Warn("generated sentence kept a broadcast mention, stripping it", "seed", seed)
		sentence = stripBroadcastMentions(sentence)
	}

	sentence = strings.TrimSpace(sentence)
	if sentence == "" {
		metrics.GenerationFallbackCount.Add(1)
		sentence = fallbackSentence
	}
	metrics.SentencesGenerated.Add(1)
	return truncateSentence(sentence)
}

func (g *Generator) attempt(chain *Chain, seed string, words []string) string {
	if len(words) == 0 {
		return g.randomWalk(chain)
	}

	var sentence string
	var err error
	if len(words) > 1 {
		sentence, err = g.sentenceWithStart(chain, words)
	} else {
		sentence, err = g.sentenceContaining(chain, words[0])
	}
	if err != nil {
		g.logger.Debug("seeded generation failed, walking unseeded",
			"seed", seed, "error", err.Error())
		sentence = g.randomWalk(chain)
	}
	if sentence == "" {
		sentence = seed
	}
	return sentence
}

// randomWalk produces a sentence from the start markers forward.
func (g *Generator) randomWalk(chain *Chain) string {
	tokens := g.walkFrom(chain, startState(chain.order))
	return strings.Join(stripMarkers(tokens), " ")
}

// sentenceContaining builds a sentence around a random state featuring
// word, walking the forward table out to the end of the sentence and the
// reverse table back to its start.
func (g *Generator) sentenceContaining(chain *Chain, word string) (string, error) {
	states := chain.statesContaining(word)
	if len(states) == 0 {
		return "", fmt.Errorf("no state contains %q: %w", word, ErrUnknownState)
	}
	tokens := stateTokens(states[rand.Intn(len(states))])

	tokens = g.walkFrom(chain, tokens)
	for len(tokens) < g.maxWords+chain.order {
		prev, err := chain.SamplePrev(tokens[:chain.order])
		if err != nil || prev == startToken {
			break
		}
		tokens = append([]string{prev}, tokens...)
	}
	return strings.Join(stripMarkers(tokens), " "), nil
}

// sentenceWithStart walks forward from the trailing context of phrase so
// the result begins with the whole phrase. The walk fails when the
// phrase's trailing tokens are not a known state.
func (g *Generator) sentenceWithStart(chain *Chain, words []string) (string, error) {
	var tokens []string
	if len(words) >= chain.order {
		tokens = append([]string(nil), words...)
	} else {
		tokens = append(startState(chain.order-len(words)), words...)
	}
	key := stateKey(tokens[len(tokens)-chain.order:])
	if !chain.hasState(key) {
		return "", fmt.Errorf("state %q: %w", key, ErrUnknownState)
	}
	tokens = g.walkFrom(chain, tokens)
	return strings.Join(stripMarkers(tokens), " "), nil
}

// walkFrom extends tokens by sampling forward until the sentence ends, a
// dead end is hit, or the word cap is reached. The tail of tokens must
// be a full state.
func (g *Generator) walkFrom(chain *Chain, tokens []string) []string {
	out := append([]string(nil), tokens...)
	for len(out) < g.maxWords+chain.order {
		next, err := chain.SampleNext(out[len(out)-chain.order:])
		if err != nil || next == endToken {
			break
		}
		out = append(out, next)
	}
	return out
}

func stripMarkers(tokens []string) []string {
	for len(tokens) > 0 && tokens[0] == startToken {
		tokens = tokens[1:]
	}
	return tokens
}

func containsBroadcastMention(s string) bool {
	return strings.Contains(s, mentionEveryone) || strings.Contains(s, mentionHere)
}

func stripBroadcastMentions(s string) string {
	s = strings.ReplaceAll(s, mentionEveryone, "")
	return strings.ReplaceAll(s, mentionHere, "")
}

func truncateSentence(s string) string {
	if utf8.RuneCountInString(s) <= maxSentenceLength {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxSentenceLength-4]) + "..."
}
