package markov

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Soypete/discord-markov-bot/logging"
	"github.com/Soypete/discord-markov-bot/metrics"
)

// RefillState describes what the pregeneration loop is doing.
type RefillState int32

const (
	// RefillIdle means the loop is waiting for the next tick.
	RefillIdle RefillState = iota
	// RefillRunning means a refill pass is generating sentences.
	RefillRunning
	// RefillDisabled means generation is off and the queues stay empty.
	RefillDisabled
)

const (
	defaultPregenAmount   = 10
	defaultPregenLowWater = 5
	defaultPregenInterval = 5 * time.Second
)

// SentenceSource produces sentences for a seed. *Generator satisfies it.
type SentenceSource interface {
	Generate(seed string) string
	Enabled() bool
}

// PregenOptions tune the pregeneration queues. Zero values fall back to
// the defaults.
type PregenOptions struct {
	// SeedWords are the words that get a standing queue.
	SeedWords []string
	// Amount is the target depth of each queue.
	Amount int
	// LowWater is the depth below which a queue gets topped up.
	LowWater int
	// Interval is how often the refill loop checks the queues.
	Interval time.Duration
}

// Pregen keeps a queue of ready-made sentences per seed word so command
// handlers can post flavor text without paying generation latency.
// Sentences come out in the order they were generated.
type Pregen struct {
	source   SentenceSource
	logger   *logging.Logger
	interval time.Duration
	amount   int
	lowWater int

	mu     sync.RWMutex
	queues map[string][]string

	refillMu sync.Mutex
	state    atomic.Int32
}

// NewPregen builds the queues for the configured seed words. Run starts
// the refill loop; until then every Get generates on demand.
func NewPregen(source SentenceSource, opts PregenOptions, logger *logging.Logger) *Pregen {
	if opts.Amount < 1 {
		opts.Amount = defaultPregenAmount
	}
	if opts.LowWater < 1 || opts.LowWater > opts.Amount {
		opts.LowWater = defaultPregenLowWater
		if opts.LowWater > opts.Amount {
			opts.LowWater = opts.Amount
		}
	}
	if opts.Interval <= 0 {
		opts.Interval = defaultPregenInterval
	}

	queues := make(map[string][]string, len(opts.SeedWords))
	for _, word := range opts.SeedWords {
		queues[word] = nil
	}

	p := &Pregen{
		source:   source,
		logger:   logger,
		interval: opts.Interval,
		amount:   opts.Amount,
		lowWater: opts.LowWater,
		queues:   queues,
	}
	if !source.Enabled() {
		p.state.Store(int32(RefillDisabled))
	}
	return p
}

// Get returns the oldest ready sentence for seed. An empty or unknown
// queue falls through to generating on demand; the result goes straight
// to the caller, never into a queue.
func (p *Pregen) Get(seed string) string {
	p.mu.Lock()
	queue, known := p.queues[seed]
	if len(queue) > 0 {
		sentence := queue[0]
		p.queues[seed] = queue[1:]
		depth := len(queue) - 1
		p.mu.Unlock()
		metrics.PregenHitCount.Add(1)
		metrics.PregenQueueDepth.WithLabelValues(seed).Set(float64(depth))
		return sentence
	}
	p.mu.Unlock()

	metrics.PregenMissCount.Add(1)
	if !known && p.source.Enabled() {
		p.logger.Warn("no pregenerated queue for seed, generating on demand", "seed", seed)
	}
	return p.source.Generate(seed)
}

// State reports what the refill loop is doing.
func (p *Pregen) State() RefillState {
	return RefillState(p.state.Load())
}

// QueueLen returns the current depth of a seed's queue.
func (p *Pregen) QueueLen(seed string) int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.queues[seed])
}

// Run refills the queues on a fixed interval until ctx is cancelled. The
// first pass runs immediately so the queues are warm before the first
// command lands. A tick that arrives while a pass is still generating is
// skipped rather than stacked.
func (p *Pregen) Run(ctx context.Context) {
	if p.State() == RefillDisabled {
		p.logger.Info("sentence pregeneration disabled")
		<-ctx.Done()
		return
	}

	p.refill(ctx)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.logger.Info("pregeneration loop started",
		"seeds", len(p.queues),
		"amount", p.amount,
		"interval", p.interval.String())
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("pregeneration loop shutting down")
			return
		case <-ticker.C:
			p.refill(ctx)
		}
	}
}

// refill tops up every queue that fell below the low-water mark, one
// goroutine per seed word.
func (p *Pregen) refill(ctx context.Context) {
	if !p.refillMu.TryLock() {
		return
	}
	defer p.refillMu.Unlock()

	p.state.Store(int32(RefillRunning))
	defer p.state.Store(int32(RefillIdle))

	var group errgroup.Group
	for seed, depth := range p.depths() {
		if depth >= p.lowWater {
			continue
		}
		seed := seed
		need := p.amount - depth
		group.Go(func() error {
			batch := make([]string, 0, need)
			for i := 0; i < need; i++ {
				if ctx.Err() != nil {
					break
				}
				batch = append(batch, p.source.Generate(seed))
			}
			p.mu.Lock()
			p.queues[seed] = append(p.queues[seed], batch...)
			depth := len(p.queues[seed])
			p.mu.Unlock()
			metrics.PregenQueueDepth.WithLabelValues(seed).Set(float64(depth))
			p.logger.Debug("pregen queue refilled", "seed", seed, "depth", depth)
			return nil
		})
	}
	_ = group.Wait()
}

func (p *Pregen) depths() map[string]int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	depths := make(map[string]int, len(p.queues))
	for seed, queue := range p.queues {
		depths[seed] = len(queue)
	}
	return depths
}
