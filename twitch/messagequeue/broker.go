// Package messagequeue fans twitch chat out to the consumers that
// want it. The IRC callback publishes into a buffered channel so a
// slow consumer can never stall the connection read loop.
package messagequeue

import (
	"context"
	"sync"

	v2 "github.com/gempir/go-twitch-irc/v2"

	"github.com/Soypete/discord-markov-bot/logging"
	"github.com/Soypete/discord-markov-bot/metrics"
)

// Consumer receives every published chat message.
type Consumer interface {
	ProcessMessage(ctx context.Context, msg v2.PrivateMessage)
	Name() string
}

// Broker distributes messages to a fixed set of consumers. Consumers
// are handed over at construction so the fanout loop never needs a
// lock.
type Broker struct {
	consumers []Consumer
	msgQueue  chan v2.PrivateMessage
	logger    *logging.Logger
}

// NewBroker creates a message broker for the given consumers.
func NewBroker(queueSize int, logger *logging.Logger, consumers ...Consumer) *Broker {
	if logger == nil {
		logger = logging.Default()
	}
	if queueSize <= 0 {
		queueSize = 1000
	}

	return &Broker{
		consumers: consumers,
		msgQueue:  make(chan v2.PrivateMessage, queueSize),
		logger:    logger,
	}
}

// Publish queues a message for the consumers without blocking. A full
// queue drops the message and reports whether it was accepted.
func (b *Broker) Publish(msg v2.PrivateMessage) bool {
	select {
	case b.msgQueue <- msg:
		return true
	default:
		metrics.TwitchMessageDroppedCount.Add(1)
		b.logger.Warn("message queue full, dropping message")
		return false
	}
}

// Start begins draining the queue. It stops when ctx is cancelled.
func (b *Broker) Start(ctx context.Context, wg *sync.WaitGroup) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		b.logger.Info("message broker started", "consumers", len(b.consumers))

		for {
			select {
			case <-ctx.Done():
				b.logger.Info("message broker shutting down")
				return
			case msg := <-b.msgQueue:
				b.fanout(ctx, msg)
			}
		}
	}()
}

// fanout hands a message to all consumers in parallel and waits for
// them so queue order is preserved per consumer.
func (b *Broker) fanout(ctx context.Context, msg v2.PrivateMessage) {
	var wg sync.WaitGroup
	for _, consumer := range b.consumers {
		wg.Add(1)
		go func(c Consumer) {
			defer wg.Done()
			c.ProcessMessage(ctx, msg)
		}(consumer)
	}
	wg.Wait()
}

// Depth returns the current queue depth.
func (b *Broker) Depth() int {
	return len(b.msgQueue)
}
