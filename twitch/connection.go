// Package twitchirc connects the markov bot to twitch chat. Incoming
// messages are fanned out through the message broker to a trainer
// consumer, which feeds the training buffer, and a responder consumer,
// which answers !sentence commands and mentions.
package twitchirc

import (
	"context"
	"sync"
	"time"

	v2 "github.com/gempir/go-twitch-irc/v2"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"

	"github.com/Soypete/discord-markov-bot/database"
	"github.com/Soypete/discord-markov-bot/logging"
	"github.com/Soypete/discord-markov-bot/markov"
	"github.com/Soypete/discord-markov-bot/metrics"
	"github.com/Soypete/discord-markov-bot/twitch/messagequeue"
)

// Store is everything the twitch surface needs from postgres.
type Store interface {
	database.MessageWriter
	database.ResponseWriter
}

// Markov bundles the chain machinery the twitch surface drives. The
// updater stays out; chain updates are triggered from discord or the
// periodic loop.
type Markov struct {
	Generator *markov.Generator
	Pregen    *markov.Pregen
	Buffer    *markov.TrainingBuffer
}

// Options are the twitch-specific knobs from the config file.
type Options struct {
	// Channel is the twitch channel to join.
	Channel string
	// Username is the bot's twitch login.
	Username string
	// Training controls whether chat is recorded for the next chain
	// update.
	Training bool
}

// IRC is the connection to the twitch IRC server.
type IRC struct {
	db               Store
	markov           Markov
	opts             Options
	Client           *v2.Client
	tok              *oauth2.Token
	tokenRefreshTime time.Time
	authCode         string
	broker           *messagequeue.Broker
	logger           *logging.Logger
}

// SetupTwitchIRC configures oauth and prepares the IRC connection.
func SetupTwitchIRC(m Markov, db Store, opts Options, logger *logging.Logger) (*IRC, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if opts.Channel == "" {
		return nil, errors.New("twitch channel is required")
	}

	irc := &IRC{
		db:     db,
		markov: m,
		opts:   opts,
		logger: logger.Component("twitch"),
	}

	// using a separate context here because the fallback auth flow
	// needs human interaction
	ctx := context.Background()
	err := irc.AuthTwitch(ctx)
	if err != nil {
		irc.logger.Error("failed to authenticate with twitch", "error", err.Error())
		return nil, errors.Wrap(err, "failed to authenticate with twitch")
	}

	irc.logger.Info("authenticated with twitch IRC")
	return irc, nil
}

// ConnectIRC joins the channel and wires chat into the broker. The
// caller runs irc.Client.Connect afterwards; that call blocks until
// Disconnect.
func (irc *IRC) ConnectIRC(ctx context.Context, wg *sync.WaitGroup) error {
	irc.logger.Info("connecting to twitch IRC", "channel", irc.opts.Channel)
	c := v2.NewClient(irc.opts.Username, "oauth:"+irc.tok.AccessToken)
	c.Join(irc.opts.Channel)
	c.OnConnect(func() {
		metrics.TwitchConnectionCount.Add(1)
		irc.logger.Info("connection to twitch IRC established")
		c.Say(irc.opts.Channel, "margobot is listening. Try !sentence for a taste of chat's collective wisdom.")
	})

	broker := messagequeue.NewBroker(1000, irc.logger,
		&trainerConsumer{irc: irc},
		&responderConsumer{irc: irc},
	)
	broker.Start(ctx, wg)

	c.OnPrivateMessage(func(msg v2.PrivateMessage) {
		metrics.TwitchMessageReceivedCount.Add(1)
		irc.logger.Debug("received message", "user", msg.User.Name)
		broker.Publish(msg)
	})
	c.OnClearMessage(func(msg v2.ClearMessage) {
		if !irc.opts.Training {
			return
		}
		irc.markov.Buffer.Discard(msg.TargetMsgID)
		metrics.MessagesDiscarded.Add(1)
		metrics.TrainingBufferSize.Set(float64(irc.markov.Buffer.Len()))
	})

	irc.Client = c
	irc.broker = broker
	return nil
}

// Say sends a line to the joined channel.
func (irc *IRC) Say(text string) {
	irc.Client.Say(irc.opts.Channel, text)
	metrics.TwitchMessageSentCount.Add(1)
}
