package twitchirc

import (
	"strings"
	"time"

	v2 "github.com/gempir/go-twitch-irc/v2"

	"github.com/Soypete/discord-markov-bot/types"
)

// sentenceCommand is the one chat command the bot answers directly.
const sentenceCommand = "!sentence"

// ignoredChatters are relay and command bots whose messages would
// poison the chain with canned text.
var ignoredChatters = map[string]bool{
	"Nightbot":       true,
	"StreamElements": true,
	"margobot":       true,
}

// cleanMessage converts an IRC message into the bot's chat type.
// Messages relayed by RestreamBot arrive as "[source: user] text" and
// get unwrapped to the original author.
func cleanMessage(msg v2.PrivateMessage) types.ChatMessage {
	chat := types.ChatMessage{
		Platform: types.PlatformTwitch,
		Username: msg.User.DisplayName,
		Text:     msg.Message,
		Time:     time.Now(),
	}

	if strings.Contains(msg.User.DisplayName, "RestreamBot") {
		text := strings.ReplaceAll(msg.Message, "]", ":")
		words := strings.SplitN(text, ":", 3)
		if len(words) == 3 {
			chat.Username = strings.TrimSpace(words[1])
			chat.Text = strings.TrimSpace(words[2])
		}
	}

	if strings.HasPrefix(chat.Text, "!") {
		chat.IsCommand = true
	}
	return chat
}

// sentenceSeed reports whether text is a !sentence command and returns
// the seed that follows it, if any.
func sentenceSeed(text string) (string, bool) {
	if text == sentenceCommand {
		return "", true
	}
	rest, ok := strings.CutPrefix(text, sentenceCommand+" ")
	if !ok {
		return "", false
	}
	return strings.TrimSpace(rest), true
}

// mentionsBot reports whether chat is talking to the bot.
func mentionsBot(text string) bool {
	return strings.Contains(strings.ToLower(text), "margo")
}
