package twitchirc

import (
	"testing"

	v2 "github.com/gempir/go-twitch-irc/v2"

	"github.com/Soypete/discord-markov-bot/types"
)

func TestCleanMessage(t *testing.T) {
	tests := []struct {
		name        string
		user        string
		message     string
		wantUser    string
		wantText    string
		wantCommand bool
	}{
		{
			name:     "plain message",
			user:     "soypetetech",
			message:  "the chain is learning",
			wantUser: "soypetetech",
			wantText: "the chain is learning",
		},
		{
			name:        "command message",
			user:        "viewer",
			message:     "!sentence oracle",
			wantUser:    "viewer",
			wantText:    "!sentence oracle",
			wantCommand: true,
		},
		{
			name:     "restream relay unwrapped",
			user:     "RestreamBot",
			message:  "[YouTube: Pete] hello from the other side",
			wantUser: "Pete",
			wantText: "hello from the other side",
		},
		{
			name:     "restream relay keeps inner colons",
			user:     "RestreamBot",
			message:  "[YouTube: Pete] note: colons survive",
			wantUser: "Pete",
			wantText: "note: colons survive",
		},
		{
			name:        "relayed command detected after unwrap",
			user:        "RestreamBot",
			message:     "[YouTube: Pete] !sentence",
			wantUser:    "Pete",
			wantText:    "!sentence",
			wantCommand: true,
		},
		{
			name:     "malformed relay left alone",
			user:     "RestreamBot",
			message:  "no brackets here",
			wantUser: "RestreamBot",
			wantText: "no brackets here",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := v2.PrivateMessage{
				User:    v2.User{DisplayName: tt.user},
				Message: tt.message,
			}
			chat := cleanMessage(msg)

			if chat.Platform != types.PlatformTwitch {
				t.Errorf("Platform = %q, want %q", chat.Platform, types.PlatformTwitch)
			}
			if chat.Username != tt.wantUser {
				t.Errorf("Username = %q, want %q", chat.Username, tt.wantUser)
			}
			if chat.Text != tt.wantText {
				t.Errorf("Text = %q, want %q", chat.Text, tt.wantText)
			}
			if chat.IsCommand != tt.wantCommand {
				t.Errorf("IsCommand = %v, want %v", chat.IsCommand, tt.wantCommand)
			}
		})
	}
}

func TestSentenceSeed(t *testing.T) {
	tests := []struct {
		text     string
		wantSeed string
		wantOK   bool
	}{
		{"!sentence", "", true},
		{"!sentence oracle", "oracle", true},
		{"!sentence tell me more", "tell me more", true},
		{"!sentence   ", "", true},
		{"!sentences", "", false},
		{"sentence", "", false},
		{"!help", "", false},
	}
	for _, tt := range tests {
		seed, ok := sentenceSeed(tt.text)
		if seed != tt.wantSeed || ok != tt.wantOK {
			t.Errorf("sentenceSeed(%q) = (%q, %v), want (%q, %v)",
				tt.text, seed, ok, tt.wantSeed, tt.wantOK)
		}
	}
}

func TestMentionSeed(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"margobot tell me about go", "tell"},
		{"hey margo what gives", "hey"},
		{"MARGOBOT", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := mentionSeed(tt.text); got != tt.want {
			t.Errorf("mentionSeed(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}
