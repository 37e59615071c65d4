package discord

import (
	"github.com/bwmarrin/discordgo"
)

var updateChainPermission int64 = discordgo.PermissionManageServer

// AddCommands lists the slash commands the bot registers on startup.
func (d *Client) AddCommands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        "help",
			Description: "List the bot commands and what they do",
		},
		{
			Name:        "sentence",
			Description: "Generate a markov chain sentence from stream chat",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "seed",
					Description: "word or phrase to build the sentence around",
					Required:    false,
				},
			},
		},
		{
			Name:        "oracle",
			Description: "Receive a cryptic pronouncement from the oracle",
		},
		{
			Name:        "bad_word",
			Description: "Get today's extremely mild bad word",
		},
		{
			Name:                     "update_markov_chain",
			Description:              "Fold the buffered chatter into the markov chain",
			DefaultMemberPermissions: &updateChainPermission,
		},
	}
}

// MakeCommandHandlers maps command names to their handlers.
func (d *Client) MakeCommandHandlers() map[string]func(s *discordgo.Session, i *discordgo.InteractionCreate) {
	return map[string]func(s *discordgo.Session, i *discordgo.InteractionCreate){
		"help":                d.help,
		"sentence":            d.sentence,
		"oracle":              d.oracle,
		"bad_word":            d.badWord,
		"update_markov_chain": d.updateChain,
	}
}

// respond sends the interaction response all the handlers share.
func (d *Client) respond(s *discordgo.Session, i *discordgo.InteractionCreate, content string) error {
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
		},
	})
}
