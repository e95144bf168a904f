package utils

import (
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"
)

// =========================================================
// Pre-built discordgo interaction responses for convenience
// =========================================================

// Send a hidden reply to the interaction.
func InteractRespHiddenReply(as *AppState, s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	startTimer := time.Now()
	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Flags:   discordgo.MessageFlagsEphemeral,
			Content: content,
		},
	}); err != nil {
		slog.Warn("InteractRespHiddenReply: can't respond", "error", err)
		return
	}
	Send(as.MetricChans.DiscordSendMessage, float64(time.Since(startTimer).Microseconds()))
}

// Acknowledge now, answer later with InteractRespEdit.
func InteractRespDefer(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Flags: discordgo.MessageFlagsEphemeral,
		},
	})
}

// Replace the deferred message with content and embeds.
func InteractRespEdit(as *AppState, s *discordgo.Session, i *discordgo.InteractionCreate, content string, embeds ...*discordgo.MessageEmbed) {
	startTimer := time.Now()
	edit := &discordgo.WebhookEdit{Content: &content}
	if len(embeds) > 0 {
		edit.Embeds = &embeds
	}
	if _, err := s.InteractionResponseEdit(i.Interaction, edit); err != nil {
		slog.Warn("InteractRespEdit: can't edit response", "error", err)
		return
	}
	Send(as.MetricChans.DiscordSendMessage, float64(time.Since(startTimer).Microseconds()))
}
