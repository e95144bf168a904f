package recurring_handler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"

	"cadence/src-server/utils"
)

var candidateIDOption = &discordgo.ApplicationCommandOption{
	Type:        discordgo.ApplicationCommandOptionString,
	Name:        "id",
	Description: "The suggestion id, shown under each suggestion",
	Required:    true,
}

func accept(as *utils.AppState, cmdInfo *[]*discordgo.ApplicationCommandOption, cmdHandler map[string]func(s *discordgo.Session, i *discordgo.InteractionCreate) error) {
	id := "accept"
	*cmdInfo = append(*cmdInfo, &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionSubCommand,
		Name:        id,
		Description: "Turn a suggestion into a recurring series.",
		Options:     []*discordgo.ApplicationCommandOption{candidateIDOption},
	})
	cmdHandler[id] = acceptHandler(as)
}

func acceptHandler(as *utils.AppState) func(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	return func(s *discordgo.Session, i *discordgo.InteractionCreate) error {
		if err := utils.InteractRespDefer(s, i); err != nil {
			slog.Warn("can't respond", "handler", "recurring-accept", "content", "deferring", "error", err)
		}

		candidateID := subcommandOptions(i)["id"].StringValue()
		ctx, cancel := context.WithTimeout(context.Background(), interactionTimeout)
		defer cancel()

		seriesID, err := as.Recurring.AcceptCandidate(ctx, i.ChannelID, candidateID)
		if err != nil {
			utils.InteractRespEdit(as, s, i, errorMessage("accept the suggestion", err))
			return err
		}
		utils.InteractRespEdit(as, s, i, fmt.Sprintf("Created series `%s`. The events it was built from are now part of it.", seriesID))
		return nil
	}
}

func reject(as *utils.AppState, cmdInfo *[]*discordgo.ApplicationCommandOption, cmdHandler map[string]func(s *discordgo.Session, i *discordgo.InteractionCreate) error) {
	id := "reject"
	*cmdInfo = append(*cmdInfo, &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionSubCommand,
		Name:        id,
		Description: "Dismiss a suggestion for good.",
		Options:     []*discordgo.ApplicationCommandOption{candidateIDOption},
	})
	cmdHandler[id] = rejectHandler(as)
}

func rejectHandler(as *utils.AppState) func(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	return func(s *discordgo.Session, i *discordgo.InteractionCreate) error {
		candidateID := subcommandOptions(i)["id"].StringValue()
		ctx, cancel := context.WithTimeout(context.Background(), interactionTimeout)
		defer cancel()

		if err := as.Recurring.RejectCandidate(ctx, i.ChannelID, candidateID); err != nil {
			utils.InteractRespHiddenReply(as, s, i, errorMessage("reject the suggestion", err))
			return err
		}
		utils.InteractRespHiddenReply(as, s, i, "Suggestion rejected. It won't be suggested again.")
		return nil
	}
}
