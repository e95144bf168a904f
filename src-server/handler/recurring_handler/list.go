package recurring_handler

import (
	"context"
	"log/slog"

	"github.com/bwmarrin/discordgo"

	"cadence/src-server/recurring"
	"cadence/src-server/utils"
)

func list(as *utils.AppState, cmdInfo *[]*discordgo.ApplicationCommandOption, cmdHandler map[string]func(s *discordgo.Session, i *discordgo.InteractionCreate) error) {
	id := "list"
	*cmdInfo = append(*cmdInfo, &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionSubCommand,
		Name:        id,
		Description: "List recurring suggestions.",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "status",
				Description: "Only suggestions with this status (default: pending)",
				Choices: []*discordgo.ApplicationCommandOptionChoice{
					{Name: "pending", Value: string(recurring.StatusPending)},
					{Name: "accepted", Value: string(recurring.StatusAccepted)},
					{Name: "rejected", Value: string(recurring.StatusRejected)},
				},
			},
		},
	})
	cmdHandler[id] = listHandler(as)
}

func listHandler(as *utils.AppState) func(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	return func(s *discordgo.Session, i *discordgo.InteractionCreate) error {
		if err := utils.InteractRespDefer(s, i); err != nil {
			slog.Warn("can't respond", "handler", "recurring-list", "content", "deferring", "error", err)
		}

		status := recurring.StatusPending
		if value, ok := subcommandOptions(i)["status"]; ok {
			status = recurring.Status(value.StringValue())
		}

		ctx, cancel := context.WithTimeout(context.Background(), interactionTimeout)
		defer cancel()

		candidates, err := as.Recurring.ListCandidates(ctx, i.ChannelID, status)
		if err != nil {
			utils.InteractRespEdit(as, s, i, errorMessage("list suggestions", err))
			return err
		}
		content, embeds := candidateEmbeds(candidates)
		utils.InteractRespEdit(as, s, i, content, embeds...)
		return nil
	}
}
