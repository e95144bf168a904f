package recurring_handler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"

	"cadence/src-server/recurring"
	"cadence/src-server/utils"
)

var seriesIDOption = &discordgo.ApplicationCommandOption{
	Type:        discordgo.ApplicationCommandOptionString,
	Name:        "series",
	Description: "The series id, shown under each series",
	Required:    true,
}

func series(as *utils.AppState, cmdInfo *[]*discordgo.ApplicationCommandOption, cmdHandler map[string]func(s *discordgo.Session, i *discordgo.InteractionCreate) error) {
	id := "series"
	*cmdInfo = append(*cmdInfo, &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionSubCommand,
		Name:        id,
		Description: "List the recurring series of this channel.",
	})
	cmdHandler[id] = seriesHandler(as)
}

func seriesHandler(as *utils.AppState) func(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	return func(s *discordgo.Session, i *discordgo.InteractionCreate) error {
		if err := utils.InteractRespDefer(s, i); err != nil {
			slog.Warn("can't respond", "handler", "recurring-series", "content", "deferring", "error", err)
		}
		ctx, cancel := context.WithTimeout(context.Background(), interactionTimeout)
		defer cancel()

		all, err := as.Recurring.ListSeries(ctx, i.ChannelID)
		if err != nil {
			utils.InteractRespEdit(as, s, i, errorMessage("list series", err))
			return err
		}
		if len(all) == 0 {
			utils.InteractRespEdit(as, s, i, "No recurring series yet.")
			return nil
		}
		embeds := make([]*discordgo.MessageEmbed, 0, min(len(all), maxEmbeds))
		for _, one := range all[:min(len(all), maxEmbeds)] {
			embeds = append(embeds, seriesEmbed(one))
		}
		utils.InteractRespEdit(as, s, i, fmt.Sprintf("%d series.", len(all)), embeds...)
		return nil
	}
}

func occurrences(as *utils.AppState, cmdInfo *[]*discordgo.ApplicationCommandOption, cmdHandler map[string]func(s *discordgo.Session, i *discordgo.InteractionCreate) error) {
	id := "occurrences"
	*cmdInfo = append(*cmdInfo, &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionSubCommand,
		Name:        id,
		Description: "Show the dates of a series.",
		Options:     []*discordgo.ApplicationCommandOption{seriesIDOption},
	})
	cmdHandler[id] = occurrencesHandler(as)
}

func occurrencesHandler(as *utils.AppState) func(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	return func(s *discordgo.Session, i *discordgo.InteractionCreate) error {
		if err := utils.InteractRespDefer(s, i); err != nil {
			slog.Warn("can't respond", "handler", "recurring-occurrences", "content", "deferring", "error", err)
		}
		seriesID := subcommandOptions(i)["series"].StringValue()
		ctx, cancel := context.WithTimeout(context.Background(), interactionTimeout)
		defer cancel()

		expanded, err := as.Recurring.GetOccurrences(ctx, i.ChannelID, seriesID)
		if err != nil {
			utils.InteractRespEdit(as, s, i, errorMessage("expand the series", err))
			return err
		}
		fallback := ""
		if len(expanded) > 0 {
			fallback = expanded[0].Title
		}
		title := seriesTitle(ctx, as, i.ChannelID, seriesID, fallback)
		utils.InteractRespEdit(as, s, i, "", occurrencesEmbed(title, expanded))
		return nil
	}
}

// seriesTitle is the title of the series itself. Occurrences may carry
// overridden ones.
func seriesTitle(ctx context.Context, as *utils.AppState, ownerID, seriesID, fallback string) string {
	all, err := as.Recurring.ListSeries(ctx, ownerID)
	if err != nil {
		return fallback
	}
	for _, one := range all {
		if one.ID == seriesID {
			return one.Title
		}
	}
	return fallback
}

func cancelOccurrence(as *utils.AppState, cmdInfo *[]*discordgo.ApplicationCommandOption, cmdHandler map[string]func(s *discordgo.Session, i *discordgo.InteractionCreate) error) {
	id := "cancel"
	*cmdInfo = append(*cmdInfo, &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionSubCommand,
		Name:        id,
		Description: "Cancel one occurrence of a series.",
		Options: []*discordgo.ApplicationCommandOption{
			seriesIDOption,
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "date",
				Description: "The occurrence to cancel, e.g. 2025-01-13 or next monday",
				Required:    true,
			},
		},
	})
	cmdHandler[id] = cancelHandler(as)
}

func cancelHandler(as *utils.AppState) func(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	return func(s *discordgo.Session, i *discordgo.InteractionCreate) error {
		options := subcommandOptions(i)
		date, err := utils.ParseDateInput(as.When, options["date"].StringValue(), as.Now())
		if err != nil {
			utils.InteractRespHiddenReply(as, s, i, errorMessage("read the date", err))
			return nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), interactionTimeout)
		defer cancel()
		if _, err := as.Recurring.CancelOccurrence(ctx, i.ChannelID, options["series"].StringValue(), date); err != nil {
			utils.InteractRespHiddenReply(as, s, i, errorMessage("cancel the occurrence", err))
			return err
		}
		utils.InteractRespHiddenReply(as, s, i, fmt.Sprintf("Cancelled the occurrence on %s.", date.Format(recurring.DateLayout)))
		return nil
	}
}
