package recurring_handler

import (
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"cadence/src-server/service"
	"cadence/src-server/utils"
)

// Init injects one "recurring" slash command with multiple subcommands
// into appCmdInfo and appCmdHandler in AppState. The channel an interaction
// comes from is the owner of the events it touches.
func Init(as *utils.AppState) {
	localCmdInfo := make(
		[]*discordgo.ApplicationCommandOption, 0,
	)
	localCmdHandler := make(
		map[string]func(s *discordgo.Session, i *discordgo.InteractionCreate) error,
	)

	detect(as, &localCmdInfo, localCmdHandler)
	list(as, &localCmdInfo, localCmdHandler)
	accept(as, &localCmdInfo, localCmdHandler)
	reject(as, &localCmdInfo, localCmdHandler)
	series(as, &localCmdInfo, localCmdHandler)
	occurrences(as, &localCmdInfo, localCmdHandler)
	cancelOccurrence(as, &localCmdInfo, localCmdHandler)

	id := "recurring"
	as.AddAppCmdInfo(id, &discordgo.ApplicationCommand{
		Name:        id,
		Description: "Recurring event suggestions and series.",
		Options:     localCmdInfo,
	})
	as.AddAppCmdHandler(id, func(s *discordgo.Session, i *discordgo.InteractionCreate) error {
		data := i.ApplicationCommandData()
		if len(data.Options) == 0 {
			return nil
		}
		if handler, ok := localCmdHandler[data.Options[0].Name]; ok {
			return handler(s, i)
		}
		return nil
	})
}

// subcommandOptions indexes the options of the invoked subcommand by name.
func subcommandOptions(i *discordgo.InteractionCreate) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	data := i.ApplicationCommandData()
	if len(data.Options) == 0 {
		return nil
	}
	options := data.Options[0].Options
	optionMap := make(
		map[string]*discordgo.ApplicationCommandInteractionDataOption, len(options),
	)
	for _, opt := range options {
		optionMap[opt.Name] = opt
	}
	return optionMap
}

// errorMessage turns a service error into something worth showing a user.
func errorMessage(action string, err error) string {
	switch {
	case errors.Is(err, service.ErrCandidateNotFound):
		return "No such suggestion in this channel."
	case errors.Is(err, service.ErrSeriesNotFound):
		return "No such series in this channel."
	case errors.Is(err, service.ErrCandidateNotPending):
		return "That suggestion was already decided."
	case errors.Is(err, service.ErrNoEvents):
		return "That suggestion no longer has any events behind it."
	case errors.Is(err, service.ErrDateNotInSeries):
		return "The series has no occurrence on that date."
	case errors.Is(err, utils.ErrUnreadableDate):
		return "Can't read that date. Try YYYY-MM-DD or something like \"next monday\"."
	}
	return fmt.Sprintf("Can't %s\n```\n%s\n```", action, err.Error())
}
