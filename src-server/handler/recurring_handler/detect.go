package recurring_handler

import (
	"context"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"

	"cadence/src-server/model"
	"cadence/src-server/service"
	"cadence/src-server/utils"
)

// interactionTimeout bounds the work behind one deferred reply.
const interactionTimeout = 30 * time.Second

func detect(as *utils.AppState, cmdInfo *[]*discordgo.ApplicationCommandOption, cmdHandler map[string]func(s *discordgo.Session, i *discordgo.InteractionCreate) error) {
	id := "detect"
	*cmdInfo = append(*cmdInfo, &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionSubCommand,
		Name:        id,
		Description: "Look for repeating events in this channel.",
	})
	cmdHandler[id] = detectHandler(as)
}

func detectHandler(as *utils.AppState) func(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	return func(s *discordgo.Session, i *discordgo.InteractionCreate) error {
		if err := utils.InteractRespDefer(s, i); err != nil {
			slog.Warn("can't respond", "handler", "recurring-detect", "content", "deferring", "error", err)
		}

		ctx, cancel := context.WithTimeout(service.WithTrigger(context.Background(), "discord"), interactionTimeout)
		defer cancel()

		content, embeds := detectReply(ctx, as.Recurring, i.ChannelID)
		utils.InteractRespEdit(as, s, i, content, embeds...)
		return nil
	}
}

type candidateDetector interface {
	DetectAndSaveCandidates(ctx context.Context, ownerID string) ([]model.RecurringCandidate, error)
}

// detectReply runs detection for one channel. A failed run is logged and
// answered like an empty one.
func detectReply(ctx context.Context, detector candidateDetector, ownerID string) (string, []*discordgo.MessageEmbed) {
	candidates, err := detector.DetectAndSaveCandidates(ctx, ownerID)
	if err != nil {
		slog.Error("detection failed", "owner", ownerID, "error", err)
		return candidateEmbeds(nil)
	}
	return candidateEmbeds(candidates)
}
