package recurring_handler

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"cadence/src-server/model"
	"cadence/src-server/recurring"
	"cadence/src-server/utils"
)

// discord rejects messages with more than 10 embeds or 25 fields per embed
const (
	maxEmbeds = 10
	maxFields = 25
)

const (
	colorPending   = 0xf1c40f
	colorAccepted  = 0x2ecc71
	colorRejected  = 0x95a5a6
	colorCancelled = 0xe74c3c
)

func candidateEmbed(c model.RecurringCandidate) *discordgo.MessageEmbed {
	color := colorPending
	switch recurring.Status(c.Status) {
	case recurring.StatusAccepted:
		color = colorAccepted
	case recurring.StatusRejected:
		color = colorRejected
	}

	fields := []*discordgo.MessageEmbedField{
		{Name: "Pattern", Value: strings.ToLower(c.DetectedPattern), Inline: true},
		{Name: "Confidence", Value: fmt.Sprintf("%.0f%%", c.ConfidenceScore*100), Inline: true},
		{Name: "Seen", Value: fmt.Sprintf("%d times", len(c.OccurrenceDates)), Inline: true},
	}
	if c.StartTime != "" {
		fields = append(fields, &discordgo.MessageEmbedField{Name: "Time", Value: c.StartTime, Inline: true})
	}
	if c.Location != "" {
		fields = append(fields, &discordgo.MessageEmbedField{Name: "Location", Value: c.Location, Inline: true})
	}
	fields = append(fields, &discordgo.MessageEmbedField{Name: "Rule", Value: "`" + c.SuggestedRRule + "`"})

	return &discordgo.MessageEmbed{
		Title:  utils.DisplayTitle(c.Title),
		Color:  color,
		Fields: fields,
		Footer: &discordgo.MessageEmbedFooter{Text: c.ID},
	}
}

// candidateEmbeds renders at most maxEmbeds candidates; the rest are counted
// in the returned content line.
func candidateEmbeds(candidates []model.RecurringCandidate) (string, []*discordgo.MessageEmbed) {
	if len(candidates) == 0 {
		return "No recurring patterns found.", nil
	}
	embeds := make([]*discordgo.MessageEmbed, 0, min(len(candidates), maxEmbeds))
	for _, c := range candidates[:min(len(candidates), maxEmbeds)] {
		embeds = append(embeds, candidateEmbed(c))
	}
	content := fmt.Sprintf("Found %d recurring pattern(s).", len(candidates))
	if len(candidates) > maxEmbeds {
		content += fmt.Sprintf(" Showing the first %d.", maxEmbeds)
	}
	return content, embeds
}

func seriesEmbed(s model.EventSeries) *discordgo.MessageEmbed {
	description := fmt.Sprintf("%s to %s", s.StartDate, s.UntilDate)
	if s.StartTime != "" {
		description += " at " + s.StartTime
	}
	if s.Location != "" {
		description += ", " + s.Location
	}
	embed := &discordgo.MessageEmbed{
		Title:       utils.DisplayTitle(s.Title),
		Description: description,
		Color:       colorAccepted,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Rule", Value: "`" + s.RRule + "`"},
		},
		Footer: &discordgo.MessageEmbedFooter{Text: s.ID},
	}
	if len(s.Exdates) > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "Skipped",
			Value: strings.Join(s.Exdates, ", "),
		})
	}
	return embed
}

// occurrencesEmbed lists up to maxFields occurrences, one field per date.
func occurrencesEmbed(title string, occurrences []recurring.Occurrence) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: utils.DisplayTitle(title),
		Color: colorAccepted,
	}
	for _, o := range occurrences[:min(len(occurrences), maxFields)] {
		var parts []string
		if o.StartTime != "" {
			parts = append(parts, o.StartTime)
		}
		if o.Location != "" {
			parts = append(parts, o.Location)
		}
		if o.Title != title {
			parts = append(parts, utils.DisplayTitle(o.Title))
		}
		value := strings.Join(parts, " · ")
		switch {
		case o.IsCancelled:
			value = "~~" + orDash(value) + "~~ cancelled"
		case o.IsCompleted:
			value = orDash(value) + " ✓"
		default:
			value = orDash(value)
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  o.Date.Format("Mon, 02 Jan 2006"),
			Value: value,
		})
	}
	if len(occurrences) > maxFields {
		embed.Footer = &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("%d more not shown", len(occurrences)-maxFields),
		}
	}
	if len(occurrences) == 0 {
		embed.Description = "No occurrences."
	}
	return embed
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
