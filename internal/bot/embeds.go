package bot

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"
	"github.com/dustin/go-humanize"
	"github.com/samber/lo"
)

// Discord embed limits, in characters
const (
	maxFields      = 25
	maxFieldName   = 256
	maxFieldValue  = 1024
	maxDescription = 4096
	maxEmbedTotal  = 6000
)

const usersPerPage = 10

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	r := []rune(s)
	return string(r[:limit-3]) + "..."
}

// embedLength is what discord counts against maxEmbedTotal
func embedLength(e *discordgo.MessageEmbed) int {
	n := utf8.RuneCountInString(e.Title) + utf8.RuneCountInString(e.Description)
	if e.Footer != nil {
		n += utf8.RuneCountInString(e.Footer.Text)
	}
	if e.Author != nil {
		n += utf8.RuneCountInString(e.Author.Name)
	}
	for _, f := range e.Fields {
		n += utf8.RuneCountInString(f.Name) + utf8.RuneCountInString(f.Value)
	}
	return n
}

// fitsLimits reports whether discord would accept the embed
func fitsLimits(e *discordgo.MessageEmbed) bool {
	if len(e.Fields) > maxFields || utf8.RuneCountInString(e.Description) > maxDescription {
		return false
	}
	for _, f := range e.Fields {
		if utf8.RuneCountInString(f.Name) > maxFieldName || utf8.RuneCountInString(f.Value) > maxFieldValue {
			return false
		}
	}
	return embedLength(e) <= maxEmbedTotal
}

// ranked is a leaderboard line whose user could be resolved
type ranked struct {
	name  string
	count int64
}

func medal(rank int) string {
	switch rank {
	case 1:
		return "🥇"
	case 2:
		return "🥈"
	case 3:
		return "🥉"
	}
	return ""
}

func rankLine(rank int, r ranked, unit string) string {
	if m := medal(rank); m != "" {
		return fmt.Sprintf("%s **%s** - %s %s", m, r.name, humanize.Comma(r.count), unit)
	}
	return fmt.Sprintf("**%d.** %s - %s %s", rank, r.name, humanize.Comma(r.count), unit)
}

// rankPages splits a leaderboard into embeds of usersPerPage lines
func rankPages(title, description, unit string, entries []ranked) []*discordgo.MessageEmbed {
	chunks := lo.Chunk(entries, usersPerPage)
	embeds := make([]*discordgo.MessageEmbed, 0, len(chunks))

	for page, chunk := range chunks {
		lines := make([]string, len(chunk))
		for i, r := range chunk {
			lines[i] = rankLine(page*usersPerPage+i+1, r, unit)
		}

		embeds = append(embeds, &discordgo.MessageEmbed{
			Title:       title,
			Description: description + "\n\n" + strings.Join(lines, "\n"),
			Color:       colorBrand,
			Footer: &discordgo.MessageEmbedFooter{
				Text: fmt.Sprintf("Page %d/%d • Total users: %d", page+1, len(chunks), len(entries)),
			},
		})
	}

	return embeds
}

// fieldPages spreads fields over as many copies of base as needed, starting a
// new page once the next field would break a discord limit
func fieldPages(base discordgo.MessageEmbed, fields []*discordgo.MessageEmbedField) []*discordgo.MessageEmbed {
	var (
		embeds []*discordgo.MessageEmbed
		cur    []*discordgo.MessageEmbedField
	)
	for _, f := range fields {
		next := base
		next.Fields = append(append([]*discordgo.MessageEmbedField{}, cur...), f)
		if len(cur) > 0 && !fitsLimits(&next) {
			page := base
			page.Fields = cur
			embeds = append(embeds, &page)
			cur = nil
		}
		cur = append(cur, f)
	}
	if len(cur) > 0 {
		page := base
		page.Fields = cur
		embeds = append(embeds, &page)
	}

	return embeds
}
