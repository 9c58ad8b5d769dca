package bot

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"
	"github.com/dustin/go-humanize"

	"github.com/jdholdren/wordcount/internal/core"
	"github.com/jdholdren/wordcount/internal/discord"
)

const msgNotRecording = "Word count is not being recorded for this server!"

// messageWordCount counts the words of the targeted message
func (b *Bot) messageWordCount(ctx context.Context, q *request) error {
	var msg *discordgo.Message
	if q.data.Resolved != nil {
		msg = q.data.Resolved.Messages[q.data.TargetID]
	}
	if msg == nil || msg.Author == nil {
		return fmt.Errorf("message %s missing from interaction", q.data.TargetID)
	}

	enabled, err := b.cr.IsEnabled(ctx, q.i.GuildID)
	if err != nil {
		return err
	}
	if !enabled {
		return q.reply(errorEmbed(msgNotRecording), false)
	}
	if msg.Author.Bot {
		return q.reply(errorEmbed("Bots cannot have word counts!"), false)
	}

	return q.reply(&discordgo.MessageEmbed{
		Title:       "Word Count",
		Description: fmt.Sprintf("%s has said %s words in this message", userMention(msg.Author.ID), humanize.Comma(int64(core.WordCount(msg.Content)))),
		Color:       colorBrand,
	}, false)
}

// userStats shows every counter of the targeted user
func (b *Bot) userStats(ctx context.Context, q *request) error {
	user := q.resolvedUser(q.data.TargetID)
	if user == nil {
		return fmt.Errorf("user %s missing from interaction", q.data.TargetID)
	}

	enabled, err := b.cr.IsEnabled(ctx, q.i.GuildID)
	if err != nil {
		return err
	}
	if !enabled {
		return q.reply(errorEmbed(msgNotRecording), false)
	}
	if user.Bot {
		return q.reply(errorEmbed("Bots cannot have word counts!"), false)
	}

	stats, err := b.cr.UserStats(ctx, q.i.GuildID, user.ID)
	if err != nil {
		return err
	}
	if !stats.Recorded {
		return q.fail("This user has not said any words in this server!")
	}

	embed := &discordgo.MessageEmbed{
		Title:       "User Stats",
		Description: fmt.Sprintf("%s has said %s words in this server!", userMention(user.ID), humanize.Comma(stats.Words)),
		Color:       colorBrand,
		Thumbnail:   &discordgo.MessageEmbedThumbnail{URL: user.AvatarURL("")},
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Total Message Count", Value: humanize.Comma(stats.Messages)},
			{Name: "Total Attachment Count", Value: humanize.Comma(stats.Attachments)},
		},
	}
	for _, kc := range stats.Keywords {
		if len(embed.Fields) == maxFields {
			break
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  truncate(fmt.Sprintf("Keyword: %s", kc.Keyword), maxFieldName),
			Value: fmt.Sprintf("Said %s times.", humanize.Comma(kc.Count)),
		})
	}

	if g, err := b.dc.Guild(q.i.GuildID); err == nil && g != nil {
		embed.Footer = &discordgo.MessageEmbedFooter{Text: g.Name, IconURL: g.IconURL("")}
	}

	return q.reply(embed, false)
}

// help lists the chat commands, split by who can use them
func (b *Bot) help(_ context.Context, q *request, _ options) error {
	var admin, user []string
	for _, cmd := range discord.Commands() {
		if cmd.Type != discordgo.ChatApplicationCommand {
			continue
		}
		isAdmin := cmd.DefaultMemberPermissions != nil
		for _, line := range commandLines(cmd.Name, cmd.Description, cmd.Options) {
			if isAdmin {
				admin = append(admin, "🔧 "+line)
			} else {
				user = append(user, "👤 "+line)
			}
		}
	}

	embed := &discordgo.MessageEmbed{
		Title:       "🤖 Bot Help Center",
		Description: "📋 **Available Slash Commands**\n\n*Use `/` followed by the command name to execute*",
		Color:       0x00ff88,
		Footer:      &discordgo.MessageEmbedFooter{Text: "💡 Tip: Commands are synced automatically • Need more help? Contact an admin"},
	}
	embed.Fields = append(embed.Fields, listFields("🛡️ **Admin Commands**", "*Restricted to server administrators*", admin)...)
	embed.Fields = append(embed.Fields, listFields("🌟 **User Commands**", "*Available to all users*", user)...)

	return q.reply(embed, false)
}

// commandLines renders every leaf command under name
func commandLines(name, description string, opts []*discordgo.ApplicationCommandOption) []string {
	var lines []string
	for _, o := range opts {
		if o.Type == discordgo.ApplicationCommandOptionSubCommandGroup || o.Type == discordgo.ApplicationCommandOptionSubCommand {
			lines = append(lines, commandLines(name+" "+o.Name, o.Description, o.Options)...)
		}
	}
	if len(lines) > 0 {
		return lines
	}

	return []string{fmt.Sprintf("`/%s`\n└ %s", name, description)}
}

// listFields fits lines into as few fields as the value limit allows
func listFields(name, intro string, lines []string) []*discordgo.MessageEmbedField {
	if len(lines) == 0 {
		return nil
	}

	var (
		fields []*discordgo.MessageEmbedField
		cur    = intro
	)
	for _, line := range lines {
		next := cur + "\n\n" + line
		if utf8.RuneCountInString(next) > maxFieldValue {
			fields = append(fields, &discordgo.MessageEmbedField{Name: name, Value: cur})
			name, next = "\u200b", line
		}
		cur = next
	}
	fields = append(fields, &discordgo.MessageEmbedField{Name: name, Value: cur})

	return fields
}
