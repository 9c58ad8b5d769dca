package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/dustin/go-humanize"
	"github.com/samber/lo"

	"github.com/jdholdren/wordcount/internal/core"
	"github.com/jdholdren/wordcount/internal/core/models"
	"github.com/jdholdren/wordcount/internal/paginator"
)

func (b *Bot) wordLeaderboard(ctx context.Context, q *request, opts options) error {
	ch := opts.str("channel")

	counts, err := b.cr.WordLeaderboard(ctx, q.i.GuildID, ch)
	if err != nil {
		return err
	}

	description := "The word count leaderboard for the whole server"
	if ch != "" {
		description = fmt.Sprintf("The word count leaderboard for the channel %s", channelMention(ch))
	}
	if len(counts) == 0 {
		where := "server"
		if ch != "" {
			where = "channel"
		}
		return q.fail(fmt.Sprintf("No one has said any words in this %s yet.", where))
	}

	// Resolving users is a REST call per user when they are not cached
	if err := q.deferReply(); err != nil {
		return err
	}
	entries := b.resolveRanks(q.i.GuildID, counts)
	if len(entries) == 0 {
		return q.fail("No active users found!")
	}

	return b.paginate(q, rankPages("📝 Word Count Leaderboard", description, "words", entries))
}

func (b *Bot) messageLeaderboard(ctx context.Context, q *request, opts options) error {
	ch := opts.str("channel")

	counts, err := b.cr.MessageLeaderboard(ctx, q.i.GuildID, ch)
	if err != nil {
		return err
	}

	if len(counts) == 0 {
		return q.reply(&discordgo.MessageEmbed{
			Title:       "Message Leaderboard",
			Description: "No messages have been sent yet!",
			Color:       colorRed,
		}, false)
	}

	if err := q.deferReply(); err != nil {
		return err
	}
	entries := b.resolveRanks(q.i.GuildID, counts)
	if len(entries) == 0 {
		return q.reply(&discordgo.MessageEmbed{
			Title:       "Message Leaderboard",
			Description: "No active users found!",
			Color:       colorRed,
		}, false)
	}

	description := "Top message contributors in the server"
	if ch != "" {
		description = fmt.Sprintf("Top message contributors in %s", channelMention(ch))
	}

	return b.paginate(q, rankPages("💬 Message Leaderboard", description, "messages", entries))
}

func (b *Bot) attachmentLeaderboard(ctx context.Context, q *request, opts options) error {
	counts, err := b.cr.AttachmentLeaderboard(ctx, q.i.GuildID, opts.str("channel"))
	if err != nil {
		return err
	}

	noUsers := &discordgo.MessageEmbed{
		Title:       "Attachment Leaderboard",
		Description: "No users found.",
		Color:       colorBrand,
	}
	if len(counts) == 0 {
		return q.reply(noUsers, true)
	}

	if err := q.deferReply(); err != nil {
		return err
	}
	embed := &discordgo.MessageEmbed{Title: "Attachment Leaderboard", Color: colorBlue}
	for i, c := range counts {
		name, ok := b.displayName(q.i.GuildID, c.UserID)
		if !ok {
			continue
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  fmt.Sprintf("%d. %s", i+1, name),
			Value: fmt.Sprintf("%s attachments", humanize.Comma(c.Count)),
		})
	}

	if len(embed.Fields) == 0 {
		return q.reply(noUsers, true)
	}

	return q.reply(embed, false)
}

func (b *Bot) keywordAdd(ctx context.Context, q *request, opts options) error {
	if !q.canManageGuild() {
		return q.fail(msgNoPermission)
	}

	kw, err := b.cr.AddKeyword(ctx, q.i.GuildID, opts.str("keyword"))
	switch {
	case errors.Is(err, core.ErrNotEnabled):
		return q.fail("Word count is not being recorded for this server!")
	case errors.Is(err, core.ErrKeywordExists):
		return q.fail(fmt.Sprintf("The keyword %s already exists in the server", kw))
	case err != nil:
		return err
	}

	return q.reply(successEmbed(fmt.Sprintf("The keyword %s has been added to the server", kw)), true)
}

func (b *Bot) keywordRemove(ctx context.Context, q *request, opts options) error {
	if !q.canManageGuild() {
		return q.fail(msgNoPermission)
	}

	kw, err := b.cr.RemoveKeyword(ctx, q.i.GuildID, opts.str("keyword"))
	switch {
	case errors.Is(err, core.ErrNotEnabled):
		return q.fail("Word count is not being recorded for this server!")
	case errors.Is(err, core.ErrKeywordNotFound):
		return q.fail(fmt.Sprintf("The keyword %s does not exist in the server", kw))
	case err != nil:
		return err
	}

	return q.reply(successEmbed(fmt.Sprintf("The keyword %s has been removed from the server", kw)), true)
}

func (b *Bot) keywordLeaderboard(ctx context.Context, q *request, opts options) error {
	ch := opts.str("channel")

	kws, err := b.cr.Keywords(ctx, q.i.GuildID)
	if err != nil {
		return err
	}
	if len(kws) == 0 {
		return q.fail("No keywords have been added to the server")
	}

	boards, err := b.cr.KeywordLeaderboard(ctx, q.i.GuildID, ch)
	if err != nil {
		return err
	}
	byKeyword := lo.KeyBy(boards, func(kb models.KeywordBoard) string { return kb.Keyword })

	fields := make([]*discordgo.MessageEmbedField, 0, len(kws))
	for _, kw := range kws {
		value := "No one has said this keyword yet."
		if kb, ok := byKeyword[kw]; ok && len(kb.Users) > 0 {
			value = strings.Join(lo.Map(kb.Users, func(kc models.KeywordCount, _ int) string {
				return fmt.Sprintf("%s: %s", userMention(kc.UserID), humanize.Comma(kc.Count))
			}), ", ")
		}
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:  truncate(fmt.Sprintf("Keyword: %s", kw), maxFieldName),
			Value: truncate(value, maxFieldValue),
		})
	}

	base := discordgo.MessageEmbed{
		Title:       "Keyword Leaderboard",
		Description: "The keyword leaderboard for this server",
		Color:       colorBrand,
	}
	if ch != "" {
		base.Description = fmt.Sprintf("The keyword leaderboard for %s", channelMention(ch))
		base.Color = colorGreen
	}

	return b.paginate(q, fieldPages(base, fields))
}

func (b *Bot) keywordList(ctx context.Context, q *request, _ options) error {
	kws, err := b.cr.Keywords(ctx, q.i.GuildID)
	if err != nil {
		return err
	}
	if len(kws) == 0 {
		return q.fail("No keywords have been added to the server")
	}

	fields := lo.Map(kws, func(kw string, _ int) *discordgo.MessageEmbedField {
		return &discordgo.MessageEmbedField{Name: truncate(kw, maxFieldName), Value: "\u200b"}
	})

	return b.paginate(q, fieldPages(discordgo.MessageEmbed{
		Title:       "Keywords",
		Description: "The keywords in this server",
		Color:       colorBrand,
	}, fields))
}

// paginate sends the first embed and buttons to go through the rest
func (b *Bot) paginate(q *request, embeds []*discordgo.MessageEmbed) error {
	p := paginator.NewEmbeds(embeds,
		paginator.WithAuthor(q.userID()),
		paginator.WithTimeout(b.cfg.PaginatorTimeout),
	)

	return q.send(b.pages.Start(p, false))
}

// resolveRanks names the users of a leaderboard, dropping those discord no
// longer knows about
func (b *Bot) resolveRanks(guildID string, counts []models.Count) []ranked {
	entries := make([]ranked, 0, len(counts))
	for _, c := range counts {
		name, ok := b.displayName(guildID, c.UserID)
		if !ok {
			continue
		}
		entries = append(entries, ranked{name: name, count: c.Count})
	}
	return entries
}

// displayName prefers the guild nickname, then the global name, then the username
func (b *Bot) displayName(guildID, userID string) (string, bool) {
	if m, err := b.dc.Member(guildID, userID); err == nil && m != nil && m.User != nil {
		if m.Nick != "" {
			return m.Nick, true
		}
		return userName(m.User), true
	}

	u, err := b.dc.User(userID)
	if err != nil || u == nil {
		b.l.Debugw("skipping unknown user", "guild_id", guildID, "user_id", userID)
		return "", false
	}
	return userName(u), true
}

func userName(u *discordgo.User) string {
	if u.GlobalName != "" {
		return u.GlobalName
	}
	return u.Username
}
