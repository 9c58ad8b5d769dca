package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/samber/lo"

	"github.com/jdholdren/wordcount/internal/core/models"
)

// OnMessageCreate counts new messages and runs owner commands
func (b *Bot) OnMessageCreate(_ *discordgo.Session, m *discordgo.MessageCreate) {
	ctx := context.Background()
	if err := b.MessageCreated(ctx, m.Message); err != nil {
		b.l.Errorw("error recording message", "guild_id", m.GuildID, "channel_id", m.ChannelID, "err", err)
	}
}

// OnMessageUpdate needs the state message cache: without the previous version
// of a message there is nothing to compare against.
func (b *Bot) OnMessageUpdate(_ *discordgo.Session, m *discordgo.MessageUpdate) {
	if m.BeforeUpdate == nil {
		b.l.Debugw("skipping edit of uncached message", "message_id", m.ID)
		return
	}

	ctx := context.Background()
	if err := b.MessageUpdated(ctx, m.BeforeUpdate, m.Message); err != nil {
		b.l.Errorw("error recording edit", "guild_id", m.GuildID, "channel_id", m.ChannelID, "err", err)
	}
}

// OnMessageDelete also depends on the state message cache
func (b *Bot) OnMessageDelete(_ *discordgo.Session, m *discordgo.MessageDelete) {
	if m.BeforeDelete == nil {
		b.l.Debugw("skipping delete of uncached message", "message_id", m.ID)
		return
	}

	ctx := context.Background()
	if err := b.MessageDeleted(ctx, m.BeforeDelete); err != nil {
		b.l.Errorw("error recording delete", "guild_id", m.GuildID, "channel_id", m.ChannelID, "err", err)
	}
}

func (b *Bot) MessageCreated(ctx context.Context, m *discordgo.Message) error {
	metricsEvents.WithLabelValues("create").Inc()
	if m.Author == nil || m.GuildID == "" {
		return nil
	}

	if !m.Author.Bot && b.cfg.Prefix != "" && strings.HasPrefix(m.Content, b.cfg.Prefix) {
		b.ownerCommand(ctx, m)
	}

	msg, err := b.message(m)
	if err != nil {
		return err
	}

	return b.cr.RecordMessage(ctx, msg)
}

func (b *Bot) MessageUpdated(ctx context.Context, before, after *discordgo.Message) error {
	metricsEvents.WithLabelValues("update").Inc()

	// Partial updates leave fields out
	if after.Author == nil {
		after.Author = before.Author
	}
	if after.GuildID == "" {
		after.GuildID = before.GuildID
	}
	if after.Author == nil || after.GuildID == "" {
		return nil
	}

	prev, err := b.message(before)
	if err != nil {
		return err
	}
	next, err := b.message(after)
	if err != nil {
		return err
	}

	return b.cr.EditMessage(ctx, prev, next)
}

func (b *Bot) MessageDeleted(ctx context.Context, m *discordgo.Message) error {
	metricsEvents.WithLabelValues("delete").Inc()
	if m.Author == nil || m.GuildID == "" {
		return nil
	}

	msg, err := b.message(m)
	if err != nil {
		return err
	}

	return b.cr.RemoveMessage(ctx, msg)
}

// message converts a discord message, crediting thread messages to the parent channel
func (b *Bot) message(m *discordgo.Message) (models.Message, error) {
	effective := m.ChannelID

	ch, err := b.dc.Channel(m.ChannelID)
	if err != nil {
		return models.Message{}, fmt.Errorf("error looking up channel %s: %w", m.ChannelID, err)
	}
	if isThread(ch) && ch.ParentID != "" {
		effective = ch.ParentID
	}

	return models.Message{
		GuildID:         m.GuildID,
		ChannelID:       effective,
		SourceChannelID: m.ChannelID,
		AuthorID:        m.Author.ID,
		Bot:             m.Author.Bot,
		Content:         m.Content,
		Attachments:     len(m.Attachments),
	}, nil
}

func isThread(ch *discordgo.Channel) bool {
	switch ch.Type {
	case discordgo.ChannelTypeGuildPublicThread, discordgo.ChannelTypeGuildPrivateThread, discordgo.ChannelTypeGuildNewsThread:
		return true
	}
	return false
}

// Colors of the owner command embeds
const (
	colorPending = 0xffaa00
	colorDone    = 0x00ff88
	colorFailed  = 0xff4444
)

// ownerCommand runs the prefix commands that manage the registered commands
func (b *Bot) ownerCommand(ctx context.Context, m *discordgo.Message) {
	if len(b.cfg.GuildIDs) > 0 && !lo.Contains(b.cfg.GuildIDs, m.GuildID) {
		b.l.Infow("ignoring command from another guild", "user", m.Author.Username, "guild_id", m.GuildID)
		return
	}

	name := strings.TrimSpace(strings.TrimPrefix(m.Content, b.cfg.Prefix))
	if name != "sync" && name != "clear" {
		b.send(m.ChannelID, "Invalid command. Use `/help` for a list of available commands.")
		return
	}
	if m.Author.ID != b.cfg.OwnerID {
		b.l.Warnw("non owner tried an owner command", "user", m.Author.Username, "command", name)
		b.send(m.ChannelID, "You cannot use this command because you are not the owner of this bot.")
		return
	}

	switch name {
	case "sync":
		b.syncCommands(ctx, m.ChannelID)
	case "clear":
		b.clearCommands(ctx, m.ChannelID)
	}
}

func (b *Bot) syncCommands(ctx context.Context, channelID string) {
	b.sendEmbed(channelID, &discordgo.MessageEmbed{
		Title:       "🔄 Command Sync",
		Description: "Starting global command synchronization...",
		Color:       colorPending,
		Footer:      &discordgo.MessageEmbedFooter{Text: "This may take a few moments"},
	})

	synced, err := b.dc.RegisterCommands(ctx, "")
	if err != nil {
		b.l.Errorw("error syncing commands", "err", err)
		b.sendEmbed(channelID, ownerFailure("❌ Sync Failed", "Failed to sync commands", err))
		return
	}

	embed := &discordgo.MessageEmbed{
		Title:       "✅ Sync Successful",
		Description: fmt.Sprintf("**%d commands** have been synchronized globally", len(synced)),
		Color:       colorDone,
		Footer:      &discordgo.MessageEmbedFooter{Text: "All commands are now available as slash commands • Sync completed"},
	}
	if len(synced) > 0 {
		names := lo.Map(synced, func(c *discordgo.ApplicationCommand, _ int) string { return fmt.Sprintf("• `%s`", c.Name) })
		embed.Fields = []*discordgo.MessageEmbedField{
			{Name: "📝 Synced Commands", Value: truncate(strings.Join(names, "\n"), maxFieldValue)},
		}
	}
	b.sendEmbed(channelID, embed)
}

func (b *Bot) clearCommands(ctx context.Context, channelID string) {
	b.sendEmbed(channelID, &discordgo.MessageEmbed{
		Title:       "🗑️ Clearing Commands",
		Description: "Removing all commands from the command tree...",
		Color:       colorPending,
		Footer:      &discordgo.MessageEmbedFooter{Text: "This will remove all slash commands"},
	})

	n, err := b.dc.ClearCommands(ctx, "")
	if err != nil {
		b.l.Errorw("error clearing commands", "err", err)
		b.sendEmbed(channelID, ownerFailure("❌ Clear Failed", "An error occurred while clearing commands", err))
		return
	}

	summary := &discordgo.MessageEmbedField{Name: "ℹ️ Note", Value: "Command tree was already empty"}
	if n > 0 {
		summary = &discordgo.MessageEmbedField{
			Name:  "📊 Summary",
			Value: fmt.Sprintf("• **%d** commands removed\n• Command tree is now empty\n• Users will no longer see slash commands", n),
		}
	}
	b.sendEmbed(channelID, &discordgo.MessageEmbed{
		Title:       "🧹 Commands Cleared",
		Description: fmt.Sprintf("Successfully removed **%d commands** from the command tree", n),
		Color:       colorDone,
		Fields:      []*discordgo.MessageEmbedField{summary},
		Footer:      &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("Use %ssync to re-add commands to the tree", b.cfg.Prefix)},
	})
}

func ownerFailure(title, description string, err error) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       title,
		Description: description,
		Color:       colorFailed,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "🔍 Error Details", Value: fmt.Sprintf("```%s```", truncate(err.Error(), 1000))},
		},
		Footer: &discordgo.MessageEmbedFooter{Text: "Try again later or contact support"},
	}
}

func (b *Bot) send(channelID, content string) {
	if err := b.dc.SendMessage(channelID, content); err != nil {
		b.l.Errorw("error sending message", "channel_id", channelID, "err", err)
	}
}

func (b *Bot) sendEmbed(channelID string, embed *discordgo.MessageEmbed) {
	if err := b.dc.SendEmbed(channelID, embed); err != nil {
		b.l.Errorw("error sending embed", "channel_id", channelID, "err", err)
	}
}
