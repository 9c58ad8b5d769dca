package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/samber/lo"

	"github.com/jdholdren/wordcount/internal/core"
)

const (
	btnEnableConfirm  = "count:enable:confirm"
	btnEnableCancel   = "count:enable:cancel"
	btnDisableConfirm = "count:disable:confirm"
	btnDisableCancel  = "count:disable:cancel"
)

const msgNoPermission = "You don't have the required permissions to use this command."

func (b *Bot) serverSet(ctx context.Context, q *request, opts options) error {
	switch action := opts.str("action"); action {
	case "Enable":
		err := b.cr.EnableServer(ctx, q.i.GuildID)
		if errors.Is(err, core.ErrChannelsTracked) {
			return q.respond(confirmPrompt(
				"Word count is already enabled for specific channels. Would you like to change it to monitoring the entire server?",
				btnEnableConfirm, btnEnableCancel,
			))
		}
		if err != nil {
			return err
		}

		return q.reply(successEmbed("Word count will now be recorded on the whole server"), true)
	case "Disable":
		err := b.cr.DisableServer(ctx, q.i.GuildID)
		if errors.Is(err, core.ErrChannelsTracked) {
			return q.respond(confirmPrompt(
				"Word count is enabled for specific channels. Would you like to disable it for the entire server?",
				btnDisableConfirm, btnDisableCancel,
			))
		}
		if err != nil {
			return err
		}

		return q.reply(successEmbed("Word count will no longer be recorded on the whole server"), true)
	default:
		return fmt.Errorf("unknown action '%s'", action)
	}
}

func confirmPrompt(description, confirmID, cancelID string) *discordgo.InteractionResponse {
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{errorEmbed(description)},
			Flags:  discordgo.MessageFlagsEphemeral,
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{
					Components: []discordgo.MessageComponent{
						discordgo.Button{Label: "Confirm", Style: discordgo.SuccessButton, CustomID: confirmID},
						discordgo.Button{Label: "Cancel", Style: discordgo.DangerButton, CustomID: cancelID},
					},
				},
			},
		},
	}
}

// updatePrompt replaces a confirmation prompt with a result and drops its buttons
func updatePrompt(embed *discordgo.MessageEmbed) *discordgo.InteractionResponse {
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Embeds:     []*discordgo.MessageEmbed{embed},
			Components: []discordgo.MessageComponent{},
		},
	}
}

func (b *Bot) confirmEnable(ctx context.Context, q *request) error {
	if !q.canManageGuild() {
		return q.fail(msgNoPermission)
	}
	if err := b.cr.ForceEnableServer(ctx, q.i.GuildID); err != nil {
		return err
	}

	return q.respond(updatePrompt(successEmbed("Word count is now being recorded for the whole server!")))
}

func (b *Bot) confirmDisable(ctx context.Context, q *request) error {
	if !q.canManageGuild() {
		return q.fail(msgNoPermission)
	}
	if err := b.cr.ForceDisableServer(ctx, q.i.GuildID); err != nil {
		return err
	}

	return q.respond(updatePrompt(successEmbed("Word count is no longer being recorded for the whole server!")))
}

func (b *Bot) cancelServerChange(_ context.Context, q *request) error {
	return q.respond(updatePrompt(&discordgo.MessageEmbed{
		Title:       "Cancelled",
		Description: "Word count is still being recorded only in the specified channels!",
		Color:       colorRed,
	}))
}

func (b *Bot) serverSettings(ctx context.Context, q *request, opts options) error {
	s, err := b.cr.Settings(ctx, q.i.GuildID)
	if err != nil {
		return err
	}
	if !s.Enabled() {
		return core.ErrNotEnabled
	}

	embed := &discordgo.MessageEmbed{Title: "Current Settings:", Color: colorBrand}
	if s.ServerWide {
		embed.Description = "Word count is being recorded for the whole server."
		if len(s.Ignored) > 0 {
			embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
				Name:  "Ignored Channels:",
				Value: truncate(strings.Join(lo.Map(s.Ignored, func(id string, _ int) string { return channelMention(id) }), ", "), maxFieldValue),
			})
		}
	} else {
		embed.Description = truncate(
			"The following channels have the word count being recorded:\n"+
				strings.Join(lo.Map(s.Channels, func(id string, _ int) string { return channelMention(id) }), "\n"),
			maxDescription,
		)
	}

	return q.reply(embed, opts.str("make_private") == "Yes")
}

func (b *Bot) channelSet(ctx context.Context, q *request, opts options) error {
	ch := opts.str("channel")
	if err := b.cr.TrackChannel(ctx, q.i.GuildID, ch); err != nil {
		return err
	}

	return q.reply(successEmbed(fmt.Sprintf("Word count is now being recorded in %s!", channelMention(ch))), true)
}

func (b *Bot) channelRemove(ctx context.Context, q *request, opts options) error {
	ch := opts.str("channel")
	if err := b.cr.UntrackChannel(ctx, q.i.GuildID, ch); err != nil {
		return err
	}

	return q.reply(successEmbed(fmt.Sprintf("The word count is no longer being recorded in %s!", channelMention(ch))), true)
}

func (b *Bot) channelIgnore(ctx context.Context, q *request, opts options) error {
	ch := opts.str("channel")

	switch action := opts.str("action"); action {
	case "Add":
		err := b.cr.IgnoreChannel(ctx, q.i.GuildID, ch)
		if errors.Is(err, core.ErrAlreadyIgnored) {
			return q.fail(fmt.Sprintf("%s is already being ignored.", channelMention(ch)))
		}
		if err != nil {
			return err
		}

		return q.reply(successEmbed(fmt.Sprintf("%s has been added to the ignored channels.", channelMention(ch))), true)
	case "Remove":
		err := b.cr.UnignoreChannel(ctx, q.i.GuildID, ch)
		if errors.Is(err, core.ErrNotIgnored) {
			return q.fail(fmt.Sprintf("%s is not being ignored.", channelMention(ch)))
		}
		if err != nil {
			return err
		}

		return q.reply(successEmbed(fmt.Sprintf("%s has been removed from the ignored channels.", channelMention(ch))), true)
	default:
		return fmt.Errorf("unknown action '%s'", action)
	}
}

func (b *Bot) reset(ctx context.Context, q *request, opts options) error {
	userID, ch := opts.str("user"), opts.str("channel")

	user := q.resolvedUser(userID)
	if userID != "" && user != nil && user.Bot {
		return q.fail("You cannot reset the word count of a bot.")
	}

	err := b.cr.ResetWords(ctx, q.i.GuildID, userID, ch)
	if errors.Is(err, core.ErrNothingRecorded) {
		switch {
		case userID == "" && ch == "":
			return q.fail("No messages have been recorded in this server.")
		case userID == "":
			return q.fail(fmt.Sprintf("No messages have been recorded in %s for this server.", channelMention(ch)))
		case ch == "":
			return q.fail(fmt.Sprintf("%s has no words recorded in this server.", userMention(userID)))
		default:
			return q.fail(fmt.Sprintf("%s has no words recorded in %s", userMention(userID), channelMention(ch)))
		}
	}
	if err != nil {
		return err
	}

	var msg string
	switch {
	case userID == "" && ch == "":
		msg = "The word count of all users has been reset for the whole server!"
	case userID == "":
		msg = fmt.Sprintf("The word count of all users has been reset for %s!", channelMention(ch))
	case ch == "":
		name := userMention(userID)
		if user != nil {
			name = user.Username
		}
		msg = fmt.Sprintf("The word count of %s has been reset!", name)
	default:
		msg = fmt.Sprintf("The word count of %s has been reset for %s!", userMention(userID), channelMention(ch))
	}

	return q.reply(successEmbed(msg), true)
}
