package bot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/jdholdren/wordcount/internal/chatlog"
)

// dateLayout is DD-MM-YYYY
const dateLayout = "02-01-2006"

const topUsers = 10

const msgTooLong = "The analysis results are too long to display in a single message. Please see the attached file for user stats."

// analyzeChat computes statistics from an uploaded chat log export. Discord
// only gives three seconds for the first response, so it is deferred and
// everything else goes out as followups.
func (b *Bot) analyzeChat(ctx context.Context, q *request, opts options) error {
	if err := q.deferReply(); err != nil {
		return err
	}

	var file *discordgo.MessageAttachment
	if q.data.Resolved != nil {
		file = q.data.Resolved.Attachments[opts.str("file")]
	}
	if file == nil || !strings.HasSuffix(strings.ToLower(file.Filename), ".html") {
		return b.followupText(q, "Please upload an HTML file.")
	}

	var analyzeOpts chatlog.Options
	for _, d := range []struct {
		opt string
		dst *time.Time
	}{
		{"start_date", &analyzeOpts.Start},
		{"end_date", &analyzeOpts.End},
	} {
		v := opts.str(d.opt)
		if v == "" {
			continue
		}
		t, err := time.Parse(dateLayout, v)
		if err != nil {
			return b.followupText(q, fmt.Sprintf("Invalid date format: '%s' does not match DD-MM-YYYY", v))
		}
		*d.dst = t
	}

	content, err := b.dc.Download(ctx, file.URL)
	if err != nil {
		return fmt.Errorf("error downloading chat log: %w", err)
	}

	status, err := b.dc.Followup(q.i, &discordgo.WebhookParams{Content: "Processing chat history..."})
	if err != nil {
		return fmt.Errorf("error sending status message: %w", err)
	}
	analyzeOpts.Progress = func(n int) {
		msg := chatlog.ProgressMessage(n)
		if err := b.dc.EditFollowup(q.i, status.ID, &discordgo.WebhookEdit{Content: &msg}); err != nil {
			b.l.Warnw("error updating analysis progress", "err", err)
		}
	}

	rep, err := chatlog.Analyze(bytes.NewReader(content), analyzeOpts)
	if errors.Is(err, chatlog.ErrNoMessages) {
		return b.followupText(q, "No messages were found in the chat log for the given dates.")
	}
	if err != nil {
		return err
	}

	b.l.Infow("analyzed chat log", "guild_id", q.i.GuildID, "file", file.Filename, "messages", rep.TotalMessages, "users", len(rep.Users))

	_, err = b.dc.Followup(q.i, analysisMessage(rep))
	if err != nil {
		return fmt.Errorf("error sending analysis: %w", err)
	}

	return nil
}

// analysisMessage puts everything in one embed when discord allows it. Otherwise
// the per-user stats move into an attached text file.
func analysisMessage(rep *chatlog.Report) *discordgo.WebhookParams {
	embed := &discordgo.MessageEmbed{Title: "Chat Analysis Results", Color: colorBrand}
	embed.Fields = []*discordgo.MessageEmbedField{
		{Name: "Overview", Value: rep.Overview()},
		{Name: "Top 10 Users by Word Count:", Value: rep.TopSection(chatlog.Words, topUsers)},
		{Name: "Top 10 Users by Messages Sent:", Value: rep.TopSection(chatlog.Messages, topUsers)},
		{Name: "Top 10 Users by Attachments Sent:", Value: rep.TopSection(chatlog.Attachments, topUsers)},
	}

	full := *embed
	full.Fields = append([]*discordgo.MessageEmbedField{}, embed.Fields...)
	for _, u := range rep.Users {
		full.Fields = append(full.Fields, &discordgo.MessageEmbedField{
			Name:  fmt.Sprintf("Stats for %s", userMention(u.ID)),
			Value: rep.UserSection(u, false, false),
		})
	}
	if fitsLimits(&full) {
		return &discordgo.WebhookParams{Embeds: []*discordgo.MessageEmbed{&full}}
	}

	return &discordgo.WebhookParams{
		Content: msgTooLong,
		Embeds:  []*discordgo.MessageEmbed{embed},
		Files: []*discordgo.File{
			{
				Name:        "user_stats.txt",
				ContentType: "text/plain",
				Reader:      strings.NewReader(rep.UserSections(true)),
			},
		},
	}
}

func (b *Bot) followupText(q *request, content string) error {
	if _, err := b.dc.Followup(q.i, &discordgo.WebhookParams{Content: content}); err != nil {
		return fmt.Errorf("error sending followup: %w", err)
	}
	return nil
}
