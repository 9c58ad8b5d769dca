package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/jdholdren/wordcount/internal/core/models"
)

// WordCount is the number of whitespace separated tokens
func WordCount(content string) int {
	return len(strings.Fields(content))
}

// AttachmentCount counts uploaded files plus links in the content
func AttachmentCount(content string, files int) int {
	links := lo.CountBy(strings.Fields(content), func(w string) bool {
		return strings.HasPrefix(w, "http://") || strings.HasPrefix(w, "https://")
	})

	return files + links
}

// KeywordOccurrences counts case insensitive whole token matches of keyword
func KeywordOccurrences(content, keyword string) int {
	kw := strings.ToLower(keyword)
	return lo.Count(strings.Fields(strings.ToLower(content)), kw)
}

// counted decides if a message is recorded at all
func (c Core) counted(ctx context.Context, m models.Message) (bool, error) {
	if m.Bot || m.GuildID == "" {
		return false, nil
	}

	s, err := c.Settings(ctx, m.GuildID)
	if err != nil {
		return false, err
	}

	if !s.Enabled() {
		return false, nil
	}
	if lo.Contains(s.Ignored, m.SourceChannelID) || lo.Contains(s.Ignored, m.ChannelID) {
		return false, nil
	}

	return s.ServerWide || lo.Contains(s.Channels, m.ChannelID), nil
}

// RecordMessage adds a new message to the counters
func (c Core) RecordMessage(ctx context.Context, m models.Message) error {
	return c.apply(ctx, models.Message{}, m, 1)
}

// RemoveMessage takes a deleted message back out of the counters
func (c Core) RemoveMessage(ctx context.Context, m models.Message) error {
	return c.apply(ctx, m, models.Message{}, -1)
}

// EditMessage moves the counters by the difference between two versions of a message.
// The message count itself is unchanged.
func (c Core) EditMessage(ctx context.Context, before, after models.Message) error {
	return c.apply(ctx, before, after, 0)
}

// apply records the change from before to after, both of which describe the same
// author and channel; whichever side is set provides them.
func (c Core) apply(ctx context.Context, before, after models.Message, messages int64) error {
	ref := after
	if messages < 0 {
		ref = before
	}

	ok, err := c.counted(ctx, ref)
	if err != nil {
		return fmt.Errorf("error checking message: %w", err)
	}
	if !ok {
		return nil
	}

	kws, err := c.db.Keywords(ctx, ref.GuildID)
	if err != nil {
		return fmt.Errorf("error getting keywords: %w", err)
	}
	for _, kw := range kws {
		delta := int64(KeywordOccurrences(after.Content, kw) - KeywordOccurrences(before.Content, kw))
		if err := c.db.AdjustKeywordCount(ctx, ref.GuildID, ref.ChannelID, ref.AuthorID, kw, delta); err != nil {
			return fmt.Errorf("error counting keyword: %w", err)
		}
	}

	attachments := int64(AttachmentCount(after.Content, after.Attachments) - AttachmentCount(before.Content, before.Attachments))
	if err := c.db.AdjustCount(ctx, models.Attachments, ref.GuildID, ref.ChannelID, ref.AuthorID, attachments); err != nil {
		return fmt.Errorf("error counting attachments: %w", err)
	}

	words := int64(WordCount(after.Content) - WordCount(before.Content))
	if err := c.db.AdjustCount(ctx, models.Words, ref.GuildID, ref.ChannelID, ref.AuthorID, words); err != nil {
		return fmt.Errorf("error counting words: %w", err)
	}

	if err := c.db.AdjustCount(ctx, models.Messages, ref.GuildID, ref.ChannelID, ref.AuthorID, messages); err != nil {
		return fmt.Errorf("error counting messages: %w", err)
	}

	return nil
}
