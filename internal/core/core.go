package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/jdholdren/wordcount/internal/core/db"
	"github.com/jdholdren/wordcount/internal/core/models"
)

var (
	ErrNotEnabled      = errors.New("word count is not enabled on this server")
	ErrAlreadyEnabled  = errors.New("word count is already enabled on the whole server")
	ErrAlreadyDisabled = errors.New("word count is already disabled on the whole server")
	ErrChannelsTracked = errors.New("word count is enabled for specific channels")
	ErrServerWide      = errors.New("word count is already enabled on the whole server")
	ErrNotServerWide   = errors.New("word count is not enabled for the whole server")
	ErrAlreadyTracked  = errors.New("word count is already being recorded in this channel")
	ErrNotTracked      = errors.New("word count is not being recorded in this channel")
	ErrAlreadyIgnored  = errors.New("channel is already being ignored")
	ErrNotIgnored      = errors.New("channel is not being ignored")
	ErrNoIgnored       = errors.New("there are no ignored channels")
	ErrKeywordExists   = errors.New("keyword already exists")
	ErrKeywordNotFound = errors.New("keyword does not exist")
	ErrInvalidKeyword  = errors.New("keyword must be a single word")
	ErrNothingRecorded = errors.New("nothing has been recorded")
)

type Core struct {
	db db.DB
}

func New(db db.DB) Core {
	return Core{
		db: db,
	}
}

// Settings reads what the guild is recording
func (c Core) Settings(ctx context.Context, guildID string) (models.Settings, error) {
	tracked, err := c.db.TrackedChannels(ctx, guildID)
	if err != nil {
		return models.Settings{}, fmt.Errorf("error getting tracked channels: %w", err)
	}

	ignored, err := c.db.IgnoredChannels(ctx, guildID)
	if err != nil {
		return models.Settings{}, fmt.Errorf("error getting ignored channels: %w", err)
	}

	s := models.Settings{Ignored: ignored}
	for _, id := range tracked {
		if id == models.AllChannels {
			s.ServerWide = true
			continue
		}
		s.Channels = append(s.Channels, id)
	}

	return s, nil
}

// IsEnabled reports whether the guild records anything
func (c Core) IsEnabled(ctx context.Context, guildID string) (bool, error) {
	s, err := c.Settings(ctx, guildID)
	if err != nil {
		return false, err
	}

	return s.Enabled(), nil
}

// EnableServer starts recording every channel of the guild. It refuses with
// ErrChannelsTracked when specific channels are set, see ForceEnableServer.
func (c Core) EnableServer(ctx context.Context, guildID string) error {
	s, err := c.Settings(ctx, guildID)
	if err != nil {
		return err
	}

	switch {
	case s.ServerWide:
		return ErrAlreadyEnabled
	case len(s.Channels) > 0:
		return ErrChannelsTracked
	}

	if err := c.db.AddTrackedChannel(ctx, guildID, models.AllChannels); err != nil {
		return fmt.Errorf("error enabling server: %w", err)
	}

	return nil
}

// ForceEnableServer replaces any specific channels with server wide recording
func (c Core) ForceEnableServer(ctx context.Context, guildID string) error {
	if err := c.db.ReplaceTrackedChannels(ctx, guildID, []string{models.AllChannels}, false); err != nil {
		return fmt.Errorf("error enabling server: %w", err)
	}

	return nil
}

// DisableServer stops server wide recording. It refuses with ErrChannelsTracked
// when specific channels are set, see ForceDisableServer.
func (c Core) DisableServer(ctx context.Context, guildID string) error {
	s, err := c.Settings(ctx, guildID)
	if err != nil {
		return err
	}

	switch {
	case len(s.Channels) > 0:
		return ErrChannelsTracked
	case !s.ServerWide:
		return ErrAlreadyDisabled
	}

	return c.ForceDisableServer(ctx, guildID)
}

// ForceDisableServer stops all recording in the guild and forgets ignored channels
func (c Core) ForceDisableServer(ctx context.Context, guildID string) error {
	if err := c.db.ReplaceTrackedChannels(ctx, guildID, nil, true); err != nil {
		return fmt.Errorf("error disabling server: %w", err)
	}

	return nil
}

// TrackChannel records a single channel
func (c Core) TrackChannel(ctx context.Context, guildID, channelID string) error {
	s, err := c.Settings(ctx, guildID)
	if err != nil {
		return err
	}

	if s.ServerWide {
		return ErrServerWide
	}
	if lo.Contains(s.Channels, channelID) {
		return ErrAlreadyTracked
	}

	if err := c.db.AddTrackedChannel(ctx, guildID, channelID); err != nil {
		return fmt.Errorf("error tracking channel: %w", err)
	}

	return nil
}

// UntrackChannel stops recording a single channel
func (c Core) UntrackChannel(ctx context.Context, guildID, channelID string) error {
	s, err := c.Settings(ctx, guildID)
	if err != nil {
		return err
	}

	if s.ServerWide {
		return ErrServerWide
	}
	if !lo.Contains(s.Channels, channelID) {
		return ErrNotTracked
	}

	if err := c.db.RemoveTrackedChannel(ctx, guildID, channelID); err != nil {
		return fmt.Errorf("error untracking channel: %w", err)
	}

	return nil
}

// IgnoreChannel excludes a channel from server wide recording
func (c Core) IgnoreChannel(ctx context.Context, guildID, channelID string) error {
	s, err := c.ignorable(ctx, guildID)
	if err != nil {
		return err
	}

	if lo.Contains(s.Ignored, channelID) {
		return ErrAlreadyIgnored
	}

	if err := c.db.AddIgnoredChannel(ctx, guildID, channelID); err != nil {
		return fmt.Errorf("error ignoring channel: %w", err)
	}

	return nil
}

// UnignoreChannel puts an ignored channel back into server wide recording
func (c Core) UnignoreChannel(ctx context.Context, guildID, channelID string) error {
	s, err := c.ignorable(ctx, guildID)
	if err != nil {
		return err
	}

	if len(s.Ignored) == 0 {
		return ErrNoIgnored
	}
	if !lo.Contains(s.Ignored, channelID) {
		return ErrNotIgnored
	}

	if err := c.db.RemoveIgnoredChannel(ctx, guildID, channelID); err != nil {
		return fmt.Errorf("error unignoring channel: %w", err)
	}

	return nil
}

func (c Core) ignorable(ctx context.Context, guildID string) (models.Settings, error) {
	s, err := c.Settings(ctx, guildID)
	if err != nil {
		return models.Settings{}, err
	}

	if !s.Enabled() {
		return models.Settings{}, ErrNotEnabled
	}
	if !s.ServerWide {
		return models.Settings{}, ErrNotServerWide
	}

	return s, nil
}

// AddKeyword starts counting a keyword in the guild. Keywords are stored lower case.
func (c Core) AddKeyword(ctx context.Context, guildID, keyword string) (string, error) {
	kw, err := normalizeKeyword(keyword)
	if err != nil {
		return "", err
	}

	enabled, err := c.IsEnabled(ctx, guildID)
	if err != nil {
		return "", err
	}
	if !enabled {
		return "", ErrNotEnabled
	}

	added, err := c.db.AddKeyword(ctx, guildID, kw)
	if err != nil {
		return "", fmt.Errorf("error adding keyword: %w", err)
	}
	if !added {
		return kw, ErrKeywordExists
	}

	return kw, nil
}

// RemoveKeyword stops counting a keyword. Existing counts are kept.
func (c Core) RemoveKeyword(ctx context.Context, guildID, keyword string) (string, error) {
	kw, err := normalizeKeyword(keyword)
	if err != nil {
		return "", err
	}

	enabled, err := c.IsEnabled(ctx, guildID)
	if err != nil {
		return "", err
	}
	if !enabled {
		return "", ErrNotEnabled
	}

	removed, err := c.db.RemoveKeyword(ctx, guildID, kw)
	if err != nil {
		return "", fmt.Errorf("error removing keyword: %w", err)
	}
	if !removed {
		return kw, ErrKeywordNotFound
	}

	return kw, nil
}

func (c Core) Keywords(ctx context.Context, guildID string) ([]string, error) {
	kws, err := c.db.Keywords(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("error getting keywords: %w", err)
	}

	return kws, nil
}

func normalizeKeyword(keyword string) (string, error) {
	kw := strings.ToLower(strings.TrimSpace(keyword))
	if kw == "" || len(strings.Fields(kw)) != 1 {
		return "", ErrInvalidKeyword
	}

	return kw, nil
}

// WordLeaderboard lists users by words said, for the server or one channel
func (c Core) WordLeaderboard(ctx context.Context, guildID, channelID string) ([]models.Count, error) {
	enabled, err := c.IsEnabled(ctx, guildID)
	if err != nil {
		return nil, err
	}
	if !enabled {
		return nil, ErrNotEnabled
	}

	counts, err := c.db.TopCounts(ctx, models.Words, guildID, channelID, 0)
	if err != nil {
		return nil, fmt.Errorf("error getting word leaderboard: %w", err)
	}

	return counts, nil
}

// MessageLeaderboard lists users by messages sent, for the server or one channel
func (c Core) MessageLeaderboard(ctx context.Context, guildID, channelID string) ([]models.Count, error) {
	counts, err := c.db.TopCounts(ctx, models.Messages, guildID, channelID, 0)
	if err != nil {
		return nil, fmt.Errorf("error getting message leaderboard: %w", err)
	}

	return counts, nil
}

// AttachmentLeaderboard lists the top ten users by attachments sent
func (c Core) AttachmentLeaderboard(ctx context.Context, guildID, channelID string) ([]models.Count, error) {
	counts, err := c.db.TopCounts(ctx, models.Attachments, guildID, channelID, 10)
	if err != nil {
		return nil, fmt.Errorf("error getting attachment leaderboard: %w", err)
	}

	return counts, nil
}

// KeywordLeaderboard groups keyword counters by keyword, highest user first
func (c Core) KeywordLeaderboard(ctx context.Context, guildID, channelID string) ([]models.KeywordBoard, error) {
	kcs, err := c.db.KeywordCounts(ctx, guildID, channelID)
	if err != nil {
		return nil, fmt.Errorf("error getting keyword leaderboard: %w", err)
	}

	// Rows come ordered by keyword, then count
	grouped := lo.GroupBy(kcs, func(kc models.KeywordCount) string { return kc.Keyword })
	keywords := lo.Uniq(lo.Map(kcs, func(kc models.KeywordCount, _ int) string { return kc.Keyword }))

	boards := make([]models.KeywordBoard, 0, len(keywords))
	for _, kw := range keywords {
		boards = append(boards, models.KeywordBoard{Keyword: kw, Users: grouped[kw]})
	}

	return boards, nil
}

// UserStats collects every counter of a user
func (c Core) UserStats(ctx context.Context, guildID, userID string) (models.UserStats, error) {
	var (
		stats models.UserStats
		found bool
	)

	for _, k := range []models.CounterKind{models.Words, models.Messages, models.Attachments} {
		n, ok, err := c.db.Total(ctx, k, guildID, userID)
		if err != nil {
			return models.UserStats{}, fmt.Errorf("error getting %s total: %w", k, err)
		}
		found = found || ok

		switch k {
		case models.Words:
			stats.Words = n
		case models.Messages:
			stats.Messages = n
		case models.Attachments:
			stats.Attachments = n
		}
	}

	kws, err := c.db.UserKeywordTotals(ctx, guildID, userID)
	if err != nil {
		return models.UserStats{}, fmt.Errorf("error getting keyword totals: %w", err)
	}
	stats.Keywords = kws
	stats.Recorded = found || len(kws) > 0

	return stats, nil
}

// ResetWords zeroes word counts. Empty userID means every user and empty channelID
// means every channel. ErrNothingRecorded is returned when there is nothing to reset.
func (c Core) ResetWords(ctx context.Context, guildID, userID, channelID string) error {
	n, err := c.db.CountRows(ctx, models.Words, guildID, channelID, userID)
	if err != nil {
		return fmt.Errorf("error checking word counts: %w", err)
	}
	if n == 0 {
		return ErrNothingRecorded
	}

	if err := c.db.ResetCounts(ctx, models.Words, guildID, channelID, userID); err != nil {
		return fmt.Errorf("error resetting word counts: %w", err)
	}

	return nil
}
