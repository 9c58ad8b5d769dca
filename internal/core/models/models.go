// Package models provides the structs exposed by the core package,
// but put in an independent package to break the dependency cycle
// between `core` and `db`
package models

// AllChannels is stored as the tracked channel id when a guild records every channel
const AllChannels = "all"

// A CounterKind names one family of counters. Every kind has a per-channel
// table and a per-server totals table.
type CounterKind string

const (
	Words       CounterKind = "word"
	Messages    CounterKind = "message"
	Attachments CounterKind = "attachment"
)

// CountsTable is the per-channel table for the kind
func (k CounterKind) CountsTable() string {
	return string(k) + "_counts"
}

// TotalsTable is the per-server aggregate table for the kind
func (k CounterKind) TotalsTable() string {
	return string(k) + "_totals"
}

// Valid reports whether k is one of the known kinds
func (k CounterKind) Valid() bool {
	switch k {
	case Words, Messages, Attachments:
		return true
	}
	return false
}

// A Count is a counter attached to a user, either in one channel or across the guild.
// ChannelID is empty for server totals.
type Count struct {
	GuildID   string `db:"guild_id"`
	ChannelID string `db:"channel_id"`
	UserID    string `db:"user_id"`
	Count     int64  `db:"count"`
}

// A KeywordCount counts how many times a user said a keyword
type KeywordCount struct {
	GuildID   string `db:"guild_id"`
	ChannelID string `db:"channel_id"`
	UserID    string `db:"user_id"`
	Keyword   string `db:"keyword"`
	Count     int64  `db:"count"`
}

// KeywordBoard is one keyword with its users, highest count first
type KeywordBoard struct {
	Keyword string
	Users   []KeywordCount
}

// Settings describes what a guild records
type Settings struct {
	ServerWide bool
	Channels   []string
	Ignored    []string
}

// Enabled reports whether anything is recorded in the guild
func (s Settings) Enabled() bool {
	return s.ServerWide || len(s.Channels) > 0
}

// UserStats is everything recorded for a single user in a guild
type UserStats struct {
	Words       int64
	Messages    int64
	Attachments int64
	Keywords    []KeywordCount

	// Recorded is false when the user has no rows at all
	Recorded bool
}

// A Message is the part of a chat message the counters care about
type Message struct {
	GuildID string
	// ChannelID is where the message is counted: the parent channel for thread messages
	ChannelID string
	// SourceChannelID is where the message was actually sent
	SourceChannelID string
	AuthorID        string
	Bot             bool
	Content         string
	// Attachments is the number of uploaded files
	Attachments int
}
