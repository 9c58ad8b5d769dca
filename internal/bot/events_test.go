package bot

import (
	"context"
	"testing"

	"github.com/bwmarrin/discordgo"
)

func chatMessage(channelID, authorID, content string) *discordgo.Message {
	return &discordgo.Message{
		ID:        "m-" + authorID,
		GuildID:   guildID,
		ChannelID: channelID,
		Author:    &discordgo.User{ID: authorID},
		Content:   content,
	}
}

func TestMessageEvents(t *testing.T) {
	b, dc := newTestBot(t)
	ctx := context.Background()

	dc.channels["t1"] = &discordgo.Channel{ID: "t1", Type: discordgo.ChannelTypeGuildPublicThread, ParentID: "c1"}
	dc.members["u1"] = &discordgo.Member{User: &discordgo.User{ID: "u1", Username: "one"}, Nick: "Uno"}
	dc.members["u2"] = &discordgo.Member{User: &discordgo.User{ID: "u2", Username: "two", GlobalName: "Two"}}
	noErr(t, b.cr.TrackChannel(ctx, guildID, "c1"))

	noErr(t, b.MessageCreated(ctx, chatMessage("c1", "u1", "one two three")))
	noErr(t, b.MessageCreated(ctx, chatMessage("t1", "u2", "thread words")))
	// Untracked channels and bots are not counted
	noErr(t, b.MessageCreated(ctx, chatMessage("c2", "u2", "not counted at all")))
	botMsg := chatMessage("c1", "u3", "beep boop")
	botMsg.Author.Bot = true
	noErr(t, b.MessageCreated(ctx, botMsg))

	params := deferred(t, b, dc, slash("words", sub("leaderboard")))
	check(t, "embed", &discordgo.MessageEmbed{
		Title:       "📝 Word Count Leaderboard",
		Description: "The word count leaderboard for the whole server\n\n🥇 **Uno** - 3 words\n🥈 **Two** - 2 words",
		Color:       colorBrand,
		Footer:      &discordgo.MessageEmbedFooter{Text: "Page 1/1 • Total users: 2"},
	}, followupEmbed(t, params))
	check(t, "components", 0, len(params.Components))

	// Edits count the difference, partial updates keep the author
	before := chatMessage("c1", "u1", "one two three")
	after := &discordgo.Message{ID: before.ID, ChannelID: "c1", Content: "one"}
	noErr(t, b.MessageUpdated(ctx, before, after))

	noErr(t, b.MessageDeleted(ctx, chatMessage("t1", "u2", "thread words")))

	params = deferred(t, b, dc, slash("words", sub("leaderboard", opt("channel", "c1"))))
	check(t, "description", "The word count leaderboard for the channel <#c1>\n\n🥇 **Uno** - 1 words", followupEmbed(t, params).Description)

	stats, err := b.cr.UserStats(ctx, guildID, "u2")
	noErr(t, err)
	check(t, "u2 words and messages", []int64{0, 0}, []int64{stats.Words, stats.Messages})
}

func TestUncachedEventsSkipped(t *testing.T) {
	b, _ := newTestBot(t)

	// Nothing to compare against, so these are no-ops rather than panics
	b.OnMessageUpdate(nil, &discordgo.MessageUpdate{Message: chatMessage("c1", "u1", "edited")})
	b.OnMessageDelete(nil, &discordgo.MessageDelete{Message: &discordgo.Message{ID: "gone"}})
}

func TestOwnerCommands(t *testing.T) {
	b, dc := newTestBot(t)
	ctx := context.Background()

	noErr(t, b.MessageCreated(ctx, chatMessage("c1", "owner", "!wc sync")))
	check(t, "registered", 1, dc.registered)
	if len(dc.embeds) != 2 {
		t.Fatalf("got %d embeds after sync, want 2", len(dc.embeds))
	}
	check(t, "titles", []string{"🔄 Command Sync", "✅ Sync Successful"}, []string{dc.embeds[0].Title, dc.embeds[1].Title})
	check(t, "description", "**2 commands** have been synchronized globally", dc.embeds[1].Description)
	check(t, "commands", "• `count`\n• `help`", dc.embeds[1].Fields[0].Value)

	noErr(t, b.MessageCreated(ctx, chatMessage("c1", "owner", "!wc clear")))
	check(t, "cleared", 1, dc.cleared)
	if len(dc.embeds) != 4 {
		t.Fatalf("got %d embeds after clear, want 4", len(dc.embeds))
	}
	check(t, "description", "Successfully removed **2 commands** from the command tree", dc.embeds[3].Description)
	check(t, "summary", "📊 Summary", dc.embeds[3].Fields[0].Name)

	noErr(t, b.MessageCreated(ctx, chatMessage("c1", "someone", "!wc sync")))
	noErr(t, b.MessageCreated(ctx, chatMessage("c1", "owner", "!wc reload")))
	check(t, "sent", []string{
		"You cannot use this command because you are not the owner of this bot.",
		"Invalid command. Use `/help` for a list of available commands.",
	}, dc.sent)
	check(t, "registered", 1, dc.registered)

	// Other guilds are ignored
	other := chatMessage("c1", "owner", "!wc sync")
	other.GuildID = "guild-2"
	noErr(t, b.MessageCreated(ctx, other))
	check(t, "registered", 1, dc.registered)
}
