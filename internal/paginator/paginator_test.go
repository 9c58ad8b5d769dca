package paginator

import (
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func pages(n int) []Page {
	out := make([]Page, n)
	for i := range out {
		out[i] = Page{Content: fmt.Sprintf("page %d", i+1)}
	}
	return out
}

func navButtons(t *testing.T, comps []discordgo.MessageComponent) (prev, indicator, next discordgo.Button) {
	t.Helper()
	require.NotEmpty(t, comps)
	row, ok := comps[0].(discordgo.ActionsRow)
	require.True(t, ok)
	require.Len(t, row.Components, 3)

	return row.Components[0].(discordgo.Button), row.Components[1].(discordgo.Button), row.Components[2].(discordgo.Button)
}

func TestMaxPages(t *testing.T) {
	for _, tc := range []struct {
		pages, perPage, want int
	}{
		{0, 1, 0},
		{1, 1, 1},
		{5, 1, 5},
		{5, 2, 3},
		{6, 3, 2},
	} {
		p := New(pages(tc.pages), WithPerPage(tc.perPage))
		assert.Equal(t, tc.want, p.MaxPages(), "%d pages, %d per page", tc.pages, tc.perPage)
	}
}

func TestNavigationClamps(t *testing.T) {
	p := New(pages(3))

	p.Previous()
	assert.Equal(t, 0, p.Current())

	p.Next()
	p.Next()
	p.Next()
	assert.Equal(t, 2, p.Current())

	prev, indicator, next := navButtons(t, p.Components())
	assert.False(t, prev.Disabled)
	assert.True(t, next.Disabled)
	assert.True(t, indicator.Disabled)
	assert.Equal(t, "Page 3/3", indicator.Label)
}

func TestNavigationLoops(t *testing.T) {
	p := New(pages(3), WithLoop())

	p.Previous()
	assert.Equal(t, 2, p.Current())
	p.Next()
	assert.Equal(t, 0, p.Current())

	prev, _, next := navButtons(t, p.Components())
	assert.False(t, prev.Disabled)
	assert.False(t, next.Disabled)
}

func TestPageMerging(t *testing.T) {
	embed := &discordgo.MessageEmbed{Title: "e"}
	p := New([]Page{
		{Content: "a"},
		{Content: "b", Embeds: []*discordgo.MessageEmbed{embed}},
		{Content: "c"},
	}, WithPerPage(2))

	assert.Equal(t, Page{Content: "a\nb", Embeds: []*discordgo.MessageEmbed{embed}}, p.Page(0))
	assert.Equal(t, Page{Content: "c"}, p.Page(1))
}

func TestPageOutOfRangeResets(t *testing.T) {
	p := New(pages(3))
	p.Next()
	p.Next()

	assert.Equal(t, "page 1", p.Page(7).Content)
	assert.Equal(t, 0, p.Current())
}

func TestSinglePageHasNoNavigation(t *testing.T) {
	p := New(pages(1))
	assert.Nil(t, p.Components())

	extra := discordgo.Button{Label: "Confirm", Style: discordgo.SuccessButton, CustomID: "confirm"}
	p = New(pages(1), WithButtons(extra))
	assert.Equal(t, []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{extra}},
	}, p.Components())
}

func TestExtraButtonsGoBelow(t *testing.T) {
	extra := discordgo.Button{Label: "Cancel", Style: discordgo.DangerButton, CustomID: "cancel"}
	p := New(pages(2), WithButtons(extra))

	comps := p.Components()
	require.Len(t, comps, 2)
	assert.Equal(t, discordgo.ActionsRow{Components: []discordgo.MessageComponent{extra}}, comps[1])
}

func TestParseCustomID(t *testing.T) {
	p := New(pages(2))
	id, action, ok := ParseCustomID(p.customID(actionNext))
	assert.True(t, ok)
	assert.Equal(t, p.ID(), id)
	assert.Equal(t, actionNext, action)

	_, _, ok = ParseCustomID("count:confirm-enable")
	assert.False(t, ok)
}

func press(customID, userID string) *discordgo.Interaction {
	return &discordgo.Interaction{
		Type:   discordgo.InteractionMessageComponent,
		Member: &discordgo.Member{User: &discordgo.User{ID: userID}},
		Data:   discordgo.MessageComponentInteractionData{CustomID: customID},
	}
}

func TestManager(t *testing.T) {
	m := NewManager(zap.NewNop().Sugar())
	p := New(pages(3), WithAuthor("author"))

	data := m.Start(p, false)
	assert.Equal(t, "page 1", data.Content)

	resp, ok := m.Handle(press(p.customID(actionNext), "author"))
	require.True(t, ok)
	assert.Equal(t, discordgo.InteractionResponseUpdateMessage, resp.Type)
	assert.Equal(t, "page 2", resp.Data.Content)

	resp, ok = m.Handle(press(p.customID(actionPage), "author"))
	require.True(t, ok)
	assert.Equal(t, discordgo.InteractionResponseDeferredMessageUpdate, resp.Type)

	resp, ok = m.Handle(press(p.customID(actionPrevious), "someone"))
	require.True(t, ok)
	assert.Equal(t, msgNotAuthor, resp.Data.Content)
	assert.Equal(t, discordgo.MessageFlagsEphemeral, resp.Data.Flags)
	assert.Equal(t, 1, p.Current(), "other users cannot move the page")

	m.Stop(p.ID())
	resp, ok = m.Handle(press(p.customID(actionNext), "author"))
	require.True(t, ok)
	assert.Equal(t, msgExpired, resp.Data.Content)

	_, ok = m.Handle(press("count:cancel", "author"))
	assert.False(t, ok)
}

func TestManagerTimeout(t *testing.T) {
	m := NewManager(zap.NewNop().Sugar())
	p := New(pages(2), WithTimeout(10*time.Millisecond))
	m.Start(p, true)

	time.Sleep(30 * time.Millisecond)

	resp, ok := m.Handle(press(p.customID(actionNext), "anyone"))
	require.True(t, ok)
	assert.Equal(t, msgExpired, resp.Data.Content)
}

func TestManagerSkipsSinglePage(t *testing.T) {
	m := NewManager(zap.NewNop().Sugar())
	p := New(pages(1))

	data := m.Start(p, true)
	assert.Nil(t, data.Components)
	assert.Equal(t, discordgo.MessageFlagsEphemeral, data.Flags)
	assert.Equal(t, 0, m.live.ItemCount())
}
