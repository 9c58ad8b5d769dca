package chatlog

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixtureMsg struct {
	userID, name, timestamp, content string
	embed                            string
	attachments                      int
	bot                              bool
	noTimestamp                      bool
}

func (m fixtureMsg) html() string {
	var b strings.Builder
	b.WriteString(`<div class="chatlog__message-group"><div class="chatlog__messages">`)
	fmt.Fprintf(&b, `<span class="chatlog__author" title="%s" data-user-id="%s">%s</span>`, m.name, m.userID, m.name)
	if m.bot {
		b.WriteString(`<span class="chatlog__author-tag">BOT</span>`)
	}
	if !m.noTimestamp {
		fmt.Fprintf(&b, `<span class="chatlog__timestamp"><a href="#">%s</a></span>`, m.timestamp)
	}
	fmt.Fprintf(&b, `<div class="chatlog__content chatlog__markdown"><span class="chatlog__markdown-preserve">%s</span></div>`, m.content)
	if m.embed != "" {
		fmt.Fprintf(&b, `<div class="chatlog__embed-description"><div class="chatlog__markdown chatlog__markdown-preserve">%s</div></div>`, m.embed)
	}
	for i := 0; i < m.attachments; i++ {
		fmt.Fprintf(&b, `<div class="chatlog__attachment"><a href="file-%d.png">file</a></div>`, i)
	}
	b.WriteString(`</div></div>`)
	return b.String()
}

func page(msgs ...fixtureMsg) *strings.Reader {
	var b strings.Builder
	b.WriteString("<html><body><div class=\"chatlog\">")
	for _, m := range msgs {
		b.WriteString(m.html())
	}
	b.WriteString("</div></body></html>")
	return strings.NewReader(b.String())
}

var fixture = []fixtureMsg{
	{userID: "1", name: "alice", timestamp: "05/01/2023 10:00", content: "hello <b>big</b> world", attachments: 1},
	{userID: "2", name: "bob", timestamp: "06/01/2023 10:00", content: "hi", embed: "an embed line"},
	{userID: "1", name: "alice", timestamp: "10-02-2023 11:00:00", content: "again"},
	{userID: "3", name: "robot", timestamp: "06/01/2023 10:00", content: "beep", bot: true},
	{userID: "2", name: "bob", noTimestamp: true, content: "lost"},
	{userID: "2", name: "bob", timestamp: "yesterday", content: "lost"},
}

func TestAnalyze(t *testing.T) {
	rep, err := Analyze(page(fixture...), Options{})
	require.NoError(t, err)

	assert.Equal(t, 3, rep.TotalMessages)
	assert.Equal(t, 8, rep.TotalWords)
	assert.Equal(t, 1, rep.TotalAttachments)

	require.Len(t, rep.Users, 2)
	alice := rep.Users[0]
	assert.Equal(t, "1", alice.ID)
	assert.Equal(t, "alice", alice.Name)
	assert.Equal(t, 4, alice.Words)
	assert.Equal(t, 2, alice.Messages)
	assert.Equal(t, []MonthStats{
		{Year: 2023, Month: time.January, Words: 3, Messages: 1, Attachments: 1},
		{Year: 2023, Month: time.February, Words: 1, Messages: 1},
	}, alice.Months)

	bob := rep.Users[1]
	assert.Equal(t, 4, bob.Words, "embed descriptions count as words")
}

func TestAnalyzeDateRange(t *testing.T) {
	opts := Options{
		Start: time.Date(2023, time.February, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2023, time.February, 10, 0, 0, 0, 0, time.UTC),
	}

	rep, err := Analyze(page(fixture...), opts)
	require.NoError(t, err)

	assert.Equal(t, 1, rep.TotalMessages, "end date includes the whole day")
	require.Len(t, rep.Users, 1)
	assert.Equal(t, "alice", rep.Users[0].Name)
}

func TestAnalyzeNoMessages(t *testing.T) {
	_, err := Analyze(page(fixture[3], fixture[4]), Options{})
	assert.ErrorIs(t, err, ErrNoMessages)
}

func TestAnalyzeProgress(t *testing.T) {
	msgs := make([]fixtureMsg, 2500)
	for i := range msgs {
		msgs[i] = fixtureMsg{userID: "1", name: "alice", timestamp: "05/01/2023 10:00", content: "x"}
	}

	var got []int
	rep, err := Analyze(page(msgs...), Options{Progress: func(n int) { got = append(got, n) }})
	require.NoError(t, err)

	assert.Equal(t, 2500, rep.TotalMessages)
	assert.Equal(t, []int{1000, 2000}, got)
	assert.Equal(t, "Processed 1000 messages...", ProgressMessage(got[0]))
}

func TestReportSections(t *testing.T) {
	rep, err := Analyze(page(fixture...), Options{})
	require.NoError(t, err)

	assert.Equal(t, "Total Messages: 3\nTotal Words: 8\nTotal Attachments: 1", rep.Overview())
	// Tied on words, so log order wins
	assert.Equal(t, "<@1>: 4 words\n<@2>: 4 words", rep.TopSection(Words, 10))
	assert.Equal(t, "<@1>: 2 messages", rep.TopSection(Messages, 1))

	want := strings.Join([]string{
		"User: <@1>",
		"Username: alice",
		"Total Messages: 2",
		"Total Words: 4",
		"Total Attachments: 1",
		"Year 2023:",
		"  Month 01: 3 words, 1 messages, 1 attachments",
		"  Month 02: 1 words, 1 messages, 0 attachments",
	}, "\n")
	assert.Equal(t, want, rep.UserSection(rep.Users[0], true, true))
}
