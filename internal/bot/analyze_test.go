package bot

import (
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/google/go-cmp/cmp"

	"github.com/jdholdren/wordcount/internal/chatlog"
)

func chatLog(lines ...[3]string) []byte {
	var b strings.Builder
	b.WriteString(`<html><body><div class="chatlog">`)
	for _, l := range lines {
		fmt.Fprintf(&b, `<div class="chatlog__message-group"><div class="chatlog__messages">`+
			`<span class="chatlog__author" title="%[1]s" data-user-id="%[1]s">%[1]s</span>`+
			`<span class="chatlog__timestamp"><a href="#">%[2]s</a></span>`+
			`<div class="chatlog__content chatlog__markdown"><span class="chatlog__markdown-preserve">%[3]s</span></div>`+
			`</div></div>`, l[0], l[1], l[2])
	}
	b.WriteString(`</div></body></html>`)
	return []byte(b.String())
}

func analyzeInteraction(filename string, opts ...*discordgo.ApplicationCommandInteractionDataOption) *discordgo.Interaction {
	i := slash("analyze_chat")
	i.Data = discordgo.ApplicationCommandInteractionData{
		Name:        "analyze_chat",
		CommandType: discordgo.ChatApplicationCommand,
		Options:     append([]*discordgo.ApplicationCommandInteractionDataOption{opt("file", "att1")}, opts...),
		Resolved: &discordgo.ApplicationCommandInteractionDataResolved{
			Attachments: map[string]*discordgo.MessageAttachment{
				"att1": {ID: "att1", Filename: filename, URL: "https://cdn.example.com/" + filename},
			},
		},
	}
	return i
}

func TestAnalyzeChat(t *testing.T) {
	b, dc := newTestBot(t)
	dc.download = chatLog(
		[3]string{"111", "05/01/2023 10:00", "hello there world"},
		[3]string{"222", "06/01/2023 10:00", "hi"},
		[3]string{"111", "07/03/2023 10:00", "later on"},
	)

	resp := handle(t, b, analyzeInteraction("Export.HTML", opt("end_date", "06-01-2023")))
	check(t, "type", discordgo.InteractionResponseDeferredChannelMessageWithSource, resp.Type)

	if len(dc.followups) != 2 {
		t.Fatalf("got %d followups, want 2", len(dc.followups))
	}
	check(t, "status", "Processing chat history...", dc.followups[0].Content)

	results := dc.followups[1]
	if len(results.Embeds) != 1 || len(results.Files) != 0 {
		t.Fatalf("got %d embeds and %d files, want 1 embed", len(results.Embeds), len(results.Files))
	}
	e := results.Embeds[0]
	check(t, "title", "Chat Analysis Results", e.Title)
	if len(e.Fields) != 6 {
		t.Fatalf("got %d fields, want 6", len(e.Fields))
	}
	check(t, "totals", "Total Messages: 2\nTotal Words: 4\nTotal Attachments: 0", e.Fields[0].Value)
	check(t, "top users", "<@111>: 3 words\n<@222>: 1 words", e.Fields[1].Value)
	check(t, "user section", "Stats for <@111>", e.Fields[4].Name)
}

func TestAnalyzeChatRejectsInput(t *testing.T) {
	b, dc := newTestBot(t)

	resp := handle(t, b, analyzeInteraction("export.txt"))
	check(t, "type", discordgo.InteractionResponseDeferredChannelMessageWithSource, resp.Type)

	handle(t, b, analyzeInteraction("export.html", opt("start_date", "2023-01-05")))

	dc.download = chatLog([3]string{"111", "05/01/2023 10:00", "hello"})
	handle(t, b, analyzeInteraction("export.html", opt("start_date", "01-01-2024")))

	var got []string
	for _, f := range dc.followups {
		got = append(got, f.Content)
	}
	want := []string{
		"Please upload an HTML file.",
		"Invalid date format: '2023-01-05' does not match DD-MM-YYYY",
		"Processing chat history...",
		"No messages were found in the chat log for the given dates.",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("followups mismatch (-want +got):\n%s", diff)
	}
}

func TestAnalysisMessageFallsBackToFile(t *testing.T) {
	rep := &chatlog.Report{}
	for n := 0; n < 30; n++ {
		u := &chatlog.UserStats{ID: fmt.Sprintf("%018d", n), Name: fmt.Sprintf("user%d", n), Words: 10, Messages: 1}
		for m := 1; m <= 12; m++ {
			u.Months = append(u.Months, chatlog.MonthStats{Year: 2023, Month: 1, Words: 1, Messages: 1})
		}
		rep.Users = append(rep.Users, u)
		rep.TotalMessages++
		rep.TotalWords += 10
	}

	params := analysisMessage(rep)
	check(t, "content", msgTooLong, params.Content)
	if len(params.Embeds) != 1 || len(params.Files) != 1 {
		t.Fatalf("got %d embeds and %d files, want 1 of each", len(params.Embeds), len(params.Files))
	}
	check(t, "summary fields", 4, len(params.Embeds[0].Fields))
	check(t, "file name", "user_stats.txt", params.Files[0].Name)

	body, err := io.ReadAll(params.Files[0].Reader)
	noErr(t, err)
	contains(t, "file", string(body), "Username: user29")
	contains(t, "file", string(body), "User: <@000000000000000000>")
}
