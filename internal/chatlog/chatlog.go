// Package chatlog computes word, message and attachment statistics from an
// exported Discord chat log in HTML form.
//
// Every `chatlog__message-group` element counts as one message. Groups sent by
// bots, or without an author or a readable timestamp, are skipped.
package chatlog

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// ProgressInterval is how many messages are processed between progress callbacks
const ProgressInterval = 1000

var ErrNoMessages = errors.New("no messages found in the chat log")

var timestampLayouts = []string{
	"02/01/2006 15:04",
	"02-01-2006 15:04:05",
}

const (
	selGroup      = "div[class*='chatlog__message-group']"
	selAuthor     = "span.chatlog__author"
	selTimestamp  = "span.chatlog__timestamp a"
	selAuthorTag  = "span.chatlog__author-tag"
	selAttachment = "div.chatlog__attachment > a"
	selContent    = "div[class*='chatlog__content'] > span.chatlog__markdown-preserve, " +
		"div.chatlog__embed-description div.chatlog__markdown.chatlog__markdown-preserve"
)

// Options narrows down an analysis
type Options struct {
	// Start and End bound the analysed messages. Zero values are unbounded and
	// End covers its whole day.
	Start time.Time
	End   time.Time

	// Progress is called with the number of processed messages every ProgressInterval messages
	Progress func(processed int)
}

func (o Options) inRange(t time.Time) bool {
	if !o.Start.IsZero() && t.Before(o.Start) {
		return false
	}
	if !o.End.IsZero() && !t.Before(o.End.AddDate(0, 0, 1)) {
		return false
	}
	return true
}

// Analyze reads a chat log and aggregates it
func Analyze(r io.Reader, opts Options) (*Report, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("error parsing chat log: %s", err)
	}

	rep := &Report{}
	users := map[string]*UserStats{}
	months := map[string]map[monthKey]*MonthStats{}

	doc.Find(selGroup).Each(func(_ int, msg *goquery.Selection) {
		author := msg.Find(selAuthor).First()
		if author.Length() == 0 {
			return
		}
		name := author.AttrOr("title", "Unknown")
		userID := author.AttrOr("data-user-id", "Unknown")

		ts := msg.Find(selTimestamp).First()
		if ts.Length() == 0 {
			return
		}

		isBot := false
		msg.Find(selAuthorTag).EachWithBreak(func(_ int, tag *goquery.Selection) bool {
			isBot = strings.TrimSpace(tag.Text()) == "BOT"
			return !isBot
		})
		if isBot {
			return
		}

		date, ok := parseTimestamp(strings.TrimSpace(ts.Text()))
		if !ok || !opts.inRange(date) {
			return
		}

		words := len(strings.Fields(strings.Join(textNodes(msg.Find(selContent)), " ")))
		attachments := msg.Find(selAttachment).Length()

		u, ok := users[userID]
		if !ok {
			u = &UserStats{ID: userID}
			users[userID] = u
			months[userID] = map[monthKey]*MonthStats{}
			rep.Users = append(rep.Users, u)
		}
		u.Name = name
		u.Words += words
		u.Messages++
		u.Attachments += attachments

		key := monthKey{year: date.Year(), month: date.Month()}
		m, ok := months[userID][key]
		if !ok {
			m = &MonthStats{Year: key.year, Month: key.month}
			months[userID][key] = m
		}
		m.Words += words
		m.Messages++
		m.Attachments += attachments

		rep.TotalMessages++
		rep.TotalWords += words
		rep.TotalAttachments += attachments

		if opts.Progress != nil && rep.TotalMessages%ProgressInterval == 0 {
			opts.Progress(rep.TotalMessages)
		}
	})

	if rep.TotalMessages == 0 {
		return nil, ErrNoMessages
	}

	for _, u := range rep.Users {
		for _, m := range months[u.ID] {
			u.Months = append(u.Months, *m)
		}
		sort.Slice(u.Months, func(i, j int) bool {
			if u.Months[i].Year != u.Months[j].Year {
				return u.Months[i].Year < u.Months[j].Year
			}
			return u.Months[i].Month < u.Months[j].Month
		})
	}

	return rep, nil
}

// ProgressMessage is the status line shown while a log is processed
func ProgressMessage(processed int) string {
	return fmt.Sprintf("Processed %d messages...", processed)
}

type monthKey struct {
	year  int
	month time.Month
}

func parseTimestamp(s string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// textNodes returns the text of every node under the selection, once per node
func textNodes(sel *goquery.Selection) []string {
	seen := map[*html.Node]bool{}
	var out []string

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode && !seen[n] {
			seen[n] = true
			out = append(out, n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range sel.Nodes {
		walk(n)
	}

	return out
}
