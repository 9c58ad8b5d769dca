package chatlog

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Metric selects which statistic a ranking uses
type Metric int

const (
	Words Metric = iota
	Messages
	Attachments
)

func (m Metric) String() string {
	switch m {
	case Words:
		return "words"
	case Messages:
		return "messages"
	case Attachments:
		return "attachments"
	}
	return "unknown"
}

// MonthStats is one user's activity in a calendar month
type MonthStats struct {
	Year        int
	Month       time.Month
	Words       int
	Messages    int
	Attachments int
}

// UserStats is one author's activity in the log
type UserStats struct {
	ID          string
	Name        string
	Words       int
	Messages    int
	Attachments int
	// Months is ordered chronologically
	Months []MonthStats
}

func (u *UserStats) value(m Metric) int {
	switch m {
	case Words:
		return u.Words
	case Messages:
		return u.Messages
	case Attachments:
		return u.Attachments
	}
	return 0
}

// Report is the result of Analyze
type Report struct {
	TotalMessages    int
	TotalWords       int
	TotalAttachments int
	// Users are in order of first appearance in the log
	Users []*UserStats
}

// Top ranks users by a metric, keeping log order among ties
func (r *Report) Top(m Metric, n int) []*UserStats {
	ranked := make([]*UserStats, len(r.Users))
	copy(ranked, r.Users)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].value(m) > ranked[j].value(m)
	})

	if n > 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// Overview summarises the whole log
func (r *Report) Overview() string {
	return fmt.Sprintf(
		"Total Messages: %d\nTotal Words: %d\nTotal Attachments: %d",
		r.TotalMessages, r.TotalWords, r.TotalAttachments,
	)
}

// TopSection renders the top n users of a metric, one mention per line
func (r *Report) TopSection(m Metric, n int) string {
	var b strings.Builder
	for i, u := range r.Top(m, n) {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "<@%s>: %d %s", u.ID, u.value(m), m)
	}
	return b.String()
}

// UserSection renders the stats of one user. The header line is left out when
// withHeader is false, and the author name is added when withName is true.
func (r *Report) UserSection(u *UserStats, withHeader, withName bool) string {
	lines := []string{}
	if withHeader {
		lines = append(lines, fmt.Sprintf("User: <@%s>", u.ID))
	}
	if withName {
		lines = append(lines, fmt.Sprintf("Username: %s", u.Name))
	}
	lines = append(lines,
		fmt.Sprintf("Total Messages: %d", u.Messages),
		fmt.Sprintf("Total Words: %d", u.Words),
		fmt.Sprintf("Total Attachments: %d", u.Attachments),
	)

	year := 0
	for _, m := range u.Months {
		if m.Year != year {
			year = m.Year
			lines = append(lines, fmt.Sprintf("Year %d:", year))
		}
		lines = append(lines, fmt.Sprintf(
			"  Month %02d: %d words, %d messages, %d attachments",
			int(m.Month), m.Words, m.Messages, m.Attachments,
		))
	}

	return strings.Join(lines, "\n")
}

// UserSections renders every user, separated by blank lines
func (r *Report) UserSections(withName bool) string {
	sections := make([]string, 0, len(r.Users))
	for _, u := range r.Users {
		sections = append(sections, r.UserSection(u, true, withName))
	}
	return strings.Join(sections, "\n\n")
}
