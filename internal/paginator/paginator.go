// Package paginator cycles a message through a fixed list of pages with
// previous/next buttons.
package paginator

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
)

const (
	// Prefix starts the custom id of every paginator button
	Prefix = "pager"

	actionPrevious = "prev"
	actionNext     = "next"
	actionPage     = "page"

	DefaultTimeout = 3 * time.Minute
)

// A Page is the content shown at once. Pages grouped by PerPage are merged:
// contents joined by newlines and embeds appended.
type Page struct {
	Content string
	Embeds  []*discordgo.MessageEmbed
}

type Paginator struct {
	id       string
	pages    []Page
	authorID string
	perPage  int
	loop     bool
	timeout  time.Duration
	extra    []discordgo.MessageComponent

	mu      sync.Mutex
	current int
}

type Option func(*Paginator)

// WithAuthor restricts the buttons to one user
func WithAuthor(userID string) Option {
	return func(p *Paginator) { p.authorID = userID }
}

// WithPerPage shows n pages at once
func WithPerPage(n int) Option {
	return func(p *Paginator) {
		if n > 0 {
			p.perPage = n
		}
	}
}

// WithLoop wraps around at both ends instead of disabling the buttons
func WithLoop() Option {
	return func(p *Paginator) { p.loop = true }
}

// WithTimeout sets how long the paginator lives after its last use
func WithTimeout(d time.Duration) Option {
	return func(p *Paginator) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// WithButtons adds buttons under the navigation row
func WithButtons(buttons ...discordgo.Button) Option {
	return func(p *Paginator) {
		for _, b := range buttons {
			p.extra = append(p.extra, b)
		}
	}
}

func New(pages []Page, opts ...Option) *Paginator {
	p := &Paginator{
		id:      uuid.NewString(),
		pages:   pages,
		perPage: 1,
		timeout: DefaultTimeout,
	}
	for _, o := range opts {
		o(p)
	}

	return p
}

// NewEmbeds builds a paginator with one embed per page
func NewEmbeds(embeds []*discordgo.MessageEmbed, opts ...Option) *Paginator {
	pages := make([]Page, len(embeds))
	for i, e := range embeds {
		pages[i] = Page{Embeds: []*discordgo.MessageEmbed{e}}
	}

	return New(pages, opts...)
}

func (p *Paginator) ID() string {
	return p.id
}

// MaxPages is the number of distinct views
func (p *Paginator) MaxPages() int {
	total := len(p.pages) / p.perPage
	if len(p.pages)%p.perPage != 0 {
		total++
	}
	return total
}

// Current is the zero based index of the shown view
func (p *Paginator) Current() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.current
}

// Next moves one view forward
func (p *Paginator) Next() {
	p.mu.Lock()
	defer p.mu.Unlock()

	last := p.MaxPages() - 1
	switch {
	case p.loop && p.current >= last:
		p.current = 0
	case p.current < last:
		p.current++
	}
}

// Previous moves one view back
func (p *Paginator) Previous() {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch {
	case p.loop && p.current <= 0:
		p.current = max(p.MaxPages()-1, 0)
	case p.current > 0:
		p.current--
	}
}

// Page merges the pages of view n. An out of range n shows the first view
// and moves the paginator back to it.
func (p *Paginator) Page(n int) Page {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.page(n)
}

func (p *Paginator) page(n int) Page {
	if n < 0 || n >= p.MaxPages() {
		p.current = 0
		n = 0
	}
	if len(p.pages) == 0 {
		return Page{}
	}

	base := n * p.perPage
	group := p.pages[base:min(base+p.perPage, len(p.pages))]

	var (
		contents []string
		merged   Page
	)
	for _, pg := range group {
		if pg.Content != "" {
			contents = append(contents, pg.Content)
		}
		merged.Embeds = append(merged.Embeds, pg.Embeds...)
	}
	merged.Content = strings.Join(contents, "\n")

	return merged
}

func (p *Paginator) customID(action string) string {
	return fmt.Sprintf("%s:%s:%s", Prefix, p.id, action)
}

// Components lays out the buttons for the current view
func (p *Paginator) Components() []discordgo.MessageComponent {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.components()
}

func (p *Paginator) components() []discordgo.MessageComponent {
	maxPages := p.MaxPages()
	if maxPages <= 1 {
		if len(p.extra) == 0 {
			return nil
		}
		return []discordgo.MessageComponent{discordgo.ActionsRow{Components: p.extra}}
	}

	rows := []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    "◀️ Previous",
					Style:    discordgo.SecondaryButton,
					Disabled: !p.loop && p.current == 0,
					CustomID: p.customID(actionPrevious),
				},
				discordgo.Button{
					Label:    fmt.Sprintf("Page %d/%d", p.current+1, maxPages),
					Style:    discordgo.PrimaryButton,
					Disabled: true,
					CustomID: p.customID(actionPage),
				},
				discordgo.Button{
					Label:    "Next ▶️",
					Style:    discordgo.SecondaryButton,
					Disabled: !p.loop && p.current == maxPages-1,
					CustomID: p.customID(actionNext),
				},
			},
		},
	}
	if len(p.extra) > 0 {
		rows = append(rows, discordgo.ActionsRow{Components: p.extra})
	}

	return rows
}

// Render builds the message for the current view
func (p *Paginator) Render() *discordgo.InteractionResponseData {
	p.mu.Lock()
	defer p.mu.Unlock()

	pg := p.page(p.current)
	return &discordgo.InteractionResponseData{
		Content:    pg.Content,
		Embeds:     pg.Embeds,
		Components: p.components(),
	}
}

// ParseCustomID splits a paginator button id. ok is false for other components.
func ParseCustomID(customID string) (id, action string, ok bool) {
	parts := strings.Split(customID, ":")
	if len(parts) != 3 || parts[0] != Prefix {
		return "", "", false
	}

	return parts[1], parts[2], true
}
