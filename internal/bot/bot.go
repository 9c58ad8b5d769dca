// Package bot holds the discord handlers: gateway message events that feed
// the counters, and the slash commands, context menus and buttons that
// manage and display them.
package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/jdholdren/wordcount/internal/core"
	"github.com/jdholdren/wordcount/internal/paginator"
)

// Embed colors
const (
	colorBrand = 0xaf2202
	colorRed   = 0xe74c3c
	colorGreen = 0x2ecc71
	colorBlue  = 0x3498db
)

var (
	metricsEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wordcount_message_events_total",
		Help: "Message events received from the gateway",
	}, []string{"event"})

	metricsInteractions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wordcount_interactions_total",
		Help: "Interactions handled, by command",
	}, []string{"command"})

	metricsErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wordcount_interaction_errors_total",
		Help: "Interactions that ended in an unexpected error",
	}, []string{"command"})
)

// Discord is what the handlers need from the discord client
type Discord interface {
	Member(guildID, userID string) (*discordgo.Member, error)
	User(userID string) (*discordgo.User, error)
	Channel(channelID string) (*discordgo.Channel, error)
	Guild(guildID string) (*discordgo.Guild, error)

	Followup(i *discordgo.Interaction, params *discordgo.WebhookParams) (*discordgo.Message, error)
	EditFollowup(i *discordgo.Interaction, messageID string, edit *discordgo.WebhookEdit) error
	SendEmbed(channelID string, embed *discordgo.MessageEmbed) error
	SendMessage(channelID, content string) error
	Download(ctx context.Context, url string) ([]byte, error)

	RegisterCommands(ctx context.Context, guildID string) ([]*discordgo.ApplicationCommand, error)
	ClearCommands(ctx context.Context, guildID string) (int, error)
}

// A Responder sends the first response to an interaction. Over the gateway
// that is a REST call, over the webhook it is the HTTP response body.
type Responder interface {
	Respond(resp *discordgo.InteractionResponse) error
}

type ResponderFunc func(resp *discordgo.InteractionResponse) error

func (f ResponderFunc) Respond(resp *discordgo.InteractionResponse) error {
	return f(resp)
}

type Config struct {
	// Prefix starts the owner text commands
	Prefix  string
	OwnerID string
	// GuildIDs are the guilds owner commands are accepted in. Empty allows all.
	GuildIDs []string

	PaginatorTimeout time.Duration
}

type Bot struct {
	cr    core.Core
	dc    Discord
	pages *paginator.Manager
	cfg   Config

	commands map[string]commandHandler
	buttons  map[string]buttonHandler

	l *zap.SugaredLogger
}

type (
	commandHandler func(ctx context.Context, q *request, opts options) error
	buttonHandler  func(ctx context.Context, q *request) error
)

func New(cr core.Core, dc Discord, pages *paginator.Manager, cfg Config, l *zap.SugaredLogger) *Bot {
	if cfg.PaginatorTimeout <= 0 {
		cfg.PaginatorTimeout = paginator.DefaultTimeout
	}

	b := &Bot{
		cr:    cr,
		dc:    dc,
		pages: pages,
		cfg:   cfg,
		l:     l,
	}

	b.commands = map[string]commandHandler{
		"count server set":       b.serverSet,
		"count server settings":  b.serverSettings,
		"count channel set":      b.channelSet,
		"count channel remove":   b.channelRemove,
		"count channel ignore":   b.channelIgnore,
		"count reset":            b.reset,
		"words leaderboard":      b.wordLeaderboard,
		"message leaderboard":    b.messageLeaderboard,
		"attachment leaderboard": b.attachmentLeaderboard,
		"keyword add":            b.keywordAdd,
		"keyword remove":         b.keywordRemove,
		"keyword leaderboard":    b.keywordLeaderboard,
		"keyword list":           b.keywordList,
		"analyze_chat":           b.analyzeChat,
		"help":                   b.help,
	}
	b.buttons = map[string]buttonHandler{
		btnEnableConfirm:  b.confirmEnable,
		btnEnableCancel:   b.cancelServerChange,
		btnDisableConfirm: b.confirmDisable,
		btnDisableCancel:  b.cancelServerChange,
	}

	return b
}

// request is one interaction being handled
type request struct {
	i    *discordgo.Interaction
	data discordgo.ApplicationCommandInteractionData
	r    Responder
	dc   Discord

	responded bool
	// deferred means the rest of the answer goes out as followups
	deferred bool
}

func (q *request) respond(resp *discordgo.InteractionResponse) error {
	if err := q.r.Respond(resp); err != nil {
		return fmt.Errorf("error responding to interaction: %w", err)
	}
	q.responded = true
	return nil
}

// deferReply acknowledges the interaction before any slow work. Discord shows
// a loading state until the first followup.
func (q *request) deferReply() error {
	err := q.respond(&discordgo.InteractionResponse{Type: discordgo.InteractionResponseDeferredChannelMessageWithSource})
	if err != nil {
		return err
	}
	q.deferred = true
	return nil
}

// send delivers a message, as the response or as a followup once deferred
func (q *request) send(data *discordgo.InteractionResponseData) error {
	if !q.deferred {
		return q.respond(&discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: data,
		})
	}

	_, err := q.dc.Followup(q.i, &discordgo.WebhookParams{
		Content:    data.Content,
		Embeds:     data.Embeds,
		Components: data.Components,
		Flags:      data.Flags,
	})
	if err != nil {
		return fmt.Errorf("error sending followup: %w", err)
	}
	return nil
}

// reply answers with a single embed
func (q *request) reply(embed *discordgo.MessageEmbed, ephemeral bool) error {
	data := &discordgo.InteractionResponseData{Embeds: []*discordgo.MessageEmbed{embed}}
	if ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}

	return q.send(data)
}

// fail answers with a private error embed
func (q *request) fail(description string) error {
	return q.reply(errorEmbed(description), true)
}

func (q *request) userID() string {
	if q.i.Member != nil && q.i.Member.User != nil {
		return q.i.Member.User.ID
	}
	if q.i.User != nil {
		return q.i.User.ID
	}
	return ""
}

func (q *request) canManageGuild() bool {
	return q.i.Member != nil && q.i.Member.Permissions&discordgo.PermissionManageServer != 0
}

func (q *request) resolvedUser(id string) *discordgo.User {
	if q.data.Resolved == nil {
		return nil
	}
	if u, ok := q.data.Resolved.Users[id]; ok {
		return u
	}
	if m, ok := q.data.Resolved.Members[id]; ok && m.User != nil {
		return m.User
	}
	return nil
}

// OnInteractionCreate handles interactions received over the gateway
func (b *Bot) OnInteractionCreate(s *discordgo.Session, ic *discordgo.InteractionCreate) {
	b.HandleInteraction(context.Background(), ic.Interaction, ResponderFunc(func(resp *discordgo.InteractionResponse) error {
		return s.InteractionRespond(ic.Interaction, resp)
	}))
}

// HandleInteraction routes an interaction to its handler. Errors never leave:
// they are logged and shown to the user.
func (b *Bot) HandleInteraction(ctx context.Context, i *discordgo.Interaction, r Responder) {
	q := &request{i: i, r: r, dc: b.dc}

	name, err := b.route(ctx, q)
	metricsInteractions.WithLabelValues(name).Inc()
	if err == nil {
		return
	}

	msg, known := userMessage(err)
	if !known {
		metricsErrors.WithLabelValues(name).Inc()
		b.l.Errorw("error handling interaction", "command", name, "guild_id", i.GuildID, "err", err)
		msg = fmt.Sprintf("An error occurred: %s", err)
	}

	b.sendError(q, msg)
}

func (b *Bot) sendError(q *request, msg string) {
	if !q.responded {
		if err := q.fail(msg); err != nil {
			b.l.Errorw("error sending error response", "err", err)
		}
		return
	}

	q.deferred = true
	if err := q.fail(msg); err != nil {
		b.l.Errorw("error sending error followup", "err", err)
	}
}

func (b *Bot) route(ctx context.Context, q *request) (string, error) {
	switch q.i.Type {
	case discordgo.InteractionApplicationCommand:
		q.data = q.i.ApplicationCommandData()

		switch q.data.CommandType {
		case discordgo.MessageApplicationCommand:
			return q.data.Name, b.messageWordCount(ctx, q)
		case discordgo.UserApplicationCommand:
			return q.data.Name, b.userStats(ctx, q)
		}

		path, opts := commandPath(q.data)
		h, ok := b.commands[path]
		if !ok {
			return path, fmt.Errorf("unknown command '%s'", path)
		}
		if q.i.GuildID == "" && path != "help" {
			return path, q.fail("This command can only be used in a server.")
		}

		return path, h(ctx, q, opts)
	case discordgo.InteractionMessageComponent:
		if resp, ok := b.pages.Handle(q.i); ok {
			return paginator.Prefix, q.respond(resp)
		}

		id := q.i.MessageComponentData().CustomID
		h, ok := b.buttons[id]
		if !ok {
			return "button", fmt.Errorf("unknown button '%s'", id)
		}

		return id, h(ctx, q)
	}

	return "unknown", fmt.Errorf("unsupported interaction type %s", q.i.Type)
}

// commandPath joins the command, group and subcommand names and returns the
// options of the innermost one
func commandPath(data discordgo.ApplicationCommandInteractionData) (string, options) {
	parts := []string{data.Name}
	opts := data.Options

	for len(opts) == 1 {
		o := opts[0]
		if o.Type != discordgo.ApplicationCommandOptionSubCommandGroup && o.Type != discordgo.ApplicationCommandOptionSubCommand {
			break
		}
		parts = append(parts, o.Name)
		opts = o.Options
	}

	m := options{}
	for _, o := range opts {
		m[o.Name] = o
	}

	return strings.Join(parts, " "), m
}

type options map[string]*discordgo.ApplicationCommandInteractionDataOption

// str returns an option value as a string. Snowflake options (users, channels,
// attachments) arrive as strings too.
func (o options) str(name string) string {
	opt, ok := o[name]
	if !ok {
		return ""
	}
	s, _ := opt.Value.(string)
	return s
}

var userErrors = []struct {
	err error
	msg string
}{
	{core.ErrNotEnabled, "Word count is not enabled on this server"},
	{core.ErrAlreadyEnabled, "Word count is already enabled on the whole server"},
	{core.ErrAlreadyDisabled, "Word count is already disabled on the whole server"},
	{core.ErrServerWide, "Word count is already enabled on the whole server."},
	{core.ErrNotServerWide, "Word count is not enabled for the whole server"},
	{core.ErrAlreadyTracked, "Word count is already being recorded in this channel."},
	{core.ErrNotTracked, "Word count is not being recorded in this channel"},
	{core.ErrNoIgnored, "There are no ignored channels."},
	{core.ErrInvalidKeyword, "Keywords must be a single word."},
}

// userMessage maps expected errors to what the user is told
func userMessage(err error) (string, bool) {
	for _, ue := range userErrors {
		if errors.Is(err, ue.err) {
			return ue.msg, true
		}
	}
	return "", false
}

func errorEmbed(description string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{Title: "Error", Description: description, Color: colorRed}
}

func successEmbed(description string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{Title: "Success", Description: description, Color: colorGreen}
}

func channelMention(id string) string {
	return fmt.Sprintf("<#%s>", id)
}

func userMention(id string) string {
	return fmt.Sprintf("<@%s>", id)
}
