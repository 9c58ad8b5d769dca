package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/hashicorp/go-cleanhttp"
	"go.uber.org/zap"
)

const apiBase = "https://discord.com/api/v10"

// MaxDownloadSize caps attachment downloads
const MaxDownloadSize = 25 << 20

// Client is the struct that provides interactivity with discord
type Client struct {
	appID      string
	token      string // The secret token
	baseURL    string
	httpClient *http.Client
	downloads  *http.Client

	s *discordgo.Session
	l *zap.SugaredLogger
}

type ClientConfig struct {
	AppID string
	Token string
}

// NewClient produces a new client with the given config. s is used for
// everything but command registration and downloads.
func NewClient(c ClientConfig, s *discordgo.Session, l *zap.SugaredLogger) *Client {
	httpClient := cleanhttp.DefaultPooledClient()
	httpClient.Timeout = 5 * time.Second

	downloads := cleanhttp.DefaultClient()
	downloads.Timeout = time.Minute

	return &Client{
		appID:      c.AppID,
		token:      c.Token,
		baseURL:    apiBase,
		httpClient: httpClient,
		downloads:  downloads,
		s:          s,
		l:          l,
	}
}

func (c *Client) setupRequest(r *http.Request) {
	r.Header.Add("Authorization", fmt.Sprintf("Bot %s", c.token))
	r.Header.Add("Content-Type", "application/json")
}

// commandsURL is the guild command list, or the global one for an empty guildID
func (c *Client) commandsURL(guildID string) string {
	if guildID == "" {
		return fmt.Sprintf("%s/applications/%s/commands", c.baseURL, c.appID)
	}
	return fmt.Sprintf("%s/applications/%s/guilds/%s/commands", c.baseURL, c.appID, guildID)
}

// RegisterCommands reaches out to discord to replace the commands of a guild
// with the ones supported by the app. An empty guildID registers them globally.
func (c *Client) RegisterCommands(ctx context.Context, guildID string) ([]*discordgo.ApplicationCommand, error) {
	var registered []*discordgo.ApplicationCommand
	if err := c.do(ctx, http.MethodPut, c.commandsURL(guildID), Commands(), &registered); err != nil {
		return nil, fmt.Errorf("error registering commands: %w", err)
	}

	c.l.Infow("sucessfully registered commands", "guild_id", guildID, "count", len(registered))

	return registered, nil
}

// ClearCommands removes every command of a guild, or the global ones for an
// empty guildID, and reports how many there were.
func (c *Client) ClearCommands(ctx context.Context, guildID string) (int, error) {
	var existing []*discordgo.ApplicationCommand
	if err := c.do(ctx, http.MethodGet, c.commandsURL(guildID), nil, &existing); err != nil {
		return 0, fmt.Errorf("error listing commands: %w", err)
	}

	if err := c.do(ctx, http.MethodPut, c.commandsURL(guildID), []*discordgo.ApplicationCommand{}, nil); err != nil {
		return 0, fmt.Errorf("error clearing commands: %w", err)
	}

	c.l.Infow("cleared commands", "guild_id", guildID, "count", len(existing))

	return len(existing), nil
}

// do sends body as JSON and decodes the response into out when it's not nil
func (c *Client) do(ctx context.Context, method, u string, body, out any) error {
	var r io.Reader
	if body != nil {
		byts, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("error marshalling body: %s", err)
		}
		r = bytes.NewReader(byts)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, r)
	if err != nil {
		return fmt.Errorf("error creating request: %s", err)
	}
	c.setupRequest(req)

	c.l.Debugw("calling discord api", "method", method, "url", u)

	res, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("error doing request: %s", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		er, err := readErr(res.StatusCode, res.Body)
		if err != nil {
			return fmt.Errorf("error reading error from body: %s", err)
		}

		c.l.Errorw("received error response from api", "err", er, "status_code", res.StatusCode)
		return er
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("error reading from response body: %s", err)
	}

	return nil
}

// Download fetches an attachment
func (c *Client) Download(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating download request: %s", err)
	}

	res, err := c.downloads.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error downloading: %s", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("error downloading: unexpected status %d", res.StatusCode)
	}

	byts, err := io.ReadAll(io.LimitReader(res.Body, MaxDownloadSize+1))
	if err != nil {
		return nil, fmt.Errorf("error reading download: %s", err)
	}
	if len(byts) > MaxDownloadSize {
		return nil, fmt.Errorf("attachment is larger than %d bytes", MaxDownloadSize)
	}

	return byts, nil
}

// Member looks a guild member up in the state cache before asking the api
func (c *Client) Member(guildID, userID string) (*discordgo.Member, error) {
	if m, err := c.s.State.Member(guildID, userID); err == nil {
		return m, nil
	}

	return c.s.GuildMember(guildID, userID)
}

func (c *Client) User(userID string) (*discordgo.User, error) {
	return c.s.User(userID)
}

func (c *Client) Channel(channelID string) (*discordgo.Channel, error) {
	if ch, err := c.s.State.Channel(channelID); err == nil {
		return ch, nil
	}

	return c.s.Channel(channelID)
}

func (c *Client) Guild(guildID string) (*discordgo.Guild, error) {
	if g, err := c.s.State.Guild(guildID); err == nil {
		return g, nil
	}

	return c.s.Guild(guildID)
}

// Followup sends a message after the first response to an interaction
func (c *Client) Followup(i *discordgo.Interaction, params *discordgo.WebhookParams) (*discordgo.Message, error) {
	return c.s.FollowupMessageCreate(i, true, params)
}

// EditFollowup changes a message sent with Followup
func (c *Client) EditFollowup(i *discordgo.Interaction, messageID string, edit *discordgo.WebhookEdit) error {
	_, err := c.s.FollowupMessageEdit(i, messageID, edit)
	return err
}

func (c *Client) SendEmbed(channelID string, embed *discordgo.MessageEmbed) error {
	_, err := c.s.ChannelMessageSendEmbed(channelID, embed)
	return err
}

func (c *Client) SendMessage(channelID, content string) error {
	_, err := c.s.ChannelMessageSend(channelID, content)
	return err
}
