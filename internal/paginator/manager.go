package paginator

import (
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

const (
	msgExpired   = "This menu has expired."
	msgNotAuthor = "You cannot interact with this menu."
)

// Manager keeps live paginators until they time out and answers their
// button presses.
type Manager struct {
	live *cache.Cache
	l    *zap.SugaredLogger
}

func NewManager(l *zap.SugaredLogger) *Manager {
	return &Manager{
		live: cache.New(DefaultTimeout, time.Minute),
		l:    l,
	}
}

// Start registers the paginator and returns the message showing its first view.
// Paginators with a single view are not registered.
func (m *Manager) Start(p *Paginator, ephemeral bool) *discordgo.InteractionResponseData {
	data := p.Render()
	if ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}

	if p.MaxPages() > 1 {
		m.live.Set(p.id, p, p.timeout)
		m.l.Debugw("paginator started", "id", p.id, "pages", p.MaxPages())
	}

	return data
}

// Stop forgets a paginator; its buttons expire
func (m *Manager) Stop(id string) {
	m.live.Delete(id)
}

// Handle answers a component interaction. ok is false when the interaction
// does not belong to a paginator.
func (m *Manager) Handle(i *discordgo.Interaction) (resp *discordgo.InteractionResponse, ok bool) {
	if i.Type != discordgo.InteractionMessageComponent {
		return nil, false
	}
	id, action, ok := ParseCustomID(i.MessageComponentData().CustomID)
	if !ok {
		return nil, false
	}

	v, found := m.live.Get(id)
	if !found {
		return ephemeral(msgExpired), true
	}
	p := v.(*Paginator)

	if p.authorID != "" && interactionUser(i) != p.authorID {
		return ephemeral(msgNotAuthor), true
	}

	// Each use restarts the timeout
	m.live.Set(id, p, p.timeout)

	switch action {
	case actionPrevious:
		p.Previous()
	case actionNext:
		p.Next()
	default:
		return &discordgo.InteractionResponse{Type: discordgo.InteractionResponseDeferredMessageUpdate}, true
	}

	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: p.Render(),
	}, true
}

func ephemeral(content string) *discordgo.InteractionResponse {
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	}
}

func interactionUser(i *discordgo.Interaction) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}
