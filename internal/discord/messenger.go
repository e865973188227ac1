// Package discord adapts a discordgo session to the scheduler's messenger.
package discord

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/aristath/aitrader/internal/domain"
	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
)

// MaxMessageLength is Discord's content limit in characters
const MaxMessageLength = 2000

// threadArchiveMinutes auto-archives day threads after one day of inactivity
const threadArchiveMinutes = 1440

// Session is the part of *discordgo.Session the messenger uses
type Session interface {
	Channel(channelID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	GuildThreadsActive(guildID string, options ...discordgo.RequestOption) (*discordgo.ThreadsList, error)
	ThreadStart(channelID, name string, typ discordgo.ChannelType, archiveDuration int, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageEdit(channelID, messageID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Messenger posts to channels and day threads
type Messenger struct {
	session Session
	log     zerolog.Logger
}

// NewMessenger creates a new messenger
func NewMessenger(session Session, log zerolog.Logger) *Messenger {
	return &Messenger{
		session: session,
		log:     log.With().Str("component", "discord_messenger").Logger(),
	}
}

// FetchChannel returns nil, nil for unknown channels
func (m *Messenger) FetchChannel(ctx context.Context, channelID string) (*domain.Channel, error) {
	ch, err := m.session.Channel(channelID, discordgo.WithContext(ctx))
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch channel %s: %w", channelID, err)
	}
	return toChannel(ch), nil
}

// FindActiveThread returns the first active thread under channel whose name
// contains nameContains
func (m *Messenger) FindActiveThread(ctx context.Context, channel *domain.Channel, nameContains string) (*domain.Channel, error) {
	list, err := m.session.GuildThreadsActive(channel.GuildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to list active threads in guild %s: %w", channel.GuildID, err)
	}
	for _, th := range list.Threads {
		if th.ParentID == channel.ID && strings.Contains(th.Name, nameContains) {
			return toChannel(th), nil
		}
	}
	return nil, nil
}

// CreateThread opens a public thread in channel
func (m *Messenger) CreateThread(ctx context.Context, channel *domain.Channel, name string) (*domain.Channel, error) {
	th, err := m.session.ThreadStart(channel.ID, name, discordgo.ChannelTypeGuildPublicThread, threadArchiveMinutes, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to create thread %q in %s: %w", name, channel.ID, err)
	}
	m.log.Info().Str("channel_id", channel.ID).Str("thread_id", th.ID).Str("name", name).Msg("Created trading thread")
	return toChannel(th), nil
}

// Send posts content, truncated to the Discord limit
func (m *Messenger) Send(ctx context.Context, channelID, content string) (*domain.Message, error) {
	msg, err := m.session.ChannelMessageSend(channelID, Truncate(content), discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to send to %s: %w", channelID, err)
	}
	return &domain.Message{ID: msg.ID, ChannelID: msg.ChannelID, Content: msg.Content}, nil
}

// Edit replaces a message's content, truncated to the Discord limit
func (m *Messenger) Edit(ctx context.Context, msg *domain.Message, content string) error {
	if _, err := m.session.ChannelMessageEdit(msg.ChannelID, msg.ID, Truncate(content), discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to edit message %s: %w", msg.ID, err)
	}
	return nil
}

// Truncate cuts content to MaxMessageLength characters
func Truncate(content string) string {
	runes := []rune(content)
	if len(runes) <= MaxMessageLength {
		return content
	}
	const ellipsis = "…"
	return string(runes[:MaxMessageLength-1]) + ellipsis
}

func toChannel(ch *discordgo.Channel) *domain.Channel {
	if ch == nil {
		return nil
	}
	out := &domain.Channel{
		ID:       ch.ID,
		GuildID:  ch.GuildID,
		ParentID: ch.ParentID,
		Name:     ch.Name,
		Type:     domain.ChannelTypeOther,
	}
	switch ch.Type {
	case discordgo.ChannelTypeGuildText:
		out.Type = domain.ChannelTypeText
	case discordgo.ChannelTypeGuildPublicThread, discordgo.ChannelTypeGuildPrivateThread, discordgo.ChannelTypeGuildNewsThread:
		out.Type = domain.ChannelTypeThread
	}
	return out
}

func isNotFound(err error) bool {
	var restErr *discordgo.RESTError
	if !errors.As(err, &restErr) {
		return false
	}
	if restErr.Response != nil && restErr.Response.StatusCode == http.StatusNotFound {
		return true
	}
	return restErr.Message != nil && restErr.Message.Code == discordgo.ErrCodeUnknownChannel
}
