package discord

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bwmarrin/discordgo"

	"agentnotify/clients"
	"agentnotify/models"
)

// Threads auto-archive after one week of inactivity
const threadAutoArchiveMinutes = 10080

// DiscordClient implements the clients.GatewayClient interface on top of a
// single persistent discordgo session
type DiscordClient struct {
	session *discordgo.Session
	guildID string

	ready   atomic.Bool
	readyCh chan struct{}

	mu                sync.RWMutex
	messageHandlers   []func(event models.MessageEvent)
	reactionHandlers  []func(event models.ReactionEvent)
	handlersInstalled bool
}

// NewDiscordClient creates a new Discord gateway client for the given guild
func NewDiscordClient(botToken, guildID string) (*DiscordClient, error) {
	session, err := discordgo.New("Bot " + botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}

	session.Identify.Intents = discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMessageReactions |
		discordgo.IntentsGuildVoiceStates |
		discordgo.IntentsMessageContent

	return &DiscordClient{
		session: session,
		guildID: guildID,
		readyCh: make(chan struct{}),
	}, nil
}

// Open establishes the gateway connection and blocks until the Ready event
// arrives or ctx expires
func (c *DiscordClient) Open(ctx context.Context) error {
	c.installHandlers()

	if err := c.session.Open(); err != nil {
		return fmt.Errorf("failed to open Discord gateway connection: %w", err)
	}

	select {
	case <-c.readyCh:
		log.Printf("✅ Discord gateway ready as %s", c.session.State.User.Username)
		return nil
	case <-ctx.Done():
		_ = c.session.Close()
		return fmt.Errorf("timed out waiting for Discord gateway ready: %w", ctx.Err())
	}
}

func (c *DiscordClient) installHandlers() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.handlersInstalled {
		return
	}
	c.handlersInstalled = true

	var readyOnce sync.Once
	c.session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		c.ready.Store(true)
		readyOnce.Do(func() { close(c.readyCh) })
	})
	c.session.AddHandler(func(s *discordgo.Session, d *discordgo.Disconnect) {
		log.Printf("⚠️ Discord gateway disconnected")
		c.ready.Store(false)
	})
	c.session.AddHandler(func(s *discordgo.Session, r *discordgo.Resumed) {
		log.Printf("✅ Discord gateway connection resumed")
		c.ready.Store(true)
	})
	c.session.AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) {
		if m.Author == nil {
			return
		}
		event := models.MessageEvent{
			MessageID: m.ID,
			ChannelID: m.ChannelID,
			GuildID:   m.GuildID,
			UserID:    m.Author.ID,
			Username:  m.Author.Username,
			Content:   m.Content,
			FromBot:   m.Author.Bot,
		}
		for _, fn := range c.snapshotMessageHandlers() {
			go fn(event)
		}
	})
	c.session.AddHandler(func(s *discordgo.Session, r *discordgo.MessageReactionAdd) {
		event := models.ReactionEvent{
			MessageID: r.MessageID,
			ChannelID: r.ChannelID,
			UserID:    r.UserID,
			Emoji:     r.Emoji.Name,
		}
		if r.Member != nil && r.Member.User != nil {
			event.Username = r.Member.User.Username
		}
		for _, fn := range c.snapshotReactionHandlers() {
			go fn(event)
		}
	})
}

func (c *DiscordClient) snapshotMessageHandlers() []func(event models.MessageEvent) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]func(event models.MessageEvent){}, c.messageHandlers...)
}

func (c *DiscordClient) snapshotReactionHandlers() []func(event models.ReactionEvent) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]func(event models.ReactionEvent){}, c.reactionHandlers...)
}

// OnMessageCreate registers a handler for inbound text messages
func (c *DiscordClient) OnMessageCreate(fn func(event models.MessageEvent)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messageHandlers = append(c.messageHandlers, fn)
}

// OnReactionAdd registers a handler for inbound reactions
func (c *DiscordClient) OnReactionAdd(fn func(event models.ReactionEvent)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reactionHandlers = append(c.reactionHandlers, fn)
}

// Close tears down the gateway connection
func (c *DiscordClient) Close() error {
	c.ready.Store(false)
	if err := c.session.Close(); err != nil {
		return fmt.Errorf("failed to close Discord session: %w", err)
	}
	return nil
}

// IsReady reports whether the gateway connection is established
func (c *DiscordClient) IsReady() bool {
	return c.ready.Load()
}

// BotUser returns the gateway's own identity
func (c *DiscordClient) BotUser() (*clients.BotUser, error) {
	if c.session.State == nil || c.session.State.User == nil {
		return nil, fmt.Errorf("bot user not available before gateway ready")
	}
	user := c.session.State.User
	return &clients.BotUser{
		ID:       user.ID,
		Username: user.Username,
		Bot:      user.Bot,
	}, nil
}

// GetChannelInfo fetches channel metadata by ID
func (c *DiscordClient) GetChannelInfo(channelID string) (*clients.ChannelInfo, error) {
	channel, err := c.channel(channelID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch channel %s: %w", channelID, err)
	}
	return &clients.ChannelInfo{
		ID:      channel.ID,
		Name:    channel.Name,
		IsVoice: channel.Type == discordgo.ChannelTypeGuildVoice,
	}, nil
}

func (c *DiscordClient) channel(channelID string) (*discordgo.Channel, error) {
	// State cache first, REST fallback
	if channel, err := c.session.State.Channel(channelID); err == nil {
		return channel, nil
	}
	return c.session.Channel(channelID)
}

// CreateThread creates a public thread in the given channel and returns its ID
func (c *DiscordClient) CreateThread(channelID, name string) (string, error) {
	thread, err := c.session.ThreadStartComplex(channelID, &discordgo.ThreadStart{
		Name:                name,
		AutoArchiveDuration: threadAutoArchiveMinutes,
		Type:                discordgo.ChannelTypeGuildPublicThread,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create thread in channel %s: %w", channelID, err)
	}
	return thread.ID, nil
}

// SendEmbed posts an embed and returns the resulting message ID
func (c *DiscordClient) SendEmbed(channelID string, embed *clients.Embed) (string, error) {
	msg, err := c.session.ChannelMessageSendEmbed(channelID, toMessageEmbed(embed))
	if err != nil {
		return "", fmt.Errorf("failed to send embed to channel %s: %w", channelID, err)
	}
	return msg.ID, nil
}

// EditEmbed replaces the embed of an existing message
func (c *DiscordClient) EditEmbed(channelID, messageID string, embed *clients.Embed) error {
	if _, err := c.session.ChannelMessageEditEmbed(channelID, messageID, toMessageEmbed(embed)); err != nil {
		return fmt.Errorf("failed to edit embed on message %s: %w", messageID, err)
	}
	return nil
}

// SendMessage posts a plain text message
func (c *DiscordClient) SendMessage(channelID, content string) error {
	if _, err := c.session.ChannelMessageSend(channelID, content); err != nil {
		return fmt.Errorf("failed to send message to channel %s: %w", channelID, err)
	}
	return nil
}

// ReplyToMessage posts a reply referencing an existing message
func (c *DiscordClient) ReplyToMessage(channelID, messageID, content string) error {
	ref := &discordgo.MessageReference{
		MessageID: messageID,
		ChannelID: channelID,
		GuildID:   c.guildID,
	}
	if _, err := c.session.ChannelMessageSendReply(channelID, content, ref); err != nil {
		return fmt.Errorf("failed to reply to message %s: %w", messageID, err)
	}
	return nil
}

// ReplyWithEmbed posts an embed reply referencing an existing message
func (c *DiscordClient) ReplyWithEmbed(channelID, messageID string, embed *clients.Embed) error {
	msg := &discordgo.MessageSend{
		Embed: toMessageEmbed(embed),
		Reference: &discordgo.MessageReference{
			MessageID: messageID,
			ChannelID: channelID,
			GuildID:   c.guildID,
		},
	}
	if _, err := c.session.ChannelMessageSendComplex(channelID, msg); err != nil {
		return fmt.Errorf("failed to reply to message %s: %w", messageID, err)
	}
	return nil
}

// AddReaction attaches an emoji reaction to a message
func (c *DiscordClient) AddReaction(channelID, messageID, emoji string) error {
	if err := c.session.MessageReactionAdd(channelID, messageID, emoji); err != nil {
		return fmt.Errorf("failed to add reaction %s to message %s: %w", emoji, messageID, err)
	}
	return nil
}

// JoinVoiceChannel connects to a voice channel and returns the live connection
func (c *DiscordClient) JoinVoiceChannel(channelID string) (clients.VoiceConn, error) {
	vc, err := c.session.ChannelVoiceJoin(c.guildID, channelID, false, true)
	if err != nil {
		return nil, fmt.Errorf("failed to join voice channel %s: %w", channelID, err)
	}
	return &voiceConn{vc: vc}, nil
}

// HeartbeatLatency returns the current gateway heartbeat round-trip time
func (c *DiscordClient) HeartbeatLatency() time.Duration {
	return c.session.HeartbeatLatency()
}

func toMessageEmbed(embed *clients.Embed) *discordgo.MessageEmbed {
	out := &discordgo.MessageEmbed{
		Title:       embed.Title,
		Description: embed.Description,
		Color:       embed.Color,
	}
	if !embed.Timestamp.IsZero() {
		out.Timestamp = embed.Timestamp.UTC().Format(time.RFC3339)
	}
	for _, field := range embed.Fields {
		out.Fields = append(out.Fields, &discordgo.MessageEmbedField{
			Name:   field.Name,
			Value:  field.Value,
			Inline: field.Inline,
		})
	}
	if embed.Footer != "" {
		out.Footer = &discordgo.MessageEmbedFooter{Text: embed.Footer}
	}
	return out
}
