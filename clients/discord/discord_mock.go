package discord

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"agentnotify/clients"
	"agentnotify/models"
)

// MockGatewayClient implements the clients.GatewayClient interface for testing
type MockGatewayClient struct {
	mock.Mock

	MessageHandlers  []func(event models.MessageEvent)
	ReactionHandlers []func(event models.ReactionEvent)
}

// Open mocks establishing the gateway connection
func (m *MockGatewayClient) Open(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Close mocks tearing down the gateway connection
func (m *MockGatewayClient) Close() error {
	args := m.Called()
	return args.Error(0)
}

// IsReady mocks the connection readiness check
func (m *MockGatewayClient) IsReady() bool {
	args := m.Called()
	return args.Bool(0)
}

// BotUser mocks fetching the gateway's own identity
func (m *MockGatewayClient) BotUser() (*clients.BotUser, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*clients.BotUser), args.Error(1)
}

// GetChannelInfo mocks fetching channel metadata
func (m *MockGatewayClient) GetChannelInfo(channelID string) (*clients.ChannelInfo, error) {
	args := m.Called(channelID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*clients.ChannelInfo), args.Error(1)
}

// CreateThread mocks creating a public thread
func (m *MockGatewayClient) CreateThread(channelID, name string) (string, error) {
	args := m.Called(channelID, name)
	return args.String(0), args.Error(1)
}

// SendEmbed mocks posting an embed
func (m *MockGatewayClient) SendEmbed(channelID string, embed *clients.Embed) (string, error) {
	args := m.Called(channelID, embed)
	return args.String(0), args.Error(1)
}

// EditEmbed mocks replacing the embed of an existing message
func (m *MockGatewayClient) EditEmbed(channelID, messageID string, embed *clients.Embed) error {
	args := m.Called(channelID, messageID, embed)
	return args.Error(0)
}

// SendMessage mocks posting a plain text message
func (m *MockGatewayClient) SendMessage(channelID, content string) error {
	args := m.Called(channelID, content)
	return args.Error(0)
}

// ReplyToMessage mocks posting a reply
func (m *MockGatewayClient) ReplyToMessage(channelID, messageID, content string) error {
	args := m.Called(channelID, messageID, content)
	return args.Error(0)
}

// ReplyWithEmbed mocks posting an embed reply
func (m *MockGatewayClient) ReplyWithEmbed(channelID, messageID string, embed *clients.Embed) error {
	args := m.Called(channelID, messageID, embed)
	return args.Error(0)
}

// AddReaction mocks attaching an emoji reaction
func (m *MockGatewayClient) AddReaction(channelID, messageID, emoji string) error {
	args := m.Called(channelID, messageID, emoji)
	return args.Error(0)
}

// JoinVoiceChannel mocks connecting to a voice channel
func (m *MockGatewayClient) JoinVoiceChannel(channelID string) (clients.VoiceConn, error) {
	args := m.Called(channelID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(clients.VoiceConn), args.Error(1)
}

// OnMessageCreate records the registered message handler
func (m *MockGatewayClient) OnMessageCreate(fn func(event models.MessageEvent)) {
	m.MessageHandlers = append(m.MessageHandlers, fn)
}

// OnReactionAdd records the registered reaction handler
func (m *MockGatewayClient) OnReactionAdd(fn func(event models.ReactionEvent)) {
	m.ReactionHandlers = append(m.ReactionHandlers, fn)
}

// HeartbeatLatency mocks the gateway heartbeat round-trip time
func (m *MockGatewayClient) HeartbeatLatency() time.Duration {
	args := m.Called()
	return args.Get(0).(time.Duration)
}

// MockVoiceConn implements the clients.VoiceConn interface for testing
type MockVoiceConn struct {
	mock.Mock
}

// PlayFile mocks blocking audio playback
func (m *MockVoiceConn) PlayFile(ctx context.Context, path string) error {
	args := m.Called(ctx, path)
	return args.Error(0)
}

// Disconnect mocks leaving the voice channel
func (m *MockVoiceConn) Disconnect() error {
	args := m.Called()
	return args.Error(0)
}
