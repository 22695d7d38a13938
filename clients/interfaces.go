package clients

import (
	"context"
	"encoding/json"
	"time"

	"agentnotify/models"
)

// GatewayClient defines the capability the notifier requires from the chat
// gateway. Implemented by clients/discord; mocked in tests.
type GatewayClient interface {
	// Open establishes the gateway connection and blocks until it is ready
	Open(ctx context.Context) error
	// Close tears down the gateway connection
	Close() error
	// IsReady reports whether the gateway connection is established
	IsReady() bool
	// BotUser returns the gateway's own identity
	BotUser() (*BotUser, error)
	// GetChannelInfo fetches channel metadata by ID
	GetChannelInfo(channelID string) (*ChannelInfo, error)
	// CreateThread creates a public thread in the given channel and returns its ID
	CreateThread(channelID, name string) (string, error)
	// SendEmbed posts an embed and returns the resulting message ID
	SendEmbed(channelID string, embed *Embed) (string, error)
	// EditEmbed replaces the embed of an existing message
	EditEmbed(channelID, messageID string, embed *Embed) error
	// SendMessage posts a plain text message
	SendMessage(channelID, content string) error
	// ReplyToMessage posts a reply referencing an existing message
	ReplyToMessage(channelID, messageID, content string) error
	// ReplyWithEmbed posts an embed reply referencing an existing message
	ReplyWithEmbed(channelID, messageID string, embed *Embed) error
	// AddReaction attaches an emoji reaction to a message
	AddReaction(channelID, messageID, emoji string) error
	// JoinVoiceChannel connects to a voice channel and returns the live connection
	JoinVoiceChannel(channelID string) (VoiceConn, error)
	// OnMessageCreate registers a handler for inbound text messages
	OnMessageCreate(fn func(event models.MessageEvent))
	// OnReactionAdd registers a handler for inbound reactions
	OnReactionAdd(fn func(event models.ReactionEvent))
	// HeartbeatLatency returns the current gateway heartbeat round-trip time
	HeartbeatLatency() time.Duration
}

// VoiceConn is a live voice channel connection. At most one exists at a time;
// the voice session controller owns its lifecycle.
type VoiceConn interface {
	// PlayFile plays an audio clip from disk, blocking until playback completes
	PlayFile(ctx context.Context, path string) error
	// Disconnect leaves the voice channel
	Disconnect() error
}

// VoicevoxClient defines the narrow contract with the VOICEVOX Engine
type VoicevoxClient interface {
	// IsAvailable reports whether the engine responds to a version probe
	IsAvailable(ctx context.Context) bool
	// GetSpeakers lists the available speakers and their styles
	GetSpeakers(ctx context.Context) ([]Speaker, error)
	// CreateAudioQuery builds a synthesis query for the given text
	CreateAudioQuery(ctx context.Context, text string, speakerID int) (json.RawMessage, error)
	// Synthesize renders an audio query into WAV bytes
	Synthesize(ctx context.Context, audioQuery json.RawMessage, speakerID int) ([]byte, error)
	// TextToSpeech composes CreateAudioQuery and Synthesize
	TextToSpeech(ctx context.Context, text string, speakerID int) ([]byte, error)
}
