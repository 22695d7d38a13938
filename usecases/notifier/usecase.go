package notifier

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/samber/mo"

	"agentnotify/clients"
	"agentnotify/core"
	"agentnotify/models"
	"agentnotify/services/reactions"
	"agentnotify/services/voice"
	"agentnotify/utils"
)

// DefaultReactionTimeout bounds a reaction wait when the caller supplies none
const DefaultReactionTimeout = 300 * time.Second

// NotifierUseCase is the facade over the shared gateway connection. It owns
// the lazily-created log thread handle; voice state is owned by the voice
// controller and reaction waits by the correlator.
type NotifierUseCase struct {
	gateway    clients.GatewayClient
	correlator *reactions.Correlator
	voice      *voice.Controller

	logChannelID string

	// threadMu is the single-entry guard for thread creation. It protects
	// only the handle, so unrelated facade operations are never blocked by
	// an in-flight creation.
	threadMu   sync.Mutex
	threadID   string
	threadName string
}

// NewNotifierUseCase creates a new instance of NotifierUseCase
func NewNotifierUseCase(
	gateway clients.GatewayClient,
	correlator *reactions.Correlator,
	voiceController *voice.Controller,
	logChannelID string,
	threadName string,
) *NotifierUseCase {
	return &NotifierUseCase{
		gateway:      gateway,
		correlator:   correlator,
		voice:        voiceController,
		logChannelID: logChannelID,
		threadName:   threadName,
	}
}

// EnsureThread returns the log thread handle, creating the thread on first
// use. Concurrent first calls issue exactly one creation request and all
// observe the same resulting handle.
func (u *NotifierUseCase) EnsureThread(ctx context.Context) (string, error) {
	u.threadMu.Lock()
	defer u.threadMu.Unlock()

	if u.threadID != "" {
		return u.threadID, nil
	}

	threadID, err := u.gateway.CreateThread(u.logChannelID, u.threadName)
	if err != nil {
		return "", fmt.Errorf("failed to create log thread: %w", err)
	}
	u.threadID = threadID

	log.Printf("🧵 Created log thread %q (ID: %s)", u.threadName, threadID)
	return threadID, nil
}

// RecreateThread atomically replaces the thread handle with a freshly
// created thread, optionally under a new name. Future logs go to the new
// thread; the old one is left to archive on its own.
func (u *NotifierUseCase) RecreateThread(ctx context.Context, name string) (string, string, error) {
	u.threadMu.Lock()
	defer u.threadMu.Unlock()

	if name != "" {
		u.threadName = name
	}

	threadID, err := u.gateway.CreateThread(u.logChannelID, u.threadName)
	if err != nil {
		return "", "", fmt.Errorf("failed to recreate log thread: %w", err)
	}
	u.threadID = threadID

	log.Printf("🧵 Recreated log thread %q (ID: %s)", u.threadName, threadID)
	return threadID, u.threadName, nil
}

// ThreadID returns the current thread handle without creating one
func (u *NotifierUseCase) ThreadID() mo.Option[string] {
	u.threadMu.Lock()
	defer u.threadMu.Unlock()
	if u.threadID == "" {
		return mo.None[string]()
	}
	return mo.Some(u.threadID)
}

// ThreadName returns the configured log thread name
func (u *NotifierUseCase) ThreadName() string {
	u.threadMu.Lock()
	defer u.threadMu.Unlock()
	return u.threadName
}

// Log appends a rendered conversation entry to the log thread
func (u *NotifierUseCase) Log(ctx context.Context, entry models.LogEntry) error {
	if !u.gateway.IsReady() {
		return core.ErrNotReady
	}

	threadID, err := u.EnsureThread(ctx)
	if err != nil {
		return err
	}

	embed := &clients.Embed{
		Title:       fmt.Sprintf("💬 %s", strings.ToUpper(string(entry.Role))),
		Description: entry.Message,
		Color:       entry.Role.Color(),
		Timestamp:   time.Now().UTC(),
		Footer:      entry.Context,
	}

	if _, err := u.gateway.SendEmbed(threadID, embed); err != nil {
		return fmt.Errorf("failed to log message: %w", err)
	}
	return nil
}

// AwaitReaction posts a prompt with one derived reaction per option and
// blocks until a user other than the bot reacts with one of them, or the
// timeout elapses. On timeout the prompt is edited to a timed-out state and
// core.ErrReactionTimeout is returned.
func (u *NotifierUseCase) AwaitReaction(
	ctx context.Context,
	message string,
	options []string,
	timeout time.Duration,
	note string,
) (*models.ReactionResult, error) {
	if !u.gateway.IsReady() {
		return nil, core.ErrNotReady
	}
	if timeout <= 0 {
		timeout = DefaultReactionTimeout
	}

	threadID, err := u.EnsureThread(ctx)
	if err != nil {
		return nil, err
	}

	botUser, err := u.gateway.BotUser()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve bot identity: %w", err)
	}

	embed := &clients.Embed{
		Title:       "🤔 WAITING FOR INPUT",
		Description: message,
		Color:       models.ColorOrange,
		Timestamp:   time.Now().UTC(),
		Footer:      note,
	}
	embed.AddField("Options", strings.Join(options, "\n"), false)

	messageID, err := u.gateway.SendEmbed(threadID, embed)
	if err != nil {
		return nil, fmt.Errorf("failed to send reaction prompt: %w", err)
	}
	utils.AssertInvariant(messageID != "", "prompt message ID is empty")

	emojis := extractOptionEmojis(options)
	for _, emoji := range emojis {
		if err := u.gateway.AddReaction(threadID, messageID, emoji); err != nil {
			log.Printf("⚠️ Failed to attach option reaction %s: %v", emoji, err)
		}
	}

	pending, err := u.correlator.Register(messageID, emojis, botUser.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to register reaction wait: %w", err)
	}

	event, err := u.correlator.Await(ctx, pending, timeout)
	if err != nil {
		if core.IsTimeoutError(err) {
			u.markPromptTimedOut(threadID, messageID, timeout)
		}
		return nil, err
	}

	responder := event.Username
	if responder == "" {
		responder = event.UserID
	}
	return &models.ReactionResult{
		Option:    matchOption(options, event.Emoji),
		Emoji:     event.Emoji,
		Responder: responder,
		MessageID: messageID,
	}, nil
}

func (u *NotifierUseCase) markPromptTimedOut(threadID, messageID string, timeout time.Duration) {
	embed := &clients.Embed{
		Title:       "⏱️ TIMEOUT",
		Description: fmt.Sprintf("No response received within %.0f seconds", timeout.Seconds()),
		Color:       models.ColorGray,
		Timestamp:   time.Now().UTC(),
	}
	if err := u.gateway.EditEmbed(threadID, messageID, embed); err != nil {
		log.Printf("⚠️ Failed to mark reaction prompt as timed out: %v", err)
	}
}

// NotifyVoice speaks a message in the connected voice channel and always
// records a trace embed in the log thread, so the text channel carries a
// durable record of every voice attempt regardless of outcome.
func (u *NotifierUseCase) NotifyVoice(
	ctx context.Context,
	message string,
	priority models.VoicePriority,
	speakerID int,
) (*models.VoiceNotificationResult, error) {
	if !u.gateway.IsReady() {
		return nil, core.ErrNotReady
	}
	if priority == "" {
		priority = models.VoicePriorityNormal
	}

	threadID, err := u.EnsureThread(ctx)
	if err != nil {
		return nil, err
	}

	color := models.ColorBlue
	if priority == models.VoicePriorityHigh {
		color = models.ColorRed
	}
	embed := &clients.Embed{
		Title:       "🔊 VOICE NOTIFICATION",
		Description: message,
		Color:       color,
		Timestamp:   time.Now().UTC(),
	}
	embed.AddField("Priority", strings.ToUpper(string(priority)), true)
	embed.AddField("Status", "⏳ Processing...", false)

	statusMessageID, err := u.gateway.SendEmbed(threadID, embed)
	if err != nil {
		return nil, fmt.Errorf("failed to log voice notification: %w", err)
	}

	result, notifyErr := u.voice.Notify(ctx, message, speakerID)
	if notifyErr != nil {
		embed.SetField(1, "Status", "❌ Failed", false)
		if editErr := u.gateway.EditEmbed(threadID, statusMessageID, embed); editErr != nil {
			log.Printf("⚠️ Failed to update voice notification status: %v", editErr)
		}
		u.announceVoiceFailure(threadID, message, notifyErr)
		return nil, fmt.Errorf("failed to send voice notification: %w", notifyErr)
	}

	switch result.Status {
	case models.VoiceStatusNotConnected:
		embed.SetField(1, "Status", "⚠️ Not connected to voice channel", false)
		embed.Footer = "Use !join <voice_channel_id> to connect"
	case models.VoiceStatusVoicevoxUnavailable:
		embed.AddField("Voice Channel", result.VoiceChannel, true)
		embed.SetField(1, "Status", "⚠️ VOICEVOX not available", false)
		embed.Footer = "VOICEVOX Engine is not running"
	case models.VoiceStatusPlayed:
		embed.AddField("Voice Channel", result.VoiceChannel, true)
		embed.SetField(1, "Status", "✅ Completed", false)
		embed.Footer = fmt.Sprintf("Speaker ID: %d", speakerID)
	default:
		utils.AssertInvariant(false, "invalid voice status received")
	}
	if err := u.gateway.EditEmbed(threadID, statusMessageID, embed); err != nil {
		log.Printf("⚠️ Failed to update voice notification status: %v", err)
	}

	result.Priority = priority
	return result, nil
}

func (u *NotifierUseCase) announceVoiceFailure(threadID, message string, cause error) {
	embed := &clients.Embed{
		Title:       "❌ VOICE NOTIFICATION FAILED",
		Description: fmt.Sprintf("Error: %v", cause),
		Color:       models.ColorRed,
		Timestamp:   time.Now().UTC(),
	}
	embed.AddField("Message", message, false)
	if _, err := u.gateway.SendEmbed(threadID, embed); err != nil {
		log.Printf("⚠️ Failed to announce voice notification failure: %v", err)
	}
}

// ConnectVoice joins a voice channel as a user-issued command
func (u *NotifierUseCase) ConnectVoice(ctx context.Context, channelID string) (*voice.SessionInfo, error) {
	return u.voice.Connect(ctx, channelID)
}

// DisconnectVoice leaves the current voice channel, if any
func (u *NotifierUseCase) DisconnectVoice() (mo.Option[string], error) {
	return u.voice.Disconnect()
}

// VoiceSession returns a snapshot of the active voice session, if any
func (u *NotifierUseCase) VoiceSession() mo.Option[voice.SessionInfo] {
	return u.voice.Session()
}
