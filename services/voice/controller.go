package voice

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/samber/mo"

	"agentnotify/clients"
	"agentnotify/models"
)

var (
	// ErrAlreadyConnected is returned when a voice session already exists.
	// Callers must disconnect first; there is no implicit channel switching.
	ErrAlreadyConnected = errors.New("already connected to a voice channel")
	// ErrChannelNotFound is returned when the target channel does not exist
	ErrChannelNotFound = errors.New("voice channel not found")
	// ErrNotAVoiceChannel is returned when the target is not a voice channel
	ErrNotAVoiceChannel = errors.New("channel is not a voice channel")
)

// SessionInfo is a read-only snapshot of the active voice session
type SessionInfo struct {
	ChannelID   string
	ChannelName string
	State       models.PlaybackState
}

// session is the singleton voice session slot. Mutated only by the Controller.
type session struct {
	channelID   string
	channelName string
	conn        clients.VoiceConn
	state       models.PlaybackState
}

// Controller guards the single voice connection and the single playback slot.
// Playback is strictly serialized here, so callers never need their own
// locking: at most one synthesis+playback sequence proceeds at a time, and a
// second request waits on the playback sub-state via the condition variable.
type Controller struct {
	gateway  clients.GatewayClient
	voicevox clients.VoicevoxClient

	mu      sync.Mutex
	cond    *sync.Cond
	session *session
}

// NewController creates a new voice session controller
func NewController(gateway clients.GatewayClient, voicevox clients.VoicevoxClient) *Controller {
	c := &Controller{
		gateway:  gateway,
		voicevox: voicevox,
	}
	c.cond = sync.NewCond(&c.mu)
	return c
}

// Connect joins the given voice channel. Fails with ErrAlreadyConnected when
// a session exists, ErrChannelNotFound / ErrNotAVoiceChannel for bad targets.
func (c *Controller) Connect(ctx context.Context, channelID string) (*SessionInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session != nil {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyConnected, c.session.channelName)
	}

	info, err := c.gateway.GetChannelInfo(channelID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrChannelNotFound, channelID)
	}
	if !info.IsVoice {
		return nil, fmt.Errorf("%w: %s", ErrNotAVoiceChannel, info.Name)
	}

	conn, err := c.gateway.JoinVoiceChannel(channelID)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to voice channel %s: %w", info.Name, err)
	}

	c.session = &session{
		channelID:   channelID,
		channelName: info.Name,
		conn:        conn,
		state:       models.PlaybackIdle,
	}

	log.Printf("🔊 Connected to voice channel: %s (ID: %s)", info.Name, channelID)
	return &SessionInfo{ChannelID: channelID, ChannelName: info.Name, State: models.PlaybackIdle}, nil
}

// Disconnect leaves the current voice channel. Returns the name of the
// channel that was left, or None when there was nothing to leave.
func (c *Controller) Disconnect() (mo.Option[string], error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil {
		log.Printf("⚠️ Disconnect requested but not connected to any voice channel")
		return mo.None[string](), nil
	}

	name := c.session.channelName
	err := c.session.conn.Disconnect()
	c.session = nil
	// Wake any notification waiting for the playback slot so it can observe
	// the teardown
	c.cond.Broadcast()

	if err != nil {
		return mo.Some(name), fmt.Errorf("failed to disconnect from voice channel %s: %w", name, err)
	}

	log.Printf("🔊 Disconnected from voice channel: %s", name)
	return mo.Some(name), nil
}

// Session returns a snapshot of the active voice session, if any
func (c *Controller) Session() mo.Option[SessionInfo] {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return mo.None[SessionInfo]()
	}
	return mo.Some(SessionInfo{
		ChannelID:   c.session.channelID,
		ChannelName: c.session.channelName,
		State:       c.session.state,
	})
}

// Notify synthesizes text via VOICEVOX and plays it into the connected voice
// channel, blocking until playback completes. Disconnected and
// engine-unavailable outcomes are normal results, not errors.
func (c *Controller) Notify(
	ctx context.Context,
	text string,
	speakerID int,
) (*models.VoiceNotificationResult, error) {
	c.mu.Lock()
	if c.session == nil {
		c.mu.Unlock()
		return &models.VoiceNotificationResult{
			Status:  models.VoiceStatusNotConnected,
			Message: text,
			Note:    "Not connected to voice channel - message logged to text only. Use !join command to connect.",
		}, nil
	}
	s := c.session
	channelName := s.channelName
	c.mu.Unlock()

	if !c.voicevox.IsAvailable(ctx) {
		return &models.VoiceNotificationResult{
			Status:       models.VoiceStatusVoicevoxUnavailable,
			VoiceChannel: channelName,
			Message:      text,
			Note:         "VOICEVOX not available - message logged to text channel only",
		}, nil
	}

	// Acquire the playback slot: wait until the session is Idle. Condition
	// wait instead of polling; the slot holder broadcasts on release.
	c.mu.Lock()
	for c.session == s && s.state != models.PlaybackIdle {
		c.cond.Wait()
	}
	if c.session != s {
		// Session was torn down while waiting for the slot
		c.mu.Unlock()
		return &models.VoiceNotificationResult{
			Status:  models.VoiceStatusNotConnected,
			Message: text,
			Note:    "Voice channel was disconnected before playback started",
		}, nil
	}
	s.state = models.PlaybackGenerating
	c.mu.Unlock()

	// Release the slot on every exit path, including errors
	defer func() {
		c.mu.Lock()
		s.state = models.PlaybackIdle
		c.cond.Broadcast()
		c.mu.Unlock()
	}()

	audio, err := c.voicevox.TextToSpeech(ctx, text, speakerID)
	if err != nil {
		return nil, fmt.Errorf("failed to synthesize voice notification: %w", err)
	}

	audioFile, err := os.CreateTemp("", "agentnotify-*.wav")
	if err != nil {
		return nil, fmt.Errorf("failed to create temporary audio file: %w", err)
	}
	audioPath := audioFile.Name()
	defer func() {
		if removeErr := os.Remove(audioPath); removeErr != nil {
			log.Printf("⚠️ Failed to remove temporary audio file %s: %v", audioPath, removeErr)
		}
	}()

	if _, err := audioFile.Write(audio); err != nil {
		_ = audioFile.Close()
		return nil, fmt.Errorf("failed to write temporary audio file: %w", err)
	}
	if err := audioFile.Close(); err != nil {
		return nil, fmt.Errorf("failed to close temporary audio file: %w", err)
	}

	c.mu.Lock()
	s.state = models.PlaybackPlaying
	c.mu.Unlock()

	log.Printf("▶️ Playing voice notification in %s (speaker %d)", channelName, speakerID)
	if err := s.conn.PlayFile(ctx, audioPath); err != nil {
		// Connection is preserved: a playback failure never forces a disconnect
		return nil, fmt.Errorf("failed to play voice notification: %w", err)
	}

	return &models.VoiceNotificationResult{
		Status:       models.VoiceStatusPlayed,
		VoiceChannel: channelName,
		Message:      text,
		SpeakerID:    speakerID,
	}, nil
}
