package voice

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"agentnotify/clients"
	discordclient "agentnotify/clients/discord"
	"agentnotify/clients/voicevox"
	"agentnotify/models"
)

const (
	testVoiceChannelID   = "voice-123"
	testVoiceChannelName = "General Voice"
	testTextChannelID    = "text-456"
	testSpeakerID        = 1
)

type controllerTestFixture struct {
	controller *Controller
	gateway    *discordclient.MockGatewayClient
	voicevox   *voicevox.MockVoicevoxClient
	conn       *discordclient.MockVoiceConn
	ctx        context.Context
}

func setupControllerTest(t *testing.T) *controllerTestFixture {
	gateway := new(discordclient.MockGatewayClient)
	vv := new(voicevox.MockVoicevoxClient)
	return &controllerTestFixture{
		controller: NewController(gateway, vv),
		gateway:    gateway,
		voicevox:   vv,
		conn:       new(discordclient.MockVoiceConn),
		ctx:        context.Background(),
	}
}

func (f *controllerTestFixture) connect(t *testing.T) {
	f.gateway.On("GetChannelInfo", testVoiceChannelID).Return(&clients.ChannelInfo{
		ID:      testVoiceChannelID,
		Name:    testVoiceChannelName,
		IsVoice: true,
	}, nil).Once()
	f.gateway.On("JoinVoiceChannel", testVoiceChannelID).Return(f.conn, nil).Once()

	_, err := f.controller.Connect(f.ctx, testVoiceChannelID)
	require.NoError(t, err)
}

func TestController_Connect(t *testing.T) {
	t.Run("connects to a voice channel", func(t *testing.T) {
		f := setupControllerTest(t)
		f.connect(t)

		info := f.controller.Session()
		require.True(t, info.IsPresent())
		assert.Equal(t, testVoiceChannelName, info.MustGet().ChannelName)
		assert.Equal(t, models.PlaybackIdle, info.MustGet().State)
		f.gateway.AssertExpectations(t)
	})

	t.Run("fails when already connected", func(t *testing.T) {
		f := setupControllerTest(t)
		f.connect(t)

		_, err := f.controller.Connect(f.ctx, "another-channel")
		assert.ErrorIs(t, err, ErrAlreadyConnected)
	})

	t.Run("fails when channel does not exist", func(t *testing.T) {
		f := setupControllerTest(t)
		f.gateway.On("GetChannelInfo", "missing").Return(nil, fmt.Errorf("unknown channel")).Once()

		_, err := f.controller.Connect(f.ctx, "missing")
		assert.ErrorIs(t, err, ErrChannelNotFound)
		assert.False(t, f.controller.Session().IsPresent())
	})

	t.Run("fails when channel is not a voice channel", func(t *testing.T) {
		f := setupControllerTest(t)
		f.gateway.On("GetChannelInfo", testTextChannelID).Return(&clients.ChannelInfo{
			ID:      testTextChannelID,
			Name:    "general",
			IsVoice: false,
		}, nil).Once()

		_, err := f.controller.Connect(f.ctx, testTextChannelID)
		assert.ErrorIs(t, err, ErrNotAVoiceChannel)
		assert.False(t, f.controller.Session().IsPresent())
	})
}

func TestController_Disconnect(t *testing.T) {
	t.Run("disconnects the active session", func(t *testing.T) {
		f := setupControllerTest(t)
		f.connect(t)
		f.conn.On("Disconnect").Return(nil).Once()

		left, err := f.controller.Disconnect()
		require.NoError(t, err)
		require.True(t, left.IsPresent())
		assert.Equal(t, testVoiceChannelName, left.MustGet())
		assert.False(t, f.controller.Session().IsPresent())
	})

	t.Run("is a no-op when not connected", func(t *testing.T) {
		f := setupControllerTest(t)

		left, err := f.controller.Disconnect()
		require.NoError(t, err)
		assert.False(t, left.IsPresent())
	})
}

func TestController_Notify_Fallbacks(t *testing.T) {
	t.Run("returns not_connected without attempting synthesis", func(t *testing.T) {
		f := setupControllerTest(t)

		result, err := f.controller.Notify(f.ctx, "build finished", testSpeakerID)
		require.NoError(t, err)
		assert.Equal(t, models.VoiceStatusNotConnected, result.Status)
		f.voicevox.AssertNotCalled(t, "TextToSpeech", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("returns voicevox_unavailable without attempting playback", func(t *testing.T) {
		f := setupControllerTest(t)
		f.connect(t)
		f.voicevox.On("IsAvailable", mock.Anything).Return(false).Once()

		result, err := f.controller.Notify(f.ctx, "build finished", testSpeakerID)
		require.NoError(t, err)
		assert.Equal(t, models.VoiceStatusVoicevoxUnavailable, result.Status)
		assert.Equal(t, testVoiceChannelName, result.VoiceChannel)
		f.voicevox.AssertNotCalled(t, "TextToSpeech", mock.Anything, mock.Anything, mock.Anything)
		f.conn.AssertNotCalled(t, "PlayFile", mock.Anything, mock.Anything)
	})
}

func TestController_Notify_Played(t *testing.T) {
	f := setupControllerTest(t)
	f.connect(t)

	wav := []byte("RIFF-fake-wav")
	f.voicevox.On("IsAvailable", mock.Anything).Return(true).Once()
	f.voicevox.On("TextToSpeech", mock.Anything, "build finished", testSpeakerID).Return(wav, nil).Once()

	var playedPath string
	f.conn.On("PlayFile", mock.Anything, mock.AnythingOfType("string")).Run(func(args mock.Arguments) {
		playedPath = args.String(1)
		data, err := os.ReadFile(playedPath)
		require.NoError(t, err)
		assert.Equal(t, wav, data)

		// Playback sub-state must be Playing while the clip plays
		info := f.controller.Session()
		require.True(t, info.IsPresent())
		assert.Equal(t, models.PlaybackPlaying, info.MustGet().State)
	}).Return(nil).Once()

	result, err := f.controller.Notify(f.ctx, "build finished", testSpeakerID)
	require.NoError(t, err)
	assert.Equal(t, models.VoiceStatusPlayed, result.Status)
	assert.Equal(t, testVoiceChannelName, result.VoiceChannel)
	assert.Equal(t, testSpeakerID, result.SpeakerID)

	// The temporary clip is removed after playback
	_, statErr := os.Stat(playedPath)
	assert.True(t, os.IsNotExist(statErr))

	// And the session returns to Idle
	info := f.controller.Session()
	require.True(t, info.IsPresent())
	assert.Equal(t, models.PlaybackIdle, info.MustGet().State)
}

func TestController_Notify_PlaybackFailurePreservesConnection(t *testing.T) {
	f := setupControllerTest(t)
	f.connect(t)

	f.voicevox.On("IsAvailable", mock.Anything).Return(true).Once()
	f.voicevox.On("TextToSpeech", mock.Anything, mock.Anything, testSpeakerID).
		Return([]byte("wav"), nil).Once()
	f.conn.On("PlayFile", mock.Anything, mock.Anything).Return(fmt.Errorf("udp stream closed")).Once()

	_, err := f.controller.Notify(f.ctx, "oops", testSpeakerID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to play voice notification")

	// Connection preserved and slot released
	info := f.controller.Session()
	require.True(t, info.IsPresent())
	assert.Equal(t, models.PlaybackIdle, info.MustGet().State)
}

func TestController_Notify_SynthesisFailureCleansUp(t *testing.T) {
	f := setupControllerTest(t)
	f.connect(t)

	f.voicevox.On("IsAvailable", mock.Anything).Return(true).Once()
	f.voicevox.On("TextToSpeech", mock.Anything, mock.Anything, testSpeakerID).
		Return(nil, fmt.Errorf("engine overloaded")).Once()

	_, err := f.controller.Notify(f.ctx, "oops", testSpeakerID)
	require.Error(t, err)
	f.conn.AssertNotCalled(t, "PlayFile", mock.Anything, mock.Anything)

	info := f.controller.Session()
	require.True(t, info.IsPresent())
	assert.Equal(t, models.PlaybackIdle, info.MustGet().State)
}

func TestController_Notify_SerializesPlayback(t *testing.T) {
	f := setupControllerTest(t)
	f.connect(t)

	f.voicevox.On("IsAvailable", mock.Anything).Return(true)
	f.voicevox.On("TextToSpeech", mock.Anything, mock.Anything, testSpeakerID).
		Return([]byte("wav"), nil)

	type window struct{ start, end time.Time }
	var (
		windowsMu sync.Mutex
		windows   []window
	)
	f.conn.On("PlayFile", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		start := time.Now()
		time.Sleep(30 * time.Millisecond)
		windowsMu.Lock()
		windows = append(windows, window{start: start, end: time.Now()})
		windowsMu.Unlock()
	}).Return(nil)

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := f.controller.Notify(f.ctx, "clip", testSpeakerID)
			assert.NoError(t, err)
			assert.Equal(t, models.VoiceStatusPlayed, result.Status)
		}()
	}
	wg.Wait()

	require.Len(t, windows, 2)
	first, second := windows[0], windows[1]
	if second.start.Before(first.start) {
		first, second = second, first
	}
	// The second clip must start only after the first finished
	assert.False(t, second.start.Before(first.end),
		"playback windows overlap: first ended %v, second started %v", first.end, second.start)
}
