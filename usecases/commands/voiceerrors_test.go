package commands

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"agentnotify/services/voice"
)

func TestVoiceUsageReply(t *testing.T) {
	t.Run("already connected names the channel and the configured prefix", func(t *testing.T) {
		err := fmt.Errorf("%w: General", voice.ErrAlreadyConnected)
		reply := voiceUsageReply(err, "voice-222", "$")

		assert.Contains(t, reply, "General")
		assert.Contains(t, reply, "`$leave`")
		assert.NotContains(t, reply, "`!leave`")
	})

	t.Run("channel not found echoes the requested ID", func(t *testing.T) {
		err := fmt.Errorf("%w: bogus", voice.ErrChannelNotFound)
		reply := voiceUsageReply(err, "bogus", "!")

		assert.Equal(t, "❌ Voice channel with ID `bogus` not found.", reply)
	})

	t.Run("not a voice channel names the channel", func(t *testing.T) {
		err := fmt.Errorf("%w: general-chat", voice.ErrNotAVoiceChannel)
		reply := voiceUsageReply(err, "text-1", "!")

		assert.Contains(t, reply, "general-chat")
	})
}

func TestIsVoiceUsageError(t *testing.T) {
	assert.True(t, isVoiceUsageError(fmt.Errorf("%w: General", voice.ErrAlreadyConnected)))
	assert.True(t, isVoiceUsageError(voice.ErrChannelNotFound))
	assert.True(t, isVoiceUsageError(voice.ErrNotAVoiceChannel))
	assert.False(t, isVoiceUsageError(errors.New("gateway exploded")))
}
