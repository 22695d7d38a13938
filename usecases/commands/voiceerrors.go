package commands

import (
	"errors"
	"fmt"

	"agentnotify/services/voice"
)

// isVoiceUsageError reports whether a connect failure was caused by the user
// rather than by the gateway
func isVoiceUsageError(err error) bool {
	return errors.Is(err, voice.ErrAlreadyConnected) ||
		errors.Is(err, voice.ErrChannelNotFound) ||
		errors.Is(err, voice.ErrNotAVoiceChannel)
}

// voiceUsageReply renders a connect usage error as a user-facing reply
func voiceUsageReply(err error, channelID, prefix string) string {
	switch {
	case errors.Is(err, voice.ErrAlreadyConnected):
		return fmt.Sprintf("⚠️ %v\nUse `%sleave` first to disconnect.", err, prefix)
	case errors.Is(err, voice.ErrChannelNotFound):
		return fmt.Sprintf("❌ Voice channel with ID `%s` not found.", channelID)
	case errors.Is(err, voice.ErrNotAVoiceChannel):
		return fmt.Sprintf("❌ %v.", err)
	default:
		return fmt.Sprintf("❌ %v", err)
	}
}
