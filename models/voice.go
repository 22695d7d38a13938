package models

// VoiceStatus is the outcome of a voice notification attempt. The non-played
// statuses are normal results, not errors: the text-channel trace is itself a
// valid fallback outcome.
type VoiceStatus string

const (
	VoiceStatusPlayed              VoiceStatus = "played"
	VoiceStatusNotConnected        VoiceStatus = "not_connected"
	VoiceStatusVoicevoxUnavailable VoiceStatus = "voicevox_unavailable"
)

// VoicePriority controls the presentation of the text-channel trace
type VoicePriority string

const (
	VoicePriorityNormal VoicePriority = "normal"
	VoicePriorityHigh   VoicePriority = "high"
)

// VoiceNotificationResult describes what happened to a voice notification
type VoiceNotificationResult struct {
	Status       VoiceStatus   `json:"status"`
	VoiceChannel string        `json:"voice_channel,omitempty"`
	Message      string        `json:"message"`
	Priority     VoicePriority `json:"priority"`
	SpeakerID    int           `json:"speaker_id,omitempty"`
	Note         string        `json:"note,omitempty"`
}

// PlaybackState is the sub-state of a connected voice session. Transitions
// are only Idle -> Generating -> Playing -> Idle, never skipping or reversing.
type PlaybackState int

const (
	PlaybackIdle PlaybackState = iota
	PlaybackGenerating
	PlaybackPlaying
)

func (s PlaybackState) String() string {
	switch s {
	case PlaybackIdle:
		return "idle"
	case PlaybackGenerating:
		return "generating"
	case PlaybackPlaying:
		return "playing"
	default:
		return "unknown"
	}
}
