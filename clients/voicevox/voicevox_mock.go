package voicevox

import (
	"context"
	"encoding/json"

	"github.com/stretchr/testify/mock"

	"agentnotify/clients"
)

// MockVoicevoxClient implements the clients.VoicevoxClient interface for testing
type MockVoicevoxClient struct {
	mock.Mock
}

// IsAvailable mocks the engine availability probe
func (m *MockVoicevoxClient) IsAvailable(ctx context.Context) bool {
	args := m.Called(ctx)
	return args.Bool(0)
}

// GetSpeakers mocks listing the available speakers
func (m *MockVoicevoxClient) GetSpeakers(ctx context.Context) ([]clients.Speaker, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]clients.Speaker), args.Error(1)
}

// CreateAudioQuery mocks building a synthesis query
func (m *MockVoicevoxClient) CreateAudioQuery(
	ctx context.Context,
	text string,
	speakerID int,
) (json.RawMessage, error) {
	args := m.Called(ctx, text, speakerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}

// Synthesize mocks rendering an audio query into WAV bytes
func (m *MockVoicevoxClient) Synthesize(
	ctx context.Context,
	audioQuery json.RawMessage,
	speakerID int,
) ([]byte, error) {
	args := m.Called(ctx, audioQuery, speakerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// TextToSpeech mocks the one-shot text to WAV conversion
func (m *MockVoicevoxClient) TextToSpeech(ctx context.Context, text string, speakerID int) ([]byte, error) {
	args := m.Called(ctx, text, speakerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}
