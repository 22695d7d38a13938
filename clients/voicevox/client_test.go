package voicevox

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agentnotify/clients"
)

func TestVoicevoxClient_IsAvailable(t *testing.T) {
	t.Run("returns true when version endpoint responds", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "GET", r.Method)
			assert.Equal(t, "/version", r.URL.Path)
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`"0.14.0"`))
		}))
		defer server.Close()

		client := NewVoicevoxClient(nil, server.URL)
		assert.True(t, client.IsAvailable(context.Background()))
	})

	t.Run("returns false when engine is unreachable", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		server.Close()

		client := NewVoicevoxClient(nil, server.URL)
		assert.False(t, client.IsAvailable(context.Background()))
	})

	t.Run("returns false on non-200 status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		client := NewVoicevoxClient(nil, server.URL)
		assert.False(t, client.IsAvailable(context.Background()))
	})
}

func TestVoicevoxClient_GetSpeakers(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "GET", r.Method)
		assert.Equal(t, "/speakers", r.URL.Path)

		speakers := []clients.Speaker{
			{
				Name: "四国めたん",
				Styles: []clients.SpeakerStyle{
					{Name: "ノーマル", ID: 2},
					{Name: "あまあま", ID: 0},
				},
			},
			{
				Name:   "ずんだもん",
				Styles: []clients.SpeakerStyle{{Name: "ノーマル", ID: 3}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(speakers)
	}))
	defer server.Close()

	client := NewVoicevoxClient(nil, server.URL)
	speakers, err := client.GetSpeakers(context.Background())

	require.NoError(t, err)
	require.Len(t, speakers, 2)
	assert.Equal(t, "四国めたん", speakers[0].Name)
	assert.Equal(t, 2, speakers[0].Styles[0].ID)
	assert.Equal(t, "ずんだもん", speakers[1].Name)
}

func TestVoicevoxClient_TextToSpeech(t *testing.T) {
	wavBytes := []byte("RIFF....WAVEfmt ")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/audio_query":
			assert.Equal(t, "POST", r.Method)
			assert.Equal(t, "おはよう", r.URL.Query().Get("text"))
			assert.Equal(t, "1", r.URL.Query().Get("speaker"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"accent_phrases":[],"speedScale":1.0}`))
		case "/synthesis":
			assert.Equal(t, "POST", r.Method)
			assert.Equal(t, "1", r.URL.Query().Get("speaker"))
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

			var query map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&query))
			assert.Contains(t, query, "accent_phrases")

			w.Header().Set("Content-Type", "audio/wav")
			_, _ = w.Write(wavBytes)
		default:
			t.Errorf("unexpected request path: %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := NewVoicevoxClient(nil, server.URL)
	audio, err := client.TextToSpeech(context.Background(), "おはよう", 1)

	require.NoError(t, err)
	assert.Equal(t, wavBytes, audio)
}

func TestVoicevoxClient_TextToSpeech_QueryFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"detail":"invalid text"}`))
	}))
	defer server.Close()

	client := NewVoicevoxClient(nil, server.URL)
	_, err := client.TextToSpeech(context.Background(), "", 1)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 422")
}
