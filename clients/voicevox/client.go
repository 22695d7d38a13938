package voicevox

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"agentnotify/clients"
)

const (
	requestTimeout      = 30 * time.Second
	availabilityTimeout = 5 * time.Second
)

// VoicevoxClient implements the clients.VoicevoxClient interface against a
// running VOICEVOX Engine instance
type VoicevoxClient struct {
	httpClient *http.Client
	baseURL    string
}

// NewVoicevoxClient creates a new VOICEVOX Engine API client
func NewVoicevoxClient(httpClient *http.Client, baseURL string) clients.VoicevoxClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: requestTimeout}
	}
	return &VoicevoxClient{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// IsAvailable probes the engine's version endpoint with a short timeout
func (c *VoicevoxClient) IsAvailable(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, availabilityTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/version", nil)
	if err != nil {
		return false
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode == http.StatusOK
}

// GetSpeakers lists the available speakers and their styles
func (c *VoicevoxClient) GetSpeakers(ctx context.Context) ([]clients.Speaker, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/speakers", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create speakers request: %w", err)
	}

	body, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var speakers []clients.Speaker
	if err := json.Unmarshal(body, &speakers); err != nil {
		return nil, fmt.Errorf("failed to decode speakers response: %w", err)
	}

	return speakers, nil
}

// CreateAudioQuery builds a synthesis query for the given text. The query is
// passed through opaquely to Synthesize.
func (c *VoicevoxClient) CreateAudioQuery(
	ctx context.Context,
	text string,
	speakerID int,
) (json.RawMessage, error) {
	params := url.Values{}
	params.Set("text", text)
	params.Set("speaker", strconv.Itoa(speakerID))

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.baseURL+"/audio_query?"+params.Encode(),
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create audio query request: %w", err)
	}

	body, err := c.do(req)
	if err != nil {
		return nil, err
	}

	return json.RawMessage(body), nil
}

// Synthesize renders an audio query into WAV bytes
func (c *VoicevoxClient) Synthesize(
	ctx context.Context,
	audioQuery json.RawMessage,
	speakerID int,
) ([]byte, error) {
	params := url.Values{}
	params.Set("speaker", strconv.Itoa(speakerID))

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.baseURL+"/synthesis?"+params.Encode(),
		bytes.NewReader(audioQuery),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create synthesis request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req)
}

// TextToSpeech converts text into WAV bytes in one call
func (c *VoicevoxClient) TextToSpeech(ctx context.Context, text string, speakerID int) ([]byte, error) {
	audioQuery, err := c.CreateAudioQuery(ctx, text, speakerID)
	if err != nil {
		return nil, fmt.Errorf("failed to create audio query: %w", err)
	}

	audio, err := c.Synthesize(ctx, audioQuery, speakerID)
	if err != nil {
		return nil, fmt.Errorf("failed to synthesize audio: %w", err)
	}

	return audio, nil
}

func (c *VoicevoxClient) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute VOICEVOX request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read VOICEVOX response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("VOICEVOX request failed with status %d: %s", resp.StatusCode, string(body))
	}

	return body, nil
}
