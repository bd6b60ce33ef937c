package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultElevenLabsBaseURL = "https://api.elevenlabs.io"
	defaultElevenLabsModel   = "eleven_multilingual_v2"
	elevenLabsOutputFormat   = "mp3_44100_128"
)

// ElevenLabsClient calls the ElevenLabs text-to-speech REST API.
type ElevenLabsClient struct {
	apiKey     string
	modelID    string
	baseURL    string
	httpClient *http.Client
}

// ElevenLabsOption customizes the client.
type ElevenLabsOption func(*ElevenLabsClient)

// WithBaseURL overrides the API endpoint, used by tests.
func WithBaseURL(u string) ElevenLabsOption {
	return func(c *ElevenLabsClient) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithTimeout bounds each synthesis request.
func WithTimeout(d time.Duration) ElevenLabsOption {
	return func(c *ElevenLabsClient) { c.httpClient.Timeout = d }
}

// NewElevenLabsClient builds a client with sane defaults.
func NewElevenLabsClient(apiKey, modelID string, opts ...ElevenLabsOption) (*ElevenLabsClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("speech: elevenlabs api key is required")
	}
	if strings.TrimSpace(modelID) == "" {
		modelID = defaultElevenLabsModel
	}
	c := &ElevenLabsClient{
		apiKey:  apiKey,
		modelID: modelID,
		baseURL: defaultElevenLabsBaseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Synthesize converts text into MP3 audio using the given voice.
func (c *ElevenLabsClient) Synthesize(ctx context.Context, text, voiceID string) ([]byte, error) {
	if voiceID == "" {
		return nil, errors.New("speech: voice id required")
	}

	payload, err := json.Marshal(map[string]string{
		"text":     text,
		"model_id": c.modelID,
	})
	if err != nil {
		return nil, fmt.Errorf("speech: marshal synthesis request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1/text-to-speech/%s?output_format=%s", c.baseURL, voiceID, elevenLabsOutputFormat)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("speech: build synthesis request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("xi-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("speech: elevenlabs request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("speech: elevenlabs status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("speech: read synthesis response: %w", err)
	}
	return audio, nil
}
