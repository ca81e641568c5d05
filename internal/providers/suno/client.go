package suno

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

	"github.com/rs/zerolog"

	"vibeflow/internal/domain"
	"vibeflow/internal/infra"
	"vibeflow/internal/providers"
)

// ErrMissingAPIKey indicates that the client was configured without credentials.
var ErrMissingAPIKey = errors.New("suno: api key is required")

// Options configures the Suno music generation client.
type Options struct {
	APIKey         string
	BaseURL        string
	CallbackURL    string
	HTTPClient     *http.Client
	Logger         *infra.Logger
	RequestTimeout time.Duration
}

// Client submits music generation jobs to the Suno API and decodes its
/// two-phase callbacks: "text" fires when a streaming-quality asset exists,
// "complete" when the final render is done.
type Client struct {
	apiKey      string
	baseURL     string
	callbackURL string
	httpClient  *http.Client
	logger      *infra.Logger
}

type generateRequest struct {
	Prompt      string `json:"prompt"`
	CallbackURL string `json:"callBackUrl"`
}

type generateResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data struct {
		TaskID string `json:"taskId"`
	} `json:"data"`
}

type callbackEnvelope struct {
	Data *callbackData `json:"data"`
}

type callbackData struct {
	CallbackType string `json:"callbackType"`
	TaskID       string `json:"task_id"`
	Songs        []song `json:"data"`
}

type song struct {
	AudioURL       string  `json:"audio_url"`
	SourceAudioURL string  `json:"source_audio_url"`
	StreamAudioURL string  `json:"stream_audio_url"`
	ImageURL       string  `json:"image_url"`
	Title          string  `json:"title"`
	Duration       float64 `json:"duration"`
}

// Audio URL candidates for the complete phase, best quality first. Provider
// format changes go here, not into the decode logic.
type urlExtractor func(song) string

var completeURLOrder = []urlExtractor{
	func(s song) string { return s.AudioURL },
	func(s song) string { return s.SourceAudioURL },
	func(s song) string { return s.StreamAudioURL },
}

// NewClient constructs a client with sane defaults and injected dependencies.
func NewClient(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.sunoapi.org"
	}
	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}
	return &Client{
		apiKey:      strings.TrimSpace(opts.APIKey),
		baseURL:     baseURL,
		callbackURL: opts.CallbackURL,
		httpClient:  httpClient,
		logger:      logger,
	}, nil
}

// Kind identifies which generations this adapter governs.
func (c *Client) Kind() domain.GenerationKind {
	return domain.GenerationKindMusic
}

// Submit starts a music generation job and returns the provider task id.
func (c *Client) Submit(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(generateRequest{
		Prompt:      prompt,
		CallbackURL: c.callbackURL,
	})
	if err != nil {
		return "", fmt.Errorf("suno: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("suno: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("suno: submit: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("suno: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Error().Int("status", resp.StatusCode).Str("body", string(payload)).Msg("suno submit rejected")
		return "", fmt.Errorf("suno: unexpected status %d", resp.StatusCode)
	}

	var out generateResponse
	if err := json.Unmarshal(payload, &out); err != nil {
		return "", fmt.Errorf("suno: decode response: %w", err)
	}
	if out.Data.TaskID == "" {
		return "", fmt.Errorf("suno: response missing task id (code %d: %s)", out.Code, out.Msg)
	}
	return out.Data.TaskID, nil
}

// DecodeCallback normalizes a Suno webhook body. The payload is claimed when
// data.callbackType carries one of the known phases; other shapes fall
// through so the video adapter can try them.
func (c *Client) DecodeCallback(raw []byte) (*domain.CallbackPatch, bool, error) {
	var env callbackEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, false, nil
	}
	if env.Data == nil {
		return nil, false, nil
	}
	phase := env.Data.CallbackType
	if phase != "text" && phase != "complete" {
		return nil, false, nil
	}
	if env.Data.TaskID == "" {
		return nil, true, fmt.Errorf("%w: missing task_id", domain.ErrMalformedCallback)
	}
	if len(env.Data.Songs) == 0 {
		return nil, true, fmt.Errorf("%w: missing songs array", domain.ErrMalformedCallback)
	}

	// The first song is the one surfaced to the user.
	first := env.Data.Songs[0]
	patch := &domain.CallbackPatch{
		ID:                env.Data.TaskID,
		Status:            domain.GenerationStatusWaiting,
		SecondaryMediaURL: first.ImageURL,
		Title:             first.Title,
		DurationSeconds:   first.Duration,
	}

	// The text phase only proves a streaming-quality asset exists. Keeping
	// the record open until complete means success always carries the final
	// render, and a finished record never has to be rewritten.
	if phase == "complete" {
		if audioURL := firstNonEmpty(first, completeURLOrder); audioURL != "" {
			patch.Status = domain.GenerationStatusSuccess
			patch.ResultURL = audioURL
		}
	}
	return patch, true, nil
}

func firstNonEmpty(s song, order []urlExtractor) string {
	for _, extract := range order {
		if url := extract(s); url != "" {
			return url
		}
	}
	return ""
}

var _ providers.Adapter = (*Client)(nil)
