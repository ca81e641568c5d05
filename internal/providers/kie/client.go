package kie

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
var ErrMissingAPIKey = errors.New("kie: api key is required")

// Options configures the KIE video generation client.
type Options struct {
	APIKey         string
	BaseURL        string
	Model          string
	AspectRatio    string
	CallbackURL    string
	HTTPClient     *http.Client
	Logger         *infra.Logger
	RequestTimeout time.Duration
}

// Client submits video generation jobs to the KIE API and decodes the
// callbacks it posts back.
type Client struct {
	apiKey      string
	baseURL     string
	model       string
	aspectRatio string
	callbackURL string
	httpClient  *http.Client
	logger      *infra.Logger
}

type generateRequest struct {
	Prompt      string `json:"prompt"`
	Model       string `json:"model"`
	CallbackURL string `json:"callback_url"`
	AspectRatio string `json:"aspect_ratio"`
}

type generateResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// callbackEnvelope mirrors the webhook body. Newer payloads nest the task
// fields under data; older ones carry them at the top level, so both sets
// are declared and data wins when present.
type callbackEnvelope struct {
	Code int           `json:"code"`
	Msg  string        `json:"msg"`
	Data *callbackTask `json:"data"`
	callbackTask
}

type callbackTask struct {
	TaskID     string          `json:"taskId"`
	State      string          `json:"state"`
	ResultJSON json.RawMessage `json:"resultJson"`
	FailMsg    string          `json:"failMsg"`
}

type callbackResult struct {
	ResultURLs []string `json:"resultUrls"`
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
		baseURL = "https://api.kie.ai/v1"
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = "k-2.0"
	}
	aspect := strings.TrimSpace(opts.AspectRatio)
	if aspect == "" {
		aspect = "16:9"
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
		model:       model,
		aspectRatio: aspect,
		callbackURL: opts.CallbackURL,
		httpClient:  httpClient,
		logger:      logger,
	}, nil
}

// Kind identifies which generations this adapter governs.
func (c *Client) Kind() domain.GenerationKind {
	return domain.GenerationKindVideo
}

// Submit starts a video generation job and returns the provider task id.
func (c *Client) Submit(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(generateRequest{
		Prompt:      prompt,
		Model:       c.model,
		CallbackURL: c.callbackURL,
		AspectRatio: c.aspectRatio,
	})
	if err != nil {
		return "", fmt.Errorf("kie: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/videos/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("kie: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("kie: submit: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("kie: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Error().Int("status", resp.StatusCode).Str("body", string(payload)).Msg("kie submit rejected")
		return "", fmt.Errorf("kie: unexpected status %d", resp.StatusCode)
	}

	var out generateResponse
	if err := json.Unmarshal(payload, &out); err != nil {
		return "", fmt.Errorf("kie: decode response: %w", err)
	}
	if out.ID == "" {
		return "", fmt.Errorf("kie: response missing task id")
	}
	return out.ID, nil
}

// stateMap translates KIE callback states to generation statuses. States the
// provider adds later degrade to waiting rather than being rejected.
var stateMap = map[string]domain.GenerationStatus{
	"pending":    domain.GenerationStatusPending,
	"waiting":    domain.GenerationStatusWaiting,
	"queuing":    domain.GenerationStatusWaiting,
	"generating": domain.GenerationStatusWaiting,
	"success":    domain.GenerationStatusSuccess,
	"fail":       domain.GenerationStatusFail,
}

// DecodeCallback normalizes a KIE webhook body. The payload is claimed when
// it carries either of the task correlation fields; a claimed body missing
// one of them is malformed.
func (c *Client) DecodeCallback(raw []byte) (*domain.CallbackPatch, bool, error) {
	var env callbackEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, false, nil
	}

	task := env.callbackTask
	if env.Data != nil {
		task = *env.Data
	}
	if task.TaskID == "" && task.State == "" {
		return nil, false, nil
	}
	if task.TaskID == "" {
		return nil, true, fmt.Errorf("%w: missing taskId", domain.ErrMalformedCallback)
	}
	if task.State == "" {
		return nil, true, fmt.Errorf("%w: missing state", domain.ErrMalformedCallback)
	}

	status, ok := stateMap[task.State]
	if !ok {
		status = domain.GenerationStatusWaiting
	}

	patch := &domain.CallbackPatch{ID: task.TaskID, Status: status}
	switch status {
	case domain.GenerationStatusSuccess:
		url := extractResultURL(task.ResultJSON)
		if url == "" {
			// A success without a playable URL would break the
			// result_url/status invariant; hold the job open for a
			// redelivery that carries one.
			c.logger.Warn().Str("task_id", task.TaskID).Msg("kie success callback without result url")
			patch.Status = domain.GenerationStatusWaiting
			break
		}
		patch.ResultURL = url
	case domain.GenerationStatusFail:
		patch.FailReason = task.FailMsg
	}
	return patch, true, nil
}

// extractResultURL digs the playable URL out of the result envelope, which
// arrives either as a JSON object or as a stringified copy of one.
func extractResultURL(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	data := []byte(raw)
	var nested string
	if err := json.Unmarshal(data, &nested); err == nil {
		data = []byte(nested)
	}
	var result callbackResult
	if err := json.Unmarshal(data, &result); err != nil {
		return ""
	}
	if len(result.ResultURLs) == 0 {
		return ""
	}
	return result.ResultURLs[0]
}

var _ providers.Adapter = (*Client)(nil)
