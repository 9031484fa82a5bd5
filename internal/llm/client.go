package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/muesli/reflow/truncate"

	pcErrors "github.com/bashhack/periodic-commit/internal/errors"
	"github.com/bashhack/periodic-commit/internal/logger"
)

const (
	// DefaultModel is the Ollama model asked for commit messages.
	DefaultModel = "llama3.1:8b"

	// DefaultBaseURL is where a local Ollama server listens.
	DefaultBaseURL = "http://localhost:11434"

	// DefaultTimeout bounds a single generate call.
	DefaultTimeout = 120 * time.Second

	// NoChangesMessage is returned for an empty diff without calling the model.
	NoChangesMessage = "No changes detected."

	generatePath = "/api/generate"

	// errorBodyLimit caps how much of an error response is read.
	errorBodyLimit = 4096
)

// Summarizer turns a diff into a commit message body.
type Summarizer interface {
	Summarize(ctx context.Context, diff string) (string, error)
}

// Options configures an OllamaClient.
type Options struct {
	Model       string
	BaseURL     string
	Temperature float64
	Timeout     time.Duration

	// Prompt overrides the default prompt.
	Prompt *Prompt

	// HTTPClient overrides the client built from Timeout.
	HTTPClient *http.Client
}

// OllamaClient asks an Ollama server for commit messages through /api/generate.
type OllamaClient struct {
	model       string
	endpoint    string
	temperature float64
	prompt      *Prompt
	httpClient  *http.Client
	logger      logger.Logger
}

var _ Summarizer = (*OllamaClient)(nil)

type generateOptions struct {
	Temperature float64 `json:"temperature"`
}

type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options"`
}

type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error,omitempty"`
}

// NewOllamaClient creates a client for the server at opts.BaseURL.
func NewOllamaClient(opts Options, log logger.Logger) (*OllamaClient, error) {
	if opts.Model == "" {
		opts.Model = DefaultModel
	}
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}

	base, err := url.Parse(opts.BaseURL)
	if err != nil || (base.Scheme != "http" && base.Scheme != "https") || base.Host == "" {
		return nil, fmt.Errorf("invalid model base URL %q", opts.BaseURL)
	}
	endpoint := base.JoinPath(generatePath).String()

	prompt := opts.Prompt
	if prompt == nil {
		prompt, err = NewPrompt("")
		if err != nil {
			return nil, err
		}
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}

	return &OllamaClient{
		model:       opts.Model,
		endpoint:    endpoint,
		temperature: opts.Temperature,
		prompt:      prompt,
		httpClient:  httpClient,
		logger:      log,
	}, nil
}

// Model returns the model name sent with each request.
func (c *OllamaClient) Model() string {
	return c.model
}

// Endpoint returns the generate URL.
func (c *OllamaClient) Endpoint() string {
	return c.endpoint
}

// Summarize asks the model for a commit message describing diff. Any failure
// is logged and returned as a *errors.ModelError.
func (c *OllamaClient) Summarize(ctx context.Context, diff string) (string, error) {
	c.logger.Debug("Generating commit message, diff length: %d", len(diff))
	if diff == "" {
		c.logger.Debug("Generated: %s", NoChangesMessage)
		return NoChangesMessage, nil
	}

	c.logger.Debug("Calling model %s at %s, temperature: %.2f", c.model, c.endpoint, c.temperature)

	message, err := c.generate(ctx, diff)
	if err != nil {
		c.logger.Error("Unexpected error, caused by: '%v'.", err)
		return "", err
	}

	c.logger.Debug("Generated: %s", truncate.StringWithTail(message, 30, "..."))
	return message, nil
}

func (c *OllamaClient) generate(ctx context.Context, diff string) (string, error) {
	prompt, err := c.prompt.Render(diff)
	if err != nil {
		return "", pcErrors.NewModelError(c.model, 0, err)
	}

	body, err := json.Marshal(generateRequest{
		Model:   c.model,
		Prompt:  prompt,
		Stream:  false,
		Options: generateOptions{Temperature: c.temperature},
	})
	if err != nil {
		return "", pcErrors.NewModelError(c.model, 0, fmt.Errorf("marshal request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", pcErrors.NewModelError(c.model, 0, fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", pcErrors.NewModelError(c.model, 0, fmt.Errorf("call %s: %w", c.endpoint, err))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", pcErrors.NewModelError(c.model, resp.StatusCode, fmt.Errorf("%s", errorDetail(resp)))
	}

	var parsed generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", pcErrors.NewModelError(c.model, resp.StatusCode, fmt.Errorf("decode response: %w", err))
	}
	if parsed.Error != "" {
		return "", pcErrors.NewModelError(c.model, resp.StatusCode, fmt.Errorf("%s", parsed.Error))
	}

	message := CleanResponse(parsed.Response)
	if message == "" {
		return "", pcErrors.NewModelError(c.model, resp.StatusCode, fmt.Errorf("empty response"))
	}
	return message, nil
}

// errorDetail extracts Ollama's {"error": "..."} message, falling back to
// the raw body or the status text.
func errorDetail(resp *http.Response) string {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))

	var parsed generateResponse
	if err := json.Unmarshal(data, &parsed); err == nil && parsed.Error != "" {
		return parsed.Error
	}
	if text := strings.TrimSpace(string(data)); text != "" {
		return text
	}
	return resp.Status
}
