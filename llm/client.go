package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/randalmurphal/patchflow/httpapi"
	"github.com/randalmurphal/patchflow/prompt"
)

// Defaults for the completion call. They bias the model toward short,
// deterministic output.
const (
	DefaultEndpoint    = "https://api.openai.com/v1/chat/completions"
	DefaultModel       = "gpt-4o"
	DefaultTemperature = 0.2
	DefaultMaxTokens   = 1500
	DefaultTimeout     = 60 * time.Second
)

// ErrEmptyCompletion indicates the API responded without any choices.
var ErrEmptyCompletion = errors.New("completion returned no choices")

// Config configures a Client. Zero values fall back to the package
// defaults.
type Config struct {
	Endpoint    string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration

	// HTTPClient overrides the underlying HTTP client (for tests).
	HTTPClient *http.Client

	// Prompts overrides the instruction template loader.
	Prompts *prompt.Loader
}

// Client calls an OpenAI-compatible chat completions endpoint.
type Client struct {
	api         *httpapi.Client
	model       string
	temperature float64
	maxTokens   int
	prompts     *prompt.Loader
}

// NewClient creates a completion client from explicit configuration.
func NewClient(cfg Config) *Client {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = DefaultTemperature
	}
	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = DefaultMaxTokens
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}

	prompts := cfg.Prompts
	if prompts == nil {
		prompts = prompt.NewLoader("")
	}

	return &Client{
		api: httpapi.NewClient(httpapi.ClientConfig{
			Client:      httpClient,
			BaseURL:     endpoint,
			ServiceName: "completion",
			MaxRetries:  1, // the pipeline never retries model calls
		}),
		model:       model,
		temperature: temperature,
		maxTokens:   maxTokens,
		prompts:     prompts,
	}
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.model
}

// message is one entry of the chat exchange.
type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete sends the repository summary and change request to the model and
// returns the first choice's raw text. The caller-supplied apiKey
// authenticates the request; it is passed through, never stored.
func (c *Client) Complete(ctx context.Context, repoSummary map[string]string, requestText, apiKey string) (string, error) {
	system, err := c.prompts.Load(prompt.PatchSystem)
	if err != nil {
		return "", fmt.Errorf("load system prompt: %w", err)
	}

	payload, err := prompt.UserPayload(repoSummary, requestText)
	if err != nil {
		return "", err
	}

	req := chatRequest{
		Model: c.model,
		Messages: []message{
			{Role: "system", Content: system},
			{Role: "user", Content: payload},
		},
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	}

	var resp chatResponse
	headers := map[string]string{"Authorization": "Bearer " + apiKey}
	if err := c.api.PostWithHeaders(ctx, "", req, &resp, headers); err != nil {
		return "", fmt.Errorf("completion request: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}
	return resp.Choices[0].Message.Content, nil
}
