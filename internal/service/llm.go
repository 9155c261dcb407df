package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/pageza/recipematch/backend/internal/logging"
)

const (
	defaultDeepSeekURL   = "https://api.deepseek.com/v1/chat/completions"
	defaultDeepSeekModel = "deepseek-chat"
)

// Message represents a message in the chat
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request represents a request to the DeepSeek API
type Request struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

// DeepSeekConfig configures the chat-completions client.
type DeepSeekConfig struct {
	APIKey  string
	APIURL  string
	Model   string
	Timeout time.Duration
}

// DeepSeekClient generates text through the DeepSeek chat-completions API.
type DeepSeekClient struct {
	apiKey string
	apiURL string
	model  string
	http   *http.Client
	cb     *gobreaker.CircuitBreaker[string]
}

// NewDeepSeekClient creates a new DeepSeekClient instance
func NewDeepSeekClient(cfg DeepSeekConfig) (*DeepSeekClient, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("DEEPSEEK_API_KEY or DEEPSEEK_API_KEY_FILE must be set")
	}
	if cfg.APIURL == "" {
		cfg.APIURL = defaultDeepSeekURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultDeepSeekModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &DeepSeekClient{
		apiKey: cfg.APIKey,
		apiURL: cfg.APIURL,
		model:  cfg.Model,
		http:   &http.Client{Timeout: cfg.Timeout},
		cb:     newBreaker[string]("deepseek"),
	}, nil
}

// Generate sends prompt as a single user message and returns the reply text.
// Low temperature keeps extraction output terse and repeatable.
func (s *DeepSeekClient) Generate(ctx context.Context, prompt string) (string, error) {
	return execute(s.cb, func() (string, error) {
		return s.complete(ctx, Request{
			Model:       s.model,
			Messages:    []Message{{Role: "user", Content: prompt}},
			Temperature: 0.2,
			MaxTokens:   512,
		})
	})
}

func (s *DeepSeekClient) complete(ctx context.Context, reqBody Request) (string, error) {
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL, bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		logging.Ctx(ctx).Warn().Int("status", resp.StatusCode).Str("body", truncate(string(body), 256)).Msg("DeepSeek request failed")
		return "", fmt.Errorf("API request failed with status %d", resp.StatusCode)
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("no response from API")
	}

	return result.Choices[0].Message.Content, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
