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
	defaultHFURL           = "https://api-inference.huggingface.co/models"
	defaultClassifierModel = "facebook/bart-large-mnli"
)

// LabelScore is one classifier verdict.
type LabelScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// ZeroShotConfig configures the Hugging Face inference client.
type ZeroShotConfig struct {
	APIToken string
	APIURL   string
	Model    string
	Timeout  time.Duration
}

// ZeroShotClient calls a zero-shot classification model on the Hugging Face
// inference API.
type ZeroShotClient struct {
	token    string
	endpoint string
	http     *http.Client
	cb       *gobreaker.CircuitBreaker[[]LabelScore]
}

// NewZeroShotClient creates a new ZeroShotClient instance
func NewZeroShotClient(cfg ZeroShotConfig) *ZeroShotClient {
	if cfg.APIURL == "" {
		cfg.APIURL = defaultHFURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultClassifierModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &ZeroShotClient{
		token:    cfg.APIToken,
		endpoint: strings.TrimRight(cfg.APIURL, "/") + "/" + cfg.Model,
		http:     &http.Client{Timeout: cfg.Timeout},
		cb:       newBreaker[[]LabelScore]("zero-shot"),
	}
}

type zeroShotRequest struct {
	Inputs     string             `json:"inputs"`
	Parameters zeroShotParameters `json:"parameters"`
}

type zeroShotParameters struct {
	CandidateLabels []string `json:"candidate_labels"`
	MultiLabel      bool     `json:"multi_label"`
}

// Classify implements TagClassifier.
func (c *ZeroShotClient) Classify(ctx context.Context, text string, candidateLabels []string) ([]LabelScore, error) {
	return execute(c.cb, func() ([]LabelScore, error) {
		return c.classify(ctx, text, candidateLabels)
	})
}

func (c *ZeroShotClient) classify(ctx context.Context, text string, labels []string) ([]LabelScore, error) {
	payload, err := json.Marshal(zeroShotRequest{
		Inputs:     text,
		Parameters: zeroShotParameters{CandidateLabels: labels, MultiLabel: true},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		logging.Ctx(ctx).Warn().Int("status", resp.StatusCode).Str("body", truncate(string(body), 256)).Msg("zero-shot request failed")
		return nil, fmt.Errorf("API request failed with status %d", resp.StatusCode)
	}

	return decodeZeroShot(body)
}

// decodeZeroShot accepts both response shapes served by the inference API:
// {"labels": [...], "scores": [...]} and [{"label": ..., "score": ...}].
func decodeZeroShot(body []byte) ([]LabelScore, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var list []LabelScore
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, fmt.Errorf("failed to decode response: %w", err)
		}
		return list, nil
	}

	var parallel struct {
		Labels []string  `json:"labels"`
		Scores []float64 `json:"scores"`
	}
	if err := json.Unmarshal(trimmed, &parallel); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(parallel.Labels) != len(parallel.Scores) {
		return nil, fmt.Errorf("malformed response: %d labels, %d scores", len(parallel.Labels), len(parallel.Scores))
	}
	out := make([]LabelScore, len(parallel.Labels))
	for i := range parallel.Labels {
		out[i] = LabelScore{Label: parallel.Labels[i], Score: parallel.Scores[i]}
	}
	return out, nil
}
