package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	defaultGeminiBase  = "https://generativelanguage.googleapis.com"
	defaultGeminiModel = "gemini-pro"
)

// Gemini classifies text via the Google Generative Language API.
type Gemini struct {
	baseURL string
	model   string
	client  *resty.Client
	logger  *slog.Logger
}

type GeminiConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
	Logger  *slog.Logger
}

func NewGemini(cfg GeminiConfig) (*Gemini, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("gemini: API key is required")
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = defaultGeminiBase
	}
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = defaultGeminiModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("x-goog-api-key", cfg.APIKey).
		SetRetryCount(2).
		SetRetryWaitTime(time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return r.StatusCode() >= http.StatusInternalServerError ||
				r.StatusCode() == http.StatusTooManyRequests
		})

	return &Gemini{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		model:   cfg.Model,
		client:  client,
		logger:  cfg.Logger,
	}, nil
}

func (g *Gemini) Name() string { return "gemini" }

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Classify sends the moderation prompt and parses the TRUE/FALSE verdict.
func (g *Gemini) Classify(ctx context.Context, text string) (bool, error) {
	body := geminiRequest{
		Contents: []geminiContent{
			{Parts: []geminiPart{{Text: buildPrompt(text)}}},
		},
	}

	resp, err := g.client.R().
		SetContext(ctx).
		SetBody(body).
		Post(fmt.Sprintf("/v1beta/models/%s:generateContent", g.model))
	if err != nil {
		return false, fmt.Errorf("gemini request: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return false, fmt.Errorf("gemini status %d: %s", resp.StatusCode(), resp.String())
	}

	var out geminiResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return false, fmt.Errorf("gemini decode: %w", err)
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return false, errors.New("gemini: empty response")
	}

	var sb strings.Builder
	for _, p := range out.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return parseVerdict(sb.String()), nil
}

// Healthy checks that the API is reachable with the configured key.
func (g *Gemini) Healthy(ctx context.Context) error {
	resp, err := g.client.R().
		SetContext(ctx).
		Get("/v1beta/models")
	if err != nil {
		return fmt.Errorf("gemini not reachable: %w", err)
	}
	switch resp.StatusCode() {
	case http.StatusOK:
		return nil
	case http.StatusUnauthorized, http.StatusForbidden:
		return errors.New("gemini: invalid API key")
	default:
		return fmt.Errorf("gemini returned %d", resp.StatusCode())
	}
}
