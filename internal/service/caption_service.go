package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	config "postpilot/configs"
)

// CaptionService generates caption variants from a prompt via an
// OpenAI-compatible chat completions endpoint.
type CaptionService interface {
	Generate(ctx context.Context, prompt string) ([]string, error)
}

type captionService struct {
	cfg    config.Config
	client *http.Client
}

func NewCaptionService(cfg config.Config) CaptionService {
	return &captionService{
		cfg:    cfg,
		client: &http.Client{Timeout: 60 * time.Second},
	}
}

const captionSystemPrompt = "You write short Instagram captions. " +
	"Return exactly three caption options, one per line, no numbering, no quotes."

func (s *captionService) Generate(ctx context.Context, prompt string) ([]string, error) {
	if s.cfg.OpenAIApiKey == "" {
		err := errors.New("caption generation is not configured")
		slog.Info(err.Error())
		return nil, err
	}
	if strings.TrimSpace(prompt) == "" {
		return nil, errors.New("prompt is empty")
	}

	payload := map[string]interface{}{
		"model": s.cfg.OpenAIModel,
		"messages": []map[string]string{
			{"role": "system", "content": captionSystemPrompt},
			{"role": "user", "content": prompt},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("error marshalling payload: %w", err)
	}

	url := fmt.Sprintf("%s/v1/chat/completions", s.cfg.OpenAIBaseURL)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.cfg.OpenAIApiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("HTTP request error: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code from caption endpoint: %d", resp.StatusCode)
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("error parsing response: %w", err)
	}
	if len(result.Choices) == 0 {
		return nil, errors.New("no captions returned")
	}

	captions := splitCaptions(result.Choices[0].Message.Content)
	if len(captions) == 0 {
		return nil, errors.New("no captions returned")
	}
	return captions, nil
}

// splitCaptions breaks model output into one caption per line, tolerating
// the numbering and bullets models add despite instructions.
func splitCaptions(content string) []string {
	var captions []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-*0123456789.) ")
		line = strings.Trim(line, `"`)
		if line != "" {
			captions = append(captions, line)
		}
	}
	return captions
}
