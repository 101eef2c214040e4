package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"
)

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// OpenAICompatible answers through any /chat/completions endpoint. Documents are
// referred to by file name only; their contents are never sent.
type OpenAICompatible struct {
	cfg        ChatConfig
	httpClient *http.Client
}

func NewOpenAICompatible(cfg ChatConfig) *OpenAICompatible {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 90 * time.Second
	}
	return &OpenAICompatible{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

func (c *OpenAICompatible) Name() string { return "openai:" + c.cfg.Model }

func (c *OpenAICompatible) RetrieveAndGenerate(ctx context.Context, query string, documentPaths []string) (string, error) {
	return c.Complete(ctx, buildMessages(query, documentPaths))
}

func (c *OpenAICompatible) Complete(ctx context.Context, messages []ChatMessage) (string, error) {
	reqBody := map[string]interface{}{
		"model":    c.cfg.Model,
		"messages": messages,
		"stream":   false,
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal llm request failed: %w", err)
	}

	url := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("build llm request failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("llm request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read llm response failed: %w", err)
	}
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("llm response status %d: %s", resp.StatusCode, string(raw))
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("parse llm json failed: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("empty llm choices")
	}
	return parsed.Choices[0].Message.Content, nil
}

func buildMessages(query string, documentPaths []string) []ChatMessage {
	var sb strings.Builder
	sb.WriteString("You help engineers describe CAD parts. Answer briefly.")
	if len(documentPaths) > 0 {
		sb.WriteString(" The user uploaded these reference documents:")
		for _, p := range documentPaths {
			sb.WriteString(" ")
			sb.WriteString(filepath.Base(p))
			sb.WriteString(";")
		}
	}
	return []ChatMessage{
		{Role: "system", Content: sb.String()},
		{Role: "user", Content: query},
	}
}
