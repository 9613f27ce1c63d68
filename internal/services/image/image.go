// Package image implements the image generation job type. The actual
// generation is done by an external HTTP service; this package only calls it.
package image

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

	"autodb/internal/task"
	"autodb/pkg/api"
)

// ServiceName is the registry name and table prefix of the job type.
const ServiceName = "image_service"

// Config holds configuration for the generator client.
type Config struct {
	GeneratorURL string
	Timeout      time.Duration // HTTP timeout per call (default: 60s)
}

// GeneratorError is a non-2xx reply from the generator.
type GeneratorError struct {
	StatusCode int
	Message    string
}

func (e *GeneratorError) Error() string {
	return fmt.Sprintf("generator error (%d): %s", e.StatusCode, e.Message)
}

// Generator calls the image generator for each request.
type Generator struct {
	url        string
	httpClient *http.Client
}

var _ task.Processor = (*Generator)(nil)

// NewGenerator creates a generator client.
func NewGenerator(cfg Config) (*Generator, error) {
	if cfg.GeneratorURL == "" {
		return nil, errors.New("image generator url is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &Generator{
		url:        strings.TrimSuffix(cfg.GeneratorURL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// Process asks the generator for an image and returns its URL.
func (g *Generator) Process(ctx context.Context, req task.Request) (string, error) {
	if strings.TrimSpace(req.Text) == "" {
		return "", errors.New("request has no prompt")
	}

	bodyBytes, err := json.Marshal(api.GenerateImageRequest{UserID: req.UserID, Prompt: req.Text})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &GeneratorError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(respBody))}
	}

	var result api.GenerateImageResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if result.URL == "" {
		return "", errors.New("generator returned no url")
	}
	return result.URL, nil
}

// NewTask creates the image_service job type over db.
func NewTask(db task.Runner, cfg Config) (*task.RequestTask, error) {
	gen, err := NewGenerator(cfg)
	if err != nil {
		return nil, err
	}
	return task.NewRequestTask(ServiceName, db, gen)
}
