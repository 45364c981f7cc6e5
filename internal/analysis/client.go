// Package analysis talks to the external image analysis endpoint that
// suggests a title, description and report type for a photo.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/incident-service/internal/config"
	"github.com/spec-kit/incident-service/internal/domain"
)

// ErrDisabled is returned when no endpoint is configured.
var ErrDisabled = errors.New("image analysis disabled")

// Suggestion is the analyzer's answer as received.
type Suggestion struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	ReportType  string `json:"reportType"`
}

// Annotation converts the suggestion into the stored annotation. A report
// type the enumeration does not know is left empty.
func (s Suggestion) Annotation(at time.Time) domain.ImageAnalysis {
	reportType, _ := domain.ParseReportType(s.ReportType)
	return domain.ImageAnalysis{
		Title:       strings.TrimSpace(s.Title),
		Description: strings.TrimSpace(s.Description),
		ReportType:  reportType,
		AnalyzedAt:  at.UTC(),
	}
}

type analyzeRequest struct {
	Image string `json:"image"`
}

// Client posts images to the analysis endpoint.
type Client struct {
	endpoint string
	apiKey   string
	timeout  time.Duration
}

// NewClient builds a client; an empty endpoint yields a disabled client.
func NewClient(cfg config.AnalysisConfig) *Client {
	return &Client{
		endpoint: strings.TrimSpace(cfg.Endpoint),
		apiKey:   cfg.APIKey,
		timeout:  cfg.Timeout(),
	}
}

// Enabled reports whether an endpoint is configured.
func (c *Client) Enabled() bool {
	return c != nil && c.endpoint != ""
}

// Analyze sends the image data URI and decodes the suggestion.
func (c *Client) Analyze(ctx context.Context, imageDataURI string) (*Suggestion, error) {
	if !c.Enabled() {
		return nil, ErrDisabled
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}

	agent := fiber.Post(c.endpoint).
		JSON(analyzeRequest{Image: imageDataURI}).
		Timeout(timeout)
	if c.apiKey != "" {
		agent.Set(fiber.HeaderAuthorization, "Bearer "+c.apiKey)
	}

	var suggestion Suggestion
	status, body, errs := agent.Struct(&suggestion)
	if len(errs) > 0 {
		return nil, fmt.Errorf("analysis request: %w", errors.Join(errs...))
	}
	if status < fiber.StatusOK || status >= fiber.StatusMultipleChoices {
		return nil, fmt.Errorf("analysis endpoint returned %d: %s", status, truncate(string(body), 200))
	}
	if strings.TrimSpace(suggestion.Title) == "" && strings.TrimSpace(suggestion.Description) == "" {
		return nil, errors.New("analysis endpoint returned an empty suggestion")
	}
	return &suggestion, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
